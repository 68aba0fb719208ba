package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"mspportal/internal/config"
	"mspportal/internal/domain"
	"mspportal/internal/infra/auth/rbac"
	"mspportal/internal/infra/policyopa"
)

type accessOutput struct {
	Decision   string   `json:"decision"`
	Roles      []string `json:"roles"`
	Shortcodes []string `json:"shortcodes"`
}

func runAccessResolve(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("access resolve", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var engine, policyPath string
	var roles multiFlag
	fs.StringVar(&engine, "engine", config.PolicyEngineBuiltin, "policy engine (builtin|opa)")
	fs.StringVar(&policyPath, "policy", "", "rego policy file (opa engine)")
	fs.Var(&roles, "role", "role (repeatable)")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	ctx := context.Background()
	var resolver domain.AccessResolver
	switch engine {
	case config.PolicyEngineBuiltin:
		resolver = rbac.NewResolver()
	case config.PolicyEngineOPA:
		var err error
		if policyPath != "" {
			resolver, err = policyopa.NewEngineFromPath(ctx, policyPath)
		} else {
			resolver, err = policyopa.NewEngine(ctx)
		}
		if err != nil {
			fmt.Fprintf(stderr, "load policy: %v\n", err)
			return 1
		}
	default:
		fmt.Fprintf(stderr, "unsupported engine %q\n", engine)
		return 1
	}

	decision, err := resolver.Resolve(ctx, roles)
	if err != nil {
		fmt.Fprintf(stderr, "resolve: %v\n", err)
		return 1
	}
	out := accessOutput{
		Decision:   decision.Kind.String(),
		Roles:      rbac.NormalizeRoles(roles),
		Shortcodes: decision.SortedShortcodes(),
	}
	raw, _ := json.Marshal(out)
	fmt.Fprintln(stdout, string(raw))
	return 0
}
