package main

import (
	"fmt"
	"io"
	"path/filepath"
)

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 3 {
		usage(args, stderr)
		return 1
	}

	switch args[1] {
	case "principal":
		switch args[2] {
		case "encode":
			return runPrincipalEncode(args[3:], stdout, stderr)
		case "decode":
			return runPrincipalDecode(args[3:], stdout, stderr)
		}
	case "access":
		if args[2] == "resolve" {
			return runAccessResolve(args[3:], stdout, stderr)
		}
	case "tenants":
		if args[2] == "seed" {
			return runTenantsSeed(args[3:], stdout, stderr)
		}
	}

	usage(args, stderr)
	return 1
}

func usage(args []string, w io.Writer) {
	name := "portalctl"
	if len(args) > 0 && args[0] != "" {
		name = filepath.Base(args[0])
	}
	fmt.Fprintf(w, "usage:\n")
	fmt.Fprintf(w, "  %s principal encode [--idp <provider>] [--user-id <id>] [--user <details>] [--role <role>]...\n", name)
	fmt.Fprintf(w, "  %s principal decode <header-value>\n", name)
	fmt.Fprintf(w, "  %s access resolve [--engine builtin|opa] [--policy <file.rego>] [--role <role>]...\n", name)
	fmt.Fprintf(w, "  %s tenants seed --in <seed.yaml>   (target backend from TABLE_BACKEND)\n", name)
}

// multiFlag collects repeated string flags.
type multiFlag []string

func (m *multiFlag) String() string {
	return fmt.Sprint([]string(*m))
}

func (m *multiFlag) Set(value string) error {
	*m = append(*m, value)
	return nil
}
