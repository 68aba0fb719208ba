// Package policyopa evaluates the role-to-access policy with OPA. It is an
// alternative to the builtin rbac resolver and must agree with it for the
// embedded policy.
package policyopa

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"mspportal/internal/domain"
	"mspportal/internal/infra/auth/rbac"

	"github.com/open-policy-agent/opa/ast"
	"github.com/open-policy-agent/opa/rego"
)

const defaultQuery = "data.portal.access.result"

//go:embed policy/access.rego
var defaultPolicy string

type Engine struct {
	query  rego.PreparedEvalQuery
	source string
}

type policyResult struct {
	Admin      bool     `json:"admin"`
	Shortcodes []string `json:"shortcodes"`
}

// NewEngine loads the embedded policy.
func NewEngine(ctx context.Context) (*Engine, error) {
	return newEngine(ctx, "embedded", rego.Module("access.rego", defaultPolicy))
}

// NewEngineFromPath loads policy files from a file or directory.
func NewEngineFromPath(ctx context.Context, path string) (*Engine, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("policy path is required")
	}
	return newEngine(ctx, path, rego.Load([]string{path}, nil))
}

// NewEngineFromSource compiles a single policy module from source.
func NewEngineFromSource(ctx context.Context, name, source string) (*Engine, error) {
	return newEngine(ctx, name, rego.Module(name, source))
}

func newEngine(ctx context.Context, source string, module func(*rego.Rego)) (*Engine, error) {
	capabilities := ast.CapabilitiesForThisVersion()
	capabilities.Builtins = filterBuiltins(capabilities.Builtins)
	compiler := ast.NewCompiler().WithCapabilities(capabilities)
	r := rego.New(
		rego.Query(defaultQuery),
		rego.Compiler(compiler),
		rego.StrictBuiltinErrors(true),
		module,
	)
	prepared, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare access policy: %w", err)
	}
	if err := assertNoForbiddenBuiltins(compiler); err != nil {
		return nil, err
	}
	return &Engine{query: prepared, source: source}, nil
}

func (e *Engine) Source() string {
	if e == nil {
		return ""
	}
	return e.source
}

func (e *Engine) Resolve(ctx context.Context, roles []string) (domain.AccessDecision, error) {
	if e == nil {
		return domain.AccessDecision{}, errors.New("policy engine is nil")
	}
	normalized := rbac.NormalizeRoles(roles)
	input := make([]any, 0, len(normalized))
	for _, role := range normalized {
		input = append(input, role)
	}
	results, err := e.query.Eval(ctx, rego.EvalInput(map[string]any{"roles": input}))
	if err != nil {
		return domain.AccessDecision{}, err
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return domain.AccessDecision{}, errors.New("empty policy result")
	}
	result, err := decodePolicyResult(results[0].Expressions[0].Value)
	if err != nil {
		return domain.AccessDecision{}, err
	}
	if result.Admin {
		return domain.AdminAccess(), nil
	}
	return domain.ScopedAccess(result.Shortcodes...), nil
}

func decodePolicyResult(value any) (policyResult, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return policyResult{}, err
	}
	var result policyResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return policyResult{}, fmt.Errorf("decode policy result: %w", err)
	}
	return result, nil
}

var _ domain.AccessResolver = (*Engine)(nil)
