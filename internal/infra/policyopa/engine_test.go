package policyopa

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"mspportal/internal/domain"
	"mspportal/internal/infra/auth/rbac"

	"github.com/open-policy-agent/opa/ast"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(context.Background())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestEngineAgreesWithBuiltinResolver(t *testing.T) {
	engine := newTestEngine(t)
	builtin := rbac.NewResolver()

	cases := [][]string{
		nil,
		{"authenticated"},
		{"admin"},
		{"ADMIN", "tenant-abc"},
		{"tenant-"},
		{"tenant-abc", "TENANT-xyz", " tenant-abc "},
		{"tenants-abc", "tenant-q"},
	}
	for _, roles := range cases {
		got, err := engine.Resolve(context.Background(), roles)
		if err != nil {
			t.Fatalf("roles %v: resolve: %v", roles, err)
		}
		want, _ := builtin.Resolve(context.Background(), roles)
		if got.Kind != want.Kind {
			t.Fatalf("roles %v: expected %s, got %s", roles, want.Kind, got.Kind)
		}
		if !reflect.DeepEqual(got.SortedShortcodes(), want.SortedShortcodes()) {
			t.Fatalf("roles %v: expected %v, got %v", roles, want.SortedShortcodes(), got.SortedShortcodes())
		}
	}
}

func TestEngineDeterministic(t *testing.T) {
	engine := newTestEngine(t)
	roles := []string{"tenant-abc", "tenant-xyz"}

	first, err := engine.Resolve(context.Background(), roles)
	if err != nil {
		t.Fatalf("resolve first: %v", err)
	}
	second, err := engine.Resolve(context.Background(), roles)
	if err != nil {
		t.Fatalf("resolve second: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected deterministic decisions")
	}
	if first.Kind != domain.AccessScoped {
		t.Fatalf("expected scoped decision, got %s", first.Kind)
	}
}

func TestEngineFromPath(t *testing.T) {
	dir := t.TempDir()
	policy := `package portal.access

default admin = false

admin {
	input.roles[_] == "portal-owner"
}

shortcodes[code] {
	role := input.roles[_]
	startswith(role, "customer-")
	count(role) > 9
	code := upper(substring(role, 9, -1))
}

result = {"admin": admin, "shortcodes": shortcodes}
`
	if err := os.WriteFile(filepath.Join(dir, "access.rego"), []byte(policy), 0o600); err != nil {
		t.Fatalf("write policy: %v", err)
	}
	engine, err := NewEngineFromPath(context.Background(), dir)
	if err != nil {
		t.Fatalf("load policy: %v", err)
	}
	if engine.Source() != dir {
		t.Fatalf("unexpected source %q", engine.Source())
	}

	decision, err := engine.Resolve(context.Background(), []string{"customer-abc", "admin"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if decision.Kind != domain.AccessScoped || !decision.Allows("ABC") {
		t.Fatalf("expected scoped ABC decision, got %s %v", decision.Kind, decision.SortedShortcodes())
	}
	decision, err = engine.Resolve(context.Background(), []string{"Portal-Owner"})
	if err != nil {
		t.Fatalf("resolve owner: %v", err)
	}
	if !decision.IsAdmin() {
		t.Fatalf("expected admin decision, got %s", decision.Kind)
	}
}

func TestEngineRejectsForbiddenBuiltins(t *testing.T) {
	cases := []struct {
		builtin string
		body    string
	}{
		{"http.send", `resp := http.send({"method": "get", "url": "http://127.0.0.1:1"})
	admin := resp.status_code == 200`},
		{"time.now_ns", `admin := time.now_ns() > 0`},
		{"rand.intn", `admin := rand.intn("seed", 10) > 100`},
		{"opa.runtime", `rt := opa.runtime()
	admin := count(rt) > 0`},
	}
	for _, tc := range cases {
		policy := "package portal.access\n\nresult = {\"admin\": admin, \"shortcodes\": []} {\n\t" + tc.body + "\n}\n"
		_, err := NewEngineFromSource(context.Background(), "bad.rego", policy)
		if err == nil {
			t.Fatalf("%s: expected forbidden builtin error", tc.builtin)
		}
		if !strings.Contains(err.Error(), tc.builtin) {
			t.Fatalf("%s: expected builtin named in error, got %v", tc.builtin, err)
		}
	}
}

func TestFilterBuiltinsKeepsOnlyAllowlist(t *testing.T) {
	filtered := filterBuiltins(ast.CapabilitiesForThisVersion().Builtins)
	names := make(map[string]struct{}, len(filtered))
	for _, builtin := range filtered {
		if _, ok := allowedBuiltins[builtin.Name]; !ok {
			t.Fatalf("unexpected builtin %s", builtin.Name)
		}
		names[builtin.Name] = struct{}{}
	}
	for _, name := range []string{"startswith", "upper", "substring", "count"} {
		if _, ok := names[name]; !ok {
			t.Fatalf("expected %s to survive filtering", name)
		}
	}
	if _, ok := names["http.send"]; ok {
		t.Fatalf("expected http.send filtered out")
	}
}

func TestEngineFromPathRequiresPath(t *testing.T) {
	if _, err := NewEngineFromPath(context.Background(), "  "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
