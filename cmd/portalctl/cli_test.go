package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mspportal/internal/domain"
	"mspportal/internal/infra/redistable"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRunUsage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"portalctl"}, &stdout, &stderr); code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(stderr.String(), "principal encode") {
		t.Fatalf("expected usage, got %s", stderr.String())
	}
}

func TestPrincipalEncodeDecodeRoundTrip(t *testing.T) {
	var encoded, stderr bytes.Buffer
	code := run([]string{"portalctl", "principal", "encode", "--user", "alice@example.com", "--role", "tenant-abc", "--role", "admin"}, &encoded, &stderr)
	if code != 0 {
		t.Fatalf("encode failed: %s", stderr.String())
	}

	var decoded bytes.Buffer
	code = run([]string{"portalctl", "principal", "decode", strings.TrimSpace(encoded.String())}, &decoded, &stderr)
	if code != 0 {
		t.Fatalf("decode failed: %s", stderr.String())
	}
	var payload principalPayload
	if err := json.Unmarshal(decoded.Bytes(), &payload); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if payload.UserDetails == nil || *payload.UserDetails != "alice@example.com" || payload.UserID != nil {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if len(payload.UserRoles) != 2 || payload.UserRoles[1] != "admin" {
		t.Fatalf("unexpected roles: %v", payload.UserRoles)
	}
}

func TestPrincipalDecodeRejectsGarbage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"portalctl", "principal", "decode", "!!!"}, &stdout, &stderr); code != 2 {
		t.Fatalf("expected exit 2, got %d", code)
	}
}

func TestAccessResolveEngines(t *testing.T) {
	for _, engine := range []string{"builtin", "opa"} {
		var stdout, stderr bytes.Buffer
		code := run([]string{"portalctl", "access", "resolve", "--engine", engine, "--role", "Tenant-xyz", "--role", "tenant-abc"}, &stdout, &stderr)
		if code != 0 {
			t.Fatalf("%s: resolve failed: %s", engine, stderr.String())
		}
		want := `{"decision":"scoped","roles":["tenant-xyz","tenant-abc"],"shortcodes":["ABC","XYZ"]}`
		if got := strings.TrimSpace(stdout.String()); got != want {
			t.Fatalf("%s: expected %s, got %s", engine, want, got)
		}
	}
}

func TestAccessResolveDenied(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"portalctl", "access", "resolve", "--role", "tenant-"}, &stdout, &stderr); code != 0 {
		t.Fatalf("resolve failed: %s", stderr.String())
	}
	if !strings.Contains(stdout.String(), `"decision":"denied"`) {
		t.Fatalf("expected denied decision, got %s", stdout.String())
	}
}

func TestTenantsSeedIntoRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	seed := filepath.Join(t.TempDir(), "seed.yaml")
	doc := "tenants:\n  - rowKey: abc\n    customerName: Zeta\n    enabled: true\n  - rowKey: def\n    enabled: false\n"
	if err := os.WriteFile(seed, []byte(doc), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	t.Setenv("TABLE_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", mr.Addr())
	t.Setenv("REDIS_KEY_PREFIX", "test:")

	var stdout, stderr bytes.Buffer
	if code := run([]string{"portalctl", "tenants", "seed", "--in", seed}, &stdout, &stderr); code != 0 {
		t.Fatalf("seed failed: %s", stderr.String())
	}
	if !strings.Contains(stdout.String(), "seeded 2 tenants into redis") {
		t.Fatalf("unexpected output: %s", stdout.String())
	}

	table := redistable.New(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test:")
	rows, err := table.ListPartition(context.Background(), "tenant")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
}

func TestTenantsSeedRejectsAzureBackend(t *testing.T) {
	seed := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(seed, []byte("tenants: []\n"), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	t.Setenv("TABLE_BACKEND", "azure")
	var stdout, stderr bytes.Buffer
	if code := run([]string{"portalctl", "tenants", "seed", "--in", seed}, &stdout, &stderr); code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(stderr.String(), "postgres and redis") {
		t.Fatalf("unexpected error: %s", stderr.String())
	}
}

type failingWriter struct{ after int }

func (w *failingWriter) Upsert(context.Context, domain.TenantEntity) error {
	if w.after == 0 {
		return errors.New("write refused")
	}
	w.after--
	return nil
}

func TestSeedTenantsStopsAtFirstFailure(t *testing.T) {
	rows := []domain.TenantEntity{{PartitionKey: "tenant", RowKey: "a"}, {PartitionKey: "tenant", RowKey: "b"}}
	n, err := seedTenants(context.Background(), &failingWriter{after: 1}, rows)
	if err == nil || n != 1 || !strings.Contains(err.Error(), "tenant/b") {
		t.Fatalf("expected failure on second row, got n=%d err=%v", n, err)
	}
}
