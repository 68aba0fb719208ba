package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"mspportal/internal/config"
	"mspportal/internal/domain"
	"mspportal/internal/infra/db"
	"mspportal/internal/infra/redistable"
	"mspportal/internal/infra/tablemem"
)

// tenantWriter is implemented by the writable table backends.
type tenantWriter interface {
	Upsert(ctx context.Context, entity domain.TenantEntity) error
}

type redisWriter struct {
	table *redistable.Table
}

func (w redisWriter) Upsert(ctx context.Context, entity domain.TenantEntity) error {
	return w.table.Put(ctx, entity)
}

func runTenantsSeed(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("tenants seed", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var inPath string
	var timeout time.Duration
	fs.StringVar(&inPath, "in", "", "seed YAML file")
	fs.DurationVar(&timeout, "timeout", 30*time.Second, "overall timeout")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if inPath == "" {
		fmt.Fprintln(stderr, "--in is required")
		return 1
	}

	seed, err := tablemem.LoadFile(inPath)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}

	cfg := config.FromEnv()
	writer, closeFn, err := openWriter(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	defer func() { _ = closeFn() }()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	n, err := seedTenants(ctx, writer, seed.All())
	if err != nil {
		fmt.Fprintf(stderr, "seed tenants: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "seeded %d tenants into %s\n", n, cfg.TableBackend)
	return 0
}

func openWriter(cfg config.Config) (tenantWriter, func() error, error) {
	switch cfg.TableBackend {
	case config.BackendPostgres:
		cfg.AutoMigrate = true
		store, err := db.NewStore(cfg)
		if err != nil {
			return nil, nil, err
		}
		return db.NewTenantEntityRepository(store.DB), store.Close, nil
	case config.BackendRedis:
		table, err := redistable.NewFromAddr(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisKeyPrefix)
		if err != nil {
			return nil, nil, err
		}
		return redisWriter{table: table}, table.Close, nil
	default:
		return nil, nil, fmt.Errorf("tenants seed supports postgres and redis backends, not %q", cfg.TableBackend)
	}
}

func seedTenants(ctx context.Context, w tenantWriter, entities []domain.TenantEntity) (int, error) {
	for i, entity := range entities {
		if err := w.Upsert(ctx, entity); err != nil {
			return i, fmt.Errorf("row %s/%s: %w", entity.PartitionKey, entity.RowKey, err)
		}
	}
	return len(entities), nil
}
