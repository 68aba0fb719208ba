package tablemem

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"mspportal/internal/domain"
	"mspportal/internal/usecase"

	"gopkg.in/yaml.v3"
)

type Table struct {
	mu   sync.RWMutex
	rows map[string][]domain.TenantEntity
}

type seedFile struct {
	Partition string     `yaml:"partition"`
	Tenants   []seedItem `yaml:"tenants"`
}

type seedItem struct {
	PartitionKey     string  `yaml:"partitionKey"`
	RowKey           string  `yaml:"rowKey"`
	CustomerName     *string `yaml:"customerName"`
	CustomerTenantID *string `yaml:"customerTenantId"`
	DefaultDomain    *string `yaml:"defaultDomain"`
	Enabled          any     `yaml:"enabled"`
}

func New(entities ...domain.TenantEntity) *Table {
	t := &Table{rows: make(map[string][]domain.TenantEntity)}
	for _, e := range entities {
		t.Put(e)
	}
	return t
}

// LoadFile seeds a table from a YAML document.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Table, error) {
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	partition := strings.TrimSpace(seed.Partition)
	if partition == "" {
		partition = domain.DefaultTenantPartition
	}
	t := New()
	for i, item := range seed.Tenants {
		if strings.TrimSpace(item.RowKey) == "" {
			return nil, fmt.Errorf("seed tenant %d: rowKey is required", i)
		}
		pk := item.PartitionKey
		if pk == "" {
			pk = partition
		}
		t.Put(domain.TenantEntity{
			PartitionKey:     pk,
			RowKey:           item.RowKey,
			CustomerName:     item.CustomerName,
			CustomerTenantID: item.CustomerTenantID,
			DefaultDomain:    item.DefaultDomain,
			Enabled:          item.Enabled,
		})
	}
	return t, nil
}

// Put inserts a row or replaces the row with the same key in place.
func (t *Table) Put(entity domain.TenantEntity) {
	if entity.PartitionKey == "" {
		entity.PartitionKey = domain.DefaultTenantPartition
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	rows := t.rows[entity.PartitionKey]
	for i := range rows {
		if rows[i].RowKey == entity.RowKey {
			rows[i] = entity
			return
		}
	}
	t.rows[entity.PartitionKey] = append(rows, entity)
}

func (t *Table) ListPartition(ctx context.Context, partitionKey string) ([]domain.TenantEntity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	rows := t.rows[partitionKey]
	out := make([]domain.TenantEntity, len(rows))
	copy(out, rows)
	return out, nil
}

// All returns every row, partitions in key order.
func (t *Table) All() []domain.TenantEntity {
	t.mu.RLock()
	defer t.mu.RUnlock()
	keys := make([]string, 0, len(t.rows))
	for key := range t.rows {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var out []domain.TenantEntity
	for _, key := range keys {
		out = append(out, t.rows[key]...)
	}
	return out
}

func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, rows := range t.rows {
		n += len(rows)
	}
	return n
}

var _ usecase.TenantTable = (*Table)(nil)
