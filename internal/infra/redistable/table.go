// Package redistable stores tenant rows as one redis hash per partition:
// field = row key, value = JSON object of the row's properties.
package redistable

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"mspportal/internal/domain"
	"mspportal/internal/usecase"

	"github.com/redis/go-redis/v9"
)

const scanCount = 100

type Table struct {
	client redis.UniversalClient
	prefix string
}

type rowProps struct {
	CustomerName     *string `json:"CustomerName,omitempty"`
	CustomerTenantID *string `json:"CustomerTenantId,omitempty"`
	DefaultDomain    *string `json:"DefaultDomain,omitempty"`
	Enabled          any     `json:"Enabled,omitempty"`
}

func New(client redis.UniversalClient, prefix string) *Table {
	return &Table{client: client, prefix: prefix}
}

func NewFromAddr(addr, password string, db int, prefix string) (*Table, error) {
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return New(client, prefix), nil
}

func (t *Table) Key(partitionKey string) string {
	return t.prefix + "tenants:" + partitionKey
}

func (t *Table) ListPartition(ctx context.Context, partitionKey string) ([]domain.TenantEntity, error) {
	if t == nil || t.client == nil {
		return nil, errors.New("redis client not configured")
	}
	key := t.Key(partitionKey)
	var (
		out    []domain.TenantEntity
		cursor uint64
	)
	for {
		pairs, next, err := t.client.HScan(ctx, key, cursor, "", scanCount).Result()
		if err != nil {
			return nil, fmt.Errorf("hscan %s: %w", key, err)
		}
		for i := 0; i+1 < len(pairs); i += 2 {
			entity, err := decodeRow(partitionKey, pairs[i], pairs[i+1])
			if err != nil {
				return nil, err
			}
			out = append(out, entity)
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	return out, nil
}

// Put writes one row into its partition hash.
func (t *Table) Put(ctx context.Context, entity domain.TenantEntity) error {
	if t == nil || t.client == nil {
		return errors.New("redis client not configured")
	}
	partition := entity.PartitionKey
	if partition == "" {
		partition = domain.DefaultTenantPartition
	}
	payload, err := json.Marshal(rowProps{
		CustomerName:     entity.CustomerName,
		CustomerTenantID: entity.CustomerTenantID,
		DefaultDomain:    entity.DefaultDomain,
		Enabled:          entity.Enabled,
	})
	if err != nil {
		return err
	}
	return t.client.HSet(ctx, t.Key(partition), entity.RowKey, payload).Err()
}

func (t *Table) Close() error {
	if t == nil || t.client == nil {
		return nil
	}
	return t.client.Close()
}

func decodeRow(partitionKey, rowKey, value string) (domain.TenantEntity, error) {
	var props rowProps
	if err := json.Unmarshal([]byte(value), &props); err != nil {
		return domain.TenantEntity{}, fmt.Errorf("decode row %s: %w", rowKey, err)
	}
	return domain.TenantEntity{
		PartitionKey:     partitionKey,
		RowKey:           rowKey,
		CustomerName:     props.CustomerName,
		CustomerTenantID: props.CustomerTenantID,
		DefaultDomain:    props.DefaultDomain,
		Enabled:          props.Enabled,
	}, nil
}

var _ usecase.TenantTable = (*Table)(nil)
