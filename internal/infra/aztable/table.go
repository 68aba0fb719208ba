// Package aztable reads tenant rows from Azure Table Storage.
package aztable

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"mspportal/internal/config"
	"mspportal/internal/domain"
	"mspportal/internal/usecase"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
)

// entityLister is the subset of *aztables.Client used here.
type entityLister interface {
	NewListEntitiesPager(options *aztables.ListEntitiesOptions) *runtime.Pager[aztables.ListEntitiesResponse]
}

type Table struct {
	client entityLister
}

func New(client entityLister) *Table {
	return &Table{client: client}
}

// NewFromConfig builds a table client from a connection string when one is
// set, otherwise from the managed identity credential chain.
func NewFromConfig(cfg config.Config) (*Table, error) {
	tableName := strings.TrimSpace(cfg.TenantsTableName)
	if tableName == "" {
		return nil, errors.New("TENANTS_TABLE_NAME is required")
	}
	if conn := strings.TrimSpace(cfg.AzureStorageConnectionString); conn != "" {
		svc, err := aztables.NewServiceClientFromConnectionString(conn, nil)
		if err != nil {
			return nil, fmt.Errorf("table service from connection string: %w", err)
		}
		return New(svc.NewClient(tableName)), nil
	}
	serviceURL := cfg.TableServiceURL()
	if serviceURL == "" {
		return nil, errors.New("STORAGE_ACCOUNT_NAME or TABLE_ENDPOINT is required")
	}
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("azure credential: %w", err)
	}
	svc, err := aztables.NewServiceClient(serviceURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("table service client: %w", err)
	}
	return New(svc.NewClient(tableName)), nil
}

func (t *Table) ListPartition(ctx context.Context, partitionKey string) ([]domain.TenantEntity, error) {
	if t == nil || t.client == nil {
		return nil, errors.New("azure table client not configured")
	}
	filter := PartitionFilter(partitionKey)
	pager := t.client.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	var out []domain.TenantEntity
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list entities: %w", err)
		}
		for _, raw := range page.Entities {
			entity, err := decodeEntity(raw)
			if err != nil {
				return nil, err
			}
			out = append(out, entity)
		}
	}
	return out, nil
}

// PartitionFilter builds an OData filter for one partition, doubling single
// quotes inside the literal.
func PartitionFilter(partitionKey string) string {
	return fmt.Sprintf("PartitionKey eq '%s'", strings.ReplaceAll(partitionKey, "'", "''"))
}

func decodeEntity(raw []byte) (domain.TenantEntity, error) {
	var props map[string]any
	if err := json.Unmarshal(raw, &props); err != nil {
		return domain.TenantEntity{}, fmt.Errorf("decode entity: %w", err)
	}
	return domain.TenantEntity{
		PartitionKey:     stringProp(props, "PartitionKey"),
		RowKey:           stringProp(props, "RowKey"),
		CustomerName:     optionalString(props, "CustomerName"),
		CustomerTenantID: optionalString(props, "CustomerTenantId"),
		DefaultDomain:    optionalString(props, "DefaultDomain"),
		Enabled:          props["Enabled"],
	}, nil
}

func stringProp(props map[string]any, key string) string {
	if v := optionalString(props, key); v != nil {
		return *v
	}
	return ""
}

func optionalString(props map[string]any, key string) *string {
	v, ok := props[key]
	if !ok || v == nil {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprint(v)
	}
	return &s
}

var _ usecase.TenantTable = (*Table)(nil)
