package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"mspportal/internal/domain"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// TenantDirectory lists the tenant records a caller may see.
type TenantDirectory struct {
	Table     TenantTable
	Partition string
}

func NewTenantDirectory(table TenantTable, partition string) *TenantDirectory {
	partition = strings.TrimSpace(partition)
	if partition == "" {
		partition = domain.DefaultTenantPartition
	}
	return &TenantDirectory{Table: table, Partition: partition}
}

// List reads the whole partition, keeps enabled rows the decision allows and
// orders them by customer name. Table errors are wrapped in domain.ErrUpstream.
func (q *TenantDirectory) List(ctx context.Context, decision domain.AccessDecision) ([]domain.TenantRecord, error) {
	if q == nil || q.Table == nil {
		return nil, fmt.Errorf("%w: tenant table not configured", domain.ErrUpstream)
	}
	if decision.IsDenied() {
		return nil, domain.ErrForbidden
	}
	partition := q.Partition
	if partition == "" {
		partition = domain.DefaultTenantPartition
	}
	entities, err := q.Table.ListPartition(ctx, partition)
	if err != nil {
		if errors.Is(err, domain.ErrUpstream) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: list tenants: %v", domain.ErrUpstream, err)
	}
	return FilterTenants(entities, decision), nil
}

// FilterTenants applies the enabled filter, the access scope, the ordering and
// the projection to rows already read from the table.
func FilterTenants(entities []domain.TenantEntity, decision domain.AccessDecision) []domain.TenantRecord {
	kept := make([]domain.TenantEntity, 0, len(entities))
	for _, e := range entities {
		if !e.IsEnabled() {
			continue
		}
		if !decision.Allows(e.Shortcode()) {
			continue
		}
		kept = append(kept, e)
	}

	col := collate.New(language.English)
	sort.SliceStable(kept, func(i, j int) bool {
		return col.CompareString(kept[i].SortName(), kept[j].SortName()) < 0
	})

	out := make([]domain.TenantRecord, 0, len(kept))
	for _, e := range kept {
		out = append(out, domain.TenantRecord{
			Shortcode:        e.RowKey,
			CustomerName:     e.CustomerName,
			CustomerTenantID: e.CustomerTenantID,
			DefaultDomain:    e.DefaultDomain,
			Enabled:          e.EnabledBool(),
		})
	}
	return out
}
