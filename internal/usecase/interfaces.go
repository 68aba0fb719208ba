package usecase

import (
	"context"

	"mspportal/internal/domain"
)

// TenantTable reads every row stored under one partition key. Backends may
// page internally but return the complete partition.
type TenantTable interface {
	ListPartition(ctx context.Context, partitionKey string) ([]domain.TenantEntity, error)
}
