package db

import (
	"context"
	"strings"
	"time"

	"mspportal/internal/domain"
	"mspportal/internal/usecase"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TenantEntityRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewTenantEntityRepository(db *gorm.DB) *TenantEntityRepository {
	return &TenantEntityRepository{db: db, now: time.Now}
}

func (r *TenantEntityRepository) ListPartition(ctx context.Context, partitionKey string) ([]domain.TenantEntity, error) {
	if r == nil || r.db == nil {
		return nil, errDBUnavailable
	}
	var models []TenantEntityModel
	err := r.db.WithContext(ctx).
		Where("partition_key = ?", partitionKey).
		Order("row_key").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.TenantEntity, 0, len(models))
	for _, m := range models {
		out = append(out, toTenantEntity(m))
	}
	return out, nil
}

// Upsert writes one row, replacing every column on conflict.
func (r *TenantEntityRepository) Upsert(ctx context.Context, entity domain.TenantEntity) error {
	if r == nil || r.db == nil {
		return errDBUnavailable
	}
	model := fromTenantEntity(entity)
	model.UpdatedAt = r.now().UTC()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "partition_key"}, {Name: "row_key"}},
		UpdateAll: true,
	}).Create(&model).Error
}

func toTenantEntity(m TenantEntityModel) domain.TenantEntity {
	entity := domain.TenantEntity{
		PartitionKey:     m.PartitionKey,
		RowKey:           m.RowKey,
		CustomerName:     copyString(m.CustomerName),
		CustomerTenantID: copyString(m.CustomerTenantID),
		DefaultDomain:    copyString(m.DefaultDomain),
	}
	if m.Enabled != nil {
		entity.Enabled = *m.Enabled
	}
	return entity
}

func fromTenantEntity(e domain.TenantEntity) TenantEntityModel {
	partition := strings.TrimSpace(e.PartitionKey)
	if partition == "" {
		partition = domain.DefaultTenantPartition
	}
	return TenantEntityModel{
		PartitionKey:     partition,
		RowKey:           e.RowKey,
		CustomerName:     copyString(e.CustomerName),
		CustomerTenantID: copyString(e.CustomerTenantID),
		DefaultDomain:    copyString(e.DefaultDomain),
		Enabled:          enabledColumn(e.Enabled),
	}
}

var _ usecase.TenantTable = (*TenantEntityRepository)(nil)
