package db

import "time"

type TenantEntityModel struct {
	PartitionKey     string  `gorm:"primaryKey;not null"`
	RowKey           string  `gorm:"primaryKey;not null"`
	CustomerName     *string
	CustomerTenantID *string `gorm:"column:customer_tenant_id"`
	DefaultDomain    *string
	Enabled          *bool
	UpdatedAt        time.Time `gorm:"not null"`
}

func (TenantEntityModel) TableName() string {
	return "tenant_entities"
}
