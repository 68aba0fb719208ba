package domain

import (
	"fmt"
	"strings"
)

const DefaultTenantPartition = "tenant"

// TenantEntity is a raw row read from the tenants table. Enabled keeps the
// stored representation (bool, string, nil, ...) because filtering and
// projection treat it differently.
type TenantEntity struct {
	PartitionKey     string
	RowKey           string
	CustomerName     *string
	CustomerTenantID *string
	DefaultDomain    *string
	Enabled          any
}

// EnabledFlag renders the stored enabled value the way a JavaScript String()
// call would, so a missing value becomes "undefined".
func (e TenantEntity) EnabledFlag() string {
	switch v := e.Enabled.(type) {
	case nil:
		return "undefined"
	case bool:
		if v {
			return "true"
		}
		return "false"
	case *bool:
		if v == nil {
			return "undefined"
		}
		if *v {
			return "true"
		}
		return "false"
	case string:
		return v
	case *string:
		if v == nil {
			return "undefined"
		}
		return *v
	default:
		return fmt.Sprint(v)
	}
}

func (e TenantEntity) IsEnabled() bool {
	return strings.EqualFold(e.EnabledFlag(), "true")
}

// EnabledBool is true only for a stored boolean true.
func (e TenantEntity) EnabledBool() bool {
	switch v := e.Enabled.(type) {
	case bool:
		return v
	case *bool:
		return v != nil && *v
	default:
		return false
	}
}

func (e TenantEntity) Shortcode() string {
	return strings.ToUpper(e.RowKey)
}

func (e TenantEntity) SortName() string {
	if e.CustomerName == nil {
		return ""
	}
	return *e.CustomerName
}

// TenantRecord is the projection returned to callers.
type TenantRecord struct {
	Shortcode        string
	CustomerName     *string
	CustomerTenantID *string
	DefaultDomain    *string
	Enabled          bool
}
