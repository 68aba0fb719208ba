package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	BackendAzure    = "azure"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"

	PolicyEngineBuiltin = "builtin"
	PolicyEngineOPA     = "opa"
)

type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string

	BuildSource     string
	PrincipalHeader string

	EnableTenantDirectoryLookup bool
	TableBackend                string
	TenantsPartitionKey         string

	StorageAccountName           string
	TenantsTableName             string
	TableEndpoint                string
	AzureStorageConnectionString string

	PostgresDSN string
	AutoMigrate bool

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string

	TenantsSeedFile string

	AccessPolicyEngine string
	AccessPolicyPath   string

	MetricsEnabled bool
}

func FromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		HTTPAddr:                     addr,
		LogLevel:                     envDefault("LOG_LEVEL", "info"),
		LogFormat:                    envDefault("LOG_FORMAT", "console"),
		BuildSource:                  envDefault("BUILD_SOURCE", "repo-api"),
		PrincipalHeader:              envDefault("PRINCIPAL_HEADER", "x-ms-client-principal"),
		EnableTenantDirectoryLookup:  envBoolDefault("ENABLE_TENANT_DIRECTORY_LOOKUP", true),
		TableBackend:                 strings.ToLower(envDefault("TABLE_BACKEND", BackendAzure)),
		TenantsPartitionKey:          envDefault("TENANTS_PARTITION_KEY", "tenant"),
		StorageAccountName:           os.Getenv("STORAGE_ACCOUNT_NAME"),
		TenantsTableName:             envDefault("TENANTS_TABLE_NAME", "Tenants"),
		TableEndpoint:                os.Getenv("TABLE_ENDPOINT"),
		AzureStorageConnectionString: os.Getenv("AZURE_STORAGE_CONNECTION_STRING"),
		PostgresDSN:                  os.Getenv("POSTGRES_DSN"),
		AutoMigrate:                  envBoolDefault("AUTO_MIGRATE", false),
		RedisAddr:                    os.Getenv("REDIS_ADDR"),
		RedisPassword:                os.Getenv("REDIS_PASSWORD"),
		RedisDB:                      envIntDefault("REDIS_DB", 0),
		RedisKeyPrefix:               envDefault("REDIS_KEY_PREFIX", "mspportal:"),
		TenantsSeedFile:              os.Getenv("TENANTS_SEED_FILE"),
		AccessPolicyEngine:           strings.ToLower(envDefault("ACCESS_POLICY_ENGINE", PolicyEngineBuiltin)),
		AccessPolicyPath:             os.Getenv("ACCESS_POLICY_PATH"),
		MetricsEnabled:               envBoolDefault("METRICS_ENABLED", true),
	}
}

// Validate reports settings the selected backend and policy engine cannot
// run without. Table settings are ignored when directory lookup is off.
func (c Config) Validate() error {
	var errs []error
	switch c.AccessPolicyEngine {
	case PolicyEngineBuiltin, PolicyEngineOPA:
	default:
		errs = append(errs, fmt.Errorf("unsupported ACCESS_POLICY_ENGINE %q", c.AccessPolicyEngine))
	}
	if !c.EnableTenantDirectoryLookup {
		return errors.Join(errs...)
	}
	switch c.TableBackend {
	case BackendAzure:
		if c.AzureStorageConnectionString == "" && c.TableEndpoint == "" && c.StorageAccountName == "" {
			errs = append(errs, missing("STORAGE_ACCOUNT_NAME"))
		}
		if c.TenantsTableName == "" {
			errs = append(errs, missing("TENANTS_TABLE_NAME"))
		}
	case BackendPostgres:
		if c.PostgresDSN == "" {
			errs = append(errs, missing("POSTGRES_DSN"))
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			errs = append(errs, missing("REDIS_ADDR"))
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("unsupported TABLE_BACKEND %q", c.TableBackend))
	}
	return errors.Join(errs...)
}

// TableServiceURL is the Azure Table service endpoint for the account.
func (c Config) TableServiceURL() string {
	if c.TableEndpoint != "" {
		return strings.TrimRight(c.TableEndpoint, "/")
	}
	if c.StorageAccountName == "" {
		return ""
	}
	return fmt.Sprintf("https://%s.table.core.windows.net", c.StorageAccountName)
}

func missing(name string) error {
	return fmt.Errorf("missing required env var: %s", name)
}

func envDefault(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed < 0 {
		return def
	}
	return parsed
}

func envBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "Yes":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "No":
		return false
	default:
		return def
	}
}
