package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres     = "postgres"
	DriverRedshiftData = "redshift-data"

	CacheMemory = "memory"
	CacheRedis  = "redis"
)

type Config struct {
	Port string

	StoreDriver       string
	DatabaseURL       string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	AWSRegion         string
	RedshiftClusterID string
	RedshiftWorkgroup string
	RedshiftDatabase  string
	RedshiftDBUser    string
	RedshiftSecretARN string
	QueryTimeout      time.Duration
	CountCacheTTL     time.Duration
	CountCacheBackend string
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	SourcePattern     string
	MaxMessages       int
	DefaultPageSize   int
	MaxPageSize       int
	SalesIQBaseURL    string
	CRMLeadBaseURL    string
	HelpdeskBaseURL   string
	LangSmithOrg      string
	LangSmithProject  string
	LangSmithDuration string
	CORSOrigins       []string
	LogLevel          string
	LogFormat         string
}

func Load() *Config {
	godotenv.Load()

	return &Config{
		Port:              getEnv("PORT", "8080"),
		StoreDriver:       getEnv("STORE_DRIVER", DriverPostgres),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		DBMaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
		DBMaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		AWSRegion:         getEnv("AWS_REGION", "us-east-1"),
		RedshiftClusterID: getEnv("REDSHIFT_CLUSTER_ID", ""),
		RedshiftWorkgroup: getEnv("REDSHIFT_WORKGROUP", ""),
		RedshiftDatabase:  getEnv("REDSHIFT_DATABASE", ""),
		RedshiftDBUser:    getEnv("REDSHIFT_DB_USER", ""),
		RedshiftSecretARN: getEnv("REDSHIFT_SECRET_ARN", ""),
		QueryTimeout:      getEnvDuration("QUERY_TIMEOUT", 25*time.Second),
		CountCacheTTL:     getEnvDuration("COUNT_CACHE_TTL", 60*time.Second),
		CountCacheBackend: getEnv("COUNT_CACHE_BACKEND", CacheMemory),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		SourcePattern:     getEnv("SOURCE_PATTERN", `%"source": "zoho"%`),
		MaxMessages:       getEnvInt("MAX_MESSAGES", 200),
		DefaultPageSize:   getEnvInt("DEFAULT_PAGE_SIZE", 50),
		MaxPageSize:       getEnvInt("MAX_PAGE_SIZE", 200),
		SalesIQBaseURL:    getEnv("SALESIQ_CONVERSATION_BASE_URL", ""),
		CRMLeadBaseURL:    getEnv("CRM_LEAD_BASE_URL", ""),
		HelpdeskBaseURL:   getEnv("HELPDESK_TICKET_BASE_URL", ""),
		LangSmithOrg:      getEnv("LANGSMITH_ORG", ""),
		LangSmithProject:  getEnv("LANGSMITH_PROJECT", ""),
		LangSmithDuration: getEnv("LANGSMITH_DURATION", "7d"),
		CORSOrigins:       getEnvList("CORS_ORIGINS"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "json"),
	}
}

// Validate reports every missing or inconsistent setting at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	case DriverRedshiftData:
		if c.RedshiftDatabase == "" {
			errs = append(errs, errors.New("REDSHIFT_DATABASE is required for the redshift-data driver"))
		}
		if c.RedshiftClusterID == "" && c.RedshiftWorkgroup == "" {
			errs = append(errs, errors.New("REDSHIFT_CLUSTER_ID or REDSHIFT_WORKGROUP is required for the redshift-data driver"))
		}
	default:
		errs = append(errs, errors.New("STORE_DRIVER must be postgres or redshift-data, got "+strconv.Quote(c.StoreDriver)))
	}

	switch c.CountCacheBackend {
	case CacheMemory:
	case CacheRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required for the redis count cache"))
		}
	default:
		errs = append(errs, errors.New("COUNT_CACHE_BACKEND must be memory or redis, got "+strconv.Quote(c.CountCacheBackend)))
	}

	if c.QueryTimeout <= 0 {
		errs = append(errs, errors.New("QUERY_TIMEOUT must be positive"))
	}
	if c.MaxPageSize < c.DefaultPageSize {
		errs = append(errs, errors.New("MAX_PAGE_SIZE must not be smaller than DEFAULT_PAGE_SIZE"))
	}

	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
