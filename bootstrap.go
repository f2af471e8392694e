package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/NextMind-AI/convo-qa/aws"
	"github.com/NextMind-AI/convo-qa/cache"
	"github.com/NextMind-AI/convo-qa/config"
	"github.com/NextMind-AI/convo-qa/conversation"
	"github.com/NextMind-AI/convo-qa/mapper"
	"github.com/NextMind-AI/convo-qa/redis"
	"github.com/NextMind-AI/convo-qa/store"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func setupLogging(level, format string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339

	if format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// openStore picks the executor named by STORE_DRIVER.
func openStore(cfg *config.Config) (store.Executor, error) {
	switch cfg.StoreDriver {
	case config.DriverRedshiftData:
		client, err := aws.NewClient(cfg.AWSRegion)
		if err != nil {
			return nil, err
		}

		log.Info().
			Str("region", client.Region()).
			Str("database", cfg.RedshiftDatabase).
			Str("cluster", cfg.RedshiftClusterID).
			Str("workgroup", cfg.RedshiftWorkgroup).
			Msg("Using Redshift Data API")

		return store.NewDataAPIExecutor(client.RedshiftData(), store.DataAPITarget{
			ClusterIdentifier: cfg.RedshiftClusterID,
			WorkgroupName:     cfg.RedshiftWorkgroup,
			Database:          cfg.RedshiftDatabase,
			DbUser:            cfg.RedshiftDBUser,
			SecretArn:         cfg.RedshiftSecretARN,
		}), nil

	case config.DriverPostgres:
		log.Info().Int("max_open_conns", cfg.DBMaxOpenConns).Msg("Using Postgres wire protocol")

		return store.OpenPostgres(cfg.DatabaseURL, store.PoolConfig{
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnMaxLifetime,
		})
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// newCountCache returns the count cache and a closer for it.
func newCountCache(ctx context.Context, cfg *config.Config) (cache.CountCache, func() error, error) {
	if cfg.CountCacheBackend != config.CacheRedis {
		return cache.NewMemory(cfg.CountCacheTTL), func() error { return nil }, nil
	}

	client, err := redis.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CountCacheTTL)
	if err != nil {
		return nil, nil, err
	}
	return client, client.Close, nil
}

func newRepository(exec store.Executor, counts cache.CountCache, cfg *config.Config) *conversation.Repository {
	m := mapper.New(
		mapper.LinkTemplates{
			SalesIQ:  mapper.LinkTemplate(cfg.SalesIQBaseURL),
			CRMLead:  mapper.LinkTemplate(cfg.CRMLeadBaseURL),
			Helpdesk: mapper.LinkTemplate(cfg.HelpdeskBaseURL),
		},
		mapper.TraceLinker{
			Org:      cfg.LangSmithOrg,
			Project:  cfg.LangSmithProject,
			Duration: cfg.LangSmithDuration,
		},
	)

	return conversation.NewRepository(exec, counts, m, conversation.Config{
		SourcePattern:   cfg.SourcePattern,
		QueryTimeout:    cfg.QueryTimeout,
		MaxMessages:     cfg.MaxMessages,
		DefaultPageSize: cfg.DefaultPageSize,
		MaxPageSize:     cfg.MaxPageSize,
	})
}
