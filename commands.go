package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/NextMind-AI/convo-qa/cache"
	"github.com/NextMind-AI/convo-qa/config"
	"github.com/NextMind-AI/convo-qa/qa"
	"github.com/NextMind-AI/convo-qa/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the review console API",
	RunE:  runServe,
}

var setupDialect string

var setupQATablesCmd = &cobra.Command{
	Use:   "setup-qa-tables",
	Short: "Create the qa_assessments table if it does not exist",
	Long: `Create the qa_assessments table used for reviewer ratings, tags and notes.
Existing warehouse tables are never touched. Safe to run repeatedly.

Examples:
  convo-qa setup-qa-tables
  convo-qa setup-qa-tables --dialect postgres`,
	RunE: runSetupQATables,
}

var checkDBCmd = &cobra.Command{
	Use:   "check-db",
	Short: "Ping the store and count conversations in scope",
	RunE:  runCheckDB,
}

func init() {
	setupQATablesCmd.Flags().StringVar(&setupDialect, "dialect", "", "DDL dialect: redshift or postgres (default from STORE_DRIVER)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exec, err := openStore(AppConfig)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer exec.Close()

	counts, closeCounts, err := newCountCache(ctx, AppConfig)
	if err != nil {
		return fmt.Errorf("count cache: %w", err)
	}
	defer closeCounts()

	srv := server.New(
		newRepository(exec, counts, AppConfig),
		qa.NewStore(exec, AppConfig.QueryTimeout),
		server.Config{CORSOrigins: AppConfig.CORSOrigins},
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(AppConfig.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info().Msg("Shutting down")
		return srv.Shutdown()
	}
}

func runSetupQATables(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	dialect := qa.DialectPostgres
	if AppConfig.StoreDriver == config.DriverRedshiftData {
		dialect = qa.DialectRedshift
	}
	if setupDialect != "" {
		d, err := qa.ParseDialect(setupDialect)
		if err != nil {
			return err
		}
		dialect = d
	}

	exec, err := openStore(AppConfig)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer exec.Close()

	return qa.NewStore(exec, AppConfig.QueryTimeout).EnsureSchema(ctx, dialect)
}

func runCheckDB(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	exec, err := openStore(AppConfig)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer exec.Close()

	repo := newRepository(exec, cache.NewMemory(AppConfig.CountCacheTTL), AppConfig)
	if err := repo.Ping(ctx); err != nil {
		return fmt.Errorf("ping store: %w", err)
	}

	total, err := repo.CountInScope(ctx)
	if err != nil {
		return fmt.Errorf("count conversations: %w", err)
	}

	log.Info().
		Str("driver", AppConfig.StoreDriver).
		Str("source_pattern", AppConfig.SourcePattern).
		Int64("conversations", total).
		Msg("Store reachable")
	return nil
}
