package main

import (
	"fmt"
	"os"

	"github.com/NextMind-AI/convo-qa/config"
	"github.com/spf13/cobra"
)

var (
	Version = "0.1.0"

	AppConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "convo-qa",
	Short: "Review console API for chatbot conversations",
	Long: `convo-qa serves the review console: it lists and filters chatbot
conversations from the warehouse and stores reviewer ratings, tags and notes.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" {
			return nil
		}

		AppConfig = config.Load()
		setupLogging(AppConfig.LogLevel, AppConfig.LogFormat)

		if err := AppConfig.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, setupQATablesCmd, checkDBCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
