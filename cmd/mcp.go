package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/smart-summarizer/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing the summarize_text and count_words tools.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer logger.Sync()

		summ, err := newSummarizer(cfg, logger, nil)
		if err != nil {
			return err
		}

		limits := settingsDefaults(cfg)
		if _, err := os.Stat(cfg.Database.Path); err == nil {
			database, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			limits, err = loadSettings(context.Background(), database, cfg)
			database.Close()
			if err != nil {
				return fmt.Errorf("loading settings: %w", err)
			}
		}

		// Set version from the cmd package variable.
		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "smartsum MCP server started on stdio (neural=%t)\n", summ.NeuralAvailable())

		return mcpserver.NewServer(summ, limits).Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
