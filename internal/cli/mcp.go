package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jwulff/sentiscribe/internal/clients"
	"github.com/jwulff/sentiscribe/internal/config"
	"github.com/jwulff/sentiscribe/internal/db"
	"github.com/jwulff/sentiscribe/internal/mcpserver"
)

var (
	mcpDB       string
	mcpClassify bool
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve exported sessions to MCP clients over stdio",
	Long: `Start a Model Context Protocol server on stdin/stdout that answers
questions about sessions exported with --sqlite or the TUI's SQLite export.
The database is opened read-only.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if mcpDB == "" {
			return fmt.Errorf("--db is required")
		}
		cfg, _, err := config.Load(configPath)
		if err != nil {
			return err
		}

		store, err := db.OpenReadOnly(mcpDB)
		if err != nil {
			return err
		}
		defer store.Close()

		h := &mcpserver.Handlers{Store: store}
		if mcpClassify {
			h.Classifier = clients.NewSentimentClient(cfg.Classifier.URL, cfg.Classifier.Timeout)
		}
		return mcpserver.Serve(mcpserver.New(h, version))
	},
}

func init() {
	mcpCmd.Flags().StringVar(&mcpDB, "db", "", "SQLite file written by a session export")
	mcpCmd.Flags().BoolVar(&mcpClassify, "classify", false, "Also expose classify_text backed by the configured classifier")
}
