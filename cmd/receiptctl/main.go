package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/receipt-ledger/internal/app"
	"github.com/joseph-ayodele/receipt-ledger/internal/common"
)

// cli carries the state shared by every subcommand.
type cli struct {
	cfg    *common.Config
	logger *slog.Logger
	out    io.Writer
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out}
	var dbURL, logLevel, logFormat string

	root := &cobra.Command{
		Use:           "receiptctl",
		Short:         "Ingest, process and export grocery receipts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			c.cfg = common.LoadConfig()
			if dbURL != "" {
				c.cfg.Database.DSN = dbURL
			}
			if cmd.Flags().Changed("log-level") {
				c.cfg.Logging.Level = logLevel
			}
			if cmd.Flags().Changed("log-format") {
				c.cfg.Logging.Format = logFormat
			}
			c.logger = common.NewLogger(c.cfg.Logging, os.Stderr)
			slog.SetDefault(c.logger)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&dbURL, "db", "", "database DSN (overrides DB_URL)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	root.AddCommand(
		c.schemaCmd(),
		c.migrateCmd(),
		c.ingestCmd(),
		c.processCmd(),
		c.exportCmd(),
		c.catalogCmd(),
		c.recipeCmd(),
	)
	return root
}

// open builds the application. Only commands that call the vision model need
// a provider key.
func (c *cli) open(ctx context.Context, needsLLM bool) (*app.App, error) {
	if c.cfg.Database.DSN == "" {
		return nil, fmt.Errorf("a database is required: set DB_URL or --db")
	}
	if needsLLM {
		if err := c.cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return app.New(ctx, c.cfg, nil, c.logger)
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseID(flag, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("--%s must be a UUID: %w", flag, err)
	}
	return id, nil
}

func parseOptionalID(flag, value string) (*uuid.UUID, error) {
	if value == "" {
		return nil, nil
	}
	id, err := parseID(flag, value)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(os.Stdout).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
