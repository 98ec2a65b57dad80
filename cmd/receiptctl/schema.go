package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/receipt-ledger/internal/repository"
	"github.com/joseph-ayodele/receipt-ledger/internal/server"
)

func (c *cli) schemaCmd() *cobra.Command {
	var dialectName string
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the database schema DDL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stmts, err := repository.SchemaDDL(dialectName)
			if err != nil {
				return err
			}
			for _, stmt := range stmts {
				if _, err := fmt.Fprintf(c.out, "%s;\n\n", stmt); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dialectName, "dialect", "postgres", "SQL dialect (postgres, sqlite3)")
	return cmd
}

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create missing tables in the configured database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.cfg.Database.DSN == "" {
				return fmt.Errorf("a database is required: set DB_URL or --db")
			}
			db, err := server.ConnectDB(cmd.Context(), c.cfg.Database, c.logger)
			if err != nil {
				return err
			}
			defer repository.Close(db, c.logger)
			_, err = fmt.Fprintf(c.out, "schema applied (%s)\n", db.Dialect())
			return err
		},
	}
}
