package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// migrateCmd applies pending migrations to DATABASE_URL and exits
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return errors.New("DATABASE_URL is required for migrate")
		}
		db, err := openMigrated(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer db.Close()
		fmt.Fprintln(cmd.OutOrStdout(), "migrations up to date")
		return nil
	},
}
