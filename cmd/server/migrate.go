package main

import (
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the PostgreSQL schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requirePostgres(cfg); err != nil {
			return err
		}
		repo, err := openPostgres(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer repo.Close()

		log.Info("✅ Schema is up to date")
		return nil
	},
}
