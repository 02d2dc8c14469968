package main

import (
	"errors"
	"fmt"
	"os"

	"aira/internal/repository"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var importCmd = &cobra.Command{
	Use:   "import <properties.data.json>",
	Short: "Copy a JSON property file into PostgreSQL",
	Long: `Reads a JSON array of properties (newest first, as written by the file
store) and inserts it into PostgreSQL oldest first, so listing order is kept.
Ids that already exist are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	if err := requirePostgres(cfg); err != nil {
		return err
	}
	path := args[0]
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}

	ctx := cmd.Context()
	source, err := repository.NewFileStore(path)
	if err != nil {
		return err
	}
	properties, err := source.List(ctx)
	if err != nil {
		return err
	}

	repo, err := openPostgres(ctx, cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	imported, skipped := 0, 0
	for i := len(properties) - 1; i >= 0; i-- {
		p := properties[i]
		err := repo.Append(ctx, p)
		switch {
		case errors.Is(err, repository.ErrDuplicateProperty):
			skipped++
		case err != nil:
			log.Warn("failed to import property", zap.String("id", p.ID), zap.Error(err))
			skipped++
		default:
			imported++
		}
	}

	log.Info("📥 Import finished",
		zap.String("file", path),
		zap.Int("imported", imported),
		zap.Int("skipped", skipped))
	return nil
}
