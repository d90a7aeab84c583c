package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/cache"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/config"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/models"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/repositories/postgres"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/validator"
	"github.com/SAP-F-2025/adaptive-assessment-engine/pkg"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the engine tables and optionally load an item bank",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		itemsPath, _ := cmd.Flags().GetString("items")
		return migrate(cmd.Context(), cfg, logger, itemsPath)
	},
}

func init() {
	migrateCmd.Flags().String("items", "", "Path to a JSON array of items to add to the bank")
}

func migrate(ctx context.Context, cfg *config.Config, logger *slog.Logger, itemsPath string) error {
	db, err := pkg.InitDatabase(cfg, logger)
	if err != nil {
		return err
	}
	if err := postgres.AutoMigrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	logger.Info("Database migrated")

	if itemsPath == "" {
		return nil
	}

	items, err := loadItems(itemsPath, validator.New())
	if err != nil {
		return err
	}
	if err := postgres.NewRepository(db).Importer().ImportItems(ctx, items); err != nil {
		return fmt.Errorf("failed to import items: %w", err)
	}
	logger.Info("Items imported", "count", len(items), "path", itemsPath)

	// Cached candidate sets are stale once the bank changes
	if cfg.RedisEnabled() {
		client, err := pkg.NewRedisClient(ctx, cfg)
		if err != nil {
			logger.Warn("Skipping cache invalidation", "error", err)
			return nil
		}
		defer client.Close()
		bank := cache.NewCachedItemBank(nil, cache.NewRedisCache(client, logger), cfg.Engine.CandidateCacheTTL, logger)
		if err := bank.Invalidate(ctx); err != nil {
			logger.Warn("Failed to invalidate item cache", "error", err)
		}
	}
	return nil
}

// loadItems reads and validates an item file. Nothing is imported when any
// item is invalid.
func loadItems(path string, v *validator.Validator) ([]*models.Item, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read items: %w", err)
	}

	var docs []models.ItemDocument
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("failed to parse items: %w", err)
	}

	items := make([]*models.Item, 0, len(docs))
	for i, doc := range docs {
		if err := v.Validate(&doc); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		items = append(items, doc.ToItem())
	}
	if err := v.AnswerKey().ValidateBatch(items); err != nil {
		return nil, err
	}
	return items, nil
}
