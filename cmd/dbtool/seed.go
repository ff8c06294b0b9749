package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"scwm-service/internal/app"
	"scwm-service/internal/config"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load recycling centers from a JSON seed file",
	Long:  "Reads a JSON array of center records and inserts them. A non-empty table is left alone unless --replace is given. A configured Redis center snapshot is dropped afterwards.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := cmd.Flags().GetString("file")
		replace, _ := cmd.Flags().GetBool("replace")
		if path == "" {
			path = cfg.Store.SeedPath
		}

		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := seedCenters(cmd.Context(), store, cfg.Redis, path, replace)
		if err != nil {
			return err
		}

		zap.L().Info("seed complete",
			zap.String("path", path),
			zap.Int("inserted", n),
			zap.Bool("replace", replace),
		)
		return nil
	},
}

func init() {
	seedCmd.Flags().String("file", "", "seed file (defaults to store.seed_path)")
	seedCmd.Flags().Bool("replace", false, "delete existing centers before inserting")
}

// seedCenters seeds the store and invalidates the Redis snapshot so the
// server does not keep serving the previous list until the TTL runs out.
func seedCenters(ctx context.Context, store *app.Store, redisCfg config.RedisConfig, path string, replace bool) (int, error) {
	centers, closeRedis, err := app.CachedCenters(ctx, redisCfg, store.Centers)
	if err != nil {
		return 0, err
	}
	defer closeRedis()

	n, err := store.SeedFromFile(ctx, path, replace)
	if err != nil {
		return 0, err
	}
	if err := app.InvalidateCenters(ctx, centers); err != nil {
		return n, err
	}
	return n, nil
}
