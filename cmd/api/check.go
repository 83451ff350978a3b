package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/bryanwahyu/aura-impact/internal/config"
	"github.com/bryanwahyu/aura-impact/internal/middleware"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify database and redis connectivity",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("config load error: %w", err)
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		db, _, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		checkers := map[string]middleware.HealthChecker{"database": &middleware.DatabaseHealthChecker{DB: db}}

		if cfg.Redis.Addr != "" {
			rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
			defer rdb.Close()
			checkers["redis"] = &middleware.RedisHealthChecker{Client: rdb}
		}

		failed := false
		for name, c := range checkers {
			if err := c.Check(ctx); err != nil {
				failed = true
				fmt.Fprintf(cmd.OutOrStdout(), "%-9s FAIL %v\n", name, err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-9s ok\n", name)
		}
		if failed {
			return fmt.Errorf("health check failed")
		}
		return nil
	},
}
