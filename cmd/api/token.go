package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/aura-impact/internal/config"
	"github.com/bryanwahyu/aura-impact/internal/middleware"
)

var tokenTTL time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token <owner>",
	Short: "Issue a bearer token for local testing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("config load error: %w", err)
		}
		if err := middleware.ValidateOwnerID(args[0]); err != nil {
			return err
		}
		tok, err := middleware.SignToken([]byte(cfg.Auth.JWTSecret), cfg.Auth.Issuer, args[0], tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
}
