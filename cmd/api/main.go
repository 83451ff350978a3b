package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "aura",
	Short: "Ingredient impact analysis service",
	Long: `aura reads product ingredient lists (typed or photographed), scores their
environmental impact and keeps a points ledger per user.

Examples:
  aura serve
  aura migrate up
  aura migrate down 1
  aura check
  aura token user-42`,
	SilenceUsage: true,
}

func init() {
	// path config.yaml
	def := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		def = v
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", def, "path to config.yaml")
	rootCmd.AddCommand(serveCmd, migrateCmd, checkCmd, tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
