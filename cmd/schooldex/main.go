package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/schooldex/internal/version"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "schooldex",
	Short: "School directory search API",
	Long: `schooldex serves filter facets, type-ahead suggestions and paginated
listings over a school directory, with a tag-invalidated result cache.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "schooldex %s (%s)\n", version.Version, version.Commit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to the config file (default: config/$ENV.yaml)")
	rootCmd.AddCommand(serveCmd, seedCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
