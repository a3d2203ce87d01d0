// Command veupath-redmine checks the VEuPathDB data handover issues kept in Redmine.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/veupathdb/redmine-client/core/config"
)

var (
	verbose    bool
	apiKey     string
	configPath string

	cfg = config.Default()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "veupath-redmine",
	Short: "Check VEuPathDB handover issues in Redmine",
	Long: `veupath-redmine queries the VEuPathDB Redmine for the genome and RNA-Seq
handover issues of the EBI team, checks their metadata and writes reports
or JSON extracts for the loading pipelines.

Data problems found in the issues are reported, they never make the command
fail. Only usage, configuration and network errors do.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		slog.Debug("Loaded config", "path", configPath, "redmine", cfg.RedmineURL, "team", cfg.Team)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&apiKey, "key", "", "Redmine API key (default: content of the key_env_var of the config)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "Settings file")

	rootCmd.AddCommand(genomesCmd)
	rootCmd.AddCommand(rnaseqCmd)
	rootCmd.AddCommand(abbrevsCmd)
	rootCmd.AddCommand(missedCmd)
	rootCmd.AddCommand(issueCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
