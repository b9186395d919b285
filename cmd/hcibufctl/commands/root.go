// Package commands implements the hcibufctl CLI.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/momentics/hcibuf/control"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	// Global flags.
	cfgFile  string
	logLevel string

	// cfg is loaded once before any subcommand runs.
	cfg *control.Config
)

var rootCmd = &cobra.Command{
	Use:   "hcibufctl",
	Short: "Inspect and exercise the HCI buffer pool",
	Long: `hcibufctl builds a class-partitioned HCI buffer pool from configuration,
prints its layout, and drives inbound ACL traffic through it to check
pool sizing under load.

Use "hcibufctl [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := control.LoadConfig(cfgFile)
		if err != nil {
			return err
		}
		if logLevel != "" {
			loaded.Logging.Level = logLevel
			if err := control.Validate(loaded); err != nil {
				return fmt.Errorf("--log-level %q: %w", logLevel, err)
			}
		}
		cfg = loaded
		return nil
	},
}

// effectiveLevel returns the --log-level override when set, otherwise the
// level from c. Reloads go through it so the flag keeps precedence.
func effectiveLevel(c control.Config) string {
	if logLevel != "" {
		return logLevel
	}
	return c.Logging.Level
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML); HCIBUF_* env vars override it")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (DEBUG|INFO|WARN|ERROR)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(layoutCmd)
	rootCmd.AddCommand(runCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
