// Package cmd implements the jamtransport CLI: a thin cobra driver over the
// internal/transport Engine. Each subcommand opens the project tape,
// applies at most one command (or runs the period loop, for "serve"), saves
// the session, and exits — the CLI holds no state of its own beyond flags.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/jamtransport/jamtransport/internal/toolconfig"

	"github.com/spf13/cobra"
)

var (
	tcfg         toolconfig.Config
	cfgFile      string
	projectFlag  string
	verboseLevel int
)

var rootCmd = &cobra.Command{
	Use:   "jamtransport",
	Short: "Transport control for a multitrack project tape",
	Long: `jamtransport drives a single real-time transport engine over one
project tape file: open or create the tape, arm tracks for overdub, start
and stop the period loop, seek, adjust the monitor mix, and inspect status.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging(verboseLevel)

		if cfgFile == "" {
			cfgFile = os.ExpandEnv("$HOME/.config/jamtransport.yaml")
		}
		var err error
		tcfg, err = toolconfig.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if projectFlag == "" {
			projectFlag = tcfg.ProjectDirectory
		}
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/jamtransport.yaml)")
	rootCmd.PersistentFlags().StringVar(&projectFlag, "project", "", "path to the project tape (.wav) (overrides config)")
	rootCmd.PersistentFlags().IntVarP(&verboseLevel, "verbose", "v", 0, "verbose level: 0=info, 1=debug")

	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(armCmd)
	rootCmd.AddCommand(seekCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(muteCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
}

// setupLogging configures slog based on the verbose level.
func setupLogging(level int) {
	slogLevel := slog.LevelInfo
	if level >= 1 {
		slogLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slogLevel})
	slog.SetDefault(slog.New(handler))
}
