package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wavehq/wave/internal/config"
	"github.com/wavehq/wave/internal/logger"
	"github.com/wavehq/wave/internal/session"
)

var (
	debugMode             bool
	sessionDir            string
	version, commit, date string
)

// SetVersionInfo sets version information from ldflags
func SetVersionInfo(v, c, d string) {
	version, commit, date = v, c, d
}

var rootCmd = &cobra.Command{
	Use:   "wave",
	Short: "SDK and CLI for session logs of Wave coding agents",
	Long: `Wave persists every agent conversation as an append-only JSONL log under
~/.wave/sessions, one project directory per working directory. This CLI
lists, inspects, deletes, and expires those session logs.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initLogging)
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&sessionDir, "session-dir", "", "Override the session base directory")
}

func initLogging() {
	if debugMode {
		logger.SetDebug(true)
	}
}

// Execute runs the root command
func Execute() error {
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(versionTemplate())
	defer logger.Close()
	return rootCmd.Execute()
}

func versionTemplate() string {
	if commit != "none" && commit != "" {
		return fmt.Sprintf("wave %s\n  commit: %s\n  built:  %s\n", version, commit, date)
	}
	return fmt.Sprintf("wave %s\n", version)
}

// newStore builds the store from flags and config, flag winning.
func newStore() (*session.Store, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("error loading config: %w", err)
	}
	dir := sessionDir
	if dir == "" {
		dir = cfg.SessionDir
	}
	return session.NewStore(dir), cfg, nil
}
