package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/wavehq/wave/internal/retention"
)

var (
	skipConfirm bool
	cleanDays   int
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove expired session logs and empty project directories",
	Long: `Deletes session logs whose last modification is older than the retention
threshold, updates the per-project retention index, and removes project
directories left with no files.

It will prompt for confirmation before proceeding unless the --yes flag
is used. Cleanup is disabled entirely when WAVE_ENV=test.`,
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().BoolVarP(&skipConfirm, "yes", "y", false, "Skip confirmation prompt")
	cleanCmd.Flags().IntVar(&cleanDays, "days", 0, "Age threshold in days (default: retention_days from config)")
	cleanCmd.Flags().StringVarP(&workdirFlag, "workdir", "w", "", "Working directory the sessions belong to (default: current directory)")
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	return runCleanWithReader(cmd, os.Stdin)
}

// runCleanWithReader allows injecting a reader for testing
func runCleanWithReader(cmd *cobra.Command, input io.Reader) error {
	store, cfg, err := newStore()
	if err != nil {
		return err
	}
	workdir, err := resolveWorkdir()
	if err != nil {
		return err
	}

	days := cleanDays
	if days <= 0 {
		days = cfg.RetentionDays
	}

	if !retention.Enabled() {
		fmt.Println("Cleanup is disabled in test mode.")
		return nil
	}

	fmt.Printf("This will delete session logs older than %d day(s) for %s\n", days, workdir)
	if !skipConfirm {
		if !confirm(input, "Continue?") {
			fmt.Println("Aborted.")
			return nil
		}
	}

	manager := retention.NewManager(store)
	deleted, err := manager.CleanupExpired(cmd.Context(), workdir, days)
	if err != nil {
		return fmt.Errorf("error cleaning sessions: %w", err)
	}
	removed, err := manager.CleanupEmptyProjectDirs()
	if err != nil {
		return fmt.Errorf("error removing empty directories: %w", err)
	}

	if deleted == 0 && removed == 0 {
		fmt.Println("Nothing to clean.")
		return nil
	}
	if deleted > 0 {
		fmt.Printf("Deleted %d expired session(s).\n", deleted)
	}
	if removed > 0 {
		fmt.Printf("Removed %d empty project director(ies).\n", removed)
	}
	return nil
}

// confirm prompts the user and reads a y/n answer from input.
func confirm(input io.Reader, prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(input)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
