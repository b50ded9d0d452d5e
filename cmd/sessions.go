package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/wavehq/wave/internal/message"
	"github.com/wavehq/wave/internal/session"
)

var (
	listAll     bool
	workdirFlag string
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	idStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	roleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5"))
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect and manage stored session logs",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions for a working directory, most recent first",
	RunE:  runSessionsList,
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Print a session's conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsShow,
}

var sessionsLatestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Print the most recently active session",
	RunE:  runSessionsLatest,
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a session's log file",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsDelete,
}

func init() {
	sessionsCmd.PersistentFlags().StringVarP(&workdirFlag, "workdir", "w", "", "Working directory the sessions belong to (default: current directory)")
	sessionsListCmd.Flags().BoolVarP(&listAll, "all", "a", false, "Include subagent sessions")

	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsLatestCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func resolveWorkdir() (string, error) {
	if workdirFlag != "" {
		return workdirFlag, nil
	}
	return os.Getwd()
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	store, _, err := newStore()
	if err != nil {
		return err
	}
	workdir, err := resolveWorkdir()
	if err != nil {
		return err
	}

	summaries, err := store.List(cmd.Context(), workdir, listAll)
	if err != nil {
		return fmt.Errorf("error listing sessions: %w", err)
	}
	if len(summaries) == 0 {
		fmt.Println("No sessions found.")
		return nil
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("%-36s  %-8s  %-20s  %-20s  %s",
		"SESSION", "TYPE", "LAST ACTIVE", "STARTED", "TOKENS")))
	for _, s := range summaries {
		fmt.Printf("%s  %-8s  %-20s  %-20s  %d\n",
			idStyle.Render(fmt.Sprintf("%-36s", s.ID)),
			s.Type,
			formatTime(s.LastActiveAt),
			formatTime(s.StartedAt),
			s.LatestTotalTokens)
	}
	return nil
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	store, _, err := newStore()
	if err != nil {
		return err
	}
	workdir, err := resolveWorkdir()
	if err != nil {
		return err
	}

	sess, err := store.Load(cmd.Context(), args[0], workdir)
	if err != nil {
		return err
	}
	if sess == nil {
		fmt.Printf("Session %s not found.\n", args[0])
		return nil
	}
	printSession(sess)
	return nil
}

func runSessionsLatest(cmd *cobra.Command, args []string) error {
	store, _, err := newStore()
	if err != nil {
		return err
	}
	workdir, err := resolveWorkdir()
	if err != nil {
		return err
	}

	sess, err := store.Latest(cmd.Context(), workdir)
	if err != nil {
		return err
	}
	if sess == nil {
		fmt.Println("No sessions found.")
		return nil
	}
	printSession(sess)
	return nil
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
	store, _, err := newStore()
	if err != nil {
		return err
	}
	workdir, err := resolveWorkdir()
	if err != nil {
		return err
	}

	deleted, err := store.Delete(args[0], workdir)
	if err != nil {
		return fmt.Errorf("error deleting session: %w", err)
	}
	if !deleted {
		fmt.Printf("Session %s not found.\n", args[0])
		return nil
	}
	fmt.Printf("Deleted session %s.\n", args[0])
	return nil
}

func printSession(sess *session.Session) {
	fmt.Printf("%s %s\n", headerStyle.Render("Session"), idStyle.Render(sess.ID))
	fmt.Println(dimStyle.Render(fmt.Sprintf("started %s, last active %s, %d message(s)",
		formatTime(sess.StartedAt), formatTime(sess.LastActiveAt), len(sess.Messages))))
	fmt.Println()

	for _, msg := range sess.Messages {
		fmt.Printf("%s %s\n", roleStyle.Render(string(msg.Role)+":"), dimStyle.Render(formatTime(msg.Timestamp)))
		for _, block := range msg.Blocks {
			fmt.Println(renderBlock(block))
		}
		fmt.Println()
	}
}

func renderBlock(block message.Block) string {
	switch block.Type {
	case message.BlockText, message.BlockDiff, message.BlockCommandOutput,
		message.BlockCompress, message.BlockMemory, message.BlockCustomCommand:
		return block.Content
	case message.BlockError:
		return "error: " + block.Content
	case message.BlockTool:
		out := "[tool " + block.ToolName + "]"
		if block.Result != "" {
			out += "\n" + block.Result
		}
		return out
	case message.BlockImage:
		return fmt.Sprintf("[image %s, %d bytes base64]", block.MediaType, len(block.ImageData))
	default:
		return "[" + string(block.Type) + "]"
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "---"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
