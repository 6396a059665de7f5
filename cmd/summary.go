package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskdeck/internal/board"
	"github.com/twiced-technology-gmbh/taskdeck/internal/output"
	"github.com/twiced-technology-gmbh/taskdeck/internal/session"
	"github.com/twiced-technology-gmbh/taskdeck/internal/watcher"
)

var summaryCmd = &cobra.Command{
	Use:     "summary",
	Aliases: []string{"board"},
	Short:   "Show board summary",
	Long: `Displays a summary of the board: task counts per status, overdue counts,
priority distribution and the most urgent upcoming deadline.

Use --watch to re-render whenever the session or config changes, for example
after logging in from another terminal. Press Ctrl+C to stop.`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

func init() {
	summaryCmd.Flags().BoolP("watch", "w", false, "re-render on session or config changes")
	summaryCmd.Flags().String("group-by", "", "group board by field ("+strings.Join(board.ValidGroupByFields(), ", ")+")")
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	groupBy, _ := cmd.Flags().GetString("group-by")
	if err := validateGroupBy(groupBy); err != nil {
		return err
	}

	a, user, err := openAuthedApp(nil)
	if err != nil {
		return err
	}
	defer a.persistSession()

	if err := renderSummary(cmd.Context(), a, user, groupBy); err != nil {
		return err
	}

	if watch, _ := cmd.Flags().GetBool("watch"); !watch {
		return nil
	}
	return watchSummary(cmd.Context(), a, groupBy)
}

func renderSummary(ctx context.Context, a *app, user session.User, groupBy string) error {
	if err := a.store.LoadAll(ctx); err != nil {
		return err
	}
	tasks := a.store.Snapshot()

	if groupBy != "" {
		return outputGroupedList(tasks, groupBy)
	}

	summary := board.Summary(a.cfg.Board.Name, tasks, time.Now())
	summary.Username = user.Username

	format := outputFormat()
	if format == output.FormatJSON {
		return output.JSON(os.Stdout, summary)
	}
	if format == output.FormatCompact {
		output.OverviewCompact(os.Stdout, summary)
		return nil
	}

	output.OverviewTable(os.Stdout, summary)
	return nil
}

func watchSummary(ctx context.Context, a *app, groupBy string) error {
	w, err := watcher.New(a.cfg.Dir(), watchedFiles(), func() {
		clearScreen()
		sess, loadErr := a.sessions.Load()
		if loadErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: reloading session: %v\n", loadErr)
			return
		}
		if !sess.SignedIn() {
			fmt.Fprintln(os.Stderr, "Signed out. Waiting for login...")
			return
		}
		a.client.RestoreCookies(sess.HTTPCookies(time.Now()))
		if renderErr := renderSummary(ctx, a, *sess.User, groupBy); renderErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: rendering board: %v\n", renderErr)
		}
	})
	if err != nil {
		return fmt.Errorf("starting file watcher: %w", err)
	}
	defer w.Close()

	fmt.Fprintln(os.Stderr, "Watching for changes... (Ctrl+C to stop)")

	w.Run(ctx, func(watchErr error) {
		fmt.Fprintf(os.Stderr, "Warning: file watcher: %v\n", watchErr)
	})

	return nil
}

// clearScreen sends ANSI escape codes to clear the terminal and move the
// cursor to the top-left corner.
func clearScreen() {
	fmt.Fprint(os.Stdout, "\033[2J\033[H")
}
