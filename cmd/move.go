package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskdeck/internal/clierr"
	"github.com/twiced-technology-gmbh/taskdeck/internal/output"
	"github.com/twiced-technology-gmbh/taskdeck/internal/task"
)

var moveCmd = &cobra.Command{
	Use:   "move ID[,ID,...] [STATUS]",
	Short: "Move a task to a different status",
	Long: `Changes the status of a task. Provide the new status directly,
or use --next/--prev to move along the board's column order.
Multiple IDs can be provided as a comma-separated list.`,
	Args: cobra.RangeArgs(1, 2), //nolint:mnd // 1 or 2 positional args
	RunE: runMove,
}

func init() {
	moveCmd.Flags().Bool("next", false, "move to next status")
	moveCmd.Flags().Bool("prev", false, "move to previous status")
	rootCmd.AddCommand(moveCmd)
}

func runMove(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args[0])
	if err != nil {
		return err
	}

	a, _, err := openAuthedApp(nil)
	if err != nil {
		return err
	}
	defer a.persistSession()

	if err := a.store.LoadAll(cmd.Context()); err != nil {
		return err
	}

	// Single ID: full output.
	if len(ids) == 1 {
		return moveSingleTask(cmd.Context(), a, ids[0], cmd, args)
	}

	// Batch mode.
	return runBatch(ids, func(id int) error {
		_, _, err := executeMove(cmd.Context(), a, id, cmd, args)
		return err
	})
}

// moveResult wraps a task with a changed flag for JSON output.
type moveResult struct {
	task.Task
	Changed bool `json:"changed"`
}

// moveSingleTask handles a single task move with full output.
func moveSingleTask(ctx context.Context, a *app, id int, cmd *cobra.Command, args []string) error {
	t, oldStatus, err := executeMove(ctx, a, id, cmd, args)
	if err != nil {
		return err
	}

	// Idempotent: status didn't change.
	if oldStatus == "" {
		return outputMoveResult(t, false)
	}

	if outputFormat() == output.FormatJSON {
		return outputMoveResult(t, true)
	}

	output.Messagef(os.Stdout, "Moved task #%d: %s -> %s", id, oldStatus, t.Status)
	return nil
}

// executeMove performs the core move: resolve the target, update, log.
// If the task was already at the target status oldStatus is empty and
// nothing is sent.
func executeMove(ctx context.Context, a *app, id int, cmd *cobra.Command, args []string) (task.Task, task.Status, error) {
	t, ok := a.store.Get(id)
	if !ok {
		return task.Task{}, "", task.NotFound(id)
	}

	newStatus, err := resolveTargetStatus(cmd, args, t)
	if err != nil {
		return task.Task{}, "", err
	}
	if t.Status == newStatus {
		return t, "", nil
	}

	oldStatus := t.Status
	if err := a.store.UpdateStatus(ctx, id, newStatus); err != nil {
		return task.Task{}, "", err
	}
	a.logActivity("move", id, string(oldStatus)+" -> "+string(newStatus))

	moved, _ := a.store.Get(id)
	return moved, oldStatus, nil
}

func resolveTargetStatus(cmd *cobra.Command, args []string, t task.Task) (task.Status, error) {
	next, _ := cmd.Flags().GetBool("next")
	prev, _ := cmd.Flags().GetBool("prev")

	switch {
	case len(args) == 2: //nolint:mnd // positional arg
		status := task.Status(args[1])
		if err := task.ValidateStatus(status); err != nil {
			return "", err
		}
		return status, nil
	case next:
		idx := task.StatusIndex(t.Status)
		if idx < 0 || idx >= len(task.Statuses)-1 {
			return "", boundaryError(t, "last")
		}
		return task.Statuses[idx+1], nil
	case prev:
		idx := task.StatusIndex(t.Status)
		if idx <= 0 {
			return "", boundaryError(t, "first")
		}
		return task.Statuses[idx-1], nil
	default:
		return "", clierr.New(clierr.InvalidInput, "provide a target status or use --next/--prev")
	}
}

func boundaryError(t task.Task, which string) error {
	return clierr.Newf(clierr.InvalidStatus, "task #%d is already in the %s column (%s)", t.ID, which, t.Status).
		WithDetails(map[string]any{"id": t.ID, "status": t.Status})
}

func outputMoveResult(t task.Task, changed bool) error {
	format := outputFormat()
	if format == output.FormatJSON {
		return output.JSON(os.Stdout, moveResult{Task: t, Changed: changed})
	}
	if !changed {
		output.Messagef(os.Stdout, "Task #%d is already at %s", t.ID, t.Status)
	}
	return nil
}
