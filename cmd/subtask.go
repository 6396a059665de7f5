package cmd

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskdeck/internal/output"
	"github.com/twiced-technology-gmbh/taskdeck/internal/task"
)

var subtaskCmd = &cobra.Command{
	Use:   "subtask TASK_ID SUBTASK_ID",
	Short: "Check or uncheck a subtask",
	Long: `Toggles a subtask of a task. Use --done or --undone to set the state
explicitly instead of toggling.`,
	Args: cobra.ExactArgs(2), //nolint:mnd // task and subtask id
	RunE: runSubtask,
}

func init() {
	subtaskCmd.Flags().Bool("done", false, "mark the subtask done")
	subtaskCmd.Flags().Bool("undone", false, "mark the subtask not done")
	subtaskCmd.MarkFlagsMutuallyExclusive("done", "undone")
	rootCmd.AddCommand(subtaskCmd)
}

func runSubtask(cmd *cobra.Command, args []string) error {
	taskID, err := strconv.Atoi(args[0])
	if err != nil {
		return task.ValidateTaskID(args[0])
	}
	subtaskID, err := strconv.Atoi(args[1])
	if err != nil {
		return task.ValidateTaskID(args[1])
	}

	a, _, err := openAuthedApp(nil)
	if err != nil {
		return err
	}
	defer a.persistSession()

	if err := a.store.LoadAll(cmd.Context()); err != nil {
		return err
	}
	t, ok := a.store.Get(taskID)
	if !ok {
		return task.NotFound(taskID)
	}
	i := t.SubtaskIndex(subtaskID)
	if i < 0 {
		return task.SubtaskNotFound(taskID, subtaskID)
	}

	done := !t.Subtasks[i].Status
	if v, _ := cmd.Flags().GetBool("done"); v {
		done = true
	}
	if v, _ := cmd.Flags().GetBool("undone"); v {
		done = false
	}

	if err := a.store.UpdateSubtaskStatus(cmd.Context(), taskID, subtaskID, done); err != nil {
		return err
	}
	state := "open"
	if done {
		state = "done"
	}
	a.logActivity("subtask_"+state, taskID, t.Subtasks[i].Title)

	updated, _ := a.store.Get(taskID)
	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, updated)
	}
	output.Messagef(os.Stdout, "Task #%d: %q %s (%d/%d done)",
		taskID, t.Subtasks[i].Title, state, updated.Progress(), len(updated.Subtasks))
	return nil
}
