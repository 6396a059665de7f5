package cmd

import (
	"context"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskdeck/internal/clierr"
	"github.com/twiced-technology-gmbh/taskdeck/internal/date"
	"github.com/twiced-technology-gmbh/taskdeck/internal/output"
	"github.com/twiced-technology-gmbh/taskdeck/internal/task"
)

var editCmd = &cobra.Command{
	Use:   "edit ID[,ID,...]",
	Short: "Edit a task",
	Long: `Modifies fields of an existing task. Only specified fields are changed.
Multiple IDs can be provided as a comma-separated list.`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	editCmd.Flags().String("title", "", "new title")
	editCmd.Flags().String("description", "", "new description (replaces the whole text)")
	editCmd.Flags().StringP("append-description", "a", "", "append text to the description")
	editCmd.Flags().String("status", "", "new status")
	editCmd.Flags().String("priority", "", "new priority")
	editCmd.Flags().String("category", "", "new category")
	editCmd.Flags().String("due", "", "new due date (YYYY-MM-DD)")
	editCmd.Flags().String("color", "", "new card color")
	editCmd.Flags().StringSlice("members", nil, "replace assigned contacts")
	editCmd.Flags().StringSlice("add-member", nil, "assign contacts")
	editCmd.Flags().StringSlice("remove-member", nil, "unassign contacts")
	editCmd.Flags().StringArray("add-subtask", nil, "add a subtask (repeatable)")
	editCmd.Flags().IntSlice("remove-subtask", nil, "remove subtasks by id")
	rootCmd.AddCommand(editCmd)
}

func runEdit(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args[0])
	if err != nil {
		return err
	}

	a, _, err := openAuthedApp(nil)
	if err != nil {
		return err
	}
	defer a.persistSession()

	if needsContacts(cmd) {
		if err := a.contacts.Load(cmd.Context()); err != nil {
			return err
		}
	}

	// Single ID: full output.
	if len(ids) == 1 {
		t, err := executeEdit(cmd.Context(), a, ids[0], cmd)
		if err != nil {
			return err
		}
		if outputFormat() == output.FormatJSON {
			return output.JSON(os.Stdout, t)
		}
		output.Messagef(os.Stdout, "Updated task #%d: %s", t.ID, t.Title)
		return nil
	}

	// Batch mode.
	return runBatch(ids, func(id int) error {
		_, err := executeEdit(cmd.Context(), a, id, cmd)
		return err
	})
}

func needsContacts(cmd *cobra.Command) bool {
	return cmd.Flags().Changed("members") ||
		cmd.Flags().Changed("add-member") ||
		cmd.Flags().Changed("remove-member")
}

// executeEdit performs the core edit: fetch, apply, save, log.
func executeEdit(ctx context.Context, a *app, id int, cmd *cobra.Command) (task.Task, error) {
	t, err := a.store.Fetch(ctx, id)
	if err != nil {
		return task.Task{}, err
	}
	t = t.Clone()

	changed, err := applyEditFlags(cmd, a, &t)
	if err != nil {
		return task.Task{}, err
	}
	if !changed {
		return task.Task{}, clierr.New(clierr.NoChanges, "no changes specified")
	}

	updated, err := a.store.UpdateFull(ctx, t)
	if err != nil {
		return task.Task{}, err
	}
	a.logActivity("edit", updated.ID, updated.Title)
	return updated, nil
}

func applyEditFlags(cmd *cobra.Command, a *app, t *task.Task) (bool, error) {
	changed, err := applySimpleEditFlags(cmd, t)
	if err != nil {
		return false, err
	}

	for _, fn := range []func(*cobra.Command, *app, *task.Task) (bool, error){
		applyMemberFlags,
		applySubtaskFlags,
	} {
		c, fnErr := fn(cmd, a, t)
		if fnErr != nil {
			return false, fnErr
		}
		changed = changed || c
	}
	return changed, nil
}

func applySimpleEditFlags(cmd *cobra.Command, t *task.Task) (bool, error) {
	changed := false
	if v, _ := cmd.Flags().GetString("title"); v != "" {
		t.Title = v
		changed = true
	}
	if cmd.Flags().Changed("description") {
		t.Description, _ = cmd.Flags().GetString("description")
		changed = true
	}
	if v, _ := cmd.Flags().GetString("append-description"); v != "" {
		if t.Description != "" && !strings.HasSuffix(t.Description, "\n") {
			t.Description += "\n"
		}
		t.Description += v
		changed = true
	}
	if v, _ := cmd.Flags().GetString("status"); v != "" {
		t.Status = task.Status(v)
		changed = true
	}
	if v, _ := cmd.Flags().GetString("priority"); v != "" {
		t.Priority = task.Priority(v)
		changed = true
	}
	if v, _ := cmd.Flags().GetString("category"); v != "" {
		t.Category = task.Category(v)
		changed = true
	}
	if v, _ := cmd.Flags().GetString("color"); v != "" {
		t.Color = v
		changed = true
	}
	if v, _ := cmd.Flags().GetString("due"); v != "" {
		d, err := date.Parse(v)
		if err != nil {
			return false, task.ValidateDate("due", v, err)
		}
		t.DueDate = d
		changed = true
	}
	return changed, nil
}

func applyMemberFlags(cmd *cobra.Command, a *app, t *task.Task) (bool, error) {
	changed := false
	if refs, _ := cmd.Flags().GetStringSlice("members"); cmd.Flags().Changed("members") {
		members, err := a.contacts.Resolve(refs)
		if err != nil {
			return false, err
		}
		t.Members = members
		changed = true
	}
	if refs, _ := cmd.Flags().GetStringSlice("add-member"); len(refs) > 0 {
		members, err := a.contacts.Resolve(refs)
		if err != nil {
			return false, err
		}
		for _, m := range members {
			if !slices.Contains(t.MemberIDs(), m.ID) {
				t.Members = append(t.Members, m)
			}
		}
		changed = true
	}
	if refs, _ := cmd.Flags().GetStringSlice("remove-member"); len(refs) > 0 {
		members, err := a.contacts.Resolve(refs)
		if err != nil {
			return false, err
		}
		t.Members = slices.DeleteFunc(t.Members, func(m task.Member) bool {
			return slices.ContainsFunc(members, func(r task.Member) bool { return r.ID == m.ID })
		})
		changed = true
	}
	return changed, nil
}

func applySubtaskFlags(cmd *cobra.Command, _ *app, t *task.Task) (bool, error) {
	changed := false
	if ids, _ := cmd.Flags().GetIntSlice("remove-subtask"); len(ids) > 0 {
		for _, id := range ids {
			if t.SubtaskIndex(id) < 0 {
				return false, task.SubtaskNotFound(t.ID, id)
			}
		}
		t.Subtasks = slices.DeleteFunc(t.Subtasks, func(s task.Subtask) bool {
			return slices.Contains(ids, s.ID)
		})
		changed = true
	}
	if titles, _ := cmd.Flags().GetStringArray("add-subtask"); len(titles) > 0 {
		for _, title := range titles {
			t.Subtasks = append(t.Subtasks, task.Subtask{Title: strings.TrimSpace(title)})
		}
		changed = true
	}
	return changed, nil
}
