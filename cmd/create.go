package cmd

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/twiced-technology-gmbh/taskdeck/internal/clierr"
	"github.com/twiced-technology-gmbh/taskdeck/internal/contacts"
	"github.com/twiced-technology-gmbh/taskdeck/internal/date"
	"github.com/twiced-technology-gmbh/taskdeck/internal/output"
	"github.com/twiced-technology-gmbh/taskdeck/internal/task"
)

var createCmd = &cobra.Command{
	Use:     "create [TITLE]",
	Aliases: []string{"add"},
	Short:   "Create a new task",
	Long: `Creates a new task with the given title and optional fields. A due date is required.

Title can be provided as a positional argument or via --title flag.
Members are contact references: id, username, email or full name.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCreate,
}

func init() {
	createCmd.Flags().String("title", "", "task title (alternative to positional argument)")
	createCmd.Flags().String("description", "", "task description (markdown)")
	createCmd.Flags().String("status", string(task.StatusTodo), "task status")
	createCmd.Flags().String("priority", string(task.PriorityMedium), "task priority")
	createCmd.Flags().String("category", string(task.CategoryUserStory), "task category (user_story, technical_task)")
	createCmd.Flags().String("due", "", "due date (YYYY-MM-DD)")
	createCmd.Flags().StringSlice("members", nil, "assigned contacts (comma-separated)")
	createCmd.Flags().StringArray("subtask", nil, "subtask title (repeatable)")
	createCmd.Flags().String("color", "", "card color")
	createCmd.Flags().SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		switch name {
		case "member", "assignee":
			name = "members"
		case "body":
			name = "description"
		case "subtasks":
			name = "subtask"
		}
		return pflag.NormalizedName(name)
	})
	rootCmd.AddCommand(createCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	title, err := resolveCreateTitle(cmd, args)
	if err != nil {
		return err
	}

	draft := task.Task{Title: title}
	if err := applyCreateFlags(cmd, &draft); err != nil {
		return err
	}
	if err := task.Validate(&draft); err != nil {
		return err
	}

	a, _, err := openAuthedApp(nil)
	if err != nil {
		return err
	}
	defer a.persistSession()

	if refs, _ := cmd.Flags().GetStringSlice("members"); len(refs) > 0 {
		if draft.Members, err = resolveMembers(cmd, a.contacts, refs); err != nil {
			return err
		}
	}

	t, err := a.store.Add(cmd.Context(), draft)
	if err != nil {
		return err
	}
	a.logActivity("create", t.ID, t.Title)

	return outputCreateResult(t)
}

func outputCreateResult(t task.Task) error {
	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, t)
	}

	output.Messagef(os.Stdout, "Created task #%d: %s", t.ID, t.Title)
	output.Messagef(os.Stdout, "  Status: %s | Priority: %s | Due: %s", t.Status, t.Priority, t.DueDate)
	if len(t.Members) > 0 {
		names := make([]string, len(t.Members))
		for i, m := range t.Members {
			names[i] = m.FullName()
		}
		output.Messagef(os.Stdout, "  Members: %s", strings.Join(names, ", "))
	}
	if len(t.Subtasks) > 0 {
		output.Messagef(os.Stdout, "  Subtasks: %d", len(t.Subtasks))
	}
	return nil
}

// resolveCreateTitle returns the task title from either the positional arg or --title flag.
func resolveCreateTitle(cmd *cobra.Command, args []string) (string, error) {
	flagTitle, _ := cmd.Flags().GetString("title")
	hasPositional := len(args) > 0
	hasFlag := flagTitle != ""

	switch {
	case hasPositional && hasFlag:
		return "", clierr.New(clierr.InvalidInput,
			"title provided both as argument and --title flag; use one or the other")
	case hasPositional:
		return args[0], nil
	case hasFlag:
		return flagTitle, nil
	default:
		return "", errors.New("title is required: provide it as an argument or with --title")
	}
}

func applyCreateFlags(cmd *cobra.Command, t *task.Task) error {
	status, _ := cmd.Flags().GetString("status")
	t.Status = task.Status(status)
	priority, _ := cmd.Flags().GetString("priority")
	t.Priority = task.Priority(priority)
	category, _ := cmd.Flags().GetString("category")
	t.Category = task.Category(category)
	t.Description, _ = cmd.Flags().GetString("description")
	t.Color, _ = cmd.Flags().GetString("color")

	if v, _ := cmd.Flags().GetString("due"); v != "" {
		d, err := date.Parse(v)
		if err != nil {
			return task.ValidateDate("due", v, err)
		}
		t.DueDate = d
	}
	subtasks, _ := cmd.Flags().GetStringArray("subtask")
	for _, title := range subtasks {
		t.Subtasks = append(t.Subtasks, task.Subtask{Title: strings.TrimSpace(title)})
	}
	return nil
}

// resolveMembers loads the contact directory and maps refs to contacts.
func resolveMembers(cmd *cobra.Command, dir *contacts.Directory, refs []string) ([]task.Member, error) {
	if err := dir.Load(cmd.Context()); err != nil {
		return nil, err
	}
	return dir.Resolve(refs)
}
