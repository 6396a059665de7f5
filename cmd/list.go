package cmd

import (
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskdeck/internal/board"
	"github.com/twiced-technology-gmbh/taskdeck/internal/clierr"
	"github.com/twiced-technology-gmbh/taskdeck/internal/output"
	"github.com/twiced-technology-gmbh/taskdeck/internal/task"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks",
	Long:    `Lists tasks with optional filtering, sorting, and output format control.`,
	Args:    cobra.NoArgs,
	RunE:    runList,
}

func init() {
	listCmd.Flags().StringSlice("status", nil, "filter by status (comma-separated)")
	listCmd.Flags().StringSlice("priority", nil, "filter by priority (comma-separated)")
	listCmd.Flags().String("category", "", "filter by category")
	listCmd.Flags().String("member", "", "filter by assigned contact (id, username, email or name)")
	listCmd.Flags().StringP("search", "s", "", "search tasks by title or description (case-insensitive)")
	listCmd.Flags().String("sort", "id", "sort field ("+strings.Join(board.ValidSortFields(), ", ")+")")
	listCmd.Flags().BoolP("reverse", "r", false, "reverse sort order")
	listCmd.Flags().IntP("limit", "n", 0, "limit number of results")
	listCmd.Flags().String("group-by", "", "group results by field ("+strings.Join(board.ValidGroupByFields(), ", ")+")")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	statuses, _ := cmd.Flags().GetStringSlice("status")
	priorities, _ := cmd.Flags().GetStringSlice("priority")
	category, _ := cmd.Flags().GetString("category")
	member, _ := cmd.Flags().GetString("member")
	search, _ := cmd.Flags().GetString("search")
	sortBy, _ := cmd.Flags().GetString("sort")
	reverse, _ := cmd.Flags().GetBool("reverse")
	limit, _ := cmd.Flags().GetInt("limit")
	groupBy, _ := cmd.Flags().GetString("group-by")

	if err := validateGroupBy(groupBy); err != nil {
		return err
	}
	if !slices.Contains(board.ValidSortFields(), sortBy) {
		return clierr.Newf(clierr.InvalidInput, "invalid --sort field %q; valid: %s",
			sortBy, strings.Join(board.ValidSortFields(), ", "))
	}

	filter := board.FilterOptions{Search: search}
	var err error
	if filter.Statuses, err = parseStatuses(statuses); err != nil {
		return err
	}
	if filter.Priorities, err = parsePriorities(priorities); err != nil {
		return err
	}
	if category != "" {
		filter.Category = task.Category(category)
		if err := task.ValidateCategory(filter.Category); err != nil {
			return err
		}
	}

	a, _, err := openAuthedApp(nil)
	if err != nil {
		return err
	}
	defer a.persistSession()

	if member != "" {
		if err := a.contacts.Load(cmd.Context()); err != nil {
			return err
		}
		m, ok := a.contacts.Lookup(member)
		if !ok {
			return clierr.Newf(clierr.InvalidInput, "unknown contact %q", member)
		}
		filter.MemberID = m.ID
	}

	if err := a.store.LoadAll(cmd.Context()); err != nil {
		return err
	}

	tasks := board.List(a.store.Snapshot(), board.ListOptions{
		Filter:  filter,
		SortBy:  sortBy,
		Reverse: reverse,
		Limit:   limit,
	})

	if groupBy != "" {
		return outputGroupedList(tasks, groupBy)
	}
	return outputTaskList(tasks)
}

func validateGroupBy(groupBy string) error {
	if groupBy != "" && !slices.Contains(board.ValidGroupByFields(), groupBy) {
		return clierr.Newf(clierr.InvalidInput, "invalid --group-by field %q; valid: %s",
			groupBy, strings.Join(board.ValidGroupByFields(), ", "))
	}
	return nil
}

func parseStatuses(values []string) ([]task.Status, error) {
	out := make([]task.Status, 0, len(values))
	for _, v := range values {
		s := task.Status(strings.TrimSpace(v))
		if err := task.ValidateStatus(s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func parsePriorities(values []string) ([]task.Priority, error) {
	out := make([]task.Priority, 0, len(values))
	for _, v := range values {
		p := task.Priority(strings.TrimSpace(v))
		if err := task.ValidatePriority(p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func outputGroupedList(tasks []task.Task, groupBy string) error {
	grouped := board.GroupBy(tasks, groupBy)
	switch outputFormat() {
	case output.FormatJSON:
		return output.JSON(os.Stdout, grouped)
	case output.FormatCompact:
		output.GroupedCompact(os.Stdout, grouped)
		return nil
	default:
		output.GroupedTable(os.Stdout, grouped)
		return nil
	}
}

func outputTaskList(tasks []task.Task) error {
	format := outputFormat()
	if format == output.FormatJSON {
		if tasks == nil {
			tasks = []task.Task{}
		}
		return output.JSON(os.Stdout, tasks)
	}
	if format == output.FormatCompact {
		output.TaskCompact(os.Stdout, tasks)
		return nil
	}

	output.TaskTable(os.Stdout, tasks)
	return nil
}
