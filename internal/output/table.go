package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/twiced-technology-gmbh/taskdeck/internal/board"
	"github.com/twiced-technology-gmbh/taskdeck/internal/contacts"
	"github.com/twiced-technology-gmbh/taskdeck/internal/task"
)

const defaultWrap = 80

var (
	colorEnabled = true

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("244"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	// Status colors aligned with TUI column-header palette.
	statusStyles = map[string]lipgloss.Style{
		string(task.StatusTodo):          lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		string(task.StatusInProgress):    lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		string(task.StatusAwaitFeedback): lipgloss.NewStyle().Foreground(lipgloss.Color("62")),
		string(task.StatusDone):          lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
	}

	// Priority colors matching TUI priority palette.
	priorityStyles = map[string]lipgloss.Style{
		string(task.PriorityHigh):   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		string(task.PriorityMedium): lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		string(task.PriorityLow):    lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
	}

	memberStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("110"))
	groupKeyStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
)

// TaskTable renders a list of tasks as a formatted table.
func TaskTable(w io.Writer, tasks []task.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(os.Stderr, "No tasks found.")
		return
	}

	const pad = 2
	idW, statusW, prioW, titleW, membersW, progW := 4, 8, 10, 5, 9, 6
	for _, t := range tasks {
		idW = max(idW, len(strconv.Itoa(t.ID))+pad)
		statusW = max(statusW, len(t.Status)+pad)
		prioW = max(prioW, len(t.Priority)+pad)
		titleW = max(titleW, min(len(t.Title)+pad, 50))            //nolint:mnd // max title column width
		membersW = max(membersW, min(len(memberList(&t))+pad, 30)) //nolint:mnd // max members column width
		progW = max(progW, len(progressDisplay(&t))+pad)
	}

	header := fmt.Sprintf("%-*s %-*s %-*s %-*s %-*s %-*s %s",
		idW, "ID", statusW, "STATUS", prioW, "PRIORITY",
		titleW, "TITLE", membersW, "MEMBERS", progW, "DONE", "DUE")
	fmt.Fprintln(w, headerStyle.Render(strings.TrimRight(header, " ")))

	for _, t := range tasks {
		title := t.Title
		const maxTitle = 48
		if len(title) > maxTitle {
			title = title[:maxTitle-3] + "..."
		}
		members := memberList(&t)
		const maxMembers = 28
		switch {
		case members == "":
			members = dimStyle.Render("--")
		case len(members) > maxMembers:
			members = memberStyle.Render(members[:maxMembers-3] + "...")
		default:
			members = memberStyle.Render(members)
		}
		prog := progressDisplay(&t)
		if prog == "" {
			prog = dimStyle.Render("--")
		}

		row := fmt.Sprintf("%-*d %s %s %s %s %s %s",
			idW, t.ID,
			padRight(styledValue(string(t.Status), statusStyles), statusW),
			padRight(styledValue(string(t.Priority), priorityStyles), prioW),
			padRight(title, titleW),
			padRight(members, membersW),
			padRight(prog, progW),
			dueDisplay(&t))
		fmt.Fprintln(w, strings.TrimRight(row, " "))
	}
}

// TaskDetail renders a single task with full detail. The description is
// rendered as markdown wrapped to width.
func TaskDetail(w io.Writer, t task.Task, width int) {
	titleLine := fmt.Sprintf("Task #%d: %s", t.ID, t.Title)
	fmt.Fprintln(w, lipgloss.NewStyle().Bold(true).Render(titleLine))
	fmt.Fprintln(w, strings.Repeat("─", lipgloss.Width(titleLine)))

	printField(w, "Status", styledValue(string(t.Status), statusStyles))
	printField(w, "Priority", styledValue(string(t.Priority), priorityStyles))
	printField(w, "Category", CategoryLabel(t.Category))
	printField(w, "Due", dueDisplay(&t))
	if t.CreatedAt != nil {
		printField(w, "Created", t.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	if len(t.Members) > 0 {
		printField(w, "Members", memberStyle.Render(memberList(&t)))
	} else {
		printField(w, "Members", dimStyle.Render("--"))
	}

	if len(t.Subtasks) > 0 {
		printField(w, "Subtasks", progressDisplay(&t))
		for _, s := range t.Subtasks {
			mark := "[ ]"
			if s.Status {
				mark = "[x]"
			}
			fmt.Fprintf(w, "    %s %s %s\n", mark, s.Title, dimStyle.Render("#"+strconv.Itoa(s.ID)))
		}
	}

	if t.Description != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, Markdown(t.Description, width))
	}
}

// Markdown renders s for the terminal, falling back to the raw text when
// rendering fails.
func Markdown(s string, width int) string {
	if width <= 0 {
		width = defaultWrap
	}
	style := glamour.WithStandardStyle("notty")
	if colorEnabled {
		style = glamour.WithAutoStyle()
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return s
	}
	out, err := r.Render(s)
	if err != nil {
		return s
	}
	return strings.Trim(out, "\n")
}

// OverviewTable renders a board summary as a formatted dashboard.
func OverviewTable(w io.Writer, s board.Overview) {
	fmt.Fprintln(w, lipgloss.NewStyle().Bold(true).Render(s.BoardName))
	fmt.Fprintln(w, Greeting(s.Username))
	fmt.Fprintf(w, "Total: %d tasks\n\n", s.TotalTasks)

	header := fmt.Sprintf("%-16s %6s %8s", "STATUS", "COUNT", "OVERDUE")
	fmt.Fprintln(w, headerStyle.Render(header))

	const colW = 16
	for _, ss := range s.Statuses {
		fmt.Fprintf(w, "%s %6d %8d\n",
			padRight(styledValue(string(ss.Status), statusStyles), colW), ss.Count, ss.Overdue)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-16s %6s", "PRIORITY", "COUNT")))
	for _, pc := range s.Priorities {
		fmt.Fprintf(w, "%s %6d\n",
			padRight(styledValue(string(pc.Priority), priorityStyles), colW), pc.Count)
	}

	if s.Upcoming != nil {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Upcoming: #%d %s (%s, due %s)\n",
			s.Upcoming.ID, s.Upcoming.Title,
			styledValue(string(s.Upcoming.Priority), priorityStyles), dueDisplay(s.Upcoming))
	}
}

// GroupedTable renders a grouped board view with per-group status breakdowns.
func GroupedTable(w io.Writer, gs board.GroupedSummary) {
	if len(gs.Groups) == 0 {
		fmt.Fprintln(os.Stderr, "No groups found.")
		return
	}

	for i, g := range gs.Groups {
		if i > 0 {
			fmt.Fprintln(w)
		}
		title := fmt.Sprintf("%s (%d tasks)", g.Key, g.Total)
		fmt.Fprintln(w, lipgloss.NewStyle().Bold(true).Render(title))

		for _, ss := range g.Statuses {
			if ss.Count == 0 {
				continue
			}
			const groupStatusW = 16
			fmt.Fprintf(w, "  %s %d\n",
				padRight(styledValue(string(ss.Status), statusStyles), groupStatusW), ss.Count)
		}
	}
}

// ContactGroups renders contacts under their letter headings.
func ContactGroups(w io.Writer, groups []contacts.Group) {
	if len(groups) == 0 {
		fmt.Fprintln(os.Stderr, "No contacts found.")
		return
	}
	for i, g := range groups {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, groupKeyStyle.Render(g.Key))
		for _, m := range g.Members {
			swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(m.Color)).Render("●")
			if !colorEnabled || m.Color == "" {
				swatch = m.Initials()
			}
			fmt.Fprintf(w, "  %-4d %s %s %s\n", m.ID, swatch, padRight(m.FullName(), 24), dimStyle.Render(m.User.Email)) //nolint:mnd // name column width
		}
	}
}

// ContactDetail renders a single contact.
func ContactDetail(w io.Writer, m task.Member) {
	fmt.Fprintln(w, lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("Contact #%d: %s", m.ID, m.FullName())))
	printField(w, "Username", m.User.Username)
	printField(w, "Email", m.User.Email)
	printField(w, "Phone", stringOrDash(m.PhoneNumber))
	printField(w, "Color", stringOrDash(m.Color))
}

// LogTable renders activity log entries, oldest first.
func LogTable(w io.Writer, entries []board.LogEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "No activity recorded.")
		return
	}
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-16s %-10s %-6s %s", "TIME", "ACTION", "TASK", "DETAIL")))
	for _, e := range entries {
		fmt.Fprintf(w, "%-16s %-10s %-6s %s\n",
			e.Timestamp.Local().Format("2006-01-02 15:04"), e.Action, "#"+strconv.Itoa(e.TaskID), e.Detail)
	}
}

// Messagef prints a simple formatted message line.
func Messagef(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format+"\n", args...)
}

// CategoryLabel returns the display label of a category.
func CategoryLabel(c task.Category) string {
	switch c {
	case task.CategoryUserStory:
		return "User Story"
	case task.CategoryTechnicalTask:
		return "Technical Task"
	}
	return string(c)
}

func printField(w io.Writer, label, value string) {
	fmt.Fprintf(w, "  %-12s %s\n", label+":", value)
}

// padRight pads s with spaces to the given visible width, accounting for ANSI
// escape codes that are invisible but consume bytes.
func padRight(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

func stringOrDash(s string) string {
	if s == "" {
		return dimStyle.Render("--")
	}
	return s
}

func memberList(t *task.Task) string {
	names := make([]string, len(t.Members))
	for i, m := range t.Members {
		names[i] = m.FullName()
		if names[i] == "" {
			names[i] = m.User.Username
		}
	}
	return strings.Join(names, ", ")
}

// progressDisplay returns "done/total", or "" without subtasks.
func progressDisplay(t *task.Task) string {
	if len(t.Subtasks) == 0 {
		return ""
	}
	return strconv.Itoa(t.SubtasksProgress) + "/" + strconv.Itoa(len(t.Subtasks))
}

func dueDisplay(t *task.Task) string {
	if t.DueDate.IsZero() {
		return dimStyle.Render("--")
	}
	return t.DueDate.String()
}

// styledValue renders s using a matching style from the map, or returns s unchanged.
func styledValue(s string, styles map[string]lipgloss.Style) string {
	if st, ok := styles[s]; ok {
		return st.Render(s)
	}
	return s
}

// Greeting returns the summary welcome line; anonymous users are "Guest".
func Greeting(username string) string {
	if username == "" {
		username = "Guest"
	}
	return "Welcome, " + username
}
