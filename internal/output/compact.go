package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/twiced-technology-gmbh/taskdeck/internal/board"
	"github.com/twiced-technology-gmbh/taskdeck/internal/contacts"
	"github.com/twiced-technology-gmbh/taskdeck/internal/task"
)

// TaskCompact renders a list of tasks in one-line-per-record compact format.
func TaskCompact(w io.Writer, tasks []task.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(os.Stderr, "No tasks found.")
		return
	}

	for _, t := range tasks {
		fmt.Fprintln(w, formatTaskLine(&t))
	}
}

// TaskDetailCompact renders a single task with detail in compact format.
func TaskDetailCompact(w io.Writer, t task.Task) {
	fmt.Fprintln(w, formatTaskLine(&t)+" "+string(t.Category))

	if t.CreatedAt != nil {
		fmt.Fprintln(w, "  created:"+t.CreatedAt.Local().Format("2006-01-02"))
	}
	for _, s := range t.Subtasks {
		mark := " "
		if s.Status {
			mark = "x"
		}
		fmt.Fprintf(w, "  [%s] #%d %s\n", mark, s.ID, s.Title)
	}
	if t.Description != "" {
		for _, bodyLine := range strings.Split(t.Description, "\n") {
			fmt.Fprintln(w, "  "+bodyLine)
		}
	}
}

// OverviewCompact renders a board summary in compact format.
func OverviewCompact(w io.Writer, s board.Overview) {
	fmt.Fprintf(w, "%s (%d tasks) %s\n", s.BoardName, s.TotalTasks, Greeting(s.Username))

	for _, ss := range s.Statuses {
		line := "  " + string(ss.Status) + ": " + strconv.Itoa(ss.Count)
		if ss.Overdue > 0 {
			line += " (" + strconv.Itoa(ss.Overdue) + " overdue)"
		}
		fmt.Fprintln(w, line)
	}

	if len(s.Priorities) > 0 {
		parts := make([]string, 0, len(s.Priorities))
		for _, pc := range s.Priorities {
			parts = append(parts, string(pc.Priority)+"="+strconv.Itoa(pc.Count))
		}
		fmt.Fprintln(w, "Priority: "+strings.Join(parts, " "))
	}
	if s.Upcoming != nil {
		fmt.Fprintln(w, "Upcoming: "+formatTaskLine(s.Upcoming))
	}
}

// GroupedCompact renders a grouped board view, one line per group.
func GroupedCompact(w io.Writer, gs board.GroupedSummary) {
	for _, g := range gs.Groups {
		parts := make([]string, 0, len(g.Statuses))
		for _, ss := range g.Statuses {
			if ss.Count > 0 {
				parts = append(parts, string(ss.Status)+"="+strconv.Itoa(ss.Count))
			}
		}
		fmt.Fprintf(w, "%s (%d): %s\n", g.Key, g.Total, strings.Join(parts, " "))
	}
}

// ContactsCompact renders contacts as "letter id name <email>" lines.
func ContactsCompact(w io.Writer, groups []contacts.Group) {
	for _, g := range groups {
		for _, m := range g.Members {
			fmt.Fprintf(w, "%s #%d %s <%s>\n", g.Key, m.ID, m.FullName(), m.User.Email)
		}
	}
}

// formatTaskLine builds the one-line representation of a task.
func formatTaskLine(t *task.Task) string {
	line := "#" + strconv.Itoa(t.ID) + " [" + string(t.Status) + "/" + string(t.Priority) + "] " + t.Title

	if len(t.Members) > 0 {
		line += " (" + memberList(t) + ")"
	}
	if p := progressDisplay(t); p != "" {
		line += " " + p
	}
	if !t.DueDate.IsZero() {
		line += " due:" + t.DueDate.String()
	}

	return line
}
