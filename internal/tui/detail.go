package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/twiced-technology-gmbh/taskdeck/internal/output"
	"github.com/twiced-technology-gmbh/taskdeck/internal/task"
)

var detailTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230"))

// detailTask returns the task shown in the detail view, or nil once it is
// gone from the board.
func (b *Board) detailTask() *task.Task {
	i := task.IndexByID(b.tasks, b.detailID)
	if i < 0 {
		return nil
	}
	return &b.tasks[i]
}

func (b *Board) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	t := b.detailTask()
	if t == nil {
		b.view = viewBoard
		return b, nil
	}
	switch msg.String() {
	case "q", keyEsc:
		b.view = viewBoard
	case "j", "down":
		if b.detailRow < len(t.Subtasks)-1 {
			b.detailRow++
		}
	case "k", "up":
		if b.detailRow > 0 {
			b.detailRow--
		}
	case " ", "x":
		if b.detailRow < len(t.Subtasks) {
			s := t.Subtasks[b.detailRow]
			return b, b.toggleSubtaskCmd(t.ID, s.ID, !s.Status)
		}
	case "d":
		b.deleteID = t.ID
		b.deleteTitle = t.Title
		b.view = viewConfirmDelete
	}
	return b, nil
}

func (b *Board) viewDetail() string {
	t := b.detailTask()
	if t == nil {
		return dialogStyle.Render("Task no longer exists.\n\n" + dimStyle.Render("esc:back"))
	}

	width := min(b.width-2*dialogPadX-2, 90) //nolint:mnd // readable line length
	var sb strings.Builder

	catStyle, ok := categoryStyles[t.Category]
	if !ok {
		catStyle = dimStyle
	}
	sb.WriteString(catStyle.Render(categoryLabel(t.Category)) + "\n")
	sb.WriteString(detailTitleStyle.Render(fmt.Sprintf("#%d %s", t.ID, t.Title)) + "\n\n")

	if t.Description != "" {
		sb.WriteString(output.Markdown(t.Description, width) + "\n\n")
	}

	fmt.Fprintf(&sb, "Due date:  %s\n", orDash(t.DueDate.String()))
	fmt.Fprintf(&sb, "Priority:  %s %s\n", t.Priority, priorityGlyphs[t.Priority])
	fmt.Fprintf(&sb, "Status:    %s\n", statusLabel(t.Status))

	sb.WriteString("\nAssigned to:\n")
	if len(t.Members) == 0 {
		sb.WriteString(dimStyle.Render("  nobody") + "\n")
	}
	for _, m := range t.Members {
		fmt.Fprintf(&sb, "  %s %s\n", memberInitials([]task.Member{m}), m.FullName())
	}

	if len(t.Subtasks) > 0 {
		fmt.Fprintf(&sb, "\nSubtasks (%d/%d):\n", t.SubtasksProgress, len(t.Subtasks))
		for i, s := range t.Subtasks {
			mark := "[ ]"
			if s.Status {
				mark = "[x]"
			}
			line := fmt.Sprintf("%s %s", mark, s.Title)
			if i == b.detailRow {
				line = activeColumnHeaderStyle.Render(line)
			} else {
				line = " " + line
			}
			sb.WriteString(" " + line + "\n")
		}
	}

	sb.WriteString("\n" + dimStyle.Render("j/k:select space:toggle d:delete esc:back"))
	if b.toast != "" {
		sb.WriteString("\n" + errorStyle.Render(b.toast))
	}
	return dialogStyle.Render(sb.String())
}

func orDash(s string) string {
	if s == "" {
		return "--"
	}
	return s
}
