package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/twiced-technology-gmbh/taskdeck/internal/board"
	"github.com/twiced-technology-gmbh/taskdeck/internal/task"
)

// --- Styles ---

var (
	columnHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("236")).
				Padding(0, 1)

	activeColumnHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("230")).
				Background(lipgloss.Color("62")).
				Padding(0, 1)

	dropColumnHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("16")).
				Background(lipgloss.Color("214")).
				Padding(0, 1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	activeCardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("226")).
			Padding(0, 1)

	draggedCardStyle = lipgloss.NewStyle().
				Border(lipgloss.DoubleBorder()).
				BorderForeground(lipgloss.Color("214")).
				Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	categoryStyles = map[task.Category]lipgloss.Style{
		task.CategoryUserStory:     lipgloss.NewStyle().Foreground(lipgloss.Color("#0038FF")).Bold(true),
		task.CategoryTechnicalTask: lipgloss.NewStyle().Foreground(lipgloss.Color("#1FD7C1")).Bold(true),
	}

	priorityGlyphs = map[task.Priority]string{
		task.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("▲"),
		task.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Render("="),
		task.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("34")).Render("▼"),
	}

	dialogPadY = 1
	dialogPadX = 2

	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(dialogPadY, dialogPadX)
)

// statusLabel returns the column title of a status.
func statusLabel(s task.Status) string {
	switch s {
	case task.StatusTodo:
		return "To do"
	case task.StatusInProgress:
		return "In progress"
	case task.StatusAwaitFeedback:
		return "Await feedback"
	case task.StatusDone:
		return "Done"
	}
	return string(s)
}

// --- View rendering ---

func (b *Board) viewBoard() string {
	colWidth := b.columnWidth()

	renderedCols := make([]string, len(b.columns))
	for i, col := range b.columns {
		renderedCols[i] = b.renderColumn(i, col, colWidth)
	}

	boardView := lipgloss.JoinHorizontal(lipgloss.Top, renderedCols...)

	// Clamp from the bottom (keeping headers at the top) and pad if needed.
	targetHeight := b.height - b.chromeHeight()
	if targetHeight > 0 {
		actual := strings.Count(boardView, "\n") + 1
		if actual > targetHeight {
			viewLines := strings.SplitN(boardView, "\n", targetHeight+1)
			boardView = strings.Join(viewLines[:targetHeight], "\n")
		} else if actual < targetHeight {
			boardView += strings.Repeat("\n", targetHeight-actual)
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, boardView, "", b.renderStatusBar())
}

func (b *Board) columnWidth() int {
	if b.width == 0 || len(b.columns) == 0 {
		return 30 //nolint:mnd // default column width
	}
	// Total rendered width = w * numColumns (JoinHorizontal adds no gaps).
	const maxColWidth = 75
	return min(b.width/len(b.columns), maxColWidth)
}

func (b *Board) renderColumn(colIdx int, col column, width int) string {
	headerText := fmt.Sprintf("%s (%d)", statusLabel(col.status), len(col.tasks))
	const headerPad = 2
	headerText = truncate(headerText, width-headerPad)

	drag := b.drag.State()
	var header string
	switch {
	case drag.Phase == board.DragHovering && drag.Column == col.status:
		header = dropColumnHeaderStyle.Width(width).Render(headerText)
	case colIdx == b.activeCol:
		header = activeColumnHeaderStyle.Width(width).Render(headerText)
	default:
		header = columnHeaderStyle.Width(width).Render(headerText)
	}

	maxVis := b.visibleCardsForColumn(&col, width)
	start := min(col.scrollOff, len(col.tasks))
	end := min(start+maxVis, len(col.tasks))

	parts := []string{header}

	if start > 0 {
		indicator := fmt.Sprintf("  ↑ %d more", start)
		parts = append(parts, dimStyle.Width(width).Render(truncate(indicator, width)))
	}

	if len(col.tasks) == 0 {
		parts = append(parts, dimStyle.Width(width).Render("  No tasks "+strings.ToLower(statusLabel(col.status))))
	} else {
		for rowIdx := start; rowIdx < end; rowIdx++ {
			t := &col.tasks[rowIdx]
			active := colIdx == b.activeCol && rowIdx == b.activeRow
			parts = append(parts, b.renderCard(t, active, drag.Phase != board.DragIdle && drag.TaskID == t.ID, width))
		}
	}

	if end < len(col.tasks) {
		indicator := fmt.Sprintf("  ↓ %d more", len(col.tasks)-end)
		parts = append(parts, dimStyle.Width(width).Render(truncate(indicator, width)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (b *Board) renderCard(t *task.Task, active, dragged bool, width int) string {
	content := strings.Join(b.cardContentLines(t, width), "\n")

	style := cardStyle
	switch {
	case dragged:
		style = draggedCardStyle
	case active:
		style = activeCardStyle
	}
	return style.Width(width - 2).Render(content) //nolint:mnd // border width
}

func (b *Board) cardHeight(t *task.Task, width int) int {
	return len(b.cardContentLines(t, width)) + 2 //nolint:mnd // top and bottom borders
}

// cardContentLines lays out a card: category, title, description preview,
// subtask progress, then members and priority.
func (b *Board) cardContentLines(t *task.Task, width int) []string {
	const cardChrome = 4 // border (2) + padding (2)
	cardWidth := max(width-cardChrome, 1)

	var lines []string

	catStyle, ok := categoryStyles[t.Category]
	if !ok {
		catStyle = dimStyle
	}
	lines = append(lines, catStyle.Render(truncate(categoryLabel(t.Category), cardWidth)))

	titleLines := 2
	bodyLines := 0
	if b.cfg != nil {
		titleLines = b.cfg.TitleLines()
		bodyLines = b.cfg.BodyLines()
	}
	lines = append(lines, wrapTitle(t.Title, cardWidth, titleLines)...)

	if bodyLines > 0 && t.Description != "" {
		for _, line := range wrapTitle(strings.Join(strings.Fields(t.Description), " "), cardWidth, bodyLines) {
			lines = append(lines, dimStyle.Render(line))
		}
	}

	if len(t.Subtasks) > 0 {
		lines = append(lines, progressBar(t.SubtasksProgress, len(t.Subtasks), cardWidth))
	}

	footer := memberInitials(t.Members)
	if glyph, ok := priorityGlyphs[t.Priority]; ok {
		gap := max(cardWidth-lipgloss.Width(footer)-lipgloss.Width(glyph), 1)
		footer += strings.Repeat(" ", gap) + glyph
	}
	lines = append(lines, footer)

	return lines
}

func categoryLabel(c task.Category) string {
	switch c {
	case task.CategoryUserStory:
		return "User Story"
	case task.CategoryTechnicalTask:
		return "Technical Task"
	}
	return string(c)
}

// progressBar renders "████░░ 2/3" sized to width.
func progressBar(done, total, width int) string {
	label := " " + strconv.Itoa(done) + "/" + strconv.Itoa(total)
	barW := width - len(label)
	if barW < 3 { //nolint:mnd // too narrow for a bar
		return dimStyle.Render(strings.TrimSpace(label))
	}
	filled := 0
	if total > 0 {
		filled = barW * done / total
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Render(strings.Repeat("█", filled)) +
		dimStyle.Render(strings.Repeat("░", barW-filled)+label)
}

// memberInitials renders each member's initials in their color.
func memberInitials(members []task.Member) string {
	parts := make([]string, 0, len(members))
	for _, m := range members {
		st := lipgloss.NewStyle().Bold(true)
		if m.Color != "" {
			st = st.Foreground(lipgloss.Color(m.Color))
		}
		parts = append(parts, st.Render(m.Initials()))
	}
	return strings.Join(parts, " ")
}

// wrapTitle splits a title across maxLines lines, word-wrapping at word
// boundaries. Each line is at most maxWidth characters.
func wrapTitle(title string, maxWidth, maxLines int) []string {
	if maxLines < 1 {
		maxLines = 1
	}
	if lipgloss.Width(title) <= maxWidth || maxLines == 1 {
		return []string{truncate(title, maxWidth)}
	}

	words := strings.Fields(title)
	lines := make([]string, 0, maxLines)
	var current strings.Builder

	for i, word := range words {
		if current.Len() == 0 {
			current.WriteString(word)
			continue
		}
		if lipgloss.Width(current.String())+1+lipgloss.Width(word) <= maxWidth {
			current.WriteByte(' ')
			current.WriteString(word)
		} else {
			lines = append(lines, truncate(current.String(), maxWidth))
			current.Reset()
			current.WriteString(word)
			if len(lines) == maxLines-1 {
				// Last line: append all remaining words.
				for _, w := range words[i+1:] {
					current.WriteByte(' ')
					current.WriteString(w)
				}
				break
			}
		}
	}
	if current.Len() > 0 {
		lines = append(lines, truncate(current.String(), maxWidth))
	}
	return lines
}

func (b *Board) renderStatusBar() string {
	name := "taskdeck"
	if b.cfg != nil {
		name = b.cfg.Board.Name
	}
	user := ""
	if b.username != "" {
		user = " | " + b.username
	}

	var hints string
	switch drag := b.drag.State(); {
	case drag.Phase != board.DragIdle:
		hints = fmt.Sprintf("moving #%d  ←/→:column enter:drop esc:cancel", drag.TaskID)
	case b.searching:
		hints = "enter:keep esc:clear"
	default:
		hints = "/:find m:move enter:open d:del r:reload q:quit"
	}

	status := fmt.Sprintf(" %s%s | %d tasks | %s", name, user, len(b.tasks), hints)
	if b.searching || b.search.Value() != "" {
		box := b.search.View()
		status = box + " " + truncate(status, b.width-lipgloss.Width(box)-1)
	} else {
		status = truncate(status, b.width)
	}

	if b.toast != "" {
		return errorStyle.Render(truncate(b.toast, b.width)) + "\n" + statusBarStyle.Render(status)
	}
	return statusBarStyle.Render(status)
}

func (b *Board) viewDeleteConfirm() string {
	content := errorStyle.Render("Delete task?") + "\n\n" +
		fmt.Sprintf("  #%d: %s", b.deleteID, b.deleteTitle) + "\n\n" +
		dimStyle.Render("y:yes  n:no")

	return dialogStyle.Render(content)
}

func truncate(s string, maxLen int) string {
	if maxLen < 4 { //nolint:mnd // minimum length for truncation
		maxLen = 4
	}
	if lipgloss.Width(s) <= maxLen {
		return s
	}
	// Slice by runes to avoid breaking multi-byte UTF-8 characters.
	runes := []rune(s)
	target := min(maxLen-3, len(runes)) //nolint:mnd // room for "..."
	for target > 0 && lipgloss.Width(string(runes[:target])) > maxLen-3 {
		target--
	}
	return string(runes[:target]) + "..."
}
