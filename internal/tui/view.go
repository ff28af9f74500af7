package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/tuimath/internal/model"
	"github.com/verte-zerg/tuimath/internal/report"
	"github.com/verte-zerg/tuimath/internal/session"
	"github.com/verte-zerg/tuimath/internal/typeset"
)

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	textStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	focusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	correctStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#7FBF7F"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	questionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 2).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	buttonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#B0B0B0")).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	activeButtonStyle = buttonStyle.
				Foreground(lipgloss.Color("#F0F0F0")).
				BorderForeground(lipgloss.Color("#C89A3A"))
	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#FF4D4F")).
			Padding(1, 2)
)

// View implements tea.Model.
func (m *Model) View() string {
	var content, footer string
	switch {
	case m.alert != "":
		content = modalStyle.Render(joinLines(errorStyle.Render(m.alert), "", mutedStyle.Render("Press enter to dismiss")))
	case m.state.Phase == session.Idle:
		content = m.setupView()
		footer = "↑/↓ move · space toggle · ←/→ difficulty · s start · q quit"
	case m.state.Phase == session.CountingDown && m.state.Ready():
		content = mutedStyle.Render("Loading renderer...")
	case m.state.Phase == session.CountingDown:
		content = titleStyle.Render(countdownText(m.state.Countdown))
	case m.state.Phase == session.Active:
		content = m.exerciseView()
		footer = "enter submit · tab focus submit · click submit · ctrl+c quit"
	case m.state.Phase == session.Ended:
		content = m.reportView()
		footer = "↑/↓ scroll · r restart · q quit"
	}
	return m.zones.Scan(m.place(content, footer))
}

func (m *Model) place(content, footer string) string {
	if footer != "" {
		footer = footerStyle.Render(footer)
	}
	if m.width == 0 || m.height == 0 {
		if footer == "" {
			return content
		}
		return content + "\n\n" + footer
	}
	if footer == "" || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) setupView() string {
	lines := []string{titleStyle.Render("Arithmetic practice"), "", textStyle.Render("Exercise types")}
	for i, op := range model.Operations {
		lines = append(lines, m.focusLine(i, fmt.Sprintf("%s %s", checkbox(m.checked[op]), op.Label())))
	}
	d := model.Difficulties[m.difficulty]
	lines = append(lines, "", m.focusLine(len(model.Operations),
		fmt.Sprintf("Difficulty: < %s (%s) >", d, model.RangeFor(d))))

	button := buttonStyle
	if m.focus == len(model.Operations)+1 {
		button = activeButtonStyle
	}
	lines = append(lines, "", button.Render("Start"))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m *Model) focusLine(row int, text string) string {
	if m.focus == row {
		return focusStyle.Render("> " + text)
	}
	return textStyle.Render("  " + text)
}

func (m *Model) exerciseView() string {
	readout := mutedStyle.Render(timerReadout(m.state.Remaining))
	question := questionStyle.Width(questionWidth(m.question) + 4).Align(lipgloss.Center).Render(m.question)

	button := buttonStyle
	if m.submitFocused {
		button = activeButtonStyle
	}
	input := lipgloss.JoinHorizontal(lipgloss.Center, m.answer.View(), "  ", m.zones.Mark(submitZone, button.Render("Submit")))

	score := mutedStyle.Render(fmt.Sprintf("%d/%d correct", m.state.Record.Correct, m.state.Record.Total()))
	return lipgloss.JoinVertical(lipgloss.Center, readout, "", question, "", input, "", score)
}

func (m *Model) reportView() string {
	summaryStyle := correctStyle
	if m.state.Record.Correct < m.state.Record.Total() {
		summaryStyle = textStyle
	}
	lines := []string{
		titleStyle.Render("Session Ended"),
		summaryStyle.Render(session.Summary(m.state.Record)),
	}
	if m.state.Record.Total() > 0 {
		lines = append(lines, "", m.results.View())
	}
	return lipgloss.JoinVertical(lipgloss.Center, lines...)
}

func buildResultsTable(rec session.Record, r typeset.Renderer, height int) table.Model {
	headers := []string{"#", "Exercise", "Answer", "Outcome"}
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	rows := make([]table.Row, 0, rec.Total())
	for _, row := range report.Rows(rec, r) {
		cells := []string{fmt.Sprintf("%d", row.Index), row.Question, row.Answer, row.Outcome}
		for i, cell := range cells {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
		rows = append(rows, table.Row(cells))
	}
	columns := make([]table.Column, len(headers))
	for i, h := range headers {
		columns[i] = table.Column{Title: h, Width: widths[i]}
	}

	visible := len(rows) + 1
	if limit := height - 10; height > 0 && visible > limit {
		visible = limit
	}
	if visible < 2 {
		visible = 2
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(visible),
		table.WithFocused(true),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.Foreground(lipgloss.Color("#F0F0F0")).Background(lipgloss.Color("#3A3A3A"))
	t.SetStyles(styles)
	return t
}

func questionWidth(question string) int {
	width := runewidth.StringWidth(question)
	if width < 12 {
		width = 12
	}
	return width
}
