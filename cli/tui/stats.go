package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pithecene-io/couchpart/cli/reader"
)

// StatsModel is a Bubble Tea model for frame stream stats.
type StatsModel struct {
	viewType string
	data     any
	help     help.Model
	width    int
	height   int
	quitting bool
}

// NewStatsModel creates a new stats model.
func NewStatsModel(viewType string, data any) StatsModel {
	return StatsModel{
		viewType: viewType,
		data:     data,
		help:     help.New(),
	}
}

// Init implements tea.Model.
func (m StatsModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m StatsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m StatsModel) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.viewType {
	case ViewStatsFrames:
		content = m.renderFrames()
	default:
		content = fmt.Sprintf("Unknown view type: %s", m.viewType)
	}

	return content + "\n" + HelpStyle.Render(m.help.ShortHelpView([]key.Binding{keys.Quit}))
}

func (m StatsModel) renderFrames() string {
	data, ok := m.data.(*reader.FrameStats)
	if !ok {
		return "Invalid data type for " + ViewStatsFrames
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Frame Stream"))
	b.WriteString("\n\n")

	incomplete := successColor
	if data.Incomplete > 0 {
		incomplete = errorColor
	}

	top := []string{
		m.renderStatBox("Frames", int64(data.Frames), highlightColor),
		m.renderStatBox("Documents", int64(data.Documents), primaryColor),
		m.renderStatBox("Attachments", int64(data.Attachments), primaryColor),
	}
	bottom := []string{
		m.renderStatBox("Chunks", data.Chunks, highlightColor),
		m.renderStatBox("Bytes", data.Bytes, warningColor),
		m.renderStatBox("Incomplete", int64(data.Incomplete), incomplete),
	}

	b.WriteString(lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, top...),
		lipgloss.JoinHorizontal(lipgloss.Top, bottom...),
	))

	return b.String()
}

func (m StatsModel) renderStatBox(label string, value int64, color lipgloss.Color) string {
	boxStyle := StatBoxStyle.BorderForeground(color)

	valueStr := StatValueStyle.Foreground(color).Render(fmt.Sprintf("%d", value))
	labelStr := StatLabelStyle.Render(label)

	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Center, valueStr, labelStr))
}

// RenderStatsStatic renders stats data without running a program.
func RenderStatsStatic(viewType string, data any) string {
	model := NewStatsModel(viewType, data)
	model.width = 80
	model.height = 24
	return lipgloss.NewStyle().Padding(1, 2).Render(model.View())
}
