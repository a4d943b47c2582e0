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

// InspectModel is a Bubble Tea model for the document inspect view.
type InspectModel struct {
	viewType string
	data     any
	selected int
	help     help.Model
	width    int
	height   int
	quitting bool
}

// NewInspectModel creates a new inspect model.
func NewInspectModel(viewType string, data any) InspectModel {
	return InspectModel{
		viewType: viewType,
		data:     data,
		help:     help.New(),
	}
}

// Init implements tea.Model.
func (m InspectModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m InspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, keys.Up):
			if m.selected > 0 {
				m.selected--
			}
		case key.Matches(msg, keys.Down):
			if m.selected < m.attachmentCount()-1 {
				m.selected++
			}
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m InspectModel) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.viewType {
	case ViewInspectDocument:
		content = m.renderDocument()
	default:
		content = fmt.Sprintf("Unknown view type: %s", m.viewType)
	}

	return content + "\n" + HelpStyle.Render(m.help.View(keys))
}

// Selected returns the index of the highlighted attachment row.
func (m InspectModel) Selected() int {
	return m.selected
}

func (m InspectModel) attachmentCount() int {
	if data, ok := m.data.(*reader.InspectResponse); ok {
		return len(data.Attachments)
	}
	return 0
}

func (m InspectModel) renderDocument() string {
	data, ok := m.data.(*reader.InspectResponse)
	if !ok {
		return "Invalid data type for " + ViewInspectDocument
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Document"))
	b.WriteString("\n\n")

	declared := len(data.Attachments) + len(data.Pending)
	rows := [][]string{
		{"Source", data.Source},
		{"Doc ID", data.DocID},
		{"Revision", data.Rev},
		{"Body", fmt.Sprintf("%d bytes", data.BodyBytes)},
		{"Multipart", fmt.Sprintf("%t", data.Multipart)},
		{"Total", fmt.Sprintf("%d bytes", data.TotalBytes)},
	}
	for _, row := range rows {
		fmt.Fprintf(&b, "%s %s\n", LabelStyle.Render(row[0]+":"), ValueStyle.Render(row[1]))
	}
	fmt.Fprintf(&b, "%s %s\n",
		LabelStyle.Render("Attachments:"),
		CompletenessStyle(len(data.Attachments), declared).Render(
			fmt.Sprintf("%d of %d", len(data.Attachments), declared)))

	if len(data.Attachments) > 0 {
		b.WriteString("\n")
		b.WriteString(TitleStyle.Render("Parts"))
		b.WriteString("\n")
		for i, att := range data.Attachments {
			line := fmt.Sprintf("%2d  %-32s %-28s %10d", att.Index, att.Name, att.ContentType, att.Bytes)
			if i == m.selected {
				b.WriteString(SelectedStyle.Render("> " + line))
			} else {
				b.WriteString(ValueStyle.Render("  " + line))
			}
			b.WriteString("\n")
		}
	}

	if len(data.Pending) > 0 {
		b.WriteString("\n")
		b.WriteString(WarningStyle.Render("Missing parts:"))
		b.WriteString("\n")
		for _, name := range data.Pending {
			fmt.Fprintf(&b, "  • %s\n", ErrorStyle.Render(name))
		}
	}

	return BoxStyle.Render(b.String())
}

// RenderInspectStatic renders inspect data without running a program.
func RenderInspectStatic(viewType string, data any) string {
	model := NewInspectModel(viewType, data)
	model.width = 80
	model.height = 24
	return lipgloss.NewStyle().Padding(1, 2).Render(model.View())
}
