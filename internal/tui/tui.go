package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/ContractForgeEVM/contractforge/internal/model"
)

type modelT struct {
	report model.Report
	cursor int
	width  int
}

func initialModel(rep model.Report) modelT { return modelT{report: rep, width: 100} }

func (m modelT) Init() tea.Cmd { return nil }

func (m modelT) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.report.Issues)-1 {
				m.cursor++
			}
		}
	}
	return m, nil
}

func (m modelT) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	s := model.Summarize(m.report.Issues)
	var b strings.Builder
	header := fmt.Sprintf("%s: %d issues (critical %d, high %d, medium %d, low %d)",
		m.report.ContractName, s.Total, s.Critical, s.High, s.Medium, s.Low)
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n")
	if m.report.Error != "" {
		b.WriteString(styleSeverity(model.SeverityCritical).Render("error: " + m.report.Error))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	titleWidth := m.width - 24
	if titleWidth < 20 {
		titleWidth = 20
	}
	for i, f := range m.report.Issues {
		marker := "  "
		if i == m.cursor {
			marker = "> "
		}
		sev := styleSeverity(f.Severity).Render(fmt.Sprintf("%-8s", f.Severity))
		fmt.Fprintf(&b, "%s%s %5d  %s\n", marker, sev, f.Line, truncate(f.Title, titleWidth))
	}
	if f, ok := m.selected(); ok {
		b.WriteString("\n")
		fmt.Fprintf(&b, "%s  [%s] %s\n", f.ID, f.Category, f.Tool)
		fmt.Fprintf(&b, "%s\n", f.Description)
		fmt.Fprintf(&b, "Recommendation: %s\nImpact: %s\n", f.Recommendation, f.Impact)
	}
	b.WriteString("\nup/down to move, q to quit\n")
	return b.String()
}

func (m modelT) selected() (model.Finding, bool) {
	if m.cursor < 0 || m.cursor >= len(m.report.Issues) {
		return model.Finding{}, false
	}
	return m.report.Issues[m.cursor], true
}

func styleSeverity(s model.Severity) lipgloss.Style {
	switch s {
	case model.SeverityCritical:
		return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	case model.SeverityHigh:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case model.SeverityMedium:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	}
}

func truncate(value string, width int) string {
	if runewidth.StringWidth(value) <= width {
		return value
	}
	return runewidth.Truncate(value, width, "...")
}

// Run opens an interactive list of the report's findings.
func Run(rep model.Report) error {
	p := tea.NewProgram(initialModel(rep))
	_, err := p.Run()
	return err
}
