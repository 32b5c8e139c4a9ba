package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sundholm/circad/internal/models"
)

type lightUpdateMessage struct {
	lights []models.Light
}

var baseStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.NormalBorder()).
	BorderForeground(lipgloss.Color("240"))

// CircadTUI is a live table of the managed lights and their targets.
type CircadTUI struct {
	teaProgram *tea.Program
}

func NewCircadTUI() CircadTUI {
	m := NewModel()
	p := tea.NewProgram(m, tea.WithAltScreen())
	return CircadTUI{p}
}

func (t CircadTUI) Run() error {
	_, err := t.teaProgram.Run()
	return err
}

func (t CircadTUI) Quit() {
	t.teaProgram.Quit()
}

func (t CircadTUI) RefreshLights(lights []models.Light) {
	if len(lights) > 0 {
		t.teaProgram.Send(lightUpdateMessage{lights: lights})
	}
}

type Model struct {
	table table.Model
}

func NewModel() *Model {
	columns := []table.Column{
		{Title: "Light", Width: 24},
		{Title: "On", Width: 5},
		{Title: "Override", Width: 8},
		{Title: "Excluded", Width: 8},
		{Title: "Brightness", Width: 10},
		{Title: "Kelvin", Width: 6},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return &Model{t}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := message.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}

	case lightUpdateMessage:
		rows := make([]table.Row, 0, len(msg.lights))
		for _, l := range msg.lights {
			brightness, kelvin := "", ""
			if l.LastCommanded != nil {
				brightness = fmt.Sprint(l.LastCommanded.BrightnessPct)
				kelvin = fmt.Sprint(l.LastCommanded.ColorTempK)
			}
			rows = append(rows, []string{
				l.Name,
				fmt.Sprint(l.On),
				fmt.Sprint(l.OverrideActive),
				fmt.Sprint(l.Excluded),
				brightness,
				kelvin,
			})
		}
		m.table.SetRows(rows)
		m.table.UpdateViewport()
		return m, nil
	}

	return m, nil
}

func (m Model) View() string {
	return baseStyle.Render(m.table.View()) + "\n"
}
