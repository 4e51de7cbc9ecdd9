package cli

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/emberhost/emberview/internal/domain/entity"
)

type pickerItem struct {
	cfg entity.AppConfig
}

func (i pickerItem) Title() string       { return i.cfg.DisplayName() }
func (i pickerItem) Description() string { return i.cfg.URL }
func (i pickerItem) FilterValue() string { return i.cfg.ID + " " + i.cfg.Name }

type pickerModel struct {
	list   list.Model
	choice string
}

func newPickerModel(apps []entity.AppConfig) pickerModel {
	items := make([]list.Item, 0, len(apps))
	for _, ac := range apps {
		items = append(items, pickerItem{cfg: ac})
	}

	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Choose an app"
	l.SetShowStatusBar(false)
	l.Styles.Title = theme.Title

	return pickerModel{list: l}
}

func (m pickerModel) Init() tea.Cmd { return nil }

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h, v := lipgloss.NewStyle().Margin(1, 2).GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v)
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "enter":
			if item, ok := m.list.SelectedItem().(pickerItem); ok {
				m.choice = item.cfg.ID
			}
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m pickerModel) View() string {
	return lipgloss.NewStyle().Margin(1, 2).Render(m.list.View())
}

// pickApp shows an interactive app picker. An empty id means the user
// cancelled.
func pickApp(apps []entity.AppConfig) (string, error) {
	final, err := tea.NewProgram(newPickerModel(apps), tea.WithAltScreen()).Run()
	if err != nil {
		return "", fmt.Errorf("app picker: %w", err)
	}
	m, ok := final.(pickerModel)
	if !ok {
		return "", nil
	}
	return m.choice, nil
}
