package output

import (
	"errors"
	"os"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// ErrPickCanceled is returned by Pick when the user aborts the picker
// (q/esc/ctrl+c) instead of choosing an option.
var ErrPickCanceled = errors.New("output: selection canceled")

// PickOption is one entry the arrow-key picker offers.
type PickOption struct {
	ID          string
	Title       string
	Description string
}

func (o PickOption) FilterValue() string { return o.Title + " " + o.ID }

type pickerModel struct {
	list     list.Model
	selected PickOption
	quitting bool
	canceled bool
}

func (m pickerModel) Init() tea.Cmd { return nil }

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			if item, ok := m.list.SelectedItem().(pickOption); ok {
				m.selected = PickOption{ID: item.id, Title: item.title, Description: item.description}
				m.quitting = true
				return m, tea.Quit
			}
		case "q", "esc", "ctrl+c":
			m.canceled = true
			m.quitting = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height - 2)
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m pickerModel) View() string {
	if m.quitting {
		return ""
	}
	return m.list.View()
}

// pickOption is list.Item's concrete implementation. It can't simply be
// PickOption itself: list.Item requires Title()/Description() methods,
// which would collide with PickOption's exported Title/Description fields.
type pickOption struct {
	id, title, description string
}

func (o pickOption) Title() string       { return o.title }
func (o pickOption) Description() string { return o.description }
func (o pickOption) FilterValue() string { return o.title + " " + o.id }

// IsInteractive reports whether stdin is an interactive terminal the
// picker can run against, per spec.md's Non-goals carve-out for this one
// widget.
func IsInteractive() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Pick runs the arrow-key picker over options and returns the selection.
// Callers must check IsInteractive first; Pick does not gate itself so it
// stays testable under a fake tty.
func Pick(options []PickOption, title string) (PickOption, error) {
	items := make([]list.Item, len(options))
	for i, o := range options {
		items[i] = pickOption{id: o.ID, title: o.Title, description: o.Description}
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(lipgloss.Color("39")).
		Foreground(lipgloss.Color("39")).
		Padding(0, 0, 0, 1)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedTitle.Foreground(lipgloss.Color("241"))

	l := list.New(items, delegate, 0, 0)
	l.Title = title
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = lipgloss.NewStyle().
		Background(lipgloss.Color("39")).
		Foreground(lipgloss.Color("0")).
		Padding(0, 1)

	m := pickerModel{list: l}
	p := tea.NewProgram(m, tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return PickOption{}, err
	}

	result := finalModel.(pickerModel)
	if result.canceled {
		return PickOption{}, ErrPickCanceled
	}
	return result.selected, nil
}
