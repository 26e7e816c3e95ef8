// Package tui provides an arrow-key category picker built on bubbletea.
package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Veraticus/pennywise/internal/model"
	"github.com/Veraticus/pennywise/internal/tui/themes"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Model is the picker state for one pending categorization.
type Model struct {
	theme    themes.Theme
	keymap   KeyMap
	help     help.Model
	pending  model.PendingCategorization
	cursor   int
	choice   int
	width    int
	quitting bool
}

// newModel creates a picker with the cursor on the predicted label when it is
// in the list.
func newModel(pending model.PendingCategorization, theme themes.Theme) Model {
	m := Model{
		theme:   theme,
		keymap:  DefaultKeyMap(),
		help:    help.New(),
		pending: pending,
	}
	for i, c := range pending.Categories {
		if string(c) == pending.Predicted {
			m.cursor = i
			break
		}
	}
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles key presses and window resizes.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keymap.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keymap.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keymap.Down):
			if m.cursor < len(m.pending.Categories)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keymap.Home):
			m.cursor = 0
		case key.Matches(msg, m.keymap.End):
			m.cursor = len(m.pending.Categories) - 1
		case key.Matches(msg, m.keymap.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keymap.Select):
			m.choice = m.cursor + 1
			return m, tea.Quit
		default:
			// Digits jump straight to a 1-indexed choice
			if n, err := strconv.Atoi(msg.String()); err == nil && n >= 1 && n <= len(m.pending.Categories) {
				m.cursor = n - 1
				m.choice = n
				return m, tea.Quit
			}
		}
	}
	return m, nil
}

// View renders the picker.
func (m Model) View() string {
	if m.choice > 0 || m.quitting {
		return ""
	}

	header := lipgloss.JoinVertical(lipgloss.Left,
		m.theme.Title.Render("Choose a category"),
		m.theme.Normal.Render(m.pending.Description),
		m.theme.Subtitle.Render(fmt.Sprintf("AI guessed %s with %s confidence",
			m.pending.Predicted, m.renderConfidence())),
	)

	lines := make([]string, 0, len(m.pending.Categories))
	for i, c := range m.pending.Categories {
		prefix := "  "
		if i == m.cursor {
			prefix = lipgloss.NewStyle().Foreground(m.theme.Primary).Render("> ")
		}
		line := fmt.Sprintf("%s%d. %s %s", prefix, i+1,
			m.theme.CategoryIcon.Render(themes.GetCategoryIcon(string(c))), c)
		if i == m.cursor {
			line = m.theme.Selected.Render(line)
		}
		lines = append(lines, line)
	}

	return m.theme.RoundedBox.Render(lipgloss.JoinVertical(lipgloss.Left,
		header,
		"",
		strings.Join(lines, "\n"),
		"",
		m.help.View(m.keymap),
	)) + "\n"
}

func (m Model) renderConfidence() string {
	percent := m.pending.Confidence * 100
	text := fmt.Sprintf("%.0f%%", percent)
	switch {
	case percent >= 50:
		return m.theme.StatusWarning.Render(text)
	default:
		return m.theme.StatusError.Render(text)
	}
}

// Choice returns the 1-indexed selection, or 0 when nothing was chosen.
func (m Model) Choice() int {
	return m.choice
}

// Cancelled reports whether the user quit without choosing.
func (m Model) Cancelled() bool {
	return m.quitting
}
