package tui

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/Veraticus/pennywise/internal/model"
	"github.com/Veraticus/pennywise/internal/tui/themes"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPending(predicted string) model.PendingCategorization {
	return model.PendingCategorization{
		Description: "concert tickets",
		Predicted:   predicted,
		Confidence:  0.45,
		Categories:  model.Categories(),
	}
}

func press(t *testing.T, m Model, keys ...tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(k)
		var ok bool
		m, ok = next.(Model)
		require.True(t, ok)
	}
	return m, cmd
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestModel_CursorStartsOnPrediction(t *testing.T) {
	m := newModel(testPending("Music"), themes.Default)
	assert.Equal(t, 2, m.cursor)

	m = newModel(testPending("Groceries"), themes.Default)
	assert.Equal(t, 0, m.cursor)
}

func TestModel_Navigation(t *testing.T) {
	m := newModel(testPending("Food"), themes.Default)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, m.cursor, "cursor stays at the top")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown}, runeKey('j'), runeKey('j'))
	assert.Equal(t, 3, m.cursor)

	m, _ = press(t, m, runeKey('G'))
	assert.Equal(t, 5, m.cursor)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 5, m.cursor, "cursor stays at the bottom")

	m, _ = press(t, m, runeKey('g'), runeKey('k'))
	assert.Equal(t, 0, m.cursor)
}

func TestModel_EnterChoosesCursor(t *testing.T) {
	m := newModel(testPending("Food"), themes.Default)

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, 2, m.Choice())
	assert.False(t, m.Cancelled())
}

func TestModel_DigitChoosesDirectly(t *testing.T) {
	m := newModel(testPending("Food"), themes.Default)

	m, _ = press(t, m, runeKey('9'))
	assert.Zero(t, m.Choice(), "out of range digits are ignored")

	m, _ = press(t, m, runeKey('5'))
	assert.Equal(t, 5, m.Choice())
}

func TestModel_Quit(t *testing.T) {
	m := newModel(testPending("Food"), themes.Default)

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.True(t, m.Cancelled())
	assert.Zero(t, m.Choice())
}

func TestModel_View(t *testing.T) {
	m := newModel(testPending("Music"), themes.Default)
	view := m.View()

	assert.Contains(t, view, "concert tickets")
	assert.Contains(t, view, "AI guessed Music")
	assert.Contains(t, view, "45%")
	for i, name := range model.CategoryNames() {
		assert.Contains(t, view, name, "category %d", i+1)
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Empty(t, m.View())
}

func TestPrompter_ChooseCategory(t *testing.T) {
	var out bytes.Buffer
	p := New(WithIO(strings.NewReader("4"), &out))

	choice, err := p.ChooseCategory(context.Background(), testPending("Food"))
	require.NoError(t, err)
	assert.Equal(t, 4, choice)
}

func TestPrompter_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(WithIO(strings.NewReader(""), &bytes.Buffer{})).ChooseCategory(ctx, testPending("Food"))
	assert.ErrorIs(t, err, context.Canceled)
}
