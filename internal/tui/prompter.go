package tui

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Veraticus/pennywise/internal/engine"
	"github.com/Veraticus/pennywise/internal/model"
	"github.com/Veraticus/pennywise/internal/tui/themes"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrSelectionCancelled is returned when the picker is closed without a choice.
var ErrSelectionCancelled = errors.New("category selection canceled")

// Prompter implements engine.Chooser with a full-screen picker.
type Prompter struct {
	input  io.Reader
	output io.Writer
	theme  themes.Theme
	opts   []tea.ProgramOption
}

// Ensure we implement the interface.
var _ engine.Chooser = (*Prompter)(nil)

// Option is a functional option for configuring the TUI.
type Option func(*Prompter)

// WithTheme selects the color theme.
func WithTheme(theme themes.Theme) Option {
	return func(p *Prompter) { p.theme = theme }
}

// WithIO replaces the terminal with the given reader and writer.
func WithIO(input io.Reader, output io.Writer) Option {
	return func(p *Prompter) {
		p.input = input
		p.output = output
	}
}

// WithAltScreen runs the picker in the alternate screen buffer.
func WithAltScreen() Option {
	return func(p *Prompter) { p.opts = append(p.opts, tea.WithAltScreen()) }
}

// New creates a TUI prompter that can replace the CLI prompter.
func New(opts ...Option) *Prompter {
	p := &Prompter{theme: themes.Default}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ChooseCategory runs the picker and returns the 1-indexed choice.
func (p *Prompter) ChooseCategory(ctx context.Context, pending model.PendingCategorization) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	options := append([]tea.ProgramOption{tea.WithContext(ctx)}, p.opts...)
	if p.input != nil {
		options = append(options, tea.WithInput(p.input))
	}
	if p.output != nil {
		options = append(options, tea.WithOutput(p.output))
	}

	final, err := tea.NewProgram(newModel(pending, p.theme), options...).Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		return 0, fmt.Errorf("failed to run TUI: %w", err)
	}

	picked, ok := final.(Model)
	if !ok {
		return 0, fmt.Errorf("unexpected TUI model %T", final)
	}
	if picked.Cancelled() || picked.Choice() == 0 {
		return 0, ErrSelectionCancelled
	}
	return picked.Choice(), nil
}
