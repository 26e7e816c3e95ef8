package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Veraticus/pennywise/internal/engine"
	"github.com/Veraticus/pennywise/internal/model"
)

// Prompter asks for category choices and other input on a line-oriented terminal.
type Prompter struct {
	writer io.Writer
	reader *NonBlockingReader
}

// NewCLIPrompter creates a new CLI prompter with the given reader and writer.
func NewCLIPrompter(reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}

	return &Prompter{
		reader: NewNonBlockingReader(reader),
		writer: writer,
	}
}

// ChooseCategory prints the numbered category menu and reads one choice.
// Malformed or out-of-range input returns engine.ErrInvalidSelection so the
// caller can ask again.
func (p *Prompter) ChooseCategory(ctx context.Context, pending model.PendingCategorization) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var b strings.Builder
	b.WriteString(FormatWarning(fmt.Sprintf("AI unsure (confidence: %.2f). Please select category:", pending.Confidence)))
	b.WriteString("\n")
	for i, category := range pending.Categories {
		fmt.Fprintf(&b, "%d. %s\n", i+1, category)
	}
	b.WriteString(FormatPrompt("Enter choice"))

	if _, err := fmt.Fprint(p.writer, b.String()); err != nil {
		return 0, fmt.Errorf("failed to write category menu: %w", err)
	}

	line, err := p.readLine(ctx)
	if err != nil {
		return 0, err
	}

	choice, err := strconv.Atoi(line)
	if err != nil {
		p.printError(fmt.Sprintf("%q is not a number", line))
		return 0, fmt.Errorf("%w: %q", engine.ErrInvalidSelection, line)
	}
	if choice < 1 || choice > len(pending.Categories) {
		p.printError(fmt.Sprintf("Choose a number between 1 and %d", len(pending.Categories)))
		return 0, fmt.Errorf("%w: %d", engine.ErrInvalidSelection, choice)
	}
	return choice, nil
}

// Ask prints label and returns the trimmed answer.
func (p *Prompter) Ask(ctx context.Context, label string) (string, error) {
	if _, err := fmt.Fprint(p.writer, FormatPrompt(label)); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}
	return p.readLine(ctx)
}

// Confirm asks a yes/no question; anything but y or yes is no.
func (p *Prompter) Confirm(ctx context.Context, question string) (bool, error) {
	answer, err := p.Ask(ctx, question+" [y/N]")
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}

func (p *Prompter) readLine(ctx context.Context) (string, error) {
	line, err := p.reader.ReadLine(ctx)
	if errors.Is(err, ErrInputCancelled) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
	}
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return line, nil
}

func (p *Prompter) printError(message string) {
	_, _ = fmt.Fprintln(p.writer, FormatError(message))
}
