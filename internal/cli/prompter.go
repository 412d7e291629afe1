package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	// ErrInputCancelled is returned when input is canceled by context.
	ErrInputCancelled = errors.New("input canceled")
	// ErrInputTerminated is returned when input ends before an answer.
	ErrInputTerminated = errors.New("input terminated")
)

// Prompter asks the user for values and confirmations on a terminal.
type Prompter struct {
	writer  io.Writer
	reader  *bufio.Reader
	readMu  sync.Mutex
	lineBuf chan lineResult
}

type lineResult struct {
	err   error
	value string
}

// NewPrompter creates a prompter with the given reader and writer.
func NewPrompter(reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}
	return &Prompter{
		reader: bufio.NewReader(reader),
		writer: writer,
	}
}

// readLine reads one trimmed line, returning early when ctx ends. A read
// abandoned by cancellation is handed to the next call.
func (p *Prompter) readLine(ctx context.Context) (string, error) {
	p.readMu.Lock()
	if p.lineBuf == nil {
		ch := make(chan lineResult, 1)
		p.lineBuf = ch
		go func() {
			value, err := p.reader.ReadString('\n')
			ch <- lineResult{value: value, err: err}
		}()
	}
	ch := p.lineBuf
	p.readMu.Unlock()

	select {
	case <-ctx.Done():
		return "", ErrInputCancelled
	case res := <-ch:
		p.readMu.Lock()
		p.lineBuf = nil
		p.readMu.Unlock()
		if res.err != nil {
			if errors.Is(res.err, io.EOF) && res.value != "" {
				return strings.TrimSpace(res.value), nil
			}
			if errors.Is(res.err, io.EOF) {
				return "", ErrInputTerminated
			}
			return "", res.err
		}
		return strings.TrimSpace(res.value), nil
	}
}

// Ask shows label with the current value and returns what the user typed.
// An empty answer keeps current.
func (p *Prompter) Ask(ctx context.Context, label, current string) (string, error) {
	prompt := label
	if current != "" {
		prompt = fmt.Sprintf("%s [%s]", label, current)
	}
	if _, err := fmt.Fprint(p.writer, FormatPrompt(prompt)); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}
	answer, err := p.readLine(ctx)
	if err != nil {
		return "", err
	}
	if answer == "" {
		return current, nil
	}
	return answer, nil
}

// Confirm asks a yes/no question, repeating until the answer is valid.
func (p *Prompter) Confirm(ctx context.Context, question string) (bool, error) {
	choice, err := p.promptChoice(ctx, question+" (y/n)", []string{"y", "yes", "n", "no"})
	if err != nil {
		return false, err
	}
	return choice == "y" || choice == "yes", nil
}

func (p *Prompter) promptChoice(ctx context.Context, prompt string, validChoices []string) (string, error) {
	for {
		if _, err := fmt.Fprint(p.writer, FormatPrompt(prompt)); err != nil {
			return "", fmt.Errorf("failed to write prompt: %w", err)
		}

		input, err := p.readLine(ctx)
		if err != nil {
			return "", err
		}

		choice := strings.ToLower(input)
		for _, valid := range validChoices {
			if choice == valid {
				return choice, nil
			}
		}

		if _, err := fmt.Fprintln(p.writer, FormatError("Invalid choice. Please try again.")); err != nil {
			slog.Warn("Failed to write error message", "error", err)
		}
	}
}
