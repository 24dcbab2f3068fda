// Package narration reads interviewer replies aloud.
package narration

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// Narrator speaks a reply. Callers treat failures as non-fatal.
type Narrator interface {
	Narrate(ctx context.Context, text string) error
}

// Nop discards everything.
type Nop struct{}

func (Nop) Narrate(context.Context, string) error { return nil }

// Command runs a text-to-speech program with the text as its last argument, e.g. ["espeak", "-s", "150"].
type Command struct {
	name string
	args []string
}

func NewCommand(argv []string) (*Command, error) {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return nil, errors.New("narration command is empty")
	}

	return &Command{name: argv[0], args: append([]string(nil), argv[1:]...)}, nil
}

func (c *Command) Narrate(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTimeout)
		defer cancel()
	}

	args := append(append([]string(nil), c.args...), text)
	out, err := exec.CommandContext(ctx, c.name, args...).CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("narration command %s failed (exit code %d): %s", c.name, exitErr.ExitCode(), strings.TrimSpace(string(out)))
		}
		return fmt.Errorf("narration command %s: %w", c.name, err)
	}

	return nil
}
