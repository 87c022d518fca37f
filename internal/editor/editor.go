// Package editor opens item and tag-setup templates in the user's editor.
package editor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/term"
)

// IsInteractive reports whether stdin is a terminal.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// editorArgv splits $VISUAL or $EDITOR into a program and its arguments.
// It falls back to vi.
func editorArgv() []string {
	for _, key := range []string{"VISUAL", "EDITOR"} {
		if argv := strings.Fields(os.Getenv(key)); len(argv) > 0 {
			return argv
		}
	}
	return []string{"vi"}
}

// EditText saves text to a temporary file named after pattern, lets the
// user change it in their editor and returns the saved result.
func EditText(ctx context.Context, pattern, text string) (string, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	_, err = f.WriteString(text)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", fmt.Errorf("write temp file: %w", err)
	}

	argv := editorArgv()
	cmd := exec.CommandContext(ctx, argv[0], append(argv[1:], path)...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("%s exited with status %d", argv[0], exitErr.ExitCode())
		}
		return "", fmt.Errorf("run editor: %w", err)
	}

	saved, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read edited file: %w", err)
	}
	return string(saved), nil
}
