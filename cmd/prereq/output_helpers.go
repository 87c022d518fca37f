package main

import (
	"encoding/json"
	"os"

	"golang.org/x/term"
)

const defaultOutputWidth = 80

func encodeJSONToStdout(value any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

// outputWidth returns the terminal width, or defaultOutputWidth when
// stdout is not a terminal.
func outputWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return defaultOutputWidth
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 {
		return defaultOutputWidth
	}
	return width
}
