package chat

import (
	"errors"
	"os"
	"strings"

	"github.com/peterh/liner"
)

// LineReader supplies one line of user input per call. It returns io.EOF at
// end of input and ErrInterrupted when the user aborts the prompt.
type LineReader interface {
	ReadLine(prompt string) (string, error)
}

// LinerReader reads console input with line editing and in-memory history.
type LinerReader struct {
	line        *liner.State
	historyFile string
}

// NewLinerReader takes over the terminal. historyFile may be empty to keep
// history in memory only. Call Close to restore the terminal.
func NewLinerReader(historyFile string) *LinerReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	r := &LinerReader{line: line, historyFile: historyFile}
	if historyFile != "" {
		if f, err := os.Open(historyFile); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
	}
	return r
}

// ReadLine shows prompt and returns the entered line.
func (r *LinerReader) ReadLine(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", ErrInterrupted
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history (when a file was given) and restores the terminal.
func (r *LinerReader) Close() error {
	if r.historyFile != "" {
		if f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			r.line.WriteHistory(f)
			f.Close()
		}
	}
	return r.line.Close()
}
