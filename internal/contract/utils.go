package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
)

// Color variables for console output.
var (
	UpColor     = color.New(color.FgGreen)           // UpColor marks increases.
	DownColor   = color.New(color.FgRed)             // DownColor marks decreases.
	HeaderColor = color.New(color.FgCyan, color.Bold) // HeaderColor marks page titles.
	ErrorColor  = color.New(color.FgYellow)           // ErrorColor marks inline fetch failures.
)

// ColorizeChange colors already formatted change text by the sign of the change.
func ColorizeChange(text string, change *float64) string {
	if change == nil {
		return text
	}
	switch {
	case *change > 0:
		return UpColor.Sprint(text)
	case *change < 0:
		return DownColor.Sprint(text)
	default:
		return text
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It falls back to os.Stdout when no path is given.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetCacheDBFilePath returns the path to the SQLite DB file for the series cache.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".statdash_cache.db"
	}
	return filepath.Join(homeDir, ".statdash_cache.db")
}

// GetRunsDBFilePath returns the path to the SQLite DB file for run history.
func GetRunsDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".statdash_runs.db"
	}
	return filepath.Join(homeDir, ".statdash_runs.db")
}

// TruncateLabel truncates a label to a maximum display width with an ellipsis suffix.
// Wide runes (CJK, emoji) count as two columns.
func TruncateLabel(label string, maxWidth int) string {
	if maxWidth <= 3 || runewidth.StringWidth(label) <= maxWidth {
		return label
	}
	return runewidth.Truncate(label, maxWidth, "...")
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
