// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"taskctl/internal/service"
)

// FormatTask formats a task line for the list command.
// Format: "{N:>4}  [x] {PRIORITY:<6} {TITLE}\n"; the box is empty for pending tasks.
func FormatTask(w io.Writer, num int, task service.Task) {
	fmt.Fprintf(w, "%4d  [%s] %-6s %s\n", num, checkbox(task.Completed), task.Priority, normalizeTitle(task.Title))
}

// FormatTaskDetail formats a task with its description and id, used after
// create and edit.
func FormatTaskDetail(w io.Writer, task service.Task) {
	fmt.Fprintf(w, "[%s] %s  %s\n", checkbox(task.Completed), task.Priority, normalizeTitle(task.Title))
	if desc := strings.TrimSpace(task.Description); desc != "" {
		for _, line := range strings.Split(desc, "\n") {
			fmt.Fprintf(w, "      %s\n", strings.TrimRight(line, "\r"))
		}
	}
	fmt.Fprintf(w, "      id: %s\n", task.ID)
}

// FormatSession formats the whoami output. A zero expires omits the token line.
func FormatSession(w io.Writer, username, userID string, expires, now time.Time) {
	fmt.Fprintf(w, "%s (%s)\n", username, userID)
	switch {
	case expires.IsZero():
	case !expires.After(now):
		fmt.Fprintf(w, "token expired %s\n", expires.UTC().Format(time.RFC3339))
	default:
		fmt.Fprintf(w, "token expires %s\n", expires.UTC().Format(time.RFC3339))
	}
}

func checkbox(completed bool) string {
	if completed {
		return "x"
	}
	return " "
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
