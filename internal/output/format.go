// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"tasksync/internal/service"
)

const (
	// ListSeparator is the separator line for list sections.
	ListSeparator = "------------"

	// DateLayout is how due dates are printed.
	DateLayout = "Mon 2006-01-02"
)

// FormatTask formats a task line for the default list.
// Format: "{N:>4}  {TITLE}[  !P][  due DATE]\n"
func FormatTask(w io.Writer, num int, task service.Task) {
	fmt.Fprintf(w, "%4d  %s\n", num, describe(task))
}

// FormatTaskIndented formats a task line for a named list section.
// Format: "    {N:>4}  {TITLE}...\n"
func FormatTaskIndented(w io.Writer, num int, task service.Task) {
	fmt.Fprintf(w, "    %4d  %s\n", num, describe(task))
}

// FormatTaskWithLetter formats a task line in a lettered list section.
// The reference ("a3") is right-aligned to the width of an indented number.
func FormatTaskWithLetter(w io.Writer, letter rune, num int, task service.Task) {
	ref := fmt.Sprintf("%c%d", letter, num)
	fmt.Fprintf(w, "%8s  %s\n", ref, describe(task))
}

// FormatAgendaTask formats a task line of the today/week views.
// account is appended when non-empty.
func FormatAgendaTask(w io.Writer, num int, task service.Task, account string) {
	line := describe(task)
	if account != "" {
		line += "  <" + account + ">"
	}
	fmt.Fprintf(w, "%4d  %s\n", num, line)
}

// FormatListHeader formats a list section header.
func FormatListHeader(w io.Writer, title string, isDefault bool) {
	displayTitle := normalizeListTitle(title)
	if isDefault {
		displayTitle += " [default]"
	}
	fmt.Fprintln(w, ListSeparator)
	fmt.Fprintln(w, displayTitle)
	fmt.Fprintln(w, ListSeparator)
}

// FormatListName formats a list name for the lists command.
func FormatListName(w io.Writer, list service.TaskList) {
	title := normalizeListTitle(list.Title)
	if list.IsDefault {
		title += " [default]"
	}
	fmt.Fprintln(w, title)
}

// FormatAccount formats an account line for the accounts command.
func FormatAccount(w io.Writer, a service.Account, isDefault bool) {
	line := a.Email
	if a.Name != "" {
		line += " (" + a.Name + ")"
	}
	if isDefault {
		line += " [default]"
	}
	fmt.Fprintln(w, line)
}

// describe renders the title with its priority and due date.
func describe(task service.Task) string {
	parts := []string{normalizeTitle(task.Title)}
	if task.Priority >= service.HighestPriority && task.Priority < service.DefaultPriority {
		parts = append(parts, fmt.Sprintf("!%d", task.Priority))
	}
	if task.Due != nil {
		parts = append(parts, "due "+task.Due.Format(DateLayout))
	}
	return strings.Join(parts, "  ")
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

// normalizeListTitle normalizes a list title for display.
// Empty or whitespace-only titles become "(untitled)".
func normalizeListTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
