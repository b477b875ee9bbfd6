// Package ui provides styled terminal output for the portgen CLI.
// It uses the Charm.sh ecosystem for modern TUI styling with
// automatic fallback to plain text for non-TTY environments.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// UI holds the terminal state and provides styled output methods.
type UI struct {
	IsTTY   bool
	Width   int
	NoColor bool

	out io.Writer
}

// KV represents a key-value pair for summary displays.
type KV struct {
	Key   string
	Value string
}

// New creates a new UI on stdout with TTY detection. NO_COLOR disables styling.
func New() *UI {
	u := &UI{
		IsTTY:   term.IsTerminal(int(os.Stdout.Fd())),
		Width:   80,
		NoColor: os.Getenv("NO_COLOR") != "",
		out:     os.Stdout,
	}
	if u.IsTTY {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
			u.Width = w
		}
	}
	return u
}

// NewPlain creates a UI that writes unstyled text to w.
func NewPlain(w io.Writer) *UI {
	return &UI{Width: 80, NoColor: true, out: w}
}

// SetNoColor disables colors and animations.
func (u *UI) SetNoColor(noColor bool) {
	u.NoColor = noColor
}

func (u *UI) shouldStyle() bool {
	return u.IsTTY && !u.NoColor
}

// Println prints msg on its own line.
func (u *UI) Println(msg string) {
	fmt.Fprintln(u.out, msg)
}

// Header renders the title of a command run.
func (u *UI) Header(title string) string {
	if !u.shouldStyle() {
		return "=== " + title + " ==="
	}
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorPrimary).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorPrimary).
		Padding(0, 2).
		Render(title)
}

// KeyValue renders one run setting, such as the seed or the as-of date.
func (u *UI) KeyValue(key, value string) string {
	if !u.shouldStyle() {
		return fmt.Sprintf("%-13s %s", key+":", value)
	}
	keyStyle := lipgloss.NewStyle().Foreground(ColorMuted).Width(14)
	return "  " + keyStyle.Render(key) + " " + lipgloss.NewStyle().Bold(true).Render(value)
}

// message renders msg with a symbol when styled and a bracketed tag when plain.
func (u *UI) message(style lipgloss.Style, symbol, tag, msg string, styleText bool) string {
	switch {
	case !u.shouldStyle():
		return "[" + tag + "] " + msg
	case styleText:
		return style.Render(symbol + " " + msg)
	default:
		return style.Render(symbol+" ") + msg
	}
}

// Success renders a success message with a green checkmark.
func (u *UI) Success(msg string) string {
	return u.message(StyleSuccess, SymbolSuccess, "OK", msg, false)
}

// Error renders an error message with a red X.
func (u *UI) Error(msg string) string {
	return u.message(StyleError, SymbolError, "FAILED", msg, true)
}

// Warning renders a warning message.
func (u *UI) Warning(msg string) string {
	return u.message(StyleWarning, SymbolWarning, "WARN", msg, true)
}

// Muted renders secondary text.
func (u *UI) Muted(msg string) string {
	if !u.shouldStyle() {
		return msg
	}
	return StyleMuted.Render(msg)
}

// SummaryBox renders the closing summary of a command. A "Status" value is
// shown as passed or failed, and loan status names take their status color.
func (u *UI) SummaryBox(title string, items []KV) string {
	if !u.shouldStyle() {
		var sb strings.Builder
		fmt.Fprintf(&sb, "\n=== %s ===\n", title)
		for _, item := range items {
			fmt.Fprintf(&sb, "%-16s %s\n", item.Key+":", item.Value)
		}
		return sb.String()
	}

	keyWidth := 0
	for _, item := range items {
		keyWidth = max(keyWidth, len(item.Key))
	}
	keyStyle := lipgloss.NewStyle().Foreground(ColorMuted).Width(keyWidth + 2)

	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "  " + keyStyle.Render(item.Key) + " " + summaryValue(item)
	}

	title = lipgloss.NewStyle().Bold(true).Foreground(ColorSuccess).Render("  " + title)
	box := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorSuccess).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
	return "\n" + title + "\n" + box
}

func summaryValue(item KV) string {
	if style, ok := loanStatusStyles[item.Value]; ok {
		return style.Bold(true).Render(item.Value)
	}
	if item.Key == "Status" {
		lower := strings.ToLower(item.Value)
		switch {
		case strings.Contains(lower, "success"), strings.Contains(lower, "passed"):
			return StyleSuccess.Render(SymbolSuccess + " " + item.Value)
		case strings.Contains(lower, "fail"):
			return StyleError.Render(SymbolError + " " + item.Value)
		}
	}
	return lipgloss.NewStyle().Bold(true).Render(item.Value)
}

// Status is the state of one table in a row listing.
type Status int

const (
	StatusNone Status = iota
	StatusPending
	StatusProgress
	StatusSuccess
	StatusError
)

// statusMarks holds the symbol of each status and whether its value is styled too.
var statusMarks = map[Status]struct {
	symbol    string
	style     lipgloss.Style
	styleText bool
}{
	StatusPending:  {SymbolPending, StyleMuted, true},
	StatusProgress: {SymbolProgress, StyleProgress, false},
	StatusSuccess:  {SymbolSuccess, StyleSuccess, false},
	StatusError:    {SymbolError, StyleError, true},
}

// TableRow renders one table name with a value, such as a row count or a
// consistency violation.
func (u *UI) TableRow(name string, value string, status Status) string {
	if !u.shouldStyle() {
		if status == StatusError {
			value = "FAILED: " + value
		}
		return fmt.Sprintf("  %-18s %s", name+":", value)
	}

	symbol := " "
	if mark, ok := statusMarks[status]; ok {
		symbol = mark.style.Render(mark.symbol)
		if mark.styleText {
			value = mark.style.Render(value)
		}
	}
	return fmt.Sprintf("  %s %s %s", symbol, lipgloss.NewStyle().Width(18).Render(name), value)
}

// LoanBookRow is one line of the loan book report.
type LoanBookRow struct {
	Status      string
	Loans       int
	Outstanding string
}

// LoanStatus renders a loan status padded to width in its status color.
// Unknown statuses are left unstyled.
func (u *UI) LoanStatus(status string, width int) string {
	padded := fmt.Sprintf("%-*s", width, status)
	style, ok := loanStatusStyles[status]
	if !ok || !u.shouldStyle() {
		return padded
	}
	return style.Render(padded)
}

// PrintLoanBook prints the number of loans and the outstanding principal per status.
func (u *UI) PrintLoanBook(rows []LoanBookRow) {
	for _, r := range rows {
		fmt.Fprintf(u.out, "  %s %8s loans  %s outstanding\n", u.LoanStatus(r.Status, 11), FormatCount(r.Loans), r.Outstanding)
	}
}
