package ui

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// renderInterval limits redraws while rows stream in
const renderInterval = 100 * time.Millisecond

// MultiProgress tracks multiple concurrent operations with live updates.
type MultiProgress struct {
	ui         *UI
	items      map[string]*ProgressItem
	order      []string // insertion order
	mu         sync.Mutex
	rendered   bool
	lineCount  int
	lastRender time.Time
}

// ProgressItem represents a single item being tracked.
type ProgressItem struct {
	Name      string
	Total     int64
	Current   int64
	StartTime time.Time
	Status    Status
	Message   string // final message when complete
	Error     error
	bar       progress.Model
}

// NewMultiProgress creates a new multi-line progress tracker.
func (u *UI) NewMultiProgress() *MultiProgress {
	return &MultiProgress{
		ui:    u,
		items: make(map[string]*ProgressItem),
	}
}

func (m *MultiProgress) addLocked(name string, total int64) *ProgressItem {
	if item, ok := m.items[name]; ok {
		return item
	}
	item := &ProgressItem{
		Name:      name,
		Total:     total,
		StartTime: time.Now(),
		Status:    StatusPending,
		bar: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(25),
			progress.WithoutPercentage(),
		),
	}
	m.items[name] = item
	m.order = append(m.order, name)
	return item
}

// Update sets the current progress for an item.
func (m *MultiProgress) Update(name string, current int64) {
	m.mu.Lock()
	if item, ok := m.items[name]; ok {
		item.Current = current
		if item.Status == StatusPending {
			item.Status = StatusProgress
			item.StartTime = time.Now()
		}
	}
	m.mu.Unlock()

	m.render(false)
}

// Progress has the shape of a sink progress callback: it adds the table on
// first sight and completes it when every row is written.
func (m *MultiProgress) Progress(table string, written, total int) {
	m.mu.Lock()
	item := m.addLocked(table, int64(total))
	item.Total = int64(total)
	m.mu.Unlock()

	if written >= total {
		m.Complete(table, fmt.Sprintf("%s rows", formatRowCount(int64(total))))
		return
	}
	m.Update(table, int64(written))
}

// Complete marks an item as successfully completed.
func (m *MultiProgress) Complete(name string, message string) {
	m.mu.Lock()
	item, ok := m.items[name]
	if !ok || item.Status == StatusSuccess {
		m.mu.Unlock()
		return
	}
	item.Status = StatusSuccess
	item.Message = message
	item.Current = item.Total
	m.mu.Unlock()

	m.render(true)
	m.plain(item)
}

// Fail marks an item as failed.
func (m *MultiProgress) Fail(name string, err error) {
	m.mu.Lock()
	item, ok := m.items[name]
	if ok {
		item.Status = StatusError
		item.Error = err
	}
	m.mu.Unlock()

	if ok {
		m.render(true)
		m.plain(item)
	}
}

// plain prints finished items on non-TTY output, where nothing is redrawn
func (m *MultiProgress) plain(item *ProgressItem) {
	if m.ui.shouldStyle() {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if item.Status == StatusError {
		fmt.Fprintf(m.ui.out, "  %-18s FAILED: %v\n", item.Name+":", item.Error)
		return
	}
	fmt.Fprintf(m.ui.out, "  %-18s %s\n", item.Name+":", item.Message)
}

// render redraws all progress lines, at most every renderInterval unless forced.
func (m *MultiProgress) render(force bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ui.shouldStyle() {
		return
	}
	if !force && time.Since(m.lastRender) < renderInterval {
		return
	}
	m.lastRender = time.Now()

	// Move cursor up to overwrite previous output
	if m.rendered && m.lineCount > 0 {
		fmt.Fprintf(m.ui.out, "\033[%dA", m.lineCount)
	}
	for _, name := range m.order {
		fmt.Fprintf(m.ui.out, "\033[K%s\n", m.renderItem(m.items[name]))
	}
	m.rendered = true
	m.lineCount = len(m.order)
}

// renderItem renders a single progress item.
func (m *MultiProgress) renderItem(item *ProgressItem) string {
	nameStyle := lipgloss.NewStyle().Width(18)
	var symbol, detail string

	switch item.Status {
	case StatusPending:
		symbol = StyleMuted.Render(SymbolPending)
		detail = StyleMuted.Render("waiting...")

	case StatusProgress:
		symbol = StyleProgress.Render(SymbolProgress)
		if item.Total > 0 {
			pct := min(float64(item.Current)/float64(item.Total), 1)
			rate := float64(item.Current) / max(time.Since(item.StartTime).Seconds(), 0.001)
			detail = fmt.Sprintf("%s %s %s",
				item.bar.ViewAs(pct),
				StyleMuted.Render(fmt.Sprintf("%d/%d", item.Current, item.Total)),
				StyleMuted.Render(fmt.Sprintf("%s/s", formatRowCount(int64(rate)))),
			)
		} else {
			detail = StyleMuted.Render("writing...")
		}

	case StatusSuccess:
		symbol = StyleSuccess.Render(SymbolSuccess)
		detail = item.Message
		if detail == "" {
			detail = StyleSuccess.Render("complete")
		}

	case StatusError:
		symbol = StyleError.Render(SymbolError)
		detail = StyleError.Render("failed")
		if item.Error != nil {
			detail = StyleError.Render(item.Error.Error())
		}
	}

	return fmt.Sprintf("  %s %s %s", symbol, nameStyle.Render(item.Name), detail)
}

// Finish redraws the final state with every item in insertion order.
func (m *MultiProgress) Finish() {
	m.render(true)
}

// HasErrors returns true if any item has failed.
func (m *MultiProgress) HasErrors() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, item := range m.items {
		if item.Status == StatusError {
			return true
		}
	}
	return false
}

// Items returns the tracked item names, in insertion order.
func (m *MultiProgress) Items() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.order)
}

// IndexProgressDisplay shows index creation progress.
type IndexProgressDisplay struct {
	ui    *UI
	total int
	mu    sync.Mutex
}

// NewIndexProgress creates an index progress display.
func (u *UI) NewIndexProgress(total int) *IndexProgressDisplay {
	return &IndexProgressDisplay{ui: u, total: total}
}

// Update updates the current index count.
func (p *IndexProgressDisplay) Update(current, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total = total

	if !p.ui.shouldStyle() {
		return
	}

	bar := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(30),
		progress.WithoutPercentage(),
	)
	pct := float64(current) / float64(max(total, 1))
	countStyle := lipgloss.NewStyle().Foreground(ColorMuted)

	fmt.Fprintf(p.ui.out, "\r\033[K  %s %s %s",
		bar.ViewAs(pct),
		countStyle.Render(fmt.Sprintf("[%d/%d]", current, total)),
		StyleMuted.Render("Creating indexes..."),
	)
}

// Complete finishes with success.
func (p *IndexProgressDisplay) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.ui.shouldStyle() {
		fmt.Fprintf(p.ui.out, "  Created %d indexes and constraints\n", p.total)
		return
	}

	fmt.Fprintf(p.ui.out, "\r\033[K  %s Created %d indexes and constraints\n",
		StyleSuccess.Render(SymbolSuccess), p.total)
}

// PrintStage prints one completed generation stage.
func (u *UI) PrintStage(name string, records int, duration time.Duration) {
	detail := fmt.Sprintf("%s records in %s", formatRowCount(int64(records)), formatDuration(duration))
	u.Println(u.TableRow(name, detail, StatusSuccess))
}

// PrintCounts prints the row count of every table, aligned.
func (u *UI) PrintCounts(names []string, counts map[string]int) {
	for _, name := range names {
		u.Println(u.TableRow(name, fmt.Sprintf("%d", counts[name]), StatusNone))
	}
}

// PrintTableLoadResult prints a table load result line.
func (u *UI) PrintTableLoadResult(name string, rows int64, duration time.Duration, shards int, err error) {
	if !u.shouldStyle() {
		switch {
		case err != nil:
			fmt.Fprintf(u.out, "  %-18s FAILED\n", name+":")
			fmt.Fprintf(u.out, "    Error: %v\n", err)
		case shards > 1:
			fmt.Fprintf(u.out, "  %-18s %s rows in %s (%d shards)\n", name+":", formatRowCount(rows), formatDuration(duration), shards)
		default:
			fmt.Fprintf(u.out, "  %-18s %s rows in %s\n", name+":", formatRowCount(rows), formatDuration(duration))
		}
		return
	}

	nameStyle := lipgloss.NewStyle().Width(18)
	if err != nil {
		fmt.Fprintf(u.out, "  %s %s %s\n",
			StyleError.Render(SymbolError),
			nameStyle.Render(name),
			StyleError.Render("FAILED"),
		)
		fmt.Fprintf(u.out, "    %s\n", StyleError.Render(err.Error()))
		return
	}
	detail := fmt.Sprintf("%s rows in %s", formatRowCount(rows), formatDuration(duration))
	if shards > 1 {
		detail += StyleMuted.Render(fmt.Sprintf(" (%d shards)", shards))
	}
	fmt.Fprintf(u.out, "  %s %s %s\n",
		StyleSuccess.Render(SymbolSuccess),
		nameStyle.Render(name),
		detail,
	)
}

// Section prints a section header.
func (u *UI) Section(title string) {
	if !u.shouldStyle() {
		fmt.Fprintf(u.out, "\n%s\n", title)
		return
	}
	fmt.Fprintf(u.out, "\n%s\n", lipgloss.NewStyle().Bold(true).Render(title))
}

// DebugBox prints a boxed block, such as a command to repeat by hand.
func (u *UI) DebugBox(title string, content string) {
	if !u.shouldStyle() {
		fmt.Fprintln(u.out, "\n    "+title)
		fmt.Fprintln(u.out, "    "+strings.Repeat("─", 45))
		for line := range strings.SplitSeq(content, "\n") {
			fmt.Fprintln(u.out, "    "+line)
		}
		fmt.Fprintln(u.out, "    "+strings.Repeat("─", 45))
		return
	}

	boxStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorMuted).
		Padding(0, 1)

	fmt.Fprintln(u.out)
	fmt.Fprintln(u.out, "    "+StyleMuted.Render(title))
	fmt.Fprintln(u.out, boxStyle.Render(content))
}

// FormatDuration formats a duration for display.
func FormatDuration(d time.Duration) string {
	return formatDuration(d)
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		secs := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", mins, secs)
	}
	hrs := int(d.Hours())
	mins := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", hrs, mins)
}

// FormatBytes formats bytes into human readable form.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}

// FormatCount formats a row count with K/M suffix.
func FormatCount(n int) string {
	return formatRowCount(int64(n))
}

func formatRowCount(rows int64) string {
	if rows >= 1_000_000 {
		return fmt.Sprintf("%.1fM", float64(rows)/1_000_000)
	}
	if rows >= 1_000 {
		return fmt.Sprintf("%.1fK", float64(rows)/1_000)
	}
	return fmt.Sprintf("%d", rows)
}
