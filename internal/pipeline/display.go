package pipeline

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
)

// Display handles terminal progress output for a run. All methods are safe
// to call on a nil *Display.
type Display struct {
	w       io.Writer
	title   string
	verbose bool
	stop    chan struct{}
	done    chan struct{}

	titleStyle lipgloss.Style
	okStyle    lipgloss.Style
	warnStyle  lipgloss.Style
	errStyle   lipgloss.Style
	dimStyle   lipgloss.Style
}

// NewDisplay creates a display that writes to stdout.
func NewDisplay(title string, verbose bool) *Display {
	return newDisplay(os.Stdout, title, verbose)
}

func newDisplay(w io.Writer, title string, verbose bool) *Display {
	r := lipgloss.NewRenderer(w)
	return &Display{
		w:          w,
		title:      title,
		verbose:    verbose,
		titleStyle: r.NewStyle().Bold(true).Foreground(lipgloss.Color("69")),
		okStyle:    r.NewStyle().Foreground(lipgloss.Color("42")),
		warnStyle:  r.NewStyle().Foreground(lipgloss.Color("214")),
		errStyle:   r.NewStyle().Foreground(lipgloss.Color("196")),
		dimStyle:   r.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

// topicColumnWidth is the fixed display width reserved for the topic column.
var topicColumnWidth = 40

// ansiEscapeRe matches ANSI terminal escape sequences and C0/DEL control characters.
var ansiEscapeRe = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]|[\x00-\x1f\x7f]`)

func sanitize(s string) string {
	return ansiEscapeRe.ReplaceAllString(s, "")
}

// truncateTopic sanitizes and truncates a topic to topicColumnWidth runes,
// appending an ellipsis if truncation occurs.
func truncateTopic(topic string) string {
	topic = sanitize(topic)
	if utf8.RuneCountInString(topic) <= topicColumnWidth {
		return topic
	}
	runes := []rune(topic)
	return string(runes[:topicColumnWidth-1]) + "…"
}

func counter(index, total int) string {
	return fmt.Sprintf("[%d/%d]", index+1, total)
}

func (d *Display) rule() string {
	return d.dimStyle.Render(strings.Repeat("─", 76))
}

// Header prints the run header.
func (d *Display) Header(total int) {
	if d == nil {
		return
	}
	fmt.Fprintf(d.w, "\n📝 %s  %s\n", d.titleStyle.Render("docgen — "+d.title),
		d.dimStyle.Render(fmt.Sprintf("%d documents", total)))
	fmt.Fprintln(d.w, d.rule())
}

// ItemStart prints an item-in-progress line and starts an elapsed time ticker.
// In verbose mode a plain line is printed since log output follows.
func (d *Display) ItemStart(index, total int, topic string) {
	if d == nil {
		return
	}
	topic = truncateTopic(topic)
	pos := counter(index, total)
	if d.verbose {
		fmt.Fprintf(d.w, "⏳ %-9s %-40s generating...\n", pos, topic)
		return
	}
	fmt.Fprintf(d.w, "⏳ %-9s %-40s generating...", pos, topic)

	stop := make(chan struct{})
	done := make(chan struct{})
	d.stop = stop
	d.done = done
	start := time.Now()

	go func() {
		defer close(done)
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				fmt.Fprintf(d.w, "\r⏳ %-9s %-40s generating... %.0fs",
					pos, topic, time.Since(start).Seconds())
			}
		}
	}()
}

// stopTicker stops the elapsed time goroutine and waits for it to finish.
func (d *Display) stopTicker() {
	if d.stop != nil {
		close(d.stop)
		<-d.done
		d.stop = nil
		d.done = nil
	}
}

func (d *Display) linePrefix() string {
	if d.verbose {
		return ""
	}
	return "\r"
}

// ItemDone prints a finished item. Degraded items (raw text fallback) are
// marked with a warning glyph.
func (d *Display) ItemDone(index, total int, topic, artifact string, structured bool, cost float64, duration time.Duration) {
	if d == nil {
		return
	}
	d.stopTicker()
	costStr := "—"
	if cost > 0 {
		costStr = fmt.Sprintf("$%.4f", cost)
	}
	glyph := d.okStyle.Render("✅")
	if !structured {
		glyph = d.warnStyle.Render("⚠️ ")
		if artifact == "" {
			artifact = "(not saved)"
		}
	}
	fmt.Fprintf(d.w, "%s%s %-9s %-40s %-10s %.1fs\n",
		d.linePrefix(), glyph, counter(index, total), truncateTopic(topic), costStr, duration.Seconds())
	if artifact != "" {
		fmt.Fprintf(d.w, "  └ %s\n", d.dimStyle.Render(artifact))
	}
}

// ItemFailed prints a failed item line.
func (d *Display) ItemFailed(index, total int, topic string, err error) {
	if d == nil {
		return
	}
	d.stopTicker()
	fmt.Fprintf(d.w, "%s%s %-9s %-40s %s\n",
		d.linePrefix(), d.errStyle.Render("❌"), counter(index, total), truncateTopic(topic), err.Error())
}

// Throttling notes the pause before the next item.
func (d *Display) Throttling(delay time.Duration) {
	if d == nil || delay <= 0 {
		return
	}
	fmt.Fprintf(d.w, "  %s\n", d.dimStyle.Render(fmt.Sprintf("waiting %s", delay.Round(time.Millisecond))))
}

// Summary prints the final run summary.
func (d *Display) Summary(processed, degraded int, totalCost float64, totalDuration time.Duration) {
	if d == nil {
		return
	}
	fmt.Fprintln(d.w, d.rule())
	line := fmt.Sprintf("✅ Done  %d docs", processed)
	if degraded > 0 {
		line += d.warnStyle.Render(fmt.Sprintf(" (%d degraded)", degraded))
	}
	fmt.Fprintf(d.w, "%s  $%.4f  %.0fs\n\n", line, totalCost, totalDuration.Seconds())
}

// Failed prints a failure summary.
func (d *Display) Failed(err error) {
	if d == nil {
		return
	}
	d.stopTicker()
	fmt.Fprintln(d.w, d.rule())
	fmt.Fprintf(d.w, "%s %s\n\n", d.errStyle.Render("❌ Failed:"), err.Error())
}
