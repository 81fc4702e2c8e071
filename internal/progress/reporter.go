// Package progress reports guide generation progress on a terminal or in
// line-oriented logs.
package progress

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Reporter is told about every rendered page.
type Reporter interface {
	Start(total int)
	Page(locale, route string)
	Finish(elapsed time.Duration)
}

// NewReporter picks a Lines reporter under CI (CI or GITHUB_ACTIONS set) and
// a Bar otherwise. Both write to w.
func NewReporter(w io.Writer) Reporter {
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		return &Lines{w: w}
	}
	return &Bar{w: w}
}

// Nop returns a Reporter that prints nothing.
func Nop() Reporter { return nopReporter{} }

// Bar draws a progress bar that is cleared when rendering ends, leaving a
// one-line summary.
type Bar struct {
	w     io.Writer
	bar   *progressbar.ProgressBar
	total int
}

func (r *Bar) Start(total int) {
	r.total = total
	r.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(r.w),
		progressbar.OptionSetDescription("Rendering guide"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (r *Bar) Page(locale, route string) {
	if r.bar == nil {
		return
	}
	r.bar.Describe(label(locale, route))
	_ = r.bar.Add(1)
}

func (r *Bar) Finish(elapsed time.Duration) {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
	fmt.Fprintf(r.w, "Rendered %d pages in %s\n", r.total, elapsed.Round(time.Millisecond))
}

// Lines prints one line per page, for logs that cannot redraw.
type Lines struct {
	w     io.Writer
	total int
	done  int
}

func (r *Lines) Start(total int) {
	r.total, r.done = total, 0
	fmt.Fprintf(r.w, "Rendering %d pages\n", total)
}

func (r *Lines) Page(locale, route string) {
	r.done++
	fmt.Fprintf(r.w, "[%d/%d] %s\n", r.done, r.total, label(locale, route))
}

func (r *Lines) Finish(elapsed time.Duration) {
	fmt.Fprintf(r.w, "Rendered %d pages in %s\n", r.done, elapsed.Round(time.Millisecond))
}

// label prefixes route with its locale key; the root locale has none.
func label(locale, route string) string {
	if locale == "" || locale == "root" {
		return route
	}
	return locale + " " + route
}

type nopReporter struct{}

func (nopReporter) Start(int)            {}
func (nopReporter) Page(string, string)  {}
func (nopReporter) Finish(time.Duration) {}
