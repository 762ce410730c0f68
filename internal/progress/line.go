// Package progress renders reverser progress on a console stream.
package progress

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/san-kum/dynrev/internal/reverse"
)

const DefaultInterval = 100 * time.Millisecond

var (
	stageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
)

// Line is a reverse.Observer printing one status line per update. On a
// terminal the line is styled and overwritten in place; elsewhere each
// update is a plain line. Updates closer together than the interval are
// dropped unless they report a terminal status.
type Line struct {
	w        io.Writer
	inPlace  bool
	interval time.Duration
	now      func() time.Time

	last  time.Time
	width int
}

type Option func(*Line)

// WithInterval sets the minimum time between two printed updates.
func WithInterval(d time.Duration) Option {
	return func(l *Line) { l.interval = d }
}

// WithInPlace overrides terminal detection.
func WithInPlace(inPlace bool) Option {
	return func(l *Line) { l.inPlace = inPlace }
}

func New(w io.Writer, opts ...Option) *Line {
	l := &Line{
		w:        w,
		inPlace:  isTerminal(w),
		interval: DefaultInterval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (l *Line) Observe(p reverse.Progress) {
	final := finished(p)
	now := l.now()
	if !final && !l.last.IsZero() && now.Sub(l.last) < l.interval {
		return
	}
	l.last = now

	if !l.inPlace {
		fmt.Fprintln(l.w, plain(p))
		return
	}

	text := styled(p)
	pad := ""
	if w := lipgloss.Width(text); w < l.width {
		pad = strings.Repeat(" ", l.width-w)
	} else {
		l.width = w
	}
	fmt.Fprint(l.w, "\r"+text+pad)
}

// Done ends an in-place line.
func (l *Line) Done() {
	if l.inPlace && !l.last.IsZero() {
		fmt.Fprintln(l.w)
	}
	l.last = time.Time{}
	l.width = 0
}

func finished(p reverse.Progress) bool {
	if p.Stage == reverse.StageDynamic {
		return p.Index == p.Total-1
	}
	return p.Status != "iterating"
}

func fields(p reverse.Progress) (index, metric, extra string) {
	if p.Stage == reverse.StageDynamic {
		return fmt.Sprintf("step %d/%d", p.Index, p.Total-1),
			fmt.Sprintf("error %.3e", p.Convergence),
			fmt.Sprintf("evaluations %d", p.Evaluations)
	}
	return fmt.Sprintf("iteration %d", p.Index),
		fmt.Sprintf("convergence %.3e", p.Convergence),
		""
}

func plain(p reverse.Progress) string {
	index, metric, extra := fields(p)
	parts := []string{p.Stage.String(), index, metric}
	if extra != "" {
		parts = append(parts, extra)
	}
	parts = append(parts, p.Status)
	return strings.Join(parts, "  ")
}

func styled(p reverse.Progress) string {
	index, metric, extra := fields(p)
	status := warnStyle.Render(p.Status)
	if p.Converged {
		status = okStyle.Render(p.Status)
	}
	parts := []string{
		stageStyle.Render(p.Stage.String()),
		valueStyle.Render(index),
		labelStyle.Render(metric),
	}
	if extra != "" {
		parts = append(parts, labelStyle.Render(extra))
	}
	parts = append(parts, status)
	return strings.Join(parts, "  ")
}
