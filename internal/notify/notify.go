package notify

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Notifier receives the transient progress updates and the final notification.
// Progress may be called from several goroutines at once.
type Notifier interface {
	Progress(url string)
	Success(title, detail string)
	Failure(title, detail string)
}

// Terminal writes notifications to a terminal or a log stream.
// On a TTY, progress overwrites a single status line; otherwise every URL is
// printed on its own line.
type Terminal struct {
	mu      sync.Mutex
	out     io.Writer
	tty     bool
	quiet   bool
	pending bool

	success *color.Color
	failure *color.Color
	faint   *color.Color
}

// TerminalOption configures a Terminal.
type TerminalOption func(*Terminal)

// WithQuiet suppresses progress lines. The final notification is still printed.
func WithQuiet(quiet bool) TerminalOption {
	return func(t *Terminal) {
		t.quiet = quiet
	}
}

// WithTTY overrides terminal detection.
func WithTTY(tty bool) TerminalOption {
	return func(t *Terminal) {
		t.tty = tty
	}
}

// WithColor forces color on or off.
func WithColor(enabled bool) TerminalOption {
	return func(t *Terminal) {
		for _, c := range []*color.Color{t.success, t.failure, t.faint} {
			if enabled {
				c.EnableColor()
			} else {
				c.DisableColor()
			}
		}
	}
}

// NewTerminal creates a Terminal writing to out. Color is enabled only when
// out is a terminal and NO_COLOR is unset.
func NewTerminal(out io.Writer, opts ...TerminalOption) *Terminal {
	t := &Terminal{
		out:     out,
		tty:     isTerminal(out),
		success: color.New(color.FgGreen, color.Bold),
		failure: color.New(color.FgRed, color.Bold),
		faint:   color.New(color.Faint),
	}
	useColor := t.tty && os.Getenv("NO_COLOR") == ""
	WithColor(useColor)(t)

	for _, opt := range opts {
		opt(t)
	}
	return t
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Progress implements Notifier.
func (t *Terminal) Progress(url string) {
	if t.quiet {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.tty {
		// \r and erase-line keep the status on one line.
		t.faint.Fprintf(t.out, "\r\033[KFetching %s", url)
		t.pending = true
		return
	}
	fmt.Fprintf(t.out, "fetching %s\n", url)
}

// Success implements Notifier.
func (t *Terminal) Success(title, detail string) {
	t.final(t.success, "✓", title, detail)
}

// Failure implements Notifier.
func (t *Terminal) Failure(title, detail string) {
	t.final(t.failure, "✗", title, detail)
}

func (t *Terminal) final(c *color.Color, mark, title, detail string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pending {
		fmt.Fprint(t.out, "\r\033[K")
		t.pending = false
	}
	c.Fprintf(t.out, "%s %s", mark, title)
	if detail != "" {
		fmt.Fprintf(t.out, ": %s", detail)
	}
	fmt.Fprintln(t.out)
}

// Event is one notification captured by Recorder.
type Event struct {
	Kind   string
	Title  string
	Detail string
}

// Event kinds.
const (
	KindProgress = "progress"
	KindSuccess  = "success"
	KindFailure  = "failure"
)

// Recorder keeps every notification in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Progress implements Notifier.
func (r *Recorder) Progress(url string) {
	r.add(Event{Kind: KindProgress, Title: url})
}

// Success implements Notifier.
func (r *Recorder) Success(title, detail string) {
	r.add(Event{Kind: KindSuccess, Title: title, Detail: detail})
}

// Failure implements Notifier.
func (r *Recorder) Failure(title, detail string) {
	r.add(Event{Kind: KindFailure, Title: title, Detail: detail})
}

func (r *Recorder) add(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded notifications.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Final returns the last success or failure event.
func (r *Recorder) Final() (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Kind != KindProgress {
			return r.events[i], true
		}
	}
	return Event{}, false
}

// Prefixed puts a prefix in front of every final title, so the results of
// several crawls sharing one Notifier can be told apart.
type Prefixed struct {
	prefix string
	next   Notifier
}

// WithPrefix wraps next.
func WithPrefix(next Notifier, prefix string) *Prefixed {
	return &Prefixed{prefix: prefix, next: next}
}

// Progress implements Notifier.
func (p *Prefixed) Progress(url string) {
	p.next.Progress(url)
}

// Success implements Notifier.
func (p *Prefixed) Success(title, detail string) {
	p.next.Success(p.prefix+": "+title, detail)
}

// Failure implements Notifier.
func (p *Prefixed) Failure(title, detail string) {
	p.next.Failure(p.prefix+": "+title, detail)
}

var (
	_ Notifier = (*Terminal)(nil)
	_ Notifier = (*Recorder)(nil)
	_ Notifier = (*Prefixed)(nil)
)
