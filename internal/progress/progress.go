package progress

import (
	"fmt"
	"net/url"
	"os"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/briandowns/spinner"
)

// Tracker shows a terminal spinner with the current step of a run. It is a
// no-op when disabled or when its output is not a terminal.
type Tracker struct {
	spinner *spinner.Spinner
	enabled bool
	steps   int
	mu      sync.Mutex
}

// New creates a Tracker writing to out, usually os.Stderr.
func New(enabled bool, out *os.File) *Tracker {
	if out == nil {
		out = os.Stderr
	}
	s := spinner.New(spinner.CharSets[9], 100*time.Millisecond,
		spinner.WithWriterFile(out),
		spinner.WithHiddenCursor(true),
	)
	return &Tracker{spinner: s, enabled: enabled}
}

// Step replaces the spinner message, starting the spinner on first use.
func (p *Tracker) Step(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.enabled {
		return
	}

	p.steps++
	p.spinner.Lock()
	p.spinner.Suffix = fmt.Sprintf(" [%d] %s", p.steps, message)
	p.spinner.Unlock()
	if !p.spinner.Active() {
		p.spinner.Start()
	}
}

// Steps returns how many steps have been reported.
func (p *Tracker) Steps() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.steps
}

// Stop halts the spinner and clears its line.
func (p *Tracker) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.spinner.Active() {
		p.spinner.Stop()
	}
}

// maxLabel is the widest URL label shown next to the spinner, in runes.
const maxLabel = 40

// ShortURL fits a URL into the spinner line. Long URLs keep their host and
// the tail of their path; query strings are dropped. Anything that does not
// parse as an absolute URL keeps its last runes.
func ShortURL(rawURL string) string {
	if utf8.RuneCountInString(rawURL) <= maxLabel {
		return rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "..." + tail(rawURL, maxLabel)
	}
	label := u.Host + u.Path
	if utf8.RuneCountInString(label) <= maxLabel {
		return label
	}
	keep := maxLabel - utf8.RuneCountInString(u.Host) - len("...")
	if keep <= 0 {
		return u.Host
	}
	return u.Host + "..." + tail(u.Path, keep)
}

// tail returns the last n runes of s.
func tail(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
