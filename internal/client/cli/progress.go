package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/dmitrijs2005/weddingkeeper/internal/client/scrape"
)

// progressRenderer prints poller snapshots. On a terminal the status line is
// redrawn in place; otherwise a line is printed only when progress, message
// or status changes.
type progressRenderer struct {
	out   io.Writer
	theme Theme
	tty   bool

	mu       sync.Mutex
	last     string
	drawn    bool
	longWait bool
	network  bool
}

func (r *progressRenderer) render(s scrape.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.State != scrape.StatePolling {
		return
	}

	if s.LongWait && !r.longWait {
		r.longWait = true
		r.lineBreak()
		fmt.Fprintln(r.out, r.theme.hint("This is taking longer than usual. Large sites can take a few minutes."))
	}
	if s.NetworkFailures > 0 && !r.network {
		r.network = true
		r.lineBreak()
		fmt.Fprintln(r.out, r.theme.hint("Connection problems, still trying..."))
	} else if s.NetworkFailures == 0 {
		r.network = false
	}

	msg := s.Message
	if msg == "" {
		msg = s.Status
	}
	line := fmt.Sprintf("%s %s", r.theme.progressBar(s.Progress), msg)
	if line == r.last {
		return
	}
	r.last = line

	if r.tty {
		fmt.Fprintf(r.out, "\r\033[K%s", line)
		r.drawn = true
		return
	}
	fmt.Fprintln(r.out, line)
}

// finish ends an in-place status line so later output starts on a new line.
func (r *progressRenderer) finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lineBreak()
}

func (r *progressRenderer) lineBreak() {
	if r.drawn {
		fmt.Fprintln(r.out)
		r.drawn = false
	}
}
