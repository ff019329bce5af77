// Package progress reports completion of multi-file store operations.
//
// The content store engine only ever calls SetTotal once and Increment as
// chunks complete. Rendering is the sink's concern.
package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Sink receives completion updates for a batched operation.
//
// Implementations must serialize Increment calls: chunks complete
// concurrently.
type Sink interface {
	// SetTotal announces the number of work units the operation covers.
	SetTotal(total int)

	// Increment records n more completed work units.
	Increment(n int)
}

// Nop is a Sink that discards all updates.
type Nop struct{}

func (Nop) SetTotal(int) {}
func (Nop) Increment(int) {}

// Bar is a Sink drawing an ASCII progress bar, one redraw per increment.
//
// E.g.:
//
//	120/200 files [..............................                    ]  60%
type Bar struct {
	mu        sync.Mutex
	out       io.Writer
	total     int
	completed int
	width     int
	rendered  bool
}

// NewBar returns a Bar rendering to out.
func NewBar(out io.Writer) *Bar {
	return &Bar{out: out, width: 50}
}

func (b *Bar) SetTotal(total int) {
	b.mu.Lock()
	b.total = total
	b.completed = 0
	b.render()
	b.mu.Unlock()
}

func (b *Bar) Increment(n int) {
	b.mu.Lock()
	if b.completed+n <= b.total {
		b.completed += n
	} else {
		b.completed = b.total
	}
	b.render()
	b.mu.Unlock()
}

// Done terminates the bar line. Call once after the operation completes.
// A no-op when nothing was drawn, so quiet runs stay quiet.
func (b *Bar) Done() {
	b.mu.Lock()
	if b.rendered {
		fmt.Fprintln(b.out)
		b.rendered = false
	}
	b.mu.Unlock()
}

// render redraws the bar. Callers hold b.mu, so concurrent chunk
// completions never interleave partial output.
func (b *Bar) render() {
	if b.total <= 0 {
		return
	}
	done := b.completed * b.width / b.total
	pct := 100 * b.completed / b.total
	countWidth := len(fmt.Sprint(b.total))
	fmt.Fprintf(b.out, "\r%*d/%d files [%s%s] %3d%%",
		countWidth, b.completed, b.total,
		strings.Repeat(".", done), strings.Repeat(" ", b.width-done),
		pct)
	b.rendered = true
}
