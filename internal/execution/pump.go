package execution

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/parleyhq/parley/internal/match"
)

// ErrOutputClosed reports that the child's output stream closed while the
// session still expected a prompt. Distinct from a timeout: the process gave
// up, not the clock.
var ErrOutputClosed = errors.New("output stream closed before expected text appeared")

// ErrExpectTimeout reports that an expected prompt did not appear in time.
var ErrExpectTimeout = errors.New("timed out waiting for expected text")

const pumpChunkSize = 4096

// Pump drains a child's output stream on a background goroutine into a
// growable buffer, so matching and input writes never block each other. A
// cursor marks output already consumed by matches; queries scan only the
// unconsumed suffix, so total scan cost stays linear across the session and
// a match never re-triggers on consumed text.
//
// The buffer and cursor are the only state shared between the drain
// goroutine and the session; both are guarded by mu.
type Pump struct {
	mu     sync.Mutex
	buf    []byte
	cursor int
	closed bool

	wake chan struct{} // capacity 1, signaled on append and close
	done chan struct{} // closed when the drain goroutine exits

	onChunk func([]byte) // trace hook, runs under mu so a chunk is recorded before it is matchable
}

// StartPump begins draining r. onChunk, if non-nil, receives a copy of every
// chunk in the order the OS delivered it, before the chunk becomes visible to
// WaitMatch. That ordering is what keeps a recorded input from ever preceding
// the output that prompted it.
func StartPump(r io.Reader, onChunk func([]byte)) *Pump {
	p := &Pump{
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		onChunk: onChunk,
	}
	go p.drain(r)
	return p
}

func (p *Pump) drain(r io.Reader) {
	defer close(p.done)
	chunk := make([]byte, pumpChunkSize)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			p.mu.Lock()
			p.buf = append(p.buf, chunk[:n]...)
			// The chunk must be in the trace before a waiter can match it.
			if p.onChunk != nil {
				c := make([]byte, n)
				copy(c, chunk[:n])
				p.onChunk(c)
			}
			p.mu.Unlock()
			p.signal()
		}
		if err != nil {
			if err != io.EOF {
				slog.Debug("pump read ended", "err", err)
			}
			p.mu.Lock()
			p.closed = true
			p.mu.Unlock()
			p.signal()
			return
		}
	}
}

func (p *Pump) signal() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// WaitMatch blocks until pattern appears in the unconsumed output, the
// stream closes, the timeout elapses, or ctx is canceled. On success the
// cursor advances past the match; on any failure it stays put so the
// unmatched suffix remains visible to the next attempt. That suffix
// retention is what lets one step's leftover bytes (say, a record separator
// a formatted read skipped) satisfy part of the next step's match.
func (p *Pump) WaitMatch(ctx context.Context, pattern match.Pattern, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		p.mu.Lock()
		if end, ok := pattern.Find(p.buf[p.cursor:]); ok {
			p.cursor += end
			p.mu.Unlock()
			return nil
		}
		closed := p.closed
		p.mu.Unlock()

		if closed {
			return ErrOutputClosed
		}

		select {
		case <-p.wake:
		case <-timer.C:
			return ErrExpectTimeout
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Unread returns a copy of the output not yet consumed by a match.
func (p *Pump) Unread() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]byte, len(p.buf)-p.cursor)
	copy(out, p.buf[p.cursor:])
	return out
}

// Closed reports whether the output stream has ended.
func (p *Pump) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Tail returns up to n trailing bytes of everything seen so far, consumed or
// not. Used for failure diagnostics.
func (p *Pump) Tail(n int) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.buf) <= n {
		return string(p.buf)
	}
	return string(p.buf[len(p.buf)-n:])
}

// Wait blocks until the drain goroutine has exited.
func (p *Pump) Wait() {
	<-p.done
}
