// Package execution owns the child process side of a session: spawning the
// target executable, pumping its output, and tearing it down exactly once no
// matter which verdict path the session takes.
package execution

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"
)

// ErrInputClosed reports that the child closed its end of the input pipe.
var ErrInputClosed = errors.New("child closed its input")

// stderrCap bounds how much child stderr is retained for diagnostics.
const stderrCap = 8 * 1024

// Controller owns the lifecycle of one child process: its pipes, its exit
// status, and its termination. A controller is never shared between sessions.
type Controller struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr *boundedBuffer

	exited   chan struct{} // closed by the reaper once the process is gone
	exitCode int           // valid after exited is closed

	closeOnce sync.Once // stdin
	termOnce  sync.Once
	freeOnce  sync.Once
}

// Spawn starts the target executable and wires up its pipes. The returned
// controller must be released with Release on every path.
func Spawn(path string, args ...string) (*Controller, error) {
	cmd := exec.Command(path, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("spawn %s: stdin pipe: %w", path, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("spawn %s: stdout pipe: %w", path, err)
	}

	stderr := &boundedBuffer{cap: stderrCap}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("spawn %s: %w", path, err)
	}
	slog.Debug("spawned child process", "path", path, "pid", cmd.Process.Pid)

	c := &Controller{
		cmd:    cmd,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		exited: make(chan struct{}),
	}

	// Reap via os.Process.Wait rather than exec.Cmd.Wait so the pump can keep
	// draining the stdout pipe while the exit status is collected.
	go func() {
		state, err := cmd.Process.Wait()
		if err != nil {
			c.exitCode = -1
		} else {
			c.exitCode = state.ExitCode()
		}
		close(c.exited)
	}()

	return c, nil
}

// Stdout returns the child's output stream for the pump to drain.
func (c *Controller) Stdout() io.Reader {
	return c.stdout
}

// StderrTail returns the retained tail of the child's stderr.
func (c *Controller) StderrTail() string {
	return c.stderr.String()
}

// WriteInput writes data to the child's input. A closed pipe is reported as
// ErrInputClosed so the orchestrator can classify it instead of failing.
func (c *Controller) WriteInput(data []byte) error {
	_, err := c.stdin.Write(data)
	if err == nil {
		return nil
	}
	if errors.Is(err, syscall.EPIPE) || errors.Is(err, io.ErrClosedPipe) || errors.Is(err, fs.ErrClosed) {
		return ErrInputClosed
	}
	return fmt.Errorf("writing to child input: %w", err)
}

// CloseInput closes the child's input to signal EOF. Idempotent.
func (c *Controller) CloseInput() {
	c.closeOnce.Do(func() {
		_ = c.stdin.Close()
	})
}

// PollExit reports the exit code if the process has already exited.
// Non-blocking.
func (c *Controller) PollExit() (code int, exited bool) {
	select {
	case <-c.exited:
		return c.exitCode, true
	default:
		return 0, false
	}
}

// WaitExit blocks until the process exits or done is closed, whichever comes
// first. The second return is false when done won the race.
func (c *Controller) WaitExit(done <-chan struct{}) (code int, exited bool) {
	select {
	case <-c.exited:
		return c.exitCode, true
	case <-done:
		// The process may have exited at the same instant; prefer that.
		select {
		case <-c.exited:
			return c.exitCode, true
		default:
			return 0, false
		}
	}
}

// Terminate kills the child. Safe to call on an already-exited process and
// safe to call more than once.
func (c *Controller) Terminate() {
	c.termOnce.Do(func() {
		select {
		case <-c.exited:
			return
		default:
		}
		if err := c.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			slog.Debug("kill child process", "pid", c.cmd.Process.Pid, "err", err)
		}
	})
}

// Release tears the process down exactly once: terminates it if needed,
// waits for the reaper, and closes both pipe ends. Called via defer from the
// orchestrator so the child is reaped regardless of verdict path.
func (c *Controller) Release() {
	c.freeOnce.Do(func() {
		c.Terminate()
		<-c.exited
		c.CloseInput()
		_ = c.stdout.Close()
		slog.Debug("released child process", "pid", c.cmd.Process.Pid, "exit_code", c.exitCode)
	})
}

// boundedBuffer keeps the trailing cap bytes written to it.
type boundedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
	cap int
}

func (b *boundedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Write(p)
	if b.buf.Len() > b.cap {
		trimmed := b.buf.Bytes()[b.buf.Len()-b.cap:]
		var nb bytes.Buffer
		nb.Write(trimmed)
		b.buf = nb
	}
	return len(p), nil
}

func (b *boundedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
