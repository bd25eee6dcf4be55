package terminal

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
)

// DefaultPath is the controlling terminal device.
const DefaultPath = "/dev/tty"

// Session owns one raw-mode terminal for the lifetime of the process.
// At most one Session is active per process; the resize watcher installs
// a process-wide SIGWINCH subscription.
type Session struct {
	tty *os.File
	fd  int
	out *bufio.Writer

	orig *termState // original attributes, restored exactly once

	// rows<<32 | cols, written by the resize watcher, read by the loop.
	// A single packed word keeps the shared state to one atomic cell.
	geom atomic.Uint64

	// Logical cursor offset accumulated from arrow-key navigation that
	// never moved the real cursor. Prompt replays it as cursor-left
	// sequences before erasing the stale line.
	adjust int

	row, col int // cursor estimate from the last DSR round trip

	restoreOnce sync.Once
	winchStop   chan struct{}
	winchDone   chan struct{}
}

// Open opens the terminal device read/write, captures the original mode
// attributes and installs raw mode: no echo, no canonical buffering, no
// signal or extended input processing, no flow control or CR translation,
// reads return after one byte with no timeout.
func Open(path string) (*Session, error) {
	if path == "" {
		path = DefaultPath
	}
	tty, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open terminal: %w", err)
	}

	s := &Session{
		tty: tty,
		fd:  int(tty.Fd()),
		out: bufio.NewWriter(tty),
	}

	orig, err := makeRaw(s.fd)
	if err != nil {
		tty.Close()
		return nil, fmt.Errorf("raw mode: %w", err)
	}
	s.orig = orig

	if rows, cols, err := winSize(s.fd); err == nil {
		s.storeGeom(rows, cols)
	}
	// Best effort; some terminals answer DSR slowly or not at all.
	s.row, s.col, _ = s.CursorPos()

	s.watchResize()
	return s, nil
}

// ReadByte blocks until one input byte arrives.
func (s *Session) ReadByte() (byte, error) {
	var b [1]byte
	if _, err := s.tty.Read(b[:]); err != nil {
		return 0, fmt.Errorf("terminal read: %w", err)
	}
	return b[0], nil
}

// Write passes bytes through to the terminal.
func (s *Session) Write(p []byte) (int, error) {
	n, err := s.out.Write(p)
	if err == nil {
		err = s.out.Flush()
	}
	return n, err
}

// Print writes a plain string.
func (s *Session) Print(text string) error {
	if _, err := s.out.WriteString(text); err != nil {
		return err
	}
	return s.out.Flush()
}

// Printf writes a formatted string.
func (s *Session) Printf(format string, args ...any) error {
	if _, err := fmt.Fprintf(s.out, format, args...); err != nil {
		return err
	}
	return s.out.Flush()
}

// Prompt renders the active prompt line: formatted text, erase to end of
// line, then the pending adjustment replayed as cursor-left sequences.
// Callers lead the format with \r so the line is redrawn in place.
func (s *Session) Prompt(format string, args ...any) error {
	if _, err := fmt.Fprintf(s.out, format, args...); err != nil {
		return err
	}
	s.out.Write(seqEraseLine)
	for i := 0; i < s.adjust; i++ {
		s.out.Write(seqCursorLeft)
	}
	return s.out.Flush()
}

// PrintBelow shows transient feedback on the row under the active prompt
// without permanently consuming it: line break, text, erase to end of
// line, cursor back up.
func (s *Session) PrintBelow(format string, args ...any) error {
	s.out.WriteByte('\n')
	if _, err := fmt.Fprintf(s.out, format, args...); err != nil {
		return err
	}
	s.out.Write(seqEraseLine)
	s.out.Write(seqCursorUp)
	return s.out.Flush()
}

// Emit writes one fixed control sequence.
func (s *Session) Emit(op Opcode) error {
	if int(op) >= len(opSeq) {
		return fmt.Errorf("terminal: unknown opcode %d", op)
	}
	if _, err := s.out.Write(opSeq[op]); err != nil {
		return err
	}
	return s.out.Flush()
}

// AdjustLeft records one logical cursor-left step.
func (s *Session) AdjustLeft() { s.adjust++ }

// AdjustRight undoes one logical cursor-left step.
func (s *Session) AdjustRight() {
	if s.adjust > 0 {
		s.adjust--
	}
}

// ResetAdjust clears the logical cursor offset.
func (s *Session) ResetAdjust() { s.adjust = 0 }

// Adjust returns the pending logical cursor offset.
func (s *Session) Adjust() int { return s.adjust }

// WindowSize returns terminal rows and columns. It re-queries the winsize
// ioctl and falls back to the last value the resize watcher stored.
func (s *Session) WindowSize() (rows, cols int) {
	if r, c, err := winSize(s.fd); err == nil {
		s.storeGeom(r, c)
		return r, c
	}
	return s.loadGeom()
}

// CursorPos queries the cursor position with a DSR round trip: emit
// ESC[6n and parse the ESC[row;colR reply from one bounded read. Best
// effort only; the terminal is trusted to answer promptly and the reply
// to fit the buffer.
func (s *Session) CursorPos() (row, col int, err error) {
	if err := s.Emit(OpCursorQuery); err != nil {
		return 0, 0, err
	}
	var buf [32]byte
	n, err := s.tty.Read(buf[:])
	if err != nil {
		return 0, 0, fmt.Errorf("cursor query: %w", err)
	}
	if _, err := fmt.Sscanf(string(buf[:n]), "\x1b[%d;%dR", &row, &col); err != nil {
		return 0, 0, fmt.Errorf("cursor reply %q: %w", buf[:n], err)
	}
	s.row, s.col = row, col
	return row, col, nil
}

// Restore puts the terminal back into its original mode and releases the
// device. Safe to call from any teardown or fault path, any number of
// times; failures are logged, never propagated.
func (s *Session) Restore() {
	s.restoreOnce.Do(func() {
		s.stopResize()
		s.out.Flush()
		if s.orig != nil {
			if err := restoreState(s.fd, s.orig); err != nil {
				slog.Error("terminal restore failed", "error", err)
			}
		}
		if err := s.tty.Close(); err != nil {
			slog.Error("terminal close failed", "error", err)
		}
	})
}

func (s *Session) storeGeom(rows, cols int) {
	s.geom.Store(uint64(uint32(rows))<<32 | uint64(uint32(cols)))
}

func (s *Session) loadGeom() (rows, cols int) {
	g := s.geom.Load()
	return int(g >> 32), int(uint32(g))
}

// Fd exposes the underlying descriptor for ioctl-level tests.
func (s *Session) Fd() int { return s.fd }
