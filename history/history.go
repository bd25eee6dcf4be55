// Package history persists commands to an append-only, newline-delimited
// log and recalls them by seeking backward through the file. Nothing is
// ever loaded wholesale; per-operation cost is bounded by the lines
// actually touched.
package history

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// dedupMax is the largest candidate the adjacent-duplicate probe will
// consider. Longer lines are never duplicates.
const dedupMax = 2048

// DefaultMaxScan bounds the backward chunk scan when unconfigured.
const DefaultMaxScan = 4096

// ErrEmptyLine reports a Push precondition violation.
var ErrEmptyLine = errors.New("history: empty line")

// Store wraps a caller-owned history file handle plus the session's
// recall depth: how many backward steps the current recall has taken.
type Store struct {
	f       *os.File
	depth   int
	maxScan int
	chunk   []byte // scratch for backward boundary scans
}

// Option configures a Store.
type Option func(*Store)

// WithMaxScan sets the backward scan chunk bound.
func WithMaxScan(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxScan = n
		}
	}
}

// New wraps an open history file. The handle stays owned by the caller;
// the store only seeks, reads and appends.
func New(f *os.File, opts ...Option) *Store {
	s := &Store{f: f, maxScan: DefaultMaxScan}
	for _, o := range opts {
		o(s)
	}
	s.chunk = make([]byte, min(s.maxScan, 512))
	return s
}

// Depth returns the current recall depth.
func (s *Store) Depth() int { return s.depth }

// Advance takes one more backward step in the recall session.
func (s *Store) Advance() { s.depth++ }

// Retreat undoes one backward step.
func (s *Store) Retreat() {
	if s.depth > 0 {
		s.depth--
	}
}

// ResetDepth ends the recall session.
func (s *Store) ResetDepth() { s.depth = 0 }

// Push appends line to the log unless it repeats the immediately
// preceding entry, and forces the write to storage. A terminator is
// added when absent. The recall depth resets to zero whether or not a
// write happened. An empty line is a contract violation.
func (s *Store) Push(line []byte) error {
	defer func() { s.depth = 0 }()

	line = bytes.TrimSuffix(line, []byte{'\n'})
	if len(line) == 0 {
		return ErrEmptyLine
	}

	end, err := s.f.Seek(0, io.SeekEnd)
	if err != nil {
		return fmt.Errorf("history: seek: %w", err)
	}
	if s.isLastEntry(end, line) {
		return nil
	}

	buf := make([]byte, 0, len(line)+1)
	buf = append(buf, line...)
	buf = append(buf, '\n')
	if _, err := s.f.Write(buf); err != nil {
		return fmt.Errorf("history: append: %w", err)
	}
	if err := s.f.Sync(); err != nil {
		return fmt.Errorf("history: sync: %w", err)
	}
	return nil
}

// isLastEntry reports whether line exactly repeats the final stored
// entry. It probes len(line)+2 bytes back from end and wants a line
// terminator followed by the candidate bytes; start-of-file counts as a
// boundary for the very first entry. Oversized candidates and any
// seek/read shortfall are never duplicates.
func (s *Store) isLastEntry(end int64, line []byte) bool {
	if len(line) > dedupMax {
		return false
	}
	span := int64(len(line)) + 2
	if off := end - span; off >= 0 {
		buf := make([]byte, span)
		if _, err := s.f.ReadAt(buf, off); err != nil {
			return false
		}
		return buf[0] == '\n' && bytes.Equal(buf[1:1+len(line)], line)
	}
	if end == int64(len(line))+1 {
		buf := make([]byte, end)
		if _, err := s.f.ReadAt(buf, 0); err != nil {
			return false
		}
		return bytes.Equal(buf[:len(line)], line)
	}
	return false
}

// lineStart returns the offset where the line ending at the boundary end
// begins. end sits just past a line terminator, or at end-of-file. Zero
// means the scan hit the start of the file.
func (s *Store) lineStart(end int64) (int64, error) {
	// The line's own terminator lives at end-1; search strictly before it.
	limit := end - 1
	for limit > 0 {
		n := int64(len(s.chunk))
		if n > limit {
			n = limit
		}
		off := limit - n
		if _, err := s.f.ReadAt(s.chunk[:n], off); err != nil {
			return 0, fmt.Errorf("history: scan: %w", err)
		}
		if i := bytes.LastIndexByte(s.chunk[:n], '\n'); i >= 0 {
			return off + int64(i) + 1, nil
		}
		limit = off
	}
	return 0, nil
}

// consumeLine materializes the line ending at boundary end into dst,
// without its terminator, truncating at len(dst). It returns the line's
// start offset (the boundary for the next backward step) and the byte
// count copied.
func (s *Store) consumeLine(end int64, dst []byte) (start int64, n int, err error) {
	start, err = s.lineStart(end)
	if err != nil {
		return 0, 0, err
	}
	span := end - start
	if span <= 0 {
		return start, 0, nil
	}
	rn := span
	if rn > int64(len(dst)) {
		rn = int64(len(dst))
	}
	if _, err := s.f.ReadAt(dst[:rn], start); err != nil && err != io.EOF {
		return 0, 0, fmt.Errorf("history: read: %w", err)
	}
	n = int(rn)
	if rn == span && n > 0 && dst[n-1] == '\n' {
		n--
	}
	return start, n, nil
}

// ReadAt recalls the depth-th most recent entry into dst: peek-skip
// depth line boundaries backward from end-of-file, then consume one
// line. Depth zero recalls the newest entry. io.EOF reports a recall
// past the start of the file.
func (s *Store) ReadAt(dst []byte) (int, error) {
	end, err := s.f.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("history: seek: %w", err)
	}
	for i := 0; i < s.depth; i++ {
		if end == 0 {
			return 0, io.EOF
		}
		end, err = s.lineStart(end)
		if err != nil {
			return 0, err
		}
	}
	if end == 0 {
		return 0, io.EOF
	}
	_, n, err := s.consumeLine(end, dst)
	return n, err
}

// ReadAtFiltered recalls like ReadAt but only lines starting with prefix
// count toward the depth; others are skipped without consuming a step.
// The walk stops at depth matches or the start of the file, returning
// the match or, when nothing matched at all, the most recent line. An
// empty prefix matches everything.
func (s *Store) ReadAtFiltered(dst []byte, prefix []byte) (int, error) {
	end, err := s.f.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("history: seek: %w", err)
	}
	if end == 0 {
		return 0, io.EOF
	}

	scratch := make([]byte, len(dst))
	matches := 0
	best := 0
	haveLine := false

	for end > 0 {
		start, n, err := s.consumeLine(end, scratch)
		if err != nil {
			return 0, err
		}
		line := scratch[:n]
		if !haveLine {
			// Most recent line, kept as the no-match fallback.
			best = copy(dst, line)
			haveLine = true
		}
		if bytes.HasPrefix(line, prefix) {
			best = copy(dst, line)
			if matches == s.depth {
				return best, nil
			}
			matches++
		}
		end = start
	}
	if !haveLine {
		return 0, io.EOF
	}
	return best, nil
}
