package editor

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// Control bytes handled by Feed.
const (
	byteCtrlC = 0x03
	byteCtrlD = 0x04
	byteTab   = 0x09
	byteLF    = 0x0a
	byteCR    = 0x0d
	byteCtrlW = 0x17
	byteEsc   = 0x1b
	byteDel   = 0x7f
)

const delimiter = ' '

// DefaultMaxLine bounds ReadLine when no limit is configured.
const DefaultMaxLine = 4096

var (
	// ErrLineTooLong reports a stream line exceeding the scan bound.
	ErrLineTooLong = errors.New("editor: line too long")
	// ErrIO wraps stream failures other than EOF.
	ErrIO = errors.New("editor: read failed")
)

// ActionKind is the semantic result of feeding one byte.
type ActionKind uint8

const (
	ActionNone ActionKind = iota
	ActionPending // mid escape sequence, more bytes expected
	ActionSubmit
	ActionRedraw
	ActionClear
	ActionQuit
	ActionMoveLeft
	ActionMoveRight
	ActionRecallOlder
	ActionRecallNewer
	ActionReport
)

// Action is what the dispatch loop acts on. Byte carries the offending
// input for ActionReport.
type Action struct {
	Kind ActionKind
	Byte byte
}

// escState tracks the escape-sequence sub-state between bytes.
type escState uint8

const (
	stateGround escState = iota
	stateEscape
	stateCSI
)

// Editor buffers a pending command line one byte at a time and tokenizes
// it on submission.
type Editor struct {
	raw     []byte
	tokens  []Token
	state   escState
	maxLine int
}

// New returns an editor bounded by maxLine for stream reads; a
// non-positive bound selects DefaultMaxLine.
func New(maxLine int) *Editor {
	if maxLine <= 0 {
		maxLine = DefaultMaxLine
	}
	return &Editor{
		raw:     make([]byte, 0, 128),
		maxLine: maxLine,
	}
}

// Feed advances the state machine by one input byte.
func (e *Editor) Feed(b byte) Action {
	switch e.state {
	case stateEscape:
		if b == '[' {
			e.state = stateCSI
			return Action{Kind: ActionPending}
		}
		e.state = stateGround
		return Action{Kind: ActionReport, Byte: b}

	case stateCSI:
		e.state = stateGround
		switch b {
		case 'A':
			return Action{Kind: ActionRecallOlder}
		case 'B':
			return Action{Kind: ActionRecallNewer}
		case 'C':
			return Action{Kind: ActionMoveRight}
		case 'D':
			return Action{Kind: ActionMoveLeft}
		}
		return Action{Kind: ActionReport, Byte: b}
	}

	switch b {
	case byteLF, byteCR:
		if len(e.Parse()) > 0 {
			return Action{Kind: ActionSubmit}
		}
		return Action{Kind: ActionRedraw}
	case byteDel:
		e.Pop()
		return Action{Kind: ActionNone}
	case byteCtrlC:
		e.Clear()
		return Action{Kind: ActionClear}
	case byteCtrlD:
		return Action{Kind: ActionQuit}
	case byteTab:
		e.complete()
		return Action{Kind: ActionNone}
	case byteCtrlW:
		// Word erase is reserved; report until it lands.
		return Action{Kind: ActionReport, Byte: b}
	case byteEsc:
		e.state = stateEscape
		return Action{Kind: ActionPending}
	}

	if b >= 0x20 {
		e.raw = append(e.raw, b)
		return Action{Kind: ActionNone}
	}
	return Action{Kind: ActionReport, Byte: b}
}

// complete is the completion hook. Always handled, buffer untouched.
func (e *Editor) complete() bool { return true }

// Pop removes the last pending byte; no-op on an empty buffer.
func (e *Editor) Pop() {
	if n := len(e.raw); n > 0 {
		e.raw = e.raw[:n-1]
	}
}

// Clear empties the raw buffer and the token sequence together.
func (e *Editor) Clear() {
	e.raw = e.raw[:0]
	e.tokens = e.tokens[:0]
	e.state = stateGround
}

// Raw returns the pending line bytes.
func (e *Editor) Raw() []byte { return e.raw }

// Len returns the pending line length.
func (e *Editor) Len() int { return len(e.raw) }

// Tokens returns the tokens from the most recent parse.
func (e *Editor) Tokens() []Token { return e.tokens }

// SetRaw replaces the pending line wholesale, invalidating tokens.
// Used by history recall.
func (e *Editor) SetRaw(line []byte) {
	e.raw = append(e.raw[:0], line...)
	e.tokens = e.tokens[:0]
}

// Parse tokenizes the raw buffer into whitespace-delimited tokens. Empty
// tokens from consecutive delimiters are skipped. No quoting, escaping or
// multi-byte delimiters.
func (e *Editor) Parse() []Token {
	e.tokens = e.tokens[:0]
	start := -1
	for i, b := range e.raw {
		if b == delimiter {
			if start >= 0 {
				e.tokens = append(e.tokens, Token{text: e.raw[start:i], kind: KindString})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		e.tokens = append(e.tokens, Token{text: e.raw[start:], kind: KindString})
	}
	return e.tokens
}

// ReadLine consumes one newline-terminated line from a non-interactive
// byte stream into the raw buffer, bounded by the editor's scan limit.
// A final unterminated line is returned as-is; io.EOF surfaces only when
// nothing was read.
func (e *Editor) ReadLine(r *bufio.Reader) error {
	e.Clear()
	for {
		b, err := r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				if len(e.raw) > 0 {
					return nil
				}
				return io.EOF
			}
			return fmt.Errorf("%w: %v", ErrIO, err)
		}
		if b == byteLF {
			return nil
		}
		if len(e.raw) >= e.maxLine {
			return ErrLineTooLong
		}
		e.raw = append(e.raw, b)
	}
}
