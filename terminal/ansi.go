package terminal

// Opcode selects one fixed control sequence for Emit.
// The set is closed; new sequences get a new opcode rather than
// callers writing escape bytes themselves.
type Opcode uint8

const (
	OpEraseLine Opcode = iota // erase from cursor to end of line
	OpCursorUp
	OpCursorDown
	OpCursorRight
	OpCursorLeft
	OpCursorCol1  // cursor to column 1 of the current row
	OpCursorQuery // DSR: terminal replies ESC[row;colR
)

// Pre-allocated sequence fragments (avoid allocations on the byte loop)
var (
	seqEraseLine   = []byte("\x1b[K")
	seqCursorUp    = []byte("\x1b[A")
	seqCursorDown  = []byte("\x1b[B")
	seqCursorRight = []byte("\x1b[C")
	seqCursorLeft  = []byte("\x1b[D")
	seqCursorCol1  = []byte("\x1b[G")
	seqCursorQuery = []byte("\x1b[6n")
)

var opSeq = [...][]byte{
	OpEraseLine:   seqEraseLine,
	OpCursorUp:    seqCursorUp,
	OpCursorDown:  seqCursorDown,
	OpCursorRight: seqCursorRight,
	OpCursorLeft:  seqCursorLeft,
	OpCursorCol1:  seqCursorCol1,
	OpCursorQuery: seqCursorQuery,
}
