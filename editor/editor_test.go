package editor

import (
	"bufio"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feed(e *Editor, input string) Action {
	var last Action
	for i := 0; i < len(input); i++ {
		last = e.Feed(input[i])
	}
	return last
}

func tokenStrings(toks []Token) []string {
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = t.String()
	}
	return out
}

func TestFeedAndParse(t *testing.T) {
	e := New(0)
	act := feed(e, "ls -la\r")
	assert.Equal(t, ActionSubmit, act.Kind)
	assert.Equal(t, []string{"ls", "-la"}, tokenStrings(e.Tokens()))
	for _, tok := range e.Tokens() {
		assert.Equal(t, KindString, tok.Kind())
	}
}

func TestParseEmpty(t *testing.T) {
	e := New(0)
	assert.Empty(t, e.Parse())
}

func TestParseDelimitersOnly(t *testing.T) {
	e := New(0)
	e.SetRaw([]byte("    "))
	assert.Empty(t, e.Parse())
}

func TestParseSkipsEmptyTokens(t *testing.T) {
	e := New(0)
	e.SetRaw([]byte("  git   log  "))
	assert.Equal(t, []string{"git", "log"}, tokenStrings(e.Parse()))
}

func TestSubmitEmptyRedraws(t *testing.T) {
	e := New(0)
	assert.Equal(t, ActionRedraw, e.Feed('\n').Kind)
	act := feed(e, "   \n")
	assert.Equal(t, ActionRedraw, act.Kind)
}

func TestPopEmptyNoop(t *testing.T) {
	e := New(0)
	e.Pop()
	assert.Zero(t, e.Len())

	feed(e, "ab")
	e.Feed(byteDel)
	assert.Equal(t, []byte("a"), e.Raw())
}

func TestClearEmptiesBoth(t *testing.T) {
	e := New(0)
	feed(e, "ls -la")
	e.Parse()
	require.NotEmpty(t, e.Tokens())

	e.Clear()
	assert.Zero(t, e.Len())
	assert.Empty(t, e.Tokens())
	assert.Empty(t, e.Parse())
}

func TestCtrlCClearsNeverQuits(t *testing.T) {
	e := New(0)
	feed(e, "rm -rf /tmp/x")
	act := e.Feed(byteCtrlC)
	assert.Equal(t, ActionClear, act.Kind)
	assert.Zero(t, e.Len())
	assert.Empty(t, e.Tokens())
}

func TestCtrlDQuits(t *testing.T) {
	e := New(0)
	assert.Equal(t, ActionQuit, e.Feed(byteCtrlD).Kind)
}

func TestTabStubLeavesBuffer(t *testing.T) {
	e := New(0)
	feed(e, "gi")
	act := e.Feed(byteTab)
	assert.Equal(t, ActionNone, act.Kind)
	assert.Equal(t, []byte("gi"), e.Raw())
}

func TestCtrlWReported(t *testing.T) {
	e := New(0)
	act := e.Feed(byteCtrlW)
	assert.Equal(t, ActionReport, act.Kind)
	assert.Equal(t, byte(byteCtrlW), act.Byte)
}

func TestCSIArrows(t *testing.T) {
	e := New(0)
	assert.Equal(t, ActionMoveLeft, feed(e, "\x1b[D").Kind)
	assert.Equal(t, ActionMoveRight, feed(e, "\x1b[C").Kind)
	assert.Equal(t, ActionRecallOlder, feed(e, "\x1b[A").Kind)
	assert.Equal(t, ActionRecallNewer, feed(e, "\x1b[B").Kind)
}

func TestEscapeIntermediatesPending(t *testing.T) {
	e := New(0)
	assert.Equal(t, ActionPending, e.Feed(byteEsc).Kind)
	assert.Equal(t, ActionPending, e.Feed('[').Kind)
	assert.Equal(t, ActionRecallOlder, e.Feed('A').Kind)
}

func TestCSIUnrecognizedReported(t *testing.T) {
	e := New(0)
	act := feed(e, "\x1b[Z")
	assert.Equal(t, ActionReport, act.Kind)
	assert.Equal(t, byte('Z'), act.Byte)

	// Sub-state resets; following bytes are ordinary input again.
	feed(e, "ok")
	assert.Equal(t, []byte("ok"), e.Raw())
}

func TestEscapeWithoutBracketReported(t *testing.T) {
	e := New(0)
	act := feed(e, "\x1bq")
	assert.Equal(t, ActionReport, act.Kind)
	assert.Equal(t, byte('q'), act.Byte)
}

func TestOtherControlReported(t *testing.T) {
	e := New(0)
	act := e.Feed(0x01)
	assert.Equal(t, ActionReport, act.Kind)
	assert.Equal(t, byte(0x01), act.Byte)
	assert.Zero(t, e.Len())
}

func TestTokensAreViews(t *testing.T) {
	e := New(0)
	e.SetRaw([]byte("ls"))
	toks := e.Parse()
	require.Len(t, toks, 1)
	// Mutating the raw buffer shows through the token view.
	e.Raw()[0] = 'x'
	assert.Equal(t, "xs", toks[0].String())
}

func TestReadLine(t *testing.T) {
	e := New(0)
	br := bufio.NewReader(strings.NewReader("echo hi\necho bye"))

	require.NoError(t, e.ReadLine(br))
	assert.Equal(t, []byte("echo hi"), e.Raw())

	require.NoError(t, e.ReadLine(br))
	assert.Equal(t, []byte("echo bye"), e.Raw())

	assert.ErrorIs(t, e.ReadLine(br), io.EOF)
}

func TestReadLineTooLong(t *testing.T) {
	e := New(8)
	br := bufio.NewReader(strings.NewReader(strings.Repeat("a", 64) + "\n"))
	assert.ErrorIs(t, e.ReadLine(br), ErrLineTooLong)
}
