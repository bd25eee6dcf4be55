package editor

// Kind classifies a token. The set is closed but extensible; operators
// and redirection markers slot in as new kinds without reshaping callers.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindString
)

// Token is a view into the editor's raw buffer, not a copy. It is valid
// only until the buffer is next mutated; callers clear before editing.
type Token struct {
	text []byte
	kind Kind
}

// Bytes returns the token's backing bytes.
func (t Token) Bytes() []byte { return t.text }

// String copies the token into a string.
func (t Token) String() string { return string(t.text) }

// Kind returns the token's classification.
func (t Token) Kind() Kind { return t.kind }
