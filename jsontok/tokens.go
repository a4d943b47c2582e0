// Package jsontok provides a forward-only pull tokenizer over JSON documents.
//
// Tokens are structural events rather than values: callers see object and
// array boundaries, field names and scalars, and decide for themselves what
// to skip. Nothing is materialised into a value tree.
package jsontok

import "fmt"

// Kind is the kind of a structural JSON event.
type Kind int

const (
	// EOF marks the end of the token stream.
	EOF Kind = iota
	// ObjectStart is an opening brace.
	ObjectStart
	// ObjectEnd is a closing brace.
	ObjectEnd
	// ArrayStart is an opening bracket.
	ArrayStart
	// ArrayEnd is a closing bracket.
	ArrayEnd
	// FieldName is an object member name.
	FieldName
	// Scalar is a string, number, boolean or null value.
	Scalar
)

var kindNames = [...]string{
	EOF:         "eof",
	ObjectStart: "object_start",
	ObjectEnd:   "object_end",
	ArrayStart:  "array_start",
	ArrayEnd:    "array_end",
	FieldName:   "field_name",
	Scalar:      "scalar",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Location is a position inside a JSON document.
// Line and Column are 1-based; Column counts bytes.
type Location struct {
	Offset int
	Line   int
	Column int
}

func (l Location) String() string {
	return fmt.Sprintf("line %d, column %d (offset %d)", l.Line, l.Column, l.Offset)
}

// Tokens is a forward-only JSON token stream.
//
// Next advances to the next token. After the last token it returns EOF
// with a nil error, and keeps doing so.
//
// Name reports the most recent field name. It is meaningful while the stream
// is positioned on a FieldName token or on the value that follows it.
//
// Location reports where the current token starts.
type Tokens interface {
	Next() (Kind, error)
	Name() string
	Location() Location
}

// SyntaxError reports malformed JSON.
type SyntaxError struct {
	Msg string
	Loc Location
	Err error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("json syntax error at %s: %s", e.Loc, e.Msg)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}
