package jsontok

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	parse "github.com/tdewolff/parse/v2"
	pjson "github.com/tdewolff/parse/v2/json"
)

type container uint8

const (
	inObject container = iota + 1
	inArray
)

// Lexer is a Tokens implementation driven by the tdewolff JSON grammar parser.
//
// The grammar parser reports object keys and string values alike, so the
// lexer keeps its own container stack to tell field names from scalars.
type Lexer struct {
	doc    []byte
	parser *pjson.Parser

	stack   []container
	wantKey bool

	pos   int // offset just past the last consumed token
	start int // offset of the current token

	name string
	text string
	done bool
	err  error
}

var _ Tokens = (*Lexer)(nil)

// NewLexer returns a lexer over a copy of doc.
func NewLexer(doc []byte) *Lexer {
	buf := make([]byte, len(doc))
	copy(buf, doc)
	return newLexer(buf)
}

// NewLexerString returns a lexer over s.
func NewLexerString(s string) *Lexer {
	return newLexer([]byte(s))
}

func newLexer(buf []byte) *Lexer {
	return &Lexer{
		doc:    buf,
		parser: pjson.NewParser(parse.NewInputBytes(buf)),
	}
}

// Next implements Tokens.
func (l *Lexer) Next() (Kind, error) {
	if l.err != nil {
		return EOF, l.err
	}
	if l.done {
		return EOF, nil
	}

	for {
		l.start = l.skipSeparators(l.pos)
		gt, data := l.parser.Next()

		switch gt {
		case pjson.ErrorGrammar:
			return EOF, l.stop(l.parser.Err())

		case pjson.WhitespaceGrammar:
			l.pos = l.start + len(data)

		case pjson.StartObjectGrammar:
			l.pos = l.start + len(data)
			l.push(inObject)
			return ObjectStart, nil

		case pjson.EndObjectGrammar:
			l.pos = l.start + len(data)
			l.pop()
			return ObjectEnd, nil

		case pjson.StartArrayGrammar:
			l.pos = l.start + len(data)
			l.push(inArray)
			return ArrayStart, nil

		case pjson.EndArrayGrammar:
			l.pos = l.start + len(data)
			l.pop()
			return ArrayEnd, nil

		case pjson.StringGrammar:
			s, err := unquote(data)
			if err != nil {
				l.err = l.syntaxError("invalid string literal", err)
				return EOF, l.err
			}
			if l.wantKey && l.top() == inObject {
				l.name = s
				l.text = s
				l.wantKey = false
				l.pos = l.skipColon(l.start + len(data))
				return FieldName, nil
			}
			l.text = s
			l.pos = l.start + len(data)
			l.valueDone()
			return Scalar, nil

		default:
			l.text = string(data)
			l.pos = l.start + len(data)
			l.valueDone()
			return Scalar, nil
		}
	}
}

// Name implements Tokens.
func (l *Lexer) Name() string {
	return l.name
}

// Text returns the current scalar or field name. Strings are unquoted;
// numbers and literals are returned as written.
func (l *Lexer) Text() string {
	return l.text
}

// Depth returns the number of open containers.
func (l *Lexer) Depth() int {
	return len(l.stack)
}

// Location implements Tokens.
func (l *Lexer) Location() Location {
	return locate(l.doc, l.start)
}

func (l *Lexer) stop(err error) error {
	if err == nil || errors.Is(err, io.EOF) {
		if len(l.stack) > 0 {
			l.err = l.syntaxError("unexpected end of input", io.ErrUnexpectedEOF)
			return l.err
		}
		l.done = true
		return nil
	}

	msg := err.Error()
	var perr *parse.Error
	if errors.As(err, &perr) {
		msg = perr.Message
	}
	l.err = l.syntaxError(msg, err)
	return l.err
}

func (l *Lexer) syntaxError(msg string, err error) *SyntaxError {
	return &SyntaxError{Msg: msg, Loc: l.Location(), Err: err}
}

func (l *Lexer) push(c container) {
	l.stack = append(l.stack, c)
	l.wantKey = c == inObject
}

func (l *Lexer) pop() {
	if len(l.stack) > 0 {
		l.stack = l.stack[:len(l.stack)-1]
	}
	l.valueDone()
}

// valueDone records that a complete value was consumed in the enclosing
// container, so an object expects its next key.
func (l *Lexer) valueDone() {
	l.wantKey = l.top() == inObject
}

func (l *Lexer) top() container {
	if len(l.stack) == 0 {
		return 0
	}
	return l.stack[len(l.stack)-1]
}

// skipSeparators mirrors the grammar parser: whitespace, at most one comma,
// whitespace.
func (l *Lexer) skipSeparators(pos int) int {
	pos = l.skipSpace(pos)
	if pos < len(l.doc) && l.doc[pos] == ',' {
		pos = l.skipSpace(pos + 1)
	}
	return pos
}

func (l *Lexer) skipColon(pos int) int {
	pos = l.skipSpace(pos)
	if pos < len(l.doc) && l.doc[pos] == ':' {
		pos++
	}
	return pos
}

func (l *Lexer) skipSpace(pos int) int {
	for pos < len(l.doc) {
		switch l.doc[pos] {
		case ' ', '\t', '\n', '\r':
			pos++
		default:
			return pos
		}
	}
	return pos
}

func unquote(data []byte) (string, error) {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return "", errors.New("unterminated string")
	}
	if bytes.IndexByte(data, '\\') < 0 {
		return string(data[1 : len(data)-1]), nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return "", err
	}
	return s, nil
}

func locate(doc []byte, offset int) Location {
	if offset > len(doc) {
		offset = len(doc)
	}
	line := 1 + bytes.Count(doc[:offset], []byte{'\n'})
	col := offset + 1
	if i := bytes.LastIndexByte(doc[:offset], '\n'); i >= 0 {
		col = offset - i
	}
	return Location{Offset: offset, Line: line, Column: col}
}
