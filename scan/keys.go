// Package scan extracts ordered object keys from a JSON token stream.
//
// CouchDB emits attachment body-parts in the order their names appear in the
// document's _attachments object. Map decoding loses that order, so the
// names are read straight off the tokens in a single forward pass.
//
// Only the root object is walked. Object-valued siblings are skipped with a
// depth counter. Array-valued siblings are consumed token by token: objects
// nested in them are skipped as they are met, and their brackets are
// ignored.
package scan

import (
	"errors"
	"fmt"

	"github.com/pithecene-io/couchpart/jsontok"
)

// AttachmentsKey is the document member listing attachment metadata.
const AttachmentsKey = "_attachments"

// StructureError reports a document whose shape does not allow key
// extraction, such as a non-object root or a non-object member value.
type StructureError struct {
	Key string
	Msg string
	Loc jsontok.Location
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("%s: %s at %s", e.Key, e.Msg, e.Loc)
}

// IsParseError reports whether err is a structural or syntax error from
// scanning a document.
func IsParseError(err error) bool {
	var structErr *StructureError
	if errors.As(err, &structErr) {
		return true
	}
	var synErr *jsontok.SyntaxError
	return errors.As(err, &synErr)
}

// AttachmentNames returns the attachment names of the document in t, in
// document order. found is false when the document has no _attachments member.
func AttachmentNames(t jsontok.Tokens) (names []string, found bool, err error) {
	return OrderedKeys(t, AttachmentsKey)
}

// OrderedKeys walks the root object in t looking for key and returns the
// member names of its object value in document order. Every member value
// must itself be an object.
//
// t must be positioned before the first token. On success the stream is
// left just past the closing brace of key's object; when key is absent it is
// left on the root's closing brace. On error no names are returned.
func OrderedKeys(t jsontok.Tokens, key string) (names []string, found bool, err error) {
	if err := enterRoot(t, key); err != nil {
		return nil, false, err
	}

	for {
		kind, err := t.Next()
		if err != nil {
			return nil, false, err
		}

		switch kind {
		case jsontok.ObjectEnd:
			return nil, false, nil
		case jsontok.EOF:
			return nil, false, structureError(t, key, "document ended before the root object closed")
		case jsontok.FieldName:
			if t.Name() == key {
				names, err := memberKeys(t, key)
				if err != nil {
					return nil, false, err
				}
				return names, true, nil
			}
		case jsontok.ObjectStart:
			if err := skipObject(t, key); err != nil {
				return nil, false, err
			}
		}
	}
}

// memberKeys reads the object following key, collecting its member names
// and skipping each member's object value.
func memberKeys(t jsontok.Tokens, key string) ([]string, error) {
	kind, err := t.Next()
	if err != nil {
		return nil, err
	}
	if kind != jsontok.ObjectStart {
		return nil, structureError(t, key, fmt.Sprintf("value is %s, not an object", kind))
	}

	names := []string{}
	for {
		kind, err := t.Next()
		if err != nil {
			return nil, err
		}

		switch kind {
		case jsontok.ObjectEnd:
			return names, nil
		case jsontok.FieldName:
			name := t.Name()
			kind, err := t.Next()
			if err != nil {
				return nil, err
			}
			if kind != jsontok.ObjectStart {
				return nil, structureError(t, key, fmt.Sprintf("contains an invalid object for %q", name))
			}
			if err := skipObject(t, key); err != nil {
				return nil, err
			}
			names = append(names, name)
		default:
			return nil, structureError(t, key, fmt.Sprintf("unexpected %s", kind))
		}
	}
}

// skipObject consumes tokens up to and including the brace closing an
// object whose opening brace was just read.
func skipObject(t jsontok.Tokens, key string) error {
	depth := 1
	for depth > 0 {
		kind, err := t.Next()
		if err != nil {
			return err
		}
		switch kind {
		case jsontok.ObjectStart:
			depth++
		case jsontok.ObjectEnd:
			depth--
		case jsontok.EOF:
			return structureError(t, key, "document ended inside a nested object")
		}
	}
	return nil
}

func enterRoot(t jsontok.Tokens, key string) error {
	kind, err := t.Next()
	if err != nil {
		return err
	}
	if kind != jsontok.ObjectStart {
		return structureError(t, key, fmt.Sprintf("document root is %s, not an object", kind))
	}
	return nil
}

func structureError(t jsontok.Tokens, key, msg string) *StructureError {
	return &StructureError{Key: key, Msg: msg, Loc: t.Location()}
}
