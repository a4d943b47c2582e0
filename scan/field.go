package scan

import "github.com/pithecene-io/couchpart/jsontok"

// IDKey is the document member holding the document id.
const IDKey = "_id"

// TextTokens is a token stream that also exposes the text of the current
// scalar.
type TextTokens interface {
	jsontok.Tokens
	Text() string
}

// FieldString returns the scalar value of the root member key, walking the
// root object the same way OrderedKeys does. found is false when key is
// absent or its value is an object or array.
func FieldString(t TextTokens, key string) (value string, found bool, err error) {
	if err := enterRoot(t, key); err != nil {
		return "", false, err
	}

	for {
		kind, err := t.Next()
		if err != nil {
			return "", false, err
		}

		switch kind {
		case jsontok.ObjectEnd:
			return "", false, nil
		case jsontok.EOF:
			return "", false, structureError(t, key, "document ended before the root object closed")
		case jsontok.FieldName:
			if t.Name() != key {
				continue
			}
			kind, err := t.Next()
			if err != nil {
				return "", false, err
			}
			if kind != jsontok.Scalar {
				return "", false, nil
			}
			return t.Text(), true, nil
		case jsontok.ObjectStart:
			if err := skipObject(t, key); err != nil {
				return "", false, err
			}
		}
	}
}
