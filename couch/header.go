package couch

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ErrMissingHeader matches any *HeaderError.
var ErrMissingHeader = errors.New("missing required header")

// Header is a transport header name/value pair.
type Header struct {
	Name  string
	Value string
}

// Headers is an ordered header list. Duplicates are allowed.
type Headers []Header

// HeaderError reports a required header that is absent.
type HeaderError struct {
	Name string
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingHeader, e.Name)
}

// Is matches ErrMissingHeader.
func (e *HeaderError) Is(target error) bool {
	return target == ErrMissingHeader
}

// Get returns the first header whose name matches name, ignoring case.
func (h Headers) Get(name string) (Header, error) {
	for _, hdr := range h {
		if strings.EqualFold(hdr.Name, name) {
			return hdr, nil
		}
	}
	return Header{}, &HeaderError{Name: name}
}

// HeadersFromHTTP flattens an http.Header. Names are sorted so the result
// is deterministic; values keep their order.
func HeadersFromHTTP(h http.Header) Headers {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(Headers, 0, len(names))
	for _, name := range names {
		for _, v := range h[name] {
			out = append(out, Header{Name: name, Value: v})
		}
	}
	return out
}

// ParseHeader parses a "Name: value" line.
func ParseHeader(line string) (Header, error) {
	name, value, ok := strings.Cut(line, ":")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return Header{}, fmt.Errorf("invalid header %q: expected \"Name: value\"", line)
	}
	return Header{Name: name, Value: strings.TrimSpace(value)}, nil
}
