package reader

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"os"

	"go.uber.org/multierr"

	"github.com/pithecene-io/couchpart/couch"
)

// StdinPath selects standard input.
const StdinPath = "-"

// Input is an opened response body with the headers that describe it.
type Input struct {
	Source  string
	Headers couch.Headers
	Body    io.Reader
	closers []io.Closer
}

// Open opens the response at path. Header lines given explicitly take
// precedence over headers read from the input.
//
// With rawResponse set, the input is a full HTTP/1.x response (status line,
// headers, body) as saved by `curl -i`. Otherwise it is a bare body and
// headers come only from headerLines.
func Open(path string, rawResponse bool, headerLines []string) (*Input, error) {
	explicit, err := ParseHeaders(headerLines)
	if err != nil {
		return nil, err
	}

	in := &Input{Source: path}
	var r io.Reader
	if path == StdinPath || path == "" {
		in.Source = StdinPath
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		in.closers = append(in.closers, f)
		r = f
	}

	in.Headers = explicit
	in.Body = r
	if !rawResponse {
		return in, nil
	}

	resp, err := http.ReadResponse(bufio.NewReader(r), nil)
	if err != nil {
		_ = in.Close()
		return nil, fmt.Errorf("read HTTP response from %s: %w", in.Source, err)
	}
	in.closers = append(in.closers, resp.Body)
	in.Headers = append(in.Headers, couch.HeadersFromHTTP(resp.Header)...)
	in.Body = resp.Body
	return in, nil
}

// Read reads the document from the input. The input must stay open while
// attachments are consumed.
func (in *Input) Read() (*couch.Document, error) {
	return couch.Read(in.Body, in.Headers)
}

// Close releases the input. Closing twice is a no-op.
func (in *Input) Close() error {
	var err error
	for i := len(in.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, in.closers[i].Close())
	}
	in.closers = nil
	return err
}

// ParseHeaders parses "Name: value" lines.
func ParseHeaders(lines []string) (couch.Headers, error) {
	headers := make(couch.Headers, 0, len(lines))
	for _, line := range lines {
		h, err := couch.ParseHeader(line)
		if err != nil {
			return nil, err
		}
		headers = append(headers, h)
	}
	return headers, nil
}
