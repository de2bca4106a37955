// Package textenc resolves text encodings by name and decodes child output
// into UTF-8 strings before it is chunked.
package textenc

import (
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"github.com/Iron-Ham/ttytest/internal/errors"
)

// Default is the encoding used when none is configured.
const Default = "utf-8"

// Lookup returns the encoding registered under name. Names follow the
// WHATWG encoding labels ("utf-8", "utf8", "latin1", "utf-16le", ...) and
// are case-insensitive. The empty name selects Default.
func Lookup(name string) (encoding.Encoding, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = Default
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, errors.NewValidationError("unknown text encoding").
			WithField("encoding").
			WithValue(name).
			WithCause(errors.ErrUnsupportedEncoding)
	}
	return enc, nil
}

// Canonical returns the canonical WHATWG name for an encoding label.
func Canonical(name string) (string, error) {
	enc, err := Lookup(name)
	if err != nil {
		return "", err
	}
	return htmlindex.Name(enc)
}

// NewReader decodes r from enc into UTF-8. Multi-byte sequences split
// across reads are held back until complete, so a chunk never ends in the
// middle of a character.
func NewReader(r io.Reader, enc encoding.Encoding) io.Reader {
	return transform.NewReader(r, enc.NewDecoder())
}
