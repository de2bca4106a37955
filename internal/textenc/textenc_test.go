package textenc

import (
	"bytes"
	"io"
	"testing"

	"github.com/Iron-Ham/ttytest/internal/errors"
)

func TestCanonical(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"", "utf-8", false},
		{"utf8", "utf-8", false},
		{"UTF-8", "utf-8", false},
		{"latin1", "windows-1252", false},
		{"utf-16le", "utf-16le", false},
		{"klingon", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Canonical(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Canonical(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrUnsupportedEncoding) {
				t.Errorf("expected ErrUnsupportedEncoding, got %v", err)
			}
			if got != tt.want {
				t.Errorf("Canonical(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewReader_Latin1(t *testing.T) {
	enc, err := Lookup("latin1")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}

	// "café" in windows-1252
	out, err := io.ReadAll(NewReader(bytes.NewReader([]byte{'c', 'a', 'f', 0xe9}), enc))
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(out) != "café" {
		t.Errorf("decoded %q, want %q", out, "café")
	}
}

// oneByteReader returns its input one byte per Read call.
type oneByteReader struct {
	data []byte
}

func (r *oneByteReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	p[0] = r.data[0]
	r.data = r.data[1:]
	return 1, nil
}

func TestNewReader_DoesNotSplitRunes(t *testing.T) {
	enc, err := Lookup("utf-8")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}

	r := NewReader(&oneByteReader{data: []byte("é€")}, enc)
	buf := make([]byte, 64)

	var reads []string
	for {
		n, err := r.Read(buf)
		if n > 0 {
			reads = append(reads, string(buf[:n]))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
	}

	for _, s := range reads {
		if s != "é" && s != "€" && s != "é€" {
			t.Errorf("read returned a partial character: %q (all reads: %q)", s, reads)
		}
	}
}
