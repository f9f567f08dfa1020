// Package stream implements the buffered byte reader the request parser
// runs on. The reader can be capped to a number of bytes (the request body)
// and can scan forward to a multipart boundary.
package stream

import (
	"bytes"
	"errors"
	"io"
	"strings"
)

// unlimited marks a reader with no byte limit.
const unlimited = -1

// Reader reads bytes from an underlying stream through a small buffer.
// It is not safe for concurrent use; each connection owns one.
type Reader struct {
	src       io.Reader
	buf       []byte
	offset    int
	available int

	// limit is the number of bytes still allowed, or unlimited.
	limit    int
	boundary []byte
	// data is the scratch area ReadArrayToBoundary fills, sized by SetLimit.
	data []byte
}

// NewReader wraps src. Call Release when the connection is done.
func NewReader(src io.Reader) *Reader {
	return &Reader{
		src:   src,
		buf:   GetBuffer(),
		limit: unlimited,
	}
}

// SetLimit caps the reader to n more bytes and sizes the scratch buffer
// used by ReadArrayToBoundary to n.
func (r *Reader) SetLimit(n int) {
	if n < 0 {
		n = 0
	}
	r.limit = n
	if cap(r.data) >= n {
		r.data = r.data[:n]
	} else {
		r.data = make([]byte, n)
	}
}

// ClearLimit removes the byte limit and the boundary.
func (r *Reader) ClearLimit() {
	r.limit = unlimited
	r.boundary = nil
	r.data = r.data[:0]
}

// Limit returns the number of bytes still allowed, or -1 when unlimited.
func (r *Reader) Limit() int {
	return r.limit
}

// SetBoundary records the separator ReadArrayToBoundary scans for.
// The caller passes the literal form, e.g. "--" + token.
func (r *Reader) SetBoundary(s string) {
	r.boundary = []byte(s)
}

// ReadByte returns the next byte. It returns io.EOF once the limit is used
// up or the stream ends.
func (r *Reader) ReadByte() (byte, error) {
	if r.limit == 0 {
		return 0, io.EOF
	}
	if r.available == 0 {
		if err := r.fill(); err != nil {
			return 0, err
		}
	}
	if r.limit > 0 {
		r.limit--
	}
	r.available--
	b := r.buf[r.offset]
	r.offset++
	return b, nil
}

func (r *Reader) fill() error {
	for {
		n, err := r.src.Read(r.buf)
		if n > 0 {
			r.offset = 0
			r.available = n
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// ReadLine reads up to and including the next LF and returns the line with
// surrounding whitespace (and so the CR) trimmed. At end of stream it
// returns whatever was read, possibly "", with a nil error.
func (r *Reader) ReadLine() (string, error) {
	var sb strings.Builder
	for {
		b, err := r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return "", err
		}
		if b == '\n' {
			break
		}
		sb.WriteByte(b)
	}
	return strings.TrimSpace(sb.String()), nil
}

// ReadArrayToBoundary reads until the last len(boundary) bytes equal the
// boundary and returns what came before it, minus the CRLF that precedes
// the boundary. When the limit or the stream ends first it returns the
// bytes read so far. It returns an empty slice when no boundary or scratch
// buffer is set.
func (r *Reader) ReadArrayToBoundary() ([]byte, error) {
	if len(r.boundary) == 0 || len(r.data) == 0 {
		return []byte{}, nil
	}
	size := 0
	for size < len(r.data) {
		b, err := r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		r.data[size] = b
		size++
		if size >= len(r.boundary) && bytes.Equal(r.data[size-len(r.boundary):size], r.boundary) {
			size -= 2 + len(r.boundary)
			if size < 0 {
				size = 0
			}
			break
		}
	}
	out := make([]byte, size)
	copy(out, r.data[:size])
	return out, nil
}

// Drain discards the bytes left under the current limit. It does nothing
// on an unlimited reader.
func (r *Reader) Drain() error {
	for r.limit > 0 {
		if _, err := r.ReadByte(); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
	return nil
}

// Release returns the read buffer to the pool. The reader must not be used
// afterwards.
func (r *Reader) Release() {
	if r.buf != nil {
		PutBuffer(r.buf)
		r.buf = nil
	}
	r.data = nil
}
