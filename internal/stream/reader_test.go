package stream

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLine(t *testing.T) {
	r := NewReader(strings.NewReader("GET / HTTP/1.1\r\nHost: a\n  padded  \r\nlast"))
	defer r.Release()

	line, err := r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "GET / HTTP/1.1", line)

	line, err = r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "Host: a", line)

	line, err = r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "padded", line)

	// End of stream without LF still returns the partial line
	line, err = r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "last", line)

	line, err = r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "", line)
}

func TestReadByteRespectsLimit(t *testing.T) {
	r := NewReader(strings.NewReader("abcdef"))
	defer r.Release()

	r.SetLimit(3)
	for _, want := range []byte("abc") {
		b, err := r.ReadByte()
		require.NoError(t, err)
		assert.Equal(t, want, b)
	}
	_, err := r.ReadByte()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 0, r.Limit())

	r.ClearLimit()
	assert.Equal(t, -1, r.Limit())
	b, err := r.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte('d'), b)
}

func TestReadLineStopsAtLimit(t *testing.T) {
	r := NewReader(strings.NewReader("user=alice&pw=x NEXT REQUEST"))
	defer r.Release()

	r.SetLimit(16)
	line, err := r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "user=alice&pw=x", line)
}

func TestReadArrayToBoundary(t *testing.T) {
	body := "hello\r\n--XYZ\r\nrest"
	r := NewReader(strings.NewReader(body))
	defer r.Release()

	r.SetLimit(len(body))
	r.SetBoundary("--XYZ")

	data, err := r.ReadArrayToBoundary()
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	first, err := r.ReadByte()
	require.NoError(t, err)
	second, err := r.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte('\r'), first)
	assert.Equal(t, byte('\n'), second)
}

func TestReadArrayToBoundaryBinary(t *testing.T) {
	payload := []byte{0x89, 0x50, 0x4E, 0x00, 0x0D, 0x0A, 0xFF}
	body := string(payload) + "\r\n--b--\r\n"
	r := NewReader(strings.NewReader(body))
	defer r.Release()

	r.SetLimit(len(body))
	r.SetBoundary("--b")

	data, err := r.ReadArrayToBoundary()
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestReadArrayToBoundaryWithoutSetup(t *testing.T) {
	r := NewReader(strings.NewReader("data\r\n--b"))
	defer r.Release()

	data, err := r.ReadArrayToBoundary()
	require.NoError(t, err)
	assert.Empty(t, data)

	r.SetBoundary("--b")
	data, err = r.ReadArrayToBoundary()
	require.NoError(t, err)
	assert.Empty(t, data, "no scratch buffer without a limit")
}

func TestReadArrayToBoundaryLimitExhausted(t *testing.T) {
	r := NewReader(strings.NewReader("partial data with no boundary"))
	defer r.Release()

	r.SetLimit(7)
	r.SetBoundary("--b")
	data, err := r.ReadArrayToBoundary()
	require.NoError(t, err)
	assert.Equal(t, []byte("partial"), data)
}

func TestReadArrayToBoundaryAtStart(t *testing.T) {
	r := NewReader(strings.NewReader("--b"))
	defer r.Release()

	r.SetLimit(3)
	r.SetBoundary("--b")
	data, err := r.ReadArrayToBoundary()
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestDrain(t *testing.T) {
	r := NewReader(strings.NewReader("0123456789GET"))
	defer r.Release()

	r.SetLimit(10)
	_, err := r.ReadByte()
	require.NoError(t, err)
	require.NoError(t, r.Drain())
	assert.Equal(t, 0, r.Limit())

	r.ClearLimit()
	line, err := r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "GET", line)
}

func TestSmallReads(t *testing.T) {
	data := strings.Repeat("x", 3000) + "\n"
	r := NewReader(&slowReader{data: []byte(data), chunkSize: 7})
	defer r.Release()

	line, err := r.ReadLine()
	require.NoError(t, err)
	assert.Len(t, line, 3000)
}

func TestReadErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	r := NewReader(&failingReader{err: boom})
	defer r.Release()

	_, err := r.ReadLine()
	assert.ErrorIs(t, err, boom)

	_, err = r.ReadByte()
	assert.ErrorIs(t, err, boom)
}

func TestBufferPool(t *testing.T) {
	buf := GetBuffer()
	assert.Len(t, buf, BufferSize)
	PutBuffer(buf)

	// Foreign buffers are ignored
	PutBuffer(make([]byte, 10))
	assert.Len(t, GetBuffer(), BufferSize)
}

// slowReader simulates a network connection that provides data slowly
type slowReader struct {
	data      []byte
	chunkSize int
	offset    int
}

func (r *slowReader) Read(p []byte) (int, error) {
	if r.offset >= len(r.data) {
		return 0, io.EOF
	}

	n := r.chunkSize
	if n > len(p) {
		n = len(p)
	}
	if n > len(r.data)-r.offset {
		n = len(r.data) - r.offset
	}

	copy(p, r.data[r.offset:r.offset+n])
	r.offset += n
	return n, nil
}

type failingReader struct {
	err error
}

func (r *failingReader) Read(p []byte) (int, error) {
	return 0, r.err
}
