package response

import (
	"bufio"
	"io"
	"sort"
	"strconv"
	"time"
)

// defaultContentType is sent when a response does not name its type.
const defaultContentType = "application/unknown"

// Writer serializes responses onto a connection.
type Writer struct {
	w *bufio.Writer
	// keepAlive is the idle timeout advertised to the client; zero means
	// the connection is closed after one response.
	keepAlive  time.Duration
	statusCode StatusCode
	hadError   bool
}

// NewWriter creates a writer. keepAlive is the connection's read timeout;
// zero selects "Connection: close".
func NewWriter(w io.Writer, keepAlive time.Duration) *Writer {
	return &Writer{
		w:         bufio.NewWriter(w),
		keepAlive: keepAlive,
	}
}

// Write sends one response. A zero code writes only the body. A nil data
// slice sends Content-Length: 0 and no body. The output is flushed before
// Write returns.
func (w *Writer) Write(code StatusCode, contentType string, data []byte, cookies map[string]string) error {
	if code != 0 {
		w.writeHead(code, contentType, len(data), cookies)
		w.statusCode = code
	}
	if data != nil {
		w.w.Write(data)
	}
	if err := w.w.Flush(); err != nil {
		w.hadError = true
		return err
	}
	return nil
}

func (w *Writer) writeHead(code StatusCode, contentType string, length int, cookies map[string]string) {
	if contentType == "" {
		contentType = defaultContentType
	}

	w.w.WriteString("HTTP/1.1 ")
	w.w.WriteString(code.String())
	w.w.WriteString("\r\n")

	w.w.WriteString("Access-Control-Allow-Origin: *\r\n")

	w.w.WriteString("Content-Type: ")
	w.w.WriteString(contentType)
	w.w.WriteString("\r\n")

	w.w.WriteString("Content-Length: ")
	w.w.WriteString(strconv.Itoa(length))
	w.w.WriteString("\r\n")

	names := make([]string, 0, len(cookies))
	for name := range cookies {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		w.w.WriteString("Set-Cookie: ")
		w.w.WriteString(name)
		w.w.WriteString("=")
		w.w.WriteString(cookies[name])
		w.w.WriteString("; Path=/\r\n")
	}

	if w.keepAlive == 0 {
		w.w.WriteString("Connection: close\r\n")
	} else {
		w.w.WriteString("Keep-Alive: timeout=")
		w.w.WriteString(strconv.Itoa(KeepAliveSeconds(w.keepAlive)))
		w.w.WriteString(", max=100\r\n")
	}

	w.w.WriteString("\r\n")
}

// WriteStatus sends a bodiless response with the default content type.
func (w *Writer) WriteStatus(code StatusCode) error {
	return w.Write(code, "", nil, nil)
}

// WriteResponse sends a handler response with 200 OK.
func (w *Writer) WriteResponse(r *Response) error {
	return w.Write(StatusOK, r.ContentType, r.Data, r.Cookies)
}

// WriteBody appends bytes without a status line or headers.
func (w *Writer) WriteBody(data []byte) error {
	return w.Write(0, "", data, nil)
}

// KeepAliveSeconds is the timeout advertised in the Keep-Alive header: whole
// seconds, at least one.
func KeepAliveSeconds(d time.Duration) int {
	secs := int(d / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}

// State tracking methods for connection management

func (w *Writer) HadError() bool {
	return w.hadError
}

func (w *Writer) StatusCode() StatusCode {
	return w.statusCode
}
