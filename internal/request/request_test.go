package request

import (
	"errors"
	"io"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/webserver/internal/stream"
)

func parse(t *testing.T, data string) (*Request, error) {
	t.Helper()
	r := stream.NewReader(strings.NewReader(data))
	t.Cleanup(r.Release)
	return Parse(r, Limits{})
}

func TestSimpleGETRequest(t *testing.T) {
	data := "GET /index.html HTTP/1.1\r\nHost: example.com\r\n\r\n"
	req, err := parse(t, data)

	require.NoError(t, err)
	assert.Equal(t, MethodGET, req.Method)
	assert.Equal(t, "/index.html", req.Address)
	assert.Equal(t, "/index.html", req.Path)
	assert.Equal(t, "", req.Query)
	assert.Equal(t, "HTTP/1.1", req.HTTPVersion)
	assert.Equal(t, "example.com", req.Header("host"))
	assert.False(t, req.CloseConnection)
	assert.Empty(t, req.FormData)
}

func TestLowercaseMethod(t *testing.T) {
	req, err := parse(t, "post / HTTP/1.1\r\n\r\n")
	require.NoError(t, err)
	assert.Equal(t, MethodPOST, req.Method)
	assert.Equal(t, "POST", req.Method.String())
}

func TestLFOnlyLines(t *testing.T) {
	req, err := parse(t, "GET /a?x=1 HTTP/1.1\nHost: h\n\n")
	require.NoError(t, err)
	assert.Equal(t, "/a", req.Path)
	assert.Equal(t, "1", req.Form("x"))
	assert.Equal(t, "h", req.Header("Host"))
}

func TestQueryStringForm(t *testing.T) {
	req, err := parse(t, "GET /?name=Jo%C3%ABl&age=30 HTTP/1.1\r\n\r\n")
	require.NoError(t, err)

	assert.Equal(t, "/", req.Path)
	assert.Equal(t, "name=Jo%C3%ABl&age=30", req.Query)
	assert.Equal(t, map[string]string{"name": "Joël", "age": "30"}, req.FormData)
}

func TestQuerySplitsOnFirstQuestionMark(t *testing.T) {
	req, err := parse(t, "GET /p?a=1?b HTTP/1.1\r\n\r\n")
	require.NoError(t, err)

	assert.Equal(t, "/p", req.Path)
	assert.NotContains(t, req.Path, "?")
	assert.Equal(t, "a=1?b", req.Query)
	assert.Equal(t, "1?b", req.Form("a"))
}

func TestFormEdgeCases(t *testing.T) {
	req, err := parse(t, "GET /?a=1&&b=2&flag&a=3&empty=&c=x=y HTTP/1.1\r\n\r\n")
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"a":     "3", // last one wins
		"b":     "2",
		"flag":  "",
		"empty": "",
		"c":     "x=y",
	}, req.FormData)
}

func TestMalformedQueryEscape(t *testing.T) {
	_, err := parse(t, "GET /?a=%zz HTTP/1.1\r\n\r\n")

	var perr *ProtocolError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 400, perr.Status)
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestPOSTURLEncoded(t *testing.T) {
	body := "user=alice&pw=%20secret%20"
	data := "POST / HTTP/1.1\r\n" +
		"Content-Type: application/x-www-form-urlencoded\r\n" +
		"Content-Length: " + strconv.Itoa(len(body)) + "\r\n" +
		"\r\n" + body

	req, err := parse(t, data)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"user": "alice", "pw": " secret "}, req.FormData)
}

func TestPOSTPlusDecodesToSpace(t *testing.T) {
	body := "q=hello+world"
	data := "POST /search HTTP/1.1\r\nContent-Length: " + strconv.Itoa(len(body)) + "\r\n\r\n" + body

	req, err := parse(t, data)
	require.NoError(t, err)
	assert.Equal(t, "hello world", req.Form("q"))
}

func TestPOSTWithoutContentLength(t *testing.T) {
	req, err := parse(t, "POST / HTTP/1.1\r\n\r\nignored=1")
	require.NoError(t, err)
	assert.Empty(t, req.FormData)
}

func TestInvalidContentLength(t *testing.T) {
	for _, cl := range []string{"abc", "-5", "1.5"} {
		_, err := parse(t, "POST / HTTP/1.1\r\nContent-Length: "+cl+"\r\n\r\n")

		var perr *ProtocolError
		require.ErrorAs(t, err, &perr, "Content-Length %q", cl)
		assert.Equal(t, 400, perr.Status)
		assert.True(t, perr.Close)
	}
}

func TestBodyTooLarge(t *testing.T) {
	r := stream.NewReader(strings.NewReader("POST / HTTP/1.1\r\nContent-Length: 100\r\n\r\n"))
	defer r.Release()

	_, err := Parse(r, Limits{MaxBodySize: 10})

	var perr *ProtocolError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 413, perr.Status)
	assert.True(t, perr.Close)
	assert.NotErrorIs(t, err, ErrBadRequest)
}

func TestHeadersCaseInsensitiveLastWins(t *testing.T) {
	data := "GET / HTTP/1.1\r\n" +
		"X-Thing:  first  \r\n" +
		"x-thing: second\r\n" +
		"NoColonHere\r\n" +
		"\r\n"

	req, err := parse(t, data)
	require.NoError(t, err)
	assert.Equal(t, "second", req.Header("X-THING"))
	assert.Equal(t, 1, req.Headers.Len())
}

func TestConnectionClose(t *testing.T) {
	req, err := parse(t, "GET / HTTP/1.1\r\nConnection: Close\r\n\r\n")
	require.NoError(t, err)
	assert.True(t, req.CloseConnection)

	req, err = parse(t, "GET / HTTP/1.1\r\nConnection: keep-alive\r\n\r\n")
	require.NoError(t, err)
	assert.False(t, req.CloseConnection)
}

func TestCookies(t *testing.T) {
	data := "GET / HTTP/1.1\r\n" +
		"Cookie: sid=abc; user%20name=J%C3%B6rg ;bad; broken=%zz; empty=\r\n" +
		"\r\n"

	req, err := parse(t, data)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"sid":       "abc",
		"user name": "Jörg",
		"empty":     "",
	}, req.Cookies)
	assert.Equal(t, "abc", req.Cookie("sid"))
}

func TestEmptyStartLine(t *testing.T) {
	_, err := parse(t, "")
	assert.ErrorIs(t, err, ErrConnectionEnd)

	_, err = parse(t, "\r\n")
	assert.ErrorIs(t, err, ErrConnectionEnd)
}

func TestUnknownMethod(t *testing.T) {
	data := "PUT /thing HTTP/1.1\r\nContent-Length: 4\r\n\r\nbody"
	r := stream.NewReader(strings.NewReader(data + "GET /next HTTP/1.1\r\n\r\n"))
	defer r.Release()

	req, err := Parse(r, Limits{})
	assert.Nil(t, req)
	assert.ErrorIs(t, err, ErrUnknownMethod)

	// The body was drained, the next message parses cleanly
	req, err = Parse(r, Limits{})
	require.NoError(t, err)
	assert.Equal(t, "/next", req.Path)
}

func TestErrorsCarryConnectionClose(t *testing.T) {
	_, err := parse(t, "OPTIONS / HTTP/1.1\r\nConnection: close\r\n\r\n")
	var merr *MethodError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, "OPTIONS", merr.Method)
	assert.True(t, merr.Close)
	assert.ErrorIs(t, err, ErrUnknownMethod)

	_, err = parse(t, "OPTIONS / HTTP/1.1\r\n\r\n")
	require.ErrorAs(t, err, &merr)
	assert.False(t, merr.Close)

	body := "a=%zz"
	_, err = parse(t, "POST / HTTP/1.1\r\nConnection: close\r\nContent-Length: "+strconv.Itoa(len(body))+"\r\n\r\n"+body)
	var perr *ProtocolError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 400, perr.Status)
	assert.True(t, perr.Close)

	// Without the header a bad form keeps the connection usable
	_, err = parse(t, "POST / HTTP/1.1\r\nContent-Length: "+strconv.Itoa(len(body))+"\r\n\r\n"+body)
	require.ErrorAs(t, err, &perr)
	assert.False(t, perr.Close)
}

func TestMalformedRequestLine(t *testing.T) {
	// Missing HTTP version
	_, err := parse(t, "GET /path\r\nHost: example.com\r\n\r\n")

	var perr *ProtocolError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 400, perr.Status)
	assert.Contains(t, err.Error(), ErrMalformedRequestLine.Error())
}

func TestKeepAliveSequence(t *testing.T) {
	body := "a=1"
	data := "POST /one HTTP/1.1\r\nContent-Length: " + strconv.Itoa(len(body)) + "\r\n\r\n" + body +
		"GET /two?b=2 HTTP/1.1\r\n\r\n"
	r := stream.NewReader(strings.NewReader(data))
	defer r.Release()

	first, err := Parse(r, Limits{})
	require.NoError(t, err)
	assert.Equal(t, "/one", first.Path)
	assert.Equal(t, "1", first.Form("a"))

	second, err := Parse(r, Limits{})
	require.NoError(t, err)
	assert.Equal(t, "/two", second.Path)
	assert.Equal(t, "2", second.Form("b"))
	assert.Empty(t, second.Files)

	_, err = Parse(r, Limits{})
	assert.ErrorIs(t, err, ErrConnectionEnd)
}

func TestGETBodyIsDrained(t *testing.T) {
	data := "GET /one HTTP/1.1\r\nContent-Length: 5\r\n\r\nhello" +
		"GET /two HTTP/1.1\r\n\r\n"
	r := stream.NewReader(strings.NewReader(data))
	defer r.Release()

	_, err := Parse(r, Limits{})
	require.NoError(t, err)
	second, err := Parse(r, Limits{})
	require.NoError(t, err)
	assert.Equal(t, "/two", second.Path)
}

func TestReadErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	r := stream.NewReader(io.MultiReader(strings.NewReader("GET / HTTP/1.1\r\n"), &failingReader{err: boom}))
	defer r.Release()

	_, err := Parse(r, Limits{})
	assert.ErrorIs(t, err, boom)
}

type failingReader struct {
	err error
}

func (r *failingReader) Read(p []byte) (int, error) {
	return 0, r.err
}
