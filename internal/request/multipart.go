package request

import (
	"errors"
	"io"
	"net/url"
	"strings"

	"github.com/Brownie44l1/webserver/internal/headers"
	"github.com/Brownie44l1/webserver/internal/stream"
)

// boundaryParam finds the multipart boundary in a Content-Type value. The
// token is taken verbatim after "boundary=". ok is false for any other
// content type.
func boundaryParam(contentType string) (boundary string, ok bool) {
	if !strings.HasPrefix(strings.ToLower(contentType), "multipart/form-data") {
		return "", false
	}
	idx := strings.Index(contentType, "boundary=")
	if idx < 0 {
		return "", true
	}
	return contentType[idx+len("boundary="):], true
}

// parseMultipart reads a multipart/form-data body. The reader must already
// be limited to the body length.
func parseMultipart(r *stream.Reader, boundary string, req *Request) error {
	delim := "--" + boundary
	r.SetBoundary(delim)

	first, err := r.ReadLine()
	if err != nil {
		return err
	}
	if first != delim {
		return badRequest("missing initial multipart boundary")
	}

	for {
		name, fileName, contentType, err := readPartHeaders(r)
		if err != nil {
			return err
		}

		data, err := r.ReadArrayToBoundary()
		if err != nil {
			return err
		}

		// CRLF after the boundary means another part follows; anything
		// else, normally the closing "--", ends the body.
		more, err := crlfFollows(r)
		if err != nil {
			return err
		}

		if name == "" {
			return badRequest("multipart part without a name")
		}
		if fileName == "" {
			req.FormData[name] = string(data)
		} else {
			req.Files[name] = &FileDescriptor{
				Name:        decodeFileName(fileName),
				ContentType: contentType,
				Data:        data,
			}
		}

		if !more {
			return nil
		}
	}
}

// readPartHeaders reads the header block of one part up to the empty line.
func readPartHeaders(r *stream.Reader) (name, fileName, contentType string, err error) {
	for {
		line, err := r.ReadLine()
		if err != nil {
			return "", "", "", err
		}
		if line == "" {
			return name, fileName, contentType, nil
		}

		hName, hValue, ok := headers.ParseLine(line)
		if !ok {
			continue
		}
		switch {
		case strings.EqualFold(hName, "Content-Disposition"):
			params, isForm, err := parseDisposition(hValue)
			if err != nil {
				return "", "", "", err
			}
			if isForm {
				name = params["name"]
				fileName = params["filename"]
			}
		case strings.EqualFold(hName, "Content-Type"):
			contentType = hValue
		}
	}
}

func crlfFollows(r *stream.Reader) (bool, error) {
	first, err := r.ReadByte()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}
	second, err := r.ReadByte()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}
	return first == '\r' && second == '\n', nil
}

// parseDisposition splits `form-data; name="x"; filename="a.png"` into its
// type check and a map of lower-cased parameter names. A quoted value
// without a closing quote is a protocol error.
func parseDisposition(value string) (params map[string]string, isForm bool, err error) {
	kind, rest, _ := strings.Cut(value, ";")
	isForm = strings.EqualFold(strings.TrimSpace(kind), "form-data")
	params = make(map[string]string)

	for {
		rest = strings.TrimLeft(rest, " \t;")
		if rest == "" {
			return params, isForm, nil
		}

		i := strings.IndexAny(rest, "=;")
		if i < 0 {
			return params, isForm, nil
		}
		if rest[i] == ';' {
			// parameter without a value
			rest = rest[i+1:]
			continue
		}

		key := strings.ToLower(strings.TrimSpace(rest[:i]))
		rest = strings.TrimLeft(rest[i+1:], " \t")

		var val string
		if strings.HasPrefix(rest, `"`) {
			end := strings.IndexByte(rest[1:], '"')
			if end < 0 {
				return nil, false, badRequest("unterminated quoted parameter " + key)
			}
			val = rest[1 : 1+end]
			rest = rest[2+end:]
		} else {
			end := strings.IndexByte(rest, ';')
			if end < 0 {
				end = len(rest)
			}
			val = strings.TrimSpace(rest[:end])
			rest = rest[end:]
		}
		params[key] = val
	}
}

// decodeFileName percent-decodes an upload file name. Names that are not
// valid percent-encoding (browsers send "100%.txt" as is) are kept raw.
func decodeFileName(name string) string {
	decoded, err := url.QueryUnescape(name)
	if err != nil {
		return name
	}
	return decoded
}
