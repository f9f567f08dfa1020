package request

import (
	"errors"
	"strings"
)

var (
	ErrMalformedRequestLine = errors.New("malformed request line")
)

// parseRequestLine parses: METHOD TARGET VERSION
// An unrecognized method is not an error here; it yields MethodUnknown.
func parseRequestLine(line string) (Method, string, string, error) {
	parts := strings.Fields(line)
	if len(parts) != 3 {
		return MethodUnknown, "", "", ErrMalformedRequestLine
	}

	return parseMethod(parts[0]), parts[1], parts[2], nil
}
