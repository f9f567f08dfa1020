package response

import "strconv"

// StatusCode represents HTTP status codes
type StatusCode int

const (
	StatusOK                    StatusCode = 200
	StatusBadRequest            StatusCode = 400
	StatusNotFound              StatusCode = 404
	StatusRequestEntityTooLarge StatusCode = 413
	StatusInternalServerError   StatusCode = 500
)

// statusText maps status codes to reason phrases
var statusText = map[StatusCode]string{
	StatusOK:                    "OK",
	StatusBadRequest:            "Bad Request",
	StatusNotFound:              "Not Found",
	StatusRequestEntityTooLarge: "Request Entity Too Large",
	StatusInternalServerError:   "Internal Server Error",
}

// StatusText returns the text description for a status code
func StatusText(code StatusCode) string {
	if text, ok := statusText[code]; ok {
		return text
	}
	return "Unknown Status"
}

// String renders the status the way it appears on the status line,
// e.g. "404 Not Found".
func (code StatusCode) String() string {
	return strconv.Itoa(int(code)) + " " + StatusText(code)
}

// IsClientError returns true for 4xx status codes
func (code StatusCode) IsClientError() bool {
	return code >= 400 && code < 500
}

// IsServerError returns true for 5xx status codes
func (code StatusCode) IsServerError() bool {
	return code >= 500 && code < 600
}
