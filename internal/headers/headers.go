package headers

import (
	"sort"
	"strings"
)

// Headers maps case-insensitive header names to the last value seen.
type Headers struct {
	headers map[string]string
}

func NewHeaders() *Headers {
	return &Headers{
		headers: make(map[string]string),
	}
}

// Get returns the value stored for a header
func (h *Headers) Get(key string) (string, bool) {
	v, ok := h.headers[strings.ToLower(key)]
	return v, ok
}

// Set stores a value, replacing any earlier one
func (h *Headers) Set(key, value string) {
	h.headers[strings.ToLower(key)] = value
}

// Len returns the number of distinct headers
func (h *Headers) Len() int {
	return len(h.headers)
}

// Names returns the stored (lower-cased) header names in sorted order
func (h *Headers) Names() []string {
	names := make([]string, 0, len(h.headers))
	for name := range h.headers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseLine splits a "Name: Value" line on the first colon and trims both
// sides. ok is false when there is no colon or the name is empty.
func ParseLine(line string) (name, value string, ok bool) {
	colon := strings.IndexByte(line, ':')
	if colon <= 0 {
		return "", "", false
	}
	name = strings.TrimSpace(line[:colon])
	value = strings.TrimSpace(line[colon+1:])
	if name == "" {
		return "", "", false
	}
	return name, value, true
}

// Add parses a header line and stores it. It reports whether the line was
// a well-formed header.
func (h *Headers) Add(line string) (name, value string, ok bool) {
	name, value, ok = ParseLine(line)
	if ok {
		h.Set(name, value)
	}
	return name, value, ok
}
