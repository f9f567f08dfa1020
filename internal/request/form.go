package request

import (
	"net/url"
	"strings"
)

// parseForm decodes an application/x-www-form-urlencoded string into dst.
// Empty items are skipped, a key without '=' gets "", later keys overwrite
// earlier ones.
func parseForm(data string, dst map[string]string) error {
	for _, item := range strings.Split(data, "&") {
		if item == "" {
			continue
		}
		rawKey, rawValue, hasValue := strings.Cut(item, "=")

		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return badRequest("malformed form key: " + err.Error())
		}
		value := ""
		if hasValue {
			value, err = url.QueryUnescape(rawValue)
			if err != nil {
				return badRequest("malformed form value: " + err.Error())
			}
		}
		dst[key] = value
	}
	return nil
}

// parseCookies decodes a Cookie header value into dst. Pairs without '='
// and pairs that fail to decode are skipped.
func parseCookies(value string, dst map[string]string) {
	for _, pair := range strings.Split(value, ";") {
		rawName, rawValue, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			continue
		}
		name, err := url.QueryUnescape(strings.TrimSpace(rawName))
		if err != nil {
			continue
		}
		val, err := url.QueryUnescape(strings.TrimSpace(rawValue))
		if err != nil {
			continue
		}
		dst[name] = val
	}
}
