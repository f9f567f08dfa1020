// Package static serves files from the www-root for requests no handler
// answered.
//
// Request paths are percent-decoded and then joined to the root. Paths
// whose ".." segments would climb above the root are answered 404 without
// touching the filesystem.
package static

import (
	"errors"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/Brownie44l1/webserver/internal/response"
)

// Result is what the resolver decided to send back.
type Result struct {
	Status      response.StatusCode
	ContentType string
	Data        []byte
}

// Resolver maps request addresses to files under a root directory.
type Resolver struct {
	root string
}

func New(root string) *Resolver {
	return &Resolver{root: root}
}

// Resolve looks up the file for a raw request address.
func (r *Resolver) Resolve(address string) Result {
	p, _, _ := strings.Cut(address, "?")
	if p == "/" {
		p = "/index.html"
	} else {
		decoded, err := url.PathUnescape(p)
		if err != nil {
			return Result{Status: response.StatusBadRequest}
		}
		p = decoded
	}

	if escapesRoot(p) {
		return Result{Status: response.StatusNotFound}
	}

	file := filepath.Join(r.root, filepath.FromSlash(path.Clean("/"+p)))
	info, err := os.Stat(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Result{Status: response.StatusNotFound}
		}
		return Result{Status: response.StatusInternalServerError}
	}
	if info.IsDir() {
		return Result{Status: response.StatusNotFound}
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return Result{Status: response.StatusInternalServerError}
	}
	return Result{
		Status:      response.StatusOK,
		ContentType: MimeType(p),
		Data:        data,
	}
}

// escapesRoot reports whether the ".." segments of p climb above "/".
func escapesRoot(p string) bool {
	depth := 0
	segments := strings.FieldsFunc(p, func(c rune) bool {
		return c == '/' || c == '\\'
	})
	for _, seg := range segments {
		switch seg {
		case ".":
		case "..":
			depth--
			if depth < 0 {
				return true
			}
		default:
			depth++
		}
	}
	return false
}

// MimeType infers a content type from the extension of p.
func MimeType(p string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(path.Base(p)), "."))
	switch ext {
	case "":
		return "application/unknown"
	case "txt":
		return "text/plain"
	case "htm", "html":
		return "text/html"
	case "css":
		return "text/css"
	case "js":
		return "text/javascript"
	case "jpg", "jpeg", "png", "gif":
		return "image/" + ext
	default:
		return "application/" + ext
	}
}
