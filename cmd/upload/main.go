// Command upload accepts multipart form posts on /upload and describes
// what arrived.
package main

import (
	"fmt"
	"html"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/Brownie44l1/webserver"
)

const form = `<html><body>
<form method="post" action="/upload" enctype="multipart/form-data">
<input type="text" name="caption">
<input type="file" name="file">
<input type="submit" value="Upload">
</form>
</body></html>`

func main() {
	r := webserver.NewRouter()
	r.GET("/", func(*webserver.Request) *webserver.Response {
		return webserver.HTML(form)
	})
	r.POST("/upload", describe)

	opts := webserver.DefaultOptions()
	srv, err := webserver.Start(opts, r)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("Listening on http://localhost:%d/\n", opts.Port)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	<-sig
	srv.Stop()
}

func describe(req *webserver.Request) *webserver.Response {
	var b strings.Builder
	b.WriteString("<html><body><h1>Received</h1><ul>")

	for _, name := range sortedKeys(req.FormData) {
		fmt.Fprintf(&b, "<li>%s = %s</li>", html.EscapeString(name), html.EscapeString(req.FormData[name]))
	}
	for _, name := range sortedKeys(req.Files) {
		f := req.Files[name]
		fmt.Fprintf(&b, "<li>%s: %s (%s, %d bytes)</li>",
			html.EscapeString(name), html.EscapeString(f.Name), html.EscapeString(f.ContentType), len(f.Data))
	}

	b.WriteString("</ul></body></html>")
	return webserver.HTML(b.String())
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
