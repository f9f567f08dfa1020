// Command tcplistener prints each request it receives as the parser sees
// it. It is a debugging aid for clients of the server.
package main

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"sort"

	"github.com/Brownie44l1/webserver/internal/request"
	"github.com/Brownie44l1/webserver/internal/response"
	"github.com/Brownie44l1/webserver/internal/stream"
)

func main() {
	addr := flag.String("addr", ":42069", "listen address")
	flag.Parse()

	listener, err := net.Listen("tcp", *addr)
	if err != nil {
		fmt.Println("Listen error:", err)
		return
	}
	defer listener.Close()
	fmt.Printf("Listening on %s...\n", listener.Addr())

	for {
		conn, err := listener.Accept()
		if err != nil {
			fmt.Println("Accept error:", err)
			continue
		}

		go handleConnection(conn)
	}
}

func handleConnection(conn net.Conn) {
	defer conn.Close()

	r := stream.NewReader(conn)
	defer r.Release()
	w := response.NewWriter(conn, 0)

	req, err := request.Parse(r, request.Limits{})
	if err != nil {
		var perr *request.ProtocolError
		if errors.As(err, &perr) {
			fmt.Printf("Rejected: %s\n", perr.Reason)
			w.WriteStatus(response.StatusCode(perr.Status))
			return
		}
		fmt.Println("Parse error:", err)
		return
	}

	fmt.Println("Request Line")
	fmt.Printf("Method: %s\n", req.Method)
	fmt.Printf("Path: %s\n", req.Path)
	fmt.Printf("Query: %s\n", req.Query)
	fmt.Printf("Version: %s\n", req.HTTPVersion)

	fmt.Printf("Headers (%d)\n", req.Headers.Len())
	for _, name := range req.Headers.Names() {
		value, _ := req.Headers.Get(name)
		fmt.Printf("%s: %s\n", name, value)
	}

	fmt.Println("Form")
	for _, name := range sorted(req.FormData) {
		fmt.Printf("%s = %s\n", name, req.FormData[name])
	}
	for _, name := range sorted(req.Files) {
		f := req.Files[name]
		fmt.Printf("%s: file %q, %s, %d bytes\n", name, f.Name, f.ContentType, len(f.Data))
	}

	w.WriteResponse(response.Text("Hello from your HTTP server!\n"))
}

func sorted[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
