// Command helloworld answers every request with a greeting.
package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/Brownie44l1/webserver"
)

func main() {
	opts := webserver.DefaultOptions()

	srv, err := webserver.Start(opts, webserver.HandlerFunc(func(req *webserver.Request) *webserver.Response {
		return webserver.Text("Hello, world!")
	}))
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
