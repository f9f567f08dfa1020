// Command counter counts requests to /count and reports the total as JSON.
// Other paths are served from ./www.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"sync"

	"github.com/Brownie44l1/webserver"
)

// counter is shared by all workers, so it needs its own lock.
type counter struct {
	mu sync.Mutex
	n  int
}

func (c *counter) next() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return c.n
}

func main() {
	var c counter

	r := webserver.NewRouter()
	r.GET("/count", func(req *webserver.Request) *webserver.Response {
		resp, err := webserver.JSON(map[string]int{"count": c.next()})
		if err != nil {
			return nil
		}
		return resp
	})

	opts := webserver.DefaultOptions()
	opts.Timeout = 5000

	srv, err := webserver.Start(opts, r)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("Listening on http://localhost:%d/count\n", opts.Port)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	<-sig
	srv.Stop()
}
