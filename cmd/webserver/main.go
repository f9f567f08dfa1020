// Command webserver serves a directory over HTTP/1.1.
//
// Options come from an optional JSON file given with -config; flags that
// are set explicitly override it.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"

	"github.com/Brownie44l1/webserver"
	"github.com/Brownie44l1/webserver/internal/server"
)

const name = "github.com/Brownie44l1/webserver/cmd/webserver"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile = flag.String("config", "", "JSON options file")
		port       = flag.Int("port", webserver.DefaultOptions().Port, "listen port")
		root       = flag.String("root", webserver.DefaultOptions().WWWRoot, "directory to serve")
		threads    = flag.Int("threads", webserver.DefaultOptions().ThreadCount, "worker count")
		timeout    = flag.Int("timeout", 0, "keep-alive read timeout in milliseconds, 0 closes after each response")
		useOtel    = flag.Bool("otel", false, "send logs to the OpenTelemetry log bridge")
		verbose    = flag.Bool("v", false, "log at debug level")
		grace      = flag.Duration("grace", 10*time.Second, "how long shutdown waits for open connections")
	)
	flag.Parse()

	opts := webserver.DefaultOptions()
	if *configFile != "" {
		opts = webserver.LoadOptions(*configFile)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			opts.Port = *port
		case "root":
			opts.WWWRoot = *root
		case "threads":
			opts.ThreadCount = *threads
		case "timeout":
			opts.Timeout = *timeout
		}
	})

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := server.NewDefaultLogger(os.Stdout, level)
	if *useOtel {
		logger = otelslog.NewLogger(name)
	}

	handler := webserver.Chain(server.StaticOnly, server.LoggingMiddleware(logger))
	srv, err := webserver.Start(opts, handler, webserver.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down", "grace", grace.String())

	ctx, cancel := context.WithTimeout(context.Background(), *grace)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("shutdown deadline passed, connections closed", "error", err)
	}

	stats := srv.Metrics().Snapshot()
	logger.Info("server stopped",
		"requests", stats.RequestsTotal,
		"errors_4xx", stats.Errors4xx,
		"errors_5xx", stats.Errors5xx,
		"avg_latency", stats.AverageLatency.String(),
	)
	return nil
}
