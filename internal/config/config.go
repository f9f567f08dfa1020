// Package config holds the server options and their JSON and TLS loaders.
package config

import (
	"crypto/tls"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/crypto/pkcs12"
)

const (
	DefaultPort        = 8000
	DefaultWWWRoot     = "./www"
	DefaultThreadCount = 16
	// DefaultMaxBodySize caps declared request bodies at 64 MiB.
	DefaultMaxBodySize = 64 << 20
)

var ErrKeyPasswordMismatch = errors.New("keystore and key passwords differ")

// Options configures a server. The server copies it at start, so later
// changes to the caller's value have no effect.
type Options struct {
	Port    int    `json:"port"`
	WWWRoot string `json:"wwwRoot"`
	// ThreadCount is the number of worker goroutines serving connections.
	ThreadCount int `json:"threadCount"`
	// Timeout is the keep-alive read timeout in milliseconds. Zero serves
	// one request per connection.
	Timeout int `json:"timeout"`

	// Certificate enables TLS. It is a PKCS#12 keystore, or a PEM
	// certificate when KeyFile is set.
	Certificate      string `json:"certificate,omitempty"`
	KeystorePassword string `json:"keystorePassword,omitempty"`
	KeyPassword      string `json:"keyPassword,omitempty"`
	KeyFile          string `json:"keyFile,omitempty"`

	// MaxBodySize caps Content-Length in bytes; zero disables the cap.
	MaxBodySize int `json:"maxBodySize"`
}

// Default returns the options used when nothing is configured.
func Default() Options {
	return Options{
		Port:        DefaultPort,
		WWWRoot:     DefaultWWWRoot,
		ThreadCount: DefaultThreadCount,
		MaxBodySize: DefaultMaxBodySize,
	}
}

// LoadFile reads options from a JSON file. Fields missing from the file
// keep their defaults and unknown fields are ignored.
func LoadFile(filename string) (Options, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Default(), fmt.Errorf("failed to read config file: %w", err)
	}

	opts := Default()
	if err := json.Unmarshal(data, &opts); err != nil {
		return Default(), fmt.Errorf("failed to parse JSON config: %w", err)
	}
	return opts, nil
}

// Load is LoadFile without the error: any failure yields Default().
func Load(filename string) Options {
	opts, err := LoadFile(filename)
	if err != nil {
		return Default()
	}
	return opts
}

// Validate checks the invariants the server relies on.
func (o Options) Validate() error {
	if o.Port < 0 || o.Port > 65535 {
		return fmt.Errorf("invalid port %d", o.Port)
	}
	if o.ThreadCount < 1 {
		return fmt.Errorf("threadCount must be at least 1, got %d", o.ThreadCount)
	}
	if o.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %d", o.Timeout)
	}
	if o.MaxBodySize < 0 {
		return fmt.Errorf("maxBodySize must not be negative, got %d", o.MaxBodySize)
	}
	if o.WWWRoot == "" {
		return errors.New("wwwRoot must not be empty")
	}
	return nil
}

// ReadTimeout converts Timeout to a duration.
func (o Options) ReadTimeout() time.Duration {
	return time.Duration(o.Timeout) * time.Millisecond
}

// KeepAlive reports whether connections serve more than one request.
func (o Options) KeepAlive() bool {
	return o.Timeout > 0
}

// Addr is the listen address for Port on all interfaces.
func (o Options) Addr() string {
	return fmt.Sprintf(":%d", o.Port)
}

// TLSConfig builds the listener's TLS configuration. It returns nil when no
// certificate is configured.
func (o Options) TLSConfig() (*tls.Config, error) {
	if o.Certificate == "" {
		return nil, nil
	}

	var cert tls.Certificate
	var err error
	if o.KeyFile != "" {
		cert, err = tls.LoadX509KeyPair(o.Certificate, o.KeyFile)
	} else {
		cert, err = o.loadKeystore()
	}
	if err != nil {
		return nil, err
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

func (o Options) loadKeystore() (tls.Certificate, error) {
	// A PKCS#12 file carries a single password for both the store and its key.
	if o.KeyPassword != "" && o.KeyPassword != o.KeystorePassword {
		return tls.Certificate{}, ErrKeyPasswordMismatch
	}

	pfx, err := os.ReadFile(o.Certificate)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to read keystore: %w", err)
	}

	blocks, err := pkcs12.ToPEM(pfx, o.KeystorePassword)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to decode keystore: %w", err)
	}

	var pemData []byte
	for _, b := range blocks {
		pemData = append(pemData, pem.EncodeToMemory(b)...)
	}

	cert, err := tls.X509KeyPair(pemData, pemData)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to load keystore certificate: %w", err)
	}
	return cert, nil
}
