//
// Copyright 2018-2025 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/juju/loggo"
)

// MaxRedirects is the number of redirect hops Resolve follows before
// giving up.
const MaxRedirects = 2

var logger = loggo.GetLogger("fetcher")

var (
	// ErrTooManyRedirects is returned when a URL generates more than
	// MaxRedirects redirects.
	ErrTooManyRedirects = errors.New("too many redirects")
	// ErrMissingLocation is returned when a redirect response has no
	// Location header.
	ErrMissingLocation = errors.New("redirect without Location header")
	// ErrUnsupportedScheme is returned for URLs that are not http, https,
	// ftp or file.
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")
)

// StatusError is returned when an HTTP server answers with an error status.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %s for %s", e.Status, e.URL)
}

// Connection is an opened connection to a remote resource
type Connection struct {
	// URL the connection has been opened to.
	URL string
	// StatusCode of the HTTP response, 0 for non-HTTP connections.
	StatusCode int
	// Header of the HTTP response, nil for non-HTTP connections.
	Header http.Header
	// Body is the content of the resource.
	Body io.ReadCloser
}

// IsHTTP returns true if the connection is an HTTP(S) connection.
func (c *Connection) IsHTTP() bool {
	return c.StatusCode != 0
}

// IsRedirect returns true if the server answered with 301, 302 or 303.
func (c *Connection) IsRedirect() bool {
	switch c.StatusCode {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther:
		return true
	}
	return false
}

// Status returns the HTTP status line, e.g. "404 Not Found".
func (c *Connection) Status() string {
	if !c.IsHTTP() {
		return ""
	}
	return fmt.Sprintf("%d %s", c.StatusCode, http.StatusText(c.StatusCode))
}

// Close the connection
func (c *Connection) Close() error {
	if c.Body == nil {
		return nil
	}
	return c.Body.Close()
}

type resolver struct {
	config  *Config
	client  *http.Client
	capture Capture
}

// Resolve opens a connection to rawURL following up to MaxRedirects
// redirects. If opening an https URL fails, the same URL is retried once
// over plain http. The caller must Close the returned Connection.
func Resolve(ctx context.Context, rawURL string, config Config, capture Capture) (*Connection, error) {
	client, err := config.httpClient()
	if err != nil {
		return nil, err
	}
	r := &resolver{
		config:  &config,
		client:  client,
		capture: captureOrNull(capture),
	}
	return r.resolve(ctx, rawURL)
}

func (r *resolver) resolve(ctx context.Context, rawURL string) (*Connection, error) {
	conn, err := r.openWithDowngrade(ctx, rawURL, false)
	if err != nil {
		return nil, err
	}

	redirects := 0
	for conn.IsRedirect() {
		redirects++
		if redirects > MaxRedirects {
			_ = conn.Close()
			return nil, fmt.Errorf("%w: three redirects were generated when trying to download %s", ErrTooManyRedirects, rawURL)
		}

		target, err := location(conn)
		_ = conn.Close()
		if err != nil {
			return nil, err
		}
		logger.Debugf("following redirect %d: %s -> %s", redirects, conn.URL, target)
		conn, err = r.openWithDowngrade(ctx, target, true)
		if err != nil {
			return nil, err
		}
	}

	if conn.StatusCode >= 400 && !r.config.DoNotErrorOnHTTPErrorStatus {
		_ = conn.Close()
		return nil, &StatusError{URL: conn.URL, StatusCode: conn.StatusCode, Status: conn.Status()}
	}
	return conn, nil
}

// openWithDowngrade opens rawURL; if that fails and the scheme is https,
// the same URL is tried again over http.
func (r *resolver) openWithDowngrade(ctx context.Context, rawURL string, announce bool) (*Connection, error) {
	conn, err := r.open(ctx, rawURL)
	if err == nil {
		return conn, nil
	}
	if !strings.HasPrefix(rawURL, "https://") || ctx.Err() != nil {
		return nil, err
	}

	fallback := "http://" + strings.TrimPrefix(rawURL, "https://")
	logger.Debugf("opening %s failed (%v), trying %s", rawURL, err, fallback)
	if announce {
		r.capture.Println("Trying http instead of https for "+rawURL, true)
	}
	return r.open(ctx, fallback)
}

// open performs a single connection attempt.
func (r *resolver) open(ctx context.Context, rawURL string) (*Connection, error) {
	logger.Debugf("opening %s", rawURL)
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing URL %s: %w", rawURL, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return r.openHTTP(ctx, u)
	case "ftp":
		return openFTP(ctx, u, r.config.Proxies)
	case "file":
		return openFile(u)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, rawURL)
}

func (r *resolver) openHTTP(ctx context.Context, u *url.URL) (*Connection, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("setting up HTTP request: %w", err)
	}
	for k, v := range r.config.ExtraHeaders {
		req.Header.Set(k, v)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	return &Connection{
		URL:        u.String(),
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       resp.Body,
	}, nil
}

func openFile(u *url.URL) (*Connection, error) {
	path := u.Path
	if path == "" {
		path = u.Opaque
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Connection{URL: u.String(), Body: f}, nil
}

// location returns the absolute redirect target of conn.
func location(conn *Connection) (string, error) {
	loc := conn.Header.Get("Location")
	if loc == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingLocation, conn.URL)
	}
	base, err := url.Parse(conn.URL)
	if err != nil {
		return "", fmt.Errorf("parsing URL %s: %w", conn.URL, err)
	}
	target, err := base.Parse(loc)
	if err != nil {
		return "", fmt.Errorf("parsing redirect location %q: %w", loc, err)
	}
	return target.String(), nil
}
