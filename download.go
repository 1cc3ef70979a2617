//
// Copyright 2018-2025 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package fetcher

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
)

// DownloadError is returned by Download when the transfer fails.
type DownloadError struct {
	Remote string
	Local  string
	Err    error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("Problem downloading '%s' to '%s':\n%s", e.Remote, e.Local, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// Download downloads the remote URL into the local file, truncating it,
// using the default configuration. On failure the problem is also reported
// to capture.
func Download(remote, local string, verbose bool, capture Capture) error {
	return DownloadWithConfig(remote, local, verbose, capture, GetDefaultConfig())
}

// DownloadWithConfig downloads the remote URL into the local file using
// the given configuration.
func DownloadWithConfig(remote, local string, verbose bool, capture Capture, config Config) error {
	return DownloadWithConfigAndContext(context.Background(), remote, local, verbose, capture, config)
}

// DownloadWithConfigAndContext downloads the remote URL into the local file
// using the given configuration. The returned error, if any, is a
// *DownloadError. All the streams opened are closed before returning.
func DownloadWithConfigAndContext(ctx context.Context, remote, local string, verbose bool, capture Capture, config Config) error {
	capture = captureOrNull(capture)
	if verbose {
		capture.Println("Downloading: "+remote+" to "+local, true)
	}
	if err := download(ctx, remote, local, verbose, capture, config); err != nil {
		capture.PrintlnError(fmt.Sprintf("Problem downloading '%s' to '%s'!", remote, local), err)
		return &DownloadError{Remote: remote, Local: local, Err: err}
	}
	return nil
}

func download(ctx context.Context, remote, local string, verbose bool, capture Capture, config Config) error {
	ctx, wd := newWatchdog(ctx, config.InactivityTimeout)
	defer wd.Cancel()

	conn, err := resolveAndAccept(ctx, remote, config, capture)
	if err != nil {
		return wd.Err(err)
	}
	defer func() { _ = conn.Close() }()
	defer wd.CloseOnTimeout(conn)()

	f, err := os.Create(local)
	if err != nil {
		return fmt.Errorf("opening %s for writing: %w", local, err)
	}
	defer func() { _ = f.Close() }()

	if err := Copy(wd.Reader(conn.Body), bufio.NewWriter(f), verbose, capture); err != nil {
		return wd.Err(err)
	}
	return nil
}

// Fetch downloads the remote URL into memory using the default
// configuration. It returns nil on failure, the reason is only reported to
// capture.
func Fetch(remote string, verbose bool, capture Capture) []byte {
	return FetchWithConfigAndContext(context.Background(), remote, verbose, capture, GetDefaultConfig())
}

// FetchWithConfigAndContext downloads the remote URL into memory using the
// given configuration. It returns nil on failure, the reason is only
// reported to capture. An empty resource yields an empty, non-nil slice.
func FetchWithConfigAndContext(ctx context.Context, remote string, verbose bool, capture Capture, config Config) []byte {
	capture = captureOrNull(capture)
	if verbose {
		capture.Println("Retrieving content: "+remote, true)
	}
	data, err := fetch(ctx, remote, verbose, capture, config)
	if err != nil {
		capture.PrintlnError("Problem downloading content: "+remote+"!", err)
		return nil
	}
	return data
}

func fetch(ctx context.Context, remote string, verbose bool, capture Capture, config Config) ([]byte, error) {
	ctx, wd := newWatchdog(ctx, config.InactivityTimeout)
	defer wd.Cancel()

	conn, err := resolveAndAccept(ctx, remote, config, capture)
	if err != nil {
		return nil, wd.Err(err)
	}
	defer func() { _ = conn.Close() }()
	defer wd.CloseOnTimeout(conn)()

	var buff bytes.Buffer
	if err := Copy(wd.Reader(conn.Body), &buff, verbose, capture); err != nil {
		return nil, wd.Err(err)
	}
	if buff.Len() == 0 {
		return []byte{}, nil
	}
	return buff.Bytes(), nil
}

// FetchText downloads the remote URL into memory, using the default
// configuration, and decodes it with the named character encoding
// (e.g. "UTF-8" or "ISO-8859-1"). The boolean is false if the transfer or
// the decoding failed, the reason is only reported to capture.
func FetchText(remote, encoding string, verbose bool, capture Capture) (string, bool) {
	return FetchTextWithConfigAndContext(context.Background(), remote, encoding, verbose, capture, GetDefaultConfig())
}

// FetchTextWithConfigAndContext is FetchText with an explicit configuration
// and context.
func FetchTextWithConfigAndContext(ctx context.Context, remote, encoding string, verbose bool, capture Capture, config Config) (string, bool) {
	capture = captureOrNull(capture)
	data := FetchWithConfigAndContext(ctx, remote, verbose, capture, config)
	if data == nil {
		return "", false
	}
	text, err := Decode(data, encoding)
	if err != nil {
		capture.PrintlnError("Failed to generate string from binary data using encoding: "+encoding, err)
		return "", false
	}
	return text, true
}

func resolveAndAccept(ctx context.Context, remote string, config Config, capture Capture) (*Connection, error) {
	conn, err := Resolve(ctx, remote, config, capture)
	if err != nil {
		return nil, err
	}
	if config.AcceptFunc != nil {
		if err := config.AcceptFunc(conn); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}
	return conn, nil
}
