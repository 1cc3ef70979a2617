//
// Copyright 2018-2025 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

//go:build unix

package fetcher

import (
	"context"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// stalledFIFO returns a file:// URL to a named pipe that yields a few
// bytes and then blocks until the test ends.
func stalledFIFO(t *testing.T) string {
	fifo := filepath.Join(t.TempDir(), "stalled")
	require.NoError(t, syscall.Mkfifo(fifo, 0o600))

	done := make(chan struct{})
	t.Cleanup(func() { close(done) })
	go func() {
		w, err := os.OpenFile(fifo, os.O_WRONLY, 0)
		if err != nil {
			return
		}
		defer w.Close()
		_, _ = w.Write([]byte("partial"))
		select {
		case <-done:
		case <-time.After(5 * time.Second):
		}
	}()
	return "file://" + fifo
}

func TestDownloadInactivityTimeoutOnStalledFile(t *testing.T) {
	remote := stalledFIFO(t)

	config := Config{InactivityTimeout: 200 * time.Millisecond}
	start := time.Now()
	err := DownloadWithConfigAndContext(context.Background(), remote, makeTmpFile(t), false, nil, config)
	require.ErrorIs(t, err, os.ErrDeadlineExceeded)
	require.Less(t, time.Since(start), 2*time.Second)
}

func TestFetchInactivityTimeoutOnStalledFile(t *testing.T) {
	remote := stalledFIFO(t)

	config := Config{InactivityTimeout: 200 * time.Millisecond}
	capture := &recordingCapture{}
	start := time.Now()
	require.Nil(t, FetchWithConfigAndContext(context.Background(), remote, false, capture, config))
	require.Less(t, time.Since(start), 2*time.Second)
	require.Len(t, capture.errors, 1)
	require.ErrorIs(t, capture.errors[0].err, os.ErrDeadlineExceeded)
}

func TestFetchCancelledOnStalledFile(t *testing.T) {
	remote := stalledFIFO(t)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(200*time.Millisecond, cancel)
	start := time.Now()
	_, err := fetch(ctx, remote, false, NullCapture{}, Config{})
	require.ErrorIs(t, err, context.Canceled)
	require.Less(t, time.Since(start), 2*time.Second)
}
