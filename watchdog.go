//
// Copyright 2018-2025 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package fetcher

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

// watchdog cancels its context if it is not kicked for timeout.
// A zero timeout disables it.
type watchdog struct {
	ctx     context.Context
	cancel  context.CancelCauseFunc
	timer   *time.Timer
	timeout time.Duration
}

func newWatchdog(parent context.Context, timeout time.Duration) (context.Context, *watchdog) {
	ctx, cancel := context.WithCancelCause(parent)
	var timer *time.Timer
	if timeout > 0 {
		timer = time.AfterFunc(timeout, func() {
			cancel(fmt.Errorf("no data received for %s: %w", timeout, os.ErrDeadlineExceeded))
		})
	}
	return ctx, &watchdog{
		ctx:     ctx,
		cancel:  cancel,
		timer:   timer,
		timeout: timeout,
	}
}

func (wd *watchdog) Kick() {
	if wd.timeout > 0 {
		wd.timer.Reset(wd.timeout)
	}
}

func (wd *watchdog) Cancel() {
	if wd.timeout > 0 {
		wd.timer.Stop()
	}
	wd.cancel(nil)
}

// Err returns err, replaced by the reason the watchdog fired if it did.
func (wd *watchdog) Err(err error) error {
	if err == nil || wd.ctx.Err() == nil {
		return err
	}
	return context.Cause(wd.ctx)
}

// CloseOnTimeout closes c when the context is done, unblocking readers
// that do not honour it (ftp transfers, local files). The returned
// function disarms it, waiting for c.Close if it already started.
func (wd *watchdog) CloseOnTimeout(c io.Closer) func() {
	closed := make(chan struct{})
	stop := context.AfterFunc(wd.ctx, func() {
		defer close(closed)
		_ = c.Close()
	})
	return func() {
		if !stop() {
			<-closed
		}
	}
}

// Reader returns r, kicking the watchdog every time data is read.
func (wd *watchdog) Reader(r io.Reader) io.Reader {
	if wd.timeout <= 0 {
		return r
	}
	return &kickReader{r: r, wd: wd}
}

type kickReader struct {
	r  io.Reader
	wd *watchdog
}

func (k *kickReader) Read(p []byte) (int, error) {
	n, err := k.r.Read(p)
	if n > 0 {
		k.wd.Kick()
	}
	return n, err
}
