//
// Copyright 2018-2025 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package fetcher

import (
	"path/filepath"
	"sync"
	"testing"
)

type capturedLine struct {
	line   string
	stdout bool
}

type capturedError struct {
	msg string
	err error
}

// recordingCapture stores everything it receives.
type recordingCapture struct {
	mu     sync.Mutex
	lines  []capturedLine
	errors []capturedError
}

func (c *recordingCapture) Println(line string, stdout bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, capturedLine{line: line, stdout: stdout})
}

func (c *recordingCapture) PrintlnError(msg string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = append(c.errors, capturedError{msg: msg, err: err})
}

func (c *recordingCapture) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	res := []string{}
	for _, l := range c.lines {
		res = append(res, l.line)
	}
	return res
}

func makeTmpFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "download.out")
}
