//
// Copyright 2018-2025 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package fetcher

import (
	"fmt"
	"io"
	"os"

	"github.com/juju/loggo"
)

// Capture receives the human readable status lines produced during a
// transfer.
type Capture interface {
	// Println outputs a line, on stdout if stdout is true, otherwise on stderr.
	Println(line string, stdout bool)
	// PrintlnError outputs a message together with the error that caused it.
	PrintlnError(msg string, err error)
}

// NullCapture suppresses all output.
type NullCapture struct{}

// Println does nothing.
func (NullCapture) Println(string, bool) {}

// PrintlnError does nothing.
func (NullCapture) PrintlnError(string, error) {}

// ConsoleCapture passes the output through to the console. Nil writers
// default to os.Stdout and os.Stderr.
type ConsoleCapture struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewConsoleCapture returns a ConsoleCapture writing on os.Stdout and os.Stderr.
func NewConsoleCapture() *ConsoleCapture {
	return &ConsoleCapture{Stdout: os.Stdout, Stderr: os.Stderr}
}

// Println writes line on Stdout or Stderr.
func (c *ConsoleCapture) Println(line string, stdout bool) {
	if stdout {
		fmt.Fprintln(c.stdout(), line)
	} else {
		fmt.Fprintln(c.stderr(), line)
	}
}

// PrintlnError writes msg followed by err on Stderr.
func (c *ConsoleCapture) PrintlnError(msg string, err error) {
	fmt.Fprintln(c.stderr(), msg)
	if err != nil {
		fmt.Fprintln(c.stderr(), err)
	}
}

func (c *ConsoleCapture) stdout() io.Writer {
	if c.Stdout == nil {
		return os.Stdout
	}
	return c.Stdout
}

func (c *ConsoleCapture) stderr() io.Writer {
	if c.Stderr == nil {
		return os.Stderr
	}
	return c.Stderr
}

// LogCapture forwards the output to a loggo.Logger: stdout lines are logged
// at INFO, stderr lines at WARNING and errors at ERROR.
type LogCapture struct {
	Logger loggo.Logger
}

// Println logs line.
func (c LogCapture) Println(line string, stdout bool) {
	if stdout {
		c.Logger.Infof("%s", line)
	} else {
		c.Logger.Warningf("%s", line)
	}
}

// PrintlnError logs msg and err.
func (c LogCapture) PrintlnError(msg string, err error) {
	if err != nil {
		c.Logger.Errorf("%s: %v", msg, err)
	} else {
		c.Logger.Errorf("%s", msg)
	}
}

func captureOrNull(c Capture) Capture {
	if c == nil {
		return NullCapture{}
	}
	return c
}
