//
// Copyright 2018-2025 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package fetcher

import (
	"io"
	"math"

	"github.com/dustin/go-humanize"
)

const (
	// ChunkSize is the size of the blocks Copy reads and writes.
	ChunkSize = 1024
	// FlushInterval is the number of chunks after which Copy flushes the
	// output and reports progress.
	FlushInterval = 100
)

type flusher interface {
	Flush() error
}

// Copy copies in to out in chunks of ChunkSize bytes until the end of in.
// Every FlushInterval chunks, and once at the end, out is flushed (if it has
// a Flush method) and, if verbose, the amount transferred so far is
// reported to capture. Neither in nor out are closed.
func Copy(in io.Reader, out io.Writer, verbose bool, capture Capture) error {
	capture = captureOrNull(capture)
	flush := func() error {
		if f, ok := out.(flusher); ok {
			return f.Flush()
		}
		return nil
	}

	buff := [ChunkSize]byte{}
	var chunks, size int64
	for {
		n, err := readChunk(in, buff[:])
		if n > 0 {
			if _, werr := out.Write(buff[:n]); werr != nil {
				return werr
			}
			chunks++
			size += int64(n)
			if chunks%FlushInterval == 0 {
				if ferr := flush(); ferr != nil {
					return ferr
				}
				if verbose {
					capture.Println(formatSize(size), true)
				}
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}

	if err := flush(); err != nil {
		return err
	}
	if verbose {
		capture.Println(formatSize(size), true)
	}
	return nil
}

// readChunk fills buff from in. Fewer bytes are returned only together
// with an error, io.EOF at the end of in.
func readChunk(in io.Reader, buff []byte) (int, error) {
	n := 0
	for n < len(buff) {
		m, err := in.Read(buff[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// formatSize formats size in kilobytes, with thousands separators and at
// most three decimals rounded half to even, e.g. "1,234.5KB".
func formatSize(size int64) string {
	kb := math.RoundToEven(float64(size)/1024.0*1000) / 1000
	return humanize.Commaf(kb) + "KB"
}
