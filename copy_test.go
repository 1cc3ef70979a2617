//
// Copyright 2018-2025 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package fetcher

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func randomData(size int) []byte {
	data := make([]byte, size)
	rnd := rand.New(rand.NewSource(int64(size)))
	_, _ = rnd.Read(data)
	return data
}

func TestCopy(t *testing.T) {
	for _, size := range []int{0, 1, 1023, 1024, 1025, 102400, 102401, 300000} {
		t.Run(fmt.Sprintf("%d bytes", size), func(t *testing.T) {
			data := randomData(size)
			var out bytes.Buffer
			require.NoError(t, Copy(bytes.NewReader(data), &out, false, nil))
			require.Equal(t, size, out.Len())
			require.True(t, bytes.Equal(data, out.Bytes()))
		})
	}
}

func TestCopyShortReads(t *testing.T) {
	data := randomData(5000)
	var out bytes.Buffer
	// oneByteReader returns a single byte for every Read call
	require.NoError(t, Copy(oneByteReader{bytes.NewReader(data)}, &out, false, nil))
	require.Equal(t, data, out.Bytes())
}

type oneByteReader struct {
	r io.Reader
}

func (o oneByteReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	return o.r.Read(p[:1])
}

func TestCopyProgress(t *testing.T) {
	capture := &recordingCapture{}
	var out bytes.Buffer
	require.NoError(t, Copy(bytes.NewReader(randomData(102400)), &out, true, capture))
	require.Equal(t, []string{"100KB", "100KB"}, capture.Lines())

	capture = &recordingCapture{}
	require.NoError(t, Copy(bytes.NewReader(randomData(250*1024+512)), &out, true, capture))
	require.Equal(t, []string{"100KB", "200KB", "250.5KB"}, capture.Lines())
	for _, l := range capture.lines {
		require.True(t, l.stdout)
	}

	capture = &recordingCapture{}
	require.NoError(t, Copy(bytes.NewReader(randomData(1024)), &out, false, capture))
	require.Empty(t, capture.Lines())
}

func TestCopyFlushesBufferedOutput(t *testing.T) {
	data := randomData(150 * 1024)
	var dst bytes.Buffer
	out := bufio.NewWriterSize(&dst, 64*1024)
	require.NoError(t, Copy(bytes.NewReader(data), out, false, nil))
	require.Equal(t, 0, out.Buffered())
	require.Equal(t, data, dst.Bytes())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

type failingReader struct{ sent bool }

func (f *failingReader) Read(p []byte) (int, error) {
	if !f.sent {
		f.sent = true
		return copy(p, "some data"), nil
	}
	return 0, errors.New("connection reset")
}

func TestCopyErrors(t *testing.T) {
	err := Copy(bytes.NewReader(randomData(10)), failingWriter{}, false, nil)
	require.EqualError(t, err, "disk full")

	var out bytes.Buffer
	err = Copy(&failingReader{}, &out, false, nil)
	require.EqualError(t, err, "connection reset")
	require.Equal(t, "some data", out.String())
}

func TestFormatSize(t *testing.T) {
	require.Equal(t, "0KB", formatSize(0))
	require.Equal(t, "1KB", formatSize(1024))
	require.Equal(t, "1.5KB", formatSize(1536))
	require.Equal(t, "0.999KB", formatSize(1023))
	require.Equal(t, "1.001KB", formatSize(1025))
	require.Equal(t, "100.001KB", formatSize(102401))
	require.Equal(t, "146.484KB", formatSize(150000))
	require.Equal(t, "292.969KB", formatSize(300000))
	require.Equal(t, "1,000KB", formatSize(1024000))
	require.Equal(t, "1,234.5KB", formatSize(1234*1024+512))
}
