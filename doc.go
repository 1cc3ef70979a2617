//
// Copyright 2018-2025 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

// Package fetcher downloads a remote resource (http, https, ftp or file URL)
// to a local file or to memory. Redirects are followed manually up to
// MaxRedirects hops, a failing https attempt is retried once over plain http,
// and progress is reported through a Capture.
package fetcher
