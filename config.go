//
// Copyright 2018-2025 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package fetcher

import (
	"net/http"
	"sync"
	"time"
)

// Config contains the configuration for a download or fetch
type Config struct {
	// HTTPClient to use to perform HTTP requests. If nil a client is built
	// from Proxies. Automatic redirect following is always disabled on the
	// client actually used, since redirects are handled by Resolve.
	HTTPClient *http.Client
	// Proxies to route connections through.
	Proxies Proxies
	// ExtraHeaders to add to the HTTP requests.
	ExtraHeaders map[string]string
	// AcceptFunc is an optional function that will be called once the
	// connection has been resolved, before any data is copied.
	// If the function returns an error, the transfer is aborted.
	AcceptFunc func(conn *Connection) error
	// DoNotErrorOnHTTPErrorStatus set to true to copy the response body
	// even if the server returns a status code >= 400.
	DoNotErrorOnHTTPErrorStatus bool
	// InactivityTimeout is the duration after which, if no data is received,
	// the transfer is aborted. If set to 0, no timeout is applied.
	InactivityTimeout time.Duration
}

var defaultConfig Config = Config{}
var defaultConfigLock sync.Mutex

// SetDefaultConfig sets the configuration that will be used by Download,
// Fetch and FetchText.
func SetDefaultConfig(newConfig Config) {
	defaultConfigLock.Lock()
	defer defaultConfigLock.Unlock()
	defaultConfig = newConfig
}

// GetDefaultConfig returns a copy of the default configuration. The default
// configuration can be changed using the SetDefaultConfig function.
func GetDefaultConfig() Config {
	defaultConfigLock.Lock()
	defer defaultConfigLock.Unlock()

	res := defaultConfig
	if defaultConfig.ExtraHeaders != nil {
		res.ExtraHeaders = make(map[string]string, len(defaultConfig.ExtraHeaders))
		for k, v := range defaultConfig.ExtraHeaders {
			res.ExtraHeaders[k] = v
		}
	}
	return res
}

// httpClient returns the client used to open http and https URLs.
func (c *Config) httpClient() (*http.Client, error) {
	var client http.Client
	if c.HTTPClient != nil {
		client = *c.HTTPClient
	} else {
		transport, err := c.Proxies.transport()
		if err != nil {
			return nil, err
		}
		client.Transport = transport
	}
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &client, nil
}
