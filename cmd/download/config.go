//
// Copyright 2018-2025 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"go.bug.st/fetcher"
)

// fileConfig is the content of the --config file, e.g.
//
//	http_proxy = "proxy.example.com:3128"
//	inactivity_timeout = "30s"
//
//	[headers]
//	User-Agent = "my-downloader/1.0"
type fileConfig struct {
	HTTPProxy         string            `toml:"http_proxy"`
	FTPProxy          string            `toml:"ftp_proxy"`
	SOCKSProxy        string            `toml:"socks_proxy"`
	InactivityTimeout string            `toml:"inactivity_timeout"`
	Headers           map[string]string `toml:"headers"`
}

// loadConfig builds the download configuration from the TOML file at
// path. An empty path gives the default configuration.
func loadConfig(path string) (fetcher.Config, error) {
	config := fetcher.GetDefaultConfig()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("failed to read config: %w", err)
	}
	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return config, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	proxies := []struct {
		host string
		typ  fetcher.ProxyType
	}{
		{fc.HTTPProxy, fetcher.ProxyHTTP},
		{fc.FTPProxy, fetcher.ProxyFTP},
		{fc.SOCKSProxy, fetcher.ProxySOCKS},
	}
	for _, p := range proxies {
		if p.host != "" {
			config.Proxies.SetHost(p.typ, p.host)
		}
	}
	if fc.InactivityTimeout != "" {
		timeout, err := time.ParseDuration(fc.InactivityTimeout)
		if err != nil {
			return config, fmt.Errorf("invalid inactivity_timeout in %s: %w", path, err)
		}
		config.InactivityTimeout = timeout
	}
	if len(fc.Headers) > 0 {
		if config.ExtraHeaders == nil {
			config.ExtraHeaders = map[string]string{}
		}
		for k, v := range fc.Headers {
			config.ExtraHeaders[k] = v
		}
	}
	return config, nil
}
