//
// Copyright 2018-2025 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package fetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/proxy"
)

// ProxyType is the kind of traffic a proxy is used for
type ProxyType int

const (
	// ProxyHTTP is used for http and https URLs
	ProxyHTTP ProxyType = iota
	// ProxyFTP is an HTTP CONNECT proxy used to tunnel ftp connections
	ProxyFTP
	// ProxySOCKS is a SOCKS5 proxy used for every outgoing connection
	ProxySOCKS
)

func (t ProxyType) String() string {
	switch t {
	case ProxyHTTP:
		return "HTTP"
	case ProxyFTP:
		return "FTP"
	case ProxySOCKS:
		return "SOCKS"
	}
	return "ProxyType(" + strconv.Itoa(int(t)) + ")"
}

func (t ProxyType) defaultPort() int {
	if t == ProxySOCKS {
		return 1080
	}
	return 80
}

func (t ProxyType) defaultScheme() string {
	if t == ProxySOCKS {
		return "socks5"
	}
	return "http"
}

type proxySetting struct {
	host string
	port int
	set  bool
}

// Proxies holds the proxy settings for each ProxyType. The zero value
// has no proxy configured.
type Proxies struct {
	http  proxySetting
	ftp   proxySetting
	socks proxySetting
}

func (p *Proxies) setting(t ProxyType) *proxySetting {
	switch t {
	case ProxyHTTP:
		return &p.http
	case ProxyFTP:
		return &p.ftp
	case ProxySOCKS:
		return &p.socks
	}
	panic(fmt.Sprintf("unhandled proxy type: %s", t))
}

// Set configures the proxy for the given type.
func (p *Proxies) Set(t ProxyType, host string, port int) {
	*p.setting(t) = proxySetting{host: host, port: port, set: true}
}

// SetHost configures the proxy for the given type from a combined
// "host:port" string. The port is extracted with ExtractPort, a missing
// or malformed port is stored as -1.
func (p *Proxies) SetHost(t ProxyType, host string) {
	p.Set(t, RemovePort(host), ExtractPort(host, -1))
}

// Host returns the proxy host for the given type, or an empty string
// if none is configured.
func (p Proxies) Host(t ProxyType) string {
	return p.setting(t).host
}

// Port returns the proxy port for the given type, or -1 if none is
// configured.
func (p Proxies) Port(t ProxyType) int {
	s := p.setting(t)
	if !s.set {
		return -1
	}
	return s.port
}

// proxyURL returns the proxy for the given type as a URL suitable for
// http.ProxyURL and proxy.FromURL, or nil if none is configured. The host
// may carry a scheme and user:password credentials.
func (p Proxies) proxyURL(t ProxyType) *url.URL {
	s := p.setting(t)
	if !s.set || s.host == "" {
		return nil
	}

	host := s.host
	scheme := t.defaultScheme()
	if before, after, found := strings.Cut(host, "://"); found {
		scheme, host = before, after
	}
	if i := strings.Index(host, "/"); i >= 0 {
		host = host[:i]
	}
	var user *url.Userinfo
	if i := strings.LastIndex(host, "@"); i >= 0 {
		name, password, hasPassword := strings.Cut(host[:i], ":")
		if hasPassword {
			user = url.UserPassword(name, password)
		} else {
			user = url.User(name)
		}
		host = host[i+1:]
	}
	port := s.port
	if port < 0 {
		port = t.defaultPort()
	}
	return &url.URL{
		Scheme: scheme,
		User:   user,
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
	}
}

// dialer returns the dialer every outgoing connection goes through:
// direct, or via the SOCKS proxy when one is configured.
func (p Proxies) dialer() (proxy.Dialer, error) {
	u := p.proxyURL(ProxySOCKS)
	if u == nil {
		return proxy.Direct, nil
	}
	d, err := proxy.FromURL(u, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("setting up SOCKS proxy %s: %w", u.Redacted(), err)
	}
	return d, nil
}

// ftpDialer returns the dialer for ftp control and data connections,
// tunnelled through the FTP proxy when one is configured.
func (p Proxies) ftpDialer() (proxy.Dialer, error) {
	d, err := p.dialer()
	if err != nil {
		return nil, err
	}
	u := p.proxyURL(ProxyFTP)
	if u == nil {
		return d, nil
	}
	tunnel, err := proxy.FromURL(u, d)
	if err != nil {
		return nil, fmt.Errorf("setting up FTP proxy %s: %w", u.Redacted(), err)
	}
	return tunnel, nil
}

// transport returns an http.Transport honouring the HTTP and SOCKS
// proxies. Without an HTTP proxy the usual *_PROXY environment variables
// apply.
func (p Proxies) transport() (*http.Transport, error) {
	t := http.DefaultTransport.(*http.Transport).Clone()
	if u := p.proxyURL(ProxyHTTP); u != nil {
		t.Proxy = http.ProxyURL(u)
	} else {
		t.Proxy = http.ProxyFromEnvironment
	}
	if p.proxyURL(ProxySOCKS) != nil {
		d, err := p.dialer()
		if err != nil {
			return nil, err
		}
		t.DialContext = contextDialer(d)
	}
	return t, nil
}

func contextDialer(d proxy.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	if cd, ok := d.(proxy.ContextDialer); ok {
		return cd.DialContext
	}
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return d.Dial(network, addr)
	}
}

// RemovePort removes the port, as found by ExtractPort, from host.
func RemovePort(host string) string {
	port := ExtractPort(host, -1)
	if port > -1 {
		return strings.ReplaceAll(host, ":"+strconv.Itoa(port), "")
	}
	return host
}

// ExtractPort returns the port contained in host: the text after the last
// ':' up to the next '/', if any. defPort is returned if there is no port
// or it cannot be parsed.
func ExtractPort(host string, defPort int) int {
	pos := strings.LastIndex(host, ":")
	if pos < 0 {
		return defPort
	}
	portStr := host[pos+1:]
	if i := strings.Index(portStr, "/"); i >= 0 {
		portStr = portStr[:i]
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return defPort
	}
	return port
}
