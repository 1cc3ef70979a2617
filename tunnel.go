//
// Copyright 2018-2025 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package fetcher

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"golang.org/x/net/proxy"
)

func init() {
	proxy.RegisterDialerType("http", newTunnelDialer)
}

// tunnelDialer opens connections through an HTTP proxy using CONNECT.
type tunnelDialer struct {
	proxyAddr string
	auth      *url.Userinfo
	forward   proxy.Dialer
}

func newTunnelDialer(u *url.URL, forward proxy.Dialer) (proxy.Dialer, error) {
	return &tunnelDialer{
		proxyAddr: u.Host,
		auth:      u.User,
		forward:   forward,
	}, nil
}

func (d *tunnelDialer) Dial(network, addr string) (net.Conn, error) {
	conn, err := d.forward.Dial(network, d.proxyAddr)
	if err != nil {
		return nil, fmt.Errorf("connecting to proxy %s: %w", d.proxyAddr, err)
	}

	req := &http.Request{
		Method: http.MethodConnect,
		URL:    &url.URL{Opaque: addr},
		Host:   addr,
		Header: make(http.Header),
	}
	if d.auth != nil {
		password, _ := d.auth.Password()
		creds := base64.StdEncoding.EncodeToString([]byte(d.auth.Username() + ":" + password))
		req.Header.Set("Proxy-Authorization", "Basic "+creds)
	}
	if err := req.Write(conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("sending CONNECT to proxy %s: %w", d.proxyAddr, err)
	}

	br := bufio.NewReader(conn)
	resp, err := http.ReadResponse(br, req)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("reading CONNECT response from proxy %s: %w", d.proxyAddr, err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = conn.Close()
		return nil, fmt.Errorf("proxy %s refused tunnel to %s: %s", d.proxyAddr, addr, resp.Status)
	}
	// The server may speak first (ftp does), its greeting could already
	// be sitting in br.
	return &bufferedConn{Conn: conn, r: br}, nil
}

type bufferedConn struct {
	net.Conn
	r *bufio.Reader
}

func (c *bufferedConn) Read(p []byte) (int, error) {
	return c.r.Read(p)
}
