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
	"net/url"
	"sync"
	"time"

	"github.com/jlaffaye/ftp"
)

const defaultFTPPort = "21"

// ftpShutTimeout bounds the wait for the end-of-transfer reply.
const ftpShutTimeout = 10 * time.Second

// ftpBody closes the FTP session together with the transferred file.
type ftpBody struct {
	*ftp.Response
	conn *ftp.ServerConn

	once       sync.Once
	err1, err2 error
}

func (b *ftpBody) Close() error {
	b.once.Do(func() {
		b.err1 = b.Response.Close()
		b.err2 = b.conn.Quit()
	})
	err1, err2 := b.err1, b.err2
	if err1 != nil {
		return fmt.Errorf("closing ftp transfer: %w", err1)
	}
	if err2 != nil {
		return fmt.Errorf("closing ftp session: %w", err2)
	}
	return nil
}

// ftpAddress returns the host:port of the server u points to.
func ftpAddress(u *url.URL) string {
	port := u.Port()
	if port == "" {
		port = defaultFTPPort
	}
	return net.JoinHostPort(u.Hostname(), port)
}

// ftpCredentials returns the login for u, anonymous if u has no user.
func ftpCredentials(u *url.URL) (user, password string) {
	if u.User == nil || u.User.Username() == "" {
		return "anonymous", "anonymous"
	}
	password, _ = u.User.Password()
	return u.User.Username(), password
}

func openFTP(ctx context.Context, u *url.URL, proxies Proxies) (*Connection, error) {
	d, err := proxies.ftpDialer()
	if err != nil {
		return nil, err
	}
	dial := contextDialer(d)

	addr := ftpAddress(u)
	conn, err := ftp.Dial(addr,
		ftp.DialWithShutTimeout(ftpShutTimeout),
		ftp.DialWithDialFunc(func(network, address string) (net.Conn, error) {
			return dial(ctx, network, address)
		}))
	if err != nil {
		return nil, fmt.Errorf("connecting to ftp server %s: %w", addr, err)
	}

	user, password := ftpCredentials(u)
	if err := conn.Login(user, password); err != nil {
		_ = conn.Quit()
		return nil, fmt.Errorf("logging in to ftp server %s: %w", addr, err)
	}
	resp, err := conn.Retr(u.Path)
	if err != nil {
		_ = conn.Quit()
		return nil, fmt.Errorf("retrieving %s: %w", u.Path, err)
	}
	return &Connection{
		URL:  u.String(),
		Body: &ftpBody{Response: resp, conn: conn},
	}, nil
}
