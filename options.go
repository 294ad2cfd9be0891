// Copyright 2013 Julien Schmidt. All rights reserved.
// http://www.julienschmidt.com
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package mysql

import (
	"context"
	"net"
	"strings"
)

// Options enumerates the connection-level configuration a caller supplies
// (§6). Parsing a DSN string into Options is outside this core's scope.
type Options struct {
	// TCPAddr is a "host:port" address. Defaults to 127.0.0.1:3306 when
	// neither TCPAddr nor UnixAddr is set.
	TCPAddr string

	// UnixAddr is a filesystem path to a UNIX-domain socket. When set, it
	// takes precedence over TCPAddr.
	UnixAddr string

	User   string
	Pass   string
	DBName string

	// PreferSocket, when true and the connection lands on TCP loopback,
	// makes Connect try to reopen over the server-advertised @@socket.
	PreferSocket bool

	// Logger overrides the package default logger for this connection.
	Logger Logger
}

const defaultTCPAddr = "127.0.0.1:3306"

func (o Options) dialNetwork() (network, addr string) {
	if o.UnixAddr != "" {
		return "unix", o.UnixAddr
	}
	if o.TCPAddr != "" {
		return "tcp", o.TCPAddr
	}
	return "tcp", defaultTCPAddr
}

// dial opens the transport named by Options, honoring ctx cancellation.
func (o Options) dial(ctx context.Context) (net.Conn, error) {
	network, addr := o.dialNetwork()
	var d net.Dialer
	c, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, wrapNetError("dial", err)
	}
	return c, nil
}

// isLoopbackTCP reports whether Options names a TCP loopback endpoint: a
// loopback IP address (127.0.0.0/8 or ::1) or the host name "localhost".
// An unset address counts as the default 127.0.0.1:3306. This is the only
// case "prefer_socket" applies to (§4.3).
func (o Options) isLoopbackTCP() bool {
	if o.UnixAddr != "" {
		return false
	}
	addr := o.TCPAddr
	if addr == "" {
		addr = defaultTCPAddr
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	host = strings.Trim(host, "[]")
	ip := net.ParseIP(host)
	if ip == nil {
		return host == "localhost"
	}
	return ip.IsLoopback()
}
