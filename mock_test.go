// Copyright 2013 Julien Schmidt. All rights reserved.
// http://www.julienschmidt.com
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package mysql

import (
	"errors"
	"net"
	"time"
)

var (
	errConnClosed        = errors.New("connection is closed")
	errConnTooManyReads  = errors.New("too many reads")
	errConnTooManyWrites = errors.New("too many writes")
)

// mockConn is a net.Conn double driven by a canned read buffer and, after
// each write, an optional queued reply (so a handshake or command/response
// exchange can be scripted without a real server).
type mockConn struct {
	laddr         net.Addr
	raddr         net.Addr
	data          []byte
	written       []byte
	queuedReplies [][]byte
	closed        bool
	reads         int
	writes        int
	maxReads      int
	maxWrites     int
}

func (m *mockConn) Read(b []byte) (n int, err error) {
	if m.closed {
		return 0, errConnClosed
	}
	m.reads++
	if m.maxReads > 0 && m.reads > m.maxReads {
		return 0, errConnTooManyReads
	}
	n = copy(b, m.data)
	m.data = m.data[n:]
	return
}

func (m *mockConn) Write(b []byte) (n int, err error) {
	if m.closed {
		return 0, errConnClosed
	}
	m.writes++
	if m.maxWrites > 0 && m.writes > m.maxWrites {
		return 0, errConnTooManyWrites
	}
	n = len(b)
	m.written = append(m.written, b...)
	if n > 0 && len(m.queuedReplies) > 0 {
		m.data = append(m.data, m.queuedReplies[0]...)
		m.queuedReplies = m.queuedReplies[1:]
	}
	return
}

func (m *mockConn) Close() error                       { m.closed = true; return nil }
func (m *mockConn) LocalAddr() net.Addr                { return m.laddr }
func (m *mockConn) RemoteAddr() net.Addr               { return m.raddr }
func (m *mockConn) SetDeadline(t time.Time) error      { return nil }
func (m *mockConn) SetReadDeadline(t time.Time) error  { return nil }
func (m *mockConn) SetWriteDeadline(t time.Time) error { return nil }

// make sure mockConn implements the net.Conn interface
var _ net.Conn = new(mockConn)

// newMockConn builds a Conn wired to a mockConn, already Ready at the given
// sequence id, for tests that exercise a single command/response exchange
// without going through Connect.
func newMockConn(seqID uint8) (*mockConn, *Conn) {
	conn := new(mockConn)
	mc := &Conn{
		buf:              newBuffer(conn),
		netConn:          conn,
		logger:           defaultLogger,
		seqID:            seqID,
		connected:        true,
		state:            stateReady,
		maxAllowedPacket: MaxPayloadLen,
	}
	return conn, mc
}
