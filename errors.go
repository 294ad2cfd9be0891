// Copyright 2013 Julien Schmidt. All rights reserved.
// http://www.julienschmidt.com
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package mysql

import (
	"errors"
	"fmt"
)

// Sentinel errors for the kinds of §7 that carry no payload of their own.
var (
	// ErrOutOfSync is returned when a frame's sequence id does not match
	// the connection's expected value. The connection is no longer usable.
	ErrOutOfSync = errors.New("mysql: commands out of sync; the connection must be closed")

	// ErrMalformedPacket is returned when a response packet cannot be
	// parsed as any recognised shape.
	ErrMalformedPacket = errors.New("mysql: malformed packet")

	// ErrUnsupportedProtocol is returned when the server's handshake
	// protocol_version is not 10, or it does not advertise PROTOCOL_41.
	ErrUnsupportedProtocol = errors.New("mysql: server does not speak a supported protocol version")

	// ErrBusy is returned when a command is attempted while a result set
	// from a previous command is still open on the connection.
	ErrBusy = errors.New("mysql: a result set is still open on this connection")

	// ErrParamCountMismatch is returned by Execute when the supplied
	// parameter count differs from the prepared statement's param count.
	ErrParamCountMismatch = errors.New("mysql: parameter count mismatch")

	// ErrPacketTooLarge is returned when an outbound payload exceeds the
	// learned max_allowed_packet.
	ErrPacketTooLarge = errors.New("mysql: packet for query is too large; see max_allowed_packet")

	// ErrInvalidConn is returned by operations attempted on a connection
	// that failed to connect, or is Broken, or was Closed.
	ErrInvalidConn = errors.New("mysql: invalid connection")

	// ErrNoLocalInfileHandler is returned when the server requests a
	// LOCAL INFILE upload but no handler has been registered.
	ErrNoLocalInfileHandler = errors.New("mysql: server requested LOCAL INFILE but no handler is registered")

	// ErrOldPassword is returned when the server still speaks the
	// pre-4.1 password scheme, which this core does not implement.
	ErrOldPassword = errors.New("mysql: server requires the old pre-4.1 password scheme, which is unsupported")
)

// MySQLError represents a well-formed ERR packet from the server (§7
// ServerError). The connection remains usable after a MySQLError as long as
// no result set is left open.
type MySQLError struct {
	Code    uint16
	State   [5]byte
	Message string
}

func (e *MySQLError) Error() string {
	return fmt.Sprintf("mysql: error %d (%s): %s", e.Code, e.State[:], e.Message)
}

// LocalInfileError wraps a failure raised by the caller-supplied LOCAL
// INFILE callback (§9). It may or may not leave the connection usable,
// depending on how much of the stream had already been sent.
type LocalInfileError struct {
	Err error
}

func (e *LocalInfileError) Error() string {
	return fmt.Sprintf("mysql: local infile handler failed: %v", e.Err)
}

func (e *LocalInfileError) Unwrap() error { return e.Err }

// netError wraps a transport failure (§7 TransportError). It is always
// fatal: the connection that produced it is marked Broken.
type netError struct {
	op  string
	err error
}

func (e *netError) Error() string { return fmt.Sprintf("mysql: %s: %v", e.op, e.err) }
func (e *netError) Unwrap() error { return e.err }

func wrapNetError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &netError{op: op, err: err}
}
