// Copyright 2012 Julien Schmidt. All rights reserved.
// http://www.julienschmidt.com
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package mysql

import (
	"context"
	"fmt"
	"net"
)

// logf formats a diagnostic through mc.logger, matching the teacher's
// errLog.Print call sites (§[ADD 4.8]).
func (mc *Conn) logf(format string, args ...any) {
	mc.logger.Print(fmt.Sprintf(format, args...))
}

// connState implements the state machine of §4.7.
type connState uint8

const (
	stateFresh connState = iota
	stateHandshaking
	stateReady
	stateInText
	stateInBinary
	stateSendingLongData
	stateLocalInfile
	stateBroken
)

func (s connState) busy() bool {
	return s == stateInText || s == stateInBinary || s == stateSendingLongData || s == stateLocalInfile
}

// Conn is a single, synchronous connection to a MySQL/MariaDB server (§3
// "Connection state"). It is not safe for concurrent use: exactly one
// command, or one open result set, may be in flight at a time (§5).
type Conn struct {
	opts Options

	netConn net.Conn
	buf     *buffer
	logger  Logger

	seqID           uint8
	capabilityFlags ClientFlag
	statusFlags     StatusFlag
	connectionID    uint32
	characterSet    uint8

	affectedRows     uint64
	lastInsertID     uint64
	warnings         uint16
	maxAllowedPacket uint64

	lastCommand commandType
	state       connState
	connected   bool

	localInfileHandler LocalInfileHandler
}

// Open constructs a Conn that is not yet connected. Call Connect to drive
// the transport dial and login handshake.
func Open(opts Options) *Conn {
	logger := opts.Logger
	if logger == nil {
		logger = defaultLogger
	}
	return &Conn{opts: opts, logger: logger, state: stateFresh, maxAllowedPacket: MaxPayloadLen}
}

// SetLocalInfileHandler installs the callback invoked for a server-issued
// LOCAL INFILE request (§4.5, §9). Passing nil removes it.
func (mc *Conn) SetLocalInfileHandler(h LocalInfileHandler) {
	mc.localInfileHandler = h
}

// AffectedRows reflects the affected_rows field of the most recent OK packet.
func (mc *Conn) AffectedRows() uint64 { return mc.affectedRows }

// LastInsertID reflects the last_insert_id field of the most recent OK packet.
func (mc *Conn) LastInsertID() uint64 { return mc.lastInsertID }

// Warnings reflects the warning count of the most recent OK/EOF packet.
func (mc *Conn) Warnings() uint16 { return mc.warnings }

// Connected reports whether the handshake completed successfully and the
// connection has not since been marked Broken or Closed.
func (mc *Conn) Connected() bool { return mc.connected && mc.state != stateBroken }

// Connect drives §4.3: dial the transport, perform the login handshake,
// learn max_allowed_packet and, if requested, switch to a preferred local
// socket. It is idempotent once connected.
func (mc *Conn) Connect(ctx context.Context) error {
	if mc.connected {
		return nil
	}

	netConn, err := mc.opts.dial(ctx)
	if err != nil {
		return err
	}
	mc.attach(netConn)

	if err := mc.handshake(ctx); err != nil {
		mc.netConn.Close()
		mc.state = stateBroken
		return err
	}

	mc.connected = true
	mc.state = stateReady
	mc.logf("state: Handshaking -> Ready")

	if err := mc.learnMaxAllowedPacket(ctx); err != nil {
		mc.netConn.Close()
		mc.connected = false
		mc.state = stateBroken
		return err
	}

	if mc.opts.PreferSocket && mc.opts.isLoopbackTCP() {
		mc.tryPreferSocket(ctx)
	}

	return nil
}

func (mc *Conn) attach(netConn net.Conn) {
	mc.netConn = netConn
	mc.buf = newBuffer(netConn)
	mc.seqID = 0
	mc.state = stateHandshaking
	mc.logf("state: Fresh -> Handshaking")
}

// tryPreferSocket implements §4.3's socket preference: on any failure along
// the way, the original TCP connection is retained (§9 Open Questions).
func (mc *Conn) tryPreferSocket(ctx context.Context) {
	rows, err := mc.Query(ctx, "SELECT @@socket")
	if err != nil {
		mc.logf("prefer_socket: could not read @@socket: %v", err)
		return
	}
	var path string
	for {
		row, ok, err := rows.Next(ctx)
		if err != nil || !ok {
			break
		}
		if b, ok := row[0].Bytes(); ok {
			path = string(b)
		}
	}
	rows.Close(ctx)
	if path == "" {
		return
	}

	altOpts := mc.opts
	altOpts.UnixAddr = path
	altOpts.TCPAddr = ""
	altOpts.PreferSocket = false
	alt := Open(altOpts)
	if err := alt.Connect(ctx); err != nil {
		mc.logf("prefer_socket: falling back to TCP: %v", err)
		return
	}

	// Swap in the new transport, keep the rest of our state/handlers.
	mc.netConn.Close()
	mc.netConn = alt.netConn
	mc.buf = alt.buf
	mc.seqID = alt.seqID
	mc.capabilityFlags = alt.capabilityFlags
	mc.statusFlags = alt.statusFlags
	mc.connectionID = alt.connectionID
	mc.characterSet = alt.characterSet
	mc.maxAllowedPacket = alt.maxAllowedPacket
	mc.opts.UnixAddr = path
}

// Close sends COM_QUIT best-effort and releases the transport. A Close'd
// connection must not be reused.
func (mc *Conn) Close() error {
	if !mc.connected || mc.netConn == nil {
		return nil
	}
	mc.writeCommandPacket(comQuit, nil)
	err := mc.netConn.Close()
	mc.netConn = nil
	mc.connected = false
	mc.state = stateBroken
	return err
}

// Ping issues COM_PING (§4.9), a zero-argument round trip used to verify
// the connection is alive.
func (mc *Conn) Ping(ctx context.Context) error {
	if err := mc.checkReady(); err != nil {
		return err
	}
	if err := mc.checkCancel(ctx); err != nil {
		return mc.fatal(err)
	}
	if err := mc.writeCommandPacket(comPing, nil); err != nil {
		return mc.fatal(err)
	}
	_, err := mc.readResultOK()
	return err
}

func (mc *Conn) checkReady() error {
	if !mc.connected || mc.state == stateBroken {
		return ErrInvalidConn
	}
	if mc.state.busy() {
		return ErrBusy
	}
	return nil
}

func (mc *Conn) checkCancel(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// fatal marks the connection Broken and returns err unchanged, matching §5:
// cancellation and transport errors are modelled as connection closure.
func (mc *Conn) fatal(err error) error {
	mc.state = stateBroken
	mc.logf("state: -> Broken: %v", err)
	return err
}
