// Copyright 2023 The Go-MySQL-Driver Authors. All rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package mysql

import (
	"context"
	"crypto/sha1"
	"fmt"
	"strconv"
)

// scrambleNativePassword implements mysql_native_password (§4.3):
// SHA1(pass) XOR SHA1(seed || SHA1(SHA1(pass))). An empty password yields an
// empty response.
func scrambleNativePassword(seed []byte, password string) []byte {
	if len(password) == 0 {
		return nil
	}

	h := sha1.New()
	h.Write([]byte(password))
	stage1 := h.Sum(nil)

	h.Reset()
	h.Write(stage1)
	stage2 := h.Sum(nil)

	h.Reset()
	h.Write(seed)
	h.Write(stage2)
	scramble := h.Sum(nil)

	for i := range scramble {
		scramble[i] ^= stage1[i]
	}
	return scramble
}

// handshake drives the login part of §4.3: read the server's Handshake
// packet, assemble and send the handshake response, and read the auth
// result. Connect learns max_allowed_packet afterwards.
func (mc *Conn) handshake(ctx context.Context) error {
	if err := mc.checkCancel(ctx); err != nil {
		return err
	}

	data, err := mc.readPacket()
	if err != nil {
		return err
	}
	hs, err := parseHandshakePacket(data)
	if err != nil {
		return err
	}

	mc.connectionID = hs.ConnectionID
	mc.characterSet = hs.CharacterSet
	mc.statusFlags = hs.StatusFlags

	clientFlags := ClientFlag(ClientProtocol41 | ClientSecureConnection |
		ClientLongPassword | ClientTransactions | ClientLocalFiles)
	if hs.CapabilityFlags&ClientLongFlag != 0 {
		clientFlags |= ClientLongFlag
	}
	if mc.opts.DBName != "" {
		clientFlags |= ClientConnectWithDB
	}
	mc.capabilityFlags = clientFlags

	scramble := scrambleNativePassword(hs.AuthPluginData, mc.opts.Pass)

	if err := mc.writeHandshakeResponse(clientFlags, scramble); err != nil {
		return err
	}

	authData, err := mc.readPacket()
	if err != nil {
		return err
	}
	switch {
	case isOKPacket(authData):
		if _, err := parseOKPacket(authData); err != nil {
			return err
		}
	case isErrPacket(authData):
		err := parseErrPacket(authData)
		mc.logf("handshake: server rejected login: %v", err)
		return err
	case len(authData) > 0 && authData[0] == 0xfe:
		mc.logf("handshake: server requires the old pre-4.1 password scheme")
		return ErrOldPassword
	default:
		return ErrMalformedPacket
	}

	return nil
}

// writeHandshakeResponse assembles and sends the Handshake Response packet
// described in §4.3.
func (mc *Conn) writeHandshakeResponse(clientFlags ClientFlag, scramble []byte) error {
	pktLen := 4 + 4 + 1 + 23 + len(mc.opts.User) + 1 + 1 + len(scramble)
	if mc.opts.DBName != "" {
		pktLen += len(mc.opts.DBName) + 1
	}

	data := make([]byte, 0, pktLen)
	data = append(data, uint32ToBytes(uint32(clientFlags))...)
	data = append(data, uint32ToBytes(MaxPayloadLen)...)
	data = append(data, defaultCollation)
	data = append(data, make([]byte, 23)...)
	data = append(data, []byte(mc.opts.User)...)
	data = append(data, 0x00)
	data = append(data, byte(len(scramble)))
	data = append(data, scramble...)
	if mc.opts.DBName != "" {
		data = append(data, []byte(mc.opts.DBName)...)
		data = append(data, 0x00)
	}

	// mc.seqID is already 1 here: readPacket advanced it past the
	// server's Handshake packet (sequence 0).
	return mc.writePacket(data)
}

// learnMaxAllowedPacket implements §4.3's "SELECT @@max_allowed_packet"
// post-handshake step.
func (mc *Conn) learnMaxAllowedPacket(ctx context.Context) error {
	rows, err := mc.Query(ctx, "SELECT @@max_allowed_packet")
	if err != nil {
		return fmt.Errorf("mysql: could not read max_allowed_packet: %w", err)
	}
	var value []byte
	for {
		row, ok, err := rows.Next(ctx)
		if err != nil {
			rows.Close(ctx)
			return err
		}
		if !ok {
			break
		}
		if b, ok := row[0].Bytes(); ok {
			value = b
		}
	}
	if err := rows.Close(ctx); err != nil {
		return err
	}
	if value == nil {
		return fmt.Errorf("mysql: max_allowed_packet not returned by server")
	}
	n, err := strconv.ParseUint(string(value), 10, 64)
	if err != nil {
		return fmt.Errorf("mysql: could not parse max_allowed_packet %q: %w", value, err)
	}
	mc.maxAllowedPacket = n
	return nil
}
