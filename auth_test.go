// Copyright 2013 Julien Schmidt. All rights reserved.
// http://www.julienschmidt.com
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package mysql

import (
	"bytes"
	"context"
	"testing"
)

func TestScrambleNativePasswordEmptyPassword(t *testing.T) {
	if got := scrambleNativePassword([]byte("01234567890123456789"), ""); got != nil {
		t.Fatalf("expected nil scramble for empty password, got %x", got)
	}
}

func TestScrambleNativePasswordDeterministic(t *testing.T) {
	seed := []byte("01234567890123456789")
	a := scrambleNativePassword(seed, "secret")
	b := scrambleNativePassword(seed, "secret")
	if !bytes.Equal(a, b) {
		t.Fatal("same seed and password must scramble identically")
	}
	if len(a) != 20 {
		t.Fatalf("scramble length = %d, want 20", len(a))
	}
}

func TestScrambleNativePasswordVariesWithInputs(t *testing.T) {
	seed := []byte("01234567890123456789")
	a := scrambleNativePassword(seed, "secret")
	b := scrambleNativePassword(seed, "different")
	if bytes.Equal(a, b) {
		t.Fatal("different passwords must not scramble to the same value")
	}

	otherSeed := []byte("abcdefghijabcdefghij")
	c := scrambleNativePassword(otherSeed, "secret")
	if bytes.Equal(a, c) {
		t.Fatal("different seeds must not scramble to the same value")
	}
}

// encodeHandshakePacket assembles a minimal protocol-41 Handshake packet
// body carrying the given seed as its 8-byte auth-plugin-data-part-1, with
// no part-2 (authDataLen left at 0).
func encodeHandshakePacket(connectionID uint32, seed []byte) []byte {
	data := []byte{10}
	data = append(data, "test-server"...)
	data = append(data, 0x00)
	data = append(data, uint32ToBytes(connectionID)...)
	data = append(data, seed[:8]...)
	data = append(data, 0x00) // filler
	data = append(data, byte(ClientProtocol41&0xff), byte(ClientProtocol41>>8))
	data = append(data, 0x21)
	data = append(data, 0x02, 0x00)
	data = append(data, 0x00, 0x00) // capability_flags_2
	data = append(data, 0x00)       // auth_plugin_data_len
	data = append(data, make([]byte, 10)...)
	return data
}

func TestHandshakeSendsResponseAndAcceptsOK(t *testing.T) {
	conn, mc := newMockConn(0)
	mc.opts = Options{User: "root", Pass: "secret", DBName: "app"}

	hsPkt := encodeHandshakePacket(1, []byte("01234567"))
	conn.data = encodeFrame(0, hsPkt)

	ok := []byte{0x00, 0x00, 0x00, 0x02, 0x00}
	conn.queuedReplies = [][]byte{encodeFrame(2, ok)}

	if err := mc.handshake(context.Background()); err != nil {
		t.Fatal(err)
	}
	if mc.connectionID != 1 {
		t.Fatalf("connectionID = %d, want 1", mc.connectionID)
	}
	if mc.capabilityFlags&ClientConnectWithDB == 0 {
		t.Fatal("expected CLIENT_CONNECT_WITH_DB to be set when DBName is set")
	}
	if mc.capabilityFlags&ClientLocalFiles == 0 {
		t.Fatal("expected CLIENT_LOCAL_FILES to always be set")
	}

	// Written handshake response must carry the username and DB name.
	if !bytes.Contains(conn.written, []byte("root")) {
		t.Fatal("handshake response missing username")
	}
	if !bytes.Contains(conn.written, []byte("app")) {
		t.Fatal("handshake response missing db name")
	}
}

func TestHandshakeRejectsOldPassword(t *testing.T) {
	conn, mc := newMockConn(0)
	mc.opts = Options{User: "root", Pass: "secret"}

	hsPkt := encodeHandshakePacket(1, []byte("01234567"))
	conn.data = encodeFrame(0, hsPkt)
	conn.queuedReplies = [][]byte{encodeFrame(2, []byte{0xfe})}

	if err := mc.handshake(context.Background()); err != ErrOldPassword {
		t.Fatalf("expected ErrOldPassword, got %v", err)
	}
}
