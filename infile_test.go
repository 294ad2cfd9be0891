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

func TestLocalInfileWriterFlushesFullBuffers(t *testing.T) {
	_, mc := newMockConn(0)
	w := &LocalInfileWriter{mc: mc, buf: make([]byte, 0, 4)}

	if _, err := w.Write([]byte("abcdefgh")); err != nil {
		t.Fatal(err)
	}
	if err := w.flush(); err != nil {
		t.Fatal(err)
	}
}

func TestHandleLocalInfileRequestWithoutHandler(t *testing.T) {
	conn, mc := newMockConn(0)
	conn.queuedReplies = [][]byte{encodeFrame(1, []byte{0x00, 0x00, 0x00, 0x02, 0x00})}

	err := mc.handleLocalInfileRequest(context.Background(), "/etc/passwd")
	if err != ErrNoLocalInfileHandler {
		t.Fatalf("expected ErrNoLocalInfileHandler, got %v", err)
	}
	// A terminating empty frame must still have been sent to keep framing
	// aligned, even with no handler registered.
	if len(conn.written) != 4 || conn.written[0] != 0 {
		t.Fatalf("expected a single empty terminator frame, got %x", conn.written)
	}
}

func TestHandleLocalInfileRequestStreamsAndAppliesOK(t *testing.T) {
	conn, mc := newMockConn(0)
	var seen string
	mc.localInfileHandler = func(fileName string, w *LocalInfileWriter) error {
		seen = fileName
		_, err := w.Write([]byte("line one\nline two\n"))
		return err
	}

	conn.queuedReplies = [][]byte{encodeFrame(2, []byte{0x00, 0x00, 0x00, 0x02, 0x00})}

	if err := mc.handleLocalInfileRequest(context.Background(), "data.csv"); err != nil {
		t.Fatal(err)
	}
	if seen != "data.csv" {
		t.Fatalf("handler saw filename %q, want data.csv", seen)
	}
	if !bytes.Contains(conn.written, []byte("line one")) {
		t.Fatal("uploaded content was not written to the wire")
	}
	if mc.state != stateReady {
		t.Fatalf("state = %v, want stateReady", mc.state)
	}
}

func TestHandleLocalInfileRequestHandlerErrorWrapped(t *testing.T) {
	conn, mc := newMockConn(0)
	boom := context.DeadlineExceeded
	mc.localInfileHandler = func(fileName string, w *LocalInfileWriter) error {
		return boom
	}
	conn.queuedReplies = [][]byte{encodeFrame(1, []byte{0x00, 0x00, 0x00, 0x02, 0x00})}

	err := mc.handleLocalInfileRequest(context.Background(), "data.csv")
	infileErr, ok := err.(*LocalInfileError)
	if !ok {
		t.Fatalf("expected *LocalInfileError, got %T: %v", err, err)
	}
	if infileErr.Unwrap() != boom {
		t.Fatalf("Unwrap() = %v, want %v", infileErr.Unwrap(), boom)
	}
}
