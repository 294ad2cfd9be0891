// Copyright 2013 Julien Schmidt. All rights reserved.
// http://www.julienschmidt.com
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package mysql

import (
	"context"
	"strings"
	"testing"
)

type recordingLogger struct {
	lines []string
}

func (l *recordingLogger) Print(v ...any) {
	for _, x := range v {
		if s, ok := x.(string); ok {
			l.lines = append(l.lines, s)
		}
	}
}

func TestSetLoggerOverridesDefault(t *testing.T) {
	orig := defaultLogger
	defer func() { defaultLogger = orig }()

	rl := &recordingLogger{}
	SetLogger(rl)
	defaultLogger.Print("hello")

	if len(rl.lines) != 1 || rl.lines[0] != "hello" {
		t.Fatalf("lines = %v", rl.lines)
	}
}

func TestSetLoggerIgnoresNil(t *testing.T) {
	orig := defaultLogger
	defer func() { defaultLogger = orig }()

	SetLogger(nil)
	if defaultLogger != orig {
		t.Fatal("SetLogger(nil) must not change defaultLogger")
	}
}

func TestOpenUsesProvidedLogger(t *testing.T) {
	rl := &recordingLogger{}
	mc := Open(Options{Logger: rl})
	if mc.logger != rl {
		t.Fatal("Open should use the Logger from Options when provided")
	}
}

func containsSubstring(lines []string, substr string) bool {
	for _, l := range lines {
		if strings.Contains(l, substr) {
			return true
		}
	}
	return false
}

func TestQueryLogsDispatchAndServerError(t *testing.T) {
	rl := &recordingLogger{}
	conn, mc := newMockConn(0)
	mc.logger = rl
	conn.queuedReplies = [][]byte{encodeFrame(1, []byte{0xff, 0x1a, 0x04, '#', '4', '2', 'S', '0', '2', 'n', 'o', ' ', 's', 'u', 'c', 'h', ' ', 't', 'a', 'b', 'l', 'e'})}

	if _, err := mc.Query(context.Background(), "SELECT 1"); err == nil {
		t.Fatal("expected a *MySQLError")
	}
	if !containsSubstring(rl.lines, `dispatch: query "SELECT 1"`) {
		t.Fatalf("expected a dispatch log line, got %v", rl.lines)
	}
	if !containsSubstring(rl.lines, "server error") {
		t.Fatalf("expected a server error log line, got %v", rl.lines)
	}
}

func TestFatalLogsBrokenTransition(t *testing.T) {
	rl := &recordingLogger{}
	_, mc := newMockConn(0)
	mc.logger = rl

	boom := errConnClosed
	mc.fatal(boom)
	if !containsSubstring(rl.lines, "Broken") {
		t.Fatalf("expected a Broken state log line, got %v", rl.lines)
	}
}
