// Copyright 2013 Julien Schmidt. All rights reserved.
// http://www.julienschmidt.com
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package mysql

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

func TestLengthEncodedIntegerSizes(t *testing.T) {
	cases := []struct {
		n        uint64
		wantSize int
	}{
		{250, 1},
		{251, 3},
		{65535, 3},
		{16777215, 4},
		{1 << 32, 9},
	}
	for _, c := range cases {
		if got := lengthEncodedIntegerSize(c.n); got != c.wantSize {
			t.Errorf("lengthEncodedIntegerSize(%d) = %d, want %d", c.n, got, c.wantSize)
		}

		b := appendLengthEncodedInteger(nil, c.n)
		if len(b) != c.wantSize {
			t.Errorf("appendLengthEncodedInteger(%d) produced %d bytes, want %d", c.n, len(b), c.wantSize)
		}

		got, isNull, n, err := readLengthEncodedInteger(b)
		if err != nil {
			t.Fatalf("readLengthEncodedInteger(%d): %v", c.n, err)
		}
		if isNull {
			t.Fatalf("readLengthEncodedInteger(%d): unexpected NULL", c.n)
		}
		if n != c.wantSize || got != c.n {
			t.Errorf("round trip %d: got (%d, n=%d), want (%d, n=%d)", c.n, got, n, c.n, c.wantSize)
		}
	}
}

func TestReadLengthEncodedIntegerNull(t *testing.T) {
	_, isNull, n, err := readLengthEncodedInteger([]byte{0xfb, 0x99})
	if err != nil {
		t.Fatal(err)
	}
	if !isNull || n != 1 {
		t.Fatalf("isNull=%v n=%d, want true,1", isNull, n)
	}
}

func TestReadLengthEncodedIntegerTruncated(t *testing.T) {
	cases := [][]byte{
		{0xfc, 0x01},
		{0xfd, 0x01, 0x02},
		{0xfe, 0x01, 0x02, 0x03},
	}
	for _, b := range cases {
		if _, _, _, err := readLengthEncodedInteger(b); err == nil {
			t.Errorf("expected error for truncated %x", b)
		}
	}
}

func TestLengthEncodedStringRoundTrip(t *testing.T) {
	s := []byte("hello, world")
	b := appendLengthEncodedString(nil, s)

	got, isNull, n, err := readLengthEncodedString(b)
	if err != nil {
		t.Fatal(err)
	}
	if isNull {
		t.Fatal("unexpected NULL")
	}
	if n != len(b) || !bytes.Equal(got, s) {
		t.Fatalf("got %q (n=%d), want %q (n=%d)", got, n, s, len(b))
	}
}

func TestReadNullTerminatedString(t *testing.T) {
	b := []byte("abc\x00def")
	s, n, err := readNullTerminatedString(b)
	if err != nil {
		t.Fatal(err)
	}
	if string(s) != "abc" || n != 4 {
		t.Fatalf("got %q, n=%d, want \"abc\", n=4", s, n)
	}

	if _, _, err := readNullTerminatedString([]byte("noterminator")); err == nil {
		t.Fatal("expected error for missing NUL terminator")
	}
}

func TestFixedWidthHelpersRoundTrip(t *testing.T) {
	if got := uint16ToBytes(0x1234); !bytes.Equal(got, []byte{0x34, 0x12}) {
		t.Errorf("uint16ToBytes = %x", got)
	}
	if got := uint24ToBytes(0x010203); !bytes.Equal(got, []byte{0x03, 0x02, 0x01}) {
		t.Errorf("uint24ToBytes = %x", got)
	}
	if got := uint32ToBytes(0x01020304); !bytes.Equal(got, []byte{0x04, 0x03, 0x02, 0x01}) {
		t.Errorf("uint32ToBytes = %x", got)
	}

	f := 3.14159
	back := math.Float64frombits(binary.LittleEndian.Uint64(float64ToBytes(f)))
	if back != f {
		t.Errorf("float64 round trip = %v, want %v", back, f)
	}
}
