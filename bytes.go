// Copyright 2012 Julien Schmidt. All rights reserved.
// http://www.julienschmidt.com
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package mysql

import (
	"encoding/binary"
	"io"
	"math"
)

/******************************************************************************
*                   little-endian fixed-width helpers (C1)                   *
******************************************************************************/

func uint16ToBytes(n uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, n)
	return b
}

func uint24ToBytes(n uint32) []byte {
	return []byte{byte(n), byte(n >> 8), byte(n >> 16)}
}

func uint32ToBytes(n uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, n)
	return b
}

func uint64ToBytes(n uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, n)
	return b
}

func float64ToBytes(f float64) []byte {
	return uint64ToBytes(math.Float64bits(f))
}

func float32ToBytes(f float32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, math.Float32bits(f))
	return b
}

/******************************************************************************
*                        length-encoded integer (§4.2)                       *
******************************************************************************/

// readLengthEncodedInteger decodes the four-form length-encoded integer at
// the start of b. n is the number of bytes the integer itself occupied
// (1, 3, 4 or 9); isNull reports the 0xFB NULL-marker form.
func readLengthEncodedInteger(b []byte) (num uint64, isNull bool, n int, err error) {
	if len(b) == 0 {
		return 0, false, 0, io.ErrUnexpectedEOF
	}

	switch b[0] {
	case 0xfb:
		return 0, true, 1, nil

	case 0xfc:
		if len(b) < 3 {
			return 0, false, 0, io.ErrUnexpectedEOF
		}
		return uint64(b[1]) | uint64(b[2])<<8, false, 3, nil

	case 0xfd:
		if len(b) < 4 {
			return 0, false, 0, io.ErrUnexpectedEOF
		}
		return uint64(b[1]) | uint64(b[2])<<8 | uint64(b[3])<<16, false, 4, nil

	case 0xfe:
		if len(b) < 9 {
			return 0, false, 0, io.ErrUnexpectedEOF
		}
		return binary.LittleEndian.Uint64(b[1:9]), false, 9, nil

	default:
		return uint64(b[0]), false, 1, nil
	}
}

// appendLengthEncodedInteger appends the length-encoded-integer form of n to
// b and returns the result.
func appendLengthEncodedInteger(b []byte, n uint64) []byte {
	switch {
	case n < 0xfb:
		return append(b, byte(n))
	case n <= 0xffff:
		return append(b, 0xfc, byte(n), byte(n>>8))
	case n <= 0xffffff:
		return append(b, 0xfd, byte(n), byte(n>>8), byte(n>>16))
	default:
		return append(b, 0xfe,
			byte(n), byte(n>>8), byte(n>>16), byte(n>>24),
			byte(n>>32), byte(n>>40), byte(n>>48), byte(n>>56))
	}
}

// lengthEncodedIntegerSize returns how many bytes appendLengthEncodedInteger
// would emit for n, without allocating.
func lengthEncodedIntegerSize(n uint64) int {
	switch {
	case n < 0xfb:
		return 1
	case n <= 0xffff:
		return 3
	case n <= 0xffffff:
		return 4
	default:
		return 9
	}
}

/******************************************************************************
*                        length-encoded string (§4.2)                        *
******************************************************************************/

// readLengthEncodedString decodes a length-encoded string: a length-encoded
// integer N followed by N bytes. isNull reports the 0xFB NULL form.
func readLengthEncodedString(b []byte) (data []byte, isNull bool, n int, err error) {
	num, isNull, n, err := readLengthEncodedInteger(b)
	if err != nil || isNull {
		return nil, isNull, n, err
	}
	if uint64(len(b)) < uint64(n)+num {
		return nil, false, n, io.ErrUnexpectedEOF
	}
	return b[n : n+int(num)], false, n + int(num), nil
}

func appendLengthEncodedString(b []byte, s []byte) []byte {
	b = appendLengthEncodedInteger(b, uint64(len(s)))
	return append(b, s...)
}

/******************************************************************************
*                          NUL-terminated strings                            *
******************************************************************************/

// readNullTerminatedString returns the bytes up to (excluding) the first NUL,
// and the number of bytes consumed including the NUL.
func readNullTerminatedString(b []byte) (s []byte, n int, err error) {
	for i, c := range b {
		if c == 0 {
			return b[:i], i + 1, nil
		}
	}
	return nil, 0, io.ErrUnexpectedEOF
}
