// Copyright 2013 Julien Schmidt. All rights reserved.
// http://www.julienschmidt.com
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package mysql

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Kind tags the variant carried by a Value (§3).
type Kind uint8

const (
	KindNull Kind = iota
	KindBytes
	KindInt
	KindUint
	KindFloat
	KindDate
	KindTime
)

// Date is the Value variant for DATE/DATETIME/TIMESTAMP columns.
type Date struct {
	Year        uint16
	Month       uint8
	Day         uint8
	Hour        uint8
	Minute      uint8
	Second      uint8
	Microsecond uint32
}

// Time is the Value variant for TIME columns. Days holds the whole-day part
// of a MySQL TIME value, which ranges beyond 24 hours.
type Time struct {
	Neg         bool
	Days        uint32
	Hour        uint8
	Minute      uint8
	Second      uint8
	Microsecond uint32
}

// Value is the tagged union that is the sole currency between the protocol
// and the application, for both bound parameters and decoded rows (§3).
// The zero Value is KindNull.
type Value struct {
	kind  Kind
	bytes []byte
	i     int64
	u     uint64
	f     float64
	date  Date
	time  Time
}

func NullValue() Value           { return Value{kind: KindNull} }
func BytesValue(b []byte) Value  { return Value{kind: KindBytes, bytes: b} }
func StringValue(s string) Value { return Value{kind: KindBytes, bytes: []byte(s)} }
func IntValue(i int64) Value     { return Value{kind: KindInt, i: i} }
func UintValue(u uint64) Value   { return Value{kind: KindUint, u: u} }
func FloatValue(f float64) Value { return Value{kind: KindFloat, f: f} }
func DateValue(d Date) Value     { return Value{kind: KindDate, date: d} }
func TimeValue(t Time) Value     { return Value{kind: KindTime, time: t} }

func (v Value) Kind() Kind    { return v.kind }
func (v Value) IsNull() bool  { return v.kind == KindNull }

func (v Value) Bytes() ([]byte, bool) {
	if v.kind != KindBytes {
		return nil, false
	}
	return v.bytes, true
}

func (v Value) Int() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.i, true
}

func (v Value) Uint() (uint64, bool) {
	if v.kind != KindUint {
		return 0, false
	}
	return v.u, true
}

func (v Value) Float() (float64, bool) {
	if v.kind != KindFloat {
		return 0, false
	}
	return v.f, true
}

func (v Value) Date() (Date, bool) {
	if v.kind != KindDate {
		return Date{}, false
	}
	return v.date, true
}

func (v Value) Time() (Time, bool) {
	if v.kind != KindTime {
		return Time{}, false
	}
	return v.time, true
}

/******************************************************************************
*                            text rendering (§4.2)                           *
******************************************************************************/

// RenderText stringifies v for inclusion directly in a SQL statement, the
// way the text protocol would expect to see a literal.
func (v Value) RenderText() string {
	switch v.kind {
	case KindNull:
		return "NULL"

	case KindBytes:
		if utf8.Valid(v.bytes) {
			// Escape backslashes before quotes so a trailing '\' can't eat
			// the closing quote.
			escaped := strings.ReplaceAll(string(v.bytes), `\`, `\\`)
			escaped = strings.ReplaceAll(escaped, "'", `\'`)
			return "'" + escaped + "'"
		}
		var sb strings.Builder
		sb.WriteString("0x")
		for _, c := range v.bytes {
			fmt.Fprintf(&sb, "%02X", c)
		}
		return sb.String()

	case KindInt:
		return strconv.FormatInt(v.i, 10)

	case KindUint:
		return strconv.FormatUint(v.u, 10)

	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)

	case KindDate:
		d := v.date
		switch {
		case d == Date{}:
			return "''"
		case d.Hour == 0 && d.Minute == 0 && d.Second == 0 && d.Microsecond == 0:
			return fmt.Sprintf("'%04d-%02d-%02d'", d.Year, d.Month, d.Day)
		case d.Microsecond == 0:
			return fmt.Sprintf("'%04d-%02d-%02d %02d:%02d:%02d'",
				d.Year, d.Month, d.Day, d.Hour, d.Minute, d.Second)
		default:
			return fmt.Sprintf("'%04d-%02d-%02d %02d:%02d:%02d.%06d'",
				d.Year, d.Month, d.Day, d.Hour, d.Minute, d.Second, d.Microsecond)
		}

	case KindTime:
		t := v.time
		if !t.Neg && t.Days == 0 && t.Hour == 0 && t.Minute == 0 && t.Second == 0 && t.Microsecond == 0 {
			return "''"
		}
		sign := ""
		if t.Neg {
			sign = "-"
		}
		if t.Microsecond == 0 {
			return fmt.Sprintf("'%s%d %03d:%02d:%02d'", sign, t.Days, t.Hour, t.Minute, t.Second)
		}
		return fmt.Sprintf("'%s%d %03d:%02d:%02d.%06d'", sign, t.Days, t.Hour, t.Minute, t.Second, t.Microsecond)

	default:
		return "NULL"
	}
}

/******************************************************************************
*                           binary encode (§4.2)                             *
******************************************************************************/

// encodeBinary appends the COM_STMT_EXECUTE parameter-value encoding of v to
// b (the NULL variant contributes no bytes; the caller sets the null bitmap
// bit instead).
func (v Value) encodeBinary(b []byte) []byte {
	switch v.kind {
	case KindNull:
		return b

	case KindBytes:
		return appendLengthEncodedString(b, v.bytes)

	case KindInt:
		return append(b, uint64ToBytes(uint64(v.i))...)

	case KindUint:
		return append(b, uint64ToBytes(v.u)...)

	case KindFloat:
		return append(b, float64ToBytes(v.f)...)

	case KindDate:
		d := v.date
		switch {
		case d == Date{}:
			return append(b, 0)
		case d.Hour == 0 && d.Minute == 0 && d.Second == 0 && d.Microsecond == 0:
			b = append(b, 4)
			b = append(b, uint16ToBytes(d.Year)...)
			return append(b, d.Month, d.Day)
		case d.Microsecond == 0:
			b = append(b, 7)
			b = append(b, uint16ToBytes(d.Year)...)
			return append(b, d.Month, d.Day, d.Hour, d.Minute, d.Second)
		default:
			b = append(b, 11)
			b = append(b, uint16ToBytes(d.Year)...)
			b = append(b, d.Month, d.Day, d.Hour, d.Minute, d.Second)
			return append(b, uint32ToBytes(d.Microsecond)...)
		}

	case KindTime:
		t := v.time
		if !t.Neg && t.Days == 0 && t.Hour == 0 && t.Minute == 0 && t.Second == 0 && t.Microsecond == 0 {
			return append(b, 0)
		}
		neg := byte(0)
		if t.Neg {
			neg = 1
		}
		if t.Microsecond == 0 {
			b = append(b, 8, neg)
			b = append(b, uint32ToBytes(t.Days)...)
			return append(b, t.Hour, t.Minute, t.Second)
		}
		b = append(b, 12, neg)
		b = append(b, uint32ToBytes(t.Days)...)
		b = append(b, t.Hour, t.Minute, t.Second)
		return append(b, uint32ToBytes(t.Microsecond)...)

	default:
		return b
	}
}

// paramTypeByte returns the COM_STMT_EXECUTE type descriptor (type byte,
// unsigned flag byte) for v.
func (v Value) paramTypeByte() (typ fieldType, unsigned bool) {
	switch v.kind {
	case KindNull:
		return fieldTypeNULL, false
	case KindBytes:
		return fieldTypeVarString, false
	case KindInt:
		return fieldTypeLongLong, false
	case KindUint:
		return fieldTypeLongLong, true
	case KindFloat:
		return fieldTypeDouble, false
	case KindDate:
		return fieldTypeDate, false
	case KindTime:
		return fieldTypeTime, false
	default:
		return fieldTypeNULL, false
	}
}

/******************************************************************************
*                           binary decode (§4.2)                             *
******************************************************************************/

// decodeBinaryValue reads one binary-protocol column value from b according
// to typ/unsigned, returning the value and the number of bytes consumed.
func decodeBinaryValue(b []byte, typ fieldType, unsigned bool) (Value, int, error) {
	switch typ {
	case fieldTypeTiny:
		if len(b) < 1 {
			return Value{}, 0, io.ErrUnexpectedEOF
		}
		if unsigned {
			return UintValue(uint64(b[0])), 1, nil
		}
		return IntValue(int64(int8(b[0]))), 1, nil

	case fieldTypeShort, fieldTypeYear:
		if len(b) < 2 {
			return Value{}, 0, io.ErrUnexpectedEOF
		}
		n := binary.LittleEndian.Uint16(b[:2])
		if unsigned {
			return UintValue(uint64(n)), 2, nil
		}
		return IntValue(int64(int16(n))), 2, nil

	case fieldTypeInt24, fieldTypeLong:
		if len(b) < 4 {
			return Value{}, 0, io.ErrUnexpectedEOF
		}
		n := binary.LittleEndian.Uint32(b[:4])
		if unsigned {
			return UintValue(uint64(n)), 4, nil
		}
		return IntValue(int64(int32(n))), 4, nil

	case fieldTypeLongLong:
		if len(b) < 8 {
			return Value{}, 0, io.ErrUnexpectedEOF
		}
		n := binary.LittleEndian.Uint64(b[:8])
		if unsigned {
			return UintValue(n), 8, nil
		}
		return IntValue(int64(n)), 8, nil

	case fieldTypeFloat:
		if len(b) < 4 {
			return Value{}, 0, io.ErrUnexpectedEOF
		}
		f := float64(math.Float32frombits(binary.LittleEndian.Uint32(b[:4])))
		return FloatValue(f), 4, nil

	case fieldTypeDouble:
		if len(b) < 8 {
			return Value{}, 0, io.ErrUnexpectedEOF
		}
		f := math.Float64frombits(binary.LittleEndian.Uint64(b[:8]))
		return FloatValue(f), 8, nil

	case fieldTypeDate, fieldTypeNewDate, fieldTypeDateTime, fieldTypeTimestamp:
		return decodeBinaryDate(b)

	case fieldTypeTime:
		return decodeBinaryTime(b)

	case fieldTypeDecimal, fieldTypeNewDecimal, fieldTypeVarChar,
		fieldTypeBit, fieldTypeEnum, fieldTypeSet, fieldTypeTinyBLOB,
		fieldTypeMediumBLOB, fieldTypeLongBLOB, fieldTypeBLOB,
		fieldTypeVarString, fieldTypeString, fieldTypeGeometry, fieldTypeJSON:
		s, isNull, n, err := readLengthEncodedString(b)
		if err != nil {
			return Value{}, 0, err
		}
		if isNull {
			return NullValue(), n, nil
		}
		return BytesValue(s), n, nil

	case fieldTypeNULL:
		return NullValue(), 0, nil

	default:
		return Value{}, 0, fmt.Errorf("mysql: unsupported column_type %d", typ)
	}
}

func decodeBinaryDate(b []byte) (Value, int, error) {
	length, isNull, n, err := readLengthEncodedInteger(b)
	if err != nil {
		return Value{}, 0, err
	}
	if isNull {
		return NullValue(), n, nil
	}
	rest := b[n:]
	var d Date
	switch length {
	case 0:
	case 4:
		if len(rest) < 4 {
			return Value{}, 0, io.ErrUnexpectedEOF
		}
		d.Year = binary.LittleEndian.Uint16(rest[0:2])
		d.Month = rest[2]
		d.Day = rest[3]
	case 7:
		if len(rest) < 7 {
			return Value{}, 0, io.ErrUnexpectedEOF
		}
		d.Year = binary.LittleEndian.Uint16(rest[0:2])
		d.Month = rest[2]
		d.Day = rest[3]
		d.Hour = rest[4]
		d.Minute = rest[5]
		d.Second = rest[6]
	case 11:
		if len(rest) < 11 {
			return Value{}, 0, io.ErrUnexpectedEOF
		}
		d.Year = binary.LittleEndian.Uint16(rest[0:2])
		d.Month = rest[2]
		d.Day = rest[3]
		d.Hour = rest[4]
		d.Minute = rest[5]
		d.Second = rest[6]
		d.Microsecond = binary.LittleEndian.Uint32(rest[7:11])
	default:
		return Value{}, 0, fmt.Errorf("mysql: invalid DATE/DATETIME length %d", length)
	}
	return DateValue(d), n + int(length), nil
}

func decodeBinaryTime(b []byte) (Value, int, error) {
	length, isNull, n, err := readLengthEncodedInteger(b)
	if err != nil {
		return Value{}, 0, err
	}
	if isNull {
		return NullValue(), n, nil
	}
	rest := b[n:]
	var t Time
	switch length {
	case 0:
	case 8:
		if len(rest) < 8 {
			return Value{}, 0, io.ErrUnexpectedEOF
		}
		t.Neg = rest[0] != 0
		t.Days = binary.LittleEndian.Uint32(rest[1:5])
		t.Hour = rest[5]
		t.Minute = rest[6]
		t.Second = rest[7]
	case 12:
		if len(rest) < 12 {
			return Value{}, 0, io.ErrUnexpectedEOF
		}
		t.Neg = rest[0] != 0
		t.Days = binary.LittleEndian.Uint32(rest[1:5])
		t.Hour = rest[5]
		t.Minute = rest[6]
		t.Second = rest[7]
		t.Microsecond = binary.LittleEndian.Uint32(rest[8:12])
	default:
		return Value{}, 0, fmt.Errorf("mysql: invalid TIME length %d", length)
	}
	return TimeValue(t), n + int(length), nil
}
