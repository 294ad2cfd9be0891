// Copyright 2012 Julien Schmidt. All rights reserved.
// http://www.julienschmidt.com
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package mysql

import (
	"encoding/binary"
	"fmt"
)

/******************************************************************************
*                          packet-kind sniffing (§3)                         *
******************************************************************************/

func isOKPacket(data []byte) bool  { return len(data) > 0 && data[0] == 0x00 }
func isErrPacket(data []byte) bool { return len(data) > 0 && data[0] == 0xff }

// isEOFPacket requires payload length < 9 to disambiguate a real EOF from a
// row whose first byte happens to be 0xFE (§3, §9 Open Questions).
func isEOFPacket(data []byte) bool {
	return len(data) > 0 && data[0] == 0xfe && len(data) < 9
}

/******************************************************************************
*                                 OK packet                                   *
******************************************************************************/

type okPacket struct {
	AffectedRows uint64
	LastInsertID uint64
	StatusFlags  StatusFlag
	Warnings     uint16
	Info         []byte
}

// readResultOK reads one packet and requires it to be an OK packet,
// applying it to the connection's affected_rows/last_insert_id/status.
func (mc *Conn) readResultOK() (okPacket, error) {
	data, err := mc.readPacket()
	if err != nil {
		return okPacket{}, err
	}
	if isErrPacket(data) {
		return okPacket{}, parseErrPacket(data)
	}
	ok, err := parseOKPacket(data)
	if err != nil {
		return okPacket{}, err
	}
	mc.statusFlags = ok.StatusFlags
	mc.warnings = ok.Warnings
	mc.affectedRows = ok.AffectedRows
	mc.lastInsertID = ok.LastInsertID
	return ok, nil
}

func parseOKPacket(data []byte) (okPacket, error) {
	if len(data) < 1 || data[0] != 0x00 {
		return okPacket{}, ErrMalformedPacket
	}
	pos := 1

	affectedRows, _, n, err := readLengthEncodedInteger(data[pos:])
	if err != nil {
		return okPacket{}, err
	}
	pos += n

	lastInsertID, _, n, err := readLengthEncodedInteger(data[pos:])
	if err != nil {
		return okPacket{}, err
	}
	pos += n

	if len(data) < pos+2 {
		return okPacket{}, ErrMalformedPacket
	}
	status := StatusFlag(binary.LittleEndian.Uint16(data[pos : pos+2]))
	pos += 2

	// The warning count is optional: a packet that ends after the status
	// flags reports zero warnings.
	var warnings uint16
	if len(data) >= pos+2 {
		warnings = binary.LittleEndian.Uint16(data[pos : pos+2])
		pos += 2
	}

	return okPacket{
		AffectedRows: affectedRows,
		LastInsertID: lastInsertID,
		StatusFlags:  status,
		Warnings:     warnings,
		Info:         data[pos:],
	}, nil
}

/******************************************************************************
*                                ERR packet                                  *
******************************************************************************/

func parseErrPacket(data []byte) error {
	if len(data) < 9 || data[0] != 0xff {
		return ErrMalformedPacket
	}
	code := binary.LittleEndian.Uint16(data[1:3])
	var state [5]byte
	copy(state[:], data[4:9])
	return &MySQLError{Code: code, State: state, Message: string(data[9:])}
}

/******************************************************************************
*                                EOF packet                                  *
******************************************************************************/

type eofPacket struct {
	Warnings    uint16
	StatusFlags StatusFlag
}

func parseEOFPacket(data []byte) (eofPacket, error) {
	if len(data) < 5 || data[0] != 0xfe {
		return eofPacket{}, ErrMalformedPacket
	}
	return eofPacket{
		Warnings:    binary.LittleEndian.Uint16(data[1:3]),
		StatusFlags: StatusFlag(binary.LittleEndian.Uint16(data[3:5])),
	}, nil
}

/******************************************************************************
*                              Handshake packet                              *
******************************************************************************/

type handshakePacket struct {
	ProtocolVersion byte
	ConnectionID    uint32
	AuthPluginData  []byte
	CapabilityFlags ClientFlag
	CharacterSet    byte
	StatusFlags     StatusFlag
}

func parseHandshakePacket(data []byte) (handshakePacket, error) {
	if len(data) < 1 {
		return handshakePacket{}, ErrMalformedPacket
	}
	var hs handshakePacket
	hs.ProtocolVersion = data[0]
	if hs.ProtocolVersion != MinProtocolVersion {
		return handshakePacket{}, ErrUnsupportedProtocol
	}
	pos := 1

	_, n, err := readNullTerminatedString(data[pos:]) // server version, discarded
	if err != nil {
		return handshakePacket{}, ErrMalformedPacket
	}
	pos += n

	if len(data) < pos+4 {
		return handshakePacket{}, ErrMalformedPacket
	}
	hs.ConnectionID = binary.LittleEndian.Uint32(data[pos : pos+4])
	pos += 4

	if len(data) < pos+8 {
		return handshakePacket{}, ErrMalformedPacket
	}
	authData := append([]byte(nil), data[pos:pos+8]...)
	pos += 8

	pos++ // filler, always 0x00

	if len(data) < pos+2 {
		return handshakePacket{}, ErrMalformedPacket
	}
	capLow := binary.LittleEndian.Uint16(data[pos : pos+2])
	hs.CapabilityFlags = ClientFlag(capLow)
	pos += 2

	if len(data) > pos {
		hs.CharacterSet = data[pos]
		pos++

		if len(data) < pos+2 {
			return handshakePacket{}, ErrMalformedPacket
		}
		hs.StatusFlags = StatusFlag(binary.LittleEndian.Uint16(data[pos : pos+2]))
		pos += 2

		if len(data) < pos+2 {
			return handshakePacket{}, ErrMalformedPacket
		}
		capHigh := binary.LittleEndian.Uint16(data[pos : pos+2])
		hs.CapabilityFlags |= ClientFlag(uint32(capHigh) << 16)
		pos += 2

		if len(data) < pos+1 {
			return handshakePacket{}, ErrMalformedPacket
		}
		authDataLen := int(data[pos])
		pos++

		pos += 10 // reserved, always 0x00 * 10

		if authDataLen > 8 {
			rest := authDataLen - 8
			if len(data) < pos+rest {
				return handshakePacket{}, ErrMalformedPacket
			}
			authData = append(authData, data[pos:pos+rest-1]...) // drop trailing NUL
			pos += rest
		}
	}

	if hs.CapabilityFlags&ClientProtocol41 == 0 {
		return handshakePacket{}, ErrUnsupportedProtocol
	}

	hs.AuthPluginData = authData
	return hs, nil
}

/******************************************************************************
*                             Column definition                              *
******************************************************************************/

// column is the Column definition of §3, minus the database/sql-adjacent
// "default_values" field which only ever appears for COM_FIELD_LIST (not
// implemented: out of scope, superseded by Prepare).
type column struct {
	Catalog   []byte
	Schema    []byte
	Table     []byte
	OrgTable  []byte
	Name      []byte
	OrgName   []byte
	Charset   uint16
	Length    uint32
	Type      fieldType
	Flags     fieldFlag
	Decimals  byte
}

func parseColumnPacket(data []byte) (column, error) {
	var col column
	pos := 0

	read := func() ([]byte, error) {
		s, isNull, n, err := readLengthEncodedString(data[pos:])
		pos += n
		if err != nil {
			return nil, err
		}
		if isNull {
			return nil, nil
		}
		return s, nil
	}

	var err error
	if col.Catalog, err = read(); err != nil {
		return column{}, err
	}
	if col.Schema, err = read(); err != nil {
		return column{}, err
	}
	if col.Table, err = read(); err != nil {
		return column{}, err
	}
	if col.OrgTable, err = read(); err != nil {
		return column{}, err
	}
	if col.Name, err = read(); err != nil {
		return column{}, err
	}
	if col.OrgName, err = read(); err != nil {
		return column{}, err
	}

	// length-encoded integer, always 0x0c (filler)
	_, _, n, err := readLengthEncodedInteger(data[pos:])
	if err != nil {
		return column{}, err
	}
	pos += n

	if len(data) < pos+2 {
		return column{}, ErrMalformedPacket
	}
	col.Charset = binary.LittleEndian.Uint16(data[pos : pos+2])
	pos += 2

	if len(data) < pos+4 {
		return column{}, ErrMalformedPacket
	}
	col.Length = binary.LittleEndian.Uint32(data[pos : pos+4])
	pos += 4

	if len(data) < pos+1 {
		return column{}, ErrMalformedPacket
	}
	col.Type = fieldType(data[pos])
	pos++

	if len(data) < pos+2 {
		return column{}, ErrMalformedPacket
	}
	col.Flags = fieldFlag(binary.LittleEndian.Uint16(data[pos : pos+2]))
	pos += 2

	if len(data) < pos+1 {
		return column{}, ErrMalformedPacket
	}
	col.Decimals = data[pos]

	return col, nil
}

// readColumns reads count column definitions followed by a terminating EOF
// packet (§4.4).
func (mc *Conn) readColumns(count int) ([]column, error) {
	cols := make([]column, 0, count)
	for {
		data, err := mc.readPacket()
		if err != nil {
			return nil, err
		}
		if isEOFPacket(data) {
			eof, err := parseEOFPacket(data)
			if err != nil {
				return nil, err
			}
			mc.statusFlags = eof.StatusFlags
			mc.warnings = eof.Warnings
			if len(cols) != count {
				return nil, fmt.Errorf("mysql: column count mismatch: want %d, got %d", count, len(cols))
			}
			return cols, nil
		}
		if isErrPacket(data) {
			return nil, parseErrPacket(data)
		}
		col, err := parseColumnPacket(data)
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
}

/******************************************************************************
*                     COM_STMT_PREPARE response header                      *
******************************************************************************/

type prepareOKPacket struct {
	StatementID  uint32
	NumColumns   uint16
	NumParams    uint16
	WarningCount uint16
}

func parsePrepareOKPacket(data []byte) (prepareOKPacket, error) {
	if len(data) < 12 || data[0] != 0x00 {
		return prepareOKPacket{}, ErrMalformedPacket
	}
	return prepareOKPacket{
		StatementID:  binary.LittleEndian.Uint32(data[1:5]),
		NumColumns:   binary.LittleEndian.Uint16(data[5:7]),
		NumParams:    binary.LittleEndian.Uint16(data[7:9]),
		WarningCount: binary.LittleEndian.Uint16(data[10:12]),
	}, nil
}
