// Copyright 2012 Julien Schmidt. All rights reserved.
// http://www.julienschmidt.com
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package mysql

import "context"

/******************************************************************************
*                          COM_QUERY — text protocol                         *
******************************************************************************/

// Query sends a COM_QUERY and returns the resulting Rows, or nil if the
// statement produced no result set (§4.4). While the returned Rows is open,
// no other command may be issued on this connection.
func (mc *Conn) Query(ctx context.Context, sql string) (*Rows, error) {
	if err := mc.checkReady(); err != nil {
		return nil, err
	}
	if err := mc.checkCancel(ctx); err != nil {
		return nil, mc.fatal(err)
	}

	mc.affectedRows, mc.lastInsertID = 0, 0

	mc.logf("dispatch: query %q", sql)
	if err := mc.writeCommandPacket(comQuery, []byte(sql)); err != nil {
		return nil, mc.fatal(err)
	}

	return mc.readQueryResponse(ctx, false)
}

// readQueryResponse implements the dispatch shared by COM_QUERY and
// COM_STMT_EXECUTE responses (§4.4).
func (mc *Conn) readQueryResponse(ctx context.Context, binary bool) (*Rows, error) {
	data, err := mc.readPacket()
	if err != nil {
		return nil, mc.fatal(err)
	}

	switch {
	case isOKPacket(data):
		ok, err := parseOKPacket(data)
		if err != nil {
			return nil, mc.fatal(err)
		}
		mc.affectedRows = ok.AffectedRows
		mc.lastInsertID = ok.LastInsertID
		mc.statusFlags = ok.StatusFlags
		mc.warnings = ok.Warnings
		mc.state = stateReady
		return nil, nil

	case isErrPacket(data):
		mc.state = stateReady
		err := parseErrPacket(data)
		mc.logf("server error: %v", err)
		return nil, err

	case len(data) > 0 && data[0] == 0xfb:
		// LOCAL INFILE request (§4.5).
		filename := string(data[1:])
		if err := mc.handleLocalInfileRequest(ctx, filename); err != nil {
			return nil, err
		}
		mc.state = stateReady
		return nil, nil

	default:
		numCols, _, n, err := readLengthEncodedInteger(data)
		if err != nil || n != len(data) {
			return nil, mc.fatal(ErrMalformedPacket)
		}

		mc.state = stateInText
		if binary {
			mc.state = stateInBinary
		}

		cols, err := mc.readColumns(int(numCols))
		if err != nil {
			mc.state = stateBroken
			return nil, err
		}

		return &Rows{mc: mc, isBin: binary, columns: cols}, nil
	}
}

/******************************************************************************
*                       COM_STMT_PREPARE — prepared statements               *
******************************************************************************/

// Prepare sends COM_STMT_PREPARE and returns the resulting statement handle
// (§4.4).
func (mc *Conn) Prepare(ctx context.Context, sql string) (*Stmt, error) {
	if err := mc.checkReady(); err != nil {
		return nil, err
	}
	if err := mc.checkCancel(ctx); err != nil {
		return nil, mc.fatal(err)
	}

	mc.logf("dispatch: prepare %q", sql)
	if err := mc.writeCommandPacket(comStmtPrepare, []byte(sql)); err != nil {
		return nil, mc.fatal(err)
	}

	data, err := mc.readPacket()
	if err != nil {
		return nil, mc.fatal(err)
	}
	if isErrPacket(data) {
		err := parseErrPacket(data)
		mc.logf("server error: %v", err)
		return nil, err
	}

	hdr, err := parsePrepareOKPacket(data)
	if err != nil {
		return nil, mc.fatal(err)
	}

	stmt := &Stmt{mc: mc, id: hdr.StatementID, numParams: hdr.NumParams, numColumns: hdr.NumColumns}

	if hdr.NumParams > 0 {
		stmt.params, err = mc.readColumns(int(hdr.NumParams))
		if err != nil {
			return nil, err
		}
	}
	if hdr.NumColumns > 0 {
		stmt.columns, err = mc.readColumns(int(hdr.NumColumns))
		if err != nil {
			return nil, err
		}
	}

	return stmt, nil
}

/******************************************************************************
*                       COM_STMT_EXECUTE — binary protocol                   *
******************************************************************************/

// executeFixedOverhead is the fixed per-command overhead (statement_id,
// flags, iteration_count, new_params_bound byte) subtracted from
// max_allowed_packet when deciding whether a Bytes parameter must go
// out-of-band (§4.4 "Long-data streaming"). selectLongDataParams subtracts
// the null bitmap and the two-byte type descriptor of each param separately.
const executeFixedOverhead = 4 + 1 + 4 + 1

// Execute sends COM_STMT_EXECUTE for stmt bound to params, returning the
// resulting Rows or nil if none (§4.4). Oversized Bytes parameters are
// streamed via COM_STMT_SEND_LONG_DATA first.
func (mc *Conn) Execute(ctx context.Context, stmt *Stmt, params []Value) (*Rows, error) {
	if err := mc.checkReady(); err != nil {
		return nil, err
	}
	if err := mc.checkCancel(ctx); err != nil {
		return nil, mc.fatal(err)
	}
	if len(params) != int(stmt.numParams) {
		return nil, ErrParamCountMismatch
	}

	mc.affectedRows, mc.lastInsertID = 0, 0

	mc.logf("dispatch: execute stmt id=%d", stmt.id)
	longData := mc.selectLongDataParams(stmt, params)
	if len(longData) > 0 {
		mc.state = stateSendingLongData
		if err := mc.sendLongData(stmt.id, longData, params); err != nil {
			return nil, mc.fatal(err)
		}
	}

	if err := mc.writeExecutePacket(stmt, params, longData); err != nil {
		return nil, mc.fatal(err)
	}

	return mc.readQueryResponse(ctx, true)
}

// selectLongDataParams returns the indices of Bytes parameters that must be
// sent via COM_STMT_SEND_LONG_DATA because the full execute packet would
// otherwise exceed max_allowed_packet (§4.4).
func (mc *Conn) selectLongDataParams(stmt *Stmt, params []Value) []int {
	if mc.maxAllowedPacket == 0 {
		return nil
	}
	bitmapLen := (len(params) + 7) / 8
	budget := int64(mc.maxAllowedPacket) - int64(executeFixedOverhead) - int64(bitmapLen) - int64(len(params)*2)
	if budget < 0 {
		budget = 0
	}

	var total int64
	var longIdx []int
	for i, p := range params {
		b, isBytes := p.Bytes()
		if !isBytes {
			continue
		}
		size := int64(lengthEncodedIntegerSize(uint64(len(b))) + len(b))
		if total+size > budget {
			longIdx = append(longIdx, i)
			continue
		}
		total += size
	}
	return longIdx
}

// sendLongData streams each selected parameter via one or more
// COM_STMT_SEND_LONG_DATA packets, chunked to max_allowed_packet-7 bytes
// each (§4.4).
func (mc *Conn) sendLongData(stmtID uint32, indices []int, params []Value) error {
	chunkSize := int(mc.maxAllowedPacket) - 7
	if chunkSize <= 0 {
		chunkSize = MaxPayloadLen - 7
	}

	for _, idx := range indices {
		b, _ := params[idx].Bytes()
		for len(b) > 0 {
			n := len(b)
			if n > chunkSize {
				n = chunkSize
			}
			arg := make([]byte, 0, 4+2+n)
			arg = append(arg, uint32ToBytes(stmtID)...)
			arg = append(arg, uint16ToBytes(uint16(idx))...)
			arg = append(arg, b[:n]...)
			if err := mc.writeCommandPacket(comStmtSendLongData, arg); err != nil {
				return err
			}
			b = b[n:]
		}
	}
	return nil
}

// writeExecutePacket assembles and sends the COM_STMT_EXECUTE packet of
// §4.4, omitting the values of parameters already streamed as long data.
func (mc *Conn) writeExecutePacket(stmt *Stmt, params []Value, longData []int) error {
	isLong := make(map[int]bool, len(longData))
	for _, i := range longData {
		isLong[i] = true
	}

	data := make([]byte, 0, 64)
	data = append(data, uint32ToBytes(stmt.id)...)
	data = append(data, 0) // flags: CURSOR_TYPE_NO_CURSOR
	data = append(data, uint32ToBytes(1)...)

	if len(params) > 0 {
		bitmap := make([]byte, (len(params)+7)/8)
		for i, p := range params {
			if p.IsNull() {
				bitmap[i/8] |= 1 << uint(i%8)
			}
		}
		data = append(data, bitmap...)
		data = append(data, 1) // new_params_bound

		for _, p := range params {
			typ, unsigned := p.paramTypeByte()
			u := byte(0)
			if unsigned {
				u = 0x80
			}
			data = append(data, byte(typ), u)
		}

		for i, p := range params {
			if p.IsNull() || isLong[i] {
				continue
			}
			data = p.encodeBinary(data)
		}
	}

	return mc.writeCommandPacket(comStmtExecute, data)
}
