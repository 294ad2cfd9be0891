// Copyright 2012 Julien Schmidt. All rights reserved.
// http://www.julienschmidt.com
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package mysql

import "context"

// Column describes one result-set column, as decoded from a Column
// definition packet (§3).
type Column struct {
	Name     string
	Table    string
	Type     fieldType
	Flags    fieldFlag
	Decimals byte
}

func (c column) export() Column {
	return Column{
		Name:     string(c.Name),
		Table:    string(c.Table),
		Type:     c.Type,
		Flags:    c.Flags,
		Decimals: c.Decimals,
	}
}

// Rows is a lazy result-set stream (C7). It exclusively borrows its
// connection until Close; no other command may be issued on the connection
// while a Rows is open (§3 "Result set", §5).
type Rows struct {
	mc      *Conn
	isBin   bool
	columns []column
	done    bool
}

// Columns returns the result set's column definitions.
func (r *Rows) Columns() []Column {
	out := make([]Column, len(r.columns))
	for i, c := range r.columns {
		out[i] = c.export()
	}
	return out
}

// Next decodes and returns the next row. ok is false once the result set is
// exhausted; the caller need not call Close in that case, but Close is
// always safe to call.
func (r *Rows) Next(ctx context.Context) (row []Value, ok bool, err error) {
	if r.done {
		return nil, false, nil
	}
	if err := r.mc.checkCancel(ctx); err != nil {
		r.done = true
		return nil, false, r.mc.fatal(err)
	}

	data, err := r.mc.readPacket()
	if err != nil {
		r.done = true
		r.mc.state = stateBroken
		return nil, false, err
	}

	if isEOFPacket(data) {
		eof, perr := parseEOFPacket(data)
		if perr != nil {
			r.done = true
			return nil, false, perr
		}
		r.mc.statusFlags = eof.StatusFlags
		r.mc.warnings = eof.Warnings
		r.done = true
		r.mc.state = stateReady
		return nil, false, nil
	}
	if isErrPacket(data) {
		r.done = true
		r.mc.state = stateReady
		return nil, false, parseErrPacket(data)
	}

	if r.isBin {
		row, err = decodeBinaryRow(data, r.columns)
	} else {
		row, err = decodeTextRow(data, len(r.columns))
	}
	if err != nil {
		r.done = true
		r.mc.state = stateBroken
		return nil, false, err
	}
	return row, true, nil
}

// Close drains any remaining packets so seqID and framing stay aligned for
// the next command (§4.6, §9). Safe to call multiple times and safe to call
// after the set has already been exhausted.
func (r *Rows) Close(ctx context.Context) error {
	if r.done {
		return nil
	}
	r.done = true
	_, err := r.mc.readUntilEOF()
	r.mc.state = stateReady
	if err != nil {
		// §7: errors during drain-on-close are suppressed, since the
		// connection is already in trouble; surface it as Broken.
		r.mc.state = stateBroken
	}
	return nil
}

/******************************************************************************
*                           text-protocol row decode                         *
******************************************************************************/

func decodeTextRow(data []byte, numCols int) ([]Value, error) {
	row := make([]Value, numCols)
	pos := 0
	for i := 0; i < numCols; i++ {
		s, isNull, n, err := readLengthEncodedString(data[pos:])
		pos += n
		if err != nil {
			return nil, err
		}
		if isNull {
			row[i] = NullValue()
		} else {
			row[i] = BytesValue(s)
		}
	}
	return row, nil
}

/******************************************************************************
*                          binary-protocol row decode                        *
******************************************************************************/

func decodeBinaryRow(data []byte, cols []column) ([]Value, error) {
	if len(data) < 1 || data[0] != 0x00 {
		return nil, ErrMalformedPacket
	}
	bitmapLen := (len(cols) + 7 + 2) / 8
	if len(data) < 1+bitmapLen {
		return nil, ErrMalformedPacket
	}
	bitmap := data[1 : 1+bitmapLen]
	pos := 1 + bitmapLen

	row := make([]Value, len(cols))
	for i, col := range cols {
		bytePos := (i + 2) / 8
		bitPos := uint((i + 2) % 8)
		if bitmap[bytePos]&(1<<bitPos) != 0 {
			row[i] = NullValue()
			continue
		}

		unsigned := col.Flags&flagUnsigned != 0
		v, n, err := decodeBinaryValue(data[pos:], col.Type, unsigned)
		if err != nil {
			return nil, err
		}
		row[i] = v
		pos += n
	}
	return row, nil
}
