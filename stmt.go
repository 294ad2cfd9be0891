// Copyright 2012 Julien Schmidt. All rights reserved.
// http://www.julienschmidt.com
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package mysql

import "context"

// Stmt is a prepared-statement handle (§3 "Prepared statement"). It is tied
// to the Conn that created it and becomes invalid once that Conn closes.
type Stmt struct {
	mc         *Conn
	id         uint32
	numParams  uint16
	numColumns uint16
	params     []column
	columns    []column
}

// NumParams is the number of bound parameters this statement expects.
func (s *Stmt) NumParams() int { return int(s.numParams) }

// Params describes the statement's parameter placeholders, when the server
// provided them.
func (s *Stmt) Params() []Column {
	out := make([]Column, len(s.params))
	for i, c := range s.params {
		out[i] = c.export()
	}
	return out
}

// Columns describes the statement's result columns, when the server
// provided them (e.g. not for a DML statement).
func (s *Stmt) Columns() []Column {
	out := make([]Column, len(s.columns))
	for i, c := range s.columns {
		out[i] = c.export()
	}
	return out
}

// Close sends COM_STMT_CLOSE, releasing the statement on the server. The
// server does not reply to this command.
func (s *Stmt) Close(ctx context.Context) error {
	if err := s.mc.checkReady(); err != nil {
		return err
	}
	if err := s.mc.checkCancel(ctx); err != nil {
		return s.mc.fatal(err)
	}
	return s.mc.writeCommandPacket(comStmtClose, uint32ToBytes(s.id))
}
