// Copyright 2013 Julien Schmidt. All rights reserved.
// http://www.julienschmidt.com
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package mysql

import "context"

// LocalInfileHandler is the callback invoked when the server requests a
// LOCAL INFILE upload during COM_QUERY (§4.5, §9). It receives the
// requested file name and a sink to write the file's bytes to; this core
// never touches the local filesystem itself.
type LocalInfileHandler func(fileName string, w *LocalInfileWriter) error

// LocalInfileWriter buffers writes from a LocalInfileHandler and flushes
// full packets to the wire as they fill, matching the fixed 4 KiB buffer
// called for in §9.
type LocalInfileWriter struct {
	mc  *Conn
	buf []byte
}

// Write implements io.Writer, flushing full buffers as packets.
func (w *LocalInfileWriter) Write(p []byte) (int, error) {
	written := 0
	for len(p) > 0 {
		n := copy(w.buf[len(w.buf):cap(w.buf)], p)
		w.buf = w.buf[:len(w.buf)+n]
		p = p[n:]
		written += n
		if len(w.buf) == cap(w.buf) {
			if err := w.flush(); err != nil {
				return written, err
			}
		}
	}
	return written, nil
}

func (w *LocalInfileWriter) flush() error {
	if len(w.buf) == 0 {
		return nil
	}
	if err := w.mc.writePacket(w.buf); err != nil {
		return err
	}
	w.buf = w.buf[:0]
	return nil
}

// handleLocalInfileRequest implements §4.5: stream the requested file
// through the registered handler, terminate with an empty packet, then
// absorb the server's final OK (or propagate its ERR).
func (mc *Conn) handleLocalInfileRequest(ctx context.Context, fileName string) error {
	if mc.localInfileHandler == nil {
		// The server still expects a response; send the empty
		// terminator so the wire stays in sync, then surface the
		// error to the caller.
		mc.writePacket(nil)
		mc.readPacket()
		return ErrNoLocalInfileHandler
	}

	mc.state = stateLocalInfile

	w := &LocalInfileWriter{mc: mc, buf: make([]byte, 0, localInfileBufSize)}
	handlerErr := mc.localInfileHandler(fileName, w)
	if flushErr := w.flush(); flushErr != nil && handlerErr == nil {
		handlerErr = flushErr
	}

	// Empty packet terminates the upload regardless of handler outcome,
	// so the server's response can still be read and seqID stays
	// aligned.
	if err := mc.writePacket(nil); err != nil {
		return err
	}

	data, err := mc.readPacket()
	if err != nil {
		return err
	}
	// The upload exchange is complete; the connection can take the next
	// command whatever the server replied.
	mc.state = stateReady

	if handlerErr != nil {
		// Drain the server's reply (likely an ERR about the aborted
		// load) but surface the handler's own error (§7).
		return &LocalInfileError{Err: handlerErr}
	}

	if isErrPacket(data) {
		return parseErrPacket(data)
	}
	if !isOKPacket(data) {
		return ErrMalformedPacket
	}
	ok, err := parseOKPacket(data)
	if err != nil {
		return err
	}
	mc.affectedRows = ok.AffectedRows
	mc.lastInsertID = ok.LastInsertID
	mc.statusFlags = ok.StatusFlags
	mc.warnings = ok.Warnings
	return nil
}
