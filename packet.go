// Copyright 2012 Julien Schmidt. All rights reserved.
// http://www.julienschmidt.com
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package mysql


// readPacket reads one logical packet (§4.1), reassembling it across as
// many MaxPayloadLen-sized physical frames as necessary.
func (mc *Conn) readPacket() ([]byte, error) {
	var payload []byte

	for {
		header, err := mc.buf.readNext(4)
		if err != nil {
			return nil, wrapNetError("read packet header", err)
		}

		pktLen := uint32(header[0]) | uint32(header[1])<<8 | uint32(header[2])<<16
		seq := header[3]

		if seq != mc.seqID {
			return nil, ErrOutOfSync
		}
		mc.seqID++

		if pktLen == 0 {
			break
		}

		chunk, err := mc.buf.readNext(int(pktLen))
		if err != nil {
			return nil, wrapNetError("read packet body", err)
		}
		payload = append(payload, chunk...)

		if pktLen < MaxPayloadLen {
			break
		}
		// pktLen == MaxPayloadLen: more frames (or a trailing empty
		// frame) follow for this logical payload.
	}

	return payload, nil
}

// writePacket splits payload into MaxPayloadLen-sized frames, each prefixed
// with its length and the current sequence id (§4.1).
func (mc *Conn) writePacket(payload []byte) error {
	if uint64(len(payload)) > mc.maxAllowedPacket && mc.maxAllowedPacket != MaxPayloadLen {
		return ErrPacketTooLarge
	}

	for {
		size := len(payload)
		if size > MaxPayloadLen {
			size = MaxPayloadLen
		}

		frame := make([]byte, 4+size)
		frame[0] = byte(size)
		frame[1] = byte(size >> 8)
		frame[2] = byte(size >> 16)
		frame[3] = mc.seqID
		copy(frame[4:], payload[:size])

		if _, err := mc.netConn.Write(frame); err != nil {
			return wrapNetError("write packet", err)
		}
		mc.seqID++

		payload = payload[size:]

		if size < MaxPayloadLen {
			return nil
		}
		if len(payload) == 0 {
			// A final chunk exactly MaxPayloadLen long needs a
			// trailing zero-length frame to mark the end.
			frame := []byte{0, 0, 0, mc.seqID}
			if _, err := mc.netConn.Write(frame); err != nil {
				return wrapNetError("write packet", err)
			}
			mc.seqID++
			return nil
		}
	}
}

// writeCommandPacket resets the sequence counter (§4.1 "Sequence
// discipline") and sends a single-packet command whose payload is cmd
// followed by arg.
func (mc *Conn) writeCommandPacket(cmd commandType, arg []byte) error {
	mc.seqID = 0
	mc.lastCommand = cmd

	data := make([]byte, 1+len(arg))
	data[0] = byte(cmd)
	copy(data[1:], arg)

	return mc.writePacket(data)
}

// readUntilEOF drains packets (rows or field definitions) until an EOF or
// ERR packet terminates the sequence, returning the count of packets
// consumed before the terminator. Used to discard an unneeded result set
// and to keep seqID/framing aligned for the next command.
func (mc *Conn) readUntilEOF() (uint64, error) {
	var count uint64
	for {
		data, err := mc.readPacket()
		if err != nil {
			return count, err
		}
		if isEOFPacket(data) {
			eof, err := parseEOFPacket(data)
			if err != nil {
				return count, err
			}
			mc.statusFlags = eof.StatusFlags
			mc.warnings = eof.Warnings
			return count, nil
		}
		if isErrPacket(data) {
			return count, parseErrPacket(data)
		}
		count++
	}
}
