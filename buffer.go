// Copyright 2013 Julien Schmidt. All rights reserved.
// http://www.julienschmidt.com
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package mysql

import "io"

// buffer is a read buffer similar to bufio.Reader, tuned for the
// read-a-known-length-then-advance access pattern of packet framing.
type buffer struct {
	buf    []byte
	rd     io.Reader
	idx    int
	length int
}

func newBuffer(rd io.Reader) *buffer {
	return &buffer{
		buf: make([]byte, defaultBufSize),
		rd:  rd,
	}
}

// fill reads into the buffer until at least need bytes are available.
func (b *buffer) fill(need int) error {
	if b.length > 0 && b.idx > 0 {
		copy(b.buf[0:b.length], b.buf[b.idx:b.idx+b.length])
	}
	b.idx = 0

	if need > len(b.buf) {
		newBuf := make([]byte, need)
		copy(newBuf, b.buf[:b.length])
		b.buf = newBuf
	}

	for b.length < need {
		n, err := b.rd.Read(b.buf[b.length:])
		b.length += n
		if err != nil {
			return err
		}
	}
	return nil
}

// readNext returns the next need bytes from the buffer. The slice is only
// valid until the next call to readNext or fill.
func (b *buffer) readNext(need int) ([]byte, error) {
	if b.length < need {
		if err := b.fill(need); err != nil {
			return nil, err
		}
	}
	p := b.buf[b.idx : b.idx+need]
	b.idx += need
	b.length -= need
	return p, nil
}
