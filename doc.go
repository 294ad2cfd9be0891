// Copyright 2012 Julien Schmidt. All rights reserved.
// http://www.julienschmidt.com
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

// Package mysql implements the client side of the MySQL/MariaDB
// client-server protocol: packet framing, the login handshake, text and
// prepared-statement query execution, binary row decoding and LOCAL INFILE
// streaming.
//
// It speaks the wire protocol directly against a TCP or UNIX-domain
// transport; it does not implement database/sql, connection pooling, TLS
// negotiation or SQL parsing. Those are left to callers that wrap this
// package.
//
// Protocol reference: https://dev.mysql.com/doc/dev/mysql-server/latest/PAGE_PROTOCOL.html
package mysql
