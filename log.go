// Copyright 2012 Julien Schmidt. All rights reserved.
// http://www.julienschmidt.com
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at http://mozilla.org/MPL/2.0/.

package mysql

import (
	"log"
	"os"
)

// Logger is the minimal sink the connection state machine writes
// diagnostics to. *log.Logger satisfies it, so callers that already use the
// standard logger need no adapter; callers with their own structured logger
// can wrap it in one line.
type Logger interface {
	Print(v ...any)
}

// defaultLogger is used by connections that are not given one explicitly,
// matching the package-level errLog of the driver this core is based on.
var defaultLogger Logger = log.New(os.Stderr, "[mysql] ", log.Ldate|log.Ltime|log.Lshortfile)

// SetLogger replaces the package-wide default logger.
func SetLogger(l Logger) {
	if l != nil {
		defaultLogger = l
	}
}
