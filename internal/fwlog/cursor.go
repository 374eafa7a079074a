// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package fwlog

import (
	"fmt"
	"strconv"
	"strings"
)

// Cursor marks a position in the log file between tail polls. The caller
// owns it: it is returned from Tail, persisted client-side, and passed
// back on the next call. Inode pins the cursor to one generation of the
// file so rotation resets instead of misreading.
type Cursor struct {
	Offset int64  `json:"offset"`
	Inode  uint64 `json:"inode"`
}

// String encodes the cursor in the opaque form the API hands to clients.
func (c Cursor) String() string {
	return fmt.Sprintf("%d:%d", c.Inode, c.Offset)
}

// ParseCursor decodes a client-supplied cursor. Garbage decodes to the
// zero cursor, which tail mode treats as "start from the beginning".
func ParseCursor(s string) Cursor {
	inodeStr, offsetStr, ok := strings.Cut(s, ":")
	if !ok {
		return Cursor{}
	}
	inode, err1 := strconv.ParseUint(inodeStr, 10, 64)
	offset, err2 := strconv.ParseInt(offsetStr, 10, 64)
	if err1 != nil || err2 != nil || offset < 0 {
		return Cursor{}
	}
	return Cursor{Offset: offset, Inode: inode}
}
