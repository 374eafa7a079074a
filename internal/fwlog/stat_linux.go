// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build linux
// +build linux

package fwlog

import (
	"os"
	"syscall"
)

// inodeOf extracts the inode from a stat result. The inode distinguishes
// the current log file from a rotated-away predecessor with the same name.
func inodeOf(fi os.FileInfo) uint64 {
	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		return st.Ino
	}
	return 0
}
