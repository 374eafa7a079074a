// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build !linux
// +build !linux

package fwlog

import "os"

// inodeOf has no portable answer off Linux; zero disables inode-based
// rotation detection and leaves the size check in place.
func inodeOf(fi os.FileInfo) uint64 {
	return 0
}
