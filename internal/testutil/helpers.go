// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package testutil

import (
	"os"
	"testing"
)

// RequireVM skips the test unless the FIREWATCH_VM_TEST environment
// variable is set. Tests that dump the kernel connection table or read
// live netlink state only pass on a machine with the netfilter modules
// loaded and enough privilege to query them.
func RequireVM(t *testing.T) {
	t.Helper()
	if os.Getenv("FIREWATCH_VM_TEST") == "" {
		t.Skip("Skipping test: requires FIREWATCH_VM_TEST environment")
	}
}
