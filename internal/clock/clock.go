// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package clock provides a small indirection over wall-clock time so that
// components which compare timestamps (log freshness windows, cache ages)
// can be tested with a deterministic clock.
package clock

import (
	"sync"
	"time"
)

// Clock yields the current time. Production code uses the system clock;
// tests inject a MockClock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// System returns the real wall clock.
func System() Clock { return systemClock{} }

// Now returns the current system time. Shorthand for System().Now() at
// call sites that do not carry an injected clock.
func Now() time.Time { return time.Now() }

// MockClock is a Clock frozen at a settable instant.
type MockClock struct {
	mu sync.Mutex
	t  time.Time
}

// NewMockClock returns a MockClock frozen at t.
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{t: t}
}

// Now returns the mock's current instant.
func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.t
}

// Set moves the mock to t.
func (m *MockClock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.t = t
}

// Advance moves the mock forward by d.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.t = m.t.Add(d)
}
