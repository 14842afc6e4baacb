// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package mockable provides a Clock whose notion of "now" can be
// overridden in tests, the way vms/secp256k1fx.VM.Clock() hands fx
// implementations an injectable clock instead of calling time.Now
// directly.
package mockable

import "time"

// Clock gives components an overridable source of the current time.
// The zero value reports the real wall clock.
type Clock struct {
	faked bool
	time  time.Time
}

// Time returns the current time, or the time Set last recorded.
func (c *Clock) Time() time.Time {
	if c.faked {
		return c.time
	}
	return time.Now()
}

// Unix returns the current unix-seconds timestamp.
func (c *Clock) Unix() uint64 {
	return uint64(c.Time().Unix())
}

// Set overrides the clock's notion of now. Intended for tests.
func (c *Clock) Set(t time.Time) {
	c.faked = true
	c.time = t
}

// Advance moves a faked clock forward by d. No-op on a clock that was
// never Set.
func (c *Clock) Advance(d time.Duration) {
	if !c.faked {
		return
	}
	c.Set(c.Time().Add(d))
}
