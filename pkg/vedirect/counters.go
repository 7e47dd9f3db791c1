// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vedirect

// counterSaturation is the point (§3 Counters) at which a named counter
// wraps back to zero instead of overflowing.
const counterSaturation = 1_000_000_000

// Counter is a named monotonic counter that wraps to 0 at
// counterSaturation rather than overflowing its underlying type.
type Counter uint64

// Add returns c advanced by n, wrapping to 0 at counterSaturation.
func (c Counter) Add(n uint64) Counter {
	v := uint64(c) + n
	if v >= counterSaturation {
		v %= counterSaturation
	}
	return Counter(v)
}

// Counters groups the byte/packet/error counters a Reader (C2) tracks
// across calls (§3 Counters).
type Counters struct {
	Byte          Counter
	Packet        Counter
	PacketErrors  Counter
	BlockErrors   Counter
	TimeoutErrors Counter
}
