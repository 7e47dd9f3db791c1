// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vedirect

// maxStatsSlots bounds the number of round-slots tracked (§4.7): beyond
// this, registration silently stops adding new slots, while existing
// slots continue to update.
const maxStatsSlots = 20

// SlotStats is the §3 Packet Stats Entry: per-position fingerprint and
// linearity tracking for one slot of a device round.
type SlotStats struct {
	NumFields       int
	Keys            []string
	LastIndex       int
	Step            int
	IsLinear        bool
	NumLinear       int
	NumResets       int
	HasAcceptedKeys bool
	IsAcceptedKeys  bool
	NumBadPackets   int

	fingerprint Fingerprint
	seen        bool
}

// Stats is the Packet Statistics tracker (C7): per-slot fingerprints plus
// the global linear-flow flag and read-error counters that gate
// HasReachedMaxErrors.
type Stats struct {
	slots         []*SlotStats
	IsLinearFlow  bool
	MaxReadError  int
	ReadErrors    int
	BadPackets    int
	Reconnections int

	acceptedKeys map[string]bool
}

// NewStats returns a Stats tracker. acceptedKeys, if non-empty, restricts
// which field labels count as "good" for a slot's HasAcceptedKeys check;
// a nil/empty set disables that filter.
func NewStats(maxReadError int, acceptedKeys []string) *Stats {
	s := &Stats{IsLinearFlow: true, MaxReadError: maxReadError}
	if len(acceptedKeys) > 0 {
		s.acceptedKeys = make(map[string]bool, len(acceptedKeys))
		for _, k := range acceptedKeys {
			s.acceptedKeys[k] = true
		}
	}
	return s
}

func (s *Stats) slot(index int) *SlotStats {
	for _, sl := range s.slots {
		if sl.LastIndex == index && sl.seen {
			return sl
		}
	}
	return nil
}

// SetPacketStats records packet as having arrived at position index within
// the current round, updating that slot's fingerprint/linearity and the
// global linear-flow flag (§4.7).
func (s *Stats) SetPacketStats(index int, packet *Packet) {
	fp := FingerprintOf(packet)

	existing := s.findByIndex(index)
	if existing == nil {
		if len(s.slots) >= maxStatsSlots {
			s.recordAcceptedKeys(nil, packet)
			return
		}
		// Unseen index: if its fingerprint matches some other registered
		// slot, treat it as linear to that slot.
		matched := s.findByFingerprint(fp)
		sl := &SlotStats{NumFields: fp.NumFields, Keys: fp.Keys, fingerprint: fp, LastIndex: index, seen: true}
		if matched != nil {
			sl.IsLinear = true
			sl.Step = index - matched.LastIndex
			sl.NumLinear = 1
		} else {
			sl.IsLinear = true
			sl.NumLinear = 1
		}
		s.slots = append(s.slots, sl)
		s.recordAcceptedKeys(sl, packet)
		return
	}

	wasStepLinear := index == existing.LastIndex
	sameFingerprint := existing.fingerprint.Equal(fp)
	linear := sameFingerprint && wasStepLinear

	if linear {
		existing.NumLinear++
	} else {
		existing.NumResets++
		existing.NumLinear = 0
		existing.fingerprint = fp
		existing.NumFields = fp.NumFields
		existing.Keys = fp.Keys
		s.IsLinearFlow = false
	}
	existing.IsLinear = linear
	existing.LastIndex = index
	s.recordAcceptedKeys(existing, packet)
}

func (s *Stats) findByIndex(index int) *SlotStats {
	for _, sl := range s.slots {
		if sl.LastIndex == index {
			return sl
		}
	}
	return nil
}

func (s *Stats) findByFingerprint(fp Fingerprint) *SlotStats {
	for _, sl := range s.slots {
		if sl.fingerprint.Equal(fp) {
			return sl
		}
	}
	return nil
}

func (s *Stats) recordAcceptedKeys(sl *SlotStats, packet *Packet) {
	if s.acceptedKeys == nil {
		return
	}
	ok := true
	for _, k := range packet.Keys() {
		if !s.acceptedKeys[k] {
			ok = false
			break
		}
	}
	if sl != nil {
		sl.HasAcceptedKeys = true
		sl.IsAcceptedKeys = ok
	}
	if !ok {
		s.BadPackets++
		if sl != nil {
			sl.NumBadPackets++
		}
	}
}

// RecordReadError increments the aggregator-facing read-error counter
// (§4.6 step 2's "serial_read_errors").
func (s *Stats) RecordReadError() {
	s.ReadErrors++
}

// RecordReconnection increments the reconnection counter, for callers
// (C6) that recover via a Controller.
func (s *Stats) RecordReconnection() {
	s.Reconnections++
}

// HasReachedMaxErrors reports whether accumulated read errors or bad
// packets have reached MaxReadError (when MaxReadError > 0). When raise is
// true and the threshold is reached, it returns an InputRead *Error
// carrying both totals instead of a bare bool signal via error.
func (s *Stats) HasReachedMaxErrors(raise bool) (bool, error) {
	if s.MaxReadError <= 0 {
		return false, nil
	}
	reached := s.ReadErrors >= s.MaxReadError || s.BadPackets >= s.MaxReadError
	if reached && raise {
		return true, newErr(InputRead, "maximum read error threshold reached", map[string]interface{}{
			"read_errors": s.ReadErrors,
			"bad_packets": s.BadPackets,
			"max":         s.MaxReadError,
		})
	}
	return reached, nil
}

// ResetGlobalStats zeroes all counters and sets IsLinearFlow back to true,
// without touching per-slot fingerprints (§4.7).
func (s *Stats) ResetGlobalStats() {
	s.IsLinearFlow = true
	s.ReadErrors = 0
	s.BadPackets = 0
	s.Reconnections = 0
}

// Slots returns the currently tracked per-round slot stats, in
// registration order.
func (s *Stats) Slots() []*SlotStats {
	out := make([]*SlotStats, len(s.slots))
	copy(out, s.slots)
	return out
}
