// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vedirect

import "testing"

func packetWithKeys(keys ...string) *Packet {
	p := NewPacket()
	for _, k := range keys {
		p.Set(k, "1")
	}
	return p
}

func TestStats_LinearFlow(t *testing.T) {
	s := NewStats(0, nil)

	s.SetPacketStats(0, packetWithKeys("PID", "V"))
	s.SetPacketStats(1, packetWithKeys("H1", "H2"))

	if !s.IsLinearFlow {
		t.Error("expected flow to remain linear after two distinct, stable slots")
	}

	slots := s.Slots()
	if len(slots) != 2 {
		t.Fatalf("Slots() = %d entries, want 2", len(slots))
	}
}

func TestStats_ResetBreaksLinearity(t *testing.T) {
	s := NewStats(0, nil)

	s.SetPacketStats(0, packetWithKeys("PID", "V"))
	// A different fingerprint at the same slot index is a structural reset.
	s.SetPacketStats(0, packetWithKeys("PID", "V", "SOC"))

	if s.IsLinearFlow {
		t.Error("expected a fingerprint change at a fixed slot to break linearity")
	}

	slots := s.Slots()
	if len(slots) != 1 {
		t.Fatalf("Slots() = %d, want 1", len(slots))
	}
	if slots[0].NumResets != 1 {
		t.Errorf("NumResets = %d, want 1", slots[0].NumResets)
	}
}

func TestStats_AcceptedKeysTracksBadPackets(t *testing.T) {
	s := NewStats(0, []string{"PID", "V"})

	s.SetPacketStats(0, packetWithKeys("PID", "V"))
	s.SetPacketStats(1, packetWithKeys("PID", "UNKNOWN"))

	if s.BadPackets != 1 {
		t.Errorf("BadPackets = %d, want 1", s.BadPackets)
	}
}

func TestStats_HasReachedMaxErrors(t *testing.T) {
	s := NewStats(2, nil)
	s.RecordReadError()
	if reached, err := s.HasReachedMaxErrors(true); reached || err != nil {
		t.Fatalf("expected not reached yet, got %v, %v", reached, err)
	}
	s.RecordReadError()
	reached, err := s.HasReachedMaxErrors(true)
	if !reached {
		t.Fatal("expected threshold reached after two errors")
	}
	if !IsKind(err, InputRead) {
		t.Errorf("kind = %v, want InputRead", err)
	}
}

func TestStats_HasReachedMaxErrors_DisabledWhenZero(t *testing.T) {
	s := NewStats(0, nil)
	for i := 0; i < 100; i++ {
		s.RecordReadError()
	}
	if reached, _ := s.HasReachedMaxErrors(true); reached {
		t.Error("MaxReadError=0 should disable the threshold entirely")
	}
}

func TestStats_ResetGlobalStats(t *testing.T) {
	s := NewStats(1, nil)
	s.RecordReadError()
	s.RecordReconnection()
	s.SetPacketStats(0, packetWithKeys("A"))
	s.SetPacketStats(0, packetWithKeys("B")) // forces IsLinearFlow false

	s.ResetGlobalStats()

	if !s.IsLinearFlow || s.ReadErrors != 0 || s.Reconnections != 0 {
		t.Errorf("ResetGlobalStats did not clear global counters: %+v", s)
	}
	if len(s.Slots()) != 1 {
		t.Error("ResetGlobalStats should not clear per-slot fingerprints")
	}
}
