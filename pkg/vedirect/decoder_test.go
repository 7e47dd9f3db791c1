// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vedirect

import (
	"strings"
	"testing"
)

func feedAll(t *testing.T, d *Decoder, data []byte) (packets []*Packet, errs []error) {
	t.Helper()
	for _, b := range data {
		pkt, err := d.DecodeByte(b)
		if err != nil {
			errs = append(errs, err)
		}
		if pkt != nil {
			packets = append(packets, pkt)
		}
	}
	return packets, errs
}

func TestDecodeByte_CanonicalFrame(t *testing.T) {
	// \r\nPID\t0x203\r\nV\t12800\r\nChecksum\t<b>
	frame := append([]byte("\r\nPID\t0x203\r\nV\t12800\r\nChecksum\t"), 0x02)

	d := NewDecoder()
	packets, errs := feedAll(t, d, frame)

	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(packets) != 1 {
		t.Fatalf("expected exactly one packet, got %d", len(packets))
	}
	pkt := packets[0]
	if v, ok := pkt.Get("PID"); !ok || v != "0x203" {
		t.Errorf("PID = %q, %v; want 0x203, true", v, ok)
	}
	if v, ok := pkt.Get("V"); !ok || v != "12800" {
		t.Errorf("V = %q, %v; want 12800, true", v, ok)
	}
	if pkt.Len() != 2 {
		t.Errorf("Len() = %d, want 2", pkt.Len())
	}
}

func TestDecodeByte_BadChecksum(t *testing.T) {
	// Same frame as above with the checksum byte's low bit flipped.
	frame := append([]byte("\r\nPID\t0x203\r\nV\t12800\r\nChecksum\t"), 0x03)

	d := NewDecoder()
	packets, errs := feedAll(t, d, frame)

	if len(packets) != 0 {
		t.Fatalf("expected no packet delivered, got %d", len(packets))
	}
	if len(errs) != 1 {
		t.Fatalf("expected exactly one error, got %d: %v", len(errs), errs)
	}
	if !IsKind(errs[0], PacketRead) {
		t.Errorf("error kind = %v, want PacketRead", errs[0])
	}
	if !strings.Contains(errs[0].Error(), "checksum") {
		t.Errorf("error message %q does not mention checksum", errs[0].Error())
	}

	// Decoder must have reset: feeding a fresh valid frame afterward
	// succeeds.
	goodFrame := append([]byte("\r\nPID\t0x203\r\nV\t12800\r\nChecksum\t"), 0x02)
	packets, errs = feedAll(t, d, goodFrame)
	if len(errs) != 0 || len(packets) != 1 {
		t.Fatalf("decoder did not recover after bad checksum: packets=%d errs=%v", len(packets), errs)
	}
}

func TestDecodeByte_MaxBlocksOverrun(t *testing.T) {
	d := NewDecoder()
	if err := d.SetMaxBlocksPerPacket(2); err != nil {
		t.Fatalf("SetMaxBlocksPerPacket: %v", err)
	}

	// \r\nA\t1\r\nB\t2\r\nC\t3\r\nChecksum\t<b> — third field should trip
	// the ceiling before the checksum byte is ever reached.
	frame := append([]byte("\r\nA\t1\r\nB\t2\r\nC\t3\r\nChecksum\t"), 0xF1)

	var gotErr error
	consumed := 0
	for i, b := range frame {
		_, err := d.DecodeByte(b)
		consumed = i + 1
		if err != nil {
			gotErr = err
			break
		}
	}
	if gotErr == nil {
		t.Fatal("expected max-blocks error, got none")
	}
	if !IsKind(gotErr, PacketRead) {
		t.Errorf("error kind = %v, want PacketRead", gotErr)
	}
	if !strings.Contains(gotErr.Error(), "max blocks") {
		t.Errorf("error message %q does not mention max blocks", gotErr.Error())
	}
	if consumed >= len(frame) {
		t.Errorf("error should fire before the checksum byte is consumed; consumed %d of %d bytes", consumed, len(frame))
	}
}

func TestDecodeByte_HexInterleave(t *testing.T) {
	// :A1B2C3\n\r\nPID\t0xA042\r\nChecksum\t<b>, checksum computed over only
	// the text frame.
	data := append([]byte(":A1B2C3\n"), append([]byte("\r\nPID\t0xA042\r\nChecksum\t"), 0x31)...)

	d := NewDecoder()
	packets, errs := feedAll(t, d, data)

	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(packets) != 1 {
		t.Fatalf("expected exactly one packet, got %d", len(packets))
	}
	if v, ok := packets[0].Get("PID"); !ok || v != "0xA042" {
		t.Errorf("PID = %q, %v; want 0xA042, true", v, ok)
	}
}

func TestDecodeByte_EmptyPacketRejected(t *testing.T) {
	// A frame with no fields at all (bare checksum) is not a valid
	// delivery per the "at least one field" invariant.
	frame := []byte("\r\nChecksum\t")
	sum := 0
	for _, b := range frame {
		sum += int(b)
	}
	b := byte((256 - sum%256) % 256)
	frame = append(frame, b)

	d := NewDecoder()
	packets, errs := feedAll(t, d, frame)
	if len(packets) != 0 {
		t.Fatalf("expected no packet for an all-checksum frame, got %d", len(packets))
	}
	if len(errs) != 1 || !IsKind(errs[0], PacketRead) {
		t.Fatalf("expected one PacketRead error, got %v", errs)
	}
}

func TestSetMaxBlocksPerPacket_Invalid(t *testing.T) {
	d := NewDecoder()
	if err := d.SetMaxBlocksPerPacket(0); err == nil {
		t.Error("expected error for n=0")
	} else if !IsKind(err, SettingInvalid) {
		t.Errorf("kind = %v, want SettingInvalid", err)
	}
	if err := d.SetMaxBlocksPerPacket(MaxBlocksDisabled); err != nil {
		t.Errorf("MaxBlocksDisabled should be accepted: %v", err)
	}
}
