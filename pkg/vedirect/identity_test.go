// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vedirect

import (
	"context"
	"testing"
)

func TestValueTest_RunAndValidate(t *testing.T) {
	pkt := NewPacket()
	pkt.Set("PID", "0x203")

	vt := ValueTest{TestName: "pid", Key: "PID", Expected: "0x203"}
	if !vt.run(pkt) {
		t.Error("expected ValueTest to match")
	}
	if err := vt.validate(); err != nil {
		t.Errorf("validate() = %v, want nil", err)
	}

	wrong := ValueTest{TestName: "pid", Key: "PID", Expected: "0x800"}
	if wrong.run(pkt) {
		t.Error("expected ValueTest to reject a mismatched value")
	}

	missing := ValueTest{TestName: "bad name!", Key: "PID", Expected: "0x203"}
	if err := missing.validate(); err == nil || !IsKind(err, SettingInvalid) {
		t.Errorf("validate() on an invalid name = %v, want SettingInvalid", err)
	}
}

func TestColumnsTest_RunAndValidate(t *testing.T) {
	pkt := NewPacket()
	pkt.Set("V", "1")
	pkt.Set("SOC", "87")

	ct := ColumnsTest{TestName: "cols", Keys: []string{"V", "SOC"}}
	if !ct.run(pkt) {
		t.Error("expected ColumnsTest to match when both keys present")
	}

	ct2 := ColumnsTest{TestName: "cols", Keys: []string{"V", "TTG"}}
	if ct2.run(pkt) {
		t.Error("expected ColumnsTest to reject a missing key")
	}

	empty := ColumnsTest{TestName: "cols"}
	if err := empty.validate(); err == nil {
		t.Error("expected validate() error for an empty key list")
	}
}

func TestValidateSpec(t *testing.T) {
	if err := ValidateSpec(IdentitySpec{}); err == nil {
		t.Error("expected error for an empty spec")
	}

	good := IdentitySpec{Tests: []SubTest{
		ValueTest{TestName: "pid", Key: "PID", Expected: "0x203"},
		ColumnsTest{TestName: "cols", Keys: []string{"V", "SOC"}},
	}}
	if err := ValidateSpec(good); err != nil {
		t.Errorf("ValidateSpec(good) = %v, want nil", err)
	}
}

func TestRunSpec_LogicalAnd(t *testing.T) {
	pkt := NewPacket()
	pkt.Set("PID", "0x203")
	pkt.Set("V", "12800")
	pkt.Set("SOC", "87")

	spec := IdentitySpec{Tests: []SubTest{
		ValueTest{TestName: "pid", Key: "PID", Expected: "0x203"},
		ColumnsTest{TestName: "cols", Keys: []string{"V", "SOC"}},
	}}
	if !RunSpec(spec, pkt) {
		t.Error("expected spec to match a packet satisfying every sub-test")
	}

	wrongSpec := IdentitySpec{Tests: []SubTest{
		ValueTest{TestName: "pid", Key: "PID", Expected: "0x800"},
	}}
	if RunSpec(wrongSpec, pkt) {
		t.Error("expected spec to reject a packet failing a sub-test")
	}
}

// fakeProbeReader replays a fixed sequence of ReadOnePacket results,
// standing in for a live BMV-702 trace (S5).
type fakeProbeReader struct {
	responses []struct {
		pkt *Packet
		err error
	}
	i int
}

func (f *fakeProbeReader) ReadOnePacket(ctx context.Context, timeout Timeout, maxBlockErrors, maxPacketErrors int) (*Packet, error) {
	if f.i >= len(f.responses) {
		return nil, newErr(ReadTimeout, "no more fake responses", nil)
	}
	r := f.responses[f.i]
	f.i++
	return r.pkt, r.err
}

func bmv702Packet1() *Packet {
	p := NewPacket()
	p.Set("PID", "0x203")
	p.Set("V", "12800")
	p.Set("SOC", "87")
	return p
}

func TestReadToTest_IdentityProbe(t *testing.T) {
	reader := &fakeProbeReader{responses: []struct {
		pkt *Packet
		err error
	}{
		{pkt: bmv702Packet1()},
	}}

	spec := IdentitySpec{Tests: []SubTest{
		ValueTest{TestName: "pid", Key: "PID", Expected: "0x203"},
		ColumnsTest{TestName: "cols", Keys: []string{"V", "SOC"}},
	}}

	pkt, err := ReadToTest(context.Background(), reader)
	if err != nil {
		t.Fatalf("ReadToTest: %v", err)
	}
	if !RunSpec(spec, pkt) {
		t.Error("expected probed packet to satisfy the matching spec")
	}

	wrongSpec := IdentitySpec{Tests: []SubTest{
		ValueTest{TestName: "pid", Key: "PID", Expected: "0x800"},
	}}
	if RunSpec(wrongSpec, pkt) {
		t.Error("expected probed packet to be rejected by a mismatched spec")
	}
}
