// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vedirect

import (
	"context"
	"testing"
	"time"
)

type fakeLister struct {
	ports []string
	err   error
}

func (f *fakeLister) ListPorts(ctx context.Context) ([]string, error) {
	return f.ports, f.err
}

// fakeOpener binds a fixed wire payload to a named port, or fails for any
// other port name.
type fakeOpener struct {
	goodPort string
	wire     []byte
	opened   []string
}

func (f *fakeOpener) Open(ctx context.Context, conf SerialConfig) (Transport, error) {
	f.opened = append(f.opened, conf.Port)
	if conf.Port != f.goodPort {
		return nil, newErr(OpenSerialVe, "no such device", nil)
	}
	return newFakeTransport(f.wire), nil
}

func identitySpecForBMV() IdentitySpec {
	return IdentitySpec{Tests: []SubTest{
		ValueTest{TestName: "pid", Key: "PID", Expected: "0x203"},
	}}
}

func TestController_WaitOrSearch_RebindsOnMatch(t *testing.T) {
	good := frameBytes(t, [][2]string{{"PID", "0x203"}, {"V", "1"}})
	opener := &fakeOpener{goodPort: "/dev/ttyUSB1", wire: good}
	lister := &fakeLister{ports: []string{"/dev/ttyUSB0", "/dev/ttyUSB1"}}

	initial := newFakeTransport(nil)
	reader := NewReader(initial, SerialConfig{Baud: Baud19200}, nil)
	ctrl := NewController(reader, opener, lister, SerialConfig{Baud: Baud19200}, identitySpecForBMV(), nil)

	ok, err := ctrl.WaitOrSearch(context.Background(), time.Second, time.Millisecond)
	if err != nil {
		t.Fatalf("WaitOrSearch: %v", err)
	}
	if !ok {
		t.Fatal("expected WaitOrSearch to find the matching port")
	}
	if len(opener.opened) == 0 || opener.opened[len(opener.opened)-1] != "/dev/ttyUSB1" {
		t.Errorf("expected the matching port to be opened last, got %v", opener.opened)
	}
}

func TestController_WaitOrSearch_RollsBackOnValidationFailure(t *testing.T) {
	// The only candidate does not validate; WaitOrSearch must restore the
	// previously bound transport rather than leaving the reader pointed
	// at a dead candidate, and ultimately time out.
	wrongPID := frameBytes(t, [][2]string{{"PID", "0x800"}, {"V", "1"}})
	opener := &fakeOpener{goodPort: "/dev/ttyUSB9", wire: wrongPID}
	lister := &fakeLister{ports: []string{"/dev/ttyUSB9"}}

	original := newFakeTransport(nil)
	reader := NewReader(original, SerialConfig{Baud: Baud19200}, nil)
	ctrl := NewController(reader, opener, lister, SerialConfig{Baud: Baud19200}, identitySpecForBMV(), nil)

	ok, err := ctrl.WaitOrSearch(context.Background(), 30*time.Millisecond, 5*time.Millisecond)
	if ok {
		t.Fatal("expected no match since the candidate's PID does not satisfy the spec")
	}
	if err == nil || !IsKind(err, ReadTimeout) {
		t.Errorf("expected a ReadTimeout error, got %v", err)
	}
	if reader.transport != original {
		t.Error("expected the original transport to be restored after a failed validation")
	}
}

func TestController_WaitOrSearch_NoIdentitySpecConfigured(t *testing.T) {
	reader := NewReader(newFakeTransport(nil), SerialConfig{Baud: Baud19200}, nil)
	ctrl := NewController(reader, &fakeOpener{}, &fakeLister{}, SerialConfig{Baud: Baud19200}, IdentitySpec{}, nil)

	_, err := ctrl.WaitOrSearch(context.Background(), time.Second, time.Millisecond)
	if err == nil || !IsKind(err, SerialConnection) {
		t.Fatalf("expected a SerialConnection error for a missing identity spec, got %v", err)
	}
}
