// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vedirect

import (
	"context"
	"fmt"
	"time"
)

// SubTest is one named clause of an IdentitySpec (§3 Identity Test Spec).
type SubTest interface {
	// Name returns the sub-test's identifier; must match ValidKey.
	Name() string
	// run reports whether packet satisfies this sub-test. Missing keys
	// cause failure, not error.
	run(p *Packet) bool
	// validate reports a SettingInvalid error if the sub-test is
	// malformed.
	validate() error
}

// ValueTest requires the packet to contain Key with exactly Expected.
type ValueTest struct {
	TestName string
	Key      string
	Expected string
}

func (v ValueTest) Name() string { return v.TestName }

func (v ValueTest) run(p *Packet) bool {
	got, ok := p.Get(v.Key)
	return ok && got == v.Expected
}

func (v ValueTest) validate() error {
	if !ValidKey(v.TestName) {
		return newErr(SettingInvalid, fmt.Sprintf("invalid sub-test name %q", v.TestName), nil)
	}
	if v.Key == "" || v.Expected == "" {
		return newErr(SettingInvalid, fmt.Sprintf("value test %q requires key and expected value", v.TestName), nil)
	}
	return nil
}

// ColumnsTest requires the packet to contain every listed key.
type ColumnsTest struct {
	TestName string
	Keys     []string
}

func (c ColumnsTest) Name() string { return c.TestName }

func (c ColumnsTest) run(p *Packet) bool {
	for _, k := range c.Keys {
		if !p.Has(k) {
			return false
		}
	}
	return true
}

func (c ColumnsTest) validate() error {
	if !ValidKey(c.TestName) {
		return newErr(SettingInvalid, fmt.Sprintf("invalid sub-test name %q", c.TestName), nil)
	}
	if len(c.Keys) == 0 {
		return newErr(SettingInvalid, fmt.Sprintf("columns test %q requires at least one key", c.TestName), nil)
	}
	return nil
}

// IdentitySpec is a set of named sub-tests that combine by logical AND
// (§3 Identity Test Spec).
type IdentitySpec struct {
	Tests []SubTest
}

// ValidateSpec reports true iff every sub-test has a recognized variant,
// a key-pattern-valid name, and variant-specific well-formedness.
func ValidateSpec(spec IdentitySpec) error {
	if len(spec.Tests) == 0 {
		return newErr(SettingInvalid, "identity spec has no sub-tests", nil)
	}
	for _, t := range spec.Tests {
		switch t.(type) {
		case ValueTest, ColumnsTest:
			if err := t.validate(); err != nil {
				return err
			}
		default:
			return newErr(SettingInvalid, fmt.Sprintf("unrecognized sub-test variant for %q", t.Name()), nil)
		}
	}
	return nil
}

// RunSpec reports true iff packet satisfies every sub-test in spec.
func RunSpec(spec IdentitySpec, packet *Packet) bool {
	for _, t := range spec.Tests {
		if !t.run(packet) {
			return false
		}
	}
	return true
}

// probeReader is the subset of *Reader that ReadToTest needs, so tests can
// supply a fake.
type probeReader interface {
	ReadOnePacket(ctx context.Context, timeout Timeout, maxBlockErrors, maxPacketErrors int) (*Packet, error)
}

// probeAttempts and probeBudget bound ReadToTest per §4.4: up to four
// reads, each with a short budget.
const (
	probeAttempts = 4
	probeBudget   = 2 * time.Second
	probeBackoff  = 50 * time.Millisecond
)

// ReadToTest drives reader up to probeAttempts times, each with a
// probeBudget timeout, merges the resulting packets, and returns the
// union. Decoder errors during probing are swallowed and retried with a
// brief back-off. A timeout or transport error ends probing early; the
// packets merged so far are still returned, and the error is returned only
// when no packet was read at all.
func ReadToTest(ctx context.Context, reader probeReader) (*Packet, error) {
	merged := NewPacket()
	var lastErr error
	got := false
	for i := 0; i < probeAttempts; i++ {
		pkt, err := reader.ReadOnePacket(ctx, DurationTimeout(probeBudget), -1, -1)
		if err != nil {
			lastErr = err
			if IsKind(err, ReadTimeout) || IsKind(err, SerialVe) || IsKind(err, SerialConnection) {
				break
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(probeBackoff):
			}
			continue
		}
		merged.Merge(pkt)
		got = true
	}
	if !got {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, newErr(ReadTimeout, "no packet received while probing", nil)
	}
	return merged, nil
}
