// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vedirect

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// CallbackOptions configures ReadCallback (§4.3). Zero value plus
// DefaultCallbackOptions gives the documented defaults.
type CallbackOptions struct {
	// Timeout bounds each underlying ReadOnePacket call.
	Timeout time.Duration
	// SleepTime is the minimum wall time between two successive callback
	// invocations.
	SleepTime time.Duration
	// MaxLoops stops delivery after this many packets; 0 means unbounded.
	MaxLoops int
	// MaxBlockErrors and MaxPacketErrors are forwarded to ReadOnePacket.
	MaxBlockErrors  int
	MaxPacketErrors int
}

// DefaultCallbackOptions returns §4.3's documented defaults: a 2s
// per-packet timeout, 1s minimum callback spacing, unbounded loops, and
// exit-on-first-error budgets.
func DefaultCallbackOptions() CallbackOptions {
	return CallbackOptions{
		Timeout:         2 * time.Second,
		SleepTime:       1 * time.Second,
		MaxLoops:        0,
		MaxBlockErrors:  0,
		MaxPacketErrors: 0,
	}
}

// PacketCallback is invoked synchronously, from ReadCallback's own
// execution context, once per successfully decoded packet.
type PacketCallback func(packet *Packet)

// ReadCallback implements §4.3's read_callback: it repeatedly drives
// reader, invokes cb for every decoded packet, paces invocations to
// opts.SleepTime net of the callback's own wall time and the bit-time
// already spent reading bytes, and stops after opts.MaxLoops packets (or
// runs forever if MaxLoops is 0).
//
// PacketRead errors within the callback-scoped error budget are discarded;
// ReadTimeout, InputRead beyond budget, and SerialConnection propagate
// unchanged. The caller cancels ctx to stop early; ReadCallback makes no
// assumption about OS signals.
func ReadCallback(ctx context.Context, reader *Reader, cb PacketCallback, opts CallbackOptions, log *logrus.Entry) error {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithField("component", "callback_loop")

	// The callback loop keeps its own cumulative PacketRead budget on top
	// of the one ReadOnePacket enforces per call (§4.3): a call that
	// exceeds its own per-call budget still only counts once here.
	loopPacketBudget := errorBudget{max: opts.MaxPacketErrors}

	loops := 0
	for {
		if opts.MaxLoops > 0 && loops >= opts.MaxLoops {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		bytesBefore := reader.Counters().Byte
		packet, err := reader.ReadOnePacket(ctx, DurationTimeout(opts.Timeout), opts.MaxBlockErrors, opts.MaxPacketErrors)
		if err != nil {
			if IsKind(err, PacketRead) && !loopPacketBudget.exceeded() {
				log.WithError(err).Debug("discarding packet error within callback budget")
				continue
			}
			return err
		}
		bytesRead := uint64(reader.Counters().Byte) - uint64(bytesBefore)

		callbackStart := time.Now()
		cb(packet)
		callbackElapsed := time.Since(callbackStart)
		loops++

		absorbed := time.Duration(bytesRead) * reader.bitTime
		remaining := opts.SleepTime - callbackElapsed - absorbed
		if remaining > 0 {
			t := time.NewTimer(remaining)
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		}
	}
}
