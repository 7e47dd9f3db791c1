// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vedirect

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// errorBudget is the tiny state machine around "a counter of errors seen
// this call, bounded by a budget with -1/0/n semantics" (§4.2, §9 Design
// Notes: "the counters and max_* budgets are a tiny state machine around
// Result").
type errorBudget struct {
	max   int
	count int
}

// exceeded increments the budget and reports whether the caller should now
// re-raise: -1 means never exit on this error class, 0 means exit on the
// first occurrence, n > 0 means exit once count exceeds n.
func (b *errorBudget) exceeded() bool {
	b.count++
	if b.max < 0 {
		return false
	}
	if b.max == 0 {
		return true
	}
	return b.count > b.max
}

// Reader is the Packet Reader (C2): it drives the Decoder with bytes from
// a Transport, bounding timeouts and per-call error counts.
type Reader struct {
	transport Transport
	decoder   *Decoder
	bitTime   time.Duration
	log       *logrus.Entry

	counters Counters
}

// NewReader constructs a Reader over transport, computing the inter-byte
// bit-time sleep once from conf.Baud (§4.2).
func NewReader(transport Transport, conf SerialConfig, log *logrus.Entry) *Reader {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Reader{
		transport: transport,
		decoder:   NewDecoder(),
		bitTime:   conf.BitTime(),
		log:       log.WithField("component", "reader"),
	}
}

// Decoder exposes the underlying decoder, e.g. to reconfigure
// max-blocks-per-packet.
func (r *Reader) Decoder() *Decoder { return r.decoder }

// Counters returns a snapshot of this reader's byte/packet/error counters.
func (r *Reader) Counters() Counters { return r.counters }

// ReadOnePacket implements §4.2's read_one: it reads bytes from the
// transport until a complete packet is decoded, the timeout elapses, or an
// error budget is exhausted. maxBlockErrors/maxPacketErrors follow the
// -1/0/n semantics documented on errorBudget.
func (r *Reader) ReadOnePacket(ctx context.Context, timeout Timeout, maxBlockErrors, maxPacketErrors int) (*Packet, error) {
	start := time.Now()
	blockBudget := errorBudget{max: maxBlockErrors}
	packetBudget := errorBudget{max: maxPacketErrors}
	buf := make([]byte, 1)

	for {
		select {
		case <-ctx.Done():
			return nil, wrapErr(ReadTimeout, "read_one canceled", ctx.Err())
		default:
		}

		n, err := r.transport.Read(buf)
		if err != nil {
			return nil, wrapErr(SerialVe, "transport read failed", err)
		}

		if n == 0 {
			if d := r.checkTimeout(start, timeout); d != nil {
				return nil, d
			}
			r.sleepBitTime(ctx)
			continue
		}

		r.counters.Byte = r.counters.Byte.Add(1)

		if buf[0] == nullByte {
			// A stray null byte is a framing artifact some adapters
			// inject; it is discarded before ever reaching the decoder,
			// not summed into the checksum (§9).
			if d := r.checkTimeout(start, timeout); d != nil {
				return nil, d
			}
			continue
		}

		packet, decodeErr := r.decoder.DecodeByte(buf[0])

		if decodeErr != nil {
			switch {
			case IsKind(decodeErr, InputRead):
				r.counters.BlockErrors = r.counters.BlockErrors.Add(1)
				if blockBudget.exceeded() {
					return nil, decodeErr
				}
			case IsKind(decodeErr, PacketRead):
				r.counters.PacketErrors = r.counters.PacketErrors.Add(1)
				if packetBudget.exceeded() {
					return nil, decodeErr
				}
			default:
				return nil, decodeErr
			}
			if d := r.checkTimeout(start, timeout); d != nil {
				return nil, d
			}
			continue
		}

		if packet != nil {
			r.counters.Packet = r.counters.Packet.Add(1)
			return packet, nil
		}

		if d := r.checkTimeout(start, timeout); d != nil {
			return nil, d
		}
	}
}

func (r *Reader) checkTimeout(start time.Time, timeout Timeout) error {
	if timeout.Kind == TimeoutInfinite {
		return nil
	}
	elapsed := time.Since(start)
	if timeout.Kind == TimeoutNonBlocking {
		if elapsed > 0 {
			r.counters.TimeoutErrors = r.counters.TimeoutErrors.Add(1)
			return newErr(ReadTimeout, "non-blocking read found no data", map[string]interface{}{"elapsed": elapsed})
		}
		return nil
	}
	if elapsed > timeout.D {
		r.counters.TimeoutErrors = r.counters.TimeoutErrors.Add(1)
		return newErr(ReadTimeout, "read_one timed out", map[string]interface{}{"elapsed": elapsed, "timeout": timeout.D})
	}
	return nil
}

// sleepBitTime pauses for approximately one bit-time between byte reads
// (§4.2), skipping the sleep when bitTime is zero, and returning early if
// ctx is canceled.
func (r *Reader) sleepBitTime(ctx context.Context) {
	if r.bitTime <= 0 {
		return
	}
	t := time.NewTimer(r.bitTime)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
