// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vedirect

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	minPacketsPerRound     = 1
	maxPacketsPerRound     = 20
	defaultPacketsPerRound = 10
	minAggregatorInterval  = 1 * time.Second
)

func clampRoundSize(n int) int {
	if n < minPacketsPerRound {
		return minPacketsPerRound
	}
	if n > maxPacketsPerRound {
		return maxPacketsPerRound
	}
	return n
}

type cachedSnapshot struct {
	timestamp time.Time
	snapshot  *Packet
}

// Aggregator is VePackets (C6): it coalesces the two-or-more packets a
// device emits per "round" into one merged snapshot, caches it for a
// configurable minimum interval, and tracks per-packet structural
// statistics through Stats (C7).
//
// A single Victron device typically emits two disjoint packets per second
// that together form a complete register snapshot (e.g. a BMV-702 emits 26
// fields across 2 packets); Aggregator hides that from callers who just
// want "the device's current state".
type Aggregator struct {
	reader     *Reader
	controller *Controller // optional; nil disables automatic reconnection
	stats      *Stats
	log        *logrus.Entry

	nbPacketsPerRound int
	minInterval       time.Duration
	cache             *cachedSnapshot
}

// AggregatorOptions configures an Aggregator (§4.6).
type AggregatorOptions struct {
	NbPacketsPerRound int           // default 10, clamped to [1, 20]
	MinInterval       time.Duration // >= 1s
	AcceptedKeys      []string
	MaxReadError      int
}

// DefaultAggregatorOptions returns §4.6's documented defaults.
func DefaultAggregatorOptions() AggregatorOptions {
	return AggregatorOptions{
		NbPacketsPerRound: defaultPacketsPerRound,
		MinInterval:       minAggregatorInterval,
	}
}

// NewAggregator builds an Aggregator over reader, optionally layering a
// Controller for serial-loss recovery (§4.6 step 2's read_serial_data).
func NewAggregator(reader *Reader, controller *Controller, opts AggregatorOptions, log *logrus.Entry) *Aggregator {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	interval := opts.MinInterval
	if interval < minAggregatorInterval {
		interval = minAggregatorInterval
	}
	return &Aggregator{
		reader:            reader,
		controller:        controller,
		stats:             NewStats(opts.MaxReadError, opts.AcceptedKeys),
		log:               log.WithField("component", "aggregator"),
		nbPacketsPerRound: clampRoundSize(opts.NbPacketsPerRound),
		minInterval:       interval,
	}
}

// Stats exposes the aggregator's packet-statistics tracker.
func (a *Aggregator) Stats() *Stats { return a.stats }

// Read implements §4.6's read: returns the cached snapshot if it is still
// fresh, otherwise attempts a fresh round and returns its merged packet.
func (a *Aggregator) Read(ctx context.Context, caller string, timeout time.Duration) (*Packet, bool, error) {
	if a.cache != nil && time.Since(a.cache.timestamp) < a.minInterval {
		return a.cache.snapshot.Clone(), true, nil
	}
	a.cache = nil

	merged := NewPacket()
	observed := 0
	for i := 0; i < a.nbPacketsPerRound; i++ {
		packet, err := a.readSerialData(ctx, caller, timeout)
		if err != nil {
			if IsKind(err, SerialVe) || IsKind(err, OpenSerialVe) || IsKind(err, SerialConnection) {
				a.stats.RecordReadError()
				a.log.WithError(err).WithField("slot", i).Debug("serial read error during round, continuing")
				continue
			}
			return nil, false, err
		}
		merged.Merge(packet)
		a.stats.SetPacketStats(i, packet)
		observed++
	}

	if merged.Len() > 0 {
		a.cache = &cachedSnapshot{timestamp: time.Now(), snapshot: merged}
		a.nbPacketsPerRound = clampRoundSize(observed)
	}

	if reached, err := a.stats.HasReachedMaxErrors(true); reached {
		return nil, false, err
	}

	if merged.Len() == 0 {
		return nil, false, nil
	}
	return merged.Clone(), false, nil
}

// readSerialData is §4.6's read_serial_data helper: it drives the reader
// and, on a serial-loss class error, transparently invokes the Controller
// to recover before retrying once.
func (a *Aggregator) readSerialData(ctx context.Context, caller string, timeout time.Duration) (*Packet, error) {
	packet, err := a.reader.ReadOnePacket(ctx, DurationTimeout(timeout), -1, -1)
	if err == nil {
		return packet, nil
	}
	if !(IsKind(err, SerialVe) || IsKind(err, OpenSerialVe)) {
		return nil, err
	}
	if a.controller == nil {
		return nil, err
	}

	a.log.WithField("caller", caller).Warn("serial connection lost, attempting reconnect")
	ok, recErr := a.controller.WaitOrSearch(ctx, timeout*4, timeout/4)
	if recErr != nil || !ok {
		return nil, wrapErr(SerialConnection, "reconnect failed", err)
	}
	a.stats.RecordReconnection()
	return a.controller.Reader().ReadOnePacket(ctx, DurationTimeout(timeout), -1, -1)
}
