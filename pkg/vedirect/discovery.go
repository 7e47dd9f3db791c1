// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vedirect

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Controller is the Port Discovery & Reconnect Controller (C5). It owns the
// Reader's Transport through a single field (§9: "composition... each
// higher component owns its lower one through a single field") and, on
// transport loss, enumerates candidate ports, probes each with C2+C4, and
// rebinds on the first match.
type Controller struct {
	opener TransportOpener
	lister PortLister
	conf   SerialConfig
	spec   IdentitySpec
	reader *Reader
	log    *logrus.Entry
}

// NewController builds a Controller around an already-open reader. opener
// and lister are the transport family's factory and port enumerator
// (internal/transport supplies the concrete go.bug.st/serial and WebSocket
// implementations).
func NewController(reader *Reader, opener TransportOpener, lister PortLister, conf SerialConfig, spec IdentitySpec, log *logrus.Entry) *Controller {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Controller{
		opener: opener,
		lister: lister,
		conf:   conf,
		spec:   spec,
		reader: reader,
		log:    log.WithField("component", "discovery"),
	}
}

// Reader returns the controller's active reader, whose Transport may be
// rebound by WaitOrSearch.
func (c *Controller) Reader() *Reader { return c.reader }

// WaitOrSearch implements §4.5's wait_or_search: it polls candidate ports
// until one validates against the identity spec, or timeout elapses.
// Validation is transactional (§4.5): a candidate that fails to validate
// never leaves the previously bound transport unreachable.
func (c *Controller) WaitOrSearch(ctx context.Context, timeout time.Duration, sleepBetweenTries time.Duration) (bool, error) {
	if c.reader == nil {
		return false, newErr(SerialConnection, "no transport owner configured", nil)
	}
	if len(c.spec.Tests) == 0 {
		return false, newErr(SerialConnection, "no identity spec configured", nil)
	}

	deadline := time.Now().Add(timeout)
	previousTransport := c.reader.transport
	previousBitTime := c.reader.bitTime

	for {
		if time.Now().After(deadline) {
			return false, newErr(ReadTimeout, "port discovery timed out", map[string]interface{}{"timeout": timeout})
		}

		ports, err := c.lister.ListPorts(ctx)
		if err != nil {
			c.log.WithError(err).Warn("port enumeration failed")
			ports = nil
		}

		for _, port := range ports {
			candidateConf := c.conf
			candidateConf.Port = port
			candidateConf.ReadTimeout = NonBlockingTimeout()

			transport, openErr := c.opener.Open(ctx, candidateConf)
			if openErr != nil {
				c.log.WithField("port", port).WithError(openErr).Debug("candidate port failed to open")
				continue
			}

			c.reader.transport = transport
			c.reader.bitTime = candidateConf.BitTime()
			c.reader.decoder.resetState()

			packet, probeErr := ReadToTest(ctx, c.reader)
			if probeErr == nil && RunSpec(c.spec, packet) {
				c.reader.transport = transport
				c.reader.decoder.resetState()
				c.log.WithField("port", port).Info("port validated, rebound")
				return true, nil
			}

			// Validation failed: close the candidate and restore the
			// previously bound transport before moving to the next one.
			transport.Close()
			c.reader.transport = previousTransport
			c.reader.bitTime = previousBitTime
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(sleepBetweenTries):
		}
	}
}
