// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package transport supplies the concrete Transport/PortLister/
// TransportOpener implementations vedirect's core requires from below
// (§6): a go.bug.st/serial-backed serial port, and a WebSocket tunnel for
// remote bridges, following the same two-transport shape as heliostat's
// cmd/connection.go.
package transport

import (
	"context"
	"fmt"

	"github.com/vedirect-go/vedirect/pkg/vedirect"
	"go.bug.st/serial"
)

// SerialTransport wraps a go.bug.st/serial port to satisfy
// vedirect.Transport.
type SerialTransport struct {
	port serial.Port
}

func (s *SerialTransport) Read(p []byte) (int, error) {
	n, err := s.port.Read(p)
	if err != nil {
		return n, err
	}
	return n, nil
}

func (s *SerialTransport) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

func (s *SerialTransport) Flush() error {
	if err := s.port.ResetInputBuffer(); err != nil {
		return err
	}
	return s.port.ResetOutputBuffer()
}

func (s *SerialTransport) Close() error {
	return s.port.Close()
}

// SerialOpener implements vedirect.TransportOpener over go.bug.st/serial.
type SerialOpener struct{}

// Open validates conf and opens the named serial port in non-blocking (or
// short-timeout) mode, as §4.2 requires of the transport.
func (SerialOpener) Open(_ context.Context, conf vedirect.SerialConfig) (vedirect.Transport, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	mode := &serial.Mode{
		BaudRate: int(conf.Baud),
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(vedirect.ExpandHomePortPath(conf.Port), mode)
	if err != nil {
		return nil, fmt.Errorf("%w", &vedirect.Error{Kind: vedirect.SerialConf, Msg: fmt.Sprintf("failed to open serial port %s", conf.Port), Err: err})
	}

	readTimeout := conf.ReadTimeout
	switch readTimeout.Kind {
	case vedirect.TimeoutNonBlocking:
		if err := port.SetReadTimeout(0); err != nil {
			port.Close()
			return nil, &vedirect.Error{Kind: vedirect.SerialConf, Msg: "failed to set non-blocking read timeout", Err: err}
		}
	case vedirect.TimeoutDuration:
		if err := port.SetReadTimeout(readTimeout.D); err != nil {
			port.Close()
			return nil, &vedirect.Error{Kind: vedirect.SerialConf, Msg: "failed to set read timeout", Err: err}
		}
	}

	return &SerialTransport{port: port}, nil
}

// SerialLister implements vedirect.PortLister by combining the host's
// OS-reported serial devices with vmodemN files under the user's home
// directory (§4.5), deduplicated.
type SerialLister struct{}

func (SerialLister) ListPorts(_ context.Context) ([]string, error) {
	osPorts, err := serial.GetPortsList()
	if err != nil {
		return nil, &vedirect.Error{Kind: vedirect.SerialConnection, Msg: "failed to enumerate serial ports", Err: err}
	}

	seen := make(map[string]bool, len(osPorts))
	var out []string
	for _, p := range osPorts {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, p := range vedirect.VmodemCandidates() {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out, nil
}
