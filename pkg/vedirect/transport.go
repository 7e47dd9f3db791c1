// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vedirect

import "context"

// Transport is the byte-stream collaborator §6 requires from below: serial
// port or otherwise, opened, configured, and closed by whatever concrete
// implementation the caller wires in (see internal/transport). The core
// never assumes anything about the transport beyond this interface.
//
// Read must return immediately with (0, nil) when no data is available
// yet -- the transport is expected to be opened in non-blocking or
// very-short-timeout mode (§4.2). It must not block waiting for n bytes.
type Transport interface {
	// Read reads up to len(p) bytes, returning a possibly-shorter or
	// empty slice when no data is ready. It does not return io.EOF for
	// "no data yet".
	Read(p []byte) (n int, err error)
	// Write writes p, returning the number of bytes written.
	Write(p []byte) (n int, err error)
	// Flush discards any buffered input/output.
	Flush() error
	// Close releases the transport.
	Close() error
}

// PortLister enumerates candidate ports for a Transport family (§4.5, §6
// list_ports). Implemented by internal/transport alongside the concrete
// Transport.
type PortLister interface {
	ListPorts(ctx context.Context) ([]string, error)
}

// TransportOpener opens a Transport for the given config, validating port
// syntax and baud/timeout domains before attempting the open (§6).
type TransportOpener interface {
	Open(ctx context.Context, conf SerialConfig) (Transport, error)
}
