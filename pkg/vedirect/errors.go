// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vedirect

import (
	"errors"
	"fmt"
)

// Kind tags the mutually exclusive error variants a vedirect component can
// raise. See the component design for which layer raises which kind and
// which layer is expected to recover from it.
type Kind int

const (
	// SettingInvalid signals a configuration value out of range, the wrong
	// shape, or an identity-spec variant tag that isn't recognized. Fatal,
	// raised at construction/configuration time.
	SettingInvalid Kind = iota
	// InputRead signals a single byte caused an unexpected decode error
	// (non-ASCII where ASCII is required, an impossible state transition).
	// Recoverable up to max_block_errors.
	InputRead
	// PacketRead signals a framing violation: unexpected header byte,
	// checksum mismatch, block-count overrun. Recoverable up to
	// max_packet_errors.
	PacketRead
	// ReadTimeout signals a wall-clock budget was exceeded for a read or a
	// reconnection attempt.
	ReadTimeout
	// SerialConf signals the transport rejected its configuration (bad
	// baud, invalid port, bad timeout). Fatal for that attempt.
	SerialConf
	// SerialVe signals transport I/O failed (device removed, permission
	// denied). Triggers reconnection when a controller is present.
	SerialVe
	// OpenSerialVe signals the transport reports open but the underlying
	// port isn't actually usable. Triggers reconnection.
	OpenSerialVe
	// SerialConnection is the umbrella "no usable transport" error, raised
	// when the controller cannot or will not try to recover.
	SerialConnection
)

func (k Kind) String() string {
	switch k {
	case SettingInvalid:
		return "SettingInvalid"
	case InputRead:
		return "InputRead"
	case PacketRead:
		return "PacketRead"
	case ReadTimeout:
		return "ReadTimeout"
	case SerialConf:
		return "SerialConf"
	case SerialVe:
		return "SerialVe"
	case OpenSerialVe:
		return "OpenSerialVe"
	case SerialConnection:
		return "SerialConnection"
	default:
		return "Unknown"
	}
}

// Error is the single wrapped-error type every vedirect component raises.
// Details carries variant-specific context (counters, offending bytes, a
// partial field map) for callers that want more than the message.
type Error struct {
	Kind    Kind
	Msg     string
	Err     error
	Details map[string]interface{}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// newErr builds an *Error, optionally attaching a detail map.
func newErr(kind Kind, msg string, details map[string]interface{}) *Error {
	return &Error{Kind: kind, Msg: msg, Details: details}
}

func wrapErr(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// IsKind reports whether err is, or wraps, a *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ve *Error
	if !errors.As(err, &ve) {
		return false
	}
	return ve.Kind == kind
}
