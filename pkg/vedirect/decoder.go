// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vedirect

import "fmt"

// Decoder implements the VE.Direct byte-level state machine (§4.1). It
// consumes one byte at a time and accumulates textual key/value blocks
// into a Packet, verifying the frame's one-byte arithmetic checksum.
//
// A Decoder is not safe for concurrent use; per §5 each independent stream
// owns its own Decoder.
type Decoder struct {
	state     int
	key       []byte
	value     []byte
	sum       int
	packet    *Packet
	maxBlocks int
	rawBuffer []byte
}

// NewDecoder returns a Decoder in its initial WaitHeader state with the
// default max-blocks-per-packet limit.
func NewDecoder() *Decoder {
	d := &Decoder{maxBlocks: DefaultMaxBlocksPerPacket}
	d.resetState()
	return d
}

// SetMaxBlocksPerPacket configures the per-packet field cap. n must be a
// positive integer or MaxBlocksDisabled; any other value fails with
// SettingInvalid.
func (d *Decoder) SetMaxBlocksPerPacket(n int) error {
	if n != MaxBlocksDisabled && n <= 0 {
		return newErr(SettingInvalid, fmt.Sprintf("max_blocks_per_packet must be positive or disabled, got %d", n), nil)
	}
	d.maxBlocks = n
	return nil
}

// resetState returns the decoder to (WaitHeader, "", "", 0, {}), the
// lifecycle point after every delivered packet or recoverable error.
func (d *Decoder) resetState() {
	d.state = stateWaitHeader
	d.key = d.key[:0]
	d.value = d.value[:0]
	d.sum = 0
	d.packet = NewPacket()
	d.rawBuffer = d.rawBuffer[:0]
}

// GetRawBytes returns the bytes accumulated since the last packet boundary
// (successful delivery or reset), for offline frame logging.
func (d *Decoder) GetRawBytes() []byte {
	return d.rawBuffer
}

// DecodeByte feeds one byte through the state machine. It returns a
// completed Packet when a frame closes with a valid checksum, or an error
// (always *Error, PacketRead or InputRead) when the frame is malformed. In
// either returning case the decoder's state has already been reset to
// WaitHeader before the call returns.
func (d *Decoder) DecodeByte(b byte) (*Packet, error) {
	d.rawBuffer = append(d.rawBuffer, b)

	if b == hexMark && d.state != stateInChecksum {
		d.state = stateHex
		return nil, nil
	}

	switch d.state {
	case stateWaitHeader:
		d.sum += int(b)
		if b == header2 {
			d.state = stateInKey
		}
		// HEADER1 or any other preamble byte: remain, already summed.
		return nil, nil

	case stateInKey:
		d.sum += int(b)
		if b == tab {
			if string(d.key) == checksumKey {
				d.state = stateInChecksum
			} else {
				d.state = stateInValue
			}
			return nil, nil
		}
		if b == header1 || b == header2 {
			err := newErr(PacketRead, "unexpected header in key", map[string]interface{}{"key": string(d.key)})
			d.resetState()
			return nil, err
		}
		if b >= 0x80 {
			err := newErr(InputRead, "decode error: non-ASCII byte in key", nil)
			d.resetState()
			return nil, err
		}
		d.key = append(d.key, b)
		return nil, nil

	case stateInValue:
		d.sum += int(b)
		if b == header1 {
			if d.maxBlocks != MaxBlocksDisabled && d.packet.Len() >= d.maxBlocks {
				err := newErr(PacketRead, "max blocks exceeded", map[string]interface{}{"max_blocks_per_packet": d.maxBlocks})
				d.resetState()
				return nil, err
			}
			d.packet.Set(string(d.key), string(d.value))
			d.key = d.key[:0]
			d.value = d.value[:0]
			d.state = stateWaitHeader
			return nil, nil
		}
		if b == header2 {
			err := newErr(PacketRead, "unexpected header in value", map[string]interface{}{"key": string(d.key)})
			d.resetState()
			return nil, err
		}
		if b >= 0x80 {
			err := newErr(InputRead, "decode error: non-ASCII byte in value", nil)
			d.resetState()
			return nil, err
		}
		d.value = append(d.value, b)
		return nil, nil

	case stateInChecksum:
		d.sum += int(b)
		mod := d.sum % 256
		if mod == 0 {
			pkt := d.packet
			d.resetState()
			if pkt.Len() == 0 {
				return nil, newErr(PacketRead, "empty packet", nil)
			}
			return pkt, nil
		}
		err := newErr(PacketRead, "checksum mismatch", map[string]interface{}{
			"sum_mod_256": mod,
			"fields":      d.packet.Clone(),
		})
		d.resetState()
		return nil, err

	case stateHex:
		d.sum = 0
		if b == header2 {
			d.state = stateWaitHeader
		}
		return nil, nil

	default:
		err := newErr(InputRead, fmt.Sprintf("impossible decoder state %d", d.state), nil)
		d.resetState()
		return nil, err
	}
}
