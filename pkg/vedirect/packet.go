// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vedirect

// Packet is an ordered mapping from a VE.Direct field label to its raw
// ASCII value string. Field order is preserved in emission order; the
// Checksum pseudo-field is consumed by the decoder and never appears here.
type Packet struct {
	keys   []string
	values map[string]string
}

// NewPacket returns an empty packet ready to accumulate fields.
func NewPacket() *Packet {
	return &Packet{values: make(map[string]string)}
}

// Set stores value under key, preserving first-seen order; a repeated key
// overwrites the stored value in place without changing its position.
func (p *Packet) Set(key, value string) {
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

// Get returns the value stored under key and whether it was present.
func (p *Packet) Get(key string) (string, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Has reports whether key is present in the packet.
func (p *Packet) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

// Keys returns the field labels in first-seen order.
func (p *Packet) Keys() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Len returns the number of fields in the packet.
func (p *Packet) Len() int {
	return len(p.keys)
}

// Clone returns a deep copy of the packet.
func (p *Packet) Clone() *Packet {
	c := &Packet{
		keys:   make([]string, len(p.keys)),
		values: make(map[string]string, len(p.values)),
	}
	copy(c.keys, p.keys)
	for k, v := range p.values {
		c.values[k] = v
	}
	return c
}

// Merge copies every field of other into p, later values overwriting
// earlier ones for the same key, in other's iteration order.
func (p *Packet) Merge(other *Packet) {
	if other == nil {
		return
	}
	for _, k := range other.keys {
		p.Set(k, other.values[k])
	}
}

// Fingerprint describes the structural shape of a packet: how many fields
// it has and which labels they are, independent of their values. Two
// packets with the same Fingerprint are the "same slot" of a device round.
type Fingerprint struct {
	NumFields int
	Keys      []string
}

// FingerprintOf computes the fingerprint of p.
func FingerprintOf(p *Packet) Fingerprint {
	return Fingerprint{NumFields: p.Len(), Keys: p.Keys()}
}

// Equal reports whether two fingerprints describe the same field set and
// order.
func (f Fingerprint) Equal(o Fingerprint) bool {
	if f.NumFields != o.NumFields || len(f.Keys) != len(o.Keys) {
		return false
	}
	for i, k := range f.Keys {
		if o.Keys[i] != k {
			return false
		}
	}
	return true
}
