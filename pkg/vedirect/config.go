// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vedirect

import (
	"fmt"
	"time"
)

// BaudRate enumerates the standard serial rates accepted by §3. 19200 is
// the VE.Direct default (§6).
type BaudRate int

const (
	Baud110    BaudRate = 110
	Baud300    BaudRate = 300
	Baud600    BaudRate = 600
	Baud1200   BaudRate = 1200
	Baud2400   BaudRate = 2400
	Baud4800   BaudRate = 4800
	Baud9600   BaudRate = 9600
	Baud14400  BaudRate = 14400
	Baud19200  BaudRate = 19200
	Baud38400  BaudRate = 38400
	Baud57600  BaudRate = 57600
	Baud115200 BaudRate = 115200
	Baud128000 BaudRate = 128000
	Baud256000 BaudRate = 256000
)

var validBaudRates = map[BaudRate]bool{
	Baud110: true, Baud300: true, Baud600: true, Baud1200: true,
	Baud2400: true, Baud4800: true, Baud9600: true, Baud14400: true,
	Baud19200: true, Baud38400: true, Baud57600: true, Baud115200: true,
	Baud128000: true, Baud256000: true,
}

// Valid reports whether b is one of the enumerated standard baud rates.
func (b BaudRate) Valid() bool {
	return validBaudRates[b]
}

// TimeoutKind distinguishes a finite wait from the two special timeout
// domains allowed by §3: non-blocking (return immediately) and infinite
// (wait forever).
type TimeoutKind int

const (
	TimeoutDuration TimeoutKind = iota
	TimeoutNonBlocking
	TimeoutInfinite
)

// Timeout represents a read or write timeout: a non-negative real number
// of seconds, "non-blocking", or "infinite".
type Timeout struct {
	Kind TimeoutKind
	D    time.Duration
}

// NonBlockingTimeout returns the non-blocking sentinel timeout.
func NonBlockingTimeout() Timeout { return Timeout{Kind: TimeoutNonBlocking} }

// InfiniteTimeout returns the infinite sentinel timeout.
func InfiniteTimeout() Timeout { return Timeout{Kind: TimeoutInfinite} }

// DurationTimeout returns a finite timeout of d, which must be >= 0.
func DurationTimeout(d time.Duration) Timeout { return Timeout{Kind: TimeoutDuration, D: d} }

// Validate reports a SettingInvalid error if d represents a negative
// finite duration.
func (t Timeout) Validate() error {
	if t.Kind == TimeoutDuration && t.D < 0 {
		return newErr(SettingInvalid, "timeout duration must be non-negative", map[string]interface{}{"duration": t.D})
	}
	return nil
}

// SerialConfig is the §3 Serial Configuration record. The actual
// open/read/write/flush/close primitives belong to the transport (§6); this
// struct only carries the parameters that drive them.
type SerialConfig struct {
	// Port is the platform-specific device path. Optional: a Discovery
	// controller may leave it empty and fill it in from port enumeration.
	Port string
	// Baud defaults to Baud19200, the VE.Direct wire rate.
	Baud BaudRate
	// ReadTimeout and WriteTimeout are applied by the transport.
	ReadTimeout  Timeout
	WriteTimeout Timeout
	// Exclusive requests exclusive access to the port; POSIX-only, ignored
	// elsewhere.
	Exclusive bool
	// Source labels this configuration for logging, e.g. "bmv702-1".
	Source string
}

// DefaultSerialConfig returns a config with VE.Direct's standard rate and a
// short non-blocking read, suitable as a starting point for callers to
// customize.
func DefaultSerialConfig(port string) SerialConfig {
	return SerialConfig{
		Port:         port,
		Baud:         Baud19200,
		ReadTimeout:  DurationTimeout(100 * time.Millisecond),
		WriteTimeout: DurationTimeout(1 * time.Second),
	}
}

// Validate checks the record against §3's invariants: baud must be one of
// the enumerated values, timeouts must be well-formed, and the port path
// (when set) must match the POSIX/Windows syntax from §6.
func (c SerialConfig) Validate() error {
	if !c.Baud.Valid() {
		return newErr(SettingInvalid, fmt.Sprintf("unsupported baud rate %d", c.Baud), map[string]interface{}{"baud": c.Baud})
	}
	if err := c.ReadTimeout.Validate(); err != nil {
		return err
	}
	if err := c.WriteTimeout.Validate(); err != nil {
		return err
	}
	if c.Port != "" && !ValidPortPath(c.Port) {
		return newErr(SettingInvalid, fmt.Sprintf("malformed port path %q", c.Port), map[string]interface{}{"port": c.Port})
	}
	return nil
}

// BitTime returns the approximate time to transmit one byte (10 bits: 1
// start + 8 data + 1 stop) at the configured baud rate, per §4.2's
// inter-byte pacing sleep.
func (c SerialConfig) BitTime() time.Duration {
	if c.Baud <= 0 {
		return 0
	}
	return time.Duration(float64(10) / float64(c.Baud) * float64(time.Second))
}
