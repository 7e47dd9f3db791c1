// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vedirect

import (
	"testing"
	"time"
)

func TestBaudRate_Valid(t *testing.T) {
	tests := []struct {
		baud BaudRate
		want bool
	}{
		{Baud19200, true},
		{Baud115200, true},
		{BaudRate(4321), false},
		{BaudRate(0), false},
	}
	for _, tt := range tests {
		if got := tt.baud.Valid(); got != tt.want {
			t.Errorf("BaudRate(%d).Valid() = %v, want %v", tt.baud, got, tt.want)
		}
	}
}

func TestTimeout_Validate(t *testing.T) {
	if err := DurationTimeout(-1 * time.Second).Validate(); err == nil {
		t.Error("expected error for negative duration")
	} else if !IsKind(err, SettingInvalid) {
		t.Errorf("kind = %v, want SettingInvalid", err)
	}
	if err := DurationTimeout(time.Second).Validate(); err != nil {
		t.Errorf("unexpected error for positive duration: %v", err)
	}
	if err := NonBlockingTimeout().Validate(); err != nil {
		t.Errorf("NonBlockingTimeout should validate: %v", err)
	}
	if err := InfiniteTimeout().Validate(); err != nil {
		t.Errorf("InfiniteTimeout should validate: %v", err)
	}
}

func TestSerialConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		conf    SerialConfig
		wantErr bool
	}{
		{
			name:    "default is valid",
			conf:    DefaultSerialConfig("/dev/ttyUSB0"),
			wantErr: false,
		},
		{
			name: "bad baud",
			conf: SerialConfig{Port: "/dev/ttyUSB0", Baud: BaudRate(1)},
			wantErr: true,
		},
		{
			name: "negative read timeout",
			conf: SerialConfig{
				Baud:        Baud19200,
				ReadTimeout: DurationTimeout(-time.Second),
			},
			wantErr: true,
		},
		{
			name: "malformed port path",
			conf: SerialConfig{
				Port: "not-a-real-port",
				Baud: Baud19200,
			},
			wantErr: true,
		},
		{
			name: "empty port is allowed (filled in later by discovery)",
			conf: SerialConfig{Baud: Baud19200},
			wantErr: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.conf.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !IsKind(err, SettingInvalid) {
				t.Errorf("kind = %v, want SettingInvalid", err)
			}
		})
	}
}

func TestSerialConfig_BitTime(t *testing.T) {
	conf := SerialConfig{Baud: Baud19200}
	bt := conf.BitTime()
	// 10 bits at 19200 baud: ~520.8us.
	if bt <= 0 || bt > time.Millisecond {
		t.Errorf("BitTime() = %v, want a small positive duration near 520us", bt)
	}

	zero := SerialConfig{Baud: 0}
	if got := zero.BitTime(); got != 0 {
		t.Errorf("BitTime() with zero baud = %v, want 0", got)
	}
}
