// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package config loads the file-based tuning for the identity spec (C4)
// and aggregator (C6), the way keskad-loco/pkgs/config layers a YAML
// config through viper's SetDefault/ReadInConfig/Unmarshal.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
	"github.com/vedirect-go/vedirect/pkg/vedirect"
)

// AggregatorConfig is the file-configurable subset of
// vedirect.AggregatorOptions.
type AggregatorConfig struct {
	NbPacketsPerRound  int      `mapstructure:"nb_packets_per_round"`
	MinIntervalSeconds float64  `mapstructure:"min_interval_seconds"`
	MaxReadError       int      `mapstructure:"max_read_error"`
	AcceptedKeys       []string `mapstructure:"accepted_keys"`
}

// IdentityTestEntry is one named sub-test of an identity spec, as written
// in the config file. Type is "value" or "columns".
type IdentityTestEntry struct {
	Name  string   `mapstructure:"name"`
	Type  string   `mapstructure:"type"`
	Key   string   `mapstructure:"key"`
	Value string   `mapstructure:"value"`
	Keys  []string `mapstructure:"keys"`
}

// Configuration is the top-level file config: the device's identity spec
// and the aggregator's round-size/interval/error-budget tuning.
type Configuration struct {
	Aggregator AggregatorConfig    `mapstructure:"aggregator"`
	Identity   []IdentityTestEntry `mapstructure:"identity"`
}

// Load reads a YAML configuration from name (searched under $HOME and the
// working directory, as keskad-loco's NewConfig does), applying defaults
// for any field the file omits.
func Load(name string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigName(name)
	v.AddConfigPath("$HOME/")
	v.AddConfigPath(".")

	v.SetDefault("aggregator.nb_packets_per_round", 10)
	v.SetDefault("aggregator.min_interval_seconds", 1.0)
	v.SetDefault("aggregator.max_read_error", 0)

	cfg := &Configuration{}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if err := v.Unmarshal(cfg); err != nil {
				return nil, fmt.Errorf("cannot parse default config: %w", err)
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("cannot read config: %w", err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config: %w", err)
	}
	return cfg, nil
}

// AggregatorOptions converts the file config into vedirect.AggregatorOptions.
func (c *Configuration) AggregatorOptions() vedirect.AggregatorOptions {
	return vedirect.AggregatorOptions{
		NbPacketsPerRound: c.Aggregator.NbPacketsPerRound,
		MinInterval:       time.Duration(c.Aggregator.MinIntervalSeconds * float64(time.Second)),
		AcceptedKeys:      c.Aggregator.AcceptedKeys,
		MaxReadError:      c.Aggregator.MaxReadError,
	}
}

// IdentitySpec converts the file's identity entries into a
// vedirect.IdentitySpec, failing with the same SettingInvalid error
// ValidateSpec would produce for a malformed entry.
func (c *Configuration) IdentitySpec() (vedirect.IdentitySpec, error) {
	spec := vedirect.IdentitySpec{}
	for _, entry := range c.Identity {
		switch entry.Type {
		case "value":
			spec.Tests = append(spec.Tests, vedirect.ValueTest{
				TestName: entry.Name,
				Key:      entry.Key,
				Expected: entry.Value,
			})
		case "columns":
			spec.Tests = append(spec.Tests, vedirect.ColumnsTest{
				TestName: entry.Name,
				Keys:     entry.Keys,
			})
		default:
			return spec, &vedirect.Error{Kind: vedirect.SettingInvalid, Msg: fmt.Sprintf("unrecognized identity test type %q for %q", entry.Type, entry.Name)}
		}
	}
	if err := vedirect.ValidateSpec(spec); err != nil {
		return spec, err
	}
	return spec, nil
}
