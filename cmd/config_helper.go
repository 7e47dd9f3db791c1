// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	ivconfig "github.com/vedirect-go/vedirect/internal/config"
)

// loadConfiguration loads the --config file. A missing file yields the
// defaults and no error; an error means the file was found but could not
// be read or parsed.
func loadConfiguration() (*ivconfig.Configuration, error) {
	return ivconfig.Load(configFile)
}
