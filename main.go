// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// vedirect - VE.Direct ASCII protocol decoder and monitor
//
// A CLI tool for reading, monitoring, and probing Victron Energy devices
// over the VE.Direct ASCII serial protocol.

package main

import (
	"fmt"
	"os"

	"github.com/vedirect-go/vedirect/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
