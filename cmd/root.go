// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package cmd is the vedirect CLI: one subcommand per core operation
// (read a packet, watch a callback loop, snapshot an aggregator round,
// discover a port, replay a recording, dump raw frames), following
// heliostat's cmd/root.go persistent-flags-plus-subcommands shape.
package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	portName      string
	baudRate      int
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool
	configFile    string
	verbose       bool

	log = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:   "vedirect",
	Short: "VE.Direct ASCII protocol decoder and monitor",
	Long: `vedirect talks to Victron Energy devices over the VE.Direct ASCII
serial protocol: decode a single packet, watch a continuous callback
loop, snapshot a multi-packet aggregator round, or discover and probe
a port's identity.`,
	Version:           "1.0.0",
	PersistentPreRunE: setupLogging,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "serial port device (e.g. /dev/ttyUSB0)")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 19200, "baud rate")
	rootCmd.PersistentFlags().StringVar(&wsURL, "url", "", "websocket bridge URL (ws:// or wss://), alternative to --port")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "ws-user", "", "websocket basic-auth username")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "ws-insecure", false, "skip TLS certificate verification for wss://")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "vedirect", "config file name (searched under $HOME and .)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug-level logging")
}

func setupLogging(cmd *cobra.Command, args []string) error {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
