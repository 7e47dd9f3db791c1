// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vedirect-go/vedirect/pkg/vedirect"
)

var (
	monitorPacketTimeout time.Duration
	monitorSleepTime     time.Duration
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch a continuous stream of packets in a terminal UI",
	Long: `monitor drives the callback loop (C3) in the background and renders
each decoded packet in a bubbletea TUI. It does not reconnect: the
first error the callback loop returns, including a lost transport,
ends the program.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().DurationVar(&monitorPacketTimeout, "timeout", 2*time.Second, "per-packet read timeout")
	monitorCmd.Flags().DurationVar(&monitorSleepTime, "interval", time.Second, "minimum time between displayed packets")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	transport, connInfo, err := openTransport(ctx)
	if err != nil {
		return err
	}
	defer transport.Close()

	entry := logrus.NewEntry(log)
	reader := vedirect.NewReader(transport, serialConfig(), entry)

	packets := make(chan monitorPacketMsg, 4)
	errs := make(chan monitorErrMsg, 1)

	opts := vedirect.DefaultCallbackOptions()
	opts.Timeout = monitorPacketTimeout
	opts.SleepTime = monitorSleepTime

	go func() {
		err := vedirect.ReadCallback(ctx, reader, func(packet *vedirect.Packet) {
			select {
			case packets <- monitorPacketMsg{packet: packet}:
			default:
			}
		}, opts, entry)
		if err != nil && ctx.Err() == nil {
			errs <- monitorErrMsg{err: err}
		}
	}()

	m := newMonitorModel(connInfo, packets, errs)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
