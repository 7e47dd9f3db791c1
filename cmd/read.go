// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vedirect-go/vedirect/pkg/vedirect"
)

var readTimeout time.Duration

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Read and print a single VE.Direct packet",
	Long: `Open the configured port, wait for one complete packet (C2's
read_one), and print its fields in receive order.`,
	RunE: runRead,
}

func init() {
	rootCmd.AddCommand(readCmd)
	readCmd.Flags().DurationVar(&readTimeout, "timeout", 5*time.Second, "time to wait for a complete packet")
}

func runRead(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	transport, connInfo, err := openTransport(ctx)
	if err != nil {
		return err
	}
	defer transport.Close()

	log.WithField("connection", connInfo).Info("opened connection")

	reader := vedirect.NewReader(transport, serialConfig(), logrus.NewEntry(log))
	packet, err := reader.ReadOnePacket(ctx, vedirect.DurationTimeout(readTimeout), 0, 0)
	if err != nil {
		return err
	}

	for _, k := range packet.Keys() {
		v, _ := packet.Get(k)
		fmt.Printf("%-16s %s\n", k, v)
	}
	return nil
}
