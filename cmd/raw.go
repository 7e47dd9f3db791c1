// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vedirect-go/vedirect/pkg/vedirect"
)

var rawCmd = &cobra.Command{
	Use:   "raw",
	Short: "Decode and print every packet as it arrives, forever",
	Long: `Continuously decode bytes from the configured port and print each
packet and decode error as it occurs. Same shape as heliostat's
raw_log command, adapted to the VE.Direct decoder.`,
	RunE: runRaw,
}

func init() {
	rootCmd.AddCommand(rawCmd)
}

func runRaw(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	transport, connInfo, err := openTransport(ctx)
	if err != nil {
		return err
	}
	defer transport.Close()

	fmt.Printf("vedirect raw - %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	decoder := vedirect.NewDecoder()
	buf := make([]byte, 128)

	for {
		n, err := transport.Read(buf)
		if err != nil {
			log.WithError(err).Error("transport read failed")
			return err
		}
		if n == 0 {
			continue
		}

		for i := 0; i < n; i++ {
			packet, decodeErr := decoder.DecodeByte(buf[i])
			if decodeErr != nil {
				fmt.Printf("[ERROR] %v\n", decodeErr)
				continue
			}
			if packet != nil {
				fmt.Printf("--- packet (%d fields) ---\n", packet.Len())
				for _, k := range packet.Keys() {
					v, _ := packet.Get(k)
					fmt.Printf("%-16s %s\n", k, v)
				}
			}
		}
	}
}
