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

var (
	roundTimeout       time.Duration
	roundPacketsPerRnd int
	roundMinInterval   time.Duration
)

var roundCmd = &cobra.Command{
	Use:   "round",
	Short: "Snapshot a merged aggregator round",
	Long: `Drive the aggregator (C6) through one round of reads and print the
merged snapshot, the way a device's disjoint per-second packets get
coalesced into a single register view.`,
	RunE: runRound,
}

func init() {
	rootCmd.AddCommand(roundCmd)
	roundCmd.Flags().DurationVar(&roundTimeout, "timeout", 2*time.Second, "per-packet read timeout")
	roundCmd.Flags().IntVar(&roundPacketsPerRnd, "packets-per-round", 10, "packets expected per round, clamped to [1,20]")
	roundCmd.Flags().DurationVar(&roundMinInterval, "min-interval", time.Second, "minimum time between fresh rounds")
}

func runRound(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	transport, connInfo, err := openTransport(ctx)
	if err != nil {
		return err
	}
	defer transport.Close()

	log.WithField("connection", connInfo).Info("opened connection")

	entry := logrus.NewEntry(log)
	reader := vedirect.NewReader(transport, serialConfig(), entry)

	cfg, cfgErr := loadConfiguration()
	opts := vedirect.DefaultAggregatorOptions()
	opts.NbPacketsPerRound = roundPacketsPerRnd
	opts.MinInterval = roundMinInterval
	if cfgErr == nil {
		fileOpts := cfg.AggregatorOptions()
		if fileOpts.NbPacketsPerRound > 0 && !cmd.Flags().Changed("packets-per-round") {
			opts.NbPacketsPerRound = fileOpts.NbPacketsPerRound
		}
		if fileOpts.MinInterval > 0 && !cmd.Flags().Changed("min-interval") {
			opts.MinInterval = fileOpts.MinInterval
		}
		opts.AcceptedKeys = fileOpts.AcceptedKeys
		opts.MaxReadError = fileOpts.MaxReadError
	}

	aggregator := vedirect.NewAggregator(reader, nil, opts, entry)
	packet, cached, err := aggregator.Read(ctx, "round", roundTimeout)
	if err != nil {
		return err
	}
	if packet == nil {
		return fmt.Errorf("round produced no fields")
	}

	if cached {
		fmt.Println("(served from cache)")
	}
	for _, k := range packet.Keys() {
		v, _ := packet.Get(k)
		fmt.Printf("%-16s %s\n", k, v)
	}
	return nil
}
