// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	ivtransport "github.com/vedirect-go/vedirect/internal/transport"
	"github.com/vedirect-go/vedirect/pkg/vedirect"
)

var (
	discoverTimeout time.Duration
	discoverRetry   time.Duration
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Enumerate serial ports and probe each against the configured identity spec",
	Long: `discover enumerates candidate serial ports (OS-reported devices plus
vmodemN files) and, for each, opens it, reads a few packets (C4's
probe), and tests the result against the identity spec loaded from
--config. The first match is reported; none found is an error.`,
	RunE: runDiscover,
}

func init() {
	rootCmd.AddCommand(discoverCmd)
	discoverCmd.Flags().DurationVar(&discoverTimeout, "timeout", 30*time.Second, "overall discovery timeout")
	discoverCmd.Flags().DurationVar(&discoverRetry, "retry-interval", 5*time.Second, "pause between enumeration sweeps")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfiguration()
	if err != nil {
		return fmt.Errorf("failed to load identity spec from config: %w", err)
	}
	spec, err := cfg.IdentitySpec()
	if err != nil {
		return fmt.Errorf("invalid identity spec: %w", err)
	}

	ctx := context.Background()
	entry := logrus.NewEntry(log)

	conf := vedirect.DefaultSerialConfig(portName)
	conf.Baud = vedirect.BaudRate(baudRate)

	placeholder, err := (ivtransport.SerialOpener{}).Open(ctx, conf)
	if err != nil {
		// No port bound yet; the controller opens its own candidates, so
		// any open transport is enough to seed the Reader. Fall back to
		// the first enumerated port.
		ports, lerr := (ivtransport.SerialLister{}).ListPorts(ctx)
		if lerr != nil || len(ports) == 0 {
			return fmt.Errorf("no serial ports available to seed discovery: %w", err)
		}
		conf.Port = ports[0]
		placeholder, err = (ivtransport.SerialOpener{}).Open(ctx, conf)
		if err != nil {
			return fmt.Errorf("failed to open seed port %s: %w", conf.Port, err)
		}
	}

	reader := vedirect.NewReader(placeholder, conf, entry)
	controller := vedirect.NewController(reader, ivtransport.SerialOpener{}, ivtransport.SerialLister{}, conf, spec, entry)

	found, err := controller.WaitOrSearch(ctx, discoverTimeout, discoverRetry)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("no port matched the identity spec within %s", discoverTimeout)
	}

	fmt.Println("matched a port satisfying the identity spec")
	return nil
}
