// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/vedirect-go/vedirect/pkg/vedirect"
	"github.com/vedirect-go/vedirect/pkg/vesim"
)

// decoderReader drives a Decoder directly off an io.Reader, one byte at a
// time, surfacing io.EOF once the underlying reader is exhausted. It has
// no timeout or error-budget semantics of its own: replay only exercises
// C1, not C2.
type decoderReader struct {
	src     io.Reader
	decoder *vedirect.Decoder
	buf     [1]byte
}

func newVedirectDecoderReader(src io.Reader) *decoderReader {
	return &decoderReader{src: src, decoder: vedirect.NewDecoder()}
}

func (d *decoderReader) next() (*vedirect.Packet, error) {
	for {
		n, err := d.src.Read(d.buf[:])
		if n == 0 && err != nil {
			return nil, err
		}
		if n == 0 {
			continue
		}
		packet, decodeErr := d.decoder.DecodeByte(d.buf[0])
		if decodeErr != nil {
			return nil, decodeErr
		}
		if packet != nil {
			return packet, nil
		}
	}
}

var replayPeriod time.Duration

var replayCmd = &cobra.Command{
	Use:   "replay <dump-file>",
	Short: "Feed a recorded .dump file through the decoder and print its packets",
	Long: `Replay decodes a .dump file (one <key>\t<value> per line, each frame
terminated by a Checksum line) through the byte decoder (C1) only, the
way heliostat's packet_test exercises a decoder against a fixed
connection. Useful for regression-testing the decoder without
hardware.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().DurationVar(&replayPeriod, "period", 0, "pause between frames (0 replays as fast as possible)")
}

func runReplay(cmd *cobra.Command, args []string) error {
	frames, err := vesim.LoadDumpFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to load dump: %w", err)
	}
	if len(frames) == 0 {
		return fmt.Errorf("dump file contains no frames")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pr, pw := io.Pipe()
	sim := vesim.NewSimulator(pw, frames, replayPeriod)
	go func() {
		sim.RunN(ctx, len(frames))
		pw.Close()
	}()

	reader := newVedirectDecoderReader(pr)
	count := 0
	for {
		packet, err := reader.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Printf("[ERROR] %v\n", err)
			continue
		}
		count++
		fmt.Printf("--- packet %d (%d fields) ---\n", count, packet.Len())
		for _, k := range packet.Keys() {
			v, _ := packet.Get(k)
			fmt.Printf("%-16s %s\n", k, v)
		}
	}
	fmt.Printf("\nreplayed %d packet(s) from %d frame(s)\n", count, len(frames))
	return nil
}
