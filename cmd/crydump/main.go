// Command crydump renders a Gen 1 cry or SFX to a WAV file.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"crydx"
	"crydx/internal/channel"
	"crydx/internal/debug"
)

// MaxExportDuration bounds how much audio an infinite sound will
// render to, in frames, matching the one-minute cap the reference
// export tool applies when a sound's total duration can't be known in
// advance.
const MaxExportDuration = 60 * 1048576 / channel.FrameSamples

func usage() {
	fmt.Fprintf(os.Stderr, "usage: crydump -rom <path> -at <bank:addr> [-pitch N] [-length N] -out <file.wav>\n")
	flag.PrintDefaults()
}

func parseBankAddr(s string) (uint8, uint16, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected bank:addr, got %q", s)
	}
	bank, err := strconv.ParseUint(parts[0], 16, 8)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid bank %q: %w", parts[0], err)
	}
	addr, err := strconv.ParseUint(parts[1], 16, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid addr %q: %w", parts[1], err)
	}
	return uint8(bank), uint16(addr), nil
}

func main() {
	flag.Usage = usage
	romPath := flag.String("rom", "", "path to the cartridge ROM image")
	at := flag.String("at", "", "bank:addr of the channel table, hex (e.g. 1a:4000)")
	pitch := flag.Int("pitch", 0, "pitch bias, signed byte")
	length := flag.Int("length", 0, "length bias, unsigned byte")
	out := flag.String("out", "", "output WAV path")
	verbose := flag.Bool("log", false, "enable debug logging to stderr on exit")
	flag.Parse()

	if *romPath == "" || *at == "" || *out == "" {
		usage()
		os.Exit(1)
	}

	bank, addr, err := parseBankAddr(*at)
	if err != nil {
		fmt.Fprintf(os.Stderr, "crydump: %v\n", err)
		os.Exit(1)
	}

	data, err := os.ReadFile(*romPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "crydump: reading ROM: %v\n", err)
		os.Exit(1)
	}

	var log *debug.Logger
	if *verbose {
		log = debug.NewLogger()
		defer func() {
			for _, e := range log.GetEntries() {
				fmt.Fprintln(os.Stderr, e)
			}
			log.Shutdown()
		}()
	}

	sound, err := crydx.SynthesizeWithLogger(data, bank, addr, int8(*pitch), uint8(*length), log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "crydump: %v\n", err)
		os.Exit(1)
	}

	maxFrames := MaxExportDuration
	if frames, finite := sound.TotalDuration(); finite {
		maxFrames = frames/channel.FrameSamples + 1
	}

	wavBytes := sound.EncodeWAV(maxFrames)
	if err := os.WriteFile(*out, wavBytes, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "crydump: writing %s: %v\n", *out, err)
		os.Exit(1)
	}
}
