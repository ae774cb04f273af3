// Command crycatalog looks up a named cry in a TOML catalog and
// renders it to a WAV file.
package main

import (
	"flag"
	"fmt"
	"os"

	"crydx"
	"crydx/internal/catalog"
	"crydx/internal/channel"
)

const maxExportFrames = 60 * 1048576 / channel.FrameSamples

func usage() {
	fmt.Fprintf(os.Stderr, "usage: crycatalog -rom <path> -catalog <file.toml> -cry <name> -out <file.wav>\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	romPath := flag.String("rom", "", "path to the cartridge ROM image")
	catalogPath := flag.String("catalog", "", "path to the TOML cry catalog")
	cryName := flag.String("cry", "", "cry name as listed in the catalog")
	out := flag.String("out", "", "output WAV path")
	flag.Parse()

	if *romPath == "" || *catalogPath == "" || *cryName == "" || *out == "" {
		usage()
		os.Exit(1)
	}

	cat, err := catalog.Load(*catalogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "crycatalog: %v\n", err)
		os.Exit(1)
	}

	entry, ok := cat.Lookup(*cryName)
	if !ok {
		fmt.Fprintf(os.Stderr, "crycatalog: no such cry %q in %s\n", *cryName, *catalogPath)
		os.Exit(1)
	}

	data, err := os.ReadFile(*romPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "crycatalog: reading ROM: %v\n", err)
		os.Exit(1)
	}

	sound, err := crydx.Synthesize(data, uint8(entry.Bank), uint16(entry.Addr), entry.Pitch, entry.Length)
	if err != nil {
		fmt.Fprintf(os.Stderr, "crycatalog: synthesizing %q: %v\n", *cryName, err)
		os.Exit(1)
	}

	maxFrames := maxExportFrames
	if frames, finite := sound.TotalDuration(); finite {
		maxFrames = frames/channel.FrameSamples + 1
	}

	if err := os.WriteFile(*out, sound.EncodeWAV(maxFrames), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "crycatalog: writing %s: %v\n", *out, err)
		os.Exit(1)
	}
}
