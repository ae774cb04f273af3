// Command cryplayer plays a Gen 1 cry or SFX live through SDL2 audio.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/veandco/go-sdl2/sdl"

	"crydx"
	"crydx/internal/channel"
	"crydx/internal/wav"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: cryplayer -rom <path> -at <bank:addr> [-pitch N] [-length N]\n")
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

// maxLiveFrames bounds how much of an infinite sound will play before
// the process stops waiting, matching crydump's export guard.
const maxLiveFrames = 60 * 1048576 / channel.FrameSamples

func main() {
	flag.Usage = usage
	romPath := flag.String("rom", "", "path to the cartridge ROM image")
	at := flag.String("at", "", "bank:addr of the channel table, hex (e.g. 1a:4000)")
	pitch := flag.Int("pitch", 0, "pitch bias, signed byte")
	length := flag.Int("length", 0, "length bias, unsigned byte")
	flag.Parse()

	if *romPath == "" || *at == "" {
		usage()
		os.Exit(1)
	}

	bank, addr, err := parseBankAddr(*at)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cryplayer: %v\n", err)
		os.Exit(1)
	}

	data, err := os.ReadFile(*romPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cryplayer: reading ROM: %v\n", err)
		os.Exit(1)
	}

	sound, err := crydx.Synthesize(data, bank, addr, int8(*pitch), uint8(*length))
	if err != nil {
		fmt.Fprintf(os.Stderr, "cryplayer: %v\n", err)
		os.Exit(1)
	}

	if err := sdl.Init(sdl.INIT_AUDIO); err != nil {
		fmt.Fprintf(os.Stderr, "cryplayer: sdl init: %v\n", err)
		os.Exit(1)
	}
	defer sdl.Quit()

	spec := &sdl.AudioSpec{
		Freq:     wav.OutputRate,
		Format:   sdl.AUDIO_F32,
		Channels: 1,
		Samples:  1024,
	}
	deviceID, err := sdl.OpenAudioDevice("", false, spec, nil, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cryplayer: open audio device: %v\n", err)
		os.Exit(1)
	}
	defer sdl.CloseAudioDevice(deviceID)

	samples := wav.Resample(sound.Render(maxLiveFrames))
	pcm := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(pcm[i*4:], math.Float32bits(s))
	}

	sdl.PauseAudioDevice(deviceID, false)
	if err := sdl.QueueAudio(deviceID, pcm); err != nil {
		fmt.Fprintf(os.Stderr, "cryplayer: queue audio: %v\n", err)
		os.Exit(1)
	}

	durationSeconds := float64(len(samples)) / float64(wav.OutputRate)
	time.Sleep(time.Duration(durationSeconds*1000) * time.Millisecond)
}
