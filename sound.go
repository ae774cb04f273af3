// Package crydx synthesizes PCM audio from a Gen 1 Pokémon cartridge's
// cry/SFX byte-code data: a ROM image plus a (bank, addr, pitch,
// length) tuple identifying one cry goes in, a lazily-produced stream
// of mixed audio frames comes out.
package crydx

import (
	"crydx/internal/channel"
	"crydx/internal/debug"
	"crydx/internal/header"
	"crydx/internal/mixer"
	"crydx/internal/rom"
	"crydx/internal/wav"
)

// Sound is a synthesized cry: a ready-to-pull mixer over its decoded
// channels, plus enough of the original construction parameters to
// rebuild a fresh, disposable set of channels for TotalDuration's
// probe without disturbing the ones driving Next/Render.
type Sound struct {
	mixer *mixer.Mixer
	log   *debug.Logger

	view   rom.View
	bank   uint8
	addr   uint16
	pitch  int8
	length uint8
}

// Synthesize builds a Sound from the channel table at (bank, addr),
// biasing every channel by the cry's pitch and length the way the
// original cry-playing routine does before handing control to the
// sound engine.
func Synthesize(data []uint8, bank uint8, addr uint16, pitch int8, length uint8) (*Sound, error) {
	return SynthesizeWithLogger(data, bank, addr, pitch, length, nil)
}

// SynthesizeWithLogger is Synthesize with an optional debug.Logger; a
// nil logger disables logging entirely.
func SynthesizeWithLogger(data []uint8, bank uint8, addr uint16, pitch int8, length uint8, log *debug.Logger) (*Sound, error) {
	view := rom.NewView(data)

	if log != nil {
		log.LogHeader(debug.LevelInfo, "parsing channel table at bank %02x addr %04x", bank, addr)
	}
	channels, err := header.Parse(view, bank, addr)
	if err != nil {
		if log != nil {
			log.LogHeader(debug.LevelError, "parse failed: %v", err)
		}
		return nil, err
	}

	applyCryParams(channels, pitch, length)

	return &Sound{
		mixer:  mixer.New(channels),
		log:    log,
		view:   view,
		bank:   bank,
		addr:   addr,
		pitch:  pitch,
		length: length,
	}, nil
}

// applyCryParams biases a freshly parsed channel table the way a
// cry's (pitch, length) arguments bias the underlying SFX engine. The
// noise channel is always driven with a neutral length of 0x100,
// never the cry's own length — this is what makes the mixer's
// noise-pitch-reset quirk (applyNoisePitchQuirk) line up with the
// pulse channels' fade-out instead of racing ahead of it.
func applyCryParams(channels []*channel.Iterator, pitch int8, length uint8) {
	promotedLength := uint16(length) + 0x80
	for _, ch := range channels {
		if ch.IsNoise() {
			ch.SetCryParams(pitch, 0x100)
		} else {
			ch.SetCryParams(pitch, promotedLength)
		}
	}
}

// Channels reports the number of audio channels in the synthesized
// stream. The mixer always produces a single summed mono stream,
// regardless of how many hardware channels fed into it.
func (s *Sound) Channels() int {
	return 1
}

// SampleRate reports the native sample rate of the synthesized
// stream: the Game Boy APU's own rate, before any resampling.
func (s *Sound) SampleRate() int {
	return wav.SourceRate
}

// Next pulls one mixed frame of channel.FrameSamples samples. ok is
// false once every channel has terminated.
func (s *Sound) Next() ([]float32, bool) {
	frame, ok := s.mixer.Next()
	if !ok && s.log != nil {
		s.log.LogMixer(debug.LevelInfo, "mixer exhausted")
	}
	return frame, ok
}

// TotalDuration reports the sound's total sample count and whether
// that count is finite. An infinite sound (a zero-count loop) reports
// (0, false); the probe stops as soon as a channel reaches such a
// loop, and none of its frames reach the caller. The probe runs over a
// freshly rebuilt set of channels, never the ones driving Next/Render,
// so calling TotalDuration never consumes playback state.
func (s *Sound) TotalDuration() (int, bool) {
	channels, err := header.Parse(s.view, s.bank, s.addr)
	if err != nil {
		return 0, false
	}
	applyCryParams(channels, s.pitch, s.length)

	frames, finite := mixer.Count(channels)
	if !finite {
		return 0, false
	}
	return frames * channel.FrameSamples, true
}

// Render pulls every frame up to maxFrames and concatenates them into
// a single sample buffer, for callers (like WAV export) that need the
// whole waveform at once. It stops early if the sound terminates
// first.
func (s *Sound) Render(maxFrames int) []float32 {
	out := make([]float32, 0, maxFrames*channel.FrameSamples)
	for i := 0; i < maxFrames; i++ {
		frame, ok := s.Next()
		if !ok {
			break
		}
		out = append(out, frame...)
	}
	return out
}

// EncodeWAV renders up to maxFrames frames and encodes them as an
// 8-bit PCM WAV file at wav.OutputRate.
func (s *Sound) EncodeWAV(maxFrames int) []byte {
	return wav.Encode(s.Render(maxFrames))
}
