// Package mixer combines up to four channel.Iterators into a single
// audio stream, one frame at a time.
package mixer

import (
	"crydx/internal/channel"
)

// Mixer lazily sums frames from its channels. It never normalizes by
// the number of currently-active channels: each active channel
// contributes at a fixed 1/3 weight, matching the original engine's
// mixing behavior (and its occasional clipping).
type Mixer struct {
	channels []*channel.Iterator
	done     []bool
}

// New builds a Mixer over the given channels, in header order.
func New(channels []*channel.Iterator) *Mixer {
	return &Mixer{
		channels: channels,
		done:     make([]bool, len(channels)),
	}
}

// mixWeight is applied to every active channel's frame, regardless of
// how many channels are currently active.
const mixWeight = 1.0 / 3.0

// Next produces one mixed frame, or ok=false once every channel has
// terminated.
func (m *Mixer) Next() ([]float32, bool) {
	m.applyNoisePitchQuirk()

	frames := make([][]float32, len(m.channels))
	anyActive := false
	for i, ch := range m.channels {
		if m.done[i] {
			continue
		}
		f, ok := ch.Next()
		if !ok {
			m.done[i] = true
			continue
		}
		frames[i] = f
		anyActive = true
	}
	if !anyActive {
		return nil, false
	}

	out := make([]float32, channel.FrameSamples)
	for _, f := range frames {
		if f == nil {
			continue
		}
		for i, s := range f {
			out[i] += s * mixWeight
		}
	}
	return out, true
}

// applyNoisePitchQuirk clears every noise channel's pitch bias (via
// ResetPitch) whenever every pulse channel sharing this mixer has
// nothing left to do but fade out. The LFSR state is left as it is; only
// the trailing part of the noise stops following the cry's pitch.
func (m *Mixer) applyNoisePitchQuirk() {
	allPulsesFading := true
	havePulse := false
	var noiseChannels []*channel.Iterator

	for i, ch := range m.channels {
		if m.done[i] {
			continue
		}
		switch {
		case ch.IsNoise():
			noiseChannels = append(noiseChannels, ch)
		default:
			havePulse = true
			if !ch.OnlyFadeoutLeft() {
				allPulsesFading = false
			}
		}
	}

	if havePulse && allPulsesFading {
		for _, ch := range noiseChannels {
			ch.ResetPitch()
		}
	}
}

// Count runs the mixer to completion purely to measure its total
// frame count, short-circuiting the moment any channel is known to be
// infinite. It returns (frames, true) when finite, or (0, false) when
// the stream is infinite.
func Count(channels []*channel.Iterator) (int, bool) {
	for _, ch := range channels {
		if ch.IsInfinite() == channel.Yes {
			return 0, false
		}
	}

	m := New(channels)
	frames := 0
	for {
		if _, ok := m.Next(); !ok {
			return frames, true
		}
		frames++
		for _, ch := range channels {
			if ch.IsInfinite() == channel.Yes {
				return 0, false
			}
		}
	}
}
