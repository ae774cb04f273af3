// Package channel turns one channel's byte-code command stream into a
// sequence of audio frames. Each Iterator owns exactly one channel's
// state; it decodes commands lazily, one playable note at a time, and
// never materializes more audio than the caller asks for by calling
// Next.
package channel

import (
	"math/bits"

	"crydx/internal/command"
	"crydx/internal/rom"
)

// FrameSamples is the number of samples produced by one call to Next.
// It is the Game Boy's native sample rate (1,048,576 Hz) divided by
// its ~59.7 Hz frame rate, and is also the cadence at which the
// volume-fade and pitch-sweep clocks advance.
const FrameSamples = 17556

// sourceSampleRate is the hardware's native PCM output rate.
const sourceSampleRate = 1048576

// Tristate is a tri-valued answer to "is this channel's note stream
// infinite?". It starts Unknown and is resolved the first time the
// channel either returns or revisits a zero-count loop target.
type Tristate int

const (
	Unknown Tristate = iota
	Yes
	No
)

// Iterator produces audio frames for a single channel. Zero value is
// not usable; build with New.
type Iterator struct {
	rom  rom.View
	kind command.ChannelKind

	bank uint8
	addr uint16

	loopCounter uint8

	noteDelay         uint32
	noteDelayFraction uint8

	duty uint8

	volume          uint8
	volumeFade      int8
	volumeFadeDelay uint8

	freq uint16

	pitchSweepChange int8
	pitchSweepDelay  uint8
	pitchSweepPeriod uint8

	noiseParams uint8
	noiseBuffer uint16

	periodCount float64

	isDone     bool
	isInfinite Tristate

	cryPitch  int8
	cryLength uint16
}

// New starts an iterator at (bank, addr) decoding as kind. The cry's
// (pitch, length) bias defaults to zero; call SetCryParams before the
// first Next if the caller has real values (the façade always does).
func New(view rom.View, bank uint8, addr uint16, kind command.ChannelKind) *Iterator {
	return &Iterator{
		rom:         view,
		kind:        kind,
		bank:        bank,
		addr:        addr,
		loopCounter: 1,
		noiseBuffer: 0x7fff,
	}
}

// IsDone reports whether the channel has terminated (hit Return).
func (it *Iterator) IsDone() bool {
	return it.isDone
}

// IsInfinite reports whether this channel's command stream is known to
// loop forever. It is Unknown until a loop or return is actually
// encountered during iteration.
func (it *Iterator) IsInfinite() Tristate {
	return it.isInfinite
}

// OnlyFadeoutLeft reports whether the channel has already hit Return:
// nothing further can happen to it but its trailing envelope decaying
// to silence. The mixer uses this to decide whether a sibling noise
// channel should have its pitch bias cleared.
func (it *Iterator) OnlyFadeoutLeft() bool {
	return it.isDone
}

// Kind reports the channel's current decoded kind (post-ExecuteMusic
// demotion, if any occurred).
func (it *Iterator) Kind() command.ChannelKind {
	return it.kind
}

// IsNoise reports whether this channel renders through the LFSR noise
// path rather than the pulse path.
func (it *Iterator) IsNoise() bool {
	return it.kind.ToMusic() == command.MusicNoise
}

// SetCryParams biases this channel the way a cry's (pitch, length)
// arguments bias the underlying SFX engine: pitch offsets every pulse
// frequency and every noise parameter byte, and length sets the fixed
// scale every note's duration is computed against. length is the
// caller's promoted value (façade adds 0x80 before handing it down,
// and passes a fixed 0x100 to the noise channel instead).
func (it *Iterator) SetCryParams(pitch int8, length uint16) {
	it.cryPitch = pitch
	it.cryLength = length
}

// ResetPitch clears the pitch bias. The mixer calls this on a noise
// channel once its sibling pulse channels have nothing left to do but
// fade out, matching a documented quirk in the original sound engine:
// the noise channel's final portion ignores the cry's pitch bias.
func (it *Iterator) ResetPitch() {
	it.cryPitch = 0
}

// Next produces one frame of FrameSamples samples, advancing the
// command stream as needed. It returns ok=false once the channel has
// terminated and its volume has decayed to silence.
func (it *Iterator) Next() ([]float32, bool) {
	for {
		if it.noteDelay > 0 || it.isDone {
			if it.isDone && it.volume == 0 {
				return nil, false
			}

			frame := make([]float32, FrameSamples)
			if it.IsNoise() {
				it.renderNoise(frame)
			} else {
				it.renderPulse(frame)
			}

			if it.noteDelay > 0 {
				it.noteDelay--
			}
			it.advanceEnvelope()
			it.advancePitchSweep()
			return frame, true
		}

		data := it.rom.Slice(it.bank, it.addr)
		if len(data) == 0 {
			it.isDone = true
			it.isInfinite = No
			continue
		}
		cmd, err := command.Decode(data, it.bank, it.addr, it.kind)
		if err != nil {
			it.isDone = true
			it.isInfinite = No
			continue
		}

		switch cmd.Op {
		case command.OpReturn:
			it.isDone = true
			it.isInfinite = No
			continue

		case command.OpExecuteMusic:
			it.kind = it.kind.ToMusic()

		case command.OpDutyCycle:
			a := cmd.DutyA & 0x3
			it.duty = a<<6 | a<<4 | a<<2 | a

		case command.OpDutyCyclePattern:
			it.duty = cmd.DutyA<<6 | cmd.DutyB<<4 | cmd.DutyC<<2 | cmd.DutyD

		case command.OpPitchSweep:
			it.pitchSweepChange = cmd.Change
			it.pitchSweepDelay = cmd.Delay
			it.pitchSweepPeriod = cmd.Delay

		case command.OpLoop:
			if cmd.LoopCount == 0 {
				it.addr = cmd.Target
				it.isInfinite = Yes
				continue
			}
			if it.loopCounter < cmd.LoopCount {
				it.loopCounter++
				it.addr = cmd.Target
				continue
			}

		case command.OpSquareNote:
			it.applyNoteTiming(cmd.Length)
			it.volume = cmd.Volume
			it.volumeFade = cmd.Fade
			it.volumeFadeDelay = uint8(cmd.Fade) & 0x7
			it.freq = cmd.Freq

		case command.OpNoiseNote:
			it.applyNoteTiming(cmd.Length)
			it.volume = cmd.Volume
			it.volumeFade = cmd.Fade
			it.volumeFadeDelay = uint8(cmd.Fade) & 0x7
			it.noiseParams = cmd.NoiseValue + uint8(it.cryPitch)
			it.noiseBuffer = 0x7fff

		case command.OpNote, command.OpDrumNote, command.OpRest:
			// Note/Rest/DrumNote carry a length nibble but no
			// volume/freq payload of their own; a full music-channel
			// renderer would track the last NoteType/Octave state to
			// turn these into pitched output. Cry/SFX playback, this
			// repo's scope, never exercises them (the SFX decoder
			// tables only emit SquareNote/NoiseNote), so only their
			// timing contribution is modeled.
			it.applyNoteTiming(cmd.Length)

		case command.OpNoteType:
			it.volume = cmd.Volume
			it.volumeFade = cmd.Fade
			it.volumeFadeDelay = uint8(cmd.Fade) & 0x7

		case command.OpSoundCall:
			it.addr = cmd.Target
			continue

		default:
			// Octave, TogglePerfectPitch, Vibrato, PitchSlide, Tempo,
			// Volume, DrumSpeed: decoded so the command stream's byte
			// length stays accurate, but they only matter to a music
			// channel renderer, which is out of scope here (see
			// DESIGN.md).
		}

		it.addr += cmd.Len
	}
}

// applyNoteTiming converts a 4-bit note length plus the iterator's
// fixed cry-length scale into a whole number of frames, carrying the
// 8-bit fractional remainder forward so the scale's fractional part
// averages out correctly across many notes instead of drifting.
func (it *Iterator) applyNoteTiming(length uint8) {
	subframes := uint32(it.cryLength)*uint32(length+1) + uint32(it.noteDelayFraction)
	it.noteDelay = subframes >> 8
	it.noteDelayFraction = uint8(subframes & 0xff)
}

// advanceEnvelope runs the volume-fade clock once per frame. A delay
// of 0 disables fading entirely.
func (it *Iterator) advanceEnvelope() {
	switch it.volumeFadeDelay {
	case 0:
		return
	case 1:
		it.volumeFadeDelay = uint8(it.volumeFade) & 0x7
		if it.volumeFade < 0 && it.volume < 15 {
			it.volume++
		} else if it.volumeFade > 0 && it.volume > 0 {
			it.volume--
		}
	default:
		it.volumeFadeDelay--
	}
}

// advancePitchSweep runs the pitch-sweep clock once per frame. A delay
// of 0 disables sweeping entirely.
func (it *Iterator) advancePitchSweep() {
	switch it.pitchSweepDelay {
	case 0:
		return
	case 1:
		it.pitchSweepDelay = it.pitchSweepPeriod
		offset := it.freq >> absI8(it.pitchSweepChange)
		if it.pitchSweepChange < 0 {
			it.freq -= offset
		} else {
			it.freq += offset
		}
	default:
		it.pitchSweepDelay--
	}
}

func absI8(v int8) uint8 {
	if v < 0 {
		return uint8(-v)
	}
	return uint8(v)
}

// calcDuty reports whether the square wave is in its "high" portion at
// the given phase, per the hardware's four duty-cycle patterns: high
// for 12.5%, 25% and 37.5% of the period, and pattern 3 is the
// complement of pattern 2 (high for 62.5%).
func calcDuty(duty uint8, periodCount float64) bool {
	switch duty {
	case 0:
		return periodCount >= 0.5 && periodCount < 0.625
	case 1:
		return periodCount >= 0.5 && periodCount < 0.75
	case 2:
		return periodCount >= 0.5 && periodCount < 0.875
	default:
		return !(periodCount >= 0.5 && periodCount < 0.875)
	}
}

// sampleValue converts a binary oscillator state and a 0..15 volume
// into the engine's characteristic sample range.
func sampleValue(high bool, volume uint8) float32 {
	bin := 0
	if high {
		bin = 1
	}
	return float32(2*bin-1) * (-float32(volume) / 16.0)
}

// renderPulse fills frame with a duty-cycle square wave at the
// channel's current frequency, biased by the cry's pitch. freq and
// pitch combine the same way the hardware's frequency-sweep register
// does: added then masked to 11 bits, wrapping rather than clamping.
func (it *Iterator) renderPulse(frame []float32) {
	effFreq := (int(it.freq) + int(uint8(it.cryPitch))) & 0x7ff
	period := sourceSampleRate * (2048 - effFreq) / 131072
	if period <= 0 {
		period = 1
	}

	dutyBits := it.duty & 0x3
	for i := range frame {
		enabled := calcDuty(dutyBits, it.periodCount)
		frame[i] = sampleValue(enabled, it.volume)

		it.periodCount += 1.0 / float64(period)
		if it.periodCount >= 1.0 {
			it.periodCount -= 1.0
		}
	}

	it.duty = bits.RotateLeft8(it.duty, 2)
}

// renderNoise steps a 15-bit (or, in narrow mode, 7-bit) LFSR at the
// cadence encoded in noiseParams: low 3 bits are a divisor code, next
// bit selects narrow feedback, top nibble a shift amount. The step
// cadence restarts every frame, matching the reference engine's own
// per-frame sample indexing.
func (it *Iterator) renderNoise(frame []float32) {
	shift := it.noiseParams >> 4
	if shift > 0xd {
		shift &= 0xd
	}
	divider := it.noiseParams & 0x7
	width := it.noiseParams&0x8 != 0

	dividerF := 0.5
	if divider != 0 {
		dividerF = float64(divider)
	}
	step := int(2.0 * dividerF * float64(int(1)<<(shift+1)))
	if step <= 0 {
		step = 1
	}

	for index := range frame {
		bit0 := it.noiseBuffer & 1
		frame[index] = sampleValue(1^bit0 == 1, it.volume)

		if index%step == 0 {
			bit1 := (it.noiseBuffer >> 1) & 1
			feedback := bit0 ^ bit1
			shifted := (it.noiseBuffer >> 1) | (feedback << 14)
			it.noiseBuffer = shifted
			if width {
				it.noiseBuffer = (shifted >> 1) | (feedback << 6)
			}
		}
	}
}
