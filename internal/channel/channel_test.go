package channel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"crydx/internal/command"
	"crydx/internal/rom"
)

// buildROM pads data out to a full bank so bank:addr offsets resolve.
func buildROM(data []uint8) rom.View {
	buf := make([]uint8, rom.BankSize*2)
	copy(buf, data)
	return rom.NewView(buf)
}

func TestIteratorSinglePulseNoteThenReturn(t *testing.T) {
	// SquareNote(len=0, volume=1, fade=+1, freq=0x0400), Return. The
	// fade decrements volume to 0 during the note's own last frame, so
	// the channel reports done with no further fade-out frame owed.
	data := []uint8{0x20, 0x11, 0x00, 0x04, 0xff}
	view := buildROM(data)
	it := New(view, 0, 0, command.SfxPulse)
	it.SetCryParams(0, 0x180)

	frame, ok := it.Next()
	assert.True(t, ok)
	assert.Len(t, frame, FrameSamples)
	for _, s := range frame {
		assert.True(t, s == 0.0625 || s == -0.0625)
	}
	assert.Equal(t, uint8(0), it.volume)

	_, ok = it.Next()
	assert.False(t, ok)
	assert.True(t, it.IsDone())
	assert.Equal(t, No, it.IsInfinite())
}

func TestIteratorZeroCountLoopIsInfinite(t *testing.T) {
	// addr0: Rest(len=1); addr1: Loop(count=0, target=0).
	data := []uint8{0xc1, 0xfe, 0x00, 0x00, 0x00}
	view := buildROM(data)
	it := New(view, 0, 0, command.MusicPulse)
	it.SetCryParams(0, 0x180)

	for i := 0; i < 5; i++ {
		_, ok := it.Next()
		assert.True(t, ok)
	}
	assert.Equal(t, Yes, it.IsInfinite())
	assert.False(t, it.IsDone())
}

func TestIteratorUnknownOpcodeTerminates(t *testing.T) {
	data := []uint8{0xe9}
	view := buildROM(data)
	it := New(view, 0, 0, command.MusicPulse)

	_, ok := it.Next()
	assert.False(t, ok)
	assert.True(t, it.IsDone())
}

func TestNoiseVolumeAlwaysInRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		// NoiseNote(len=3, volume=vol, fade=fade, params=0x55), Return;
		// the volume envelope keeps running through the fade-out frames.
		vol := rapid.IntRange(0, 15).Draw(t, "vol")
		fade := rapid.IntRange(0, 15).Draw(t, "fade")
		data := []uint8{0x23, uint8(vol<<4 | fade), 0x55, 0xff}
		it := New(buildROM(data), 0, 0, command.SfxNoise)
		it.SetCryParams(0, 0x100)
		for i := 0; i < 32; i++ {
			if _, ok := it.Next(); !ok {
				break
			}
			assert.True(t, it.volume <= 15)
		}
	})
}

func TestOnlyFadeoutLeft(t *testing.T) {
	it := &Iterator{isDone: false}
	assert.False(t, it.OnlyFadeoutLeft())

	it2 := &Iterator{isDone: true}
	assert.True(t, it2.OnlyFadeoutLeft())
}

func TestPeriodCountStaysInUnitRange(t *testing.T) {
	data := []uint8{0x20, 0xf0, 0x00, 0x04, 0xc1, 0xff}
	view := buildROM(data)
	it := New(view, 0, 0, command.SfxPulse)
	it.SetCryParams(0, 0x180)
	for i := 0; i < 3; i++ {
		if _, ok := it.Next(); !ok {
			break
		}
		assert.True(t, it.periodCount >= 0 && it.periodCount < 1)
	}
}

func TestSignedMagnitudeFadeDelayQuirk(t *testing.T) {
	// Negative (increasing-volume) fades derive their frame delay by
	// masking the two's-complement byte, not the decoded magnitude —
	// a faithfully reproduced hardware quirk, not a bug: fade -1 (sign
	// bit set, magnitude 1) yields a delay of 7, not 1.
	data := []uint8{0x20, 0x09, 0x00, 0x04, 0xff} // volume=0, fade=-1 (0x9 = 0b1001)
	view := buildROM(data)
	it := New(view, 0, 0, command.SfxPulse)
	it.SetCryParams(0, 0x180)

	_, ok := it.Next()
	assert.True(t, ok)
	// The command decode sets the delay to 7; the frame just rendered
	// already ticked the clock once, so it reads back as 6.
	assert.Equal(t, uint8(6), it.volumeFadeDelay)
}
