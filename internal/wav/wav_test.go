package wav

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestEncodeHeaderFields(t *testing.T) {
	src := make([]float32, SourceRate) // 1 second
	out := Encode(src)

	assert.Equal(t, "RIFF", string(out[0:4]))
	assert.Equal(t, "WAVE", string(out[8:12]))
	assert.Equal(t, "fmt ", string(out[12:16]))
	assert.Equal(t, "data", string(out[36:40]))
	assert.InDelta(t, headerSize+OutputRate, len(out), 2)
}

func TestQuantizeRangeClamped(t *testing.T) {
	assert.EqualValues(t, 255, quantize(10))
	assert.EqualValues(t, 0, quantize(-10))
	assert.EqualValues(t, 128, quantize(0))
}

func TestResampleShortensByRatio(t *testing.T) {
	src := make([]float32, SourceRate)
	out := Resample(src)
	assert.InDelta(t, OutputRate, len(out), 2)
}

func TestQuantizeAlwaysInByteRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.Float32Range(-5, 5).Draw(t, "s")
		q := quantize(s)
		assert.True(t, q >= 0 && q <= 255)
	})
}
