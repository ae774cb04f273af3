// Package wav resamples the synthesizer's native 1,048,576 Hz float
// stream down to a playable 48,000 Hz 8-bit PCM WAV file.
package wav

import (
	"bytes"
	"encoding/binary"
)

// SourceRate is the sample rate the channel/mixer packages produce.
const SourceRate = 1048576

// OutputRate is the sample rate written to the WAV file.
const OutputRate = 48000

// headerSize is the fixed length of a canonical 8-bit-PCM RIFF/WAVE
// header with no extra chunks.
const headerSize = 44

// Resample linearly interpolates src (at SourceRate) down to
// OutputRate: each output sample is a weighted mix of the two source
// samples around its fractional position. The output has
// len(src)*OutputRate/SourceRate samples, truncated.
func Resample(src []float32) []float32 {
	if len(src) == 0 {
		return nil
	}
	ratio := float64(SourceRate) / float64(OutputRate)
	outLen := int(float64(len(src)) / ratio)
	out := make([]float32, outLen)

	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		frac := pos - float64(idx)
		if idx+1 < len(src) {
			out[i] = src[idx]*float32(1-frac) + src[idx+1]*float32(frac)
		} else {
			out[i] = src[idx]
		}
	}
	return out
}

// quantize converts a sample in [-1, 1] to unsigned 8-bit PCM, the
// same truncating f32*127+128 conversion the reference encoder uses.
func quantize(s float32) uint8 {
	v := s*127 + 128
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	return uint8(v)
}

// Encode resamples src to OutputRate, quantizes it to 8-bit unsigned
// PCM, and wraps it in a mono RIFF/WAVE header.
func Encode(src []float32) []byte {
	samples := Resample(src)
	pcm := make([]byte, len(samples))
	for i, s := range samples {
		pcm[i] = quantize(s)
	}

	dataSize := uint32(len(pcm))
	riffSize := dataSize + headerSize - 8

	buf := new(bytes.Buffer)
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, riffSize)
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16)) // fmt chunk size
	binary.Write(buf, binary.LittleEndian, uint16(1))  // PCM
	binary.Write(buf, binary.LittleEndian, uint16(1))  // mono
	binary.Write(buf, binary.LittleEndian, uint32(OutputRate))
	binary.Write(buf, binary.LittleEndian, uint32(OutputRate)) // byte rate, 1 byte/sample mono
	binary.Write(buf, binary.LittleEndian, uint16(1))          // block align
	binary.Write(buf, binary.LittleEndian, uint16(8))          // bits per sample

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, dataSize)
	buf.Write(pcm)

	return buf.Bytes()
}
