package audio

import "encoding/binary"

// Float32ToPCM16 converts floating point samples in [-1, 1] to 16-bit signed
// PCM. The scale factor differs for negative and positive samples so the full
// int16 range is used: -1.0 maps to -32768 and +1.0 to 32767. Out-of-range
// input is clamped first.
func Float32ToPCM16(samples []float32) []int16 {
	pcm := make([]int16, len(samples))
	for i, s := range samples {
		if s < -1 {
			s = -1
		} else if s > 1 {
			s = 1
		}
		if s < 0 {
			pcm[i] = int16(s * 0x8000)
		} else {
			pcm[i] = int16(s * 0x7FFF)
		}
	}
	return pcm
}

// PCM16Bytes serializes samples as little-endian, the layout the capture
// devices and the wire protocol both use.
func PCM16Bytes(samples []int16) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	return data
}

// ParsePCM16 reads little-endian 16-bit samples. A trailing odd byte is
// dropped.
func ParsePCM16(data []byte) []int16 {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return samples
}

// Resample converts samples between rates using linear interpolation. Used by
// the buffered capture path whose device rate may not match the wire
// protocol's 16kHz requirement.
func Resample(samples []int16, fromRate, toRate int) []int16 {
	if fromRate == toRate || len(samples) == 0 {
		out := make([]int16, len(samples))
		copy(out, samples)
		return out
	}

	ratio := float64(fromRate) / float64(toRate)
	outLen := int(float64(len(samples))/ratio + 0.5)
	out := make([]int16, outLen)
	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		frac := pos - float64(idx)

		if idx+1 < len(samples) {
			out[i] = int16(float64(samples[idx])*(1-frac) + float64(samples[idx+1])*frac)
		} else if idx < len(samples) {
			out[i] = samples[idx]
		}
	}
	return out
}
