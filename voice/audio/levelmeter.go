package audio

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// LevelMeter derives a 0-100 amplitude estimate from the frequency content of
// each capture chunk. The value is advisory, for waveform UIs only.
type LevelMeter struct {
	fft *fourier.FFT
	in  []float64
}

func NewLevelMeter(chunkFrames int) *LevelMeter {
	return &LevelMeter{
		fft: fourier.NewFFT(chunkFrames),
		in:  make([]float64, chunkFrames),
	}
}

// Level computes the mean spectral magnitude of the chunk, normalized to
// 0-100. Chunks shorter than the configured size are zero padded, longer ones
// truncated.
func (m *LevelMeter) Level(samples []int16) int {
	for i := range m.in {
		if i < len(samples) {
			m.in[i] = float64(samples[i]) / 0x8000
		} else {
			m.in[i] = 0
		}
	}

	coeffs := m.fft.Coefficients(nil, m.in)
	if len(coeffs) == 0 {
		return 0
	}

	var sum float64
	for _, c := range coeffs {
		re := real(c)
		im := imag(c)
		sum += math.Sqrt(re*re + im*im)
	}
	// Mean per-bin magnitude, relative to a full-scale chunk.
	mean := sum / float64(len(coeffs)) / (float64(len(m.in)) / 2)

	level := int(mean * 100 * levelGain)
	if level > 100 {
		level = 100
	}
	if level < 0 {
		level = 0
	}
	return level
}

// levelGain scales typical speech energy into the visible range; full-scale
// noise saturates at 100.
const levelGain = 40
