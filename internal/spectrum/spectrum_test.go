package spectrum

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sineWave(n int, rate, freqHz int, amplitude float64) []float32 {
	mono := make([]float32, n)
	for i := range mono {
		mono[i] = float32(amplitude * math.Sin(2*math.Pi*float64(freqHz)*float64(i)/float64(rate)))
	}
	return mono
}

func TestAnalyze_SilentInputIsAllZero(t *testing.T) {
	mono := make([]float32, 44100)
	frames, err := Analyze(mono, 44100, 40, 8, 64)
	require.NoError(t, err)
	require.NotEmpty(t, frames)
	for _, f := range frames {
		for _, b := range f.Bands {
			assert.Equal(t, byte(0), b)
		}
	}
}

func TestAnalyze_BandBytesInRange(t *testing.T) {
	mono := sineWave(44100, 44100, 440, 0.8)
	frames, err := Analyze(mono, 44100, 40, 16, 64)
	require.NoError(t, err)
	for _, f := range frames {
		for _, b := range f.Bands {
			assert.GreaterOrEqual(t, b, byte(0))
		}
	}
}

func TestAnalyze_FrameCap(t *testing.T) {
	mono := sineWave(44100*2, 44100, 440, 0.8)
	frames, err := Analyze(mono, 44100, 40, 8, 10)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(frames), 10)
}

func TestAnalyze_MonotonicPositions(t *testing.T) {
	mono := sineWave(44100, 44100, 440, 0.8)
	frames, err := Analyze(mono, 44100, 40, 8, 64)
	require.NoError(t, err)
	for i := 1; i < len(frames); i++ {
		assert.GreaterOrEqual(t, frames[i].PosMs, frames[i-1].PosMs)
	}
}

func TestAnalyze_EmptyInputFails(t *testing.T) {
	_, err := Analyze(nil, 44100, 40, 8, 64)
	assert.Error(t, err)
}

func TestAnalyze_SingleBand(t *testing.T) {
	mono := sineWave(44100, 44100, 440, 0.8)
	frames, err := Analyze(mono, 44100, 40, 1, 10)
	require.NoError(t, err)
	for _, f := range frames {
		assert.Len(t, f.Bands, 1)
	}
}

func TestGoertzelCoefficients_DegenerateNyquistFloors(t *testing.T) {
	// monoRate=100 => maxFreq = min(5000, 100/2-1=49) = 49, which is
	// below minFreqHz(40)? no, 49 > 40 so not degenerate. Use a lower
	// rate to force the degenerate branch.
	coeffs := goertzelCoefficients(4, 60, 256)
	assert.Len(t, coeffs, 4)
}
