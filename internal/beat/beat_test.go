package beat

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze_SilentInputIsZero(t *testing.T) {
	mono := make([]float32, 44100) // 1s of silence at 44100Hz
	result, err := Analyze(mono, 44100, 40, 1000)
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.BPM)
	for _, f := range result.Frames {
		assert.Equal(t, uint8(0), f.Strength)
		assert.False(t, f.IsBeat)
	}
}

func TestAnalyze_ClickTrackDetectsTempo(t *testing.T) {
	const rate = 44100
	const bpm = 120.0
	interval := int(float64(rate) * 60.0 / bpm)

	mono := make([]float32, rate*10) // 10 seconds
	for start := 0; start < len(mono); start += interval {
		for i := 0; i < 200 && start+i < len(mono); i++ {
			mono[start+i] = 1.0
		}
	}

	result, err := Analyze(mono, rate, 40, 1000)
	require.NoError(t, err)
	assert.InDelta(t, bpm, result.BPM, 10)

	beatCount := 0
	for _, f := range result.Frames {
		if f.IsBeat {
			beatCount++
		}
	}
	assert.Greater(t, beatCount, 0)
}

func TestAnalyze_FrameCap(t *testing.T) {
	mono := make([]float32, 44100*2)
	result, err := Analyze(mono, 44100, 40, 10)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(result.Frames), 10)
}

func TestAnalyze_MonotonicPositions(t *testing.T) {
	mono := make([]float32, 44100)
	for i := range mono {
		mono[i] = float32(math.Sin(float64(i)))
	}
	result, err := Analyze(mono, 44100, 40, 1000)
	require.NoError(t, err)
	for i := 1; i < len(result.Frames); i++ {
		assert.GreaterOrEqual(t, result.Frames[i].PosMs, result.Frames[i-1].PosMs)
	}
}

func TestAnalyze_EmptyInputFails(t *testing.T) {
	_, err := Analyze(nil, 44100, 40, 1000)
	assert.Error(t, err)
}

func TestEstimateTempo_TooFewFrames(t *testing.T) {
	bpm, lag := estimateTempo([]float64{0, 0.1, 0.2}, 25)
	assert.Equal(t, 0.0, bpm)
	assert.Equal(t, 0, lag)
}
