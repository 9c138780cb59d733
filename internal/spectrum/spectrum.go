// Package spectrum implements C4a: a Goertzel-bank log-magnitude
// spectrogram over a logarithmically spaced frequency grid.
package spectrum

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	minFreqHz           = 40.0
	maxFreqCeilingHz    = 5000.0
	degenerateMaxFreqHz = 100.0

	minWindowSize = 256
	maxWindowSize = 2048
)

// Frame is one analysis frame: a timestamp and band_count quantized
// log-magnitude bytes.
type Frame struct {
	PosMs int32
	Bands []byte
}

// Analyze runs the Goertzel bank over mono at monoRate, producing up to
// maxFrames frames of bandCount bytes each, hopped every hopMs
// milliseconds.
func Analyze(mono []float32, monoRate, hopMs, bandCount, maxFrames int) ([]Frame, error) {
	if monoRate <= 0 || len(mono) == 0 {
		return nil, fmt.Errorf("spectrum: no audio to analyze")
	}

	hopSamples := maxInt(1, roundInt(float64(monoRate)*float64(hopMs)/1000))
	windowSize := clampInt(nextPow2(hopSamples*2), minWindowSize, maxWindowSize)

	coeffs := goertzelCoefficients(bandCount, monoRate, windowSize)
	window := hannWindow(windowSize)

	frameCount := minInt(maxFrames, ceilDiv(len(mono), hopSamples))
	if frameCount <= 0 {
		return nil, fmt.Errorf("spectrum: degenerate configuration yields zero frames")
	}

	magnitudes := make([][]float64, frameCount)
	posMs := make([]int32, frameCount)
	allMags := make([]float64, 0, frameCount*bandCount)

	windowed := make([]float64, windowSize)
	for f := 0; f < frameCount; f++ {
		start := f * hopSamples
		posMs[f] = int32(start * 1000 / monoRate)

		for i := 0; i < windowSize; i++ {
			var s float32
			if start+i < len(mono) {
				s = mono[start+i]
			}
			windowed[i] = float64(s) * window[i]
		}

		row := make([]float64, bandCount)
		for b, coeff := range coeffs {
			row[b] = goertzelMagnitude(windowed, coeff)
		}
		magnitudes[f] = row
		allMags = append(allMags, row...)
	}

	maxMag := 0.0
	if len(allMags) > 0 {
		maxMag = floats.Max(allMags)
	}
	if maxMag <= 0 {
		maxMag = 1.0
	}

	frames := make([]Frame, frameCount)
	for f := 0; f < frameCount; f++ {
		bands := make([]byte, bandCount)
		for b, mag := range magnitudes[f] {
			normalized := mag / maxMag
			curved := math.Sqrt(clamp01(normalized))
			bands[b] = quantizeByte(curved * 255)
		}
		frames[f] = Frame{PosMs: posMs[f], Bands: bands}
	}

	return frames, nil
}

// goertzelCoefficients builds the per-band recurrence coefficient
// 2*cos(2*pi*k/N) for a logarithmically spaced frequency grid, or a
// single DC-equivalent coefficient when bandCount == 1.
func goertzelCoefficients(bandCount, monoRate, windowSize int) []float64 {
	if bandCount == 1 {
		return []float64{2 * math.Cos(0)}
	}

	maxFreq := math.Min(maxFreqCeilingHz, float64(monoRate)/2-1)
	if maxFreq < minFreqHz {
		maxFreq = degenerateMaxFreqHz
	}

	ratio := math.Pow(maxFreq/minFreqHz, 1.0/float64(bandCount-1))

	coeffs := make([]float64, bandCount)
	for b := 0; b < bandCount; b++ {
		freq := minFreqHz * math.Pow(ratio, float64(b))
		k := roundInt(float64(windowSize) * freq / float64(monoRate))
		coeffs[b] = 2 * math.Cos(2*math.Pi*float64(k)/float64(windowSize))
	}
	return coeffs
}

// goertzelMagnitude runs the Goertzel recurrence over a windowed frame
// for a single band coefficient and returns its log-magnitude.
func goertzelMagnitude(windowed []float64, coeff float64) float64 {
	var s1, s2 float64
	for _, x := range windowed {
		s := x + coeff*s1 - s2
		s2 = s1
		s1 = s
	}
	power := s2*s2 + s1*s1 - coeff*s1*s2
	if power < 0 {
		power = 0
	}
	return math.Log1p(power)
}

func hannWindow(size int) []float64 {
	w := make([]float64, size)
	if size <= 1 {
		if size == 1 {
			w[0] = 1
		}
		return w
	}
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(size-1))
	}
	return w
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func quantizeByte(v float64) byte {
	r := roundInt(v)
	if r < 0 {
		return 0
	}
	if r > 255 {
		return 255
	}
	return byte(r)
}

func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func roundInt(v float64) int {
	return int(math.Round(v))
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
