// Package waveform implements C4c: a per-hop stereo min/max envelope
// used to draw a waveform glyph without shipping raw PCM.
package waveform

import (
	"fmt"
	"math"
)

// Frame is one waveform-proxy entry: the stereo min/max pair for one
// hop, quantized to int8.
type Frame struct {
	PosMs int32
	LMin  int8
	LMax  int8
	RMin  int8
	RMax  int8
}

// Analyze scans left/right at stereoRate in non-overlapping windows of
// hopMs milliseconds, emitting at most maxFrames frames.
func Analyze(left, right []float32, stereoRate, hopMs, maxFrames int) ([]Frame, error) {
	if stereoRate <= 0 || len(left) == 0 {
		return nil, fmt.Errorf("waveform: no audio to analyze")
	}

	hopFrames := maxInt(1, roundInt(float64(stereoRate)*float64(hopMs)/1000))
	n := len(left)
	frameCount := minInt(maxFrames, ceilDiv(n, hopFrames))
	if frameCount <= 0 {
		return nil, fmt.Errorf("waveform: degenerate configuration yields zero frames")
	}

	frames := make([]Frame, frameCount)
	for f := 0; f < frameCount; f++ {
		start := f * hopFrames
		end := minInt(start+hopFrames, n)

		lmin, lmax := 1.0, -1.0
		rmin, rmax := 1.0, -1.0
		for i := start; i < end; i++ {
			l := float64(left[i])
			r := float64(right[i])
			if l < lmin {
				lmin = l
			}
			if l > lmax {
				lmax = l
			}
			if r < rmin {
				rmin = r
			}
			if r > rmax {
				rmax = r
			}
		}

		frames[f] = Frame{
			PosMs: int32(start * 1000 / stereoRate),
			LMin:  quantizeInt8(lmin),
			LMax:  quantizeInt8(lmax),
			RMin:  quantizeInt8(rmin),
			RMax:  quantizeInt8(rmax),
		}
	}

	return frames, nil
}

func quantizeInt8(v float64) int8 {
	if v < -1 {
		v = -1
	}
	if v > 1 {
		v = 1
	}
	r := int(math.Round(v * 127))
	if r < -127 {
		r = -127
	}
	if r > 127 {
		r = 127
	}
	return int8(r)
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
