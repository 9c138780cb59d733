// Package beat implements C4b: an RMS-envelope onset detector with
// autocorrelation-based tempo estimation and phase-aligned beat
// flagging.
package beat

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Frame is one beat-timeline entry.
type Frame struct {
	PosMs    int32
	Strength uint8
	IsBeat   bool
}

// Result is the full beat analysis: an estimated tempo plus the
// per-hop strength/flag timeline.
type Result struct {
	BPM    float64
	Frames []Frame
}

const (
	minTempoBPM = 60.0
	maxTempoBPM = 180.0
	minLagCount = 8 // need at least this many envelope points to search tempo
)

// Analyze runs the onset/beat pipeline over mono at monoRate, hopped
// every hopMs milliseconds, emitting at most maxFrames frames.
func Analyze(mono []float32, monoRate, hopMs, maxFrames int) (*Result, error) {
	if monoRate <= 0 || len(mono) == 0 {
		return nil, fmt.Errorf("beat: no audio to analyze")
	}

	hopSamples := maxInt(1, roundInt(float64(monoRate)*float64(hopMs)/1000))
	windowSamples := 2 * hopSamples

	envelope := rmsEnvelope(mono, hopSamples, windowSamples, maxFrames)
	if len(envelope) == 0 {
		return nil, fmt.Errorf("beat: degenerate configuration yields zero frames")
	}

	onset := onsetEnvelope(envelope)
	strength := strengthSeries(onset)

	fps := 1000.0 / float64(hopMs)
	bpm, lag := estimateTempo(onset, fps)

	var phase int
	var threshold float64
	if lag > 0 {
		phase, threshold = alignPhase(strength, lag)
	}

	frames := make([]Frame, len(envelope))
	for i := range envelope {
		isBeat := lag > 0 && i%lag == phase && strength[i] >= threshold
		frames[i] = Frame{
			PosMs:    int32(i * hopMs),
			Strength: quantizeByte(strength[i] * 255),
			IsBeat:   isBeat,
		}
	}

	return &Result{BPM: math.Max(0, bpm), Frames: frames}, nil
}

// rmsEnvelope slides a non-overlapping hop across mono, computing the
// RMS of each windowSamples-wide window until the source is exhausted
// or maxFrames is reached.
func rmsEnvelope(mono []float32, hopSamples, windowSamples, maxFrames int) []float64 {
	n := len(mono)
	envelope := make([]float64, 0, minInt(maxFrames, ceilDiv(n, hopSamples)))

	for start := 0; start < n && len(envelope) < maxFrames; start += hopSamples {
		end := minInt(start+windowSamples, n)
		var sumSq float64
		for _, s := range mono[start:end] {
			v := float64(s)
			sumSq += v * v
		}
		count := end - start
		if count <= 0 {
			break
		}
		envelope = append(envelope, math.Sqrt(sumSq/float64(count)))
	}

	return envelope
}

func onsetEnvelope(envelope []float64) []float64 {
	onset := make([]float64, len(envelope))
	for i := 1; i < len(envelope); i++ {
		d := envelope[i] - envelope[i-1]
		if d > 0 {
			onset[i] = d
		}
	}
	return onset
}

func strengthSeries(onset []float64) []float64 {
	strength := make([]float64, len(onset))
	m := 0.0
	if len(onset) > 0 {
		m = floats.Max(onset)
	}
	if m <= 0 {
		return strength
	}
	for i, v := range onset {
		strength[i] = clamp01(v / m)
	}
	return strength
}

// estimateTempo searches integer lags in [60,180] BPM for the one that
// maximizes the autocorrelation score of the onset envelope. Returns
// bpm=0, lag=0 if there are too few envelope points to search, or if
// no lag scores above zero (e.g. silent input).
func estimateTempo(onset []float64, fps float64) (bpm float64, lag int) {
	e := len(onset)
	if e < minLagCount {
		return 0, 0
	}

	lagMin := maxInt(1, roundInt(60*fps/maxTempoBPM))
	lagMax := minInt(roundInt(60*fps/minTempoBPM), e-1)
	if lagMax < lagMin+1 {
		return 0, 0
	}

	bestLag := 0
	bestScore := 0.0
	for l := lagMin; l <= lagMax; l++ {
		score := floats.Dot(onset[l:], onset[:e-l])
		if score > bestScore {
			bestScore = score
			bestLag = l
		}
	}
	if bestLag == 0 {
		return 0, 0
	}

	return 60 * fps / float64(bestLag), bestLag
}

// alignPhase bins the strength series by phase (i mod lag), picks the
// phase with maximum total strength (ties favor the smallest phase),
// and computes the beat threshold from the mean strength.
func alignPhase(strength []float64, lag int) (phase int, threshold float64) {
	totals := make([]float64, lag)
	for i, s := range strength {
		totals[i%lag] += s
	}

	best := 0
	for p := 1; p < lag; p++ {
		if totals[p] > totals[best] {
			best = p
		}
	}

	mean := 0.0
	if len(strength) > 0 {
		mean = stat.Mean(strength, nil)
	}
	threshold = math.Max(1.35*mean, 0.12)

	return best, threshold
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

func quantizeByte(v float64) uint8 {
	r := roundInt(v)
	if r < 0 {
		return 0
	}
	if r > 255 {
		return 255
	}
	return uint8(r)
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
