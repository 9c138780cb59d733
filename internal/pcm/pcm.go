// Package pcm holds the decoded-audio intermediate representation
// shared by every DSP stage downstream of decode.
package pcm

// Audio is the decoded PCM buffer produced by the decode pipeline (C2)
// and mutated only by the mono resampler (C3). Every DSP stage past C3
// treats it as read-only.
type Audio struct {
	Mono     []float32
	MonoRate int

	Left       []float32
	Right      []float32
	StereoRate int

	DurationMs int64
}

// NewFromStereo builds an Audio from interleaved-derived left/right
// buffers, deriving Mono as the per-sample average and DurationMs from
// the stereo length and rate.
func NewFromStereo(left, right []float32, rate int) *Audio {
	mono := make([]float32, len(left))
	for i := range left {
		mono[i] = 0.5 * (left[i] + right[i])
	}
	a := &Audio{
		Mono:       mono,
		MonoRate:   rate,
		Left:       left,
		Right:      right,
		StereoRate: rate,
	}
	a.DurationMs = durationMs(len(left), rate)
	return a
}

// durationMs computes floor(N*1000/rate), clamped to at least 1ms.
func durationMs(frames, rate int) int64 {
	if rate <= 0 || frames <= 0 {
		return 1
	}
	d := int64(frames) * 1000 / int64(rate)
	if d < 1 {
		return 1
	}
	return d
}

// RecomputeDuration refreshes DurationMs from the current Mono buffer
// and MonoRate. Called after resampling (C3), which changes only the
// mono buffer/rate.
func (a *Audio) RecomputeDuration() {
	a.DurationMs = durationMs(len(a.Mono), a.MonoRate)
}
