package pcm

import "math"

// Resample downsamples the mono buffer by nearest-sample picking via
// integer-stride walking. It never upsamples: it mutates a in place
// and is a no-op (returning nil) when target <= 0, the buffer is
// empty, or the source rate is already at or below target.
func Resample(a *Audio, targetHz int) error {
	if targetHz <= 0 || len(a.Mono) == 0 || a.MonoRate <= targetHz {
		return nil
	}

	step := float64(a.MonoRate) / float64(targetHz)
	n := len(a.Mono)
	capacity := int(math.Ceil(float64(n)/step)) + 2
	out := make([]float32, 0, capacity)

	for idx := 0.0; int(idx) < n; idx += step {
		out = append(out, a.Mono[int(idx)])
	}

	a.Mono = out
	a.MonoRate = targetHz
	a.RecomputeDuration()
	return nil
}
