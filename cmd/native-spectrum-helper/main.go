// Command native-spectrum-helper is a one-shot stdio process: it
// reads a JSON analysis request on stdin, decodes and analyzes the
// referenced audio file, and writes a JSON response on stdout.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/taggedzi/tz-player/internal/beat"
	"github.com/taggedzi/tz-player/internal/decode"
	"github.com/taggedzi/tz-player/internal/pcm"
	"github.com/taggedzi/tz-player/internal/request"
	"github.com/taggedzi/tz-player/internal/response"
	"github.com/taggedzi/tz-player/internal/spectrum"
	"github.com/taggedzi/tz-player/internal/stagefail"
	"github.com/taggedzi/tz-player/internal/waveform"
)

// helperVersion identifies this build to callers pinning on
// response.ResponseSchema.
const helperVersion = "tz-player-native-spectrum-helper/1.0"

const (
	exitOK             = 0
	exitAnalysisFailed = 1
	exitBadRequest     = 2
)

func main() {
	os.Exit(run(os.Stdin, os.Stdout, os.Stderr))
}

func run(stdin io.Reader, stdout, stderr io.Writer) int {
	totalStart := time.Now()

	req, err := request.Parse(stdin)
	if err != nil {
		if errors.Is(err, request.ErrInvalidJSON) || errors.Is(err, request.ErrInvalidSchema) {
			fmt.Fprintln(stderr, err.Error())
			return exitBadRequest
		}
		fmt.Fprintln(stderr, stagefail.Wrap("request", err).Error())
		return exitAnalysisFailed
	}

	decodeStart := time.Now()
	audio, err := decode.Decode(req.TrackPath)
	decodeMs := msSince(decodeStart)
	if err != nil {
		fmt.Fprintln(stderr, stagefail.Wrap("decode", err).Error())
		return exitAnalysisFailed
	}

	// Captured before C3 resampling mutates audio.DurationMs: the
	// response's duration_ms (and the beat/waveform blocks that must
	// agree with it) is the stereo-derived duration, not the mono
	// buffer's post-resample recomputation.
	durationMs := audio.DurationMs

	if err := pcm.Resample(audio, req.Spectrum.MonoTargetRateHz); err != nil {
		fmt.Fprintln(stderr, stagefail.Wrap("resample", err).Error())
		return exitAnalysisFailed
	}

	spectrumStart := time.Now()
	frames, err := spectrum.Analyze(audio.Mono, audio.MonoRate, req.Spectrum.HopMs, req.Spectrum.BandCount, req.Spectrum.MaxFrames)
	spectrumMs := msSince(spectrumStart)
	if err != nil {
		fmt.Fprintln(stderr, stagefail.Wrap("spectrum", err).Error())
		return exitAnalysisFailed
	}

	var beatBlock *response.BeatBlock
	var beatMs float64
	if req.Beat != nil {
		beatStart := time.Now()
		result, err := beat.Analyze(audio.Mono, audio.MonoRate, req.Beat.HopMs, req.Beat.MaxFrames)
		beatMs = msSince(beatStart)
		if err != nil {
			fmt.Fprintln(stderr, stagefail.Wrap("beat", err).Error())
			return exitAnalysisFailed
		}
		if len(result.Frames) > 0 {
			beatBlock = &response.BeatBlock{
				DurationMs: durationMs,
				BPM:        response.Millis(result.BPM),
				Frames:     toBeatFrames(result.Frames),
			}
		}
	}

	var waveformBlock *response.WaveformBlock
	var waveformMs float64
	if req.Waveform != nil {
		waveformStart := time.Now()
		frames, err := waveform.Analyze(audio.Left, audio.Right, audio.StereoRate, req.Waveform.HopMs, req.Waveform.MaxFrames)
		waveformMs = msSince(waveformStart)
		if err != nil {
			fmt.Fprintln(stderr, stagefail.Wrap("waveform_proxy", err).Error())
			return exitAnalysisFailed
		}
		if len(frames) > 0 {
			waveformBlock = &response.WaveformBlock{
				DurationMs: durationMs,
				Frames:     toWaveformFrames(frames),
			}
		}
	}

	resp := &response.Response{
		Schema:        response.ResponseSchema,
		HelperVersion: helperVersion,
		DurationMs:    durationMs,
		Frames:        toSpectrumFrames(frames),
		Beat:          beatBlock,
		WaveformProxy: waveformBlock,
		Timings: response.Timings{
			DecodeMs:        response.Millis(decodeMs),
			SpectrumMs:      response.Millis(spectrumMs),
			BeatMs:          response.Millis(beatMs),
			WaveformProxyMs: response.Millis(waveformMs),
			TotalMs:         response.Millis(msSince(totalStart)),
		},
	}

	if err := response.Emit(stdout, resp); err != nil {
		fmt.Fprintln(stderr, stagefail.Wrap("emit", err).Error())
		return exitAnalysisFailed
	}

	return exitOK
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}

func toSpectrumFrames(frames []spectrum.Frame) []response.SpectrumFrame {
	out := make([]response.SpectrumFrame, len(frames))
	for i, f := range frames {
		out[i] = response.SpectrumFrame{PosMs: f.PosMs, Bands: f.Bands}
	}
	return out
}

func toBeatFrames(frames []beat.Frame) []response.BeatFrame {
	out := make([]response.BeatFrame, len(frames))
	for i, f := range frames {
		out[i] = response.BeatFrame{PosMs: f.PosMs, Strength: f.Strength, IsBeat: f.IsBeat}
	}
	return out
}

func toWaveformFrames(frames []waveform.Frame) []response.WaveformFrame {
	out := make([]response.WaveformFrame, len(frames))
	for i, f := range frames {
		out[i] = response.WaveformFrame{PosMs: f.PosMs, LMin: f.LMin, LMax: f.LMax, RMin: f.RMin, RMax: f.RMax}
	}
	return out
}
