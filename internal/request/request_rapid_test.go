package request

import (
	"fmt"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

// TestParse_FloorsAlwaysHold generates random hop/band/frame values,
// including ones below their documented floor, and checks the parsed
// Request never produces a numeric field below its documented floor.
func TestParse_FloorsAlwaysHold(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		hopMs := rapid.IntRange(-100, 1000).Draw(rt, "hopMs")
		bandCount := rapid.IntRange(-10, 200).Draw(rt, "bandCount")
		maxFrames := rapid.IntRange(-10, 50000).Draw(rt, "maxFrames")

		body := fmt.Sprintf(
			`{"schema":"tz_player.native_spectrum_helper_request.v1","track_path":"song.wav",`+
				`"spectrum":{"hop_ms":%d,"band_count":%d,"max_frames":%d}}`,
			hopMs, bandCount, maxFrames,
		)

		req, err := Parse(strings.NewReader(body))
		if err != nil {
			rt.Fatalf("unexpected parse error: %v", err)
		}

		if req.Spectrum.HopMs < floorHopMs {
			rt.Fatalf("hop_ms %d below floor %d", req.Spectrum.HopMs, floorHopMs)
		}
		if req.Spectrum.BandCount < floorBandCount {
			rt.Fatalf("band_count %d below floor %d", req.Spectrum.BandCount, floorBandCount)
		}
		if req.Spectrum.MaxFrames < floorMaxFrames {
			rt.Fatalf("max_frames %d below floor %d", req.Spectrum.MaxFrames, floorMaxFrames)
		}
	})
}
