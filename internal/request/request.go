// Package request parses the helper's stdin request using a key-scoped
// scanner rather than a general-purpose JSON decoder: the request schema
// is small and fixed, and the scanner lets us preserve the legacy flat
// field fallbacks without juggling two struct shapes.
package request

import (
	"errors"
	"fmt"
	"io"
	"strconv"
)

// RequestSchema is the only schema tag this helper accepts.
const RequestSchema = "tz_player.native_spectrum_helper_request.v1"

// ErrInvalidJSON means stdin was empty or unreadable. Input that is not
// JSON at all fails the schema lookup and yields ErrInvalidSchema.
var ErrInvalidJSON = errors.New("invalid json request")

// ErrInvalidSchema means the schema tag or required fields were missing
// or malformed.
var ErrInvalidSchema = errors.New("invalid request schema or fields")

// Spectrum holds the resolved spectrogram parameters (C4a inputs).
type Spectrum struct {
	MonoTargetRateHz int
	HopMs            int
	BandCount        int
	MaxFrames        int
}

// Beat holds the resolved beat/onset parameters (C4b inputs). A nil
// *Beat on Request means beat analysis was not requested.
type Beat struct {
	HopMs     int
	MaxFrames int
}

// Waveform holds the resolved waveform-proxy parameters (C4c inputs).
// A nil *Waveform on Request means waveform analysis was not requested.
type Waveform struct {
	HopMs     int
	MaxFrames int
}

// Request is the fully validated, defaulted, and floored analysis
// request.
type Request struct {
	TrackPath string
	Spectrum  Spectrum
	Beat      *Beat
	Waveform  *Waveform
}

const (
	defaultMonoTargetRateHz = 11025
	defaultSpectrumHopMs    = 40
	defaultBandCount        = 48
	defaultSpectrumMaxFrame = 12000

	defaultBeatHopMs     = 40
	defaultBeatMaxFrames = 12000

	defaultWaveformHopMs     = 20
	defaultWaveformMaxFrames = 30000

	floorHopMs     = 10
	floorBandCount = 8
	floorMaxFrames = 1
)

// Parse reads r to EOF and produces a validated Request, or one of
// ErrInvalidJSON / ErrInvalidSchema wrapped with context.
func Parse(r io.Reader) (*Request, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty stdin", ErrInvalidJSON)
	}

	schema, ok := extractString(body, "schema")
	if !ok || schema != RequestSchema {
		return nil, fmt.Errorf("%w: schema", ErrInvalidSchema)
	}

	trackPath, ok := extractString(body, "track_path")
	if !ok || trackPath == "" {
		return nil, fmt.Errorf("%w: track_path", ErrInvalidSchema)
	}

	specScope, _ := extractObject(body, "spectrum")

	spectrum := Spectrum{
		MonoTargetRateHz: resolveInt(specScope, "mono_target_rate_hz", body, "mono_target_rate_hz", defaultMonoTargetRateHz, 0),
		HopMs:            resolveInt(specScope, "hop_ms", body, "hop_ms", defaultSpectrumHopMs, floorHopMs),
		BandCount:        resolveInt(specScope, "band_count", body, "band_count", defaultBandCount, floorBandCount),
		MaxFrames:        resolveInt(specScope, "max_frames", body, "max_frames", defaultSpectrumMaxFrame, floorMaxFrames),
	}

	req := &Request{
		TrackPath: trackPath,
		Spectrum:  spectrum,
	}

	beatScope, beatObjPresent := extractObject(body, "beat")
	_, legacyHop := findValueStart(body, "beat_timeline_hop_ms")
	_, legacyMax := findValueStart(body, "beat_timeline_max_frames")
	if beatObjPresent || legacyHop || legacyMax {
		req.Beat = &Beat{
			HopMs:     resolveInt(beatScope, "hop_ms", body, "beat_timeline_hop_ms", defaultBeatHopMs, floorHopMs),
			MaxFrames: resolveInt(beatScope, "max_frames", body, "beat_timeline_max_frames", defaultBeatMaxFrames, floorMaxFrames),
		}
	}

	wpScope, wpObjPresent := extractObject(body, "waveform_proxy")
	_, legacyWPHop := findValueStart(body, "waveform_proxy_hop_ms")
	_, legacyWPMax := findValueStart(body, "waveform_proxy_max_frames")
	if wpObjPresent || legacyWPHop || legacyWPMax {
		req.Waveform = &Waveform{
			HopMs:     resolveInt(wpScope, "hop_ms", body, "waveform_proxy_hop_ms", defaultWaveformHopMs, floorHopMs),
			MaxFrames: resolveInt(wpScope, "max_frames", body, "waveform_proxy_max_frames", defaultWaveformMaxFrames, floorMaxFrames),
		}
	}

	return req, nil
}

// resolveInt reads key from nested first (if present), then from
// legacyKey in the top-level body, then falls back to def. The result
// is clamped up to floor (floor 0 means "no floor").
func resolveInt(nested []byte, key string, body []byte, legacyKey string, def, floor int) int {
	if nested != nil {
		if v, ok := extractInt(nested, key); ok {
			return applyFloor(v, floor)
		}
	}
	if v, ok := extractInt(body, legacyKey); ok {
		return applyFloor(v, floor)
	}
	return applyFloor(def, floor)
}

func applyFloor(v, floor int) int {
	if v < floor {
		return floor
	}
	return v
}

// ── key-scoped scanner ──────────────────────────────────

// findValueStart locates the quoted key token among the direct members
// of the object body starts with (nesting depth 1), skips whitespace
// past its following ':', and returns the index of the first
// non-whitespace byte of the value. It ignores keys that appear inside
// other strings by tracking JSON string state as it scans, and keys of
// nested objects or arrays by tracking bracket depth.
func findValueStart(body []byte, key string) (int, bool) {
	i := 0
	n := len(body)
	depth := 0
	for i < n {
		switch body[i] {
		case '"':
			lit, end, ok := scanJSONString(body, i+1)
			if !ok {
				return 0, false
			}
			if depth == 1 && lit == key {
				j := skipSpace(body, end)
				if j < n && body[j] == ':' {
					j = skipSpace(body, j+1)
					return j, true
				}
			}
			i = end
			continue
		case '{', '[':
			depth++
		case '}', ']':
			depth--
		}
		i++
	}
	return 0, false
}

func skipSpace(body []byte, i int) int {
	for i < len(body) {
		switch body[i] {
		case ' ', '\t', '\n', '\r':
			i++
		default:
			return i
		}
	}
	return i
}

// scanJSONString decodes a JSON string whose opening quote is at
// body[start-1], starting from start. It returns the decoded value and
// the index just past the closing quote.
func scanJSONString(body []byte, start int) (string, int, bool) {
	n := len(body)
	buf := make([]byte, 0, 16)
	i := start
	for i < n {
		c := body[i]
		switch c {
		case '"':
			return string(buf), i + 1, true
		case '\\':
			if i+1 >= n {
				return "", 0, false
			}
			switch body[i+1] {
			case '"':
				buf = append(buf, '"')
			case '\\':
				buf = append(buf, '\\')
			case '/':
				buf = append(buf, '/')
			case 'b':
				buf = append(buf, '\b')
			case 'f':
				buf = append(buf, '\f')
			case 'n':
				buf = append(buf, '\n')
			case 'r':
				buf = append(buf, '\r')
			case 't':
				buf = append(buf, '\t')
			default:
				buf = append(buf, '\\', body[i+1])
			}
			i += 2
		default:
			buf = append(buf, c)
			i++
		}
	}
	return "", 0, false
}

// extractString extracts the decoded string value of key in body, if
// key's value is a JSON string.
func extractString(body []byte, key string) (string, bool) {
	idx, ok := findValueStart(body, key)
	if !ok || idx >= len(body) || body[idx] != '"' {
		return "", false
	}
	lit, _, ok := scanJSONString(body, idx+1)
	return lit, ok
}

// extractInt extracts the base-10 integer value of key in body. Only
// integers are recognized; no floats are read from the request.
func extractInt(body []byte, key string) (int, bool) {
	idx, ok := findValueStart(body, key)
	if !ok {
		return 0, false
	}
	start := idx
	i := idx
	n := len(body)
	if i < n && body[i] == '-' {
		i++
	}
	digitsStart := i
	for i < n && body[i] >= '0' && body[i] <= '9' {
		i++
	}
	if i == digitsStart {
		return 0, false
	}
	v, err := strconv.Atoi(string(body[start:i]))
	if err != nil {
		return 0, false
	}
	return v, true
}

// extractObject returns the raw byte range (including braces) of key's
// object value in body, and whether key was present with an object
// value at all (an empty object `{}` still counts as present).
func extractObject(body []byte, key string) ([]byte, bool) {
	idx, ok := findValueStart(body, key)
	if !ok || idx >= len(body) || body[idx] != '{' {
		return nil, false
	}
	depth := 0
	inStr := false
	i := idx
	n := len(body)
	for i < n {
		c := body[i]
		if inStr {
			if c == '\\' {
				i += 2
				continue
			}
			if c == '"' {
				inStr = false
			}
			i++
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return body[idx : i+1], true
			}
		}
		i++
	}
	return nil, false
}
