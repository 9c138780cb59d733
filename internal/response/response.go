// Package response implements C5: serialization of the combined
// analysis result to a single stable-field-order JSON object.
package response

import (
	"encoding/json"
	"fmt"
	"io"
)

// ResponseSchema is the schema tag every emitted response carries.
const ResponseSchema = "tz_player.native_spectrum_helper_response.v1"

// Millis is a float64 that marshals with fixed three-decimal
// precision, matching the "%.3f-equivalent" formatting the response
// contract requires for timing and tempo values.
type Millis float64

func (m Millis) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%.3f", float64(m))), nil
}

// SpectrumFrame is one spectrogram frame, encoded as the two-element
// tuple [pos_ms,[b0,b1,...,b_{B-1}]].
type SpectrumFrame struct {
	PosMs int32
	Bands []byte
}

func (f SpectrumFrame) MarshalJSON() ([]byte, error) {
	// encoding/json treats []byte specially (base64 string encoding),
	// which is not what the wire contract wants here: convert to a
	// plain numeric array first.
	bands := make([]int, len(f.Bands))
	for i, b := range f.Bands {
		bands[i] = int(b)
	}
	return json.Marshal([2]interface{}{f.PosMs, bands})
}

// BeatFrame is one beat-timeline entry, encoded as the three-element
// tuple [pos_ms,strength_u8,is_beat].
type BeatFrame struct {
	PosMs    int32
	Strength uint8
	IsBeat   bool
}

func (f BeatFrame) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]interface{}{f.PosMs, f.Strength, f.IsBeat})
}

// WaveformFrame is one waveform-proxy entry, encoded as the
// five-element tuple [pos_ms,lmin,lmax,rmin,rmax].
type WaveformFrame struct {
	PosMs int32
	LMin  int8
	LMax  int8
	RMin  int8
	RMax  int8
}

func (f WaveformFrame) MarshalJSON() ([]byte, error) {
	return json.Marshal([5]interface{}{f.PosMs, f.LMin, f.LMax, f.RMin, f.RMax})
}

// BeatBlock is the optional beat-analysis result.
type BeatBlock struct {
	DurationMs int64       `json:"duration_ms"`
	BPM        Millis      `json:"bpm"`
	Frames     []BeatFrame `json:"frames"`
}

// WaveformBlock is the optional waveform-proxy result.
type WaveformBlock struct {
	DurationMs int64           `json:"duration_ms"`
	Frames     []WaveformFrame `json:"frames"`
}

// Timings records per-stage wall-clock durations in milliseconds.
type Timings struct {
	DecodeMs        Millis `json:"decode_ms"`
	SpectrumMs      Millis `json:"spectrum_ms"`
	BeatMs          Millis `json:"beat_ms"`
	WaveformProxyMs Millis `json:"waveform_proxy_ms"`
	TotalMs         Millis `json:"total_ms"`
}

// Response is the full top-level analysis artifact. Field order is
// the wire contract: callers parse with simple tooling that assumes
// this exact key order.
type Response struct {
	Schema        string          `json:"schema"`
	HelperVersion string          `json:"helper_version"`
	DurationMs    int64           `json:"duration_ms"`
	Frames        []SpectrumFrame `json:"frames"`
	Beat          *BeatBlock      `json:"beat,omitempty"`
	WaveformProxy *WaveformBlock  `json:"waveform_proxy,omitempty"`
	Timings       Timings         `json:"timings"`
}

// Emit writes resp to w as a single JSON object with no trailing
// newline.
func Emit(w io.Writer, resp *Response) error {
	body, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("response: marshal: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("response: write: %w", err)
	}
	return nil
}
