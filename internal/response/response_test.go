package response

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpectrumFrame_MarshalsAsTuple(t *testing.T) {
	f := SpectrumFrame{PosMs: 40, Bands: []byte{0, 128, 255}}
	out, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `[40,[0,128,255]]`, string(out))
}

func TestBeatFrame_MarshalsAsTuple(t *testing.T) {
	f := BeatFrame{PosMs: 80, Strength: 200, IsBeat: true}
	out, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `[80,200,true]`, string(out))
}

func TestWaveformFrame_MarshalsAsTuple(t *testing.T) {
	f := WaveformFrame{PosMs: 20, LMin: -64, LMax: 64, RMin: -10, RMax: 10}
	out, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `[20,-64,64,-10,10]`, string(out))
}

func TestMillis_FormatsThreeDecimals(t *testing.T) {
	out, err := json.Marshal(Millis(12.5))
	require.NoError(t, err)
	assert.Equal(t, "12.500", string(out))
}

func TestEmit_OmitsAbsentOptionalBlocks(t *testing.T) {
	resp := &Response{
		Schema:        ResponseSchema,
		HelperVersion: "test",
		DurationMs:    1000,
		Frames:        []SpectrumFrame{{PosMs: 0, Bands: []byte{1, 2}}},
		Timings:       Timings{DecodeMs: 1, SpectrumMs: 2, TotalMs: 3},
	}

	var buf bytes.Buffer
	require.NoError(t, Emit(&buf, resp))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.NotContains(t, decoded, "beat")
	assert.NotContains(t, decoded, "waveform_proxy")
	assert.Equal(t, ResponseSchema, decoded["schema"])
}

func TestEmit_IncludesBeatAndWaveformWhenPresent(t *testing.T) {
	resp := &Response{
		Schema:        ResponseSchema,
		HelperVersion: "test",
		DurationMs:    1000,
		Frames:        []SpectrumFrame{{PosMs: 0, Bands: []byte{1}}},
		Beat: &BeatBlock{
			DurationMs: 1000,
			BPM:        120,
			Frames:     []BeatFrame{{PosMs: 0, Strength: 10, IsBeat: false}},
		},
		WaveformProxy: &WaveformBlock{
			DurationMs: 1000,
			Frames:     []WaveformFrame{{PosMs: 0, LMin: -1, LMax: 1, RMin: -1, RMax: 1}},
		},
		Timings: Timings{},
	}

	var buf bytes.Buffer
	require.NoError(t, Emit(&buf, resp))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Contains(t, decoded, "beat")
	assert.Contains(t, decoded, "waveform_proxy")
}
