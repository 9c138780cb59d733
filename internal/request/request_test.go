package request

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_MinimalDefaults(t *testing.T) {
	body := `{"schema":"tz_player.native_spectrum_helper_request.v1","track_path":"/tmp/song.wav"}`
	req, err := Parse(strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/song.wav", req.TrackPath)
	assert.Equal(t, 11025, req.Spectrum.MonoTargetRateHz)
	assert.Equal(t, 40, req.Spectrum.HopMs)
	assert.Equal(t, 48, req.Spectrum.BandCount)
	assert.Equal(t, 12000, req.Spectrum.MaxFrames)
	assert.Nil(t, req.Beat)
	assert.Nil(t, req.Waveform)
}

func TestParse_NestedSpectrumObject(t *testing.T) {
	body := `{
		"schema":"tz_player.native_spectrum_helper_request.v1",
		"track_path":"song.wav",
		"spectrum":{"band_count":8,"max_frames":64,"hop_ms":40,"mono_target_rate_hz":11025}
	}`
	req, err := Parse(strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, 8, req.Spectrum.BandCount)
	assert.Equal(t, 64, req.Spectrum.MaxFrames)
}

func TestParse_LegacyFlatFields(t *testing.T) {
	nested := `{"schema":"tz_player.native_spectrum_helper_request.v1","track_path":"song.wav",
		"spectrum":{"band_count":8,"max_frames":64,"hop_ms":40,"mono_target_rate_hz":11025}}`
	legacy := `{"schema":"tz_player.native_spectrum_helper_request.v1","track_path":"song.wav",
		"mono_target_rate_hz":11025,"hop_ms":40,"band_count":8,"max_frames":64}`

	nestedReq, err := Parse(strings.NewReader(nested))
	require.NoError(t, err)
	legacyReq, err := Parse(strings.NewReader(legacy))
	require.NoError(t, err)

	assert.Equal(t, nestedReq.Spectrum, legacyReq.Spectrum)
}

func TestParse_BeatEnabledByPresence(t *testing.T) {
	body := `{"schema":"tz_player.native_spectrum_helper_request.v1","track_path":"song.wav","beat":{}}`
	req, err := Parse(strings.NewReader(body))
	require.NoError(t, err)
	require.NotNil(t, req.Beat)
	assert.Equal(t, 40, req.Beat.HopMs)
	assert.Equal(t, 12000, req.Beat.MaxFrames)
}

func TestParse_BeatEnabledByLegacyField(t *testing.T) {
	body := `{"schema":"tz_player.native_spectrum_helper_request.v1","track_path":"song.wav","beat_timeline_hop_ms":50}`
	req, err := Parse(strings.NewReader(body))
	require.NoError(t, err)
	require.NotNil(t, req.Beat)
	assert.Equal(t, 50, req.Beat.HopMs)
}

func TestParse_WaveformFloorsBelowMinimum(t *testing.T) {
	body := `{"schema":"tz_player.native_spectrum_helper_request.v1","track_path":"song.wav","waveform_proxy":{"hop_ms":1,"max_frames":0}}`
	req, err := Parse(strings.NewReader(body))
	require.NoError(t, err)
	require.NotNil(t, req.Waveform)
	assert.Equal(t, 10, req.Waveform.HopMs)
	assert.Equal(t, 1, req.Waveform.MaxFrames)
}

func TestParse_EmptyStdin(t *testing.T) {
	_, err := Parse(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrInvalidJSON)
}

func TestParse_WrongSchema(t *testing.T) {
	body := `{"schema":"wrong.v1","track_path":"song.wav"}`
	_, err := Parse(strings.NewReader(body))
	assert.ErrorIs(t, err, ErrInvalidSchema)
}

func TestParse_MissingTrackPath(t *testing.T) {
	body := `{"schema":"tz_player.native_spectrum_helper_request.v1"}`
	_, err := Parse(strings.NewReader(body))
	assert.ErrorIs(t, err, ErrInvalidSchema)
}

func TestParse_EmptyTrackPath(t *testing.T) {
	body := `{"schema":"tz_player.native_spectrum_helper_request.v1","track_path":""}`
	_, err := Parse(strings.NewReader(body))
	assert.ErrorIs(t, err, ErrInvalidSchema)
}

func TestParse_UnknownKeysIgnored(t *testing.T) {
	body := `{"schema":"tz_player.native_spectrum_helper_request.v1","track_path":"song.wav","extra":{"nested":"value"},"another":123}`
	req, err := Parse(strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, "song.wav", req.TrackPath)
}

func TestExtractString_EscapeSequences(t *testing.T) {
	body := []byte(`{"track_path":"C:\\music\\a\tb.wav"}`)
	v, ok := extractString(body, "track_path")
	require.True(t, ok)
	assert.Equal(t, "C:\\music\\a\tb.wav", v)
}
