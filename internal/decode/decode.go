// Package decode implements the helper's decode pipeline (C2): it turns
// a track_path into a pcm.Audio buffer via a native WAV parser, a native
// MP4/AAC/Opus container parser, or a delegated ffmpeg child process.
package decode

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/taggedzi/tz-player/internal/pcm"
)

// isWAVExtension reports whether path's extension forces the WAV-only
// path: WAV files never silently escalate to ffmpeg.
func isWAVExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".wav" || ext == ".wave"
}

// isContainerExtension reports whether path looks like an MP4-family
// container worth trying the native demux+decode path on before
// falling back to ffmpeg.
func isContainerExtension(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp4", ".m4a", ".mov", ".aac":
		return true
	}
	return false
}

// Decode implements the dispatch policy:
//  1. Try the native WAV path.
//  2. If that failed and the extension is .wav/.wave, fail outright.
//  3. Else, if the extension looks like an MP4-family container, try
//     the native MP4/AAC/Opus path.
//  4. Else (or if step 3 failed), invoke ffmpeg exactly once.
func Decode(path string) (*pcm.Audio, error) {
	audio, wavErr := decodeWAV(path)
	if wavErr == nil {
		return audio, nil
	}
	if isWAVExtension(path) {
		return nil, fmt.Errorf("wav decode: %w", wavErr)
	}

	if isContainerExtension(path) {
		if audio, err := decodeContainer(path); err == nil {
			return audio, nil
		}
	}

	audio, err := decodeFFmpeg(path)
	if err != nil {
		return nil, err
	}
	return audio, nil
}
