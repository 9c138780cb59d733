package decode

import (
	"fmt"
	"os/exec"

	"github.com/taggedzi/tz-player/internal/pcm"
)

const ffmpegTargetRate = 44100

// ffmpegArgs builds the argv for delegated decoding. track_path is
// passed as a single argument; os/exec never invokes a shell, so no
// quoting/escaping of embedded characters is needed on either platform.
func ffmpegArgs(path string) []string {
	return []string{
		"-v", "error",
		"-i", path,
		"-vn", "-sn", "-dn",
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ac", "2",
		"-ar", "44100",
		"pipe:1",
	}
}

// exitCodeOf reports the child's exit code after Wait has been called.
// -1 means the process never ran to completion (e.g. killed by signal).
func exitCodeOf(cmd *exec.Cmd) int {
	if cmd.ProcessState == nil {
		return -1
	}
	return cmd.ProcessState.ExitCode()
}

// decodeFFmpeg implements the ffmpeg delegation path: the
// platform-specific spawnFFmpeg adapter returns the raw s16le bytes
// plus the child's exit code, and this function owns interpreting that
// byte stream the same way regardless of OS.
func decodeFFmpeg(path string) (*pcm.Audio, error) {
	out, exitCode, err := spawnFFmpeg(path)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg decode: %w", err)
	}
	if exitCode != 0 {
		return nil, fmt.Errorf("ffmpeg decode: ffmpeg exit_code=%d", exitCode)
	}
	if len(out) < 4 {
		return nil, fmt.Errorf("ffmpeg decode: short read (%d bytes)", len(out))
	}

	frameCount := len(out) / 4
	left := make([]float32, frameCount)
	right := make([]float32, frameCount)
	for i := 0; i < frameCount; i++ {
		base := i * 4
		l := int16(uint16(out[base]) | uint16(out[base+1])<<8)
		r := int16(uint16(out[base+2]) | uint16(out[base+3])<<8)
		left[i] = float32(l) / 32768.0
		right[i] = float32(r) / 32768.0
	}

	return pcm.NewFromStereo(left, right, ffmpegTargetRate), nil
}
