//go:build !windows

package decode

import (
	"fmt"
	"io"
	"os"
	"os/exec"
)

// spawnFFmpeg runs ffmpeg with the child inheriting a pipe write-end on
// stdout and the null device on stdin/stderr. The parent closes its own
// copy of the write end immediately after Start so the child's
// eventual exit is observable as EOF on the read end.
//
// Go's runtime already retries blocking syscalls on EINTR, so the plain
// io.ReadAll below needs no explicit retry loop.
func spawnFFmpeg(path string) ([]byte, int, error) {
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, 0, fmt.Errorf("pipe: %w", err)
	}

	cmd := exec.Command("ffmpeg", ffmpegArgs(path)...)
	cmd.Stdout = pw
	// Stdin and Stderr left nil: os/exec binds them to the null device.

	if err := cmd.Start(); err != nil {
		pw.Close()
		pr.Close()
		return nil, 0, fmt.Errorf("spawn: %w", err)
	}
	pw.Close()

	out, readErr := io.ReadAll(pr)
	pr.Close()

	// On POSIX we don't terminate the child on a read error: any further
	// write from ffmpeg into the now-closed pipe fails with SIGPIPE and
	// the child exits on its own.
	_ = cmd.Wait()
	exitCode := exitCodeOf(cmd)

	if readErr != nil {
		return nil, exitCode, fmt.Errorf("read: %w", readErr)
	}
	return out, exitCode, nil
}
