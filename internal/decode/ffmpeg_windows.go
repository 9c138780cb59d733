//go:build windows

package decode

import (
	"fmt"
	"io"
	"os"
	"os/exec"

	"golang.org/x/sys/windows"
)

// spawnFFmpeg is the Windows counterpart of the POSIX adapter in
// ffmpeg_unix.go. It additionally clears HANDLE_FLAG_INHERIT on the
// parent's copy of the pipe read-end, so that only the child's
// stdout-write, null-stderr, and null-stdin handles are inheritable.
func spawnFFmpeg(path string) ([]byte, int, error) {
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, 0, fmt.Errorf("pipe: %w", err)
	}

	if err := windows.SetHandleInformation(windows.Handle(pr.Fd()), windows.HANDLE_FLAG_INHERIT, 0); err != nil {
		pr.Close()
		pw.Close()
		return nil, 0, fmt.Errorf("set handle information: %w", err)
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

	if readErr != nil {
		// Abandon the read: terminate the child rather than wait on a
		// process that may be stuck.
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, exitCodeOf(cmd), fmt.Errorf("read: %w", readErr)
	}

	_ = cmd.Wait()
	return out, exitCodeOf(cmd), nil
}
