// Package stagefail wraps a pipeline stage name around an underlying
// error so the command entrypoint can classify and report failures
// without resorting to string matching.
package stagefail

import "fmt"

// Error associates a pipeline stage name with the error that failed
// it. Its message matches the grep-friendly "analysis failed (stage):
// cause" shape the diagnostic contract requires.
type Error struct {
	Stage string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("analysis failed (%s): %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap returns nil if err is nil, otherwise an *Error naming stage.
func Wrap(stage string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Stage: stage, Err: err}
}
