package execution

import "errors"

// Aborted is the distinguished error produced when a run terminates through
// cooperative cancellation rather than failure.  It always carries the
// human-readable reason recorded with the first abort request.
type Aborted struct {
	Reason string
}

func (e *Aborted) Error() string {
	if e.Reason == "" {
		return "aborted"
	}
	return "aborted: " + e.Reason
}

// Abort builds an Aborted error; a running computation returns it to
// terminate itself voluntarily.
func Abort(reason string) error {
	return &Aborted{Reason: reason}
}

// IsAborted reports whether err represents cooperative cancellation anywhere
// in its chain.
func IsAborted(err error) bool {
	var a *Aborted
	return errors.As(err, &a)
}

// AbortReason extracts the abort reason from err.  The second return value
// is false when err is not an Aborted.
func AbortReason(err error) (string, bool) {
	var a *Aborted
	if errors.As(err, &a) {
		return a.Reason, true
	}
	return "", false
}
