package playback

import (
	"fmt"
	"time"
)

// NotFoundError reports an activation that references a clip name absent
// from the catalog
type NotFoundError struct {
	Clip string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("clip %q is not in the catalog", e.Clip)
}

// UnreachableError reports an audio resource that failed its reachability
// probe or could not be fetched. Status is the HTTP status code when the
// target is a URL, zero otherwise.
type UnreachableError struct {
	Clip   string
	Target string
	Status int
	cause  error
}

func (e *UnreachableError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("clip %q: resource %s unreachable (status %d)", e.Clip, e.Target, e.Status)
	}
	if e.cause != nil {
		return fmt.Sprintf("clip %q: resource %s unreachable: %v", e.Clip, e.Target, e.cause)
	}
	return fmt.Sprintf("clip %q: resource %s unreachable", e.Clip, e.Target)
}

func (e *UnreachableError) Unwrap() error { return e.cause }

// DecodeError reports an audio resource the decoder rejected
type DecodeError struct {
	Clip  string
	cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("clip %q: decoding audio: %v", e.Clip, e.cause)
}

func (e *DecodeError) Unwrap() error { return e.cause }

// TimeoutError reports a load attempt that exceeded the configured bound.
// The partially acquired resource has been released; the next activation
// retries the load.
type TimeoutError struct {
	Clip  string
	Limit time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("clip %q: load exceeded %s", e.Clip, e.Limit)
}
