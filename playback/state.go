package playback

// State represents the lifecycle of one clip's audio handle
type State string

const (
	// StateUnloaded means no audio resource has been acquired yet
	StateUnloaded State = "Unloaded"

	// StateLoading means the resource is being fetched and decoded
	StateLoading State = "Loading"

	// StateReady means the resource is decoded and playable
	StateReady State = "Ready"

	// StatePlaying means the clip is currently audible
	StatePlaying State = "Playing"

	// StateFinished means playback just ended naturally; the state decays
	// to Ready after a short flash period
	StateFinished State = "Finished"

	// StateError means the last load attempt failed; the next activation
	// retries from scratch
	StateError State = "Error"
)

// String returns the string representation of State
func (s State) String() string {
	return string(s)
}

// Loaded returns true if an audio resource is held for the clip
func (s State) Loaded() bool {
	return s == StateReady || s == StatePlaying || s == StateFinished
}

// Busy returns true if the clip is mid-load or audible
func (s State) Busy() bool {
	return s == StateLoading || s == StatePlaying
}
