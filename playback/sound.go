package playback

import "context"

// Sound is the capability set the controller needs from an audio primitive.
// Implementations wrap exactly one decoded clip and own its underlying
// resource exclusively.
type Sound interface {
	// Ready reports whether the sound can be played
	Ready() bool

	// Playing reports whether the sound is currently audible
	Playing() bool

	// Play starts playback. A non-looping play always starts from position
	// zero; a looping play restarts itself on wrap-around without ever
	// signalling completion.
	Play() error

	// Stop silences the sound immediately. Stopping a stopped sound is a
	// no-op.
	Stop()

	// SetLoop flips continuous playback on or off for subsequent plays
	SetLoop(loop bool)

	// Loop returns the current loop flag
	Loop() bool

	// OnEnded registers the observer called when a non-looping play reaches
	// its natural end. At most one observer is kept.
	OnEnded(fn func())

	// Close releases the underlying audio resource
	Close() error
}

// Loader acquires the audio resource for a clip and wraps it in a Sound.
// Load must respect ctx cancellation and release anything it acquired when
// it returns an error.
type Loader interface {
	Load(ctx context.Context, name, file string) (Sound, error)
}

// LoaderFunc adapts a function to the Loader interface
type LoaderFunc func(ctx context.Context, name, file string) (Sound, error)

// Load implements Loader
func (f LoaderFunc) Load(ctx context.Context, name, file string) (Sound, error) {
	return f(ctx, name, file)
}
