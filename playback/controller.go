// Package playback owns the per-clip audio state machine.
//
// Every clip starts Unloaded. The first gesture lazily fetches and decodes
// its audio; the handle is then cached for the life of the controller. At
// most one clip is audible at any time: starting a clip first fully stops
// whatever was playing. A failed load leaves the clip retryable, never
// stuck.
package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/telagraphic/sfx-board/catalog"
	"github.com/telagraphic/sfx-board/logger"
)

// EventType identifies a state-change notification
type EventType string

const (
	EventLoading     EventType = "loading"
	EventLoadFailed  EventType = "load-failed"
	EventReady       EventType = "ready"
	EventPlaying     EventType = "playing"
	EventStopped     EventType = "stopped"
	EventFinished    EventType = "finished"
	EventLoopChanged EventType = "loop-changed"
)

// Event is one state-change notification delivered to the presentation
// layer. The clip name is the stable identifier the presentation layer
// keys its elements by.
type Event struct {
	Clip  string    `json:"clip"`
	Type  EventType `json:"type"`
	Loop  bool      `json:"loop,omitempty"`
	Error string    `json:"error,omitempty"`
}

// Status is one clip's visible state in a snapshot
type Status struct {
	State State `json:"state"`
	Loop  bool  `json:"loop"`
}

// Resolver is the slice of the catalog the controller needs
type Resolver interface {
	Lookup(name string) (catalog.Clip, bool)
	Clips() []catalog.Clip
}

// Options tune controller timing
type Options struct {
	// LoadTimeout bounds one load attempt end to end
	LoadTimeout time.Duration

	// FinishedFlash is how long the Finished state lingers after a
	// non-looping clip ends naturally
	FinishedFlash time.Duration
}

// handle tracks one clip's cached audio and state. gen increases with
// every load attempt; a completion carrying a stale gen lost the race
// against a timeout or a retry and must discard its resource instead of
// publishing it.
type handle struct {
	name       string
	state      State
	sound      Sound
	err        error
	gen        uint64
	done       chan struct{}
	flashTimer *time.Timer
}

// Controller owns the clip-name→handle cache and the single audible sound.
// All fields are guarded by mu; gestures may arrive from any goroutine.
type Controller struct {
	catalog       Resolver
	loader        Loader
	loadTimeout   time.Duration
	finishedFlash time.Duration
	log           *slog.Logger

	mu      sync.Mutex
	handles map[string]*handle
	current *handle
	closed  bool

	emitMu   sync.Mutex
	listener func(Event)
}

// NewController creates a controller over the given catalog and loader
func NewController(cat Resolver, loader Loader, opts Options) *Controller {
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = 10 * time.Second
	}
	if opts.FinishedFlash <= 0 {
		opts.FinishedFlash = time.Second
	}
	return &Controller{
		catalog:       cat,
		loader:        loader,
		loadTimeout:   opts.LoadTimeout,
		finishedFlash: opts.FinishedFlash,
		log:           logger.WithComponent("playback"),
		handles:       make(map[string]*handle),
	}
}

// SetListener sets the callback receiving state-change events. Events from
// a single operation arrive in transition order; a clip is never reported
// playing before the previously playing clip was reported stopped, and a
// load's outcome never arrives before its loading marker. The listener may
// run with the controller's lock held and must not call back into the
// controller.
func (c *Controller) SetListener(fn func(Event)) {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()
	c.listener = fn
}

func (c *Controller) emit(events ...Event) {
	if len(events) == 0 {
		return
	}
	c.emitMu.Lock()
	defer c.emitMu.Unlock()
	for _, ev := range events {
		c.log.Debug("Event", "clip", ev.Clip, "type", string(ev.Type))
		if c.listener != nil {
			c.listener(ev)
		}
	}
}

// EnsureLoaded makes sure the clip's audio is fetched, decoded, and
// cached. Concurrent calls for the same clip share one load attempt and
// observe the same outcome. A clip whose last attempt failed is retried
// from scratch.
func (c *Controller) EnsureLoaded(ctx context.Context, name string) error {
	_, err := c.ensure(ctx, name, false)
	return err
}

// Activate handles the primary gesture for a clip: load if needed, toggle
// off if it is the one playing, otherwise stop whatever else is playing
// and start this clip from the beginning.
func (c *Controller) Activate(ctx context.Context, name string) error {
	h, err := c.ensure(ctx, name, true)
	if err != nil {
		return err
	}

	var events []Event
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.New("controller is closed")
	}

	if h.state == StatePlaying {
		// toggle semantics: the same gesture stops a playing clip
		h.sound.Stop()
		h.state = StateReady
		if c.current == h {
			c.current = nil
		}
		events = append(events, Event{Clip: h.name, Type: EventStopped})
		c.mu.Unlock()
		c.emit(events...)
		return nil
	}

	// Stop the currently audible clip completely before starting this one
	// so no observer ever sees two clips playing.
	if c.current != nil && c.current != h && c.current.state == StatePlaying {
		c.current.sound.Stop()
		c.current.state = StateReady
		events = append(events, Event{Clip: c.current.name, Type: EventStopped})
		c.current = nil
	}

	if h.flashTimer != nil {
		h.flashTimer.Stop()
		h.flashTimer = nil
	}

	if err := h.sound.Play(); err != nil {
		h.state = StateReady
		c.mu.Unlock()
		c.emit(events...)
		return fmt.Errorf("failed to start %q: %w", name, err)
	}
	h.state = StatePlaying
	c.current = h
	events = append(events, Event{Clip: h.name, Type: EventPlaying, Loop: h.sound.Loop()})
	c.mu.Unlock()
	c.emit(events...)
	return nil
}

// ToggleLoop handles the secondary gesture: flip the clip's loop flag,
// loading it first if needed. Returns the new flag value.
func (c *Controller) ToggleLoop(ctx context.Context, name string) (bool, error) {
	h, err := c.ensure(ctx, name, false)
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false, errors.New("controller is closed")
	}
	loop := !h.sound.Loop()
	h.sound.SetLoop(loop)
	c.mu.Unlock()

	c.emit(Event{Clip: name, Type: EventLoopChanged, Loop: loop})
	return loop, nil
}

// CurrentClip returns the name of the clip that is currently audible
func (c *Controller) CurrentClip() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return "", false
	}
	return c.current.name, true
}

// Snapshot reports the visible state of every catalog clip, Unloaded for
// clips no gesture has touched yet.
func (c *Controller) Snapshot() map[string]Status {
	clips := c.catalog.Clips()

	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]Status, len(clips))
	for _, clip := range clips {
		status := Status{State: StateUnloaded}
		if h, ok := c.handles[clip.Name]; ok {
			status.State = h.state
			if h.sound != nil {
				status.Loop = h.sound.Loop()
			}
		}
		out[clip.Name] = status
	}
	return out
}

// Close stops playback and releases every cached audio resource
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.current = nil
	for _, h := range c.handles {
		if h.flashTimer != nil {
			h.flashTimer.Stop()
		}
		if h.sound != nil {
			h.sound.Stop()
			h.sound.Close()
		}
	}
	c.handles = make(map[string]*handle)
	c.mu.Unlock()
	return nil
}

// ensure returns the clip's loaded handle, starting or joining a load
// attempt as needed. announce controls whether a Loading notification is
// raised while the load is in flight (the primary gesture announces it,
// loop toggling does not).
func (c *Controller) ensure(ctx context.Context, name string, announce bool) (*handle, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, errors.New("controller is closed")
	}

	h := c.handles[name]
	if h != nil && h.state.Loaded() {
		c.mu.Unlock()
		return h, nil
	}

	var done chan struct{}
	if h != nil && h.state == StateLoading {
		// Join the in-flight attempt. Announcing under mu orders the
		// loading marker before the attempt's outcome, which is also
		// published under mu.
		done = h.done
		if announce {
			c.emit(Event{Clip: name, Type: EventLoading})
		}
		c.mu.Unlock()
	} else {
		// absent or in Error: start a fresh attempt
		clip, ok := c.catalog.Lookup(name)
		if !ok {
			c.mu.Unlock()
			return nil, &NotFoundError{Clip: name}
		}
		if h == nil {
			h = &handle{name: name}
			c.handles[name] = h
		}
		h.state = StateLoading
		h.err = nil
		h.sound = nil
		h.gen++
		h.done = make(chan struct{})
		done = h.done
		gen := h.gen
		c.mu.Unlock()

		// The loading marker goes out before the attempt exists, so the
		// attempt's outcome can never overtake it.
		if announce {
			c.emit(Event{Clip: name, Type: EventLoading})
		}
		go c.load(h, gen, clip.File, done)
	}

	select {
	case <-done:
	case <-ctx.Done():
		// The shared attempt keeps running for other callers; this caller
		// just stops waiting.
		return nil, ctx.Err()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, errors.New("controller is closed")
	}
	if h.state.Loaded() {
		return h, nil
	}
	if h.err != nil {
		return nil, h.err
	}
	return nil, fmt.Errorf("clip %q is not loaded", name)
}

// load runs one attempt under the controller's own timeout. Only the
// attempt whose gen still matches may publish its outcome; a stale
// completion releases its resource without touching the handle. The done
// channel always closes so waiters never hang. The outcome event goes out
// under mu, before done closes, so it follows any loading marker and
// precedes whatever the woken caller does next.
func (c *Controller) load(h *handle, gen uint64, file string, done chan struct{}) {
	ctx, cancel := context.WithTimeout(context.Background(), c.loadTimeout)
	defer cancel()

	sound, err := c.loader.Load(ctx, h.name, file)
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		err = &TimeoutError{Clip: h.name, Limit: c.loadTimeout}
	}

	c.mu.Lock()
	if c.closed || h.gen != gen {
		c.mu.Unlock()
		if sound != nil {
			sound.Close()
		}
		close(done)
		return
	}

	if err != nil {
		h.state = StateError
		h.err = err
		c.log.Warn("Load failed", "clip", h.name, logger.Err(err))
		c.emit(Event{Clip: h.name, Type: EventLoadFailed, Error: err.Error()})
		close(done)
		c.mu.Unlock()
		return
	}

	h.sound = sound
	name := h.name
	sound.OnEnded(func() { c.clipEnded(name) })
	h.state = StateReady
	c.emit(Event{Clip: name, Type: EventReady})
	close(done)
	c.mu.Unlock()
}

// clipEnded reacts to a clip reaching its natural end. Looping clips are
// restarted with no visible transition; everything else flashes Finished
// briefly and settles back to Ready.
func (c *Controller) clipEnded(name string) {
	c.mu.Lock()
	h := c.handles[name]
	if h == nil || h.state != StatePlaying || h.sound == nil {
		// stale end signal from a stopped or replaced play
		c.mu.Unlock()
		return
	}

	if h.sound.Loop() {
		if err := h.sound.Play(); err == nil {
			c.mu.Unlock()
			return
		}
		c.log.Warn("Loop restart failed", "clip", name)
	}

	h.state = StateFinished
	if c.current == h {
		c.current = nil
	}
	gen := h.gen
	h.flashTimer = time.AfterFunc(c.finishedFlash, func() { c.clearFlash(name, gen) })
	c.mu.Unlock()

	c.emit(Event{Clip: name, Type: EventFinished})
}

// clearFlash decays Finished into Ready once the flash period elapses
func (c *Controller) clearFlash(name string, gen uint64) {
	c.mu.Lock()
	h := c.handles[name]
	if h == nil || h.gen != gen || h.state != StateFinished {
		c.mu.Unlock()
		return
	}
	h.state = StateReady
	h.flashTimer = nil
	c.mu.Unlock()

	c.emit(Event{Clip: name, Type: EventReady})
}
