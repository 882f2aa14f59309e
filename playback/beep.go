package playback

import (
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// Output owns the speaker device. Exactly one Output should exist per
// process; every beep-backed Sound plays through it.
type Output struct {
	sampleRate beep.SampleRate
}

// NewOutput initializes the speaker with the given sample rate
func NewOutput(sampleRate int) (*Output, error) {
	sr := beep.SampleRate(sampleRate)
	if err := speaker.Init(sr, sr.N(100*time.Millisecond)); err != nil {
		return nil, fmt.Errorf("failed to initialize speaker: %w", err)
	}
	return &Output{sampleRate: sr}, nil
}

// Close shuts the speaker down
func (o *Output) Close() {
	speaker.Close()
}

// newSound wraps a decoded buffer in a Sound bound to this output
func (o *Output) newSound(name string, buf *beep.Buffer) *beepSound {
	return &beepSound{name: name, buf: buf, sampleRate: o.sampleRate}
}

// beepSound implements Sound on top of a fully decoded beep.Buffer. Each
// Play builds a fresh streamer from the buffer, so a non-looping play
// always starts at position zero. Natural end is observed through a
// callback streamer sequenced after the clip; a looping sound replays
// itself there instead of surfacing the end.
type beepSound struct {
	name       string
	sampleRate beep.SampleRate

	mu      sync.Mutex
	buf     *beep.Buffer
	ctrl    *beep.Ctrl // non-nil while queued on the speaker
	loop    bool
	onEnded func()
	closed  bool
}

func (s *beepSound) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.buf != nil
}

func (s *beepSound) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl != nil
}

func (s *beepSound) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playLocked()
}

func (s *beepSound) playLocked() error {
	if s.closed || s.buf == nil {
		return fmt.Errorf("sound %q is closed", s.name)
	}
	s.stopLocked()

	ctrl := &beep.Ctrl{}
	var streamer beep.Streamer = s.buf.Streamer(0, s.buf.Len())
	streamer = beep.Seq(streamer, beep.Callback(func() {
		// Runs on the speaker goroutine with the speaker locked; hand off
		// so the end handler can touch the speaker again.
		go s.finished(ctrl)
	}))
	if s.buf.Format().SampleRate != s.sampleRate {
		streamer = beep.Resample(4, s.buf.Format().SampleRate, s.sampleRate, streamer)
	}
	ctrl.Streamer = streamer

	s.ctrl = ctrl
	speaker.Play(ctrl)
	return nil
}

// finished handles the natural end of one play. A looping sound replays
// immediately and never surfaces the end; otherwise the registered
// observer is notified. ctrl identifies the play that ended, so an end
// racing a Stop or a replacement Play is ignored.
func (s *beepSound) finished(ctrl *beep.Ctrl) {
	s.mu.Lock()
	if s.ctrl != ctrl {
		s.mu.Unlock()
		return
	}
	s.ctrl = nil
	if s.loop {
		err := s.playLocked()
		s.mu.Unlock()
		if err != nil {
			s.notifyEnded()
		}
		return
	}
	s.mu.Unlock()
	s.notifyEnded()
}

func (s *beepSound) notifyEnded() {
	s.mu.Lock()
	fn := s.onEnded
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (s *beepSound) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *beepSound) stopLocked() {
	if s.ctrl == nil {
		return
	}
	speaker.Lock()
	s.ctrl.Streamer = nil
	speaker.Unlock()
	s.ctrl = nil
}

func (s *beepSound) SetLoop(loop bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loop = loop
}

func (s *beepSound) Loop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loop
}

func (s *beepSound) OnEnded(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEnded = fn
}

func (s *beepSound) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.closed = true
	s.buf = nil
	return nil
}
