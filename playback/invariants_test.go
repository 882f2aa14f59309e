package playback

import (
	"context"
	"fmt"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/telagraphic/sfx-board/catalog"
)

// ============================================================================
// Property-Based Tests for State Invariants
// ============================================================================

// TestProperty_AtMostOneClipPlaying verifies that no sequence of gestures
// and end signals can make two clips audible at once.
func TestProperty_AtMostOneClipPlaying(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		numClips := rapid.IntRange(1, 6).Draw(t, "numClips")
		clips := make([]catalog.Clip, numClips)
		for i := range clips {
			clips[i] = catalog.Clip{
				Name: fmt.Sprintf("clip-%d", i),
				File: fmt.Sprintf("clip-%d.mp3", i),
			}
		}

		loader := newFakeLoader()
		ctrl := NewController(&testCatalog{clips: clips}, loader, Options{FinishedFlash: time.Hour})
		defer ctrl.Close()

		numOps := rapid.IntRange(1, 40).Draw(t, "numOps")
		for i := 0; i < numOps; i++ {
			clip := clips[rapid.IntRange(0, numClips-1).Draw(t, fmt.Sprintf("clip-%d", i))].Name
			switch rapid.IntRange(0, 3).Draw(t, fmt.Sprintf("op-%d", i)) {
			case 0, 1:
				_ = ctrl.Activate(context.Background(), clip)
			case 2:
				_, _ = ctrl.ToggleLoop(context.Background(), clip)
			case 3:
				if s := loader.sound(clip); s != nil {
					s.fireEnd()
				}
			}

			// INVARIANT: at most one clip is in the Playing state
			playing := 0
			for name, status := range ctrl.Snapshot() {
				if status.State == StatePlaying {
					playing++
					if s := loader.sound(name); s != nil && !s.Playing() {
						t.Fatalf("clip %s marked Playing but its sound is silent", name)
					}
				}
			}
			if playing > 1 {
				t.Fatalf("%d clips are Playing, expected at most 1", playing)
			}

			// INVARIANT: the current clip, when set, is the playing one
			if current, ok := ctrl.CurrentClip(); ok {
				if ctrl.Snapshot()[current].State != StatePlaying {
					t.Fatalf("current clip %s is not Playing", current)
				}
			} else if playing != 0 {
				t.Fatalf("a clip is Playing but no current clip is set")
			}
		}
	})
}

// TestProperty_FailedLoadsNeverStick verifies that whatever mix of load
// failures occurs, no clip is ever left stuck: after the dust settles,
// every clip either holds a usable sound or is retryable, and a retry with
// a healthy loader always recovers it.
func TestProperty_FailedLoadsNeverStick(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		clips := []catalog.Clip{
			{Name: "a", File: "a.mp3"},
			{Name: "b", File: "b.mp3"},
		}
		loader := newFakeLoader()
		ctrl := NewController(&testCatalog{clips: clips}, loader, Options{})
		defer ctrl.Close()

		numOps := rapid.IntRange(1, 20).Draw(t, "numOps")
		for i := 0; i < numOps; i++ {
			clip := clips[rapid.IntRange(0, 1).Draw(t, fmt.Sprintf("clip-%d", i))].Name
			if rapid.Bool().Draw(t, fmt.Sprintf("fail-%d", i)) {
				loader.setFail(clip, &UnreachableError{Clip: clip, Target: clip, Status: 404})
			} else {
				loader.setFail(clip, nil)
			}
			_ = ctrl.Activate(context.Background(), clip)

			// INVARIANT: a finished operation never leaves Loading behind
			for name, status := range ctrl.Snapshot() {
				if status.State == StateLoading {
					t.Fatalf("clip %s is stuck in Loading", name)
				}
			}
		}

		// With failures cleared, every clip must be recoverable
		loader.setFail("a", nil)
		loader.setFail("b", nil)
		for _, clip := range clips {
			if err := ctrl.EnsureLoaded(context.Background(), clip.Name); err != nil {
				t.Fatalf("clip %s did not recover: %v", clip.Name, err)
			}
		}
	})
}
