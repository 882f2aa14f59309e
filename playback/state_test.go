package playback

import "testing"

func TestState_Loaded(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StateUnloaded, false},
		{StateLoading, false},
		{StateReady, true},
		{StatePlaying, true},
		{StateFinished, true},
		{StateError, false},
	}

	for _, test := range tests {
		result := test.state.Loaded()
		if result != test.expected {
			t.Errorf("State(%s).Loaded() = %v, expected %v", test.state, result, test.expected)
		}
	}
}

func TestState_Busy(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StateUnloaded, false},
		{StateLoading, true},
		{StateReady, false},
		{StatePlaying, true},
		{StateFinished, false},
		{StateError, false},
	}

	for _, test := range tests {
		result := test.state.Busy()
		if result != test.expected {
			t.Errorf("State(%s).Busy() = %v, expected %v", test.state, result, test.expected)
		}
	}
}
