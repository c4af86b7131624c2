package fsm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransitionHappyPath(t *testing.T) {
	s := StateIdle

	next, err := Transition(s, EventStart)
	require.NoError(t, err)
	require.Equal(t, StateIntro, next)

	next, err = Transition(next, EventListen)
	require.NoError(t, err)
	require.Equal(t, StateRecording, next)

	next, err = Transition(next, EventFinish)
	require.NoError(t, err)
	require.Equal(t, StateUploading, next)

	next, err = Transition(next, EventComplete)
	require.NoError(t, err)
	require.Equal(t, StateDone, next)

	next, err = Transition(next, EventReset)
	require.NoError(t, err)
	require.Equal(t, StateIdle, next)
}

func TestTransitionClarificationLoop(t *testing.T) {
	next, err := Transition(StateUploading, EventClarify)
	require.NoError(t, err)
	require.Equal(t, StateClarifying, next)

	next, err = Transition(next, EventListen)
	require.NoError(t, err)
	require.Equal(t, StateRecording, next)
}

func TestTransitionFailFromAnyStateGoesError(t *testing.T) {
	states := []State{StateIdle, StateIntro, StateRecording, StateUploading, StateClarifying, StateDone, StateError}
	for _, state := range states {
		next, err := Transition(state, EventFail)
		require.NoError(t, err)
		require.Equal(t, StateError, next)
	}
}

func TestTransitionMatrixInvalidTransitions(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		event   Event
		want    State
		wantErr bool
	}{
		{name: "idle finish invalid", state: StateIdle, event: EventFinish, want: StateIdle, wantErr: true},
		{name: "idle cancel invalid", state: StateIdle, event: EventCancel, want: StateIdle, wantErr: true},
		{name: "intro cancel valid", state: StateIntro, event: EventCancel, want: StateIdle, wantErr: false},
		{name: "intro finish invalid", state: StateIntro, event: EventFinish, want: StateIntro, wantErr: true},
		{name: "recording start invalid", state: StateRecording, event: EventStart, want: StateRecording, wantErr: true},
		{name: "recording cancel valid", state: StateRecording, event: EventCancel, want: StateIdle, wantErr: false},
		{name: "uploading cancel invalid", state: StateUploading, event: EventCancel, want: StateUploading, wantErr: true},
		{name: "uploading listen invalid", state: StateUploading, event: EventListen, want: StateUploading, wantErr: true},
		{name: "clarifying cancel valid", state: StateClarifying, event: EventCancel, want: StateIdle, wantErr: false},
		{name: "clarifying complete invalid", state: StateClarifying, event: EventComplete, want: StateClarifying, wantErr: true},
		{name: "done start invalid", state: StateDone, event: EventStart, want: StateDone, wantErr: true},
		{name: "error reset valid", state: StateError, event: EventReset, want: StateIdle, wantErr: false},
		{name: "error start invalid", state: StateError, event: EventStart, want: StateError, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next, err := Transition(tc.state, tc.event)
			require.Equal(t, tc.want, next)
			if tc.wantErr {
				require.Error(t, err)
				require.Contains(t, err.Error(), "invalid transition")
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestTransitionUnknownState(t *testing.T) {
	_, err := Transition(State("bogus"), EventStart)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown state")
}
