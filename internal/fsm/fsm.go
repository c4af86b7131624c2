package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle       State = "idle"
	StateIntro      State = "intro"
	StateRecording  State = "recording"
	StateUploading  State = "uploading"
	StateClarifying State = "clarifying"
	StateDone       State = "done"
	StateError      State = "error"
)

const (
	EventStart    Event = "start"
	EventListen   Event = "listen"
	EventFinish   Event = "finish"
	EventClarify  Event = "clarify"
	EventComplete Event = "complete"
	EventCancel   Event = "cancel"
	EventFail     Event = "fail"
	EventReset    Event = "reset"
)

func Transition(current State, event Event) (State, error) {
	if event == EventFail {
		return StateError, nil
	}

	switch current {
	case StateIdle:
		switch event {
		case EventStart:
			return StateIntro, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateIntro:
		switch event {
		case EventListen:
			return StateRecording, nil
		case EventCancel:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateRecording:
		switch event {
		case EventFinish:
			return StateUploading, nil
		case EventCancel:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateUploading:
		switch event {
		case EventClarify:
			return StateClarifying, nil
		case EventComplete:
			return StateDone, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateClarifying:
		switch event {
		case EventListen:
			return StateRecording, nil
		case EventCancel:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateDone:
		switch event {
		case EventReset:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateError:
		switch event {
		case EventReset:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
