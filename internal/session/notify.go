package session

import "github.com/minwonlab/sori/internal/fsm"

// Notifier is the dialogue-facing subset of cue and UI feed behavior.
type Notifier interface {
	StageChanged(state fsm.State)
	RoundText(text string)
	CueListening()
	CueFinish()
	CueError()
	CueCancel()
}

// noopNotifier preserves dialogue flow when no cues or feed are wired.
type noopNotifier struct{}

func (noopNotifier) StageChanged(fsm.State) {}
func (noopNotifier) RoundText(string)       {}
func (noopNotifier) CueListening()          {}
func (noopNotifier) CueFinish()             {}
func (noopNotifier) CueError()              {}
func (noopNotifier) CueCancel()             {}
