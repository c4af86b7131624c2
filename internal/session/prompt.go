package session

import "context"

// Prompter speaks guidance to the resident through the exclusive audio
// channel. SayAndWait blocks so a prompt never bleeds into a recording.
type Prompter interface {
	Say(ctx context.Context, text string)
	SayAndWait(ctx context.Context, text string)
	Silence()
}

// noopPrompter preserves dialogue flow when no narration is wired.
type noopPrompter struct{}

func (noopPrompter) Say(context.Context, string)        {}
func (noopPrompter) SayAndWait(context.Context, string) {}
func (noopPrompter) Silence()                           {}
