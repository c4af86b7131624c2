// Package session coordinates the complaint dialogue lifecycle: intro
// prompt, recording rounds, clarification loops, and the final handoff.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/minwonlab/sori/internal/fsm"
	"github.com/minwonlab/sori/internal/guidance"
	"github.com/minwonlab/sori/internal/ipc"
	"github.com/minwonlab/sori/internal/turn"
)

type action int

const (
	actionFinish action = iota + 1
	actionCancel
)

// queuedAction carries the recording round a tap was accepted in, so a
// tap left over from an earlier round can never finish a later one.
// Cancels apply to the dialogue as a whole and ignore the round.
type queuedAction struct {
	kind  action
	round uint64
}

// Spoken when a round cannot be submitted or the microphone fails.
const (
	uploadFailedPrompt = "죄송합니다. 접수 중 오류가 발생했습니다. 잠시 후 다시 시도해 주세요."
	micFailedPrompt    = "마이크를 사용할 수 없습니다. 직원에게 문의해 주세요."
)

// Result is the complete dialogue output returned by one Run invocation.
type Result struct {
	State     fsm.State
	Cancelled bool
	Err       error

	TurnID    string
	SessionID string
	Text      string
	Title     string
	Summary   string
	Engine    turn.EngineResult
	RawEngine json.RawMessage
	Turns     []TurnRecord

	BytesCaptured int64
	AudioDevice   string
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Deps are the injectable collaborators of a dialogue controller.
type Deps struct {
	Logger      *slog.Logger
	Capture     Capturer
	Upload      Uploader
	Prompt      Prompter
	Notify      Notifier
	Commit      Committer
	IntroPrompt string
}

// Controller orchestrates dialogue state transitions and side effects.
type Controller struct {
	logger  *slog.Logger
	capture Capturer
	upload  Uploader
	prompt  Prompter
	notify  Notifier
	commit  Committer
	intro   string

	mu    sync.RWMutex
	state fsm.State
	round uint64

	convo   *conversation
	actions chan queuedAction
}

// NewController constructs a dialogue controller with safe default fallbacks.
func NewController(deps Deps) *Controller {
	if deps.Capture == nil {
		deps.Capture = PlaceholderCapturer{}
	}
	if deps.Upload == nil {
		deps.Upload = UploadFunc(func(context.Context, []byte, string) (turn.Result, error) {
			return turn.Result{}, ErrCaptureUnavailable
		})
	}
	if deps.Prompt == nil {
		deps.Prompt = noopPrompter{}
	}
	if deps.Notify == nil {
		deps.Notify = noopNotifier{}
	}
	if deps.Commit == nil {
		deps.Commit = CommitFunc(func(context.Context, Result) error { return nil })
	}

	return &Controller{
		logger:  deps.Logger,
		capture: deps.Capture,
		upload:  deps.Upload,
		prompt:  deps.Prompt,
		notify:  deps.Notify,
		commit:  deps.Commit,
		intro:   deps.IntroPrompt,
		state:   fsm.StateIdle,
		convo:   newConversation(deps.Logger),
		actions: make(chan queuedAction, 1),
	}
}

// State returns the current FSM state snapshot.
func (c *Controller) State() fsm.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// snapshot reads the state and the recording round it belongs to in one
// consistent view.
func (c *Controller) snapshot() (fsm.State, uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state, c.round
}

// transition applies one FSM event to the controller state. Entering the
// recording state opens a new round; taps are only honored for the round
// that was live when they were accepted.
func (c *Controller) transition(event fsm.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := fsm.Transition(c.state, event)
	if err != nil {
		return err
	}
	if next == fsm.StateRecording && c.state != fsm.StateRecording {
		c.round++
	}
	c.state = next
	return nil
}

// Run executes one resident dialogue from intro to completion, cancel,
// or failure. The handoff commit happens at most once, on completion.
func (c *Controller) Run(ctx context.Context) Result {
	result := Result{StartedAt: time.Now()}

	defer func() {
		// Silence any prompt left playing regardless of exit path.
		c.prompt.Silence()
	}()

	if err := c.transition(fsm.EventStart); err != nil {
		return c.finish(result, err)
	}
	c.notify.StageChanged(fsm.StateIntro)

	// The intro plays exactly once per dialogue; clarification rounds
	// re-arm the microphone without replaying it.
	c.prompt.SayAndWait(ctx, c.intro)

	for {
		if err := c.transition(fsm.EventListen); err != nil {
			c.toErrorAndReset()
			return c.finish(result, err)
		}
		c.notify.StageChanged(fsm.StateRecording)

		if err := c.capture.Start(ctx); err != nil {
			c.notify.CueError()
			c.prompt.SayAndWait(ctx, micFailedPrompt)
			c.toErrorAndReset()
			return c.finish(result, fmt.Errorf("%w: %v", ErrMicUnavailable, err))
		}
		c.notify.CueListening()

		act, err := c.waitAction(ctx)
		if err != nil {
			_ = c.capture.Cancel(context.Background())
			c.notify.CueCancel()
			c.toErrorAndReset()
			return c.finish(result, err)
		}

		if act == actionCancel {
			_ = c.capture.Cancel(context.Background())
			c.notify.CueCancel()
			_ = c.transition(fsm.EventCancel)
			result.Cancelled = true
			return c.finish(result, nil)
		}

		done, err := c.runRound(ctx, &result)
		if err != nil {
			return c.finish(result, err)
		}
		if done {
			return c.finish(result, result.Err)
		}
	}
}

// waitAction blocks until a control action for the live recording round
// arrives. A finish tap stamped with an earlier round is a double-tap
// that slipped past the state guard while the previous round was being
// submitted; it is dropped so it cannot end a round the citizen never
// spoke in. Cancels are honored regardless of round.
func (c *Controller) waitAction(ctx context.Context) (action, error) {
	_, round := c.snapshot()

	for {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case qa := <-c.actions:
			if qa.kind == actionFinish && qa.round != round {
				c.logStaleTap(qa.round, round)
				continue
			}
			return qa.kind, nil
		}
	}
}

// runRound finishes the live recording, submits it, and either completes
// the dialogue or arms the next clarification round.
func (c *Controller) runRound(ctx context.Context, result *Result) (done bool, err error) {
	if err := c.transition(fsm.EventFinish); err != nil {
		c.toErrorAndReset()
		return false, err
	}
	c.notify.StageChanged(fsm.StateUploading)
	c.notify.CueFinish()

	rec, err := c.capture.Stop(ctx)
	result.BytesCaptured += rec.Bytes
	if rec.AudioDevice != "" {
		result.AudioDevice = rec.AudioDevice
	}
	if err != nil {
		c.notify.CueError()
		c.prompt.SayAndWait(ctx, uploadFailedPrompt)
		c.toErrorAndReset()
		return false, err
	}

	res, err := c.upload.Submit(ctx, rec.WAV, c.convo.Token())
	if err != nil {
		c.notify.CueError()
		c.prompt.SayAndWait(ctx, uploadFailedPrompt)
		c.toErrorAndReset()
		return false, err
	}

	record := c.convo.Record(res)
	c.notify.RoundText(res.Text)
	c.logRound(record, res)

	if res.Clarification() {
		if err := c.transition(fsm.EventClarify); err != nil {
			c.toErrorAndReset()
			return false, err
		}
		c.notify.StageChanged(fsm.StateClarifying)
		c.prompt.SayAndWait(ctx, guidance.ClarifyQuestion(res))
		return false, nil
	}

	if err := c.transition(fsm.EventComplete); err != nil {
		c.toErrorAndReset()
		return false, err
	}
	c.notify.StageChanged(fsm.StateDone)

	result.TurnID = record.ID
	result.SessionID = c.convo.Token()
	result.Text = res.Text
	result.Title = guidance.Title(res)
	result.Summary = guidance.Summary(res)
	result.Engine = res.Engine
	result.RawEngine = res.RawEngine
	result.Turns = c.convo.Turns()

	// The staff record is written before the closing narration so a
	// power cut mid-prompt cannot lose a completed complaint.
	if err := c.commit.Commit(ctx, *result); err != nil {
		c.logCommitFailure(err)
		result.Err = err
	}

	c.prompt.SayAndWait(ctx, guidance.Narration(res))
	return true, nil
}

// Handle serves control commands for the active dialogue owner.
func (c *Controller) Handle(_ context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case "status":
		state := c.State()
		return ipc.Response{OK: true, State: string(state), Stage: c.stageFor(state), Message: "status"}
	case "tap":
		return c.requestFinish()
	case "cancel":
		return c.requestCancel()
	default:
		return ipc.Response{OK: false, State: string(c.State()), Error: fmt.Sprintf("unknown command: %s", req.Command)}
	}
}

// requestFinish enqueues a finish action; taps outside an active
// recording are acknowledged and dropped. The round is read in the same
// snapshot as the state guard, so a tap that raced the end of its round
// carries the old round number and is discarded by waitAction.
func (c *Controller) requestFinish() ipc.Response {
	state, round := c.snapshot()
	if state != fsm.StateRecording {
		return ipc.Response{OK: true, State: string(state), Message: "tap ignored"}
	}

	select {
	case c.actions <- queuedAction{kind: actionFinish, round: round}:
		return ipc.Response{OK: true, State: string(state), Message: "finish requested"}
	default:
		return ipc.Response{OK: true, State: string(state), Message: "finish already requested"}
	}
}

// requestCancel enqueues a cancel action when state permits it.
func (c *Controller) requestCancel() ipc.Response {
	state, round := c.snapshot()
	switch state {
	case fsm.StateUploading:
		return ipc.Response{OK: false, State: string(state), Error: "cannot cancel while uploading"}
	case fsm.StateIntro, fsm.StateRecording, fsm.StateClarifying:
	default:
		return ipc.Response{OK: false, State: string(state), Error: fmt.Sprintf("cannot cancel from state %s", state)}
	}

	// Stop any narration immediately so a queued cancel does not have to
	// wait for the prompt to finish.
	c.prompt.Silence()

	select {
	case c.actions <- queuedAction{kind: actionCancel, round: round}:
		return ipc.Response{OK: true, State: string(state), Message: "cancel requested"}
	default:
		return ipc.Response{OK: true, State: string(state), Message: "cancel already requested"}
	}
}

// stageFor maps controller states to the engine stage vocabulary used by
// the kiosk UI.
func (c *Controller) stageFor(state fsm.State) string {
	if state == fsm.StateClarifying {
		return turn.StageClarification
	}
	return ""
}

// finish stamps the terminal fields shared by every exit path.
func (c *Controller) finish(result Result, err error) Result {
	result.State = c.State()
	if result.Err == nil {
		result.Err = err
	}
	if result.Turns == nil {
		result.Turns = c.convo.Turns()
	}
	if result.SessionID == "" {
		result.SessionID = c.convo.Token()
	}
	result.FinishedAt = time.Now()
	return result
}

// toErrorAndReset transitions to error and back to idle best-effort.
func (c *Controller) toErrorAndReset() {
	_ = c.transition(fsm.EventFail)
	c.notify.StageChanged(fsm.StateError)
	_ = c.transition(fsm.EventReset)
}

func (c *Controller) logRound(record TurnRecord, res turn.Result) {
	if c.logger == nil {
		return
	}
	c.logger.Info("dialogue round complete",
		"turn_id", record.ID,
		"stage", res.Engine.Stage,
		"session_id", res.SessionID,
		"text_chars", len(res.Text),
	)
}

func (c *Controller) logStaleTap(tapped, live uint64) {
	if c.logger == nil {
		return
	}
	c.logger.Warn("dropping finish tap from an earlier round",
		"tap_round", tapped, "live_round", live)
}

func (c *Controller) logCommitFailure(err error) {
	if c.logger == nil || err == nil {
		return
	}
	c.logger.Error("handoff commit failed", "error", err.Error())
}
