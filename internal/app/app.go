package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/minwonlab/sori/internal/audio"
	"github.com/minwonlab/sori/internal/cli"
	"github.com/minwonlab/sori/internal/config"
	"github.com/minwonlab/sori/internal/doctor"
	"github.com/minwonlab/sori/internal/feed"
	"github.com/minwonlab/sori/internal/fsm"
	"github.com/minwonlab/sori/internal/handoff"
	"github.com/minwonlab/sori/internal/ipc"
	"github.com/minwonlab/sori/internal/logging"
	"github.com/minwonlab/sori/internal/narrator"
	"github.com/minwonlab/sori/internal/pipeline"
	"github.com/minwonlab/sori/internal/playback"
	"github.com/minwonlab/sori/internal/session"
	"github.com/minwonlab/sori/internal/turn"
	"github.com/minwonlab/sori/internal/version"
)

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("sori"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("sori"))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandDoctor:
		report := doctor.Run(cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandTap:
		return r.forwardOrFail(ctx, "tap")
	case cli.CommandCancel:
		return r.forwardOrFail(ctx, "cancel")
	case cli.CommandListen:
		return r.commandListen(ctx, cfgLoaded.Config, logger)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

func (r Runner) commandDevices(ctx context.Context) int {
	devices, err := audio.ListDevices(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no audio devices found")
		return 1
	}

	for _, device := range devices {
		defaultMark := " "
		if device.Default {
			defaultMark = "*"
		}
		availability := "yes"
		if !device.Available {
			availability = "no"
		}
		muted := "no"
		if device.Muted {
			muted = "yes"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			defaultMark,
			device.ID,
			device.Description,
			device.State,
			availability,
			muted,
		)
	}

	return 0
}

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}

	resp, handled, err := tryForward(ctx, socketPath, "status")
	if handled {
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		if resp.State == "" {
			resp.State = "idle"
		}
		fmt.Fprintln(r.Stdout, resp.State)
		return 0
	}

	fmt.Fprintln(r.Stdout, "idle")
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, command string) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, command)
	if !handled {
		fmt.Fprintf(r.Stderr, "error: no active sori dialogue\n")
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

// commandListen owns one complete resident dialogue: it acquires the
// control socket, wires the capture/upload/narration collaborators, and
// runs the controller to a terminal result.
func (r Runner) commandListen(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8)
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			fmt.Fprintln(r.Stderr, "error: a dialogue is already running")
			return 1
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	player := playback.NewManager(cfg.Player.Argv, cfg.Sound.Cues, logger)
	defer player.Stop()

	var feedServer *feed.Server
	if cfg.Feed.Enable {
		feedServer = feed.New(cfg.Feed.Addr, cfg.Feed.Path, logger)
		if err := feedServer.Start(); err != nil {
			logger.Warn("ui feed unavailable", "addr", cfg.Feed.Addr, "error", err.Error())
			feedServer = nil
		} else {
			defer feedServer.Close()
			logger.Info("ui feed listening", "addr", feedServer.Addr(), "path", cfg.Feed.Path)
		}
	}

	var levels pipeline.LevelSink
	if feedServer != nil {
		levels = feedServer
	}
	recorder := pipeline.NewRecorder(cfg, levels, logger)

	uploader := turn.NewClient(turn.Options{
		BaseURL:  cfg.Backend.HTTP,
		Path:     cfg.STT.Path,
		Filename: cfg.STT.Filename,
		Language: cfg.STT.Language,
		Timeout:  time.Duration(cfg.STT.UploadTimeoutMS) * time.Millisecond,
	}, logger)

	prompter := narrator.New(narrator.Options{
		BaseURL: cfg.Backend.HTTP,
		Path:    cfg.TTS.Path,
		Speaker: cfg.TTS.Speaker,
		Speed:   cfg.TTS.Speed,
	}, player, logger)

	committer, err := newHandoffCommitter(cfg, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	controller := session.NewController(session.Deps{
		Logger:      logger,
		Capture:     recorder,
		Upload:      uploader,
		Prompt:      prompter,
		Notify:      &dialogueNotifier{player: player, feed: feedServer},
		Commit:      committer,
		IntroPrompt: cfg.Prompts.Intro,
	})

	serverCtx, serverCancel := context.WithCancel(ctx)
	defer serverCancel()

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- ipc.Serve(serverCtx, listener, controller)
	}()

	result := controller.Run(ctx)
	serverCancel()
	if serverErr := <-serverErrCh; serverErr != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", serverErr)
		return 1
	}

	logDialogueResult(logger, result)

	if result.Cancelled {
		fmt.Fprintln(r.Stdout, "cancelled")
		return 0
	}
	if result.Err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", result.Err)
		return 1
	}
	if strings.TrimSpace(result.Text) != "" {
		fmt.Fprintln(r.Stdout, strings.TrimSpace(result.Text))
	}
	if strings.TrimSpace(result.Summary) != "" {
		fmt.Fprintln(r.Stdout, strings.TrimSpace(result.Summary))
	}

	return 0
}

// newHandoffCommitter adapts the staff record writer to the dialogue
// controller's commit contract.
func newHandoffCommitter(cfg config.Config, logger *slog.Logger) (session.Committer, error) {
	stateDir, err := logging.StateDir()
	if err != nil {
		return nil, fmt.Errorf("resolve handoff directory: %w", err)
	}
	writer := handoff.NewCommitter(stateDir, cfg.Handoff.Argv, logger)

	return session.CommitFunc(func(ctx context.Context, result session.Result) error {
		return writer.Commit(ctx, handoff.Record{
			TurnID:       result.TurnID,
			SessionID:    result.SessionID,
			StartedAt:    result.StartedAt,
			FinishedAt:   time.Now(),
			Rounds:       len(result.Turns),
			Text:         result.Text,
			Title:        result.Title,
			Summary:      result.Summary,
			Stage:        result.Engine.Stage,
			Category:     result.Engine.Category,
			HandlingType: result.Engine.HandlingType,
			AudioDevice:  result.AudioDevice,
			Engine:       result.RawEngine,
		})
	}), nil
}

// dialogueNotifier fans dialogue side effects out to cue tones and the
// optional UI feed.
type dialogueNotifier struct {
	player *playback.Manager
	feed   *feed.Server
}

func (n *dialogueNotifier) StageChanged(state fsm.State) {
	if n.feed != nil {
		n.feed.PublishStage(string(state))
	}
}

func (n *dialogueNotifier) RoundText(text string) {
	if n.feed != nil {
		n.feed.PublishText(text)
	}
}

func (n *dialogueNotifier) CueListening() { n.player.CueListening() }
func (n *dialogueNotifier) CueFinish()    { n.player.CueStop() }
func (n *dialogueNotifier) CueError()     { n.player.CueError() }
func (n *dialogueNotifier) CueCancel()    { n.player.CueCancel() }

func logDialogueResult(logger *slog.Logger, result session.Result) {
	if logger == nil {
		return
	}
	fields := []any{
		"state", result.State,
		"cancelled", result.Cancelled,
		"started_at", result.StartedAt.Format(time.RFC3339Nano),
		"finished_at", result.FinishedAt.Format(time.RFC3339Nano),
		"duration_ms", result.FinishedAt.Sub(result.StartedAt).Milliseconds(),
		"audio_device", result.AudioDevice,
		"bytes_captured", result.BytesCaptured,
		"rounds", len(result.Turns),
		"turn_id", result.TurnID,
		"session_id", result.SessionID,
		"stage", result.Engine.Stage,
		"text_chars", len(result.Text),
	}

	if result.Err != nil {
		logger.Error("dialogue failed", append(fields, "error", result.Err.Error())...)
		return
	}
	logger.Info("dialogue complete", fields...)
}

func tryForward(ctx context.Context, socketPath string, command string) (ipc.Response, bool, error) {
	resp, err := ipc.Send(ctx, socketPath, ipc.Request{Command: command}, 220*time.Millisecond)
	if err == nil {
		if resp.OK {
			return resp, true, nil
		}
		return resp, true, errors.New(resp.Error)
	}

	if isSocketMissing(err) {
		return ipc.Response{}, false, nil
	}
	if isConnectionRefused(err) {
		return ipc.Response{}, false, nil
	}

	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", command, err)
}

func isSocketMissing(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, os.ErrNotExist) ||
		strings.Contains(err.Error(), "no such file or directory")
}

func isConnectionRefused(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}
