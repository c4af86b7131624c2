// Package playback owns the single spoken-prompt audio channel and cue tones.
package playback

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
)

// Handle is one live audio playback that can be silenced or waited on.
type Handle interface {
	Stop()

	// Done is closed once the playback has finished or was stopped.
	Done() <-chan struct{}
}

// StartFunc launches playback of an audio file and returns its live handle.
type StartFunc func(path string) (Handle, error)

// Manager serializes all spoken-prompt playback through one handle.
//
// Creating a new playback always silences the previous one first; at most
// one prompt is audible across the whole process.
type Manager struct {
	logger *slog.Logger
	start  StartFunc
	cues   bool

	mu      sync.Mutex
	current Handle

	cueMu sync.Mutex
}

// NewManager builds a playback manager around the configured player command.
func NewManager(playerArgv []string, cues bool, logger *slog.Logger) *Manager {
	return &Manager{
		logger: logger,
		start:  commandStarter(playerArgv),
		cues:   cues,
	}
}

// NewManagerWithStarter is the test seam for injecting a fake player.
func NewManagerWithStarter(start StartFunc, cues bool, logger *slog.Logger) *Manager {
	return &Manager{logger: logger, start: start, cues: cues}
}

// Play silences any current playback and starts the audio file at path.
// Start failures are logged and swallowed; the prompt is simply not heard.
func (m *Manager) Play(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		m.current.Stop()
		m.current = nil
	}

	handle, err := m.start(path)
	if err != nil {
		m.log("prompt playback start failed", err)
		return
	}
	m.current = handle
}

// PlayWait plays the audio file at path exclusively and blocks until the
// playback finishes or ctx is cancelled. Cancellation silences the prompt.
func (m *Manager) PlayWait(ctx context.Context, path string) {
	m.mu.Lock()

	if m.current != nil {
		m.current.Stop()
		m.current = nil
	}

	handle, err := m.start(path)
	if err != nil {
		m.mu.Unlock()
		m.log("prompt playback start failed", err)
		return
	}
	m.current = handle
	m.mu.Unlock()

	select {
	case <-handle.Done():
	case <-ctx.Done():
		handle.Stop()
	}

	m.mu.Lock()
	if m.current == handle {
		m.current = nil
	}
	m.mu.Unlock()
}

// Stop silences and releases the current playback. Idempotent.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return
	}
	m.current.Stop()
	m.current = nil
}

// commandStarter launches the configured player binary on an audio file.
func commandStarter(argv []string) StartFunc {
	return func(path string) (Handle, error) {
		if len(argv) == 0 {
			return nil, fmt.Errorf("player command is empty")
		}

		args := append(append([]string(nil), argv[1:]...), path)
		cmd := exec.Command(argv[0], args...)
		if err := cmd.Start(); err != nil {
			return nil, fmt.Errorf("start player %s: %w", argv[0], err)
		}

		done := make(chan struct{})
		go func() {
			_ = cmd.Wait()
			close(done)
		}()
		return &processHandle{cmd: cmd, done: done}, nil
	}
}

// processHandle wraps one player process lifetime.
type processHandle struct {
	cmd  *exec.Cmd
	done chan struct{}
}

// Stop kills the player process and waits for it to be reaped.
func (h *processHandle) Stop() {
	if h.cmd.Process != nil {
		_ = h.cmd.Process.Kill()
	}
	<-h.done
}

func (h *processHandle) Done() <-chan struct{} {
	return h.done
}

// log emits playback failures to the runtime logger.
func (m *Manager) log(message string, err error) {
	if m.logger == nil || err == nil {
		return
	}
	m.logger.Warn(message, "error", err.Error())
}
