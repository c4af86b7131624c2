// Package pipeline owns the end-to-end microphone capture pipeline for
// one dialogue: device selection, raw PCM capture, the live amplitude
// pump, and WAV packaging for upload.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/minwonlab/sori/internal/audio"
	"github.com/minwonlab/sori/internal/config"
	"github.com/minwonlab/sori/internal/logging"
	"github.com/minwonlab/sori/internal/session"
)

// Amplitude is published to the kiosk UI at roughly this cadence while
// the microphone is live.
const levelInterval = 33 * time.Millisecond

// LevelSink receives live amplitude updates in [0, 1].
type LevelSink interface {
	PublishLevel(value float64)
}

// Recorder owns one capture instance per recording round and implements
// the dialogue controller's capture contract.
type Recorder struct {
	cfg    config.Config
	logger *slog.Logger
	levels LevelSink

	mu        sync.Mutex
	started   bool
	selection audio.Selection
	capture   *audio.Capture
	pumpDone  chan struct{}
}

// NewRecorder constructs a capture recorder from runtime config. levels
// may be nil when no UI feed is wired.
func NewRecorder(cfg config.Config, levels LevelSink, logger *slog.Logger) *Recorder {
	return &Recorder{cfg: cfg, logger: logger, levels: levels}
}

// Start resolves device selection and begins capturing PCM.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return fmt.Errorf("recorder already started")
	}

	selection, err := audio.SelectDevice(ctx, r.cfg.Audio.Input, r.cfg.Audio.Fallback)
	if err != nil {
		return err
	}
	r.selection = selection
	if selection.Warning != "" {
		r.logWarn(selection.Warning)
	}

	capture, err := audio.StartCapture(ctx, selection.Device)
	if err != nil {
		return err
	}
	r.capture = capture

	r.pumpDone = make(chan struct{})
	go r.pumpLevels(capture, r.pumpDone)

	r.started = true
	return nil
}

// Stop ends capture and packages the round for upload. The last
// amplitude value stays frozen on the UI until the next round starts.
func (r *Recorder) Stop(_ context.Context) (session.Recording, error) {
	r.mu.Lock()
	started := r.started
	capture := r.capture
	selection := r.selection
	pumpDone := r.pumpDone
	r.started = false
	r.capture = nil
	r.pumpDone = nil
	r.mu.Unlock()

	if !started || capture == nil {
		return session.Recording{}, session.ErrCaptureUnavailable
	}

	_ = capture.Stop()
	if pumpDone != nil {
		close(pumpDone)
	}

	rawPCM := capture.RawPCM()
	r.writeDebugAudio(rawPCM)

	return session.Recording{
		WAV:         audio.EncodeWAV(rawPCM, audio.SampleRate, 1),
		Bytes:       capture.BytesCaptured(),
		AudioDevice: describeDevice(selection.Device),
	}, nil
}

// Cancel stops capture immediately and discards the round.
func (r *Recorder) Cancel(_ context.Context) error {
	r.mu.Lock()
	capture := r.capture
	pumpDone := r.pumpDone
	r.started = false
	r.capture = nil
	r.pumpDone = nil
	r.mu.Unlock()

	if capture != nil {
		_ = capture.Stop()
		r.writeDebugAudio(capture.RawPCM())
	}
	if pumpDone != nil {
		close(pumpDone)
	}
	return nil
}

// pumpLevels publishes the live amplitude until the round ends.
func (r *Recorder) pumpLevels(capture *audio.Capture, done chan struct{}) {
	if r.levels == nil {
		return
	}

	ticker := time.NewTicker(levelInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			r.levels.PublishLevel(capture.Level())
		}
	}
}

// describeDevice formats device metadata for logs and dialogue results.
func describeDevice(device audio.Device) string {
	description := strings.TrimSpace(device.Description)
	id := strings.TrimSpace(device.ID)
	if description == "" {
		return id
	}
	if id == "" {
		return description
	}
	return fmt.Sprintf("%s (%s)", description, id)
}

// logWarn emits warning-level logs when logger is configured.
func (r *Recorder) logWarn(message string) {
	if r.logger == nil {
		return
	}
	r.logger.Warn(message)
}

// writeDebugAudio dumps the round's raw PCM as a timestamped WAV when
// debug.audio_dump is enabled.
func (r *Recorder) writeDebugAudio(rawPCM []byte) {
	if !r.cfg.Debug.EnableAudioDump || len(rawPCM) == 0 {
		return
	}

	stateDir, err := logging.StateDir()
	if err != nil {
		r.logWarn(fmt.Sprintf("unable to resolve state dir: %v", err))
		return
	}

	debugDir := filepath.Join(stateDir, "debug")
	if err := os.MkdirAll(debugDir, 0o700); err != nil {
		r.logWarn(fmt.Sprintf("unable to create debug dir: %v", err))
		return
	}

	timestamp := time.Now().Format("20060102-150405.000")
	path := filepath.Join(debugDir, fmt.Sprintf("audio-%s.wav", timestamp))
	if err := os.WriteFile(path, audio.EncodeWAV(rawPCM, audio.SampleRate, 1), 0o600); err != nil {
		r.logWarn(fmt.Sprintf("unable to write debug audio dump: %v", err))
	}
}
