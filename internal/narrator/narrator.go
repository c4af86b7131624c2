// Package narrator turns guidance text into spoken prompts via the
// backend speech-synthesis endpoint and the shared playback channel.
package narrator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/minwonlab/sori/internal/playback"
)

const defaultTimeout = 15 * time.Second

// Options configure the synthesis endpoint and voice.
type Options struct {
	BaseURL string
	Path    string
	Speaker string
	Speed   int
	Timeout time.Duration
}

// Narrator synthesizes Korean guidance text and speaks it through the
// exclusive playback manager. All failures are logged and swallowed;
// narration never interrupts the dialogue itself.
type Narrator struct {
	endpoint string
	speaker  string
	speed    int
	http     *http.Client
	playback *playback.Manager
	logger   *slog.Logger
}

// New builds a narrator against the configured backend.
func New(opts Options, pb *playback.Manager, logger *slog.Logger) *Narrator {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Narrator{
		endpoint: strings.TrimRight(opts.BaseURL, "/") + opts.Path,
		speaker:  opts.Speaker,
		speed:    opts.Speed,
		http:     &http.Client{Timeout: timeout},
		playback: pb,
		logger:   logger,
	}
}

// Say speaks text without blocking the caller. The previous prompt is
// silenced as soon as this one is ready.
func (n *Narrator) Say(ctx context.Context, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	go n.speak(ctx, text)
}

// SayAndWait speaks text and blocks until the prompt has finished playing
// or ctx is cancelled. Used before arming the microphone so the prompt
// does not bleed into the recording.
func (n *Narrator) SayAndWait(ctx context.Context, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	n.speak(ctx, text)
}

// Silence stops whatever prompt is currently audible.
func (n *Narrator) Silence() {
	n.playback.Stop()
}

func (n *Narrator) speak(ctx context.Context, text string) {
	path, err := n.synthesize(ctx, text)
	if err != nil {
		n.log("narration synthesis failed", err)
		return
	}
	defer os.Remove(path)

	n.playback.PlayWait(ctx, path)
}

// synthesize posts the text to the synthesis endpoint and spools the
// returned audio to a temporary file.
func (n *Narrator) synthesize(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"text":    text,
		"speaker": n.speaker,
		"speed":   n.speed,
	})
	if err != nil {
		return "", fmt.Errorf("encode synthesis request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build synthesis request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("synthesis request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("synthesis returned status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp("", "sori-prompt-*.mp3")
	if err != nil {
		return "", fmt.Errorf("create prompt file: %v", err)
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("spool prompt audio: %v", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close prompt file: %v", err)
	}
	return tmp.Name(), nil
}

func (n *Narrator) log(message string, err error) {
	if n.logger == nil {
		return
	}
	n.logger.Warn(message, "error", err.Error())
}
