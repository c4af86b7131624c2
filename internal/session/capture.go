package session

import (
	"context"
	"errors"
)

var (
	// ErrMicUnavailable indicates no usable capture device could be opened.
	ErrMicUnavailable = errors.New("microphone unavailable; check input devices and permissions")
	// ErrCaptureUnavailable indicates runtime capture wiring is missing.
	ErrCaptureUnavailable = errors.New("audio capture pipeline not implemented")
)

// Recording is the capture output consumed by the dialogue controller.
type Recording struct {
	WAV         []byte
	Bytes       int64
	AudioDevice string
}

// Capturer abstracts microphone operations needed by dialogue orchestration.
type Capturer interface {
	Start(context.Context) error
	Stop(context.Context) (Recording, error)
	Cancel(context.Context) error
}

// PlaceholderCapturer is a no-op placeholder used in tests/fallback wiring.
type PlaceholderCapturer struct{}

func (PlaceholderCapturer) Start(context.Context) error {
	return nil
}

func (PlaceholderCapturer) Stop(context.Context) (Recording, error) {
	return Recording{}, ErrCaptureUnavailable
}

func (PlaceholderCapturer) Cancel(context.Context) error {
	return nil
}
