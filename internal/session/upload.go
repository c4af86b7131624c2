package session

import (
	"context"

	"github.com/minwonlab/sori/internal/turn"
)

// Uploader submits one finished recording round to the complaint engine.
type Uploader interface {
	Submit(ctx context.Context, audio []byte, sessionID string) (turn.Result, error)
}

// UploadFunc adapts a function to the Uploader interface.
type UploadFunc func(ctx context.Context, audio []byte, sessionID string) (turn.Result, error)

func (f UploadFunc) Submit(ctx context.Context, audio []byte, sessionID string) (turn.Result, error) {
	return f(ctx, audio, sessionID)
}
