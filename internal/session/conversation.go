package session

import (
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/minwonlab/sori/internal/turn"
)

// TurnRecord is one completed recording round inside a dialogue.
type TurnRecord struct {
	ID    string    `json:"id"`
	At    time.Time `json:"at"`
	Stage string    `json:"stage,omitempty"`
	Text  string    `json:"text"`
}

// conversation tracks the dialogue token and per-round history.
//
// The first non-empty token the engine returns is adopted for the rest of
// the dialogue. Later tokens never replace it; a differing one is logged
// so a misbehaving engine shows up in diagnostics instead of silently
// splitting the dialogue across two server sessions.
type conversation struct {
	logger *slog.Logger
	token  string
	turns  []TurnRecord
}

func newConversation(logger *slog.Logger) *conversation {
	return &conversation{logger: logger}
}

// Token returns the adopted dialogue token, empty before the first round.
func (c *conversation) Token() string {
	return c.token
}

// Rounds returns how many recording rounds have completed.
func (c *conversation) Rounds() int {
	return len(c.turns)
}

// Turns returns a copy of the per-round history.
func (c *conversation) Turns() []TurnRecord {
	out := make([]TurnRecord, len(c.turns))
	copy(out, c.turns)
	return out
}

// Record adopts the round's token and appends it to the history.
func (c *conversation) Record(result turn.Result) TurnRecord {
	c.adoptToken(result.SessionID)

	record := TurnRecord{
		ID:    uuid.NewString(),
		At:    time.Now(),
		Stage: result.Engine.Stage,
		Text:  result.Text,
	}
	c.turns = append(c.turns, record)
	return record
}

func (c *conversation) adoptToken(token string) {
	token = strings.TrimSpace(token)
	if token == "" {
		return
	}
	if c.token == "" {
		c.token = token
		return
	}
	if c.token != token && c.logger != nil {
		c.logger.Warn("engine returned a different dialogue token; keeping the adopted one",
			"adopted", c.token, "returned", token)
	}
}
