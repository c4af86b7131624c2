// Package handoff applies finished-dialogue side effects: the staff
// record file and the optional relay command.
package handoff

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// Record is the staff-facing artifact of one finished dialogue.
type Record struct {
	TurnID       string          `json:"turn_id"`
	SessionID    string          `json:"session_id,omitempty"`
	StartedAt    time.Time       `json:"started_at"`
	FinishedAt   time.Time       `json:"finished_at"`
	Rounds       int             `json:"rounds"`
	Text         string          `json:"text"`
	Title        string          `json:"title,omitempty"`
	Summary      string          `json:"summary"`
	Stage        string          `json:"stage,omitempty"`
	Category     string          `json:"category,omitempty"`
	HandlingType string          `json:"handling_type,omitempty"`
	AudioDevice  string          `json:"audio_device,omitempty"`
	Engine       json.RawMessage `json:"engine_result,omitempty"`
}

// Committer persists the record and optionally relays it to a command.
type Committer struct {
	dir    string
	argv   []string
	logger *slog.Logger
}

// NewCommitter builds a committer writing records under dir. argv, when
// non-empty, is run once per record with the JSON piped to stdin.
func NewCommitter(dir string, argv []string, logger *slog.Logger) *Committer {
	return &Committer{dir: dir, argv: argv, logger: logger}
}

// Commit writes the record to last_turn.json and dispatches the relay
// command. A relay failure is logged; the record file remains the source
// of truth for staff.
func (c *Committer) Commit(ctx context.Context, record Record) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("encode handoff record: %v", err)
	}
	data = append(data, '\n')

	if err := c.writeRecord(data); err != nil {
		return err
	}

	if len(c.argv) == 0 {
		return nil
	}

	relayCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := runCommandWithInput(relayCtx, c.argv, data); err != nil {
		c.logRelayFailure(err)
	}
	return nil
}

// writeRecord replaces last_turn.json atomically so staff tooling never
// observes a half-written record.
func (c *Committer) writeRecord(data []byte) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create handoff directory: %w", err)
	}

	target := filepath.Join(c.dir, "last_turn.json")
	tmp, err := os.CreateTemp(c.dir, "last_turn-*.json")
	if err != nil {
		return fmt.Errorf("create handoff record: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write handoff record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close handoff record: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("publish handoff record: %w", err)
	}
	return nil
}

// runCommandWithInput executes argv and writes input to stdin.
func runCommandWithInput(ctx context.Context, argv []string, input []byte) error {
	if len(argv) == 0 {
		return fmt.Errorf("command argv cannot be empty")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open stdin for %s: %w", argv[0], err)
	}

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return fmt.Errorf("start command %s: %w", argv[0], err)
	}

	if len(input) > 0 {
		if _, err := stdin.Write(input); err != nil {
			_ = stdin.Close()
			_ = cmd.Wait()
			return fmt.Errorf("write stdin for %s: %w", argv[0], err)
		}
	}
	_ = stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait for %s: %w", argv[0], err)
	}
	return nil
}

// logRelayFailure records relay errors while preserving file write success.
func (c *Committer) logRelayFailure(err error) {
	if c.logger == nil || err == nil {
		return
	}
	c.logger.Error("handoff relay failed; record file remains written", "error", err.Error())
}
