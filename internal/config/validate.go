package config

import (
	"fmt"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if strings.TrimSpace(cfg.Backend.HTTP) == "" {
		return nil, fmt.Errorf("backend.http must not be empty")
	}
	if strings.TrimSpace(cfg.Backend.GRPC) == "" {
		return nil, fmt.Errorf("backend.grpc must not be empty")
	}
	if !strings.HasPrefix(strings.TrimSpace(cfg.Backend.HealthPath), "/") {
		return nil, fmt.Errorf("backend.health_path must start with '/'")
	}
	if !strings.HasPrefix(strings.TrimSpace(cfg.STT.Path), "/") {
		return nil, fmt.Errorf("stt.path must start with '/'")
	}
	if strings.TrimSpace(cfg.STT.Language) == "" {
		return nil, fmt.Errorf("stt.language must not be empty")
	}
	if strings.TrimSpace(cfg.STT.Filename) == "" {
		return nil, fmt.Errorf("stt.filename must not be empty")
	}
	if cfg.STT.UploadTimeoutMS <= 0 {
		return nil, fmt.Errorf("stt.upload_timeout_ms must be > 0")
	}
	if !strings.HasPrefix(strings.TrimSpace(cfg.TTS.Path), "/") {
		return nil, fmt.Errorf("tts.path must start with '/'")
	}
	if cfg.TTS.Speed < -5 || cfg.TTS.Speed > 5 {
		return nil, fmt.Errorf("tts.speed must be between -5 and 5")
	}
	if cfg.Feed.Enable {
		if strings.TrimSpace(cfg.Feed.Addr) == "" {
			return nil, fmt.Errorf("feed.addr must not be empty when feed.enable=true")
		}
		if !strings.HasPrefix(strings.TrimSpace(cfg.Feed.Path), "/") {
			return nil, fmt.Errorf("feed.path must start with '/'")
		}
	}
	if len(cfg.Player.Argv) == 0 {
		return nil, fmt.Errorf("player_cmd must not be empty")
	}
	if cfg.Handoff.Raw != "" && len(cfg.Handoff.Argv) == 0 {
		return nil, fmt.Errorf("handoff_cmd is configured but empty")
	}

	if strings.TrimSpace(cfg.Prompts.Intro) == "" {
		warnings = append(warnings, Warning{Message: "prompts.intro is empty; intro narration is disabled"})
	}

	return warnings, nil
}
