package config

import (
	"strings"
	"testing"
)

func TestParseValidConfig(t *testing.T) {
	input := `
{
  // kiosk in lobby 2 talks to the shared engine host
  "backend": {
    "http": "http://10.0.4.12:8000",
    "grpc": "10.0.4.12:50051"
  },
  "audio": {
    "input": "USB Gooseneck"
  },
  "stt": {
    "upload_timeout_ms": 30000
  },
  "tts": {
    "speaker": "jinho",
    "speed": 0
  },
  "player_cmd": "pw-play --volume 0.8",
}
`

	cfg, warnings, err := Parse(input, Default())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Backend.HTTP != "http://10.0.4.12:8000" {
		t.Fatalf("unexpected backend.http: %s", cfg.Backend.HTTP)
	}
	if cfg.Backend.GRPC != "10.0.4.12:50051" {
		t.Fatalf("unexpected backend.grpc: %s", cfg.Backend.GRPC)
	}
	if cfg.Audio.Input != "USB Gooseneck" {
		t.Fatalf("unexpected audio.input: %s", cfg.Audio.Input)
	}
	if cfg.STT.UploadTimeoutMS != 30000 {
		t.Fatalf("unexpected stt.upload_timeout_ms: %d", cfg.STT.UploadTimeoutMS)
	}
	if cfg.TTS.Speaker != "jinho" {
		t.Fatalf("unexpected tts.speaker: %s", cfg.TTS.Speaker)
	}
	if got := cfg.Player.Argv; len(got) != 3 || got[0] != "pw-play" {
		t.Fatalf("unexpected player argv: %v", got)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
}

func TestParseKeepsDefaultsForOmittedSections(t *testing.T) {
	cfg, _, err := Parse(`{"sound":{"cues":false}}`, Default())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Sound.Cues {
		t.Fatal("expected sound.cues=false")
	}
	if cfg.STT.Path != Default().STT.Path {
		t.Fatalf("stt.path changed unexpectedly: %s", cfg.STT.Path)
	}
	if cfg.Feed != Default().Feed {
		t.Fatalf("feed changed unexpectedly: %+v", cfg.Feed)
	}
}

func TestParseEmptyContentReturnsBase(t *testing.T) {
	cfg, _, err := Parse("  \n\t ", Default())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Backend.HTTP != Default().Backend.HTTP {
		t.Fatalf("unexpected backend.http: %s", cfg.Backend.HTTP)
	}
}

func TestParseRejectsNonObjectContent(t *testing.T) {
	_, _, err := Parse(`backend.http = "x"`, Default())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "JSONC object") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseUnknownKeyFails(t *testing.T) {
	_, _, err := Parse(`{"backendd":{"http":"x"}}`, Default())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "unknown field") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseValidatesResult(t *testing.T) {
	_, _, err := Parse(`{"backend":{"http":""}}`, Default())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "backend.http") {
		t.Fatalf("unexpected error: %v", err)
	}
}
