package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

type jsoncConfig struct {
	Backend *jsoncBackend `json:"backend"`
	Audio   *jsoncAudio   `json:"audio"`
	STT     *jsoncSTT     `json:"stt"`
	TTS     *jsoncTTS     `json:"tts"`
	Prompts *jsoncPrompts `json:"prompts"`
	Feed    *jsoncFeed    `json:"feed"`
	Sound   *jsoncSound   `json:"sound"`

	PlayerCmd  *string `json:"player_cmd"`
	HandoffCmd *string `json:"handoff_cmd"`

	Debug *jsoncDebug `json:"debug"`
}

type jsoncBackend struct {
	HTTP       *string `json:"http"`
	GRPC       *string `json:"grpc"`
	HealthPath *string `json:"health_path"`
}

type jsoncAudio struct {
	Input    *string `json:"input"`
	Fallback *string `json:"fallback"`
}

type jsoncSTT struct {
	Path            *string `json:"path"`
	Language        *string `json:"language"`
	Filename        *string `json:"filename"`
	UploadTimeoutMS *int    `json:"upload_timeout_ms"`
}

type jsoncTTS struct {
	Path    *string `json:"path"`
	Speaker *string `json:"speaker"`
	Speed   *int    `json:"speed"`
}

type jsoncPrompts struct {
	Intro *string `json:"intro"`
}

type jsoncFeed struct {
	Enable *bool   `json:"enable"`
	Addr   *string `json:"addr"`
	Path   *string `json:"path"`
}

type jsoncSound struct {
	Cues *bool `json:"cues"`
}

type jsoncDebug struct {
	AudioDump *bool `json:"audio_dump"`
}

func parseJSONC(content string, base Config) (Config, []Warning, error) {
	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}

	cfg := base
	if err := payload.applyTo(&cfg); err != nil {
		return Config{}, nil, err
	}

	warnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}

func (payload jsoncConfig) applyTo(cfg *Config) error {
	if payload.Backend != nil {
		if payload.Backend.HTTP != nil {
			cfg.Backend.HTTP = strings.TrimSpace(*payload.Backend.HTTP)
		}
		if payload.Backend.GRPC != nil {
			cfg.Backend.GRPC = strings.TrimSpace(*payload.Backend.GRPC)
		}
		if payload.Backend.HealthPath != nil {
			cfg.Backend.HealthPath = strings.TrimSpace(*payload.Backend.HealthPath)
		}
	}

	if payload.Audio != nil {
		if payload.Audio.Input != nil {
			cfg.Audio.Input = *payload.Audio.Input
		}
		if payload.Audio.Fallback != nil {
			cfg.Audio.Fallback = *payload.Audio.Fallback
		}
	}

	if payload.STT != nil {
		if payload.STT.Path != nil {
			cfg.STT.Path = strings.TrimSpace(*payload.STT.Path)
		}
		if payload.STT.Language != nil {
			cfg.STT.Language = strings.TrimSpace(*payload.STT.Language)
		}
		if payload.STT.Filename != nil {
			cfg.STT.Filename = strings.TrimSpace(*payload.STT.Filename)
		}
		if payload.STT.UploadTimeoutMS != nil {
			cfg.STT.UploadTimeoutMS = *payload.STT.UploadTimeoutMS
		}
	}

	if payload.TTS != nil {
		if payload.TTS.Path != nil {
			cfg.TTS.Path = strings.TrimSpace(*payload.TTS.Path)
		}
		if payload.TTS.Speaker != nil {
			cfg.TTS.Speaker = strings.TrimSpace(*payload.TTS.Speaker)
		}
		if payload.TTS.Speed != nil {
			cfg.TTS.Speed = *payload.TTS.Speed
		}
	}

	if payload.Prompts != nil && payload.Prompts.Intro != nil {
		cfg.Prompts.Intro = *payload.Prompts.Intro
	}

	if payload.Feed != nil {
		if payload.Feed.Enable != nil {
			cfg.Feed.Enable = *payload.Feed.Enable
		}
		if payload.Feed.Addr != nil {
			cfg.Feed.Addr = strings.TrimSpace(*payload.Feed.Addr)
		}
		if payload.Feed.Path != nil {
			cfg.Feed.Path = strings.TrimSpace(*payload.Feed.Path)
		}
	}

	if payload.Sound != nil && payload.Sound.Cues != nil {
		cfg.Sound.Cues = *payload.Sound.Cues
	}

	if payload.PlayerCmd != nil {
		raw := *payload.PlayerCmd
		argv, err := parseArgv(raw)
		if err != nil {
			return fmt.Errorf("invalid player_cmd: %w", err)
		}
		cfg.Player = CommandConfig{Raw: raw, Argv: argv}
	}

	if payload.HandoffCmd != nil {
		raw := *payload.HandoffCmd
		argv, err := parseArgv(raw)
		if err != nil {
			return fmt.Errorf("invalid handoff_cmd: %w", err)
		}
		cfg.Handoff = CommandConfig{Raw: raw, Argv: argv}
	}

	if payload.Debug != nil && payload.Debug.AudioDump != nil {
		cfg.Debug.EnableAudioDump = *payload.Debug.AudioDump
	}

	return nil
}

func normalizeJSONC(content string) (string, error) {
	withoutComments, err := stripJSONCComments(content)
	if err != nil {
		return "", err
	}
	return stripJSONCTrailingCommas(withoutComments), nil
}

func stripJSONCComments(content string) (string, error) {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false
	lineComment := false
	blockComment := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if lineComment {
			if ch == '\n' || ch == '\r' {
				lineComment = false
				out.WriteByte(ch)
				continue
			}
			out.WriteByte(' ')
			continue
		}

		if blockComment {
			if ch == '*' && i+1 < len(content) && content[i+1] == '/' {
				blockComment = false
				out.WriteString("  ")
				i++
				continue
			}
			if ch == '\n' || ch == '\r' || ch == '\t' {
				out.WriteByte(ch)
			} else {
				out.WriteByte(' ')
			}
			continue
		}

		if inString {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == '/' && i+1 < len(content) {
			next := content[i+1]
			if next == '/' {
				lineComment = true
				out.WriteString("  ")
				i++
				continue
			}
			if next == '*' {
				blockComment = true
				out.WriteString("  ")
				i++
				continue
			}
		}

		out.WriteByte(ch)
	}

	if blockComment {
		return "", fmt.Errorf("unterminated block comment in JSONC")
	}

	return out.String(), nil
}

func stripJSONCTrailingCommas(content string) string {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if inString {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == ',' {
			j := i + 1
			for j < len(content) && isJSONWhitespace(content[j]) {
				j++
			}
			if j < len(content) && (content[j] == '}' || content[j] == ']') {
				continue
			}
		}

		out.WriteByte(ch)
	}

	return out.String()
}

func isJSONWhitespace(ch byte) bool {
	switch ch {
	case ' ', '\n', '\r', '\t':
		return true
	default:
		return false
	}
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra struct{}
	err := decoder.Decode(&extra)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		return fmt.Errorf("multiple JSON values are not allowed")
	}
	return err
}

func wrapJSONDecodeError(content string, err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, col := offsetToLineCol(content, syntaxErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		line, col := offsetToLineCol(content, typeErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	return err
}

func offsetToLineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}

	limit := int(offset)
	if limit > len(content) {
		limit = len(content)
	}

	line := 1
	col := 1
	for i := 0; i < limit-1; i++ {
		if content[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
