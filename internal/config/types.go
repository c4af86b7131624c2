// Package config resolves, parses, validates, and defaults sori configuration.
package config

// Config is the fully materialized runtime configuration used by sori.
type Config struct {
	Backend BackendConfig
	Audio   AudioConfig
	STT     STTConfig
	TTS     TTSConfig
	Prompts PromptConfig
	Feed    FeedConfig
	Sound   SoundConfig
	Player  CommandConfig
	Handoff CommandConfig
	Debug   DebugConfig
}

// BackendConfig locates the remote complaint-intake service.
type BackendConfig struct {
	HTTP       string
	GRPC       string
	HealthPath string
}

// AudioConfig controls preferred and fallback input-source selection.
type AudioConfig struct {
	Input    string
	Fallback string
}

// STTConfig controls the recognition turn upload.
type STTConfig struct {
	Path            string
	Language        string
	Filename        string
	UploadTimeoutMS int
}

// TTSConfig controls synthesized prompt requests.
type TTSConfig struct {
	Path    string
	Speaker string
	Speed   int
}

// PromptConfig holds the scripted narration lines.
type PromptConfig struct {
	Intro string
}

// FeedConfig controls the websocket UI event feed.
type FeedConfig struct {
	Enable bool
	Addr   string
	Path   string
}

// SoundConfig controls local cue tone playback.
type SoundConfig struct {
	Cues bool
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// DebugConfig controls optional debug artifact output.
type DebugConfig struct {
	EnableAudioDump bool
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}
