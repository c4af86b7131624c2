package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	player := "pw-play"

	return Config{
		Backend: BackendConfig{
			HTTP:       "http://127.0.0.1:8000",
			GRPC:       "127.0.0.1:50051",
			HealthPath: "/health",
		},
		Audio: AudioConfig{
			Input:    "default",
			Fallback: "default",
		},
		STT: STTConfig{
			Path:            "/stt/multi",
			Language:        "ko",
			Filename:        "voice.wav",
			UploadTimeoutMS: 20000,
		},
		TTS: TTSConfig{
			Path:    "/tts",
			Speaker: "nara",
			Speed:   -2,
		},
		Prompts: PromptConfig{
			Intro: "안녕하세요. 화면 어디든 터치 후 민원을 말씀해 주세요.",
		},
		Feed: FeedConfig{
			Enable: true,
			Addr:   "127.0.0.1:7323",
			Path:   "/events",
		},
		Sound:  SoundConfig{Cues: true},
		Player: CommandConfig{Raw: player, Argv: mustParseArgv(player)},
		Debug:  DebugConfig{},
	}
}
