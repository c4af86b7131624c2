package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseArgv(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr string
	}{
		{name: "empty", input: "", want: nil},
		{name: "simple", input: "pw-play --volume 1.0", want: []string{"pw-play", "--volume", "1.0"}},
		{name: "quoted spaces", input: `mycmd --name "hello world"`, want: []string{"mycmd", "--name", "hello world"}},
		{name: "single quote", input: `mycmd --name 'hello world'`, want: []string{"mycmd", "--name", "hello world"}},
		{name: "escaped space", input: `mycmd hello\ world`, want: []string{"mycmd", "hello world"}},
		{name: "leading comment", input: `# pw-play --volume 1.0`, want: nil},
		{name: "player with spaced cue path", input: `paplay "/opt/sori/cues/listen start.wav"`, want: []string{"paplay", "/opt/sori/cues/listen start.wav"}},
		{name: "handoff with escaped quote", input: `/usr/local/bin/minwon-submit --label 민원\"접수\"`, want: []string{"/usr/local/bin/minwon-submit", `--label`, `민원"접수"`}},
		{name: "escape inside quotes", input: `sh -c "echo \"done\""`, want: []string{"sh", "-c", `echo "done"`}},
		{name: "surrounding whitespace", input: "  paplay cue.wav \t", want: []string{"paplay", "cue.wav"}},
		{name: "unterminated quote", input: `mycmd "oops`, wantErr: "unterminated quote"},
		{name: "unterminated escape", input: `mycmd hello\`, wantErr: "unterminated escape"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseArgv(tc.input)
			if tc.wantErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestMustParseArgvPanicsOnInvalidInput(t *testing.T) {
	require.Panics(t, func() {
		_ = mustParseArgv(`mycmd "unterminated`)
	})
}
