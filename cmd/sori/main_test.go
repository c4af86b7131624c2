package main

import (
	"os"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/require"
)

// The binary is exercised end to end by re-running the test executable
// with GO_WANT_HELPER_PROCESS set, so exit codes and stderr come from
// the real main.

func TestMainHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	os.Args = append([]string{"sori"}, argsAfterDash(os.Args)...)
	main()
}

func argsAfterDash(args []string) []string {
	for i, arg := range args {
		if arg == "--" {
			return args[i+1:]
		}
	}
	return nil
}

func runSori(t *testing.T, args ...string) ([]byte, error) {
	t.Helper()

	cmd := exec.Command(os.Args[0], append([]string{"-test.run=TestMainHelperProcess", "--"}, args...)...)
	cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1")
	return cmd.CombinedOutput()
}

func TestMainHelp(t *testing.T) {
	output, err := runSori(t, "--help")
	require.NoError(t, err, string(output))
	require.Contains(t, string(output), "Usage:")
	require.Contains(t, string(output), "listen")
	require.Contains(t, string(output), "doctor")
}

func TestMainInvalidCommandExitsNonZero(t *testing.T) {
	output, err := runSori(t, "not-a-command")
	require.Error(t, err)

	exitErr, ok := err.(*exec.ExitError)
	require.True(t, ok)
	require.Equal(t, 2, exitErr.ExitCode())
	require.Contains(t, string(output), "unknown command")
}
