package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/minwonlab/sori/internal/audio"
	"github.com/minwonlab/sori/internal/config"
	"github.com/minwonlab/sori/internal/session"
)

func TestStopWithoutStartReturnsCaptureUnavailable(t *testing.T) {
	recorder := NewRecorder(config.Default(), nil, nil)

	_, err := recorder.Stop(context.Background())
	require.ErrorIs(t, err, session.ErrCaptureUnavailable)
}

func TestCancelWithoutStartIsHarmless(t *testing.T) {
	recorder := NewRecorder(config.Default(), nil, nil)
	require.NoError(t, recorder.Cancel(context.Background()))
}

func TestStartFailsWhenAudioServerUnreachable(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")

	recorder := NewRecorder(config.Default(), nil, nil)
	err := recorder.Start(context.Background())
	require.Error(t, err)

	// a failed start must leave the recorder reusable
	_, err = recorder.Stop(context.Background())
	require.ErrorIs(t, err, session.ErrCaptureUnavailable)
}

func TestDescribeDevice(t *testing.T) {
	tests := []struct {
		name   string
		device audio.Device
		want   string
	}{
		{name: "both", device: audio.Device{ID: "mic0", Description: "USB Gooseneck"}, want: "USB Gooseneck (mic0)"},
		{name: "id only", device: audio.Device{ID: "mic0"}, want: "mic0"},
		{name: "description only", device: audio.Device{Description: "USB Gooseneck"}, want: "USB Gooseneck"},
		{name: "empty", device: audio.Device{}, want: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, describeDevice(tc.device))
		})
	}
}
