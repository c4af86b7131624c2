package narrator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/minwonlab/sori/internal/playback"
)

type finishedHandle struct{ done chan struct{} }

func newFinishedHandle() *finishedHandle {
	h := &finishedHandle{done: make(chan struct{})}
	close(h.done)
	return h
}

func (h *finishedHandle) Stop()                 {}
func (h *finishedHandle) Done() <-chan struct{} { return h.done }

func ttsServer(t *testing.T, audio []byte, requests *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/tts", r.URL.Path)

		var payload struct {
			Text    string `json:"text"`
			Speaker string `json:"speaker"`
			Speed   int    `json:"speed"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.NotEmpty(t, payload.Text)
		require.Equal(t, "nara", payload.Speaker)
		require.Equal(t, -2, payload.Speed)

		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write(audio)
	}))
}

func TestSayAndWaitSynthesizesAndPlays(t *testing.T) {
	var requests atomic.Int32
	server := ttsServer(t, []byte("fake-mp3-bytes"), &requests)
	defer server.Close()

	var playedContent atomic.Value
	pb := playback.NewManagerWithStarter(func(path string) (playback.Handle, error) {
		// Read the spooled prompt while it still exists.
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		playedContent.Store(data)
		return newFinishedHandle(), nil
	}, false, nil)

	n := New(Options{BaseURL: server.URL, Path: "/tts", Speaker: "nara", Speed: -2}, pb, nil)
	n.SayAndWait(context.Background(), "안녕하세요")

	require.Equal(t, int32(1), requests.Load())
	require.Equal(t, []byte("fake-mp3-bytes"), playedContent.Load())
}

func TestSayAndWaitRemovesSpooledPrompt(t *testing.T) {
	var requests atomic.Int32
	server := ttsServer(t, []byte("audio"), &requests)
	defer server.Close()

	var spooled atomic.Value
	pb := playback.NewManagerWithStarter(func(path string) (playback.Handle, error) {
		spooled.Store(path)
		return newFinishedHandle(), nil
	}, false, nil)

	n := New(Options{BaseURL: server.URL, Path: "/tts", Speaker: "nara", Speed: -2}, pb, nil)
	n.SayAndWait(context.Background(), "테스트")

	path, _ := spooled.Load().(string)
	require.NotEmpty(t, path)
	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err), "spooled prompt should be removed after playback")
}

func TestEmptyTextSkipsSynthesis(t *testing.T) {
	var requests atomic.Int32
	server := ttsServer(t, []byte("audio"), &requests)
	defer server.Close()

	pb := playback.NewManagerWithStarter(func(string) (playback.Handle, error) {
		t.Error("nothing should play for empty text")
		return newFinishedHandle(), nil
	}, false, nil)

	n := New(Options{BaseURL: server.URL, Path: "/tts", Speaker: "nara", Speed: -2}, pb, nil)
	n.SayAndWait(context.Background(), "   ")
	n.Say(context.Background(), "")

	require.Equal(t, int32(0), requests.Load())
}

func TestSynthesisFailureSkipsPlayback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	pb := playback.NewManagerWithStarter(func(string) (playback.Handle, error) {
		t.Error("nothing should play when synthesis fails")
		return newFinishedHandle(), nil
	}, false, nil)

	n := New(Options{BaseURL: server.URL, Path: "/tts", Speaker: "nara", Speed: -2}, pb, nil)
	n.SayAndWait(context.Background(), "실패 케이스")
}

func TestSayIsAsynchronous(t *testing.T) {
	var requests atomic.Int32
	server := ttsServer(t, []byte("audio"), &requests)
	defer server.Close()

	played := make(chan struct{})
	pb := playback.NewManagerWithStarter(func(string) (playback.Handle, error) {
		close(played)
		return newFinishedHandle(), nil
	}, false, nil)

	n := New(Options{BaseURL: server.URL, Path: "/tts", Speaker: "nara", Speed: -2}, pb, nil)
	n.Say(context.Background(), "비동기 안내")

	select {
	case <-played:
	case <-time.After(2 * time.Second):
		t.Fatal("asynchronous narration never reached playback")
	}
}
