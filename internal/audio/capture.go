package audio

import (
	"context"
	"fmt"
	"io"
	"math"
	"sync"
	"sync/atomic"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

const (
	// SampleRate is the capture rate for all recordings.
	SampleRate = 16000

	fragmentSizeBytes = 640 // 20ms @ 16kHz mono s16

	// levelDivisor normalizes mean absolute sample deviation into [0,1].
	// Empirical: conversational speech at arm's length peaks near 1.0.
	levelDivisor = 6000.0
)

// Capture buffers PCM from one selected Pulse source and tracks a live level.
type Capture struct {
	device Device

	client *pulse.Client
	stream *pulse.RecordStream

	stopCh chan struct{}

	mu      sync.Mutex
	rawPCM  []byte
	stopped bool

	level atomic.Uint64
	bytes atomic.Int64
}

// StartCapture creates and starts a 16kHz mono s16 record stream.
func StartCapture(ctx context.Context, selected Device) (*Capture, error) {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName("sori"),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return nil, fmt.Errorf("connect pulse server: %w", err)
	}

	source, err := client.SourceByID(selected.ID)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("resolve source %q: %w", selected.ID, err)
	}

	capture := &Capture{
		device: selected,
		client: client,
		stopCh: make(chan struct{}),
	}

	writer := pulse.NewWriter(writerFunc(capture.onPCM), pulseproto.FormatInt16LE)
	stream, err := client.NewRecord(
		writer,
		pulse.RecordSource(source),
		pulse.RecordMono,
		pulse.RecordSampleRate(SampleRate),
		pulse.RecordBufferFragmentSize(fragmentSizeBytes),
		pulse.RecordMediaName("sori complaint intake"),
	)
	if err != nil {
		capture.Close()
		return nil, fmt.Errorf("create pulse record stream: %w", err)
	}

	capture.stream = stream
	stream.Start()

	go func() {
		<-ctx.Done()
		_ = capture.Stop()
	}()

	return capture, nil
}

// Device returns capture metadata for logging and diagnostics.
func (c *Capture) Device() Device {
	return c.device
}

// BytesCaptured reports total bytes accepted from Pulse.
func (c *Capture) BytesCaptured() int64 {
	return c.bytes.Load()
}

// Level returns the most recent normalized loudness sample in [0,1].
// After Stop the value freezes at its last reading.
func (c *Capture) Level() float64 {
	return math.Float64frombits(c.level.Load())
}

// RawPCM returns a snapshot of all captured raw PCM bytes.
func (c *Capture) RawPCM() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]byte, len(c.rawPCM))
	copy(out, c.rawPCM)
	return out
}

// Stop halts the stream and releases the Pulse client. Idempotent.
func (c *Capture) Stop() error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.stopped = true
	close(c.stopCh)
	c.mu.Unlock()

	if c.stream != nil {
		c.stream.Stop()
		c.stream.Close()
	}
	if c.client != nil {
		c.client.Close()
	}

	return nil
}

// Close is a convenience alias for Stop.
func (c *Capture) Close() {
	_ = c.Stop()
}

// onPCM receives raw Pulse frames, accumulates them, and refreshes the level.
func (c *Capture) onPCM(buffer []byte) (int, error) {
	if len(buffer) == 0 {
		return 0, nil
	}

	select {
	case <-c.stopCh:
		return 0, io.EOF
	default:
	}

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return 0, io.EOF
	}
	c.rawPCM = append(c.rawPCM, buffer...)
	c.mu.Unlock()

	c.bytes.Add(int64(len(buffer)))
	c.level.Store(math.Float64bits(meanAbsLevel(buffer)))

	return len(buffer), nil
}

// writerFunc adapts a function to io.Writer for pulse.NewWriter.
type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(b []byte) (int, error) {
	return f(b)
}

// meanAbsLevel computes the normalized mean absolute deviation of one
// little-endian s16 buffer from silence, clamped to [0,1].
func meanAbsLevel(buffer []byte) float64 {
	samples := len(buffer) / 2
	if samples == 0 {
		return 0
	}

	var sum float64
	for i := 0; i+1 < len(buffer); i += 2 {
		sample := int16(uint16(buffer[i]) | uint16(buffer[i+1])<<8)
		sum += math.Abs(float64(sample))
	}

	level := sum / float64(samples) / levelDivisor
	if level > 1 {
		return 1
	}
	return level
}
