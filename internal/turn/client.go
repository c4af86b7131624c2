package turn

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Client uploads one finished recording per call to the remote turn endpoint.
type Client struct {
	endpoint string
	filename string
	language string
	http     *http.Client
	logger   *slog.Logger
}

// Options configures a turn client.
type Options struct {
	BaseURL  string
	Path     string
	Filename string
	Language string
	Timeout  time.Duration
}

// NewClient constructs a turn upload client.
func NewClient(opts Options, logger *slog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	filename := strings.TrimSpace(opts.Filename)
	if filename == "" {
		filename = "voice.wav"
	}

	return &Client{
		endpoint: strings.TrimRight(opts.BaseURL, "/") + opts.Path,
		filename: filename,
		language: opts.Language,
		http:     &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// Submit posts the recording with session context and parses the turn result.
//
// A non-empty sessionID travels twice, as the session_id form field and the
// X-Session-ID header; the backend accepts either.
func (c *Client) Submit(ctx context.Context, audio []byte, sessionID string) (Result, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("audio", c.filename)
	if err != nil {
		return Result{}, fmt.Errorf("%w: build form: %v", ErrUploadFailed, err)
	}
	if _, err := part.Write(audio); err != nil {
		return Result{}, fmt.Errorf("%w: write audio: %v", ErrUploadFailed, err)
	}

	sessionID = strings.TrimSpace(sessionID)
	if sessionID != "" {
		if err := writer.WriteField("session_id", sessionID); err != nil {
			return Result{}, fmt.Errorf("%w: write session field: %v", ErrUploadFailed, err)
		}
	}
	if c.language != "" {
		if err := writer.WriteField("language", c.language); err != nil {
			return Result{}, fmt.Errorf("%w: write language field: %v", ErrUploadFailed, err)
		}
	}
	if err := writer.Close(); err != nil {
		return Result{}, fmt.Errorf("%w: finalize form: %v", ErrUploadFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return Result{}, fmt.Errorf("%w: build request: %v", ErrUploadFailed, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if sessionID != "" {
		req.Header.Set("X-Session-ID", sessionID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, fmt.Errorf("%w: read response: %v", ErrUploadFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logWarn("turn endpoint returned error status", "status", resp.StatusCode)
		return Result{}, fmt.Errorf("%w: HTTP %d", ErrUploadFailed, resp.StatusCode)
	}

	result, err := parseResult(raw)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	return result, nil
}

// parseResult decodes the turn response, tolerating absent optional fields.
func parseResult(raw []byte) (Result, error) {
	var payload struct {
		SessionID    string          `json:"session_id"`
		Text         string          `json:"text"`
		Engine       json.RawMessage `json:"engine_result"`
		UserFacing   *UserFacing     `json:"user_facing"`
		StaffPayload *StaffPayload   `json:"staff_payload"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Result{}, fmt.Errorf("decode turn response: %v", err)
	}

	result := Result{
		SessionID: strings.TrimSpace(payload.SessionID),
		Text:      strings.TrimSpace(payload.Text),
	}
	if result.Text == "" {
		result.Text = PlaceholderText
	}

	if len(payload.Engine) > 0 && string(payload.Engine) != "null" {
		result.RawEngine = payload.Engine
		// Optional engine fields decode best-effort; a malformed engine
		// blob leaves the structured view zero-valued but keeps the raw.
		_ = json.Unmarshal(payload.Engine, &result.Engine)
	}

	// Some backend variants lift user_facing/staff_payload to the top level;
	// prefer the nested copy, fall back to the lifted one.
	if result.Engine.UserFacing == (UserFacing{}) && payload.UserFacing != nil {
		result.Engine.UserFacing = *payload.UserFacing
	}
	if payload.StaffPayload != nil && result.Engine.StaffPayload.Summary == "" && result.Engine.StaffPayload.CitizenRequest == "" {
		result.Engine.StaffPayload = *payload.StaffPayload
	}

	return result, nil
}

func (c *Client) logWarn(message string, args ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Warn(message, args...)
}
