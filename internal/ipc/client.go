package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"time"
)

// Send performs one request/response roundtrip against the dialogue
// owner's control socket. The timeout bounds dialing and both I/O legs.
func Send(ctx context.Context, path string, req Request, timeout time.Duration) (Response, error) {
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "unix", path)
	if err != nil {
		return Response{}, err
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return Response{}, fmt.Errorf("set deadline: %w", err)
	}
	return roundtrip(conn, req)
}

// roundtrip writes one newline-delimited JSON request and reads the
// single-line JSON response.
func roundtrip(conn net.Conn, req Request) (Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("encode request: %w", err)
	}
	if _, err := conn.Write(append(payload, '\n')); err != nil {
		return Response{}, fmt.Errorf("encode request: %w", err)
	}

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return Response{}, fmt.Errorf("read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	return resp, nil
}

// Probe reports whether a live dialogue owner answers on path. A missing
// socket or refused connection means no owner; anything else is
// inconclusive and surfaced to the caller.
func Probe(ctx context.Context, path string, timeout time.Duration) (bool, error) {
	if _, err := Send(ctx, path, Request{Command: "status"}, timeout); err != nil {
		if isSocketMissing(err) || isConnectionRefused(err) {
			return false, nil
		}
		return false, fmt.Errorf("probe socket: %w", err)
	}
	return true, nil
}

func isSocketMissing(err error) bool {
	return err != nil && errors.Is(err, os.ErrNotExist)
}

func isConnectionRefused(err error) bool {
	return err != nil && errors.Is(err, syscall.ECONNREFUSED)
}
