// Package ipc implements the newline-delimited JSON control protocol
// between the resident dialogue owner and forwarding sori invocations.
package ipc

// Request is one control command sent to the dialogue owner.
type Request struct {
	Command string `json:"command"`
}

// Response reports the outcome of a control command. State and Stage
// carry the dialogue state machine position for status queries.
type Response struct {
	OK      bool   `json:"ok"`
	State   string `json:"state,omitempty"`
	Stage   string `json:"stage,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
