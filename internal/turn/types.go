// Package turn submits finished recordings to the complaint engine and
// parses the structured per-turn response.
package turn

import (
	"encoding/json"
	"errors"
)

// ErrUploadFailed indicates a network or server-side failure during a turn.
var ErrUploadFailed = errors.New("turn upload failed")

// StageClarification marks a dialogue the engine considers incomplete;
// another recording round is required before a final result exists.
const StageClarification = "clarification"

// PlaceholderText substitutes for an absent recognition result.
const PlaceholderText = "(음성을 인식하지 못했습니다)"

// Result is the immutable outcome of one recording round-trip.
type Result struct {
	SessionID string
	Text      string
	Engine    EngineResult

	// RawEngine preserves the engine result exactly as received, for
	// handoff and diagnostics. Nil when the engine returned nothing.
	RawEngine json.RawMessage
}

// Clarification reports whether the engine requested another round.
func (r Result) Clarification() bool {
	return r.Engine.Stage == StageClarification
}

// EngineResult is the tolerated subset of the engine response schema.
// Absent fields stay zero-valued; unknown fields survive in RawEngine.
type EngineResult struct {
	Stage              string       `json:"stage"`
	Category           string       `json:"minwon_type"`
	HandlingType       string       `json:"handling_type"`
	NeedOfficialTicket bool         `json:"need_official_ticket"`
	NeedCallTransfer   bool         `json:"need_call_transfer"`
	UserFacing         UserFacing   `json:"user_facing"`
	StaffPayload       StaffPayload `json:"staff_payload"`
}

// UserFacing carries the resident-directed guidance strings.
type UserFacing struct {
	ShortTitle      string `json:"short_title"`
	MainMessage     string `json:"main_message"`
	NextActionGuide string `json:"next_action_guide"`
	PhoneSuggestion string `json:"phone_suggestion"`
	ConfirmQuestion string `json:"confirm_question"`
	SummaryText     string `json:"summary_text"`
	SummaryTTS      string `json:"summary_tts"`
}

// StaffPayload carries the staff-directed complaint summary.
type StaffPayload struct {
	Summary        string   `json:"summary"`
	Category       string   `json:"category"`
	Location       string   `json:"location"`
	TimeInfo       string   `json:"time_info"`
	RiskLevel      string   `json:"risk_level"`
	NeedsVisit     bool     `json:"needs_visit"`
	CitizenRequest string   `json:"citizen_request"`
	RawKeywords    []string `json:"raw_keywords"`
	MemoForStaff   string   `json:"memo_for_staff"`
}
