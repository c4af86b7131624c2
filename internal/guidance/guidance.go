// Package guidance selects resident-facing text from an engine result.
//
// The engine populates its guidance fields unevenly across stages and
// categories, so every surface falls back through a fixed chain and a
// last-resort constant rather than ever showing an empty string.
package guidance

import (
	"strings"

	"github.com/minwonlab/sori/internal/turn"
)

// DefaultClarifyQuestion is spoken when the engine requested another
// round without providing its own question.
const DefaultClarifyQuestion = "조금 더 자세히 말씀해 주시겠어요?"

// DefaultSummary is shown when no summary text survived the dialogue.
const DefaultSummary = "민원 내용이 접수되었습니다. 담당자가 확인 후 처리할 예정입니다."

// Narration picks the line spoken aloud for a finished dialogue.
func Narration(r turn.Result) string {
	uf := r.Engine.UserFacing
	return firstNonEmpty(uf.SummaryTTS, uf.MainMessage, uf.ConfirmQuestion)
}

// ClarifyQuestion picks the follow-up question spoken before the
// microphone is re-armed for another round.
func ClarifyQuestion(r turn.Result) string {
	uf := r.Engine.UserFacing
	return firstNonEmpty(uf.ConfirmQuestion, uf.MainMessage, DefaultClarifyQuestion)
}

// Summary picks the one-line complaint summary for display and handoff.
func Summary(r turn.Result) string {
	return firstNonEmpty(
		r.Engine.UserFacing.SummaryText,
		r.Engine.StaffPayload.CitizenRequest,
		r.Engine.StaffPayload.Summary,
		DefaultSummary,
	)
}

// Title picks the short heading for a finished dialogue.
func Title(r turn.Result) string {
	return firstNonEmpty(r.Engine.UserFacing.ShortTitle, r.Engine.Category)
}

func firstNonEmpty(candidates ...string) string {
	for _, c := range candidates {
		if s := strings.TrimSpace(c); s != "" {
			return s
		}
	}
	return ""
}
