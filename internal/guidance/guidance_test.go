package guidance

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/minwonlab/sori/internal/turn"
)

func resultWith(uf turn.UserFacing, sp turn.StaffPayload) turn.Result {
	return turn.Result{Engine: turn.EngineResult{UserFacing: uf, StaffPayload: sp}}
}

func TestNarrationPrefersSummaryTTS(t *testing.T) {
	r := resultWith(turn.UserFacing{
		SummaryTTS:      "접수가 완료되었습니다",
		MainMessage:     "본문 메시지",
		ConfirmQuestion: "질문",
	}, turn.StaffPayload{})
	require.Equal(t, "접수가 완료되었습니다", Narration(r))
}

func TestNarrationFallsBackThroughChain(t *testing.T) {
	r := resultWith(turn.UserFacing{MainMessage: "  본문 메시지  "}, turn.StaffPayload{})
	require.Equal(t, "본문 메시지", Narration(r))

	r = resultWith(turn.UserFacing{ConfirmQuestion: "질문만 있음"}, turn.StaffPayload{})
	require.Equal(t, "질문만 있음", Narration(r))

	require.Empty(t, Narration(turn.Result{}))
}

func TestClarifyQuestionNeverEmpty(t *testing.T) {
	r := resultWith(turn.UserFacing{ConfirmQuestion: "어느 동인가요?"}, turn.StaffPayload{})
	require.Equal(t, "어느 동인가요?", ClarifyQuestion(r))

	r = resultWith(turn.UserFacing{MainMessage: "조금 더요"}, turn.StaffPayload{})
	require.Equal(t, "조금 더요", ClarifyQuestion(r))

	require.Equal(t, DefaultClarifyQuestion, ClarifyQuestion(turn.Result{}))
}

func TestSummaryFallbackChain(t *testing.T) {
	r := resultWith(
		turn.UserFacing{SummaryText: "화면 요약"},
		turn.StaffPayload{CitizenRequest: "주민 요청", Summary: "직원 요약"},
	)
	require.Equal(t, "화면 요약", Summary(r))

	r = resultWith(turn.UserFacing{}, turn.StaffPayload{CitizenRequest: "주민 요청", Summary: "직원 요약"})
	require.Equal(t, "주민 요청", Summary(r))

	r = resultWith(turn.UserFacing{}, turn.StaffPayload{Summary: "직원 요약"})
	require.Equal(t, "직원 요약", Summary(r))

	require.Equal(t, DefaultSummary, Summary(turn.Result{}))
}

func TestTitleFallsBackToCategory(t *testing.T) {
	r := resultWith(turn.UserFacing{ShortTitle: "가로등 고장"}, turn.StaffPayload{})
	require.Equal(t, "가로등 고장", Title(r))

	r = turn.Result{Engine: turn.EngineResult{Category: "도로/시설"}}
	require.Equal(t, "도로/시설", Title(r))

	require.Empty(t, Title(turn.Result{}))
}
