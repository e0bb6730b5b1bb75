package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"dev.arena.debate/internal/llm"
	"dev.arena.debate/internal/metrics"
	"dev.arena.debate/internal/models"
)

// verdictWindow is how many trailing turns the judge reads.
const verdictWindow = 12

// Verdict is the judge's structured ruling. The fallback verdict satisfies
// the same schema, so callers never see a partially filled ruling.
type Verdict struct {
	WinnerParticipantID string                      `json:"winner_participant_id"`
	Scores              map[string]models.TurnScore `json:"scores"`
	Explanation         string                      `json:"explanation"`
	Highlights          []string                    `json:"highlights"`
	Fallacies           []string                    `json:"fallacies"`
	Achievements        []string                    `json:"achievements"`
}

// JudgeAgent rules on a finished debate.
type JudgeAgent struct {
	completer llm.Completer
	log       *logrus.Logger
}

// NewJudgeAgent creates a judge agent.
func NewJudgeAgent(completer llm.Completer, log *logrus.Logger) *JudgeAgent {
	if log == nil {
		log = logrus.New()
	}
	return &JudgeAgent{completer: completer, log: log}
}

// Judge makes a single request/response over the last twelve turns. Any
// transport or schema failure resolves to the fixed neutral verdict.
func (j *JudgeAgent) Judge(ctx context.Context, topic string, participants []models.Participant, transcript []models.Turn) Verdict {
	if len(transcript) > verdictWindow {
		transcript = transcript[len(transcript)-verdictWindow:]
	}

	resp, err := j.completer.Complete(ctx, &llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: "system", Content: j.systemPrompt(topic, participants)},
			{Role: "user", Content: j.userPrompt(transcript)},
		},
		Temperature: 0.3,
		MaxTokens:   600,
	})
	if err != nil {
		j.log.WithError(err).Warn("Judge call failed, using neutral verdict")
		metrics.AgentFallbacks.WithLabelValues("judge").Inc()
		return NeutralVerdict(participants)
	}

	var verdict Verdict
	if err := ParseTolerant(resp.Content, &verdict); err != nil || !j.valid(verdict, participants) {
		metrics.AgentFallbacks.WithLabelValues("judge").Inc()
		return NeutralVerdict(participants)
	}
	return verdict
}

// valid checks the verdict names a real participant and carries scores.
func (j *JudgeAgent) valid(v Verdict, participants []models.Participant) bool {
	if v.WinnerParticipantID == "" || len(v.Scores) == 0 || v.Explanation == "" {
		return false
	}
	for _, p := range participants {
		if p.ID == v.WinnerParticipantID {
			return true
		}
	}
	return false
}

// NeutralVerdict is the fixed fallback ruling: the first participant wins on
// a canned explanation with fixed middle-of-the-road scores. It is always
// schema-valid.
func NeutralVerdict(participants []models.Participant) Verdict {
	neutral := models.TurnScore{
		Clarity:   70,
		Logic:     70,
		Evidence:  68,
		Rebuttal:  65,
		Civility:  75,
		Relevance: 72,
	}

	verdict := Verdict{
		Explanation:  "The debate was closely contested with both sides presenting comparable arguments. The ruling defaults to the opening side on presentation order.",
		Scores:       make(map[string]models.TurnScore),
		Highlights:   []string{},
		Fallacies:    []string{},
		Achievements: []string{},
	}
	for i, p := range participants {
		if i == 0 {
			verdict.WinnerParticipantID = p.ID
		}
		verdict.Scores[p.ID] = neutral
	}
	return verdict
}

func (j *JudgeAgent) systemPrompt(topic string, participants []models.Participant) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an impartial debate judge ruling on: %s\nParticipants:\n", topic)
	for _, p := range participants {
		fmt.Fprintf(&b, "- %s (%s, arguing %s, id=%s)\n", p.Name, p.Type, p.Stance, p.ID)
	}
	b.WriteString("Respond with JSON: " +
		`{"winner_participant_id": "<id>", "scores": {"<id>": {"clarity": 0-100, "logic": 0-100, "evidence": 0-100, "rebuttal": 0-100, "civility": 0-100, "relevance": 0-100}}, "explanation": "...", "highlights": [...], "fallacies": [...], "achievements": [...]}`)
	return b.String()
}

func (j *JudgeAgent) userPrompt(transcript []models.Turn) string {
	var b strings.Builder
	b.WriteString("Transcript:\n")
	for _, t := range transcript {
		fmt.Fprintf(&b, "%s: %s\n", t.RoleLabel, t.Content)
	}
	b.WriteString("\nRule on the debate.")
	return b.String()
}
