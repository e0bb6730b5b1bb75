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

// staticAcknowledgement is the last-resort debater output when the model
// returns nothing usable.
const staticAcknowledgement = "I acknowledge your point. However, the broader evidence suggests a different perspective worth considering."

// transcriptWindow is how many trailing turns the debater sees.
const transcriptWindow = 6

// Difficulty selects generation presets for the debater.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// GenerationParams are the provider parameters a difficulty maps to.
type GenerationParams struct {
	Temperature float64
	MaxTokens   int
	Style       string
}

// Params returns the preset for a difficulty, defaulting to medium.
func (d Difficulty) Params() GenerationParams {
	switch d {
	case DifficultyEasy:
		return GenerationParams{Temperature: 0.8, MaxTokens: 150, Style: "casual and accessible"}
	case DifficultyHard:
		return GenerationParams{Temperature: 0.6, MaxTokens: 250, Style: "rigorous and evidence-based"}
	default:
		return GenerationParams{Temperature: 0.7, MaxTokens: 200, Style: "balanced and reasoned"}
	}
}

// debaterReply is the schema the debater expects back.
type debaterReply struct {
	Message string `json:"message"`
}

// DebaterAgent produces one argument turn from a briefing and the recent
// transcript.
type DebaterAgent struct {
	completer llm.Completer
	log       *logrus.Logger
}

// NewDebaterAgent creates a debater agent.
func NewDebaterAgent(completer llm.Completer, log *logrus.Logger) *DebaterAgent {
	if log == nil {
		log = logrus.New()
	}
	return &DebaterAgent{completer: completer, log: log}
}

// Argue makes a single request/response and parses `{message}`. On parse
// failure it returns the trimmed raw text, or a static acknowledgement when
// the text is empty.
func (a *DebaterAgent) Argue(ctx context.Context, topic string, stance models.Stance, transcript []models.Turn, briefing Briefing, difficulty Difficulty) string {
	params := difficulty.Params()

	resp, err := a.completer.Complete(ctx, &llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: "system", Content: a.systemPrompt(topic, stance, briefing, params)},
			{Role: "user", Content: a.userPrompt(transcript)},
		},
		Temperature: params.Temperature,
		MaxTokens:   params.MaxTokens,
	})
	if err != nil {
		a.log.WithError(err).Warn("Debater call failed, using static acknowledgement")
		metrics.AgentFallbacks.WithLabelValues("debater").Inc()
		return staticAcknowledgement
	}

	var reply debaterReply
	if err := ParseTolerant(resp.Content, &reply); err == nil && strings.TrimSpace(reply.Message) != "" {
		return strings.TrimSpace(reply.Message)
	}

	metrics.AgentFallbacks.WithLabelValues("debater").Inc()
	if trimmed := strings.TrimSpace(resp.Content); trimmed != "" {
		return trimmed
	}
	return staticAcknowledgement
}

func (a *DebaterAgent) systemPrompt(topic string, stance models.Stance, briefing Briefing, params GenerationParams) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert debater arguing the %s position on: %s\n", stance, topic)
	fmt.Fprintf(&b, "Your style should be %s. Respond to your opponent with one focused counterargument, 2-3 sentences, no lists.\n", params.Style)

	if len(briefing.KeyFacts) > 0 {
		b.WriteString("Key facts:\n")
		for _, f := range briefing.KeyFacts {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	}
	points := briefing.ProPoints
	if stance == models.StanceCon {
		points = briefing.ConPoints
	}
	if len(points) > 0 {
		b.WriteString("Your strongest points:\n")
		for _, p := range points {
			fmt.Fprintf(&b, "- %s\n", p)
		}
	}

	b.WriteString(`Respond with JSON: {"message": "<your argument>"}`)
	return b.String()
}

func (a *DebaterAgent) userPrompt(transcript []models.Turn) string {
	if len(transcript) == 0 {
		return "Open the debate with your strongest argument."
	}
	window := transcript
	if len(window) > transcriptWindow {
		window = window[len(window)-transcriptWindow:]
	}

	var b strings.Builder
	b.WriteString("Recent exchange:\n")
	for _, t := range window {
		fmt.Fprintf(&b, "%s: %s\n", t.RoleLabel, t.Content)
	}
	b.WriteString("\nRespond with your counterargument.")
	return b.String()
}
