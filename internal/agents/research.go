// Package agents implements the three debate agents — research, debater and
// judge — on top of a single retryable chat-completion transport. Every
// agent degrades to a deterministic, schema-valid fallback instead of
// surfacing model unreliability to its caller.
package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"dev.arena.debate/internal/llm"
	"dev.arena.debate/internal/metrics"
	"dev.arena.debate/internal/models"
	"dev.arena.debate/internal/topics"
)

// maxToolRounds bounds the research tool-call loop.
const maxToolRounds = 3

// Briefing is the research agent's structured output handed to the debater.
type Briefing struct {
	Topic     string   `json:"topic"`
	Stance    string   `json:"stance"`
	KeyFacts  []string `json:"key_facts"`
	ProPoints []string `json:"pro_points"`
	ConPoints []string `json:"con_points"`
	Questions []string `json:"questions"`
	Sources   []string `json:"sources"`
}

// ResearchAgent produces a briefing for one side of a topic, offering the
// model a search_web capability backed by the topic summary cache.
type ResearchAgent struct {
	completer llm.Completer
	cache     *topics.SummaryCache
	log       *logrus.Logger
}

// NewResearchAgent creates a research agent.
func NewResearchAgent(completer llm.Completer, cache *topics.SummaryCache, log *logrus.Logger) *ResearchAgent {
	if log == nil {
		log = logrus.New()
	}
	return &ResearchAgent{completer: completer, cache: cache, log: log}
}

var searchWebTool = llm.Tool{
	Type: "function",
	Function: llm.Function{
		Name:        "search_web",
		Description: "Search for background material on a debate topic",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query",
				},
			},
			"required": []string{"query"},
		},
	},
}

// Brief researches a topic from one stance. It loops up to three rounds,
// executing any search_web call the model issues (native or embedded as a
// `{tool, arguments}` object) and feeding the result back, and stops as soon
// as a response parses as a briefing. On exhaustion or parse failure it
// returns the deterministic fallback briefing.
func (a *ResearchAgent) Brief(ctx context.Context, topic string, stance models.Stance, opponentClaims []string, difficulty Difficulty) Briefing {
	messages := []llm.Message{
		{Role: "system", Content: a.systemPrompt(topic, stance, difficulty)},
		{Role: "user", Content: a.userPrompt(topic, stance, opponentClaims)},
	}

	for round := 0; round < maxToolRounds; round++ {
		resp, err := a.completer.Complete(ctx, &llm.CompletionRequest{
			Messages:    messages,
			Tools:       []llm.Tool{searchWebTool},
			Temperature: difficulty.Params().Temperature,
			MaxTokens:   difficulty.Params().MaxTokens,
		})
		if err != nil {
			a.log.WithError(err).Warn("Research call failed, using fallback briefing")
			break
		}

		if call, ok := a.toolCallFrom(resp); ok {
			result := a.executeSearch(ctx, call)
			messages = append(messages,
				llm.Message{Role: "assistant", Content: resp.Content, ToolCalls: resp.ToolCalls},
				llm.Message{Role: "tool", Content: result, ToolCallID: call.id},
			)
			continue
		}

		var briefing Briefing
		if err := ParseTolerant(resp.Content, &briefing); err == nil && len(briefing.KeyFacts) > 0 {
			briefing.Topic = topic
			briefing.Stance = string(stance)
			return briefing
		}
		a.log.Debug("Research response did not parse as briefing, retrying round")
	}

	metrics.AgentFallbacks.WithLabelValues("research").Inc()
	return a.fallbackBriefing(ctx, topic, stance)
}

// resolvedToolCall normalizes native and embedded tool calls.
type resolvedToolCall struct {
	id    string
	query string
}

func (a *ResearchAgent) toolCallFrom(resp *llm.CompletionResponse) (resolvedToolCall, bool) {
	if len(resp.ToolCalls) > 0 {
		call := resp.ToolCalls[0]
		if call.Function.Name != searchWebTool.Function.Name {
			return resolvedToolCall{}, false
		}
		args := decodeToolArguments(call.Function.Arguments)
		return resolvedToolCall{id: call.ID, query: args["query"]}, true
	}

	if embedded, ok := parseEmbeddedToolCall(resp.Content); ok && embedded.Tool == searchWebTool.Function.Name {
		args := decodeToolArguments(string(embedded.Arguments))
		return resolvedToolCall{id: "embedded", query: args["query"]}, true
	}
	return resolvedToolCall{}, false
}

func (a *ResearchAgent) executeSearch(ctx context.Context, call resolvedToolCall) string {
	query := call.query
	if query == "" {
		return `{"results": []}`
	}
	summary, ok := a.cache.Lookup(ctx, query)
	if !ok {
		return `{"results": []}`
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		return `{"results": []}`
	}
	return string(raw)
}

// fallbackBriefing builds a canned but useful briefing, merged with a
// best-effort source lookup from the topic catalog.
func (a *ResearchAgent) fallbackBriefing(ctx context.Context, topic string, stance models.Stance) Briefing {
	briefing := Briefing{
		Topic:  topic,
		Stance: string(stance),
		KeyFacts: []string{
			"The topic remains actively contested with credible arguments on both sides.",
			"Empirical studies on this question report mixed results across contexts.",
		},
		ProPoints: []string{
			"Proponents cite measurable benefits in early adopting communities.",
			"The status quo carries costs that this change would address.",
		},
		ConPoints: []string{
			"Critics point to implementation risks and unintended consequences.",
			"Existing alternatives may achieve similar goals at lower cost.",
		},
		Questions: []string{
			"What evidence would change your position?",
			"Who bears the costs if this goes wrong?",
		},
	}

	if summary, ok := a.cache.Lookup(ctx, topic); ok {
		if len(summary.KeyPoints) > 0 {
			briefing.KeyFacts = append(briefing.KeyFacts, summary.KeyPoints...)
		}
		if len(summary.Pros) > 0 {
			briefing.ProPoints = summary.Pros
		}
		if len(summary.Cons) > 0 {
			briefing.ConPoints = summary.Cons
		}
		briefing.Sources = summary.Sources
	}
	return briefing
}

func (a *ResearchAgent) systemPrompt(topic string, stance models.Stance, difficulty Difficulty) string {
	return fmt.Sprintf(
		"You are a debate researcher preparing the %s side of: %s\n"+
			"Style target: %s.\n"+
			"You may call search_web to gather material. When done, respond with JSON: "+
			`{"key_facts": [...], "pro_points": [...], "con_points": [...], "questions": [...], "sources": [...]}`,
		stance, topic, difficulty.Params().Style,
	)
}

func (a *ResearchAgent) userPrompt(topic string, stance models.Stance, opponentClaims []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Prepare a briefing arguing %s on: %s\n", stance, topic)
	if len(opponentClaims) > 0 {
		b.WriteString("The opponent has claimed:\n")
		for _, c := range opponentClaims {
			fmt.Fprintf(&b, "- %s\n", c)
		}
	}
	return b.String()
}
