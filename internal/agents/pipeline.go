package agents

import (
	"github.com/sirupsen/logrus"

	"dev.arena.debate/internal/llm"
	"dev.arena.debate/internal/topics"
)

// Pipeline bundles the three agents over one shared completion transport.
type Pipeline struct {
	Research *ResearchAgent
	Debater  *DebaterAgent
	Judge    *JudgeAgent
}

// NewPipeline wires the agents to a completer and the topic summary cache.
func NewPipeline(completer llm.Completer, cache *topics.SummaryCache, log *logrus.Logger) *Pipeline {
	return &Pipeline{
		Research: NewResearchAgent(completer, cache, log),
		Debater:  NewDebaterAgent(completer, log),
		Judge:    NewJudgeAgent(completer, log),
	}
}
