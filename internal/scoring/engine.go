// Package scoring implements deterministic heuristic turn scoring. The
// heuristics are a stand-in over content length and keyword markers, not a
// quality judgment of the argument itself.
package scoring

import (
	"math"
	"strings"

	"dev.arena.debate/internal/models"
)

var (
	logicMarkers = []string{
		"because", "therefore", "thus", "hence", "consequently",
		"furthermore", "moreover", "first", "second", "finally",
	}
	evidenceMarkers = []string{
		"study", "research", "data", "statistics", "survey",
		"according", "evidence", "shows", "percent", "%", "report",
	}
	rebuttalMarkers = []string{
		"however", "but", "contrary", "claim", "yet", "although",
		"nevertheless", "on the other hand", "counter",
	}
	hostileMarkers = []string{
		"stupid", "idiot", "nonsense", "ridiculous", "dumb", "pathetic",
	}
)

// Engine scores individual turns and aggregates transcripts.
type Engine struct{}

// NewEngine creates a scoring engine.
func NewEngine() *Engine {
	return &Engine{}
}

// ScoreTurn rates content on six dimensions, each an integer in [0,100].
func (e *Engine) ScoreTurn(content string) models.TurnScore {
	lower := strings.ToLower(content)
	words := len(strings.Fields(content))

	// Length is the proxy for clarity: short fragments score low, a few
	// sentences score high.
	clarity := clamp(40 + words*2)

	logic := clamp(50 + countMarkers(lower, logicMarkers)*8)
	evidence := clamp(45 + countMarkers(lower, evidenceMarkers)*12)
	rebuttal := clamp(40 + countMarkers(lower, rebuttalMarkers)*10)

	// Fixed keyword penalty for hostile language.
	civility := clamp(95 - countMarkers(lower, hostileMarkers)*20)

	// Sustained engagement reads as relevance; question marks signal
	// addressing the opponent.
	relevance := clamp(50 + min(words, 20)*2 + strings.Count(content, "?")*5)

	return models.TurnScore{
		Clarity:   clarity,
		Logic:     logic,
		Evidence:  evidence,
		Rebuttal:  rebuttal,
		Civility:  civility,
		Relevance: relevance,
	}
}

// AggregateScores returns the per-dimension rounded mean. An empty list
// yields ScoreTurn("") so the result is always well-defined.
func (e *Engine) AggregateScores(scores []models.TurnScore) models.TurnScore {
	if len(scores) == 0 {
		return e.ScoreTurn("")
	}

	var sums [6]int
	for _, s := range scores {
		for i, v := range s.Dimensions() {
			sums[i] += v
		}
	}

	n := float64(len(scores))
	mean := func(sum int) int {
		return int(math.Round(float64(sum) / n))
	}

	return models.TurnScore{
		Clarity:   mean(sums[0]),
		Logic:     mean(sums[1]),
		Evidence:  mean(sums[2]),
		Rebuttal:  mean(sums[3]),
		Civility:  mean(sums[4]),
		Relevance: mean(sums[5]),
	}
}

// Overall computes the rounded mean of the six dimensions of an aggregate.
func Overall(s models.TurnScore) int {
	sum := 0
	for _, v := range s.Dimensions() {
		sum += v
	}
	return int(math.Round(float64(sum) / 6))
}

func countMarkers(lower string, markers []string) int {
	n := 0
	for _, m := range markers {
		if strings.Contains(lower, m) {
			n++
		}
	}
	return n
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
