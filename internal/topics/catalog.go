// Package topics holds the debate topic catalog. It backs the research
// agent's search_web tool and the topic browsing endpoints.
package topics

import (
	"sort"
	"strings"
)

// Topic is one debatable proposition with research material attached.
type Topic struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Category    string   `json:"category"`
	Summary     string   `json:"summary"`
	Description string   `json:"description"`
	KeyPoints   []string `json:"key_points"`
	Pros        []string `json:"pros"`
	Cons        []string `json:"cons"`
	Fallacies   []string `json:"fallacies"`
	Sources     []string `json:"sources"`
}

var catalog = []Topic{
	{
		ID:          "standardized-testing",
		Title:       "Should standardized testing be the primary method of student assessment?",
		Category:    "Education",
		Summary:     "Debate over using standardized tests vs alternative assessment methods in schools.",
		Description: "Standardized testing provides comparable metrics across schools and districts, but critics argue it narrows curriculum and fails to measure skills like creativity and collaboration.",
		KeyPoints:   []string{"Objective measurement", "Curriculum impact", "Student stress", "Equity concerns"},
		Pros: []string{
			"Provides objective, comparable metrics across schools",
			"Identifies learning gaps early for intervention",
			"Holds schools accountable for outcomes",
		},
		Cons: []string{
			"Narrows curriculum to test preparation",
			"Creates excessive stress and anxiety",
			"Fails to measure creativity and critical thinking",
		},
		Fallacies: []string{"False dilemma (tests vs no assessment)", "Appeal to tradition"},
		Sources:   []string{"National Education Association", "Educational Testing Service reports"},
	},
	{
		ID:          "homework-primary",
		Title:       "Should homework be abolished in primary education?",
		Category:    "Education",
		Summary:     "Examining whether homework helps or harms young students' learning and development.",
		Description: "Research on homework effectiveness shows mixed results for primary students: reinforcement and study habits on one side, stress and reduced family time on the other.",
		KeyPoints:   []string{"Academic benefit", "Family time", "Stress levels", "Equity"},
		Pros: []string{
			"Young children learn better through play and exploration",
			"Reduces stress for children and families",
			"Eliminates homework-based achievement gaps",
		},
		Cons: []string{
			"Homework reinforces classroom learning",
			"Builds study habits and self-discipline early",
			"Prepares students for future academic demands",
		},
		Fallacies: []string{"Slippery slope", "Appeal to nature"},
		Sources:   []string{"Harris Cooper meta-analysis", "OECD education reports"},
	},
	{
		ID:          "universal-basic-income",
		Title:       "Should governments introduce a universal basic income?",
		Category:    "Economics",
		Summary:     "Unconditional cash transfers as a response to automation and inequality.",
		Description: "UBI pilots report improved wellbeing and financial stability, while opponents point to fiscal cost, inflation risk and weakened work incentives.",
		KeyPoints:   []string{"Automation", "Poverty reduction", "Fiscal cost", "Work incentives"},
		Pros: []string{
			"Provides a safety net against automation-driven job loss",
			"Reduces poverty and administrative overhead of targeted welfare",
			"Pilot programs show improved health and education outcomes",
		},
		Cons: []string{
			"Enormous fiscal cost requires major tax increases",
			"May reduce labor force participation",
			"Risks inflation eroding the benefit's value",
		},
		Fallacies: []string{"Appeal to novelty", "Hasty generalization from small pilots"},
		Sources:   []string{"GiveDirectly Kenya study", "Finland basic income experiment"},
	},
	{
		ID:          "remote-work-default",
		Title:       "Should remote work be the default for knowledge workers?",
		Category:    "Society",
		Summary:     "Weighing flexibility and reach against collaboration and culture.",
		Description: "Remote-first companies report wider talent pools and higher reported satisfaction; critics cite mentorship gaps, weaker innovation and blurred work-life boundaries.",
		KeyPoints:   []string{"Productivity", "Talent access", "Collaboration", "Urban economics"},
		Pros: []string{
			"Expands hiring beyond commuting distance",
			"Cuts commute time and office costs",
			"Surveys show higher employee satisfaction and retention",
		},
		Cons: []string{
			"Weakens mentorship and spontaneous collaboration",
			"Harder to build and transmit company culture",
			"Blurs boundaries between work and home life",
		},
		Fallacies: []string{"False dilemma (fully remote vs fully in-office)"},
		Sources:   []string{"Stanford WFH research", "Microsoft Work Trend Index"},
	},
	{
		ID:          "ai-content-regulation",
		Title:       "Should AI-generated content require mandatory labeling?",
		Category:    "Technology",
		Summary:     "Transparency obligations for synthetic media and machine-written text.",
		Description: "Mandatory labels promise provenance and fraud protection, but raise enforcement, definition and free-expression questions as generation becomes ubiquitous.",
		KeyPoints:   []string{"Transparency", "Misinformation", "Enforcement", "Innovation impact"},
		Pros: []string{
			"Protects audiences from synthetic deception",
			"Preserves trust in photographic and written evidence",
			"Creates accountability for mass-produced content",
		},
		Cons: []string{
			"Practically unenforceable at internet scale",
			"Definitions blur as AI assistance becomes universal",
			"Burdens legitimate creative and accessibility uses",
		},
		Fallacies: []string{"Slippery slope", "Nirvana fallacy"},
		Sources:   []string{"EU AI Act provisions", "Partnership on AI synthetic media framework"},
	},
	{
		ID:          "space-exploration-funding",
		Title:       "Should public funds prioritize space exploration over Earth-bound programs?",
		Category:    "Science",
		Summary:     "Allocating limited budgets between space ambitions and terrestrial needs.",
		Description: "Space programs drive technology and long-term survival prospects, while critics argue the same funds address urgent problems here with more certain returns.",
		KeyPoints:   []string{"Opportunity cost", "Technology spillover", "Inspiration", "Long-term survival"},
		Pros: []string{
			"Drives technology spillovers from satellites to medicine",
			"Hedges existential risk through multi-planet presence",
			"Inspires careers in science and engineering",
		},
		Cons: []string{
			"Urgent terrestrial needs offer more certain returns",
			"Private sector now funds much of the frontier",
			"Benefits accrue over decades, costs are immediate",
		},
		Fallacies: []string{"False dilemma (space vs Earth)", "Appeal to emotion"},
		Sources:   []string{"NASA economic impact reports", "OECD space economy data"},
	},
}

// All returns the full catalog.
func All() []Topic {
	out := make([]Topic, len(catalog))
	copy(out, catalog)
	return out
}

// Get looks a topic up by id.
func Get(id string) (Topic, bool) {
	for _, t := range catalog {
		if t.ID == id {
			return t, true
		}
	}
	return Topic{}, false
}

// Search returns topics whose title, summary or category contains the query,
// best matches first. An empty query returns everything.
func Search(query string) []Topic {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return All()
	}

	type scored struct {
		topic Topic
		score int
	}
	var matches []scored
	for _, t := range catalog {
		score := 0
		title := strings.ToLower(t.Title)
		if strings.Contains(title, query) {
			score += 3
		}
		if strings.Contains(strings.ToLower(t.Summary), query) {
			score += 2
		}
		if strings.Contains(strings.ToLower(t.Category), query) {
			score++
		}
		for _, w := range strings.Fields(query) {
			if strings.Contains(title, w) {
				score++
			}
		}
		if score > 0 {
			matches = append(matches, scored{t, score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	out := make([]Topic, len(matches))
	for i, m := range matches {
		out[i] = m.topic
	}
	return out
}

// BestMatch returns the closest topic for a free-text query, used by the
// research tool when the model searches by phrase rather than id.
func BestMatch(query string) (Topic, bool) {
	results := Search(query)
	if len(results) == 0 {
		return Topic{}, false
	}
	return results[0], true
}
