// Package intent guesses which chart a question is asking for.
package intent

import (
	"math"
	"strings"
	"unicode"
)

// Hint is the chart kind a question suggests.
type Hint string

const (
	HintLine      Hint = "line"
	HintArea      Hint = "area"
	HintBar       Hint = "bar"
	HintHistogram Hint = "histogram"
	HintKPI       Hint = "kpi"
	HintTable     Hint = "table"
	HintNone      Hint = ""
)

type prototype struct {
	hint     Hint
	keywords []string
	// explicit phrases naming the chart, weighted higher
	explicit []string
}

// Classifier scores questions against keyword prototypes. Prototypes are
// checked in a fixed order, so ties resolve the same way every time.
type Classifier struct {
	prototypes []prototype
}

const (
	wordWeight     = 2.0
	phraseWeight   = 1.5
	explicitWeight = 3.0
)

// NewClassifier creates a new intent classifier.
func NewClassifier() *Classifier {
	return &Classifier{
		prototypes: []prototype{
			{
				hint:     HintLine,
				keywords: []string{"trend", "over time", "line", "monthly", "daily", "weekly", "timeline", "growth"},
				explicit: []string{"line chart", "line graph"},
			},
			{
				hint:     HintArea,
				keywords: []string{"area", "cumulative", "running total"},
				explicit: []string{"area chart", "area graph"},
			},
			{
				hint:     HintBar,
				keywords: []string{"bar", "compare", "comparison", "top", "ranking", "breakdown", "per", "across"},
				explicit: []string{"bar chart", "bar graph", "column chart"},
			},
			{
				hint:     HintHistogram,
				keywords: []string{"histogram", "distribution", "spread", "frequency"},
				explicit: []string{"histogram"},
			},
			{
				hint:     HintKPI,
				keywords: []string{"total", "how many", "how much", "count", "sum", "average", "overall"},
			},
			{
				hint:     HintTable,
				keywords: []string{"list", "table", "details", "records", "rows"},
			},
		},
	}
}

// Classify returns the best hint, or HintNone when nothing matched.
func (c *Classifier) Classify(question string) Hint {
	hint, _ := c.ClassifyWithConfidence(question)
	return hint
}

// ClassifyWithConfidence returns the hint along with a confidence in [0, 1]
// based on the margin between the two best scores.
func (c *Classifier) ClassifyWithConfidence(question string) (Hint, float64) {
	query := strings.ToLower(question)
	words := strings.FieldsFunc(query, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})

	best, bestScore, secondScore := HintNone, 0.0, 0.0
	for _, p := range c.prototypes {
		score := c.score(query, words, p)
		if score > bestScore {
			secondScore = bestScore
			best, bestScore = p.hint, score
		} else if score > secondScore {
			secondScore = score
		}
	}

	if bestScore == 0 {
		return HintNone, 0
	}
	if secondScore > 0 {
		return best, (bestScore - secondScore) / bestScore
	}
	return best, math.Min(bestScore/4, 1)
}

func (c *Classifier) score(query string, words []string, p prototype) float64 {
	score := 0.0
	for _, kw := range p.keywords {
		if strings.Contains(kw, " ") {
			if strings.Contains(query, kw) {
				score += phraseWeight
			}
			continue
		}
		for _, w := range words {
			if matchesWord(w, kw) {
				score += wordWeight
				break
			}
		}
	}
	if containsAny(query, p.explicit) {
		score += explicitWeight
	}
	return score
}

// matchesWord accepts kw itself and its common inflections.
func matchesWord(word, kw string) bool {
	if word == kw {
		return true
	}
	for _, suffix := range []string{"s", "es", "d", "ed", "ing"} {
		if word == kw+suffix {
			return true
		}
	}
	return false
}

// containsAny checks if the string contains any of the substrings.
func containsAny(s string, substrs []string) bool {
	for _, substr := range substrs {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}
