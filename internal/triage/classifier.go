// Package triage scores a single report against the condition catalog and
// assigns it an escalation level.
package triage

import (
	"sort"

	"github.com/smukkama/symptom-intel/internal/model"
	"github.com/smukkama/symptom-intel/internal/taxonomy"
)

// MaxMatches is the number of ranked conditions returned with a result
const MaxMatches = 3

// Classifier is stateless and safe for concurrent use.
type Classifier struct {
	catalog *taxonomy.Catalog
}

// NewClassifier creates a classifier over a loaded catalog
func NewClassifier(catalog *taxonomy.Catalog) *Classifier {
	return &Classifier{catalog: catalog}
}

// Classify scores the report's symptoms. Unknown symptoms are not an error;
// they simply match nothing and the report degrades to routine care.
func (c *Classifier) Classify(symptoms []string) model.TriageResult {
	candidates := c.candidates(symptoms)

	result := model.TriageResult{
		EscalationLevel: c.escalationLevel(symptoms, candidates),
	}

	// Ties keep catalog order.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].MatchedCount > candidates[j].MatchedCount
	})
	if len(candidates) > MaxMatches {
		candidates = candidates[:MaxMatches]
	}
	result.MatchedConditions = candidates
	return result
}

func (c *Classifier) candidates(symptoms []string) []model.ConditionMatch {
	var out []model.ConditionMatch
	for _, cond := range c.catalog.Conditions {
		matched := 0
		for _, required := range cond.RequiredSymptoms {
			if c.catalog.MatchesAny(symptoms, required) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		out = append(out, model.ConditionMatch{
			ConditionID:      cond.ID,
			Name:             cond.Name,
			MatchedCount:     matched,
			MatchPercentage:  MatchPercentage(matched, len(cond.RequiredSymptoms)),
			Severity:         cond.Severity,
			ImmediateActions: cond.ImmediateActions,
		})
	}
	return out
}

// escalationLevel evaluates the tiers from most to least urgent; the first
// tier that fires decides the level.
func (c *Classifier) escalationLevel(symptoms []string, candidates []model.ConditionMatch) model.EscalationLevel {
	rules := c.catalog.Escalation

	for _, id := range rules.ImmediateSymptoms {
		if c.catalog.MatchesAny(symptoms, id) {
			return model.LevelImmediate
		}
	}
	for _, cand := range candidates {
		if contains(rules.ImmediateConditions, cand.ConditionID) && cand.MatchPercentage > rules.ImmediateConditionMatch {
			return model.LevelImmediate
		}
	}

	for _, id := range rules.UrgentSymptoms {
		if c.catalog.MatchesAny(symptoms, id) {
			return model.LevelWithin24Hours
		}
	}
	for _, cand := range candidates {
		if cand.Severity == model.SeverityHigh {
			return model.LevelWithin24Hours
		}
	}

	return model.LevelRoutineCare
}

// MatchPercentage is matched/required expressed as a percentage.
func MatchPercentage(matched, required int) float64 {
	if required == 0 {
		return 0
	}
	return float64(matched) / float64(required) * 100
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
