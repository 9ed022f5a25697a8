// Package outbreak detects population-level outbreaks from the reports of one
// location and raises each (location, disease) outbreak at most once.
package outbreak

import (
	"sort"
	"strings"
	"time"

	"github.com/smukkama/symptom-intel/internal/model"
	"github.com/smukkama/symptom-intel/internal/taxonomy"
)

// MinPatternScore is the share of a pattern's symptoms a group must show
const MinPatternScore = 0.6

const clusterSuffix = "_cluster"

// Candidate is an outbreak the correlator believes is happening
type Candidate struct {
	DiseaseID string
	Disease   string
	CaseCount int
	Threshold int
	Severity  model.OutbreakSeverity
	Symptoms  []string
}

type symptomGroup struct {
	key      string
	symptoms []string // sorted, deduplicated
	reports  []*model.Report
}

// countSince counts the group's reports created strictly after since
func (g *symptomGroup) countSince(since time.Time) int {
	n := 0
	for _, r := range g.reports {
		if r.CreatedAt.After(since) {
			n++
		}
	}
	return n
}

// Correlate evaluates one location's reports at now and returns every
// outbreak currently over threshold, at most one per disease id.
func Correlate(catalog *taxonomy.Catalog, reports []*model.Report, now time.Time) []Candidate {
	since := now.Add(-catalog.MaxWindow())
	groups := groupBySymptoms(reports, since)

	best := make(map[string]Candidate)
	var order []string
	offer := func(c Candidate) {
		prev, seen := best[c.DiseaseID]
		if !seen {
			order = append(order, c.DiseaseID)
		}
		if !seen || c.CaseCount > prev.CaseCount {
			best[c.DiseaseID] = c
		}
	}

	for _, p := range catalog.DiseasePatterns {
		for _, g := range groups {
			if patternScore(catalog, g.symptoms, p.Symptoms) <= MinPatternScore {
				continue
			}
			count := g.countSince(now.Add(-p.Threshold.Window.Duration))
			if count < p.Threshold.CaseCount {
				continue
			}
			offer(Candidate{
				DiseaseID: p.ID,
				Disease:   p.Name,
				CaseCount: count,
				Threshold: p.Threshold.CaseCount,
				Severity:  severity(count, p.Threshold.CaseCount),
				Symptoms:  g.symptoms,
			})
		}
	}

	for _, g := range groups {
		primary := g.symptoms[0]
		t := catalog.ThresholdFor(primary)
		count := g.countSince(now.Add(-t.Window.Duration))
		if count < t.CaseCount {
			continue
		}
		id := clusterID(catalog, primary)
		offer(Candidate{
			DiseaseID: id,
			Disease:   strings.ToUpper(strings.ReplaceAll(id, "_", " ")),
			CaseCount: count,
			Threshold: t.CaseCount,
			Severity:  severity(count, t.CaseCount),
			Symptoms:  g.symptoms,
		})
	}

	out := make([]Candidate, 0, len(order))
	for _, id := range order {
		out = append(out, best[id])
	}
	return out
}

// groupBySymptoms groups reports inside the window by their exact symptom
// set. Groups come back ordered by key so evaluation is deterministic.
func groupBySymptoms(reports []*model.Report, since time.Time) []*symptomGroup {
	byKey := make(map[string]*symptomGroup)
	for _, r := range reports {
		if !r.CreatedAt.After(since) {
			continue
		}
		set := symptomSet(r.Symptoms)
		if len(set) == 0 {
			continue
		}
		key := strings.Join(set, "|")
		g, ok := byKey[key]
		if !ok {
			g = &symptomGroup{key: key, symptoms: set}
			byKey[key] = g
		}
		g.reports = append(g.reports, r)
	}

	groups := make([]*symptomGroup, 0, len(byKey))
	for _, g := range byKey {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].key < groups[j].key })
	return groups
}

func symptomSet(symptoms []string) []string {
	seen := make(map[string]bool, len(symptoms))
	out := make([]string, 0, len(symptoms))
	for _, s := range model.NormalizeSymptoms(symptoms) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

// patternScore is the fraction of pattern symptoms present in the group,
// comparing canonical symptom ids.
func patternScore(catalog *taxonomy.Catalog, groupSymptoms, pattern []string) float64 {
	present := make(map[string]bool, len(groupSymptoms))
	for _, s := range groupSymptoms {
		if id, ok := catalog.Canonical(s); ok {
			present[id] = true
		}
	}
	matched := 0
	for _, id := range pattern {
		if present[id] {
			matched++
		}
	}
	return float64(matched) / float64(len(pattern))
}

func clusterID(catalog *taxonomy.Catalog, symptom string) string {
	if id, ok := catalog.Canonical(symptom); ok {
		return id + clusterSuffix
	}
	return strings.Join(strings.Fields(symptom), "_") + clusterSuffix
}

func severity(count, threshold int) model.OutbreakSeverity {
	if count >= 2*threshold {
		return model.OutbreakHigh
	}
	return model.OutbreakMedium
}
