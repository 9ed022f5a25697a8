package outbreak

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smukkama/symptom-intel/internal/model"
	"github.com/smukkama/symptom-intel/internal/taxonomy"
)

var testNow = time.Date(2024, 7, 15, 12, 0, 0, 0, time.UTC)

func mustCatalog(t *testing.T) *taxonomy.Catalog {
	t.Helper()
	c, err := taxonomy.Default()
	require.NoError(t, err)
	return c
}

func reportsAt(location string, symptoms []string, times ...time.Time) []*model.Report {
	out := make([]*model.Report, 0, len(times))
	for i, at := range times {
		out = append(out, &model.Report{
			ID:        fmt.Sprintf("%s-%d", location, i),
			Location:  location,
			Symptoms:  symptoms,
			CreatedAt: at,
		})
	}
	return out
}

func diseaseIDs(cands []Candidate) []string {
	out := make([]string, 0, len(cands))
	for _, c := range cands {
		out = append(out, c.DiseaseID)
	}
	return out
}

func TestCorrelateDengueScenario(t *testing.T) {
	catalog := mustCatalog(t)
	symptoms := []string{"fever", "headache", "rash"}
	day := 24 * time.Hour

	two := reportsAt("Guwahati", symptoms, testNow.Add(-3*day), testNow.Add(-2*day))
	assert.Empty(t, Correlate(catalog, two, testNow))

	three := reportsAt("Guwahati", symptoms, testNow.Add(-3*day), testNow.Add(-2*day), testNow.Add(-day))
	cands := Correlate(catalog, three, testNow)
	require.Equal(t, []string{"dengue"}, diseaseIDs(cands))
	assert.Equal(t, 3, cands[0].CaseCount)
	assert.Equal(t, model.OutbreakMedium, cands[0].Severity)
	assert.Equal(t, []string{"fever", "headache", "rash"}, cands[0].Symptoms)
}

func TestCorrelateWindowBoundary(t *testing.T) {
	catalog := mustCatalog(t)
	symptoms := []string{"fever", "headache", "rash"}
	w := 168 * time.Hour
	recent := []time.Time{testNow.Add(-time.Hour), testNow.Add(-2 * time.Hour)}

	outside := reportsAt("Guwahati", symptoms, append(recent, testNow.Add(-w-time.Millisecond))...)
	assert.Empty(t, Correlate(catalog, outside, testNow))

	inside := reportsAt("Guwahati", symptoms, append(recent, testNow.Add(-w+time.Millisecond))...)
	assert.Equal(t, []string{"dengue"}, diseaseIDs(Correlate(catalog, inside, testNow)))
}

func TestCorrelatePatternWindowNarrowerThanMax(t *testing.T) {
	catalog := mustCatalog(t)
	symptoms := []string{"diarrhea", "vomiting", "stomach pain"}

	// diarrheal_outbreak uses 72h; the third report is 4 days old.
	reports := reportsAt("Patna", symptoms, testNow.Add(-time.Hour), testNow.Add(-2*time.Hour), testNow.Add(-96*time.Hour))
	cands := Correlate(catalog, reports, testNow)
	assert.NotContains(t, diseaseIDs(cands), "diarrheal_outbreak")
}

func TestCorrelateGenericCluster(t *testing.T) {
	catalog := mustCatalog(t)
	var times []time.Time
	for i := 0; i < 5; i++ {
		times = append(times, testNow.Add(-time.Duration(i+1)*time.Hour))
	}

	cands := Correlate(catalog, reportsAt("Pune", []string{"Fever"}, times...), testNow)
	require.Equal(t, []string{"fever_cluster"}, diseaseIDs(cands))
	assert.Equal(t, "FEVER CLUSTER", cands[0].Disease)
	assert.Equal(t, 5, cands[0].Threshold)

	cands = Correlate(catalog, reportsAt("Pune", []string{"itchy toes"}, times[:3]...), testNow)
	assert.Equal(t, []string{"itchy_toes_cluster"}, diseaseIDs(cands))
}

func TestCorrelateHighSeverity(t *testing.T) {
	catalog := mustCatalog(t)
	var times []time.Time
	for i := 0; i < 6; i++ {
		times = append(times, testNow.Add(-time.Duration(i+1)*time.Hour))
	}

	cands := Correlate(catalog, reportsAt("Patna", []string{"diarrhea", "vomiting", "abdominal pain"}, times...), testNow)
	byID := make(map[string]Candidate)
	for _, c := range cands {
		byID[c.DiseaseID] = c
	}

	require.Contains(t, byID, "diarrheal_outbreak")
	assert.Equal(t, model.OutbreakHigh, byID["diarrheal_outbreak"].Severity)
	assert.Contains(t, byID, "abdominal_pain_cluster")
}

func TestCorrelateGroupsByExactSymptomSet(t *testing.T) {
	catalog := mustCatalog(t)
	reports := append(
		reportsAt("Guwahati", []string{"fever", "headache", "rash"}, testNow.Add(-time.Hour), testNow.Add(-2*time.Hour)),
		reportsAt("Guwahati", []string{"rash", "fever", "headache", "cough"}, testNow.Add(-3*time.Hour))...,
	)
	assert.Empty(t, Correlate(catalog, reports, testNow))

	// Order and duplicates inside a report do not split groups.
	reports = append(
		reportsAt("Guwahati", []string{"fever", "headache", "rash"}, testNow.Add(-time.Hour), testNow.Add(-2*time.Hour)),
		reportsAt("Guwahati", []string{"rash", "Fever", "headache", "rash"}, testNow.Add(-3*time.Hour))...,
	)
	assert.Equal(t, []string{"dengue"}, diseaseIDs(Correlate(catalog, reports, testNow)))
}
