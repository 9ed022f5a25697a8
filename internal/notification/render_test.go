package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smukkama/symptom-intel/internal/model"
)

func TestNormalizeLanguage(t *testing.T) {
	tests := map[string]string{
		"":         English,
		"hi":       Hindi,
		" BN ":     Bengali,
		"as":       Assamese,
		"te":       Telugu,
		"Telugu":   Telugu,
		"kannada":  "kannada",
		"english ": English,
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeLanguage(in), "input %q", in)
	}
}

func TestRenderOutbreakPicksTemplateByDisease(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	dengue := &model.OutbreakRecord{Location: "Guwahati", DiseaseID: "dengue", Disease: "Dengue", CaseCount: 3}
	msg, err := r.RenderOutbreak(dengue, "en")
	require.NoError(t, err)
	assert.Contains(t, msg, "DENGUE OUTBREAK ALERT")
	assert.Contains(t, msg, "3 cases detected in Guwahati")

	cluster := &model.OutbreakRecord{Location: "Pune", DiseaseID: "cough_cluster", Disease: "COUGH CLUSTER", CaseCount: 4}
	msg, err = r.RenderOutbreak(cluster, "english")
	require.NoError(t, err)
	assert.Contains(t, msg, "COUGH CLUSTER cases (4) detected in Pune")
}

func TestRenderFallsBackToEnglish(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	o := &model.OutbreakRecord{Location: "Guwahati", DiseaseID: "malaria", CaseCount: 5}
	msg, err := r.RenderOutbreak(o, "kannada")
	require.NoError(t, err)
	assert.Contains(t, msg, "MALARIA OUTBREAK ALERT")

	msg, err = r.RenderOutbreak(o, "hi")
	require.NoError(t, err)
	assert.Contains(t, msg, "मलेरिया")
	assert.Contains(t, msg, "Guwahati")
}

func TestRenderEscalation(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	rec := &model.EscalationRecord{
		ReportID:        "r-1",
		EscalationLevel: model.LevelImmediate,
		Location:        "Guwahati",
		Symptoms:        []string{"chest pain", "sweating"},
		PatientInfo:     model.PatientInfo{Name: "Asha", Phone: "+91999"},
		MatchedConditions: []model.ConditionMatch{
			{ConditionID: "cardiac_emergency", Name: "Cardiac Emergency"},
		},
	}
	msg, err := r.RenderEscalation(rec, "as")
	require.NoError(t, err)
	assert.Contains(t, msg, "URGENT")
	assert.Contains(t, msg, "chest pain, sweating")
	assert.Contains(t, msg, "Possible Cardiac Emergency")
	assert.Contains(t, msg, "+91999")
	assert.Contains(t, msg, "r-1")

	rec.EscalationLevel = model.LevelWithin24Hours
	rec.MatchedConditions = nil
	rec.PatientInfo = model.PatientInfo{}
	msg, err = r.RenderEscalation(rec, "en")
	require.NoError(t, err)
	assert.Contains(t, msg, "ATTENTION")
	assert.Contains(t, msg, "within 24 hours")
	assert.NotContains(t, msg, "Possible")
	assert.NotContains(t, msg, "Contact")
}

func TestRenderWorkerResponse(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	msg, err := r.RenderWorkerResponse(&model.WorkerResponse{
		WorkerName:       "Rina",
		Response:         "Drink fluids and rest.",
		Action:           "visit PHC",
		FollowUpRequired: true,
	}, "en")
	require.NoError(t, err)
	assert.Equal(t, "Health worker Rina replied: Drink fluids and rest. Next step: visit PHC. A follow-up visit is required.", msg)
}
