package notification

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/smukkama/symptom-intel/internal/model"
)

const (
	kindDengue         = "dengue"
	kindMalaria        = "malaria"
	kindDiarrheal      = "diarrheal_outbreak"
	kindOutbreak       = "outbreak"
	kindEscalation     = "escalation"
	kindWorkerResponse = "worker_response"
)

// Renderer produces localized alert text. It has no side effects and is safe
// for concurrent use once built.
type Renderer struct {
	templates map[string]map[string]*template.Template
}

// NewRenderer parses the built-in templates
func NewRenderer() (*Renderer, error) {
	r := &Renderer{templates: make(map[string]map[string]*template.Template)}
	for kind, byLang := range builtinTemplates {
		if _, ok := byLang[English]; !ok {
			return nil, fmt.Errorf("template %s has no english fallback", kind)
		}
		r.templates[kind] = make(map[string]*template.Template, len(byLang))
		for lang, text := range byLang {
			t, err := template.New(kind + "." + lang).Parse(text)
			if err != nil {
				return nil, fmt.Errorf("failed to parse template %s.%s: %w", kind, lang, err)
			}
			r.templates[kind][lang] = t
		}
	}
	return r, nil
}

type outbreakData struct {
	Location  string
	CaseCount int
	Disease   string
}

type escalationData struct {
	Immediate    bool
	Level        string
	Location     string
	Symptoms     string
	Condition    string
	PatientName  string
	PatientPhone string
	ReportID     string
}

// RenderOutbreak renders the subscriber alert for an outbreak.
func (r *Renderer) RenderOutbreak(o *model.OutbreakRecord, language string) (string, error) {
	return r.render(outbreakKind(o.DiseaseID), language, outbreakData{
		Location:  o.Location,
		CaseCount: o.CaseCount,
		Disease:   o.Disease,
	})
}

// RenderEscalation renders the message sent to health workers.
func (r *Renderer) RenderEscalation(rec *model.EscalationRecord, language string) (string, error) {
	data := escalationData{
		Immediate:    rec.EscalationLevel == model.LevelImmediate,
		Level:        strings.ReplaceAll(rec.EscalationLevel.String(), "_", " "),
		Location:     rec.Location,
		Symptoms:     strings.Join(rec.Symptoms, ", "),
		PatientName:  rec.PatientInfo.Name,
		PatientPhone: rec.PatientInfo.Phone,
		ReportID:     rec.ReportID,
	}
	if len(rec.MatchedConditions) > 0 {
		data.Condition = rec.MatchedConditions[0].Name
	}
	return r.render(kindEscalation, language, data)
}

// RenderWorkerResponse renders the reply forwarded to the patient.
func (r *Renderer) RenderWorkerResponse(resp *model.WorkerResponse, language string) (string, error) {
	return r.render(kindWorkerResponse, language, resp)
}

func (r *Renderer) render(kind, language string, data any) (string, error) {
	byLang, ok := r.templates[kind]
	if !ok {
		return "", fmt.Errorf("unknown template kind %q", kind)
	}
	t, ok := byLang[NormalizeLanguage(language)]
	if !ok {
		t = byLang[English]
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}

func outbreakKind(diseaseID string) string {
	switch {
	case strings.Contains(diseaseID, "dengue"):
		return kindDengue
	case strings.Contains(diseaseID, "malaria"):
		return kindMalaria
	case strings.Contains(diseaseID, "diarrheal"):
		return kindDiarrheal
	default:
		return kindOutbreak
	}
}
