// Package taxonomy holds the read-only catalog of symptoms, conditions and
// disease patterns that the triage classifier and the outbreak correlator
// score reports against.
package taxonomy

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/smukkama/symptom-intel/internal/model"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// DefaultThresholdKey is the generic threshold used for symptoms without an entry
const DefaultThresholdKey = "default"

// Duration is a time.Duration that decodes from strings such as "168h"
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = v
	return nil
}

// Symptom is a catalog symptom with the keywords that identify it in free text
type Symptom struct {
	ID       string   `yaml:"id"`
	Keywords []string `yaml:"keywords"`
}

// Condition is a diagnosable condition defined by its required symptoms
type Condition struct {
	ID                 string                  `yaml:"id"`
	Name               string                  `yaml:"name"`
	Description        string                  `yaml:"description"`
	RequiredSymptoms   []string                `yaml:"required_symptoms"`
	Severity           model.ConditionSeverity `yaml:"severity"`
	EscalationRequired bool                    `yaml:"escalation_required"`
	ImmediateActions   []string                `yaml:"immediate_actions"`
}

// Threshold is a case count that must be reached within Window
type Threshold struct {
	CaseCount int      `yaml:"case_count"`
	Window    Duration `yaml:"window"`
}

// DiseasePattern is a named outbreak signature
type DiseasePattern struct {
	ID        string    `yaml:"id"`
	Name      string    `yaml:"name"`
	Symptoms  []string  `yaml:"symptoms"`
	Threshold Threshold `yaml:"threshold"`
	Season    string    `yaml:"season,omitempty"`
	Vector    string    `yaml:"vector,omitempty"`
}

// EscalationRules are the symptom and condition sets behind the urgency tiers
type EscalationRules struct {
	ImmediateSymptoms       []string `yaml:"immediate_symptoms"`
	UrgentSymptoms          []string `yaml:"urgent_symptoms"`
	ImmediateConditions     []string `yaml:"immediate_conditions"`
	ImmediateConditionMatch float64  `yaml:"immediate_condition_match"`
}

// Catalog is loaded once at startup and only read afterwards.
type Catalog struct {
	Symptoms        []Symptom            `yaml:"symptoms"`
	Conditions      []Condition          `yaml:"conditions"`
	DiseasePatterns []DiseasePattern     `yaml:"disease_patterns"`
	Thresholds      map[string]Threshold `yaml:"outbreak_thresholds"`
	Escalation      EscalationRules      `yaml:"escalation"`

	symptoms  map[string]*Symptom
	canonical map[string]string
	maxWindow time.Duration
}

// Load reads a catalog from path, or the embedded default when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Parse(defaultCatalog)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Default returns the embedded catalog
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := c.index(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) index() error {
	c.symptoms = make(map[string]*Symptom, len(c.Symptoms))
	c.canonical = make(map[string]string)

	for i := range c.Symptoms {
		s := &c.Symptoms[i]
		s.ID = strings.ToLower(strings.TrimSpace(s.ID))
		if s.ID == "" {
			return fmt.Errorf("symptom %d has no id", i)
		}
		if _, dup := c.symptoms[s.ID]; dup {
			return fmt.Errorf("duplicate symptom %q", s.ID)
		}
		c.symptoms[s.ID] = s

		// The id itself, in both spellings, always identifies the symptom.
		terms := append([]string{s.ID, strings.ReplaceAll(s.ID, "_", " ")}, s.Keywords...)
		keywords := make([]string, 0, len(terms))
		for _, t := range terms {
			t = strings.ToLower(strings.TrimSpace(t))
			if t == "" {
				continue
			}
			if owner, ok := c.canonical[t]; ok {
				if owner != s.ID {
					return fmt.Errorf("keyword %q claimed by both %q and %q", t, owner, s.ID)
				}
				continue
			}
			c.canonical[t] = s.ID
			keywords = append(keywords, t)
		}
		s.Keywords = keywords
	}

	conditionIDs := make(map[string]bool, len(c.Conditions))
	for _, cond := range c.Conditions {
		if cond.ID == "" {
			return fmt.Errorf("condition %q has no id", cond.Name)
		}
		if conditionIDs[cond.ID] {
			return fmt.Errorf("duplicate condition %q", cond.ID)
		}
		conditionIDs[cond.ID] = true
		if len(cond.RequiredSymptoms) == 0 {
			return fmt.Errorf("condition %q has no required symptoms", cond.ID)
		}
		if !cond.Severity.Valid() {
			return fmt.Errorf("condition %q has invalid severity %q", cond.ID, cond.Severity)
		}
		if err := c.checkSymptoms("condition "+cond.ID, cond.RequiredSymptoms); err != nil {
			return err
		}
	}

	patternIDs := make(map[string]bool, len(c.DiseasePatterns))
	for _, p := range c.DiseasePatterns {
		if p.ID == "" || patternIDs[p.ID] {
			return fmt.Errorf("disease pattern id %q missing or duplicated", p.ID)
		}
		patternIDs[p.ID] = true
		if len(p.Symptoms) == 0 {
			return fmt.Errorf("disease pattern %q has no symptoms", p.ID)
		}
		if err := c.checkSymptoms("disease pattern "+p.ID, p.Symptoms); err != nil {
			return err
		}
		if err := checkThreshold("disease pattern "+p.ID, p.Threshold); err != nil {
			return err
		}
		c.maxWindow = max(c.maxWindow, p.Threshold.Window.Duration)
	}

	if _, ok := c.Thresholds[DefaultThresholdKey]; !ok {
		return fmt.Errorf("outbreak_thresholds must define %q", DefaultThresholdKey)
	}
	for key, t := range c.Thresholds {
		if err := checkThreshold("threshold "+key, t); err != nil {
			return err
		}
		c.maxWindow = max(c.maxWindow, t.Window.Duration)
	}

	if err := c.checkSymptoms("immediate_symptoms", c.Escalation.ImmediateSymptoms); err != nil {
		return err
	}
	if err := c.checkSymptoms("urgent_symptoms", c.Escalation.UrgentSymptoms); err != nil {
		return err
	}
	for _, id := range c.Escalation.ImmediateConditions {
		if !conditionIDs[id] {
			return fmt.Errorf("immediate_conditions references unknown condition %q", id)
		}
	}
	if c.Escalation.ImmediateConditionMatch <= 0 {
		c.Escalation.ImmediateConditionMatch = 50
	}
	return nil
}

func (c *Catalog) checkSymptoms(owner string, ids []string) error {
	for _, id := range ids {
		if _, ok := c.symptoms[id]; !ok {
			return fmt.Errorf("%s references unknown symptom %q", owner, id)
		}
	}
	return nil
}

func checkThreshold(owner string, t Threshold) error {
	if t.CaseCount <= 0 {
		return fmt.Errorf("%s: case_count must be positive", owner)
	}
	if t.Window.Duration <= 0 {
		return fmt.Errorf("%s: window must be positive", owner)
	}
	return nil
}

// Matches reports whether a free-text symptom matches the catalog symptom id.
// The text may contain a keyword ("very high fever" matches "fever"), or be a
// run of whole words inside one ("chest" matches "chest pain"). Word
// fragments such as "a" or "st" never match.
func (c *Catalog) Matches(text, symptomID string) bool {
	s, ok := c.symptoms[symptomID]
	if !ok {
		return false
	}
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return false
	}
	for _, kw := range s.Keywords {
		if strings.Contains(text, kw) || containsWords(kw, text) {
			return true
		}
	}
	return false
}

// containsWords reports whether words appears in phrase on word boundaries
func containsWords(phrase, words string) bool {
	return strings.Contains(" "+phrase+" ", " "+words+" ")
}

// MatchesAny reports whether any reported text matches the symptom id.
func (c *Catalog) MatchesAny(texts []string, symptomID string) bool {
	for _, t := range texts {
		if c.Matches(t, symptomID) {
			return true
		}
	}
	return false
}

// Canonical maps a reported symptom to a symptom id when the text is exactly
// the id or one of its keywords.
func (c *Catalog) Canonical(text string) (string, bool) {
	id, ok := c.canonical[strings.ToLower(strings.TrimSpace(text))]
	return id, ok
}

// ThresholdFor returns the generic cluster threshold for a primary symptom,
// falling back to its canonical id and then to the default entry.
func (c *Catalog) ThresholdFor(symptom string) Threshold {
	if t, ok := c.Thresholds[symptom]; ok {
		return t
	}
	if id, ok := c.Canonical(symptom); ok {
		if t, ok := c.Thresholds[id]; ok {
			return t
		}
	}
	return c.Thresholds[DefaultThresholdKey]
}

// MaxWindow is the broadest window across all patterns and thresholds.
func (c *Catalog) MaxWindow() time.Duration {
	return c.maxWindow
}
