package model

import "fmt"

// EscalationLevel is the urgency tier assigned to a report
type EscalationLevel int

const (
	LevelRoutineCare EscalationLevel = iota
	LevelWithin24Hours
	LevelImmediate
)

func (l EscalationLevel) String() string {
	switch l {
	case LevelImmediate:
		return "immediate"
	case LevelWithin24Hours:
		return "within_24_hours"
	case LevelRoutineCare:
		return "routine_care"
	default:
		return fmt.Sprintf("EscalationLevel(%d)", int(l))
	}
}

// RequiresEscalation reports whether a health worker must be brought in.
func (l EscalationLevel) RequiresEscalation() bool {
	switch l {
	case LevelImmediate, LevelWithin24Hours:
		return true
	case LevelRoutineCare:
		return false
	default:
		return false
	}
}

func (l EscalationLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *EscalationLevel) UnmarshalText(b []byte) error {
	v, err := ParseEscalationLevel(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// ParseEscalationLevel parses the wire form of an escalation level
func ParseEscalationLevel(s string) (EscalationLevel, error) {
	switch s {
	case "immediate":
		return LevelImmediate, nil
	case "within_24_hours":
		return LevelWithin24Hours, nil
	case "routine_care":
		return LevelRoutineCare, nil
	default:
		return LevelRoutineCare, fmt.Errorf("unknown escalation level %q", s)
	}
}

// ConditionSeverity mirrors the severity declared on a Condition
type ConditionSeverity string

const (
	SeverityLow    ConditionSeverity = "low"
	SeverityMedium ConditionSeverity = "medium"
	SeverityHigh   ConditionSeverity = "high"
)

// Valid reports whether s is a known severity.
func (s ConditionSeverity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	default:
		return false
	}
}

// ConditionMatch is one ranked candidate condition for a report
type ConditionMatch struct {
	ConditionID      string            `json:"conditionId"`
	Name             string            `json:"name"`
	MatchedCount     int               `json:"matchedCount"`
	MatchPercentage  float64           `json:"matchPercentage"`
	Severity         ConditionSeverity `json:"severity"`
	ImmediateActions []string          `json:"immediateActions,omitempty"`
}

// TriageResult is derived from a report and never stored on its own.
type TriageResult struct {
	MatchedConditions []ConditionMatch `json:"matchedConditions"`
	EscalationLevel   EscalationLevel  `json:"escalationLevel"`
}
