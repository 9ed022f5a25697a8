package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/smukkama/symptom-intel/internal/model"
)

// ReportMessage is published to the reports topic by the chat and SMS
// bridges. Key is the location so one location stays on one partition.
type ReportMessage struct {
	Symptoms    []string          `json:"symptoms"`
	Location    string            `json:"location"`
	PatientInfo model.PatientInfo `json:"patientInfo"`
	Language    string            `json:"language,omitempty"`
	Source      string            `json:"source,omitempty"`
	SentAt      time.Time         `json:"sentAt"`
}

// Input converts the wire message into a SubmitReport input
func (m *ReportMessage) Input() model.ReportInput {
	return model.ReportInput{
		Symptoms:    m.Symptoms,
		Location:    m.Location,
		PatientInfo: m.PatientInfo,
		Language:    m.Language,
	}
}

// EncodeReportMessage encodes a ReportMessage to JSON
func EncodeReportMessage(msg *ReportMessage) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeReportMessage decodes JSON to ReportMessage
func DecodeReportMessage(data []byte) (*ReportMessage, error) {
	var msg ReportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("invalid report message: %w", err)
	}
	return &msg, nil
}
