package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ImportMessage asks a worker to read a spreadsheet source and store its
// rows. JobID doubles as the import record id, so a redelivered message
// replaces its own earlier result.
type ImportMessage struct {
	JobID     string    `json:"job_id"`
	Source    string    `json:"source"`
	Sheet     string    `json:"sheet,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewImportMessage creates a message with a fresh job id
func NewImportMessage(source, sheet string) *ImportMessage {
	return &ImportMessage{
		JobID:     uuid.NewString(),
		Source:    strings.TrimSpace(source),
		Sheet:     strings.TrimSpace(sheet),
		Timestamp: time.Now(),
	}
}

// Validate rejects messages a worker cannot act on.
func (m *ImportMessage) Validate() error {
	if _, err := uuid.Parse(m.JobID); err != nil {
		return fmt.Errorf("invalid job id %q: %w", m.JobID, err)
	}
	if strings.TrimSpace(m.Source) == "" {
		return errors.New("missing source")
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *ImportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ImportMessageFromJSON decodes and validates a message
func ImportMessageFromJSON(data []byte) (*ImportMessage, error) {
	var msg ImportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
