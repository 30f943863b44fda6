package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"kitabu/internal/analytics"
	"kitabu/internal/export"
)

// ExportRequestMessage asks the worker to export the records of one window.
// The worker reads the ledger itself; the message carries no records.
type ExportRequestMessage struct {
	ID          string    `json:"id"`
	Window      string    `json:"window"`
	Formats     []string  `json:"formats,omitempty"`
	Sheets      bool      `json:"sheets"`
	RequestedAt time.Time `json:"requested_at"`
}

func NewExportRequestMessage(window analytics.WindowKind, formats []export.Format, sheets bool) *ExportRequestMessage {
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = string(f)
	}
	return &ExportRequestMessage{
		ID:          uuid.NewString(),
		Window:      window.String(),
		Formats:     names,
		Sheets:      sheets,
		RequestedAt: time.Now().UTC(),
	}
}

// Parsed validates the message and returns its typed window and formats.
func (m *ExportRequestMessage) Parsed() (analytics.WindowKind, []export.Format, error) {
	kind, err := analytics.ParseWindow(m.Window)
	if err != nil {
		return 0, nil, err
	}
	formats := make([]export.Format, 0, len(m.Formats))
	for _, name := range m.Formats {
		f, err := export.ParseFormat(name)
		if err != nil {
			return 0, nil, err
		}
		formats = append(formats, f)
	}
	if len(formats) == 0 && !m.Sheets {
		return 0, nil, errors.New("export request has no targets")
	}
	return kind, formats, nil
}

func (m *ExportRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExportRequestMessageFromJSON(data []byte) (*ExportRequestMessage, error) {
	var msg ExportRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode export request: %w", err)
	}
	return &msg, nil
}
