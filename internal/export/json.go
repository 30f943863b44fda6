package export

import (
	"encoding/json"
	"fmt"
	"io"
)

type document struct {
	Sheet   string   `json:"sheet"`
	Headers []string `json:"headers"`
	Rows    []Row    `json:"rows"`
}

// WriteJSON encodes the table as {"sheet", "headers", "rows"}.
func WriteJSON(w io.Writer, rows []Row) error {
	if rows == nil {
		rows = []Row{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(document{Sheet: SheetName, Headers: Headers, Rows: rows}); err != nil {
		return fmt.Errorf("error encoding JSON data: %w", err)
	}
	return nil
}
