// Package feed reads and writes crawl feed files: one JSON encoded page
// record per line.
package feed

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

// Record is one crawled page
type Record struct {
	URL     string   `json:"url"`
	Content []string `json:"content"`
}

// Line is a raw feed line together with its 1-based position in the file
type Line struct {
	Number int
	Text   string
}

// LineError reports a feed line that could not be decoded
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// Decode parses a single feed line. The line must hold a JSON object.
func Decode(line []byte) (Record, error) {
	var rec Record
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return rec, fmt.Errorf("expected a JSON object")
	}
	if err := json.Unmarshal(trimmed, &rec); err != nil {
		return rec, fmt.Errorf("failed to decode record: %w", err)
	}
	return rec, nil
}

// DecodeLines decodes every line, failing on the first malformed one.
func DecodeLines(lines []Line) ([]Record, error) {
	records := make([]Record, 0, len(lines))
	for _, l := range lines {
		rec, err := Decode([]byte(l.Text))
		if err != nil {
			return nil, &LineError{Line: l.Number, Err: err}
		}
		records = append(records, rec)
	}
	return records, nil
}
