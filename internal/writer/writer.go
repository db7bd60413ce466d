package writer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-scripts/pathcrawl/internal/types"
)

// Summary is the JSON document written at the end of a run
type Summary struct {
	Start     string      `json:"start"`
	Target    string      `json:"target"`
	State     string      `json:"state"`
	Found     bool        `json:"found"`
	Paths     [][]string  `json:"paths"`
	Stats     types.Stats `json:"stats"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewSummary builds a Summary from a finished run
func NewSummary(start, target types.PageID, outcome types.Outcome) Summary {
	paths := make([][]string, 0, len(outcome.Matches))
	for _, m := range outcome.Matches {
		paths = append(paths, m.Path.Strings())
	}
	return Summary{
		Start:     string(start),
		Target:    string(target),
		State:     outcome.State.String(),
		Found:     outcome.Found(),
		Paths:     paths,
		Stats:     outcome.Stats,
		Timestamp: time.Now().UTC(),
	}
}

// WriteSummary writes the summary to path, creating its directory if needed
func WriteSummary(path string, summary Summary) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(summary); err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}

	return nil
}
