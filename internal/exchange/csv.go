package exchange

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/lifelinehq/lifeline/internal/timeline"
)

// ToCSV writes a flat, spreadsheet-friendly rendering of a timeline's events
// to path. Tag references are resolved to names. Lossy by design; use the
// JSON document for round-tripping.
func ToCSV(t *timeline.Timeline, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	// Header
	if err := w.Write([]string{"ID", "Name", "Start", "End", "Tags", "Description", "Created", "Modified"}); err != nil {
		return err
	}

	for _, e := range t.Events {
		endStr := ""
		if e.End != nil {
			endStr = e.End.String()
		}

		names := make([]string, 0, len(e.TagIDs))
		for _, tid := range e.TagIDs {
			if tag, ok := t.Tag(tid); ok {
				names = append(names, tag.Name)
			}
		}

		row := []string{
			fmt.Sprintf("%d", e.ID),
			e.Name,
			e.Start.String(),
			endStr,
			strings.Join(names, " "),
			e.Description,
			e.CreatedOn.UTC().Format(http.TimeFormat),
			e.LastModified.UTC().Format(http.TimeFormat),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}
