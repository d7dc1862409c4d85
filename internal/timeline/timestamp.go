package timeline

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Timestamps travel as RFC 7231 strings in the exchange document, but older
// exports and hand-edited files are accepted in a few common renderings,
// including epoch milliseconds.
var timestampLayouts = []string{
	http.TimeFormat, // RFC 7231
	time.RFC1123Z,
	time.RFC3339Nano,
	time.RFC3339,
	time.RFC850,
	time.ANSIC,
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(http.TimeFormat)
}

// parseTimestamp accepts a JSON string in any known layout or a JSON number
// of milliseconds since the Unix epoch.
func parseTimestamp(raw json.RawMessage) (time.Time, error) {
	if len(raw) == 0 {
		return time.Time{}, fmt.Errorf("missing timestamp")
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
	}

	var ms int64
	if err := json.Unmarshal(raw, &ms); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}

	return time.Time{}, fmt.Errorf("timestamp is neither string nor number: %s", raw)
}
