package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lifelinehq/lifeline/internal/datetime"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx so the row helpers can run
// inside or outside a transaction.
type dbtx interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func encodeDateTime(d datetime.DateTime) string {
	b, _ := json.Marshal(d)
	return string(b)
}

func decodeDateTime(s string) (datetime.DateTime, error) {
	var d datetime.DateTime
	if err := json.Unmarshal([]byte(s), &d); err != nil {
		return datetime.DateTime{}, fmt.Errorf("decode stored datetime: %w", err)
	}
	return d, nil
}

func encodeIDs[T ~int64](ids []T) string {
	if ids == nil {
		ids = []T{}
	}
	b, _ := json.Marshal(ids)
	return string(b)
}

func decodeIDs[T ~int64](s string) ([]T, error) {
	var ids []T
	if err := json.Unmarshal([]byte(s), &ids); err != nil {
		return nil, fmt.Errorf("decode stored id list: %w", err)
	}
	return ids, nil
}

// placeholders returns "?, ?, ..." for n arguments.
func placeholders(n int) string {
	if n == 0 {
		return ""
	}
	b := make([]byte, 0, n*3)
	for i := 0; i < n; i++ {
		if i > 0 {
			b = append(b, ',', ' ')
		}
		b = append(b, '?')
	}
	return string(b)
}
