package store

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rmoran/callprep/internal/model"
)

// The codec maps entity fields onto typed columns:
//
//   - temporal fields   -> RFC 3339 UTC TEXT (dedicated columns, never inferred)
//   - nested objects    -> JSON TEXT (NULL when the optional is absent)
//   - id lists          -> JSON array TEXT
//   - audio payloads    -> BLOB, byte-for-byte (never JSON round-tripped)
//
// Each column knows its own type, so decoding never has to guess whether a
// string is a timestamp.

// encodeTime converts a timestamp to its canonical stored form.
func encodeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// decodeTime parses a stored timestamp.
func decodeTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

// encodeTimePtr converts an optional timestamp to a nullable column value.
func encodeTimePtr(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: encodeTime(*t), Valid: true}
}

// decodeTimePtr parses a nullable timestamp column.
func decodeTimePtr(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := decodeTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// encodeJSON serializes a nested value to JSON TEXT.
// HTML escaping is disabled so stored text matches its input byte-for-byte.
func encodeJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encode json: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// encodeJSONPtr serializes an optional nested value; nil maps to NULL.
func encodeJSONPtr[T any](v *T) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	s, err := encodeJSON(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: s, Valid: true}, nil
}

// decodeJSONPtr parses a nullable JSON column into an optional nested value.
func decodeJSONPtr[T any](ns sql.NullString) (*T, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal([]byte(ns.String), &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// encodeChecklist serializes a checklist; nil maps to NULL so an absent
// checklist stays distinguishable from an empty one.
func encodeChecklist(c model.Checklist) (sql.NullString, error) {
	if c == nil {
		return sql.NullString{}, nil
	}
	s, err := encodeJSON(c)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: s, Valid: true}, nil
}

// decodeChecklist parses a nullable checklist column.
func decodeChecklist(ns sql.NullString) (model.Checklist, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	var c model.Checklist
	if err := json.Unmarshal([]byte(ns.String), &c); err != nil {
		return nil, err
	}
	return c, nil
}

// encodeIDList serializes a back-reference id list. Nil and empty both
// store as "[]"; back-references always read back as a non-nil slice.
func encodeIDList(ids []string) (string, error) {
	if len(ids) == 0 {
		return "[]", nil
	}
	return encodeJSON(ids)
}

// decodeIDList parses a back-reference id list column.
func decodeIDList(data string) ([]string, error) {
	if data == "" || data == "[]" {
		return []string{}, nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(data), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// encodeResult serializes a coverage result. Results are required, so the
// column is NOT NULL.
func encodeResult(r model.CoverageResult) (string, error) {
	return encodeJSON(r)
}

// decodeResult parses a coverage result column.
func decodeResult(data string) (model.CoverageResult, error) {
	var r model.CoverageResult
	if data == "" {
		return r, nil
	}
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return model.CoverageResult{}, err
	}
	return r, nil
}
