package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/rmoran/callprep/internal/model"
)

func TestEncodeTime_RoundTrip(t *testing.T) {
	cases := []time.Time{
		time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 1, 9, 0, 0, 123456789, time.UTC),
		time.Date(1999, 12, 31, 23, 59, 59, 999999999, time.UTC),
	}
	for _, want := range cases {
		got, err := decodeTime(encodeTime(want))
		if err != nil {
			t.Fatalf("decodeTime(%v) failed: %v", want, err)
		}
		if !got.Equal(want) {
			t.Errorf("round trip = %v, want %v", got, want)
		}
	}
}

func TestEncodeTime_NormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("CEST", 2*60*60)
	in := time.Date(2026, 8, 1, 11, 0, 0, 0, loc)

	got, err := decodeTime(encodeTime(in))
	if err != nil {
		t.Fatalf("decodeTime() failed: %v", err)
	}
	if !got.Equal(in) {
		t.Errorf("round trip = %v, want instant %v", got, in)
	}
}

func TestDecodeTime_Malformed(t *testing.T) {
	// A date-shaped string in a non-canonical form must fail loudly, not
	// be guessed at.
	if _, err := decodeTime("01/08/2026 09:00"); err == nil {
		t.Error("expected error for malformed timestamp")
	}
}

func TestEncodeTimePtr_Nil(t *testing.T) {
	if ns := encodeTimePtr(nil); ns.Valid {
		t.Errorf("encodeTimePtr(nil) = %v, want NULL", ns)
	}
	got, err := decodeTimePtr(sql.NullString{})
	if err != nil {
		t.Fatalf("decodeTimePtr(NULL) failed: %v", err)
	}
	if got != nil {
		t.Errorf("decodeTimePtr(NULL) = %v, want nil", got)
	}
}

func TestEncodeJSON_NoHTMLEscaping(t *testing.T) {
	s, err := encodeJSON(map[string]string{"q": "a < b && c > d"})
	if err != nil {
		t.Fatalf("encodeJSON() failed: %v", err)
	}
	want := `{"q":"a < b && c > d"}`
	if s != want {
		t.Errorf("encoded = %s, want %s", s, want)
	}
}

func TestEncodeIDList_RoundTrip(t *testing.T) {
	for _, want := range [][]string{{}, {"a"}, {"a", "b", "c"}} {
		encoded, err := encodeIDList(want)
		if err != nil {
			t.Fatalf("encodeIDList(%v) failed: %v", want, err)
		}
		got, err := decodeIDList(encoded)
		if err != nil {
			t.Fatalf("decodeIDList(%q) failed: %v", encoded, err)
		}
		if len(got) != len(want) {
			t.Errorf("round trip = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("round trip = %v, want %v", got, want)
			}
		}
	}
}

func TestEncodeIDList_NilStoresEmpty(t *testing.T) {
	encoded, err := encodeIDList(nil)
	if err != nil {
		t.Fatalf("encodeIDList(nil) failed: %v", err)
	}
	if encoded != "[]" {
		t.Errorf("encoded = %q, want []", encoded)
	}
	got, err := decodeIDList(encoded)
	if err != nil {
		t.Fatalf("decodeIDList() failed: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("decoded = %#v, want non-nil empty", got)
	}
}

func TestEncodeChecklist_NilVsEmpty(t *testing.T) {
	ns, err := encodeChecklist(nil)
	if err != nil {
		t.Fatalf("encodeChecklist(nil) failed: %v", err)
	}
	if ns.Valid {
		t.Error("nil checklist should store as NULL")
	}

	ns, err = encodeChecklist(model.Checklist{})
	if err != nil {
		t.Fatalf("encodeChecklist(empty) failed: %v", err)
	}
	if !ns.Valid {
		t.Error("empty checklist should store as a value, not NULL")
	}
}

// A string field whose value happens to look like a timestamp must stay a
// string: types are carried by the column, not inferred from shape.
func TestCodec_DateShapedStringStaysString(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	dateShaped := "2026-08-01T09:00:00Z"
	_, err := s.CreateProject(ctx, model.ProjectInput{
		ID:          "p1",
		Name:        "Acme Co",
		Description: dateShaped,
		MeetingVariables: &model.MeetingVariables{
			Customer: dateShaped,
		},
	})
	if err != nil {
		t.Fatalf("CreateProject() failed: %v", err)
	}

	got, err := s.GetProject(ctx, "p1")
	if err != nil {
		t.Fatalf("GetProject() failed: %v", err)
	}
	if got.Description != dateShaped {
		t.Errorf("description = %q, want the literal string back", got.Description)
	}
	if got.MeetingVariables == nil || got.MeetingVariables.Customer != dateShaped {
		t.Errorf("customer = %+v, want the literal string back", got.MeetingVariables)
	}
}

func TestScanProject_CorruptColumnIsSerializationError(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateProject(ctx, testProjectInput("p1", "Acme Co")); err != nil {
		t.Fatalf("CreateProject() failed: %v", err)
	}
	if _, err := s.db.Exec("UPDATE projects SET checklist = 'not json' WHERE id = 'p1'"); err != nil {
		t.Fatalf("corrupt column: %v", err)
	}

	_, err := s.GetProject(ctx, "p1")
	if !IsSerializationError(err) {
		t.Errorf("err = %v, want SerializationError", err)
	}
}
