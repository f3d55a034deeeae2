package syncer

import (
	"testing"
	"time"

	"github.com/diyetkent/diyetkent/internal/records"
	"github.com/diyetkent/diyetkent/internal/remote"
)

func TestNoteAdapterRoundTrip(t *testing.T) {
	adapter := NoteAdapter()
	reminder := time.Date(2026, time.March, 1, 9, 30, 0, 0, time.UTC)
	note := records.Note{
		LocalID:  "note-1",
		Title:    "Su içmeyi unutma",
		Content:  "Günde 2 litre",
		Color:    "yellow",
		Pinned:   true,
		TagsJSON: records.EncodeStringList([]string{"takip"}),
		Reminder: &reminder,
	}

	fields := adapter.ToRemote(note)
	if fields["localId"] != "note-1" {
		t.Fatalf("expected localId back-reference, got %v", fields)
	}
	if fields["reminder"] != "2026-03-01T09:30:00Z" {
		t.Fatalf("unexpected reminder encoding: %v", fields["reminder"])
	}

	decoded, err := adapter.FromRemote(remote.Document{ID: "doc-9", Fields: fields})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded.LocalID != "note-1" || decoded.Title != note.Title || !decoded.Pinned {
		t.Fatalf("unexpected decoded note: %+v", decoded)
	}
	if decoded.Reminder == nil || !decoded.Reminder.Equal(reminder) {
		t.Fatalf("unexpected reminder: %v", decoded.Reminder)
	}
	tags := decoded.Tags()
	if len(tags) != 1 || tags[0] != "takip" {
		t.Fatalf("unexpected tags: %v", tags)
	}
}

func TestNoteAdapterFallsBackToDocumentID(t *testing.T) {
	adapter := NoteAdapter()
	decoded, err := adapter.FromRemote(remote.Document{
		ID:     "doc-3",
		Fields: map[string]any{"title": "başlık"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded.LocalID != "doc-3" {
		t.Fatalf("expected the document id as local id, got %q", decoded.LocalID)
	}
}

func TestNoteAdapterRejectsMalformedReminder(t *testing.T) {
	adapter := NoteAdapter()
	_, err := adapter.FromRemote(remote.Document{
		ID:     "doc-4",
		Fields: map[string]any{"title": "x", "reminder": "yarın"},
	})
	if err == nil {
		t.Fatalf("expected an error for an unparseable reminder")
	}
}

func TestNoteAdapterKeyIsLocalID(t *testing.T) {
	adapter := NoteAdapter()
	key := adapter.KeyOf(records.Note{LocalID: "note-1", Title: "a"})
	if key.String() != "localId=note-1" {
		t.Fatalf("unexpected key: %q", key.String())
	}
}

func TestAppointmentAdapterKeyIsCompound(t *testing.T) {
	adapter := AppointmentAdapter()
	appointment := records.Appointment{
		LocalID:    "appt-1",
		ClientName: "Ayşe Yılmaz",
		Date:       "2026-03-05",
		Time:       "14:30",
	}
	filter := adapter.KeyOf(appointment).Filter()
	if filter["clientName"] != "Ayşe Yılmaz" || filter["date"] != "2026-03-05" || filter["time"] != "14:30" {
		t.Fatalf("unexpected key filter: %v", filter)
	}
	if _, present := filter["localId"]; present {
		t.Fatalf("local id must not participate in the appointment key")
	}
}

func TestAppointmentAdapterRejectsNamelessDocument(t *testing.T) {
	adapter := AppointmentAdapter()
	_, err := adapter.FromRemote(remote.Document{
		ID:     "doc-5",
		Fields: map[string]any{"date": "2026-03-05", "time": "14:30"},
	})
	if err == nil {
		t.Fatalf("expected an error for a missing client name")
	}
}

func TestRecipeAdapterCarriesStructuredContents(t *testing.T) {
	adapter := RecipeAdapter()
	recipe := records.Recipe{
		LocalID:      "recipe-1",
		Name:         "Mercimek Çorbası",
		MealType:     "öğle",
		ContentsJSON: `{"zayif":"1 kase","normal":"1 kase","kilolu":"yarım kase"}`,
		SeasonsJSON:  records.EncodeStringList([]string{"kış"}),
	}

	fields := adapter.ToRemote(recipe)
	contents, ok := fields["contents"].(map[string]any)
	if !ok || contents["zayif"] != "1 kase" {
		t.Fatalf("expected structured contents, got %v", fields["contents"])
	}

	decoded, err := adapter.FromRemote(remote.Document{ID: "doc-6", Fields: fields})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded.Name != recipe.Name || decoded.ContentsJSON == "" {
		t.Fatalf("unexpected decoded recipe: %+v", decoded)
	}
}

func TestTemplateAdapterRejectsNamelessDocument(t *testing.T) {
	adapter := TemplateAdapter()
	_, err := adapter.FromRemote(remote.Document{ID: "doc-7", Fields: map[string]any{}})
	if err == nil {
		t.Fatalf("expected an error for a missing name")
	}
}

func TestNoteBlankGuardsTheAdapter(t *testing.T) {
	adapter := NoteAdapter()
	if !adapter.isBlank(records.Note{Title: "  ", Content: "\t"}) {
		t.Fatalf("expected whitespace-only note to read as blank")
	}
	if adapter.isBlank(records.Note{Content: "dolu"}) {
		t.Fatalf("expected content-bearing note to read as non-blank")
	}
}
