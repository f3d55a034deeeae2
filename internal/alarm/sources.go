package alarm

import (
	"context"
	"strings"

	"github.com/diyetkent/diyetkent/internal/records"
)

const (
	untitledNoteTitle = "İsimsiz Not"
	noteBodyLimit     = 100
)

// NoteReminderSource lists notes carrying a reminder.
func NoteReminderSource(store *records.Store) Source {
	return func(ctx context.Context) ([]Entry, error) {
		notes, err := store.ListNotes(ctx)
		if err != nil {
			return nil, err
		}
		entries := make([]Entry, 0, len(notes))
		for _, note := range notes {
			if note.Reminder == nil {
				continue
			}
			title := strings.TrimSpace(note.Title)
			if title == "" {
				title = untitledNoteTitle
			}
			entries = append(entries, Entry{
				RecordID: note.LocalID,
				Title:    "🔔 Hatırlatıcı: " + title,
				Body:     truncate(note.Content, noteBodyLimit),
				Due:      *note.Reminder,
			})
		}
		return entries, nil
	}
}

// AppointmentAlertSource lists appointments with a parseable date and time.
func AppointmentAlertSource(store *records.Store) Source {
	return func(ctx context.Context) ([]Entry, error) {
		appointments, err := store.ListAppointments(ctx)
		if err != nil {
			return nil, err
		}
		entries := make([]Entry, 0, len(appointments))
		for _, appointment := range appointments {
			startsAt, ok := appointment.StartsAt()
			if !ok {
				continue
			}
			entries = append(entries, Entry{
				RecordID: appointment.LocalID,
				Title:    "📅 Randevu: " + appointment.ClientName,
				Body:     appointment.Date + " " + appointment.Time,
				Due:      startsAt,
			})
		}
		return entries, nil
	}
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
