package syncer

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/diyetkent/diyetkent/internal/records"
	"github.com/diyetkent/diyetkent/internal/remote"
)

// Remote collection per entity type.
const (
	CollectionNotes        = "notes"
	CollectionAppointments = "appointments"
	CollectionRecipes      = "recipes"
	CollectionTemplates    = "templates"
)

// NoteAdapter correlates notes by their local identifier: the note id is
// carried remotely as the localId back-reference, so it doubles as an exact
// natural key.
func NoteAdapter() Adapter[records.Note] {
	return Adapter[records.Note]{
		Collection: CollectionNotes,
		KeyFields:  []string{LocalIDField},
		Blank:      records.Note.Blank,
		ToRemote: func(note records.Note) map[string]any {
			fields := map[string]any{
				LocalIDField: note.LocalID,
				"title":      note.Title,
				"content":    note.Content,
				"color":      note.Color,
				"pinned":     note.Pinned,
				"tags":       note.Tags(),
			}
			if note.Reminder != nil {
				fields["reminder"] = note.Reminder.UTC().Format(time.RFC3339)
			}
			return fields
		},
		FromRemote: func(doc remote.Document) (records.Note, error) {
			note := records.Note{
				LocalID:  doc.StringField(LocalIDField),
				Title:    doc.StringField("title"),
				Content:  doc.StringField("content"),
				Color:    doc.StringField("color"),
				Pinned:   boolField(doc, "pinned"),
				TagsJSON: records.EncodeStringList(stringListField(doc, "tags")),
			}
			if note.LocalID == "" {
				note.LocalID = doc.ID
			}
			if raw := doc.StringField("reminder"); raw != "" {
				reminder, err := time.Parse(time.RFC3339, raw)
				if err != nil {
					return records.Note{}, fmt.Errorf("note %s: bad reminder %q: %w", doc.ID, raw, err)
				}
				note.Reminder = &reminder
			}
			return note, nil
		},
	}
}

// AppointmentAdapter correlates appointments by (clientName, date, time). The
// same key is applied for update and delete resolution.
func AppointmentAdapter() Adapter[records.Appointment] {
	return Adapter[records.Appointment]{
		Collection: CollectionAppointments,
		KeyFields:  []string{"clientName", "date", "time"},
		ToRemote: func(appointment records.Appointment) map[string]any {
			return map[string]any{
				LocalIDField: appointment.LocalID,
				"clientName": appointment.ClientName,
				"phone":      appointment.Phone,
				"date":       appointment.Date,
				"time":       appointment.Time,
				"types":      appointment.Types(),
				"note":       appointment.Note,
				"status":     appointment.Status,
			}
		},
		FromRemote: func(doc remote.Document) (records.Appointment, error) {
			appointment := records.Appointment{
				LocalID:    doc.StringField(LocalIDField),
				ClientName: doc.StringField("clientName"),
				Phone:      doc.StringField("phone"),
				Date:       doc.StringField("date"),
				Time:       doc.StringField("time"),
				TypesJSON:  records.EncodeStringList(stringListField(doc, "types")),
				Note:       doc.StringField("note"),
				Status:     doc.StringField("status"),
			}
			if appointment.LocalID == "" {
				appointment.LocalID = doc.ID
			}
			if appointment.ClientName == "" {
				return records.Appointment{}, fmt.Errorf("appointment %s: missing clientName", doc.ID)
			}
			return appointment, nil
		},
	}
}

// RecipeAdapter correlates recipes by exact, case-sensitive name.
func RecipeAdapter() Adapter[records.Recipe] {
	return Adapter[records.Recipe]{
		Collection: CollectionRecipes,
		KeyFields:  []string{"name"},
		ToRemote: func(recipe records.Recipe) map[string]any {
			return map[string]any{
				LocalIDField: recipe.LocalID,
				"name":       recipe.Name,
				"meal_type":  recipe.MealType,
				"contents":   jsonField(recipe.ContentsJSON),
				"seasons":    records.DecodeStringList(recipe.SeasonsJSON),
			}
		},
		FromRemote: func(doc remote.Document) (records.Recipe, error) {
			recipe := records.Recipe{
				LocalID:      doc.StringField(LocalIDField),
				Name:         doc.StringField("name"),
				MealType:     doc.StringField("meal_type"),
				ContentsJSON: encodeJSONField(doc.Fields["contents"], "{}"),
				SeasonsJSON:  records.EncodeStringList(stringListField(doc, "seasons")),
			}
			if recipe.LocalID == "" {
				recipe.LocalID = doc.ID
			}
			if recipe.Name == "" {
				return records.Recipe{}, fmt.Errorf("recipe %s: missing name", doc.ID)
			}
			return recipe, nil
		},
	}
}

// TemplateAdapter correlates diet templates by exact, case-sensitive name.
func TemplateAdapter() Adapter[records.Template] {
	return Adapter[records.Template]{
		Collection: CollectionTemplates,
		KeyFields:  []string{"name"},
		ToRemote: func(template records.Template) map[string]any {
			return map[string]any{
				LocalIDField: template.LocalID,
				"name":       template.Name,
				"meals":      jsonField(template.MealsJSON),
			}
		},
		FromRemote: func(doc remote.Document) (records.Template, error) {
			template := records.Template{
				LocalID:   doc.StringField(LocalIDField),
				Name:      doc.StringField("name"),
				MealsJSON: encodeJSONField(doc.Fields["meals"], "[]"),
			}
			if template.LocalID == "" {
				template.LocalID = doc.ID
			}
			if template.Name == "" {
				return records.Template{}, fmt.Errorf("template %s: missing name", doc.ID)
			}
			return template, nil
		},
	}
}

func boolField(doc remote.Document, name string) bool {
	value, ok := doc.Fields[name].(bool)
	return ok && value
}

func stringListField(doc remote.Document, name string) []string {
	switch typed := doc.Fields[name].(type) {
	case []string:
		return typed
	case []any:
		values := make([]string, 0, len(typed))
		for _, item := range typed {
			values = append(values, stringValue(item))
		}
		return values
	default:
		return nil
	}
}

// jsonField decodes a JSON column for transport as a structured field.
func jsonField(raw string) any {
	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return nil
	}
	return value
}

// encodeJSONField re-serializes a structured remote field into its JSON
// column form, falling back to the column's empty value.
func encodeJSONField(value any, empty string) string {
	if value == nil {
		return empty
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return empty
	}
	return string(encoded)
}
