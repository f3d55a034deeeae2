package records

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const maxIdentifierLength = 190

var (
	// ErrInvalidLocalID indicates that a record identifier is empty or exceeds storage bounds.
	ErrInvalidLocalID = errors.New("records: invalid local id")
	// ErrNotFound indicates that no record matches the requested identifier.
	ErrNotFound = errors.New("records: not found")
)

// LocalID represents a validated local record identifier.
type LocalID string

// NewLocalID validates raw input and returns a LocalID.
func NewLocalID(rawInput string) (LocalID, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidLocalID)
	}
	if len(trimmed) > maxIdentifierLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidLocalID, maxIdentifierLength)
	}
	return LocalID(trimmed), nil
}

// String returns the underlying string identifier.
func (id LocalID) String() string {
	return string(id)
}

// DefaultNoteColor is applied when a note carries no explicit color.
const DefaultNoteColor = "default"

// DefaultAppointmentStatus is applied when an appointment carries no explicit status.
const DefaultAppointmentStatus = "pending"

// Note models a sticky note with an optional reminder.
type Note struct {
	LocalID   string     `gorm:"column:local_id;primaryKey;size:190;not null" json:"id"`
	Title     string     `gorm:"column:title;type:text;not null;default:''" json:"title"`
	Content   string     `gorm:"column:content;type:text;not null;default:''" json:"content"`
	Color     string     `gorm:"column:color;size:32;not null;default:'default'" json:"color"`
	Pinned    bool       `gorm:"column:pinned;not null;default:false" json:"pinned"`
	TagsJSON  string     `gorm:"column:tags_json;type:text;not null;default:'[]'" json:"-"`
	Reminder  *time.Time `gorm:"column:reminder" json:"reminder,omitempty"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// TableName provides the explicit table binding for GORM.
func (Note) TableName() string {
	return "notes"
}

// Blank reports whether the note carries no user content. Blank notes stay in
// the store while being edited but are never pushed remotely and are pruned
// when focus leaves them.
func (n Note) Blank() bool {
	return strings.TrimSpace(n.Title) == "" && strings.TrimSpace(n.Content) == ""
}

// Tags decodes the serialized tag list.
func (n Note) Tags() []string {
	return DecodeStringList(n.TagsJSON)
}

// Appointment models a client appointment. Date and Time are kept as the
// display strings the desktop UI edits ("2006-01-02" and "15:04").
type Appointment struct {
	LocalID    string    `gorm:"column:local_id;primaryKey;size:190;not null" json:"id"`
	ClientName string    `gorm:"column:client_name;size:320;not null" json:"clientName"`
	Phone      string    `gorm:"column:phone;size:64" json:"phone,omitempty"`
	Date       string    `gorm:"column:date;size:10;not null;index" json:"date"`
	Time       string    `gorm:"column:time;size:5;not null" json:"time"`
	TypesJSON  string    `gorm:"column:types_json;type:text;not null;default:'[]'" json:"-"`
	Note       string    `gorm:"column:note;type:text" json:"note,omitempty"`
	Status     string    `gorm:"column:status;size:32;not null;default:'pending'" json:"status"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// TableName provides the explicit table binding for GORM.
func (Appointment) TableName() string {
	return "appointments"
}

// Types decodes the serialized appointment type list.
func (a Appointment) Types() []string {
	return DecodeStringList(a.TypesJSON)
}

// StartsAt combines the date and time columns into a wall-clock instant in the
// process local zone. The second return is false when either field is absent
// or malformed.
func (a Appointment) StartsAt() (time.Time, bool) {
	if a.Date == "" || a.Time == "" {
		return time.Time{}, false
	}
	parsed, err := time.ParseInLocation("2006-01-02 15:04", a.Date+" "+a.Time, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

// Recipe models a meal recipe with per-BKI-tier contents.
type Recipe struct {
	LocalID      string    `gorm:"column:local_id;primaryKey;size:190;not null" json:"id"`
	Name         string    `gorm:"column:name;size:320;not null;index" json:"name"`
	MealType     string    `gorm:"column:meal_type;size:64" json:"meal_type,omitempty"`
	ContentsJSON string    `gorm:"column:contents_json;type:text;not null;default:'{}'" json:"-"`
	SeasonsJSON  string    `gorm:"column:seasons_json;type:text;not null;default:'[]'" json:"-"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// TableName provides the explicit table binding for GORM.
func (Recipe) TableName() string {
	return "recipes"
}

// Template models a reusable diet template composed of meals.
type Template struct {
	LocalID   string    `gorm:"column:local_id;primaryKey;size:190;not null" json:"id"`
	Name      string    `gorm:"column:name;size:320;not null;index" json:"name"`
	MealsJSON string    `gorm:"column:meals_json;type:text;not null;default:'[]'" json:"-"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// TableName provides the explicit table binding for GORM.
func (Template) TableName() string {
	return "diet_templates"
}

// Setting stores small key/value pairs such as last reconcile times.
type Setting struct {
	Key       string    `gorm:"column:key;primaryKey;size:190;not null"`
	Value     string    `gorm:"column:value;type:text;not null;default:''"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName provides the explicit table binding for GORM.
func (Setting) TableName() string {
	return "settings"
}

// EncodeStringList serializes a list into its JSON column form. A nil list
// encodes as the empty list.
func EncodeStringList(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	encoded, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(encoded)
}

// DecodeStringList parses a JSON column back into a list, tolerating legacy
// empty columns.
func DecodeStringList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil
	}
	return values
}
