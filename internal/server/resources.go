package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/diyetkent/diyetkent/internal/records"
	"github.com/diyetkent/diyetkent/internal/session"
	"github.com/diyetkent/diyetkent/internal/syncer"
)

// errBadPayload marks client-side payload problems so handlers can answer 400
// instead of 500.
var errBadPayload = errors.New("invalid payload")

// resource adapts one entity type to the generic /entities routes. Every
// mutation fires its background sync before returning.
type resource interface {
	list(ctx context.Context) (any, error)
	create(ctx context.Context, tenant session.TenantID, body []byte) (any, error)
	update(ctx context.Context, tenant session.TenantID, id string, body []byte) (any, error)
	remove(ctx context.Context, tenant session.TenantID, id string) error
	prune(ctx context.Context) (int64, error)
	reconcile(ctx context.Context, tenant session.TenantID) (syncer.SyncResult, error)
	count(ctx context.Context) (int64, error)
}

// ---- notes ----

type notePayload struct {
	Title    string     `json:"title"`
	Content  string     `json:"content"`
	Color    string     `json:"color"`
	Pinned   bool       `json:"pinned"`
	Tags     []string   `json:"tags"`
	Reminder *time.Time `json:"reminder"`
}

type noteView struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Color     string     `json:"color"`
	Pinned    bool       `json:"pinned"`
	Tags      []string   `json:"tags"`
	Reminder  *time.Time `json:"reminder,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func viewOfNote(note records.Note) noteView {
	return noteView{
		ID:        note.LocalID,
		Title:     note.Title,
		Content:   note.Content,
		Color:     note.Color,
		Pinned:    note.Pinned,
		Tags:      note.Tags(),
		Reminder:  note.Reminder,
		CreatedAt: note.CreatedAt,
		UpdatedAt: note.UpdatedAt,
	}
}

type noteResource struct {
	store  *records.Store
	engine *syncer.Engine[records.Note]
}

func (r noteResource) list(ctx context.Context) (any, error) {
	notes, err := r.store.ListNotes(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]noteView, 0, len(notes))
	for _, note := range notes {
		views = append(views, viewOfNote(note))
	}
	return views, nil
}

func (r noteResource) create(ctx context.Context, tenant session.TenantID, body []byte) (any, error) {
	var payload notePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", errBadPayload, err)
	}
	saved, err := r.store.SaveNote(ctx, records.Note{
		Title:    payload.Title,
		Content:  payload.Content,
		Color:    payload.Color,
		Pinned:   payload.Pinned,
		TagsJSON: records.EncodeStringList(payload.Tags),
		Reminder: payload.Reminder,
	})
	if err != nil {
		return nil, err
	}
	r.engine.SyncOneBackground(tenant, syncer.ActionCreate, saved)
	return viewOfNote(saved), nil
}

func (r noteResource) update(ctx context.Context, tenant session.TenantID, id string, body []byte) (any, error) {
	var payload notePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", errBadPayload, err)
	}
	existing, err := r.store.GetNote(ctx, id)
	if err != nil {
		return nil, err
	}
	updated := existing
	updated.Title = payload.Title
	updated.Content = payload.Content
	updated.Color = payload.Color
	updated.Pinned = payload.Pinned
	updated.TagsJSON = records.EncodeStringList(payload.Tags)
	updated.Reminder = payload.Reminder
	saved, err := r.store.SaveNote(ctx, updated)
	if err != nil {
		return nil, err
	}
	r.engine.SyncUpdateBackground(tenant, existing, saved)
	return viewOfNote(saved), nil
}

func (r noteResource) remove(ctx context.Context, tenant session.TenantID, id string) error {
	existing, err := r.store.GetNote(ctx, id)
	if err != nil {
		return err
	}
	if err := r.store.RemoveNote(ctx, id); err != nil {
		return err
	}
	r.engine.SyncOneBackground(tenant, syncer.ActionDelete, existing)
	return nil
}

func (r noteResource) prune(ctx context.Context) (int64, error) {
	return r.store.PruneBlankNotes(ctx)
}

func (r noteResource) reconcile(ctx context.Context, tenant session.TenantID) (syncer.SyncResult, error) {
	return r.engine.ReconcileAll(ctx, tenant)
}

func (r noteResource) count(ctx context.Context) (int64, error) {
	return r.store.CountNotes(ctx)
}

// ---- appointments ----

type appointmentPayload struct {
	ClientName string   `json:"clientName"`
	Phone      string   `json:"phone"`
	Date       string   `json:"date"`
	Time       string   `json:"time"`
	Types      []string `json:"types"`
	Note       string   `json:"note"`
	Status     string   `json:"status"`
}

func (p appointmentPayload) validate() error {
	if strings.TrimSpace(p.ClientName) == "" {
		return fmt.Errorf("%w: clientName is required", errBadPayload)
	}
	if p.Date == "" || p.Time == "" {
		return fmt.Errorf("%w: date and time are required", errBadPayload)
	}
	return nil
}

type appointmentView struct {
	ID         string    `json:"id"`
	ClientName string    `json:"clientName"`
	Phone      string    `json:"phone,omitempty"`
	Date       string    `json:"date"`
	Time       string    `json:"time"`
	Types      []string  `json:"types"`
	Note       string    `json:"note,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func viewOfAppointment(appointment records.Appointment) appointmentView {
	return appointmentView{
		ID:         appointment.LocalID,
		ClientName: appointment.ClientName,
		Phone:      appointment.Phone,
		Date:       appointment.Date,
		Time:       appointment.Time,
		Types:      appointment.Types(),
		Note:       appointment.Note,
		Status:     appointment.Status,
		CreatedAt:  appointment.CreatedAt,
		UpdatedAt:  appointment.UpdatedAt,
	}
}

type appointmentResource struct {
	store  *records.Store
	engine *syncer.Engine[records.Appointment]
}

func (r appointmentResource) list(ctx context.Context) (any, error) {
	appointments, err := r.store.ListAppointments(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]appointmentView, 0, len(appointments))
	for _, appointment := range appointments {
		views = append(views, viewOfAppointment(appointment))
	}
	return views, nil
}

func (r appointmentResource) create(ctx context.Context, tenant session.TenantID, body []byte) (any, error) {
	var payload appointmentPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", errBadPayload, err)
	}
	if err := payload.validate(); err != nil {
		return nil, err
	}
	saved, err := r.store.SaveAppointment(ctx, records.Appointment{
		ClientName: payload.ClientName,
		Phone:      payload.Phone,
		Date:       payload.Date,
		Time:       payload.Time,
		TypesJSON:  records.EncodeStringList(payload.Types),
		Note:       payload.Note,
		Status:     payload.Status,
	})
	if err != nil {
		return nil, err
	}
	r.engine.SyncOneBackground(tenant, syncer.ActionCreate, saved)
	return viewOfAppointment(saved), nil
}

func (r appointmentResource) update(ctx context.Context, tenant session.TenantID, id string, body []byte) (any, error) {
	var payload appointmentPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", errBadPayload, err)
	}
	if err := payload.validate(); err != nil {
		return nil, err
	}
	existing, err := r.store.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	updated := existing
	updated.ClientName = payload.ClientName
	updated.Phone = payload.Phone
	updated.Date = payload.Date
	updated.Time = payload.Time
	updated.TypesJSON = records.EncodeStringList(payload.Types)
	updated.Note = payload.Note
	updated.Status = payload.Status
	saved, err := r.store.SaveAppointment(ctx, updated)
	if err != nil {
		return nil, err
	}
	r.engine.SyncUpdateBackground(tenant, existing, saved)
	return viewOfAppointment(saved), nil
}

func (r appointmentResource) remove(ctx context.Context, tenant session.TenantID, id string) error {
	existing, err := r.store.GetAppointment(ctx, id)
	if err != nil {
		return err
	}
	if err := r.store.RemoveAppointment(ctx, id); err != nil {
		return err
	}
	r.engine.SyncOneBackground(tenant, syncer.ActionDelete, existing)
	return nil
}

func (r appointmentResource) prune(context.Context) (int64, error) {
	return 0, nil
}

func (r appointmentResource) reconcile(ctx context.Context, tenant session.TenantID) (syncer.SyncResult, error) {
	return r.engine.ReconcileAll(ctx, tenant)
}

func (r appointmentResource) count(ctx context.Context) (int64, error) {
	return r.store.CountAppointments(ctx)
}

// ---- recipes ----

type recipePayload struct {
	Name     string         `json:"name"`
	MealType string         `json:"meal_type"`
	Contents map[string]any `json:"contents"`
	Seasons  []string       `json:"seasons"`
}

type recipeView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	MealType  string    `json:"meal_type,omitempty"`
	Contents  any       `json:"contents"`
	Seasons   []string  `json:"seasons"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func viewOfRecipe(recipe records.Recipe) recipeView {
	var contents any
	if err := json.Unmarshal([]byte(recipe.ContentsJSON), &contents); err != nil {
		contents = map[string]any{}
	}
	return recipeView{
		ID:        recipe.LocalID,
		Name:      recipe.Name,
		MealType:  recipe.MealType,
		Contents:  contents,
		Seasons:   records.DecodeStringList(recipe.SeasonsJSON),
		CreatedAt: recipe.CreatedAt,
		UpdatedAt: recipe.UpdatedAt,
	}
}

type recipeResource struct {
	store  *records.Store
	engine *syncer.Engine[records.Recipe]
}

func (r recipeResource) list(ctx context.Context) (any, error) {
	recipes, err := r.store.ListRecipes(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]recipeView, 0, len(recipes))
	for _, recipe := range recipes {
		views = append(views, viewOfRecipe(recipe))
	}
	return views, nil
}

func (r recipeResource) create(ctx context.Context, tenant session.TenantID, body []byte) (any, error) {
	record, err := recipeFromPayload(records.Recipe{}, body)
	if err != nil {
		return nil, err
	}
	saved, err := r.store.SaveRecipe(ctx, record)
	if err != nil {
		return nil, err
	}
	r.engine.SyncOneBackground(tenant, syncer.ActionCreate, saved)
	return viewOfRecipe(saved), nil
}

func (r recipeResource) update(ctx context.Context, tenant session.TenantID, id string, body []byte) (any, error) {
	existing, err := r.store.GetRecipe(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := recipeFromPayload(existing, body)
	if err != nil {
		return nil, err
	}
	saved, err := r.store.SaveRecipe(ctx, updated)
	if err != nil {
		return nil, err
	}
	r.engine.SyncUpdateBackground(tenant, existing, saved)
	return viewOfRecipe(saved), nil
}

func recipeFromPayload(base records.Recipe, body []byte) (records.Recipe, error) {
	var payload recipePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return records.Recipe{}, fmt.Errorf("%w: %v", errBadPayload, err)
	}
	if payload.Name == "" {
		return records.Recipe{}, fmt.Errorf("%w: name is required", errBadPayload)
	}
	if payload.Contents == nil {
		payload.Contents = map[string]any{}
	}
	contents, err := json.Marshal(payload.Contents)
	if err != nil {
		return records.Recipe{}, fmt.Errorf("%w: %v", errBadPayload, err)
	}
	base.Name = payload.Name
	base.MealType = payload.MealType
	base.ContentsJSON = string(contents)
	base.SeasonsJSON = records.EncodeStringList(payload.Seasons)
	return base, nil
}

func (r recipeResource) remove(ctx context.Context, tenant session.TenantID, id string) error {
	existing, err := r.store.GetRecipe(ctx, id)
	if err != nil {
		return err
	}
	if err := r.store.RemoveRecipe(ctx, id); err != nil {
		return err
	}
	r.engine.SyncOneBackground(tenant, syncer.ActionDelete, existing)
	return nil
}

func (r recipeResource) prune(context.Context) (int64, error) {
	return 0, nil
}

func (r recipeResource) reconcile(ctx context.Context, tenant session.TenantID) (syncer.SyncResult, error) {
	return r.engine.ReconcileAll(ctx, tenant)
}

func (r recipeResource) count(ctx context.Context) (int64, error) {
	return r.store.CountRecipes(ctx)
}

// ---- templates ----

type templatePayload struct {
	Name  string `json:"name"`
	Meals any    `json:"meals"`
}

type templateView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Meals     any       `json:"meals"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func viewOfTemplate(template records.Template) templateView {
	var meals any
	if err := json.Unmarshal([]byte(template.MealsJSON), &meals); err != nil {
		meals = []any{}
	}
	return templateView{
		ID:        template.LocalID,
		Name:      template.Name,
		Meals:     meals,
		CreatedAt: template.CreatedAt,
		UpdatedAt: template.UpdatedAt,
	}
}

type templateResource struct {
	store  *records.Store
	engine *syncer.Engine[records.Template]
}

func (r templateResource) list(ctx context.Context) (any, error) {
	templates, err := r.store.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]templateView, 0, len(templates))
	for _, template := range templates {
		views = append(views, viewOfTemplate(template))
	}
	return views, nil
}

func (r templateResource) create(ctx context.Context, tenant session.TenantID, body []byte) (any, error) {
	record, err := templateFromPayload(records.Template{}, body)
	if err != nil {
		return nil, err
	}
	saved, err := r.store.SaveTemplate(ctx, record)
	if err != nil {
		return nil, err
	}
	r.engine.SyncOneBackground(tenant, syncer.ActionCreate, saved)
	return viewOfTemplate(saved), nil
}

func (r templateResource) update(ctx context.Context, tenant session.TenantID, id string, body []byte) (any, error) {
	existing, err := r.store.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := templateFromPayload(existing, body)
	if err != nil {
		return nil, err
	}
	saved, err := r.store.SaveTemplate(ctx, updated)
	if err != nil {
		return nil, err
	}
	r.engine.SyncUpdateBackground(tenant, existing, saved)
	return viewOfTemplate(saved), nil
}

func templateFromPayload(base records.Template, body []byte) (records.Template, error) {
	var payload templatePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return records.Template{}, fmt.Errorf("%w: %v", errBadPayload, err)
	}
	if payload.Name == "" {
		return records.Template{}, fmt.Errorf("%w: name is required", errBadPayload)
	}
	if payload.Meals == nil {
		payload.Meals = []any{}
	}
	meals, err := json.Marshal(payload.Meals)
	if err != nil {
		return records.Template{}, fmt.Errorf("%w: %v", errBadPayload, err)
	}
	base.Name = payload.Name
	base.MealsJSON = string(meals)
	return base, nil
}

func (r templateResource) remove(ctx context.Context, tenant session.TenantID, id string) error {
	existing, err := r.store.GetTemplate(ctx, id)
	if err != nil {
		return err
	}
	if err := r.store.RemoveTemplate(ctx, id); err != nil {
		return err
	}
	r.engine.SyncOneBackground(tenant, syncer.ActionDelete, existing)
	return nil
}

func (r templateResource) prune(context.Context) (int64, error) {
	return 0, nil
}

func (r templateResource) reconcile(ctx context.Context, tenant session.TenantID) (syncer.SyncResult, error) {
	return r.engine.ReconcileAll(ctx, tenant)
}

func (r templateResource) count(ctx context.Context) (int64, error) {
	return r.store.CountTemplates(ctx)
}
