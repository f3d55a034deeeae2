package syncer

import (
	"context"
	"errors"
	"time"

	"github.com/diyetkent/diyetkent/internal/records"
	"github.com/diyetkent/diyetkent/internal/remote"
	"go.uber.org/zap"
)

var errMissingStore = errors.New("syncer: record store is required")

// HubConfig describes the dependencies shared by all four engines.
type HubConfig struct {
	Remote            remote.Client
	Store             *records.Store
	Logger            *zap.Logger
	BackgroundTimeout time.Duration
}

// Hub owns one sync engine per entity type, all bound to the same local store
// and remote client.
type Hub struct {
	Notes        *Engine[records.Note]
	Appointments *Engine[records.Appointment]
	Recipes      *Engine[records.Recipe]
	Templates    *Engine[records.Template]
}

// NewHub constructs the four entity engines.
func NewHub(cfg HubConfig) (*Hub, error) {
	if cfg.Store == nil {
		return nil, errMissingStore
	}

	notes, err := NewEngine(EngineConfig[records.Note]{
		Remote:            cfg.Remote,
		Local:             noteStore{store: cfg.Store},
		Adapter:           NoteAdapter(),
		Logger:            cfg.Logger,
		BackgroundTimeout: cfg.BackgroundTimeout,
	})
	if err != nil {
		return nil, err
	}

	appointments, err := NewEngine(EngineConfig[records.Appointment]{
		Remote:            cfg.Remote,
		Local:             appointmentStore{store: cfg.Store},
		Adapter:           AppointmentAdapter(),
		Logger:            cfg.Logger,
		BackgroundTimeout: cfg.BackgroundTimeout,
	})
	if err != nil {
		return nil, err
	}

	recipes, err := NewEngine(EngineConfig[records.Recipe]{
		Remote:            cfg.Remote,
		Local:             recipeStore{store: cfg.Store},
		Adapter:           RecipeAdapter(),
		Logger:            cfg.Logger,
		BackgroundTimeout: cfg.BackgroundTimeout,
	})
	if err != nil {
		return nil, err
	}

	templates, err := NewEngine(EngineConfig[records.Template]{
		Remote:            cfg.Remote,
		Local:             templateStore{store: cfg.Store},
		Adapter:           TemplateAdapter(),
		Logger:            cfg.Logger,
		BackgroundTimeout: cfg.BackgroundTimeout,
	})
	if err != nil {
		return nil, err
	}

	return &Hub{
		Notes:        notes,
		Appointments: appointments,
		Recipes:      recipes,
		Templates:    templates,
	}, nil
}

// The store bindings route pulled records through the same save methods the
// local CRUD handlers call.

type noteStore struct {
	store *records.Store
}

func (s noteStore) List(ctx context.Context) ([]records.Note, error) {
	return s.store.ListNotes(ctx)
}

func (s noteStore) Materialize(ctx context.Context, note records.Note) error {
	_, err := s.store.SaveNote(ctx, note)
	return err
}

type appointmentStore struct {
	store *records.Store
}

func (s appointmentStore) List(ctx context.Context) ([]records.Appointment, error) {
	return s.store.ListAppointments(ctx)
}

func (s appointmentStore) Materialize(ctx context.Context, appointment records.Appointment) error {
	_, err := s.store.SaveAppointment(ctx, appointment)
	return err
}

type recipeStore struct {
	store *records.Store
}

func (s recipeStore) List(ctx context.Context) ([]records.Recipe, error) {
	return s.store.ListRecipes(ctx)
}

func (s recipeStore) Materialize(ctx context.Context, recipe records.Recipe) error {
	_, err := s.store.SaveRecipe(ctx, recipe)
	return err
}

type templateStore struct {
	store *records.Store
}

func (s templateStore) List(ctx context.Context) ([]records.Template, error) {
	return s.store.ListTemplates(ctx)
}

func (s templateStore) Materialize(ctx context.Context, template records.Template) error {
	_, err := s.store.SaveTemplate(ctx, template)
	return err
}
