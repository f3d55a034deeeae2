package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diyetkent/diyetkent/internal/remote"
	"github.com/diyetkent/diyetkent/internal/session"
	"go.uber.org/zap"
)

// TenantField is the document field partitioning the remote store.
const TenantField = "dietitianId"

// LocalIDField carries the advisory back-reference to the local identifier.
const LocalIDField = "localId"

const defaultBackgroundTimeout = 30 * time.Second

var (
	errMissingRemote  = errors.New("syncer: remote client is required")
	errMissingLocal   = errors.New("syncer: local store is required")
	errMissingAdapter = errors.New("syncer: adapter is incomplete")
)

// Action identifies which local mutation a background sync follows.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// LocalStore is the slice of the local record store one engine operates on.
// Materialize runs a pulled remote record through the same create path the
// local CRUD API uses, so local-side validation and defaults apply uniformly.
type LocalStore[T any] interface {
	List(ctx context.Context) ([]T, error)
	Materialize(ctx context.Context, record T) error
}

// Adapter supplies the per-entity mapping the generic engine is parameterized
// by: the remote collection, the natural-key field names, and the two field
// mappers. KeyFields must name fields present in every ToRemote output.
type Adapter[T any] struct {
	Collection string
	KeyFields  []string
	Blank      func(record T) bool
	ToRemote   func(record T) map[string]any
	FromRemote func(doc remote.Document) (T, error)
}

func (a Adapter[T]) validate() error {
	if a.Collection == "" || len(a.KeyFields) == 0 || a.ToRemote == nil || a.FromRemote == nil {
		return errMissingAdapter
	}
	return nil
}

// KeyOf extracts the record's natural key.
func (a Adapter[T]) KeyOf(record T) NaturalKey {
	return keyFromFields(a.KeyFields, a.ToRemote(record))
}

func (a Adapter[T]) isBlank(record T) bool {
	return a.Blank != nil && a.Blank(record)
}

// SyncResult aggregates one reconciliation pass. Errors holds per-item
// failure messages; a non-empty Errors with non-zero counts means the batch
// partially succeeded.
type SyncResult struct {
	Pushed int      `json:"pushed"`
	Pulled int      `json:"pulled"`
	Errors []string `json:"errors"`
}

// EngineConfig describes one entity type's sync dependencies.
type EngineConfig[T any] struct {
	Remote            remote.Client
	Local             LocalStore[T]
	Adapter           Adapter[T]
	Logger            *zap.Logger
	BackgroundTimeout time.Duration
}

// Engine reconciles one local record set against its remote collection.
// Records are correlated by natural key, not by a shared identifier; see
// Adapter.
type Engine[T any] struct {
	remote  remote.Client
	local   LocalStore[T]
	adapter Adapter[T]
	logger  *zap.Logger
	timeout time.Duration
}

// NewEngine validates the configuration and constructs an Engine.
func NewEngine[T any](cfg EngineConfig[T]) (*Engine[T], error) {
	if cfg.Remote == nil {
		return nil, errMissingRemote
	}
	if cfg.Local == nil {
		return nil, errMissingLocal
	}
	if err := cfg.Adapter.validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.BackgroundTimeout
	if timeout <= 0 {
		timeout = defaultBackgroundTimeout
	}
	return &Engine[T]{
		remote:  cfg.Remote,
		local:   cfg.Local,
		adapter: cfg.Adapter,
		logger:  logger,
		timeout: timeout,
	}, nil
}

// Collection names the remote collection this engine reconciles.
func (e *Engine[T]) Collection() string {
	return e.adapter.Collection
}

// ReconcileAll runs one full reconciliation pass for the tenant: local-only
// records are pushed, remote-only records are pulled, and per-item failures
// are collected without aborting the batch. Only total unavailability of the
// remote store fails the call, with zero counts.
func (e *Engine[T]) ReconcileAll(ctx context.Context, tenantID session.TenantID) (SyncResult, error) {
	docs, err := e.remote.Query(ctx, e.adapter.Collection, map[string]string{TenantField: tenantID.String()})
	if err != nil {
		return SyncResult{}, fmt.Errorf("reconcile %s: %w", e.adapter.Collection, err)
	}

	locals, err := e.local.List(ctx)
	if err != nil {
		return SyncResult{}, fmt.Errorf("reconcile %s: %w", e.adapter.Collection, err)
	}

	remoteByKey := make(map[string]remote.Document, len(docs))
	for _, doc := range docs {
		key := keyFromFields(e.adapter.KeyFields, doc.Fields).String()
		// First match wins; duplicates are a corruption state the engine
		// does not repair.
		if _, seen := remoteByKey[key]; !seen {
			remoteByKey[key] = doc
		}
	}

	localKeys := make(map[string]struct{}, len(locals))
	for _, record := range locals {
		localKeys[e.adapter.KeyOf(record).String()] = struct{}{}
	}

	result := SyncResult{}

	// Push before pull: local-only records first.
	for _, record := range locals {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if e.adapter.isBlank(record) {
			continue
		}
		key := e.adapter.KeyOf(record)
		if _, exists := remoteByKey[key.String()]; exists {
			continue
		}
		if _, err := e.remote.Insert(ctx, e.adapter.Collection, e.remoteFields(tenantID, record)); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("push %s: %v", key.String(), err))
			continue
		}
		result.Pushed++
	}

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		key := keyFromFields(e.adapter.KeyFields, doc.Fields).String()
		if _, exists := localKeys[key]; exists {
			continue
		}
		record, err := e.adapter.FromRemote(doc)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("pull %s: %v", doc.ID, err))
			continue
		}
		if err := e.local.Materialize(ctx, record); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("pull %s: %v", doc.ID, err))
			continue
		}
		localKeys[key] = struct{}{}
		result.Pulled++
	}

	return result, nil
}

// SyncOne reconciles a single record against the remote store right after a
// local mutation. Updates heal a missed prior push by falling back to create;
// deleting a record that was never pushed is a no-op.
func (e *Engine[T]) SyncOne(ctx context.Context, tenantID session.TenantID, action Action, record T) error {
	switch action {
	case ActionCreate:
		return e.pushOne(ctx, tenantID, record)
	case ActionUpdate:
		return e.updateOne(ctx, tenantID, record)
	case ActionDelete:
		return e.deleteOne(ctx, tenantID, record)
	default:
		return fmt.Errorf("syncer: unknown action %q", action)
	}
}

// SyncUpdate reconciles an edit whose natural key may have changed: the
// remote record is located by the previous state's key, then overwritten with
// the current fields. A missing remote record falls back to create.
func (e *Engine[T]) SyncUpdate(ctx context.Context, tenantID session.TenantID, previous, current T) error {
	if e.adapter.isBlank(current) {
		return nil
	}
	doc, found, err := e.lookupKey(ctx, tenantID, e.adapter.KeyOf(previous))
	if err != nil {
		return err
	}
	if !found {
		// The prior push never landed; self-heal by creating.
		return e.pushOne(ctx, tenantID, current)
	}
	if err := e.remote.Update(ctx, e.adapter.Collection, doc.ID, e.remoteFields(tenantID, current)); err != nil {
		return fmt.Errorf("update %s: %w", e.adapter.Collection, err)
	}
	return nil
}

// SyncUpdateBackground runs SyncUpdate on a detached goroutine, logging
// failures instead of surfacing them.
func (e *Engine[T]) SyncUpdateBackground(tenantID session.TenantID, previous, current T) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		defer cancel()
		if err := e.SyncUpdate(ctx, tenantID, previous, current); err != nil {
			e.logger.Warn("background sync failed",
				zap.String("collection", e.adapter.Collection),
				zap.String("action", string(ActionUpdate)),
				zap.String("tenant", tenantID.String()),
				zap.Error(err))
		}
	}()
}

// SyncOneBackground runs SyncOne on a detached goroutine. Failures feed the
// log sink only; the local mutation that triggered the sync never observes
// them.
func (e *Engine[T]) SyncOneBackground(tenantID session.TenantID, action Action, record T) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		defer cancel()
		if err := e.SyncOne(ctx, tenantID, action, record); err != nil {
			e.logger.Warn("background sync failed",
				zap.String("collection", e.adapter.Collection),
				zap.String("action", string(action)),
				zap.String("tenant", tenantID.String()),
				zap.Error(err))
		}
	}()
}

func (e *Engine[T]) pushOne(ctx context.Context, tenantID session.TenantID, record T) error {
	if e.adapter.isBlank(record) {
		return nil
	}
	if _, err := e.remote.Insert(ctx, e.adapter.Collection, e.remoteFields(tenantID, record)); err != nil {
		return fmt.Errorf("push %s: %w", e.adapter.Collection, err)
	}
	return nil
}

func (e *Engine[T]) updateOne(ctx context.Context, tenantID session.TenantID, record T) error {
	return e.SyncUpdate(ctx, tenantID, record, record)
}

func (e *Engine[T]) deleteOne(ctx context.Context, tenantID session.TenantID, record T) error {
	doc, found, err := e.lookupKey(ctx, tenantID, e.adapter.KeyOf(record))
	if err != nil {
		return err
	}
	if !found {
		// Never pushed, nothing to delete.
		return nil
	}
	if err := e.remote.Delete(ctx, e.adapter.Collection, doc.ID); err != nil {
		return fmt.Errorf("delete %s: %w", e.adapter.Collection, err)
	}
	return nil
}

// lookupKey resolves a natural key against the remote collection, returning
// the first match when the key is ambiguous.
func (e *Engine[T]) lookupKey(ctx context.Context, tenantID session.TenantID, key NaturalKey) (remote.Document, bool, error) {
	filter := key.Filter()
	filter[TenantField] = tenantID.String()
	docs, err := e.remote.Query(ctx, e.adapter.Collection, filter)
	if err != nil {
		return remote.Document{}, false, fmt.Errorf("lookup %s: %w", e.adapter.Collection, err)
	}
	if len(docs) == 0 {
		return remote.Document{}, false, nil
	}
	if len(docs) > 1 {
		e.logger.Warn("ambiguous natural key, acting on first match",
			zap.String("collection", e.adapter.Collection),
			zap.Int("matches", len(docs)))
	}
	return docs[0], true, nil
}

func (e *Engine[T]) remoteFields(tenantID session.TenantID, record T) map[string]any {
	fields := e.adapter.ToRemote(record)
	fields[TenantField] = tenantID.String()
	return fields
}
