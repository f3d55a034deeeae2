package syncer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/diyetkent/diyetkent/internal/remote"
	"github.com/diyetkent/diyetkent/internal/session"
)

type testRecord struct {
	ID    string
	Name  string
	Blank bool
}

type fakeRemote struct {
	docs       map[string][]remote.Document
	nextID     int
	queryErr   error
	insertFail map[string]bool
	inserted   []map[string]any
	updated    []string
	deleted    []string
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{docs: make(map[string][]remote.Document)}
}

func (f *fakeRemote) Insert(_ context.Context, collection string, fields map[string]any) (remote.Document, error) {
	if name, ok := fields["name"].(string); ok && f.insertFail[name] {
		return remote.Document{}, fmt.Errorf("insert rejected for %s", name)
	}
	f.nextID++
	doc := remote.Document{ID: fmt.Sprintf("doc-%d", f.nextID), Fields: fields}
	f.docs[collection] = append(f.docs[collection], doc)
	f.inserted = append(f.inserted, fields)
	return doc, nil
}

func (f *fakeRemote) Update(_ context.Context, collection, id string, fields map[string]any) error {
	for index, doc := range f.docs[collection] {
		if doc.ID == id {
			f.docs[collection][index].Fields = fields
			f.updated = append(f.updated, id)
			return nil
		}
	}
	return fmt.Errorf("document %s not found", id)
}

func (f *fakeRemote) Delete(_ context.Context, collection, id string) error {
	docs := f.docs[collection]
	for index, doc := range docs {
		if doc.ID == id {
			f.docs[collection] = append(docs[:index], docs[index+1:]...)
			f.deleted = append(f.deleted, id)
			return nil
		}
	}
	return fmt.Errorf("document %s not found", id)
}

func (f *fakeRemote) Query(_ context.Context, collection string, filter map[string]string) ([]remote.Document, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	var matches []remote.Document
	for _, doc := range f.docs[collection] {
		matched := true
		for name, want := range filter {
			if stringValue(doc.Fields[name]) != want {
				matched = false
				break
			}
		}
		if matched {
			matches = append(matches, doc)
		}
	}
	return matches, nil
}

func (f *fakeRemote) seed(collection string, fields map[string]any) remote.Document {
	f.nextID++
	doc := remote.Document{ID: fmt.Sprintf("seed-%d", f.nextID), Fields: fields}
	f.docs[collection] = append(f.docs[collection], doc)
	return doc
}

type fakeLocal struct {
	records        []testRecord
	listErr        error
	materializeErr error
	materialized   []testRecord
}

func (f *fakeLocal) List(context.Context) ([]testRecord, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.records, nil
}

func (f *fakeLocal) Materialize(_ context.Context, record testRecord) error {
	if f.materializeErr != nil {
		return f.materializeErr
	}
	f.records = append(f.records, record)
	f.materialized = append(f.materialized, record)
	return nil
}

func testAdapter() Adapter[testRecord] {
	return Adapter[testRecord]{
		Collection: "widgets",
		KeyFields:  []string{"name"},
		Blank:      func(record testRecord) bool { return record.Blank },
		ToRemote: func(record testRecord) map[string]any {
			return map[string]any{
				LocalIDField: record.ID,
				"name":       record.Name,
			}
		},
		FromRemote: func(doc remote.Document) (testRecord, error) {
			name := doc.StringField("name")
			if name == "" {
				return testRecord{}, fmt.Errorf("widget %s: missing name", doc.ID)
			}
			id := doc.StringField(LocalIDField)
			if id == "" {
				id = doc.ID
			}
			return testRecord{ID: id, Name: name}, nil
		},
	}
}

func newTestEngine(t *testing.T, client remote.Client, local *fakeLocal) *Engine[testRecord] {
	t.Helper()
	engine, err := NewEngine(EngineConfig[testRecord]{
		Remote:  client,
		Local:   local,
		Adapter: testAdapter(),
	})
	if err != nil {
		t.Fatalf("unexpected engine error: %v", err)
	}
	return engine
}

const testTenant = session.TenantID("user-42")

func TestReconcileAllPushesLocalOnlyRecords(t *testing.T) {
	client := newFakeRemote()
	local := &fakeLocal{records: []testRecord{
		{ID: "a", Name: "alpha"},
		{ID: "b", Name: "beta"},
	}}
	engine := newTestEngine(t, client, local)

	result, err := engine.ReconcileAll(context.Background(), testTenant)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Pushed != 2 || result.Pulled != 0 {
		t.Fatalf("expected 2 pushed 0 pulled, got %+v", result)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("expected no errors, got %v", result.Errors)
	}
	for _, fields := range client.inserted {
		if fields[TenantField] != testTenant.String() {
			t.Fatalf("expected tenant field on pushed document, got %v", fields)
		}
	}
}

func TestReconcileAllIsIdempotent(t *testing.T) {
	client := newFakeRemote()
	local := &fakeLocal{records: []testRecord{{ID: "a", Name: "alpha"}}}
	engine := newTestEngine(t, client, local)

	first, err := engine.ReconcileAll(context.Background(), testTenant)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Pushed != 1 {
		t.Fatalf("expected 1 pushed, got %+v", first)
	}

	second, err := engine.ReconcileAll(context.Background(), testTenant)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Pushed != 0 || second.Pulled != 0 {
		t.Fatalf("expected second pass to be a no-op, got %+v", second)
	}
}

func TestReconcileAllPullsRemoteOnlyRecords(t *testing.T) {
	client := newFakeRemote()
	client.seed("widgets", map[string]any{
		TenantField: testTenant.String(),
		"name":      "gamma",
	})
	local := &fakeLocal{}
	engine := newTestEngine(t, client, local)

	result, err := engine.ReconcileAll(context.Background(), testTenant)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Pushed != 0 || result.Pulled != 1 {
		t.Fatalf("expected 0 pushed 1 pulled, got %+v", result)
	}
	if len(local.materialized) != 1 || local.materialized[0].Name != "gamma" {
		t.Fatalf("expected gamma to be materialized, got %+v", local.materialized)
	}
}

func TestReconcileAllSkipsBlankRecordsOnPush(t *testing.T) {
	client := newFakeRemote()
	local := &fakeLocal{records: []testRecord{
		{ID: "a", Name: "alpha"},
		{ID: "b", Name: "", Blank: true},
	}}
	engine := newTestEngine(t, client, local)

	result, err := engine.ReconcileAll(context.Background(), testTenant)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Pushed != 1 {
		t.Fatalf("expected blank record excluded from push, got %+v", result)
	}
}

func TestReconcileAllCollectsPerItemErrorsWithoutAborting(t *testing.T) {
	client := newFakeRemote()
	client.insertFail = map[string]bool{"beta": true}
	client.seed("widgets", map[string]any{
		TenantField: testTenant.String(),
		"name":      "",
	})
	client.seed("widgets", map[string]any{
		TenantField: testTenant.String(),
		"name":      "delta",
	})
	local := &fakeLocal{records: []testRecord{
		{ID: "a", Name: "alpha"},
		{ID: "b", Name: "beta"},
	}}
	engine := newTestEngine(t, client, local)

	result, err := engine.ReconcileAll(context.Background(), testTenant)
	if err != nil {
		t.Fatalf("expected partial success, got error: %v", err)
	}
	if result.Pushed != 1 {
		t.Fatalf("expected alpha pushed despite beta failing, got %+v", result)
	}
	if result.Pulled != 1 {
		t.Fatalf("expected delta pulled despite nameless doc failing, got %+v", result)
	}
	if len(result.Errors) != 2 {
		t.Fatalf("expected two per-item errors, got %v", result.Errors)
	}
}

func TestReconcileAllShortCircuitsWhenRemoteUnavailable(t *testing.T) {
	client := newFakeRemote()
	client.queryErr = fmt.Errorf("%w: connection refused", remote.ErrUnavailable)
	local := &fakeLocal{records: []testRecord{{ID: "a", Name: "alpha"}}}
	engine := newTestEngine(t, client, local)

	result, err := engine.ReconcileAll(context.Background(), testTenant)
	if !errors.Is(err, remote.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if result.Pushed != 0 || result.Pulled != 0 || len(result.Errors) != 0 {
		t.Fatalf("expected zero-count result, got %+v", result)
	}
	if len(client.inserted) != 0 {
		t.Fatalf("expected no pushes after connectivity failure")
	}
}

func TestSyncOneCreatePushes(t *testing.T) {
	client := newFakeRemote()
	engine := newTestEngine(t, client, &fakeLocal{})

	err := engine.SyncOne(context.Background(), testTenant, ActionCreate, testRecord{ID: "a", Name: "alpha"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(client.inserted) != 1 {
		t.Fatalf("expected one insert, got %d", len(client.inserted))
	}
	if client.inserted[0][TenantField] != testTenant.String() {
		t.Fatalf("expected tenant stamp on insert, got %v", client.inserted[0])
	}
}

func TestSyncOneCreateSkipsBlankRecord(t *testing.T) {
	client := newFakeRemote()
	engine := newTestEngine(t, client, &fakeLocal{})

	err := engine.SyncOne(context.Background(), testTenant, ActionCreate, testRecord{ID: "a", Blank: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(client.inserted) != 0 {
		t.Fatalf("expected blank record not pushed")
	}
}

func TestSyncOneUpdateOverwritesExistingDocument(t *testing.T) {
	client := newFakeRemote()
	doc := client.seed("widgets", map[string]any{
		TenantField: testTenant.String(),
		"name":      "alpha",
	})
	engine := newTestEngine(t, client, &fakeLocal{})

	err := engine.SyncOne(context.Background(), testTenant, ActionUpdate, testRecord{ID: "a", Name: "alpha"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(client.updated) != 1 || client.updated[0] != doc.ID {
		t.Fatalf("expected update on %s, got %v", doc.ID, client.updated)
	}
	if len(client.inserted) != 0 {
		t.Fatalf("expected no insert when the document exists")
	}
}

func TestSyncOneUpdateFallsBackToCreate(t *testing.T) {
	client := newFakeRemote()
	engine := newTestEngine(t, client, &fakeLocal{})

	err := engine.SyncOne(context.Background(), testTenant, ActionUpdate, testRecord{ID: "a", Name: "alpha"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(client.inserted) != 1 {
		t.Fatalf("expected missing remote record to be created, got %d inserts", len(client.inserted))
	}
}

func TestSyncUpdateResolvesByPreviousKey(t *testing.T) {
	client := newFakeRemote()
	doc := client.seed("widgets", map[string]any{
		TenantField: testTenant.String(),
		"name":      "alpha",
	})
	engine := newTestEngine(t, client, &fakeLocal{})

	previous := testRecord{ID: "a", Name: "alpha"}
	current := testRecord{ID: "a", Name: "alpha-renamed"}
	if err := engine.SyncUpdate(context.Background(), testTenant, previous, current); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(client.updated) != 1 || client.updated[0] != doc.ID {
		t.Fatalf("expected rename to update the old document, got %v", client.updated)
	}
	if got := client.docs["widgets"][0].StringField("name"); got != "alpha-renamed" {
		t.Fatalf("expected renamed fields on remote, got %q", got)
	}
}

func TestSyncOneDeleteRemovesExistingDocument(t *testing.T) {
	client := newFakeRemote()
	doc := client.seed("widgets", map[string]any{
		TenantField: testTenant.String(),
		"name":      "alpha",
	})
	engine := newTestEngine(t, client, &fakeLocal{})

	err := engine.SyncOne(context.Background(), testTenant, ActionDelete, testRecord{ID: "a", Name: "alpha"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(client.deleted) != 1 || client.deleted[0] != doc.ID {
		t.Fatalf("expected delete of %s, got %v", doc.ID, client.deleted)
	}
}

func TestSyncOneDeleteOfNeverPushedRecordIsNoOp(t *testing.T) {
	client := newFakeRemote()
	engine := newTestEngine(t, client, &fakeLocal{})

	err := engine.SyncOne(context.Background(), testTenant, ActionDelete, testRecord{ID: "a", Name: "alpha"})
	if err != nil {
		t.Fatalf("expected no-op delete, got %v", err)
	}
	if len(client.deleted) != 0 {
		t.Fatalf("expected nothing deleted")
	}
}

func TestSyncOneScopesLookupToTenant(t *testing.T) {
	client := newFakeRemote()
	client.seed("widgets", map[string]any{
		TenantField: "user-other",
		"name":      "alpha",
	})
	engine := newTestEngine(t, client, &fakeLocal{})

	err := engine.SyncOne(context.Background(), testTenant, ActionDelete, testRecord{ID: "a", Name: "alpha"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(client.deleted) != 0 {
		t.Fatalf("expected another tenant's document to be invisible")
	}
}

func TestSyncOneActsOnFirstMatchWhenKeyIsAmbiguous(t *testing.T) {
	client := newFakeRemote()
	first := client.seed("widgets", map[string]any{
		TenantField: testTenant.String(),
		"name":      "alpha",
	})
	client.seed("widgets", map[string]any{
		TenantField: testTenant.String(),
		"name":      "alpha",
	})
	engine := newTestEngine(t, client, &fakeLocal{})

	err := engine.SyncOne(context.Background(), testTenant, ActionDelete, testRecord{ID: "a", Name: "alpha"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(client.deleted) != 1 || client.deleted[0] != first.ID {
		t.Fatalf("expected first match deleted, got %v", client.deleted)
	}
}

func TestNaturalKeyCanonicalForm(t *testing.T) {
	key := NaturalKey{
		{Name: "clientName", Value: "Ayşe Yılmaz"},
		{Name: "date", Value: "2026-03-01"},
		{Name: "time", Value: "14:30"},
	}
	rendered := key.String()
	if !strings.Contains(rendered, "clientName=Ayşe Yılmaz") {
		t.Fatalf("unexpected canonical form: %q", rendered)
	}
	filter := key.Filter()
	if filter["date"] != "2026-03-01" || filter["time"] != "14:30" {
		t.Fatalf("unexpected filter: %v", filter)
	}
}
