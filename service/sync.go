package service

import (
	"context"
	"sync"
	"time"

	"gearledger/domain"
	"gearledger/interfaces"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// catalogBlob is the single in-memory uploaded catalog. It is replaced
// wholesale on every upload and is intentionally not persisted: a server
// restart loses it.
type catalogBlob struct {
	filename   string
	data       []byte
	uploadedAt time.Time
}

// Sync owns the shared mutable state of the sync server: the results ledger,
// the catalog blob, the monotonic version counter and the push-plane hub.
// The blob and the counter are guarded by one mutex so every
// read-modify-write over them is a single critical section.
//
// Version-bump policy: result upsert, clear and catalog upload each increment
// the version exactly once and broadcast over the hub. Point update and
// delete by id are maintenance paths and deliberately do neither.
type Sync struct {
	store    interfaces.ResultStore
	hub      *Hub
	observer interfaces.DataObserver
	logger   log.Logger

	mu      sync.Mutex
	version int64
	catalog *catalogBlob
}

// NewSync creates the sync service. observer may be nil.
func NewSync(store interfaces.ResultStore, hub *Hub, observer interfaces.DataObserver, logger log.Logger) *Sync {
	return &Sync{
		store:    store,
		hub:      hub,
		observer: observer,
		logger:   log.WithPrefix(logger, "component", "sync"),
	}
}

// Hub exposes the push-plane hub for the SSE handler.
func (s *Sync) Hub() *Hub {
	return s.hub
}

// Version returns the current sync version.
func (s *Sync) Version() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// SubmitResult validates and merges one write into the ledger, bumps the
// version and broadcasts results_changed. Returns the merged row and the new
// version.
func (s *Sync) SubmitResult(ctx context.Context, in domain.ResultInput) (domain.Result, int64, error) {
	if in.Artikul == "" {
		return domain.Result{}, 0, NewBadParameterError("artikul is required", nil)
	}
	if in.Client == "" {
		return domain.Result{}, 0, NewBadParameterError("client is required", nil)
	}

	result, err := s.store.UpsertResult(ctx, in)
	if err != nil {
		return domain.Result{}, 0, err
	}

	version := s.bump()
	s.hub.Publish(domain.Event{Type: domain.EventResultsChanged, Version: version})
	s.notifyDataChanged()

	level.Debug(s.logger).Log("msg", "result accepted", "artikul", in.Artikul, "client", in.Client, "version", version)
	return result, version, nil
}

// GetResult returns one row by surrogate id.
func (s *Sync) GetResult(ctx context.Context, id int64) (domain.Result, error) {
	return s.store.GetResult(ctx, id)
}

// ListResults returns the ledger, optionally filtered by client.
func (s *Sync) ListResults(ctx context.Context, client string) ([]domain.Result, error) {
	return s.store.ListResults(ctx, client)
}

// UpdateResult applies a sparse patch to one row. It does not bump the
// version or broadcast: subscribers will not observe a point edit.
func (s *Sync) UpdateResult(ctx context.Context, id int64, patch domain.ResultPatch) (domain.Result, error) {
	if patch.IsZero() {
		return domain.Result{}, NewBadParameterError("no updatable fields provided", nil)
	}
	return s.store.UpdateResult(ctx, id, patch)
}

// DeleteResult removes one row by id. Like UpdateResult it neither bumps the
// version nor broadcasts.
func (s *Sync) DeleteResult(ctx context.Context, id int64) error {
	return s.store.DeleteResult(ctx, id)
}

// ClearResults deletes all rows, optionally scoped to one client, bumps the
// version and broadcasts results_changed. Returns the number of deleted rows
// and the new version.
func (s *Sync) ClearResults(ctx context.Context, client string) (int64, int64, error) {
	deleted, err := s.store.ClearResults(ctx, client)
	if err != nil {
		return 0, 0, err
	}

	version := s.bump()
	s.hub.Publish(domain.Event{Type: domain.EventResultsChanged, Version: version})
	s.notifyDataChanged()

	level.Info(s.logger).Log("msg", "results cleared", "client", client, "deleted", deleted, "version", version)
	return deleted, version, nil
}

// ListClients returns the distinct client names present in the ledger.
func (s *Sync) ListClients(ctx context.Context) ([]string, error) {
	return s.store.ListClients(ctx)
}

// UploadCatalog replaces the catalog blob wholesale, bumps the version and
// broadcasts catalog_uploaded. Returns the new version.
func (s *Sync) UploadCatalog(filename string, data []byte) (int64, error) {
	if filename == "" {
		return 0, NewBadParameterError("catalog filename is empty", nil)
	}

	s.mu.Lock()
	s.catalog = &catalogBlob{
		filename:   filename,
		data:       data,
		uploadedAt: time.Now(),
	}
	s.version++
	version := s.version
	s.mu.Unlock()

	s.hub.Publish(domain.Event{
		Type:     domain.EventCatalogUploaded,
		Version:  version,
		Filename: filename,
		Size:     len(data),
	})
	s.notifyDataChanged()

	level.Info(s.logger).Log("msg", "catalog uploaded", "filename", filename, "size", len(data), "version", version)
	return version, nil
}

// CatalogInfo returns the blob metadata, or Exists=false when nothing has
// been uploaded.
func (s *Sync) CatalogInfo() domain.CatalogInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.catalog == nil {
		return domain.CatalogInfo{Exists: false}
	}
	return domain.CatalogInfo{
		Exists:     true,
		Filename:   s.catalog.filename,
		Size:       len(s.catalog.data),
		UploadedAt: s.catalog.uploadedAt,
	}
}

// CatalogBytes returns the blob's filename and a copy of its bytes.
// ok is false when no catalog is present.
func (s *Sync) CatalogBytes() (filename string, data []byte, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.catalog == nil {
		return "", nil, false
	}
	data = make([]byte, len(s.catalog.data))
	copy(data, s.catalog.data)
	return s.catalog.filename, data, true
}

// AttachEvents builds the frames sent to a subscriber right after it
// attaches: the synthetic connected event and, when a catalog blob exists, a
// catalog_uploaded catch-up event. Both come from a single critical section,
// so a concurrent upload can never mix one blob's filename with another
// upload's version across the two frames.
func (s *Sync) AttachEvents() []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	connected := domain.Event{Type: domain.EventConnected, Version: s.version}
	if s.catalog == nil {
		return []domain.Event{connected}
	}

	connected.Catalog = &domain.CatalogInfo{
		Exists:     true,
		Filename:   s.catalog.filename,
		Size:       len(s.catalog.data),
		UploadedAt: s.catalog.uploadedAt,
	}
	catchUp := domain.Event{
		Type:     domain.EventCatalogUploaded,
		Version:  s.version,
		Filename: s.catalog.filename,
		Size:     len(s.catalog.data),
	}
	return []domain.Event{connected, catchUp}
}

// ConnectedEvent returns the synthetic connected event alone.
func (s *Sync) ConnectedEvent() domain.Event {
	return s.AttachEvents()[0]
}

func (s *Sync) bump() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version++
	return s.version
}

func (s *Sync) notifyDataChanged() {
	if s.observer != nil {
		s.observer.DataChanged()
	}
}
