package items

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Lister reads the authoritative item list.
type Lister interface {
	List(ctx context.Context) ([]Item, error)
}

// Snapshot is a full copy of the list taken at LoadedAt.
type Snapshot struct {
	Items    []Item
	LoadedAt time.Time
}

// MirrorConfig describes the dependencies of a Mirror.
type MirrorConfig struct {
	Source Lister
	Clock  func() time.Time
	Logger *zap.Logger
}

// Mirror keeps an in-memory copy of the list for display lookups. It is rebuilt
// wholesale on Refresh and is never authoritative: a read racing a refresh sees the
// previous snapshot, or none at all.
type Mirror struct {
	mu       sync.RWMutex
	source   Lister
	clock    func() time.Time
	logger   *zap.Logger
	snapshot *Snapshot
}

// NewMirror constructs an unloaded mirror.
func NewMirror(cfg MirrorConfig) *Mirror {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Mirror{
		source: cfg.Source,
		clock:  clock,
		logger: logger,
	}
}

// Refresh replaces the snapshot with the current list. On failure the previous
// snapshot is kept as is.
func (m *Mirror) Refresh(ctx context.Context) error {
	if m.source == nil {
		return nil
	}
	rows, err := m.source.List(ctx)
	if err != nil {
		return err
	}
	next := &Snapshot{
		Items:    rows,
		LoadedAt: m.clock().UTC(),
	}
	m.mu.Lock()
	m.snapshot = next
	m.mu.Unlock()
	m.logger.Debug("mirror refreshed", zap.Int("items", len(rows)))
	return nil
}

// Snapshot returns the current snapshot; false means the mirror is unloaded.
func (m *Mirror) Snapshot() (Snapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.snapshot == nil {
		return Snapshot{}, false
	}
	return *m.snapshot, true
}

// Invalidate returns the mirror to the unloaded state.
func (m *Mirror) Invalidate() {
	m.mu.Lock()
	m.snapshot = nil
	m.mu.Unlock()
}

// Lookup finds an item by id in the current snapshot.
func (m *Mirror) Lookup(id ItemID) (Item, bool) {
	snapshot, loaded := m.Snapshot()
	if !loaded {
		return Item{}, false
	}
	for _, item := range snapshot.Items {
		if item.ID == id {
			return item, true
		}
	}
	return Item{}, false
}
