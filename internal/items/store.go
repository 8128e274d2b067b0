package items

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errMissingDatabase = errors.New("database handle is required")
	noOpLogger         = zap.NewNop()
)

// StoreError reports a failed statement against the list table.
type StoreError struct {
	code string
	err  error
}

func (e *StoreError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *StoreError) Unwrap() error {
	return e.err
}

// Code identifies the failed operation, e.g. "items.add.insert_failed".
func (e *StoreError) Code() string {
	return e.code
}

const (
	opStoreNew    = "items.store.new"
	opList        = "items.list"
	opAdd         = "items.add"
	opRemove      = "items.remove"
	opUpdate      = "items.update"
	opClear       = "items.clear"
	opCreateTable = "items.create_table"
)

func newStoreError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &StoreError{code: code, err: cause}
}

// StoreConfig describes the dependencies of a Store.
type StoreConfig struct {
	Database *gorm.DB
	Schema   Schema
	// Mirror receives a refresh after every successful mutation. A mirror backed by
	// the store itself is created when nil.
	Mirror *Mirror
	// Dispatch runs mirror refreshes. It defaults to starting a goroutine.
	Dispatch func(task func())
	Logger   *zap.Logger
}

// Store issues exactly one statement per operation against the list table.
type Store struct {
	db       *gorm.DB
	schema   Schema
	mirror   *Mirror
	dispatch func(task func())
	logger   *zap.Logger
}

// NewStore validates the configuration and constructs a Store.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.Database == nil {
		return nil, newStoreError(opStoreNew, "missing_database", errMissingDatabase)
	}
	if err := cfg.Schema.Validate(); err != nil {
		return nil, newStoreError(opStoreNew, "invalid_schema", err)
	}

	dispatch := cfg.Dispatch
	if dispatch == nil {
		dispatch = func(task func()) { go task() }
	}

	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	store := &Store{
		db:       cfg.Database,
		schema:   cfg.Schema,
		dispatch: dispatch,
		logger:   logger,
	}
	store.mirror = cfg.Mirror
	if store.mirror == nil {
		store.mirror = NewMirror(MirrorConfig{Source: store, Logger: logger})
	}
	return store, nil
}

// Schema returns the table layout the store writes.
func (s *Store) Schema() Schema {
	return s.schema
}

// Mirror returns the best-effort snapshot refreshed after each mutation.
func (s *Store) Mirror() *Mirror {
	return s.mirror
}

// List returns every item in insertion order.
func (s *Store) List(ctx context.Context) ([]Item, error) {
	if s.db == nil {
		return nil, newStoreError(opList, "missing_database", errMissingDatabase)
	}
	var rows []Item
	if err := s.db.WithContext(ctx).
		Table(s.schema.Table).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, newStoreError(opList, "query_failed", err)
	}
	return rows, nil
}

// Add inserts one item. The user is dropped for schemas without a user column.
func (s *Store) Add(ctx context.Context, name, user string) (Item, error) {
	if s.db == nil {
		return Item{}, newStoreError(opAdd, "missing_database", errMissingDatabase)
	}
	item := Item{Name: name}
	if s.schema.WithUser {
		item.User = user
	}
	if err := s.db.WithContext(ctx).
		Table(s.schema.Table).
		Select(s.schema.insertColumns()).
		Create(&item).Error; err != nil {
		return Item{}, newStoreError(opAdd, "insert_failed", err)
	}
	s.refreshMirror(ctx)
	return item, nil
}

// Remove deletes the item with the given id. Matching no row is not an error.
func (s *Store) Remove(ctx context.Context, id ItemID) error {
	if s.db == nil {
		return newStoreError(opRemove, "missing_database", errMissingDatabase)
	}
	if err := s.db.WithContext(ctx).
		Table(s.schema.Table).
		Where("id = ?", id.Int64()).
		Delete(&Item{}).Error; err != nil {
		return newStoreError(opRemove, "delete_failed", err)
	}
	s.refreshMirror(ctx)
	return nil
}

// Update overwrites the name of the item with the given id. Matching no row is not an error.
func (s *Store) Update(ctx context.Context, id ItemID, name string) error {
	if s.db == nil {
		return newStoreError(opUpdate, "missing_database", errMissingDatabase)
	}
	if err := s.db.WithContext(ctx).
		Table(s.schema.Table).
		Where("id = ?", id.Int64()).
		Update("name", name).Error; err != nil {
		return newStoreError(opUpdate, "update_failed", err)
	}
	s.refreshMirror(ctx)
	return nil
}

// Clear drops the list table. Callers re-provision it with CreateTable; until then
// every other operation fails.
func (s *Store) Clear(ctx context.Context) error {
	if s.db == nil {
		return newStoreError(opClear, "missing_database", errMissingDatabase)
	}
	if err := s.db.WithContext(ctx).Exec(s.schema.DropStatement()).Error; err != nil {
		return newStoreError(opClear, "drop_failed", err)
	}
	if s.mirror != nil {
		s.mirror.Invalidate()
	}
	return nil
}

// CreateTable provisions the list table. It fails when the table already exists.
func (s *Store) CreateTable(ctx context.Context) error {
	if s.db == nil {
		return newStoreError(opCreateTable, "missing_database", errMissingDatabase)
	}
	if err := s.db.WithContext(ctx).Exec(s.schema.CreateStatement()).Error; err != nil {
		return newStoreError(opCreateTable, "create_failed", err)
	}
	return nil
}

// refreshMirror schedules a mirror refresh whose outcome is never reported to the caller.
func (s *Store) refreshMirror(ctx context.Context) {
	if s.mirror == nil {
		return
	}
	refreshCtx := context.WithoutCancel(ctx)
	s.dispatch(func() {
		if err := s.mirror.Refresh(refreshCtx); err != nil {
			s.logger.Debug("mirror refresh failed", zap.String("table", s.schema.Table), zap.Error(err))
		}
	})
}
