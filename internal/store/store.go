// Package store is the record store over the persisted tables: whole-table
// load and replace with optimistic concurrency, plus multi-table units of work.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mamadbah2/medshop/internal/domain/models"
	"github.com/mamadbah2/medshop/internal/repository"
)

// Tables holds the in-memory tables of one unit of work.
type Tables map[models.StoreID]*models.Table

// Observer receives store activity, typically for metrics.
type Observer interface {
	TableWritten(id models.StoreID, rows int)
	Conflict(id models.StoreID)
	Compensated(id models.StoreID, ok bool)
}

type nopObserver struct{}

func (nopObserver) TableWritten(models.StoreID, int) {}
func (nopObserver) Conflict(models.StoreID)          {}
func (nopObserver) Compensated(models.StoreID, bool) {}

// Store serialises writers within the process. Writers in other processes are
// caught by the revision check.
type Store struct {
	repo     repository.TableRepository
	logger   *zap.Logger
	observer Observer
	mu       sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithObserver attaches an activity observer.
func WithObserver(o Observer) Option {
	return func(s *Store) {
		if o != nil {
			s.observer = o
		}
	}
}

// New builds a Store over repo.
func New(repo repository.TableRepository, logger *zap.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{repo: repo, logger: logger, observer: nopObserver{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the full contents of a store in insertion order with Revision set.
func (s *Store) Load(ctx context.Context, id models.StoreID) (models.Table, error) {
	t, err := s.repo.ReadTable(ctx, id)
	if err != nil {
		return models.Table{}, &models.StorageError{Store: id, Op: "load", Err: err}
	}
	if t.Rows == nil {
		t.Rows = [][]string{}
	}
	t.Revision = Fingerprint(t)
	return t, nil
}

// ReplaceAll overwrites the whole store with table. The write is refused with
// ErrConflict when the persisted table no longer matches table.Revision.
func (s *Store) ReplaceAll(ctx context.Context, id models.StoreID, table *models.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replace(ctx, id, table)
}

func (s *Store) replace(ctx context.Context, id models.StoreID, table *models.Table) error {
	current, err := s.currentRevision(ctx, id)
	if err != nil {
		return err
	}
	if current != table.Revision {
		s.observer.Conflict(id)
		s.logger.Warn("refusing stale write", zap.String("store", string(id)))
		return fmt.Errorf("replace %s: %w", id, models.ErrConflict)
	}

	if err := s.repo.WriteTable(ctx, id, *table); err != nil {
		return &models.StorageError{Store: id, Op: "replace", Err: err}
	}
	table.Revision = Fingerprint(*table)
	s.observer.TableWritten(id, table.Len())
	return nil
}

// currentRevision fingerprints what is persisted now; "" when the store is absent.
func (s *Store) currentRevision(ctx context.Context, id models.StoreID) (string, error) {
	ok, err := s.repo.Exists(ctx, id)
	if err != nil {
		return "", &models.StorageError{Store: id, Op: "stat", Err: err}
	}
	if !ok {
		return "", nil
	}
	current, err := s.repo.ReadTable(ctx, id)
	if err != nil {
		return "", &models.StorageError{Store: id, Op: "load", Err: err}
	}
	return Fingerprint(current), nil
}

// Update runs fn over freshly loaded copies of stores and commits every table
// fn changed, in the order given. Nothing is written when fn fails. When a
// later write fails the earlier ones are rolled back to their original
// contents; a failed rollback is reported as ErrInconsistentState.
func (s *Store) Update(ctx context.Context, fn func(Tables) error, stores ...models.StoreID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := make(Tables, len(stores))
	originals := make(map[models.StoreID]models.Table, len(stores))
	for _, id := range stores {
		t, err := s.Load(ctx, id)
		if err != nil {
			return err
		}
		originals[id] = t.Clone()
		tables[id] = &t
	}

	if err := fn(tables); err != nil {
		return err
	}

	var written []models.StoreID
	for _, id := range stores {
		t := tables[id]
		if t.Equal(originals[id]) {
			continue
		}
		if err := s.replace(ctx, id, t); err != nil {
			if rerr := s.compensate(ctx, written, originals); rerr != nil {
				return fmt.Errorf("%w: %v (rollback: %v)", models.ErrInconsistentState, err, rerr)
			}
			return err
		}
		written = append(written, id)
	}
	return nil
}

func (s *Store) compensate(ctx context.Context, written []models.StoreID, originals map[models.StoreID]models.Table) error {
	ctx = context.WithoutCancel(ctx)
	for i := len(written) - 1; i >= 0; i-- {
		id := written[i]
		if err := s.repo.WriteTable(ctx, id, originals[id]); err != nil {
			s.observer.Compensated(id, false)
			s.logger.Error("rollback failed", zap.String("store", string(id)), zap.Error(err))
			return &models.StorageError{Store: id, Op: "restore", Err: err}
		}
		s.observer.Compensated(id, true)
		s.logger.Warn("rolled back table after failed commit", zap.String("store", string(id)))
	}
	return nil
}

// Fingerprint hashes fields and cells. Rows are read at schema width and
// trailing rows of null cells are skipped, so drivers that drop trailing null
// cells or rows produce the same fingerprint.
func Fingerprint(t models.Table) string {
	h := sha256.New()
	writeCells := func(cells []string, width int) {
		for i := 0; i < width; i++ {
			v := ""
			if i < len(cells) {
				v = cells[i]
			}
			fmt.Fprintf(h, "%d:%s|", len(v), v)
		}
		h.Write([]byte{'\n'})
	}
	writeCells(t.Fields, len(t.Fields))
	rows := t.Rows
	for len(rows) > 0 && blankRow(rows[len(rows)-1]) {
		rows = rows[:len(rows)-1]
	}
	for _, row := range rows {
		writeCells(row, len(t.Fields))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func blankRow(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}
