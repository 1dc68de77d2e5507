package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/medshop/internal/domain/models"
)

// EnsureSchema creates the store with exactly fields when it is absent, or
// appends the missing fields (in the given order) with null cells. Existing
// fields and values are left alone. Nothing is written when the store already
// conforms. It returns the fields that were added.
func (s *Store) EnsureSchema(ctx context.Context, id models.StoreID, fields []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok, err := s.repo.Exists(ctx, id)
	if err != nil {
		return nil, &models.StorageError{Store: id, Op: "stat", Err: err}
	}

	if !ok {
		table := models.NewTable(fields...)
		if err := s.repo.WriteTable(ctx, id, table); err != nil {
			return nil, &models.StorageError{Store: id, Op: "create", Err: err}
		}
		s.observer.TableWritten(id, 0)
		s.logger.Info("store created", zap.String("store", string(id)), zap.Strings("fields", fields))
		return append([]string(nil), fields...), nil
	}

	table, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	var added []string
	for _, f := range fields {
		if table.HasField(f) {
			continue
		}
		table.AddField(f)
		added = append(added, f)
	}
	if len(added) == 0 {
		return nil, nil
	}

	if err := s.replace(ctx, id, &table); err != nil {
		return nil, err
	}
	s.logger.Info("store schema extended", zap.String("store", string(id)), zap.Strings("added", added))
	return added, nil
}

// EnsureAll enforces the schema of every store.
func (s *Store) EnsureAll(ctx context.Context) error {
	for _, id := range models.AllStores() {
		if _, err := s.EnsureSchema(ctx, id, models.Schemas[id]); err != nil {
			return fmt.Errorf("ensure schema of %s: %w", id, err)
		}
	}
	return nil
}
