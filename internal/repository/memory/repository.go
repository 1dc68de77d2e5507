package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/mamadbah2/medshop/internal/domain/models"
	"github.com/mamadbah2/medshop/internal/repository"
)

// Repository keeps tables in process memory. Tables are cloned on the way in
// and out so callers never share row slices with the repository.
type Repository struct {
	mu     sync.RWMutex
	tables map[models.StoreID]models.Table
}

// Verify interface compliance
var _ repository.TableRepository = (*Repository)(nil)

// NewRepository creates an empty in-memory repository.
func NewRepository() *Repository {
	return &Repository{tables: map[models.StoreID]models.Table{}}
}

// Exists reports whether the store was ever written.
func (r *Repository) Exists(_ context.Context, id models.StoreID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tables[id]
	return ok, nil
}

// ReadTable returns a copy of the stored table.
func (r *Repository) ReadTable(_ context.Context, id models.StoreID) (models.Table, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tables[id]
	if !ok {
		return models.Table{}, fmt.Errorf("store %s does not exist", id)
	}
	out := t.Clone()
	out.Revision = ""
	return out, nil
}

// WriteTable replaces the stored table with a copy of table.
func (r *Repository) WriteTable(_ context.Context, id models.StoreID, table models.Table) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := table.Clone()
	out.Revision = ""
	for i := range out.Rows {
		out.Normalize(i)
	}
	r.tables[id] = out
	return nil
}
