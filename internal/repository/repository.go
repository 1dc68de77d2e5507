// Package repository defines the storage collaborator the record store talks
// to. Every call moves a whole table; the on-disk encoding belongs to the
// driver packages below it.
package repository

import (
	"context"

	"github.com/mamadbah2/medshop/internal/domain/models"
)

// TableRepository persists whole tables keyed by store id.
type TableRepository interface {
	Exists(ctx context.Context, id models.StoreID) (bool, error)
	ReadTable(ctx context.Context, id models.StoreID) (models.Table, error)
	WriteTable(ctx context.Context, id models.StoreID, table models.Table) error
}

// Closer is implemented by drivers holding connections or file handles.
type Closer interface {
	Close() error
}
