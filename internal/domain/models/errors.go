package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a referenced item or patient does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInsufficientStock indicates a sale asks for more than is in stock.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrNoSalesFound indicates an invoice was requested for a patient without sales.
	ErrNoSalesFound = errors.New("no sales found")
	// ErrConflict indicates a persisted table changed between load and replace.
	ErrConflict = errors.New("table changed since it was loaded")
	// ErrStorageFault indicates the storage collaborator could not read or write a store.
	ErrStorageFault = errors.New("storage fault")
	// ErrInconsistentState indicates a multi-store commit was left half applied.
	ErrInconsistentState = errors.New("stores left in an inconsistent state")
	// ErrInvalidArgument indicates an operation received malformed input.
	ErrInvalidArgument = errors.New("invalid argument")
)

// InsufficientStockError reports the stock level that rejected a sale.
type InsufficientStockError struct {
	Item      string
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.Item, e.Requested, e.Available)
}

// Is matches ErrInsufficientStock.
func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// StorageError wraps a failure of the storage collaborator.
type StorageError struct {
	Store StoreID
	Op    string
	Err   error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Store, e.Err)
}

// Is matches ErrStorageFault.
func (e *StorageError) Is(target error) bool { return target == ErrStorageFault }

func (e *StorageError) Unwrap() error { return e.Err }

// NotFoundf builds an error matching ErrNotFound.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}

// Invalidf builds an error matching ErrInvalidArgument.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidArgument)
}
