// Package inventory implements the supply chain and inventory management
// operations over the inventory store.
package inventory

import (
	"context"
	"fmt"
	"iter"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/medshop/internal/domain/models"
	"github.com/mamadbah2/medshop/internal/store"
)

// Service exposes inventory operations backed by the record store.
type Service struct {
	store  *store.Store
	logger *zap.Logger
}

// NewService wires a new inventory service instance.
func NewService(st *store.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, logger: logger}
}

// AddStock registers extraQuantity more units of item. A new item is created
// with quantity initialQuantity+extraQuantity; for a known item only the
// quantity changes and the first registration's price and initial quantity stay.
func (s *Service) AddStock(ctx context.Context, item string, initialQuantity, extraQuantity int64, price decimal.Decimal) (models.InventoryItem, error) {
	item = strings.TrimSpace(item)
	switch {
	case item == "":
		return models.InventoryItem{}, models.Invalidf("item name is required")
	case initialQuantity < 1:
		return models.InventoryItem{}, models.Invalidf("initial quantity must be at least 1")
	case extraQuantity < 1:
		return models.InventoryItem{}, models.Invalidf("additional quantity must be at least 1")
	case price.IsNegative():
		return models.InventoryItem{}, models.Invalidf("price must not be negative")
	}

	var result models.InventoryItem
	err := s.store.Update(ctx, func(tables store.Tables) error {
		table := tables[models.StoreInventory]
		row := table.Find(models.FieldItem, item)
		if row < 0 {
			if err := checkAdd(initialQuantity, extraQuantity); err != nil {
				return err
			}
			row = table.Append(map[string]string{
				models.FieldItem:            item,
				models.FieldInitialQuantity: store.FormatInt(initialQuantity),
				models.FieldQuantity:        store.FormatInt(initialQuantity + extraQuantity),
				models.FieldPrice:           store.FormatDecimal(price),
			})
		} else {
			current, err := store.InventoryAt(*table, row)
			if err != nil {
				return err
			}
			if err := checkAdd(current.Quantity, extraQuantity); err != nil {
				return err
			}
			table.Set(row, models.FieldQuantity, store.FormatInt(current.Quantity+extraQuantity))
		}

		var err error
		result, err = store.InventoryAt(*table, row)
		return err
	}, models.StoreInventory)
	if err != nil {
		return models.InventoryItem{}, err
	}

	s.logger.Info("stock added", zap.String("item", item), zap.Int64("added", extraQuantity), zap.Int64("quantity", result.Quantity))
	return result, nil
}

// Restock adds amount units to an existing item.
func (s *Service) Restock(ctx context.Context, item string, amount int64) (models.InventoryItem, error) {
	item = strings.TrimSpace(item)
	if amount < 1 {
		return models.InventoryItem{}, models.Invalidf("restock quantity must be at least 1")
	}

	var result models.InventoryItem
	err := s.store.Update(ctx, func(tables store.Tables) error {
		table := tables[models.StoreInventory]
		row := table.Find(models.FieldItem, item)
		if row < 0 {
			return models.NotFoundf("item %q", item)
		}
		current, err := store.InventoryAt(*table, row)
		if err != nil {
			return err
		}
		if err := checkAdd(current.Quantity, amount); err != nil {
			return err
		}
		current.Quantity += amount
		table.Set(row, models.FieldQuantity, store.FormatInt(current.Quantity))
		result = current
		return nil
	}, models.StoreInventory)
	if err != nil {
		return models.InventoryItem{}, err
	}

	s.logger.Info("item restocked", zap.String("item", item), zap.Int64("amount", amount), zap.Int64("quantity", result.Quantity))
	return result, nil
}

// List returns the typed inventory.
func (s *Service) List(ctx context.Context) ([]models.InventoryItem, error) {
	table, err := s.store.Load(ctx, models.StoreInventory)
	if err != nil {
		return nil, err
	}
	return store.DecodeInventory(table)
}

// LowStock loads the inventory and collects the low stock alert.
func (s *Service) LowStock(ctx context.Context) ([]string, error) {
	table, err := s.store.Load(ctx, models.StoreInventory)
	if err != nil {
		return nil, err
	}
	var items []string
	for item := range LowStockAlert(table) {
		items = append(items, item)
	}
	return items, nil
}

// LowStockAlert yields, in table order, the items at or below 20% of their
// initial quantity. Each range over the sequence re-reads the table. Rows
// whose numbers cannot be parsed are skipped.
func LowStockAlert(table models.Table) iter.Seq[string] {
	return func(yield func(string) bool) {
		for i := range table.Rows {
			item, err := store.InventoryAt(table, i)
			if err != nil {
				continue
			}
			if item.LowStock() && !yield(item.Item) {
				return
			}
		}
	}
}

// RecordSale takes quantity units of item out of the inventory table and
// returns the unit price at the moment of sale. The table is left untouched
// on error.
func RecordSale(table *models.Table, item string, quantity int64) (decimal.Decimal, error) {
	item = strings.TrimSpace(item)
	row := table.Find(models.FieldItem, item)
	if row < 0 {
		return decimal.Zero, models.NotFoundf("item %q", item)
	}
	current, err := store.InventoryAt(*table, row)
	if err != nil {
		return decimal.Zero, err
	}
	if quantity > current.Quantity {
		return decimal.Zero, &models.InsufficientStockError{Item: item, Requested: quantity, Available: current.Quantity}
	}
	table.Set(row, models.FieldQuantity, store.FormatInt(current.Quantity-quantity))
	return current.Price, nil
}

// checkAdd rejects a stock increase that would overflow the quantity cell.
func checkAdd(current, extra int64) error {
	if current > 0 && extra > math.MaxInt64-current {
		return models.Invalidf("quantity too large: %d + %d", current, extra)
	}
	return nil
}

// LowStockMessage renders the operator warning, or "" when nothing is low.
func LowStockMessage(items []string) string {
	if len(items) == 0 {
		return ""
	}
	return fmt.Sprintf("Low Inventory Alert: %s are below 20%% of initial stock.", strings.Join(items, ", "))
}

// RestockMessage renders the restock confirmation.
func RestockMessage(item string, amount int64) string {
	return fmt.Sprintf("Restocked %d units of %s.", amount, item)
}
