package inventory

import (
	"context"
	"math"
	"slices"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/medshop/internal/domain/models"
	"github.com/mamadbah2/medshop/internal/repository/memory"
	"github.com/mamadbah2/medshop/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	st := store.New(memory.NewRepository(), nil)
	require.NoError(t, st.EnsureAll(context.Background()))
	return NewService(st, nil), st
}

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestAddStockNewItem(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	got, err := svc.AddStock(ctx, "aspirin", 100, 20, price("2.5"))
	require.NoError(t, err)
	assert.Equal(t, int64(120), got.Quantity)

	table, err := st.Load(ctx, models.StoreInventory)
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, []string{"aspirin", "100", "120", "2.5"}, table.Rows[0])
}

func TestAddStockExistingItemKeepsPriceAndInitial(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddStock(ctx, "aspirin", 100, 20, price("2.5"))
	require.NoError(t, err)
	got, err := svc.AddStock(ctx, "aspirin", 999, 5, price("9.99"))
	require.NoError(t, err)

	assert.Equal(t, int64(125), got.Quantity)
	assert.Equal(t, int64(100), got.InitialQuantity)
	assert.True(t, got.Price.Equal(price("2.5")))

	table, err := st.Load(ctx, models.StoreInventory)
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())
}

func TestAddStockValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		item    string
		initial int64
		extra   int64
		price   decimal.Decimal
	}{
		{name: "blank item", item: "  ", initial: 1, extra: 1, price: price("1")},
		{name: "zero initial", item: "gauze", initial: 0, extra: 1, price: price("1")},
		{name: "zero extra", item: "gauze", initial: 1, extra: 0, price: price("1")},
		{name: "negative price", item: "gauze", initial: 1, extra: 1, price: price("-0.1")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.AddStock(ctx, tc.item, tc.initial, tc.extra, tc.price)
			assert.ErrorIs(t, err, models.ErrInvalidArgument)
		})
	}
}

func TestRestock(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddStock(ctx, "gauze", 50, 1, price("0.75"))
	require.NoError(t, err)

	got, err := svc.Restock(ctx, "gauze", 9)
	require.NoError(t, err)
	assert.Equal(t, int64(60), got.Quantity)
	assert.Equal(t, "Restocked 9 units of gauze.", RestockMessage("gauze", 9))

	_, err = svc.Restock(ctx, "morphine", 1)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = svc.Restock(ctx, "gauze", 0)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}

func TestLowStockAlert(t *testing.T) {
	table := models.Table{
		Fields: models.Schemas[models.StoreInventory],
		Rows: [][]string{
			{"aspirin", "100", "20", "2.5"},  // exactly 20%
			{"bandage", "100", "21", "1"},    // above
			{"gauze", "50", "0", "0.75"},     // empty
			{"saline", "10", "broken", "3"},  // unparsable
			{"iodine", "10.0", "1.0", "4.5"}, // spreadsheet floats
		},
	}

	first := slices.Collect(LowStockAlert(table))
	assert.Equal(t, []string{"aspirin", "gauze", "iodine"}, first)

	second := slices.Collect(LowStockAlert(table))
	assert.Equal(t, first, second, "re-iterating yields the same items")

	table.Set(1, models.FieldQuantity, "5")
	assert.Equal(t, []string{"aspirin", "bandage", "gauze", "iodine"}, slices.Collect(LowStockAlert(table)))

	for item := range LowStockAlert(table) {
		assert.Equal(t, "aspirin", item)
		break
	}
}

func TestLowStockLoadsTable(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddStock(ctx, "aspirin", 100, 1, price("2.5"))
	require.NoError(t, err)
	items, err := svc.LowStock(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, "", LowStockMessage(items))

	table, err := st.Load(ctx, models.StoreInventory)
	require.NoError(t, err)
	table.Set(0, models.FieldQuantity, "3")
	require.NoError(t, st.ReplaceAll(ctx, models.StoreInventory, &table))

	items, err = svc.LowStock(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"aspirin"}, items)
	assert.Equal(t, "Low Inventory Alert: a, b are below 20% of initial stock.", LowStockMessage([]string{"a", "b"}))
}

func TestRecordSale(t *testing.T) {
	table := models.Table{
		Fields: models.Schemas[models.StoreInventory],
		Rows:   [][]string{{"aspirin", "100", "10", "2.5"}},
	}

	unit, err := RecordSale(&table, "aspirin", 4)
	require.NoError(t, err)
	assert.True(t, unit.Equal(price("2.5")))
	assert.Equal(t, "6", table.Value(0, models.FieldQuantity))

	_, err = RecordSale(&table, "aspirin", 7)
	var insufficient *models.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(6), insufficient.Available)
	assert.Equal(t, "6", table.Value(0, models.FieldQuantity))

	_, err = RecordSale(&table, "morphine", 1)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestList(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddStock(ctx, "aspirin", 100, 1, price("2.5"))
	require.NoError(t, err)
	_, err = svc.AddStock(ctx, "bandage", 10, 1, price("1"))
	require.NoError(t, err)

	items, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "aspirin", items[0].Item)
	assert.Equal(t, "bandage", items[1].Item)
}

func TestStockIncreasesRejectOverflow(t *testing.T) {
	tests := []struct {
		name string
		run  func(ctx context.Context, svc *Service) error
	}{
		{name: "new item", run: func(ctx context.Context, svc *Service) error {
			_, err := svc.AddStock(ctx, "aspirin", 1, math.MaxInt64, price("1"))
			return err
		}},
		{name: "existing item", run: func(ctx context.Context, svc *Service) error {
			_, err := svc.AddStock(ctx, "gauze", 1, math.MaxInt64-1, price("1"))
			return err
		}},
		{name: "restock", run: func(ctx context.Context, svc *Service) error {
			_, err := svc.Restock(ctx, "gauze", math.MaxInt64)
			return err
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, st := newTestService(t)
			ctx := context.Background()
			_, err := svc.AddStock(ctx, "gauze", 10, 10, price("0.75"))
			require.NoError(t, err)

			assert.ErrorIs(t, tc.run(ctx, svc), models.ErrInvalidArgument)

			items, err := svc.List(ctx)
			require.NoError(t, err)
			require.Len(t, items, 1)
			assert.Equal(t, int64(20), items[0].Quantity)
			low, err := svc.LowStock(ctx)
			require.NoError(t, err)
			assert.Empty(t, low)

			table, err := st.Load(ctx, models.StoreInventory)
			require.NoError(t, err)
			assert.Equal(t, -1, table.Find(models.FieldItem, "aspirin"))
		})
	}
}

func TestRestockReachesMaximumQuantity(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddStock(ctx, "gauze", 10, 10, price("0.75"))
	require.NoError(t, err)
	got, err := svc.Restock(ctx, "gauze", math.MaxInt64-20)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), got.Quantity)
}

func TestItemNamesAreTrimmedOnEveryPath(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddStock(ctx, " aspirin ", 100, 1, price("2.5"))
	require.NoError(t, err)

	got, err := svc.Restock(ctx, "aspirin ", 4)
	require.NoError(t, err)
	assert.Equal(t, int64(105), got.Quantity)

	table, err := st.Load(ctx, models.StoreInventory)
	require.NoError(t, err)
	_, err = RecordSale(&table, "  aspirin", 5)
	require.NoError(t, err)
	assert.Equal(t, "100", table.Value(0, models.FieldQuantity))
}
