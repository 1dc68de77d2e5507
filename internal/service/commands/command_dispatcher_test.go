package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/medshop/internal/domain/models"
	"github.com/mamadbah2/medshop/internal/repository/memory"
	"github.com/mamadbah2/medshop/internal/service/inventory"
	"github.com/mamadbah2/medshop/internal/service/sales"
	"github.com/mamadbah2/medshop/internal/store"
)

func newTestDispatcher(t *testing.T) *Service {
	t.Helper()
	st := store.New(memory.NewRepository(), nil)
	require.NoError(t, st.EnsureAll(context.Background()))
	return NewService(inventory.NewService(st, nil), sales.NewService(st, nil), nil)
}

func run(t *testing.T, d *Service, text string) (string, error) {
	t.Helper()
	return d.HandleCommand(context.Background(), models.ParseCommand(text), "224600")
}

func TestDispatcherFlow(t *testing.T) {
	d := newTestDispatcher(t)

	reply, err := run(t, d, "/addstock aspirin 100 10 2.5")
	require.NoError(t, err)
	assert.Equal(t, "Stock updated: aspirin now has 110 units at $2.50.", reply)

	reply, err = run(t, d, "/sale aspirin 90 Alice Diallo")
	require.NoError(t, err)
	assert.Equal(t, "Sale recorded for Alice Diallo: 90 x aspirin, total $225.00.", reply)

	reply, err = run(t, d, "/LOWSTOCK")
	require.NoError(t, err)
	assert.Equal(t, "Low Inventory Alert: aspirin are below 20% of initial stock.", reply)

	reply, err = run(t, d, "/restock aspirin 50")
	require.NoError(t, err)
	assert.Equal(t, "Restocked 50 units of aspirin.", reply)

	reply, err = run(t, d, "/lowstock")
	require.NoError(t, err)
	assert.Equal(t, "All items are above 20% of initial stock.", reply)

	reply, err = run(t, d, "/invoice Alice Diallo")
	require.NoError(t, err)
	assert.Contains(t, reply, "- aspirin x90: $225.00")
	assert.Contains(t, reply, "Invoice generated for Alice Diallo with total amount: $225.00")
}

func TestDispatcherMultiWordItems(t *testing.T) {
	d := newTestDispatcher(t)

	reply, err := run(t, d, `/addstock "bandage roll" 40 0 1.5`)
	require.ErrorIs(t, err, models.ErrInvalidArgument, reply)

	reply, err = run(t, d, `/addstock "bandage roll" 40 10 1.5`)
	require.NoError(t, err)
	assert.Equal(t, "Stock updated: bandage roll now has 50 units at $1.50.", reply)

	reply, err = run(t, d, `/restock "bandage roll" 5`)
	require.NoError(t, err)
	assert.Equal(t, "Restocked 5 units of bandage roll.", reply)

	reply, err = run(t, d, `/sale "bandage roll" 47 Alice Diallo`)
	require.NoError(t, err)
	assert.Equal(t, "Sale recorded for Alice Diallo: 47 x bandage roll, total $70.50.", reply)

	reply, err = run(t, d, "/lowstock")
	require.NoError(t, err)
	assert.Equal(t, "Low Inventory Alert: bandage roll are below 20% of initial stock.", reply)
}

func TestDispatcherErrors(t *testing.T) {
	d := newTestDispatcher(t)

	tests := []struct {
		text   string
		target error
	}{
		{text: "/addstock aspirin 100 ten 2.5", target: ErrInvalidArguments},
		{text: "/addstock aspirin", target: ErrInvalidArguments},
		{text: "/restock aspirin", target: ErrInvalidArguments},
		{text: "/restock aspirin 5", target: models.ErrNotFound},
		{text: "/sale aspirin 1", target: ErrInvalidArguments},
		{text: "/sale aspirin 1 Bob", target: models.ErrNotFound},
		{text: "/invoice", target: ErrInvalidArguments},
		{text: "/invoice Nobody", target: models.ErrNoSalesFound},
		{text: "hello there", target: ErrUnsupportedCommand},
	}
	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			_, err := run(t, d, tc.text)
			assert.ErrorIs(t, err, tc.target)
		})
	}
}

func TestHelp(t *testing.T) {
	reply, err := run(t, newTestDispatcher(t), "/help")
	require.NoError(t, err)
	assert.Equal(t, HelpText, reply)
}

func TestReplyForError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{err: &models.InsufficientStockError{Item: "gauze", Requested: 5, Available: 2}, want: "Not enough gauze in stock: 5 requested, 2 available."},
		{err: models.NotFoundf("item %q", "gauze"), want: `Not found: item "gauze"`},
		{err: models.ErrNoSalesFound, want: "No sales found for this patient."},
		{err: invalid(models.CommandRestock), want: "usage: /restock <item> <qty>: invalid command arguments"},
		{err: &models.StorageError{Store: models.StoreSales, Op: "replace", Err: errors.New("disk full")}, want: "Something went wrong while saving. Please try again later."},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, ReplyForError(tc.err))
	}
	assert.Contains(t, ReplyForError(ErrUnsupportedCommand), "/help")
}
