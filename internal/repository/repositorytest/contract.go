// Package repositorytest holds the behaviour every TableRepository driver
// must share. Driver packages call Run from their own tests.
package repositorytest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/medshop/internal/domain/models"
	"github.com/mamadbah2/medshop/internal/repository"
)

// Run exercises a fresh, empty repository.
func Run(t *testing.T, repo repository.TableRepository) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing store", func(t *testing.T) {
		ok, err := repo.Exists(ctx, models.StorePatients)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("empty table round trip", func(t *testing.T) {
		in := models.NewTable(models.Schemas[models.StoreSales]...)
		require.NoError(t, repo.WriteTable(ctx, models.StoreSales, in))

		ok, err := repo.Exists(ctx, models.StoreSales)
		require.NoError(t, err)
		assert.True(t, ok)

		out, err := repo.ReadTable(ctx, models.StoreSales)
		require.NoError(t, err)
		assert.Equal(t, in.Fields, out.Fields)
		assert.Zero(t, out.Len())
	})

	t.Run("rows round trip in order", func(t *testing.T) {
		in := models.Table{
			Fields: []string{"item", "initial_quantity", "quantity", "price", "supplier"},
			Rows: [][]string{
				{"aspirin", "100", "80", "2.5", ""},
				{"bandage roll", "50", "9", "1.25", "Acme, Inc."},
				{"gauze", "", "", "", ""},
			},
		}
		require.NoError(t, repo.WriteTable(ctx, models.StoreInventory, in))

		out, err := repo.ReadTable(ctx, models.StoreInventory)
		require.NoError(t, err)
		assert.True(t, in.Equal(out), "got %+v", out)
	})

	t.Run("overwrite replaces every row", func(t *testing.T) {
		first := models.Table{Fields: []string{"name", "age"}, Rows: [][]string{{"Alice", "30"}, {"Bob", "41"}}}
		second := models.Table{Fields: []string{"name", "age"}, Rows: [][]string{{"Carol", "25"}}}
		require.NoError(t, repo.WriteTable(ctx, models.StorePatients, first))
		require.NoError(t, repo.WriteTable(ctx, models.StorePatients, second))

		out, err := repo.ReadTable(ctx, models.StorePatients)
		require.NoError(t, err)
		assert.True(t, second.Equal(out), "got %+v", out)
	})
}
