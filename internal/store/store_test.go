package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/medshop/internal/domain/models"
	"github.com/mamadbah2/medshop/internal/repository/memory"
)

// faultyRepo wraps the memory repository and fails chosen operations.
type faultyRepo struct {
	*memory.Repository
	failWrite   map[models.StoreID]int // fail the nth write (1-based), 0 = never
	writes      map[models.StoreID]int
	failRead    error
	writeCalled int
}

func newFaultyRepo() *faultyRepo {
	return &faultyRepo{
		Repository: memory.NewRepository(),
		failWrite:  map[models.StoreID]int{},
		writes:     map[models.StoreID]int{},
	}
}

func (r *faultyRepo) ReadTable(ctx context.Context, id models.StoreID) (models.Table, error) {
	if r.failRead != nil {
		return models.Table{}, r.failRead
	}
	return r.Repository.ReadTable(ctx, id)
}

func (r *faultyRepo) WriteTable(ctx context.Context, id models.StoreID, t models.Table) error {
	r.writeCalled++
	r.writes[id]++
	if n := r.failWrite[id]; n > 0 && r.writes[id] >= n {
		return errors.New("disk full")
	}
	return r.Repository.WriteTable(ctx, id, t)
}

func seeded(t *testing.T) (*Store, *faultyRepo) {
	t.Helper()
	repo := newFaultyRepo()
	s := New(repo, nil)
	require.NoError(t, s.EnsureAll(context.Background()))

	inv, err := s.Load(context.Background(), models.StoreInventory)
	require.NoError(t, err)
	inv.Append(map[string]string{"item": "aspirin", "initial_quantity": "100", "quantity": "80", "price": "2.5"})
	require.NoError(t, s.ReplaceAll(context.Background(), models.StoreInventory, &inv))

	repo.writeCalled = 0
	repo.writes = map[models.StoreID]int{}
	return s, repo
}

func TestEnsureSchemaCreatesStores(t *testing.T) {
	repo := memory.NewRepository()
	s := New(repo, nil)
	ctx := context.Background()

	added, err := s.EnsureSchema(ctx, models.StoreInventory, models.Schemas[models.StoreInventory])
	require.NoError(t, err)
	assert.Equal(t, models.Schemas[models.StoreInventory], added)

	table, err := s.Load(ctx, models.StoreInventory)
	require.NoError(t, err)
	assert.Equal(t, models.Schemas[models.StoreInventory], table.Fields)
	assert.Zero(t, table.Len())
}

func TestEnsureSchemaAppendsMissingFields(t *testing.T) {
	repo := memory.NewRepository()
	ctx := context.Background()
	legacy := models.Table{
		Fields: []string{"item", "supplier", "quantity"},
		Rows:   [][]string{{"aspirin", "Acme", "7"}},
	}
	require.NoError(t, repo.WriteTable(ctx, models.StoreInventory, legacy))

	s := New(repo, nil)
	added, err := s.EnsureSchema(ctx, models.StoreInventory, models.Schemas[models.StoreInventory])
	require.NoError(t, err)
	assert.Equal(t, []string{"initial_quantity", "price"}, added)

	table, err := s.Load(ctx, models.StoreInventory)
	require.NoError(t, err)
	assert.Equal(t, []string{"item", "supplier", "quantity", "initial_quantity", "price"}, table.Fields)
	assert.Equal(t, []string{"aspirin", "Acme", "7", "", ""}, table.Rows[0])
}

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	repo := newFaultyRepo()
	s := New(repo, nil)
	ctx := context.Background()

	require.NoError(t, s.EnsureAll(ctx))
	assert.Equal(t, 3, repo.writeCalled)

	for _, id := range models.AllStores() {
		added, err := s.EnsureSchema(ctx, id, models.Schemas[id])
		require.NoError(t, err)
		assert.Empty(t, added)
	}
	assert.Equal(t, 3, repo.writeCalled, "second pass must not write")
}

func TestEnsureSchemaStorageFault(t *testing.T) {
	repo := newFaultyRepo()
	repo.failWrite[models.StoreSales] = 1
	s := New(repo, nil)

	err := s.EnsureAll(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrStorageFault)

	var se *models.StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, models.StoreSales, se.Store)
}

func TestLoadWrapsReadFailure(t *testing.T) {
	s, repo := seeded(t)
	repo.failRead = errors.New("permission denied")

	_, err := s.Load(context.Background(), models.StoreInventory)
	assert.ErrorIs(t, err, models.ErrStorageFault)
}

func TestReplaceAllDetectsConflict(t *testing.T) {
	s, repo := seeded(t)
	ctx := context.Background()

	mine, err := s.Load(ctx, models.StoreInventory)
	require.NoError(t, err)

	// Someone else edits the table after we loaded it.
	theirs := mine.Clone()
	theirs.Set(0, models.FieldQuantity, "1")
	require.NoError(t, repo.Repository.WriteTable(ctx, models.StoreInventory, theirs))

	mine.Set(0, models.FieldQuantity, "79")
	err = s.ReplaceAll(ctx, models.StoreInventory, &mine)
	assert.ErrorIs(t, err, models.ErrConflict)

	persisted, err := s.Load(ctx, models.StoreInventory)
	require.NoError(t, err)
	assert.Equal(t, "1", persisted.Value(0, models.FieldQuantity))
}

func TestReplaceAllRefreshesRevision(t *testing.T) {
	s, _ := seeded(t)
	ctx := context.Background()

	table, err := s.Load(ctx, models.StoreInventory)
	require.NoError(t, err)

	table.Set(0, models.FieldQuantity, "70")
	require.NoError(t, s.ReplaceAll(ctx, models.StoreInventory, &table))
	table.Set(0, models.FieldQuantity, "60")
	require.NoError(t, s.ReplaceAll(ctx, models.StoreInventory, &table), "second write from the same copy is not stale")
}

func TestUpdateCommitsChangedTables(t *testing.T) {
	s, repo := seeded(t)
	ctx := context.Background()

	err := s.Update(ctx, func(tables Tables) error {
		tables[models.StoreSales].Append(map[string]string{"patient": "Alice", "item": "aspirin", "quantity": "1", "total": "2.5"})
		return nil
	}, models.StoreInventory, models.StoreSales)
	require.NoError(t, err)

	assert.Equal(t, 0, repo.writes[models.StoreInventory], "unchanged table is not rewritten")
	assert.Equal(t, 1, repo.writes[models.StoreSales])

	sales, err := s.Load(ctx, models.StoreSales)
	require.NoError(t, err)
	assert.Equal(t, 1, sales.Len())
}

func TestUpdateCallbackErrorWritesNothing(t *testing.T) {
	s, repo := seeded(t)
	boom := errors.New("boom")

	err := s.Update(context.Background(), func(tables Tables) error {
		tables[models.StoreInventory].Set(0, models.FieldQuantity, "0")
		return boom
	}, models.StoreInventory)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, repo.writeCalled)
}

func TestUpdateRollsBackOnSecondWriteFailure(t *testing.T) {
	s, repo := seeded(t)
	ctx := context.Background()
	repo.failWrite[models.StoreSales] = 1

	err := s.Update(ctx, func(tables Tables) error {
		tables[models.StoreInventory].Set(0, models.FieldQuantity, "70")
		tables[models.StoreSales].Append(map[string]string{"patient": "Bob", "item": "aspirin", "quantity": "10", "total": "25"})
		return nil
	}, models.StoreInventory, models.StoreSales)

	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrStorageFault)
	assert.NotErrorIs(t, err, models.ErrInconsistentState)

	inv, err := s.Load(ctx, models.StoreInventory)
	require.NoError(t, err)
	assert.Equal(t, "80", inv.Value(0, models.FieldQuantity))
}

func TestUpdateReportsFailedRollback(t *testing.T) {
	s, repo := seeded(t)
	ctx := context.Background()
	repo.failWrite[models.StoreSales] = 1
	repo.failWrite[models.StoreInventory] = 2

	err := s.Update(ctx, func(tables Tables) error {
		tables[models.StoreInventory].Set(0, models.FieldQuantity, "70")
		tables[models.StoreSales].Append(map[string]string{"patient": "Bob", "item": "aspirin", "quantity": "10", "total": "25"})
		return nil
	}, models.StoreInventory, models.StoreSales)

	assert.ErrorIs(t, err, models.ErrInconsistentState)
}

func TestFingerprintIgnoresTrailingNulls(t *testing.T) {
	a := models.Table{Fields: []string{"a", "b"}, Rows: [][]string{{"1"}}}
	b := models.Table{Fields: []string{"a", "b"}, Rows: [][]string{{"1", ""}}}
	c := models.Table{Fields: []string{"a", "b"}, Rows: [][]string{{"1", "2"}}}

	assert.Equal(t, Fingerprint(a), Fingerprint(b))
	assert.NotEqual(t, Fingerprint(a), Fingerprint(c))
	assert.NotEqual(t, Fingerprint(models.Table{Fields: []string{"ab"}}), Fingerprint(models.Table{Fields: []string{"a", "b"}}))
}

func TestFingerprintIgnoresTrailingBlankRows(t *testing.T) {
	fields := []string{"item", "note"}
	a := models.Table{Fields: fields, Rows: [][]string{{"x", "lead"}}}
	b := models.Table{Fields: fields, Rows: [][]string{{"x", "lead"}, {"", ""}, {}}}
	c := models.Table{Fields: fields, Rows: [][]string{{"", ""}, {"x", "lead"}}}

	assert.Equal(t, Fingerprint(a), Fingerprint(b))
	assert.NotEqual(t, Fingerprint(a), Fingerprint(c), "leading blank rows still count")
}
