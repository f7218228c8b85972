package sqlitestore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"gearledger/domain"
	"gearledger/service"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"), 2, log.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_UpsertInsertsThenMerges(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.UpsertResult(ctx, domain.ResultInput{
		Artikul: "PK-5396", Client: "Acme", Quantity: 1, Weight: 2.5, SalePrice: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Quantity)
	assert.Equal(t, 10.0, first.TotalPrice)

	second, err := store.UpsertResult(ctx, domain.ResultInput{
		Artikul: "PK-5396", Client: "Acme", Quantity: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, second.Quantity)

	rows, err := store.ListResults(ctx, "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].Quantity)
}

func TestStore_UpsertNormalizationEquivalence(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, artikul := range []string{"PK-5396", "pk5396", "PK 5396"} {
		_, err := store.UpsertResult(ctx, domain.ResultInput{Artikul: artikul, Client: "Acme", Quantity: 1})
		require.NoError(t, err)
	}
	// Client matching is case-insensitive too.
	_, err := store.UpsertResult(ctx, domain.ResultInput{Artikul: "pk-5396", Client: "ACME", Quantity: 1})
	require.NoError(t, err)

	rows, err := store.ListResults(ctx, "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 4, rows[0].Quantity)
}

func TestStore_UpsertQuantityAccumulatesOverNWrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	total := 0
	for _, delta := range []int{1, 3, 0, 5} {
		total += delta
		_, err := store.UpsertResult(ctx, domain.ResultInput{Artikul: "X-1", Client: "c", Quantity: delta})
		require.NoError(t, err)
	}

	rows, err := store.ListResults(ctx, "c")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, total, rows[0].Quantity)
}

func TestStore_UpsertMergeRules(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.UpsertResult(ctx, domain.ResultInput{
		Artikul: "X-1", Client: "c", Quantity: 2, Weight: 1.5,
		Brand: "Bosch", Description: "bearing", SalePrice: 10,
	})
	require.NoError(t, err)

	// Zero price and empty brand/description must not clobber stored
	// values; weight is never touched on merge.
	merged, err := store.UpsertResult(ctx, domain.ResultInput{
		Artikul: "X-1", Client: "c", Quantity: 1, Weight: 99,
		Brand: "", Description: "", SalePrice: 0,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, merged.Quantity)
	assert.Equal(t, 1.5, merged.Weight)
	assert.Equal(t, "Bosch", merged.Brand)
	assert.Equal(t, "bearing", merged.Description)
	assert.Equal(t, 10.0, merged.SalePrice)
	assert.Equal(t, 30.0, merged.TotalPrice)

	// A positive price and non-empty strings do replace.
	merged, err = store.UpsertResult(ctx, domain.ResultInput{
		Artikul: "X-1", Client: "c", Quantity: 1,
		Brand: "SKF", Description: "front bearing", SalePrice: 12,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, merged.Quantity)
	assert.Equal(t, "SKF", merged.Brand)
	assert.Equal(t, "front bearing", merged.Description)
	assert.Equal(t, 12.0, merged.SalePrice)
	assert.Equal(t, 48.0, merged.TotalPrice)
	assert.Equal(t, 1.5, merged.Weight)
}

func TestStore_UpsertValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.UpsertResult(ctx, domain.ResultInput{Client: "c", Quantity: 1})
	assert.True(t, service.IsBadParameterError(err))

	_, err = store.UpsertResult(ctx, domain.ResultInput{Artikul: "X", Quantity: 1})
	assert.True(t, service.IsBadParameterError(err))
}

func TestStore_ListResultsOrderAndFilter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.UpsertResult(ctx, domain.ResultInput{Artikul: "A-1", Client: "acme", Quantity: 1})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = store.UpsertResult(ctx, domain.ResultInput{Artikul: "B-2", Client: "globex", Quantity: 1})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	// Touching A-1 again moves it back to the front.
	_, err = store.UpsertResult(ctx, domain.ResultInput{Artikul: "A1", Client: "ACME", Quantity: 1})
	require.NoError(t, err)

	rows, err := store.ListResults(ctx, "")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "A-1", rows[0].Artikul)
	assert.Equal(t, "B-2", rows[1].Artikul)

	filtered, err := store.ListResults(ctx, "Globex")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "B-2", filtered[0].Artikul)
}

func TestStore_GetResult(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	inserted, err := store.UpsertResult(ctx, domain.ResultInput{Artikul: "X-1", Client: "c", Quantity: 1})
	require.NoError(t, err)

	got, err := store.GetResult(ctx, inserted.ID)
	require.NoError(t, err)
	assert.Equal(t, inserted.ID, got.ID)
	assert.Equal(t, "X-1", got.Artikul)

	_, err = store.GetResult(ctx, 9999)
	assert.True(t, service.IsEntityNotFoundError(err))
}

func TestStore_UpdateResult(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	inserted, err := store.UpsertResult(ctx, domain.ResultInput{
		Artikul: "X-1", Client: "c", Quantity: 1, Brand: "Bosch", SalePrice: 10,
	})
	require.NoError(t, err)

	updated, err := store.UpdateResult(ctx, inserted.ID, domain.ResultPatch{
		Quantity:  service.Ptr(7),
		SalePrice: service.Ptr(12.5),
	})
	require.NoError(t, err)
	assert.Equal(t, 7, updated.Quantity)
	assert.Equal(t, 12.5, updated.SalePrice)
	// Untouched fields survive the sparse update.
	assert.Equal(t, "Bosch", updated.Brand)

	_, err = store.UpdateResult(ctx, 9999, domain.ResultPatch{Quantity: service.Ptr(1)})
	assert.True(t, service.IsEntityNotFoundError(err))

	_, err = store.UpdateResult(ctx, inserted.ID, domain.ResultPatch{})
	assert.True(t, service.IsBadParameterError(err))
}

func TestStore_DeleteResult(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	inserted, err := store.UpsertResult(ctx, domain.ResultInput{Artikul: "X-1", Client: "c", Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, store.DeleteResult(ctx, inserted.ID))
	assert.True(t, service.IsEntityNotFoundError(store.DeleteResult(ctx, inserted.ID)))

	rows, err := store.ListResults(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestStore_ClearResults(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, in := range []domain.ResultInput{
		{Artikul: "A-1", Client: "acme", Quantity: 1},
		{Artikul: "B-2", Client: "acme", Quantity: 1},
		{Artikul: "C-3", Client: "globex", Quantity: 1},
	} {
		_, err := store.UpsertResult(ctx, in)
		require.NoError(t, err)
	}

	deleted, err := store.ClearResults(ctx, "ACME")
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	rows, err := store.ListResults(ctx, "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "globex", rows[0].Client)

	deleted, err = store.ClearResults(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestStore_ListClients(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	clients, err := store.ListClients(ctx)
	require.NoError(t, err)
	assert.Empty(t, clients)

	for _, in := range []domain.ResultInput{
		{Artikul: "A-1", Client: "globex", Quantity: 1},
		{Artikul: "B-2", Client: "acme", Quantity: 1},
		{Artikul: "C-3", Client: "acme", Quantity: 1},
	} {
		_, err := store.UpsertResult(ctx, in)
		require.NoError(t, err)
	}

	clients, err = store.ListClients(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"acme", "globex"}, clients)
}
