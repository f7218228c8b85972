package interfaces

import (
	"context"

	"gearledger/domain"
)

// ResultStore is the embedded results ledger.
//
//go:generate moq -stub -out mock/store.go -pkg mock . ResultStore
type ResultStore interface {
	// UpsertResult merges the input into the row matching its normalized
	// artikul and case-insensitive client, or inserts a new row.
	// Merge rules: quantity accumulates; sale_price is replaced only when
	// the incoming value is > 0; brand/description are replaced only when
	// non-empty; weight is set at insert time and never changed on merge;
	// total_price is recomputed from the effective price and new quantity.
	// Returns:
	// 1) (merged row, nil) on success;
	// 2) (zero, bad_parameter) when artikul or client is empty;
	// 3) (zero, internal_server_error) on a storage failure.
	UpsertResult(ctx context.Context, in domain.ResultInput) (domain.Result, error)

	// GetResult returns the row with the given surrogate id.
	// Returns (zero, entity_not_found) when no such row exists.
	GetResult(ctx context.Context, id int64) (domain.Result, error)

	// ListResults returns all rows ordered most-recently-updated first,
	// optionally filtered by client (case-insensitive). Empty client means
	// no filter. An empty ledger yields an empty slice, not an error.
	ListResults(ctx context.Context, client string) ([]domain.Result, error)

	// UpdateResult applies a sparse patch to the row with the given id.
	// Only the patch's allow-listed fields can change; nil fields are left
	// untouched. Returns the updated row, or entity_not_found.
	UpdateResult(ctx context.Context, id int64, patch domain.ResultPatch) (domain.Result, error)

	// DeleteResult removes the row with the given id unconditionally.
	// Returns entity_not_found when no such row exists.
	DeleteResult(ctx context.Context, id int64) error

	// ClearResults deletes all rows, optionally scoped to a client
	// (case-insensitive). Returns the number of rows deleted.
	ClearResults(ctx context.Context, client string) (int64, error)

	// ListClients returns the distinct client names seen in storage,
	// ordered alphabetically.
	ListClients(ctx context.Context) ([]string, error)

	// Close releases all storage connections.
	Close() error
}
