// Package sqlitestore implements the results ledger on an embedded SQLite
// database. The pool runs every connection in WAL mode with a busy timeout,
// so concurrent readers proceed alongside a single writer and a blocked
// writer retries instead of failing. Connections are taken per operation and
// never cross goroutines.
package sqlitestore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gearledger/domain"
	"gearledger/service"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

const schema = `
CREATE TABLE IF NOT EXISTS results (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	artikul TEXT NOT NULL,
	artikul_key TEXT NOT NULL,
	client TEXT NOT NULL,
	client_key TEXT NOT NULL,
	quantity INTEGER NOT NULL DEFAULT 0,
	weight REAL NOT NULL DEFAULT 0,
	brand TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	sale_price REAL NOT NULL DEFAULT 0,
	total_price REAL NOT NULL DEFAULT 0,
	last_updated TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS results_key_idx ON results (artikul_key, client_key);
`

// resultColumns is the column order every row scan relies on.
const resultColumns = "id, artikul, client, quantity, weight, brand, description, sale_price, total_price, last_updated"

// Store implements interfaces.ResultStore over a SQLite connection pool.
type Store struct {
	pool   *sqlitex.Pool
	logger log.Logger
}

// Open opens (creating if needed) the database at path and prepares the
// schema. poolSize <= 0 defaults to 4.
func Open(ctx context.Context, path string, poolSize int, logger log.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlitestore: path is required")
	}
	if poolSize <= 0 {
		poolSize = 4
	}

	logger = log.WithPrefix(logger, "component", "sqlitestore")

	pool, err := sqlitex.NewPool(path, sqlitex.PoolOptions{
		PoolSize:    poolSize,
		PrepareConn: prepareConn,
	})
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: opening %s: %w", path, err)
	}

	s := &Store{pool: pool, logger: logger}

	conn, err := pool.Take(ctx)
	if err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("sqlitestore: take: %w", err)
	}
	defer pool.Put(conn)

	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("sqlitestore: creating schema: %w", err)
	}

	level.Info(logger).Log("msg", "store opened", "path", path, "pool_size", poolSize)
	return s, nil
}

// prepareConn applies the concurrency pragmas to every pooled connection.
func prepareConn(conn *sqlite.Conn) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("sqlitestore: %s: %w", pragma, err)
		}
	}
	return nil
}

// Close releases all pooled connections.
func (s *Store) Close() error {
	if err := s.pool.Close(); err != nil {
		return fmt.Errorf("sqlitestore: close: %w", err)
	}
	return nil
}

// UpsertResult merges the input into the row matching its normalized keys or
// inserts a new row. See interfaces.ResultStore for the merge rules.
func (s *Store) UpsertResult(ctx context.Context, in domain.ResultInput) (domain.Result, error) {
	if strings.TrimSpace(in.Artikul) == "" {
		return domain.Result{}, service.NewBadParameterError("artikul is required", nil)
	}
	if strings.TrimSpace(in.Client) == "" {
		return domain.Result{}, service.NewBadParameterError("client is required", nil)
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return domain.Result{}, service.NewInternalServerError("storage unavailable", err)
	}
	defer s.pool.Put(conn)

	artikulKey := service.NormalizeArtikul(in.Artikul)
	clientKey := service.NormalizeClient(in.Client)
	now := time.Now().UTC()

	var result domain.Result
	err = func() (err error) {
		defer sqlitex.Save(conn)(&err)

		var existing *domain.Result
		err = sqlitex.Execute(conn,
			"SELECT "+resultColumns+" FROM results WHERE artikul_key = ? AND client_key = ?",
			&sqlitex.ExecOptions{
				Args: []any{artikulKey, clientKey},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					row := scanResult(stmt)
					existing = &row
					return nil
				},
			})
		if err != nil {
			return err
		}

		if existing == nil {
			result = domain.Result{
				Artikul:     in.Artikul,
				Client:      in.Client,
				Quantity:    in.Quantity,
				Weight:      in.Weight,
				Brand:       in.Brand,
				Description: in.Description,
				SalePrice:   in.SalePrice,
				TotalPrice:  in.SalePrice * float64(in.Quantity),
				LastUpdated: now,
			}
			err = sqlitex.Execute(conn,
				`INSERT INTO results (artikul, artikul_key, client, client_key, quantity, weight, brand, description, sale_price, total_price, last_updated)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				&sqlitex.ExecOptions{Args: []any{
					in.Artikul, artikulKey, in.Client, clientKey,
					in.Quantity, in.Weight, in.Brand, in.Description,
					in.SalePrice, result.TotalPrice, now.Format(time.RFC3339Nano),
				}})
			if err != nil {
				return err
			}
			result.ID = conn.LastInsertRowID()
			return nil
		}

		merged := *existing
		merged.Quantity += in.Quantity
		if in.SalePrice > 0 {
			merged.SalePrice = in.SalePrice
		}
		if in.Brand != "" {
			merged.Brand = in.Brand
		}
		if in.Description != "" {
			merged.Description = in.Description
		}
		// Weight stays as inserted: the merge path accepts a weight and
		// discards it. Flagged for product clarification, do not change here.
		merged.TotalPrice = merged.SalePrice * float64(merged.Quantity)
		merged.LastUpdated = now

		err = sqlitex.Execute(conn,
			`UPDATE results SET quantity = ?, brand = ?, description = ?, sale_price = ?, total_price = ?, last_updated = ? WHERE id = ?`,
			&sqlitex.ExecOptions{Args: []any{
				merged.Quantity, merged.Brand, merged.Description,
				merged.SalePrice, merged.TotalPrice, now.Format(time.RFC3339Nano),
				merged.ID,
			}})
		if err != nil {
			return err
		}
		result = merged
		return nil
	}()
	if err != nil {
		return domain.Result{}, service.NewInternalServerError("storage upsert error", fmt.Errorf("upsert artikul %q client %q: %w", in.Artikul, in.Client, err))
	}

	return result, nil
}

// GetResult returns one row by surrogate id.
func (s *Store) GetResult(ctx context.Context, id int64) (domain.Result, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return domain.Result{}, service.NewInternalServerError("storage unavailable", err)
	}
	defer s.pool.Put(conn)

	var result domain.Result
	found := false
	err = sqlitex.Execute(conn,
		"SELECT "+resultColumns+" FROM results WHERE id = ?",
		&sqlitex.ExecOptions{
			Args: []any{id},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				result = scanResult(stmt)
				found = true
				return nil
			},
		})
	if err != nil {
		return domain.Result{}, service.NewInternalServerError("storage read error", err)
	}
	if !found {
		return domain.Result{}, service.NewEntityNotFoundError(fmt.Sprintf("result %d not found", id), nil)
	}
	return result, nil
}

// ListResults returns all rows ordered most-recently-updated first,
// optionally filtered by client (case-insensitive).
func (s *Store) ListResults(ctx context.Context, client string) ([]domain.Result, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, service.NewInternalServerError("storage unavailable", err)
	}
	defer s.pool.Put(conn)

	query := "SELECT " + resultColumns + " FROM results"
	var args []any
	if client != "" {
		query += " WHERE client_key = ?"
		args = append(args, service.NormalizeClient(client))
	}
	query += " ORDER BY last_updated DESC, id DESC"

	results := []domain.Result{}
	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			results = append(results, scanResult(stmt))
			return nil
		},
	})
	if err != nil {
		return nil, service.NewInternalServerError("storage list error", err)
	}
	return results, nil
}

// UpdateResult applies the sparse patch to the row with the given id. The
// SET clause is built only from the patch's non-nil allow-listed fields.
func (s *Store) UpdateResult(ctx context.Context, id int64, patch domain.ResultPatch) (domain.Result, error) {
	if patch.IsZero() {
		return domain.Result{}, service.NewBadParameterError("no updatable fields provided", nil)
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return domain.Result{}, service.NewInternalServerError("storage unavailable", err)
	}
	defer s.pool.Put(conn)

	var sets []string
	var args []any
	add := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}
	if patch.Artikul != nil {
		add("artikul", *patch.Artikul)
		add("artikul_key", service.NormalizeArtikul(*patch.Artikul))
	}
	if patch.Client != nil {
		add("client", *patch.Client)
		add("client_key", service.NormalizeClient(*patch.Client))
	}
	if patch.Quantity != nil {
		add("quantity", *patch.Quantity)
	}
	if patch.Weight != nil {
		add("weight", *patch.Weight)
	}
	if patch.Brand != nil {
		add("brand", *patch.Brand)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.SalePrice != nil {
		add("sale_price", *patch.SalePrice)
	}
	if patch.TotalPrice != nil {
		add("total_price", *patch.TotalPrice)
	}
	add("last_updated", time.Now().UTC().Format(time.RFC3339Nano))
	args = append(args, id)

	err = sqlitex.Execute(conn,
		"UPDATE results SET "+strings.Join(sets, ", ")+" WHERE id = ?",
		&sqlitex.ExecOptions{Args: args})
	if err != nil {
		return domain.Result{}, service.NewInternalServerError("storage update error", fmt.Errorf("update result %d: %w", id, err))
	}
	if conn.Changes() == 0 {
		return domain.Result{}, service.NewEntityNotFoundError(fmt.Sprintf("result %d not found", id), nil)
	}

	return s.GetResult(ctx, id)
}

// DeleteResult removes one row unconditionally.
func (s *Store) DeleteResult(ctx context.Context, id int64) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return service.NewInternalServerError("storage unavailable", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn, "DELETE FROM results WHERE id = ?", &sqlitex.ExecOptions{Args: []any{id}})
	if err != nil {
		return service.NewInternalServerError("storage delete error", err)
	}
	if conn.Changes() == 0 {
		return service.NewEntityNotFoundError(fmt.Sprintf("result %d not found", id), nil)
	}
	return nil
}

// ClearResults deletes all rows, optionally scoped to a client. Returns the
// number of rows deleted.
func (s *Store) ClearResults(ctx context.Context, client string) (int64, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, service.NewInternalServerError("storage unavailable", err)
	}
	defer s.pool.Put(conn)

	query := "DELETE FROM results"
	var args []any
	if client != "" {
		query += " WHERE client_key = ?"
		args = append(args, service.NormalizeClient(client))
	}

	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{Args: args})
	if err != nil {
		return 0, service.NewInternalServerError("storage clear error", err)
	}

	deleted := int64(conn.Changes())
	level.Debug(s.logger).Log("msg", "results cleared", "client", client, "deleted", deleted)
	return deleted, nil
}

// ListClients returns the distinct client names seen in storage.
func (s *Store) ListClients(ctx context.Context) ([]string, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, service.NewInternalServerError("storage unavailable", err)
	}
	defer s.pool.Put(conn)

	clients := []string{}
	err = sqlitex.Execute(conn,
		"SELECT DISTINCT client FROM results ORDER BY client",
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				clients = append(clients, stmt.ColumnText(0))
				return nil
			},
		})
	if err != nil {
		return nil, service.NewInternalServerError("storage list clients error", err)
	}
	return clients, nil
}

// scanResult reads one row in resultColumns order.
func scanResult(stmt *sqlite.Stmt) domain.Result {
	updated, _ := time.Parse(time.RFC3339Nano, stmt.ColumnText(9))
	return domain.Result{
		ID:          stmt.ColumnInt64(0),
		Artikul:     stmt.ColumnText(1),
		Client:      stmt.ColumnText(2),
		Quantity:    stmt.ColumnInt(3),
		Weight:      stmt.ColumnFloat(4),
		Brand:       stmt.ColumnText(5),
		Description: stmt.ColumnText(6),
		SalePrice:   stmt.ColumnFloat(7),
		TotalPrice:  stmt.ColumnFloat(8),
		LastUpdated: updated,
	}
}
