/*
Package sqlite provides the SQLite-backed implementation of store.Store.

PURPOSE:
  Persists the three source feeds (flock batches, death records, feed bags)
  in SQLite. Nothing derived is stored - timelines and feed periods are
  recomputed from these tables on every report.

KEY TABLES:
  flock_batches: acquisition records with initial category counts
  death_records: per-batch losses by date
  feed_bags:     purchase records, depleted_at set once when emptied

MONEY AND DATES:
  Quantities and prices are stored as decimal strings (never REAL) so no
  precision is lost round-tripping through the database. Dates are stored
  as ISO "YYYY-MM-DD" strings, which sort correctly as TEXT.

WAL MODE:
  The database is opened with WAL for better read concurrency; a mutex
  serializes writes from this process.

USAGE:
  st, err := sqlite.New("./farm.db")   // ":memory:" for tests
  if err != nil { ... }
  defer st.Close()
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/coopledger/feedcost/feed"
	"github.com/coopledger/feedcost/flock"
	"github.com/coopledger/feedcost/store"
)

const dateFormat = "2006-01-02"

// Store implements store.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

var _ store.Store = (*Store)(nil)

// New opens (or creates) the database at path and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS flock_batches (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		acquired_at TEXT NOT NULL,
		hens INTEGER NOT NULL DEFAULT 0,
		roosters INTEGER NOT NULL DEFAULT 0,
		chicks INTEGER NOT NULL DEFAULT 0,
		brooding INTEGER NOT NULL DEFAULT 0,
		initial_count INTEGER NOT NULL DEFAULT 0,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_batches_acquired_at
		ON flock_batches(acquired_at);

	CREATE TABLE IF NOT EXISTS death_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		batch_id TEXT NOT NULL REFERENCES flock_batches(id),
		date TEXT NOT NULL,
		count INTEGER NOT NULL,
		cause TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_deaths_batch
		ON death_records(batch_id);
	CREATE INDEX IF NOT EXISTS idx_deaths_date
		ON death_records(date);

	CREATE TABLE IF NOT EXISTS feed_bags (
		id TEXT PRIMARY KEY,
		brand TEXT,
		type TEXT,
		quantity TEXT NOT NULL,
		unit TEXT,
		price_per_unit TEXT NOT NULL,
		total_cost TEXT NOT NULL,
		opened_at TEXT NOT NULL,
		depleted_at TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_bags_opened_at
		ON feed_bags(opened_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// FLOCK BATCHES
// =============================================================================

func (s *Store) CreateBatch(ctx context.Context, b flock.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO flock_batches
			(id, name, acquired_at, hens, roosters, chicks, brooding, initial_count, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Name, b.AcquiredAt.String(),
		b.Hens, b.Roosters, b.Chicks, b.Brooding, b.InitialCount,
		b.Active, time.Now().UTC().Format(time.RFC3339),
	)
	if isUniqueViolation(err) {
		return store.ErrDuplicateID
	}
	return err
}

func (s *Store) ListBatches(ctx context.Context) ([]flock.Batch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, acquired_at, hens, roosters, chicks, brooding, initial_count, active
		FROM flock_batches
		ORDER BY acquired_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []flock.Batch
	for rows.Next() {
		var b flock.Batch
		var acquired string
		if err := rows.Scan(&b.ID, &b.Name, &acquired,
			&b.Hens, &b.Roosters, &b.Chicks, &b.Brooding, &b.InitialCount, &b.Active); err != nil {
			return nil, err
		}
		if b.AcquiredAt, err = parseDate(acquired); err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

func (s *Store) DeactivateBatch(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE flock_batches SET active = FALSE WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// =============================================================================
// DEATH RECORDS
// =============================================================================

func (s *Store) CreateDeath(ctx context.Context, d flock.DeathRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO death_records (batch_id, date, count, cause, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		d.BatchID, d.Date.String(), d.Count, d.Cause,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) ListDeaths(ctx context.Context) ([]flock.DeathRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT batch_id, date, count, cause
		FROM death_records
		ORDER BY date, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deaths []flock.DeathRecord
	for rows.Next() {
		var d flock.DeathRecord
		var date string
		var cause sql.NullString
		if err := rows.Scan(&d.BatchID, &date, &d.Count, &cause); err != nil {
			return nil, err
		}
		if d.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		d.Cause = cause.String
		deaths = append(deaths, d)
	}
	return deaths, rows.Err()
}

// =============================================================================
// FEED BAGS
// =============================================================================

func (s *Store) CreateFeedBag(ctx context.Context, b feed.Bag) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var depleted any
	if b.DepletedAt != nil {
		depleted = b.DepletedAt.String()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO feed_bags
			(id, brand, type, quantity, unit, price_per_unit, total_cost, opened_at, depleted_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Brand, b.Type,
		b.Quantity.String(), b.Unit, b.PricePerUnit.String(), b.TotalCost.String(),
		b.OpenedAt.String(), depleted,
		time.Now().UTC().Format(time.RFC3339),
	)
	if isUniqueViolation(err) {
		return store.ErrDuplicateID
	}
	return err
}

func (s *Store) ListFeedBags(ctx context.Context) ([]feed.Bag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, brand, type, quantity, unit, price_per_unit, total_cost, opened_at, depleted_at
		FROM feed_bags
		ORDER BY opened_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bags []feed.Bag
	for rows.Next() {
		var b feed.Bag
		var brand, typ, unit sql.NullString
		var quantity, price, cost, opened string
		var depleted sql.NullString
		if err := rows.Scan(&b.ID, &brand, &typ, &quantity, &unit, &price, &cost, &opened, &depleted); err != nil {
			return nil, err
		}
		b.Brand, b.Type, b.Unit = brand.String, typ.String, unit.String
		if b.Quantity, err = decimal.NewFromString(quantity); err != nil {
			return nil, fmt.Errorf("feed bag %s: bad quantity %q: %w", b.ID, quantity, err)
		}
		if b.PricePerUnit, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("feed bag %s: bad price %q: %w", b.ID, price, err)
		}
		if b.TotalCost, err = decimal.NewFromString(cost); err != nil {
			return nil, fmt.Errorf("feed bag %s: bad total cost %q: %w", b.ID, cost, err)
		}
		if b.OpenedAt, err = parseDate(opened); err != nil {
			return nil, err
		}
		if depleted.Valid {
			at, err := parseDate(depleted.String)
			if err != nil {
				return nil, err
			}
			b.DepletedAt = &at
		}
		bags = append(bags, b)
	}
	return bags, rows.Err()
}

// MarkDepleted is the one mutation a feed bag sees in its life. A second
// call is rejected with ErrAlreadyDepleted.
func (s *Store) MarkDepleted(ctx context.Context, id string, at flock.TimePoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE feed_bags SET depleted_at = ? WHERE id = ? AND depleted_at IS NULL`,
		at.String(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	var exists int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM feed_bags WHERE id = ?`, id).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return store.ErrNotFound
	}
	return store.ErrAlreadyDepleted
}

func (s *Store) DeleteFeedBag(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM feed_bags WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// =============================================================================
// HELPERS
// =============================================================================

func parseDate(s string) (flock.TimePoint, error) {
	t, err := time.Parse(dateFormat, s)
	if err != nil {
		return flock.TimePoint{}, fmt.Errorf("bad stored date %q: %w", s, err)
	}
	return flock.FromTime(t), nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	// mattn/go-sqlite3 reports constraint failures in the error text.
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
