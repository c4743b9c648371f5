package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/nergy-se/dpils/pkg/price"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// timestamps are stored as naive local time, the same way the price page publishes them.
const timestampLayout = "2006-01-02 15:04"

type SQLiteRecorder struct {
	db       *sql.DB
	location *time.Location
	now      func() time.Time
	mu       sync.Mutex
}

// NewSQLiteRecorder opens or creates the database at path. Timestamps are
// interpreted in loc.
func NewSQLiteRecorder(path string, loc *time.Location) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("error setting WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, location: loc, now: time.Now}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error migrating sqlite: %w", err)
	}

	logrus.Infof("sqlite recorder opened: %s", path)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS prices (
			timestamp  TEXT PRIMARY KEY,
			price      TEXT NOT NULL,
			fetched_at INTEGER NOT NULL
		)`,
	}
	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// RecordPrices upserts points; a later fetch overwrites an earlier price for the same hour.
func (r *SQLiteRecorder) RecordPrices(points []price.Point) error {
	if len(points) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO prices (timestamp, price, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(timestamp) DO UPDATE SET price = excluded.price, fetched_at = excluded.fetched_at`)
	if err != nil {
		return fmt.Errorf("error preparing insert: %w", err)
	}
	defer stmt.Close()

	fetchedAt := r.now().Unix()
	for _, p := range points {
		_, err := stmt.Exec(p.Time.In(r.location).Format(timestampLayout), p.Price.String(), fetchedAt)
		if err != nil {
			return fmt.Errorf("error recording price for %s: %w", p.Time, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) Prices(from, to time.Time) ([]price.Point, error) {
	rows, err := r.db.Query(`SELECT timestamp, price FROM prices WHERE timestamp >= ? AND timestamp < ? ORDER BY timestamp`,
		from.In(r.location).Format(timestampLayout), to.In(r.location).Format(timestampLayout))
	if err != nil {
		return nil, fmt.Errorf("error querying prices: %w", err)
	}
	defer rows.Close()

	var points []price.Point
	for rows.Next() {
		var ts, p string
		if err := rows.Scan(&ts, &p); err != nil {
			return nil, err
		}
		t, err := time.ParseInLocation(timestampLayout, ts, r.location)
		if err != nil {
			return nil, fmt.Errorf("error parsing stored timestamp %q: %w", ts, err)
		}
		d, err := decimal.NewFromString(p)
		if err != nil {
			return nil, fmt.Errorf("error parsing stored price %q: %w", p, err)
		}
		points = append(points, price.Point{Time: t, Price: d})
	}
	return points, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
