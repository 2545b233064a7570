// Package history implements the historical-series adapter: a SQLite-backed
// price store, the fetch contract the analytics core consumes, and the
// background job that keeps the store current.
package history

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/rs/zerolog"
)

// Store provides access to historical daily price data
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewStore creates a new price store on an open database connection
func NewStore(db *sql.DB, log zerolog.Logger) *Store {
	return &Store{
		db:  db,
		log: log.With().Str("component", "price_store").Logger(),
	}
}

// Open opens (or creates) the price database under dataDir and ensures the schema.
func Open(dataDir string, log zerolog.Logger) (*Store, *sql.DB, error) {
	path := filepath.Join(dataDir, "history.db")
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open history database: %w", err)
	}

	store := NewStore(db, log)
	if err := store.InitSchema(); err != nil {
		db.Close()
		return nil, nil, err
	}
	return store, db, nil
}

// InitSchema creates the price tables if they do not exist
func (s *Store) InitSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS daily_prices (
			symbol TEXT NOT NULL,
			date INTEGER NOT NULL,
			open REAL,
			high REAL,
			low REAL,
			close REAL NOT NULL,
			volume INTEGER,
			PRIMARY KEY (symbol, date)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create daily_prices table: %w", err)
	}

	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS calc_cache (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			expires_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create calc_cache table: %w", err)
	}
	return nil
}

// DailyPrice represents a daily OHLCV price point
type DailyPrice struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume *int64    `json:"volume,omitempty"`
}

// GetRecentPrices fetches daily prices for a symbol from the last N days,
// ordered by date ascending.
func (s *Store) GetRecentPrices(symbol string, days int) ([]DailyPrice, error) {
	if days <= 0 {
		return []DailyPrice{}, nil
	}

	cutoff := time.Now().AddDate(0, 0, -days).Unix()

	query := `
		SELECT date, open, high, low, close, volume
		FROM daily_prices
		WHERE symbol = ? AND date >= ?
		ORDER BY date ASC
	`

	rows, err := s.db.Query(query, symbol, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent prices: %w", err)
	}
	defer rows.Close()

	return scanPrices(rows)
}

// GetDailyPrices fetches up to limit most recent daily prices for a symbol,
// ordered by date ascending. limit <= 0 means no limit.
func (s *Store) GetDailyPrices(symbol string, limit int) ([]DailyPrice, error) {
	query := `
		SELECT date, open, high, low, close, volume
		FROM daily_prices
		WHERE symbol = ?
		ORDER BY date DESC
	`
	args := []interface{}{symbol}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily prices: %w", err)
	}
	defer rows.Close()

	prices, err := scanPrices(rows)
	if err != nil {
		return nil, err
	}

	// Reverse to ascending order
	for i, j := 0, len(prices)-1; i < j; i, j = i+1, j-1 {
		prices[i], prices[j] = prices[j], prices[i]
	}
	return prices, nil
}

// UpsertDailyClose inserts or updates the close for a symbol on a given day.
// The date is truncated to midnight UTC so one row exists per trading day.
func (s *Store) UpsertDailyClose(symbol string, date time.Time, close float64) error {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC).Unix()

	_, err := s.db.Exec(`
		INSERT INTO daily_prices (symbol, date, close)
		VALUES (?, ?, ?)
		ON CONFLICT(symbol, date) DO UPDATE SET
			close = excluded.close
	`, symbol, day, close)
	if err != nil {
		return fmt.Errorf("failed to upsert daily close: %w", err)
	}
	return nil
}

// CountSymbols returns the number of distinct symbols in the store
func (s *Store) CountSymbols() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(DISTINCT symbol) FROM daily_prices").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count symbols: %w", err)
	}
	return count, nil
}

// LatestDate returns the most recent price date in the store, or zero time
// when the store is empty.
func (s *Store) LatestDate() (time.Time, error) {
	var latest sql.NullInt64
	err := s.db.QueryRow("SELECT MAX(date) FROM daily_prices").Scan(&latest)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query latest date: %w", err)
	}
	if !latest.Valid {
		return time.Time{}, nil
	}
	return time.Unix(latest.Int64, 0).UTC(), nil
}

func scanPrices(rows *sql.Rows) ([]DailyPrice, error) {
	var prices []DailyPrice
	for rows.Next() {
		var p DailyPrice
		var dateUnix int64
		var open, high, low sql.NullFloat64
		var volume sql.NullInt64

		if err := rows.Scan(&dateUnix, &open, &high, &low, &p.Close, &volume); err != nil {
			return nil, fmt.Errorf("failed to scan daily price: %w", err)
		}

		p.Date = time.Unix(dateUnix, 0).UTC()
		if open.Valid {
			p.Open = open.Float64
		}
		if high.Valid {
			p.High = high.Float64
		}
		if low.Valid {
			p.Low = low.Float64
		}
		if volume.Valid {
			p.Volume = &volume.Int64
		}

		prices = append(prices, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily prices: %w", err)
	}
	return prices, nil
}
