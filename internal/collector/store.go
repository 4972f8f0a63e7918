package collector

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"LevelSentinel/internal/model"
)

// Store persists the last-known-good series per (symbol, interval) to a
// SQLite database so a restarted process starts with a warm fallback
// map. The cache proper is never persisted; only fallback entries are.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// OpenStore opens (or creates) the SQLite database and runs migrations.
func OpenStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] fallback store opened: %s", dbPath)
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS fallback_series (
		symbol     TEXT NOT NULL,
		interval   TEXT NOT NULL,
		fetched_at INTEGER NOT NULL,
		bars       TEXT NOT NULL,
		PRIMARY KEY (symbol, interval)
	)`)
	return err
}

// storedBar is the on-disk bar representation.
type storedBar struct {
	Time   int64   `json:"t"` // unix seconds, UTC
	Open   float64 `json:"o"`
	High   float64 `json:"h"`
	Low    float64 `json:"l"`
	Close  float64 `json:"c"`
	Volume float64 `json:"v"`
}

// Save upserts the series as the persisted fallback for its key.
func (s *Store) Save(series model.BarSeries) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]storedBar, len(series.Bars))
	for i, b := range series.Bars {
		rows[i] = storedBar{
			Time:   b.Time.Unix(),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		}
	}
	blob, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode bars: %w", err)
	}

	_, err = s.db.Exec(`INSERT INTO fallback_series (symbol, interval, fetched_at, bars)
		VALUES (?,?,?,?)
		ON CONFLICT(symbol, interval) DO UPDATE SET
			fetched_at = excluded.fetched_at,
			bars = excluded.bars`,
		series.Symbol, series.Interval, series.FetchedAt.Unix(), string(blob))
	return err
}

// Load reads the persisted fallback series for a key.
func (s *Store) Load(symbol, interval string) (model.BarSeries, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var fetchedAt int64
	var blob string
	err := s.db.QueryRow(`SELECT fetched_at, bars FROM fallback_series
		WHERE symbol = ? AND interval = ?`, symbol, interval).Scan(&fetchedAt, &blob)
	if err != nil {
		return model.BarSeries{}, err
	}

	var rows []storedBar
	if err := json.Unmarshal([]byte(blob), &rows); err != nil {
		return model.BarSeries{}, fmt.Errorf("decode bars: %w", err)
	}

	bars := make([]model.Bar, len(rows))
	for i, r := range rows {
		bars[i] = model.Bar{
			Time:   time.Unix(r.Time, 0).UTC(),
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		}
	}
	return model.BarSeries{
		Symbol:    symbol,
		Interval:  interval,
		Bars:      bars,
		FetchedAt: time.Unix(fetchedAt, 0).UTC(),
	}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	log.Println("[INFO] closing fallback store")
	return s.db.Close()
}
