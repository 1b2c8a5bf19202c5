package symbols

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/etnz/fins"
	"github.com/etnz/fins/date"
)

const schema = `
CREATE TABLE IF NOT EXISTS symbols (
	symbol      TEXT PRIMARY KEY,
	ref         BLOB NOT NULL,
	valid_until TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_symbols_valid_until ON symbols(valid_until);
`

// Cache persists resolved symbols in a sqlite database.
type Cache struct {
	db  *sql.DB
	log zerolog.Logger
}

// record is the msgpack encoded part of a SymbolRef.
type record struct {
	Ticker       string         `msgpack:"ticker"`
	Exchange     string         `msgpack:"exchange,omitempty"`
	Name         string         `msgpack:"name,omitempty"`
	Type         string         `msgpack:"type,omitempty"`
	RefExchange  string         `msgpack:"ref_exchange,omitempty"`
	Currency     string         `msgpack:"currency,omitempty"`
	Country      string         `msgpack:"country,omitempty"`
	Sector       string         `msgpack:"sector,omitempty"`
	Industry     string         `msgpack:"industry,omitempty"`
	ISIN         string         `msgpack:"isin,omitempty"`
	Fundamentals map[string]any `msgpack:"fundamentals,omitempty"`
}

// OpenCache opens (or creates) the cache database at path.
func OpenCache(path string, log zerolog.Logger) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open symbol cache: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping symbol cache: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create symbol cache schema: %w", err)
	}
	return &Cache{db: db, log: log.With().Str("component", "symbols").Logger()}, nil
}

// Close closes the database.
func (c *Cache) Close() error { return c.db.Close() }

// Get returns the cached ref of sym, if any and still valid on day.
func (c *Cache) Get(ctx context.Context, sym fins.Symbol, day date.Date) (*fins.SymbolRef, bool, error) {
	var blob []byte
	var until string
	err := c.db.QueryRowContext(ctx, `SELECT ref, valid_until FROM symbols WHERE symbol = ?`, sym.String()).Scan(&blob, &until)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cannot read %s from symbol cache: %w", sym, err)
	}
	validUntil, err := date.Parse(until)
	if err != nil {
		return nil, false, fmt.Errorf("invalid validity of %s in symbol cache: %w", sym, err)
	}
	var rec record
	if err := msgpack.Unmarshal(blob, &rec); err != nil {
		return nil, false, fmt.Errorf("invalid %s in symbol cache: %w", sym, err)
	}
	ref := &fins.SymbolRef{
		Symbol:       fins.Symbol{Ticker: rec.Ticker, Exchange: rec.Exchange},
		Name:         rec.Name,
		Type:         rec.Type,
		Exchange:     rec.RefExchange,
		Currency:     rec.Currency,
		Country:      rec.Country,
		Sector:       rec.Sector,
		Industry:     rec.Industry,
		ISIN:         rec.ISIN,
		ValidUntil:   validUntil,
		Fundamentals: rec.Fundamentals,
	}
	if ref.Expired(day) {
		return nil, false, nil
	}
	return ref, true, nil
}

// Put stores ref, replacing any previous entry.
func (c *Cache) Put(ctx context.Context, ref *fins.SymbolRef) error {
	blob, err := msgpack.Marshal(record{
		Ticker:       ref.Symbol.Ticker,
		Exchange:     ref.Symbol.Exchange,
		Name:         ref.Name,
		Type:         ref.Type,
		RefExchange:  ref.Exchange,
		Currency:     ref.Currency,
		Country:      ref.Country,
		Sector:       ref.Sector,
		Industry:     ref.Industry,
		ISIN:         ref.ISIN,
		Fundamentals: ref.Fundamentals,
	})
	if err != nil {
		return fmt.Errorf("cannot encode %s: %w", ref.Symbol, err)
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO symbols (symbol, ref, valid_until) VALUES (?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET ref = excluded.ref, valid_until = excluded.valid_until`,
		ref.Symbol.String(), blob, ref.ValidUntil.String())
	if err != nil {
		return fmt.Errorf("cannot write %s to symbol cache: %w", ref.Symbol, err)
	}
	return nil
}

// Purge deletes the entries expired on day and returns how many were removed.
func (c *Cache) Purge(ctx context.Context, day date.Date) (int64, error) {
	// dates are stored as YYYY-MM-DD so they compare as text
	res, err := c.db.ExecContext(ctx, `DELETE FROM symbols WHERE valid_until < ?`, day.String())
	if err != nil {
		return 0, fmt.Errorf("cannot purge symbol cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	c.log.Info().Int64("deleted", n).Msg("symbol cache purged")
	return n, nil
}
