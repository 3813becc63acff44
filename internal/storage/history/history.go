// Package history records executed trades and administrative finalizations in
// a SQL database. It is fed asynchronously through event hooks; the ledger
// never waits on it.
package history

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/enerledger/gocertd/internal/events"
)

// ErrNotFound is returned when no history row matches.
var ErrNotFound = errors.New("history: not found")

// Trade is one executed settlement.
type Trade struct {
	OrderID      string    `json:"order_id"`
	Buyer        string    `json:"buyer"`
	Seller       string    `json:"seller"`
	Price        uint64    `json:"price"`
	EnergyAmount uint64    `json:"energy_amount"`
	ExecutedAt   time.Time `json:"executed_at"`
}

// Finalization is one administrative order finalization.
type Finalization struct {
	OrderID       string    `json:"order_id"`
	CertificateID string    `json:"certificate_id"`
	FinalizedAt   time.Time `json:"finalized_at"`
}

// Store is the SQL-backed history store. Supported drivers are "sqlite"
// (modernc.org/sqlite, the default) and "postgres" (lib/pq).
type Store struct {
	db     *sql.DB
	driver string
	cache  *lru.Cache[string, Trade]
	now    func() time.Time
}

// Open connects to the history database and runs migrations. cacheSize bounds
// the per-order trade lookup cache; values below 1 fall back to 1024.
func Open(driver, dsn string, cacheSize int) (*Store, error) {
	if driver == "" {
		driver = "sqlite"
	}
	if driver != "sqlite" && driver != "postgres" {
		return nil, fmt.Errorf("unsupported history driver %q", driver)
	}
	if cacheSize < 1 {
		cacheSize = 1024
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	if driver == "sqlite" {
		// sqlite allows a single writer; serializing the pool avoids
		// SQLITE_BUSY under concurrent hook delivery.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping history database: %w", err)
	}

	cache, err := lru.New[string, Trade](cacheSize)
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db, driver: driver, cache: cache, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history database: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS trades (
			id            BIGSERIAL PRIMARY KEY,
			order_id      TEXT NOT NULL,
			buyer         TEXT NOT NULL,
			seller        TEXT NOT NULL,
			price         BIGINT NOT NULL,
			energy_amount BIGINT NOT NULL,
			executed_at   TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS trades_order_id ON trades (order_id)`,
		`CREATE TABLE IF NOT EXISTS finalizations (
			id             BIGSERIAL PRIMARY KEY,
			order_id       TEXT NOT NULL,
			certificate_id TEXT NOT NULL,
			finalized_at   TIMESTAMP NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if s.driver == "sqlite" {
			stmt = strings.ReplaceAll(stmt, "BIGSERIAL PRIMARY KEY", "INTEGER PRIMARY KEY AUTOINCREMENT")
		}
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *Store) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// RecordTrade appends an executed trade.
func (s *Store) RecordTrade(trade events.TradeExecuted) error {
	executedAt := s.now().UTC()
	_, err := s.db.Exec(
		s.rebind(`INSERT INTO trades (order_id, buyer, seller, price, energy_amount, executed_at)
			VALUES (?, ?, ?, ?, ?, ?)`),
		trade.OrderID, trade.Buyer, trade.Seller,
		int64(trade.Price), int64(trade.EnergyAmount), executedAt,
	)
	if err != nil {
		return fmt.Errorf("record trade for order %s: %w", trade.OrderID, err)
	}

	s.cache.Add(trade.OrderID, Trade{
		OrderID:      trade.OrderID,
		Buyer:        trade.Buyer,
		Seller:       trade.Seller,
		Price:        trade.Price,
		EnergyAmount: trade.EnergyAmount,
		ExecutedAt:   executedAt,
	})
	return nil
}

// RecordFinalization appends an administrative finalization.
func (s *Store) RecordFinalization(fin events.OrderFinalized) error {
	_, err := s.db.Exec(
		s.rebind(`INSERT INTO finalizations (order_id, certificate_id, finalized_at)
			VALUES (?, ?, ?)`),
		fin.OrderID, fin.CertificateID, s.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("record finalization for order %s: %w", fin.OrderID, err)
	}
	return nil
}

// TradeByOrder returns the trade that settled the given order. Recent trades
// are served from the cache without touching the database.
func (s *Store) TradeByOrder(orderID string) (Trade, error) {
	if trade, ok := s.cache.Get(orderID); ok {
		return trade, nil
	}

	row := s.db.QueryRow(
		s.rebind(`SELECT order_id, buyer, seller, price, energy_amount, executed_at
			FROM trades WHERE order_id = ? ORDER BY id DESC LIMIT 1`),
		orderID,
	)

	var trade Trade
	var price, energy int64
	err := row.Scan(&trade.OrderID, &trade.Buyer, &trade.Seller, &price, &energy, &trade.ExecutedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Trade{}, ErrNotFound
	}
	if err != nil {
		return Trade{}, err
	}
	trade.Price = uint64(price)
	trade.EnergyAmount = uint64(energy)

	s.cache.Add(orderID, trade)
	return trade, nil
}

// RecentTrades returns the most recent trades, newest first.
func (s *Store) RecentTrades(limit int) ([]Trade, error) {
	if limit < 1 {
		limit = 50
	}

	rows, err := s.db.Query(
		s.rebind(`SELECT order_id, buyer, seller, price, energy_amount, executed_at
			FROM trades ORDER BY id DESC LIMIT ?`),
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []Trade
	for rows.Next() {
		var trade Trade
		var price, energy int64
		if err := rows.Scan(&trade.OrderID, &trade.Buyer, &trade.Seller, &price, &energy, &trade.ExecutedAt); err != nil {
			return nil, err
		}
		trade.Price = uint64(price)
		trade.EnergyAmount = uint64(energy)
		trades = append(trades, trade)
	}
	return trades, rows.Err()
}

// Hooks returns event hooks that feed this store. Hook errors are logged, not
// propagated: history is an observer of the ledger, never a gatekeeper.
func (s *Store) Hooks() *events.Hooks {
	return &events.Hooks{
		OnTradeExecuted: func(trade events.TradeExecuted) {
			if err := s.RecordTrade(trade); err != nil {
				log.Printf("history: %v", err)
			}
		},
		OnOrderFinalized: func(fin events.OrderFinalized) {
			if err := s.RecordFinalization(fin); err != nil {
				log.Printf("history: %v", err)
			}
		},
	}
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
