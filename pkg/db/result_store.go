package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"dbbs/pkg/domain"
)

var ErrDBNotConnected = errors.New("postgres DB not connected")

// ResultStore writes parse results into the parse_run, episode and bit tables
// of any Postgres-compatible database.
type ResultStore struct {
	provider DBProvider
	name     string
}

func NewResultStore(provider DBProvider, name string) *ResultStore {
	return &ResultStore{provider: provider, name: name}
}

func (s *ResultStore) Name() string {
	return s.name
}

// Episodes and bits are keyed by their position in the run, since the
// glossary does not guarantee unique episode numbers.
const resultSchema = `
CREATE TABLE IF NOT EXISTS parse_run (
  timestamp TEXT PRIMARY KEY,
  key TEXT NOT NULL,
  document JSONB NOT NULL,
  saved_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS episode (
  run_timestamp TEXT NOT NULL REFERENCES parse_run (timestamp) ON DELETE CASCADE,
  position INTEGER NOT NULL,
  num INTEGER NOT NULL,
  name TEXT NOT NULL,
  stream_link TEXT,
  PRIMARY KEY (run_timestamp, position)
);
CREATE TABLE IF NOT EXISTS bit (
  run_timestamp TEXT NOT NULL REFERENCES parse_run (timestamp) ON DELETE CASCADE,
  position INTEGER NOT NULL,
  episode INTEGER NOT NULL,
  name TEXT NOT NULL,
  alt_name TEXT,
  time_code_hrs INTEGER,
  time_code_mins INTEGER,
  time_code_secs INTEGER,
  is_history_road BOOLEAN NOT NULL DEFAULT false,
  is_legendary BOOLEAN NOT NULL DEFAULT false,
  links JSONB NOT NULL DEFAULT '[]',
  PRIMARY KEY (run_timestamp, position)
);`

// EnsureSchema creates the result tables if they do not exist.
func (s *ResultStore) EnsureSchema(ctx context.Context) error {
	db := s.provider.DB()
	if db == nil {
		return ErrDBNotConnected
	}
	if _, err := db.ExecContext(ctx, resultSchema); err != nil {
		return fmt.Errorf("create result tables: %w", err)
	}
	return nil
}

// Save implements the storage sink contract.
func (s *ResultStore) Save(ctx context.Context, key string, result *domain.ParseResult, data []byte) error {
	if err := s.EnsureSchema(ctx); err != nil {
		return err
	}
	_, err := s.SaveParseResult(ctx, key, result, data)
	return err
}

// SaveParseResult inserts the run and its rows in one transaction. A run
// whose timestamp is already stored is left untouched and reports false.
func (s *ResultStore) SaveParseResult(ctx context.Context, key string, result *domain.ParseResult, data []byte) (bool, error) {
	db := s.provider.DB()
	if db == nil {
		return false, ErrDBNotConnected
	}
	if result == nil || result.Timestamp == nil {
		return false, fmt.Errorf("save parse result %s: missing timestamp", key)
	}
	if data == nil {
		var err error
		if data, err = json.Marshal(result); err != nil {
			return false, fmt.Errorf("encode parse result: %w", err)
		}
	}

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO parse_run (timestamp, key, document) VALUES ($1, $2, $3) ON CONFLICT (timestamp) DO NOTHING`,
		*result.Timestamp, key, string(data))
	if err != nil {
		return false, fmt.Errorf("insert parse_run %s: %w", key, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return false, nil
	}

	if err := insertEpisodes(ctx, tx, *result.Timestamp, result.Episodes); err != nil {
		return false, err
	}
	if err := insertBits(ctx, tx, *result.Timestamp, result.Bits); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}

func insertEpisodes(ctx context.Context, tx *sql.Tx, ts string, episodes []domain.Episode) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO episode (run_timestamp, position, num, name, stream_link) VALUES ($1, $2, $3, $4, $5)`)
	if err != nil {
		return fmt.Errorf("prepare episode insert: %w", err)
	}
	defer stmt.Close()

	for i, ep := range episodes {
		if _, err := stmt.ExecContext(ctx, ts, i, ep.Num, ep.Name, nullString(ep.StreamLink)); err != nil {
			return fmt.Errorf("insert episode %d: %w", ep.Num, err)
		}
	}
	return nil
}

func insertBits(ctx context.Context, tx *sql.Tx, ts string, bits []domain.Bit) error {
	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO bit (run_timestamp, position, episode, name, alt_name,
  time_code_hrs, time_code_mins, time_code_secs, is_history_road, is_legendary, links)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`)
	if err != nil {
		return fmt.Errorf("prepare bit insert: %w", err)
	}
	defer stmt.Close()

	for i, b := range bits {
		var hrs, mins, secs sql.NullInt64
		if b.TimeCode != nil {
			hrs = sql.NullInt64{Int64: int64(b.TimeCode.Hrs), Valid: true}
			mins = sql.NullInt64{Int64: int64(b.TimeCode.Mins), Valid: true}
			secs = sql.NullInt64{Int64: int64(b.TimeCode.Secs), Valid: true}
		}
		links, err := json.Marshal(nonNil(b.Links))
		if err != nil {
			return fmt.Errorf("encode links for bit %q: %w", b.Name, err)
		}
		if _, err := stmt.ExecContext(ctx, ts, i, b.Episode, b.Name, nullString(b.AltName),
			hrs, mins, secs, b.IsHistoryRoad, b.IsLegendary, string(links)); err != nil {
			return fmt.Errorf("insert bit %q: %w", b.Name, err)
		}
	}
	return nil
}

// ExistingTimestamps reports which of timestamps already have a parse_run row.
func (s *ResultStore) ExistingTimestamps(ctx context.Context, timestamps []string) (map[string]bool, error) {
	db := s.provider.DB()
	if db == nil {
		return nil, ErrDBNotConnected
	}
	set := make(map[string]bool)
	if len(timestamps) == 0 {
		return set, nil
	}

	query, args := buildInQuery(`SELECT timestamp FROM parse_run WHERE timestamp IN (`, timestamps)
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query existing runs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ts string
		if err := rows.Scan(&ts); err != nil {
			return nil, fmt.Errorf("scan timestamp: %w", err)
		}
		set[ts] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return set, nil
}

func buildInQuery(prefix string, values []string) (string, []interface{}) {
	var b strings.Builder
	b.WriteString(prefix)
	args := make([]interface{}, len(values))
	for i, v := range values {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "$%d", i+1)
		args[i] = v
	}
	b.WriteString(")")
	return b.String(), args
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nonNil(links []string) []string {
	if links == nil {
		return []string{}
	}
	return links
}
