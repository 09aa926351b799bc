package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"

	"github.com/abdul-hamid-achik/hitpost/packages/collection"
	"github.com/abdul-hamid-achik/hitpost/packages/http"
)

// ErrNotFound is returned when no history item has the given id.
var ErrNotFound = errors.New("history item not found")

const schema = `
CREATE TABLE IF NOT EXISTS responses (
	id         TEXT PRIMARY KEY,
	request_id TEXT NOT NULL,
	timestamp  INTEGER NOT NULL,
	response   TEXT,
	error      TEXT
);
CREATE INDEX IF NOT EXISTS responses_request_id ON responses (request_id, timestamp);
`

// Item is one recorded execution. Exactly one of Response and Error is set.
type Item struct {
	ID        string         `json:"id"`
	RequestID string         `json:"request_id"`
	Timestamp int64          `json:"timestamp"` // Unix milliseconds
	Response  *http.Response `json:"response,omitempty"`
	Error     *http.Error    `json:"error,omitempty"`
}

// Time returns the timestamp as a time.Time.
func (i *Item) Time() time.Time {
	return time.UnixMilli(i.Timestamp)
}

// Store is a SQLite backed history log.
type Store struct {
	db  *sql.DB
	now func() time.Time
	ids func() string
}

// Open opens or creates the store. path may be a plain file path or use the
// sqlite:// or sqlite: prefixes.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := parseConnectionString(path)
	if dsn != ":memory:" {
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create history directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps :memory: databases alive between calls.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate history: %w", err)
	}

	return &Store{
		db:  db,
		now: time.Now,
		ids: func() string { return collection.GenerateID("response") },
	}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record stores the outcome of one execution. Non-*http.Error failures are
// recorded with their message.
func (s *Store) Record(ctx context.Context, requestID string, resp *http.Response, execErr error) (*Item, error) {
	item := &Item{
		ID:        s.ids(),
		RequestID: requestID,
		Timestamp: s.now().UnixMilli(),
		Response:  resp,
		Error:     http.AsError(execErr),
	}
	if item.Response == nil && item.Error == nil {
		return nil, errors.New("nothing to record")
	}

	respJSON, err := marshalNullable(item.Response)
	if err != nil {
		return nil, err
	}
	errJSON, err := marshalNullable(item.Error)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO responses (id, request_id, timestamp, response, error) VALUES (?, ?, ?, ?, ?)`,
		item.ID, item.RequestID, item.Timestamp, respJSON, errJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to record history: %w", err)
	}
	return item, nil
}

// List returns the newest items first. An empty requestID lists every
// request; limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, requestID string, limit int) ([]*Item, error) {
	query := `SELECT id, request_id, timestamp, response, error FROM responses`
	var args []any
	if requestID != "" {
		query += ` WHERE request_id = ?`
		args = append(args, requestID)
	}
	query += ` ORDER BY timestamp DESC, rowid DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return items, nil
}

// Get returns one item by id.
func (s *Store) Get(ctx context.Context, id string) (*Item, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, request_id, timestamp, response, error FROM responses WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return item, err
}

// Delete removes one item.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM responses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete history item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Clear removes the items of one request, or every item when requestID is
// empty. It returns the number of removed items.
func (s *Store) Clear(ctx context.Context, requestID string) (int64, error) {
	query := `DELETE FROM responses`
	var args []any
	if requestID != "" {
		query += ` WHERE request_id = ?`
		args = append(args, requestID)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to clear history: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (*Item, error) {
	var (
		item      Item
		respJSON  sql.NullString
		errorJSON sql.NullString
	)
	if err := row.Scan(&item.ID, &item.RequestID, &item.Timestamp, &respJSON, &errorJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}
	if respJSON.Valid {
		item.Response = &http.Response{}
		if err := json.Unmarshal([]byte(respJSON.String), item.Response); err != nil {
			return nil, fmt.Errorf("corrupt response for %s: %w", item.ID, err)
		}
	}
	if errorJSON.Valid {
		item.Error = &http.Error{}
		if err := json.Unmarshal([]byte(errorJSON.String), item.Error); err != nil {
			return nil, fmt.Errorf("corrupt error for %s: %w", item.ID, err)
		}
	}
	return &item, nil
}

func marshalNullable[T any](v *T) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// parseConnectionString strips the sqlite:// and sqlite: prefixes.
func parseConnectionString(connStr string) string {
	connStr = strings.TrimSpace(connStr)
	if rest, ok := strings.CutPrefix(connStr, "sqlite://"); ok {
		return rest
	}
	if rest, ok := strings.CutPrefix(connStr, "sqlite:"); ok {
		return rest
	}
	return connStr
}
