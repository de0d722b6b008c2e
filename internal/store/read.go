package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/combomirror/internal/ir"
)

// Get returns the current value of (table, key). found is false when the
// key has never been written or was deleted.
func (s *Store) Get(ctx context.Context, table, key string) (value ir.IRValue, found bool, err error) {
	var text string
	err = s.db.QueryRowContext(ctx, `
		SELECT value FROM entries WHERE table_name = ? AND key = ?
	`, table, key).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s/%s: %w", table, key, err)
	}

	value, err = unmarshalValue(text)
	if err != nil {
		return nil, false, fmt.Errorf("get %s/%s: %w", table, key, err)
	}
	return value, true, nil
}

// Snapshot returns every entry of table. The map is empty, not nil, for an
// unknown table.
func (s *Store) Snapshot(ctx context.Context, table string) (map[string]ir.IRValue, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, value FROM entries
		WHERE table_name = ?
		ORDER BY key COLLATE BINARY ASC
	`, table)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", table, err)
	}
	defer rows.Close()

	entries := make(map[string]ir.IRValue)
	for rows.Next() {
		var key, text string
		if err := rows.Scan(&key, &text); err != nil {
			return nil, fmt.Errorf("snapshot %s: scan: %w", table, err)
		}
		v, err := unmarshalValue(text)
		if err != nil {
			return nil, fmt.Errorf("snapshot %s/%s: %w", table, key, err)
		}
		entries[key] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("snapshot %s: iterate: %w", table, err)
	}
	return entries, nil
}

// Tables returns the names of tables with at least one entry, in order.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT table_name FROM entries
		ORDER BY table_name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("tables: %w", err)
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("tables: scan: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tables: iterate: %w", err)
	}
	return tables, nil
}

// ChangesSince returns every change with seq > after, oldest first.
// Returns an empty slice (not nil) when there is nothing newer.
func (s *Store) ChangesSince(ctx context.Context, after int64) ([]Change, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, table_name, key, value, digest
		FROM changes
		WHERE seq > ?
		ORDER BY seq ASC
	`, after)
	if err != nil {
		return nil, fmt.Errorf("changes since %d: %w", after, err)
	}
	defer rows.Close()

	changes := []Change{}
	for rows.Next() {
		var ch Change
		var text sql.NullString
		if err := rows.Scan(&ch.Seq, &ch.Table, &ch.Key, &text, &ch.Digest); err != nil {
			return nil, fmt.Errorf("changes since %d: scan: %w", after, err)
		}
		if text.Valid {
			ch.Value, err = unmarshalValue(text.String)
			if err != nil {
				return nil, fmt.Errorf("change %d: %w", ch.Seq, err)
			}
		} else {
			ch.Value = ir.IRNull{}
		}
		changes = append(changes, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("changes since %d: iterate: %w", after, err)
	}
	return changes, nil
}
