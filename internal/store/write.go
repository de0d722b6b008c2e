package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/combomirror/internal/ir"
)

// Change is one entry of the change log.
type Change struct {
	Seq    int64
	Table  string
	Key    string
	Value  ir.IRValue // ir.IRNull for deletes
	Digest string
}

// Deleted reports whether the change removed its key.
func (c Change) Deleted() bool {
	return ir.IsNull(c.Value)
}

// Put stores value under (table, key) and appends a change.
//
// If the stored entry already has the same digest nothing is written and
// changed is false. The returned Change then carries the existing seq.
// A nil or ir.IRNull value is rejected; use Delete.
func (s *Store) Put(ctx context.Context, table, key string, value ir.IRValue) (ch Change, changed bool, err error) {
	if ir.IsNull(value) {
		return Change{}, false, fmt.Errorf("put %s/%s: null value, use Delete", table, key)
	}

	digest, err := ir.EntryDigest(table, key, value)
	if err != nil {
		return Change{}, false, fmt.Errorf("put %s/%s: %w", table, key, err)
	}
	text, err := marshalValue(value)
	if err != nil {
		return Change{}, false, fmt.Errorf("put %s/%s: %w", table, key, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Change{}, false, fmt.Errorf("put %s/%s: begin tx: %w", table, key, err)
	}
	defer tx.Rollback() // No-op if committed

	var existingDigest string
	var existingSeq int64
	err = tx.QueryRowContext(ctx, `
		SELECT digest, seq FROM entries WHERE table_name = ? AND key = ?
	`, table, key).Scan(&existingDigest, &existingSeq)
	switch {
	case err == nil && existingDigest == digest:
		return Change{Seq: existingSeq, Table: table, Key: key, Value: value, Digest: digest}, false, nil
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return Change{}, false, fmt.Errorf("put %s/%s: read entry: %w", table, key, err)
	}

	seq, err := appendChange(ctx, tx, table, key, sql.NullString{String: text, Valid: true}, digest)
	if err != nil {
		return Change{}, false, fmt.Errorf("put %s/%s: %w", table, key, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO entries (table_name, key, value, digest, seq)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(table_name, key) DO UPDATE SET
			value = excluded.value,
			digest = excluded.digest,
			seq = excluded.seq
	`, table, key, text, digest, seq)
	if err != nil {
		return Change{}, false, fmt.Errorf("put %s/%s: write entry: %w", table, key, err)
	}

	if err := tx.Commit(); err != nil {
		return Change{}, false, fmt.Errorf("put %s/%s: commit: %w", table, key, err)
	}

	return Change{Seq: seq, Table: table, Key: key, Value: value, Digest: digest}, true, nil
}

// Delete removes (table, key) and appends a delete change. Deleting a
// missing key is a no-op and returns changed == false.
func (s *Store) Delete(ctx context.Context, table, key string) (ch Change, changed bool, err error) {
	digest, err := ir.EntryDigest(table, key, ir.IRNull{})
	if err != nil {
		return Change{}, false, fmt.Errorf("delete %s/%s: %w", table, key, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Change{}, false, fmt.Errorf("delete %s/%s: begin tx: %w", table, key, err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		DELETE FROM entries WHERE table_name = ? AND key = ?
	`, table, key)
	if err != nil {
		return Change{}, false, fmt.Errorf("delete %s/%s: %w", table, key, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return Change{}, false, fmt.Errorf("delete %s/%s: rows affected: %w", table, key, err)
	}
	if n == 0 {
		return Change{}, false, nil
	}

	seq, err := appendChange(ctx, tx, table, key, sql.NullString{}, digest)
	if err != nil {
		return Change{}, false, fmt.Errorf("delete %s/%s: %w", table, key, err)
	}

	if err := tx.Commit(); err != nil {
		return Change{}, false, fmt.Errorf("delete %s/%s: commit: %w", table, key, err)
	}

	return Change{Seq: seq, Table: table, Key: key, Value: ir.IRNull{}, Digest: digest}, true, nil
}

func appendChange(ctx context.Context, tx *sql.Tx, table, key string, value sql.NullString, digest string) (int64, error) {
	result, err := tx.ExecContext(ctx, `
		INSERT INTO changes (table_name, key, value, digest)
		VALUES (?, ?, ?, ?)
	`, table, key, value, digest)
	if err != nil {
		return 0, fmt.Errorf("append change: %w", err)
	}
	seq, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("append change: last insert id: %w", err)
	}
	return seq, nil
}
