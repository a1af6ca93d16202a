package postgres

import (
	"context"

	"github.com/pkg/errors"

	"github.com/finchbot/finch/store"
)

// kindTable maps a record kind to its backing table.
func kindTable(kind store.RecordKind) (string, error) {
	switch kind {
	case store.RecordKindMessage:
		return "chat_message", nil
	case store.RecordKindKnowledge:
		return "knowledge_entry", nil
	case store.RecordKindMemory:
		return "user_memory", nil
	default:
		return "", errors.Errorf("unknown record kind: %s", kind)
	}
}

func (d *DB) AttachEmbedding(ctx context.Context, kind store.RecordKind, id int64, embedding []float32) error {
	if len(embedding) == 0 {
		return errors.New("embedding is empty")
	}
	table, err := kindTable(kind)
	if err != nil {
		return err
	}

	// Attached embeddings are immutable; re-attachment is a no-op so
	// the backfill runner can retry batches safely.
	stmt := `UPDATE ` + table + ` SET embedding = $1 WHERE id = $2 AND embedding IS NULL`
	if _, err := d.db.ExecContext(ctx, stmt, encodeVector(embedding), id); err != nil {
		return errors.Wrapf(err, "failed to attach embedding to %s %d", table, id)
	}
	return nil
}

func (d *DB) ListPendingEmbeddings(ctx context.Context, kind store.RecordKind, limit int) ([]*store.PendingEmbedding, error) {
	table, err := kindTable(kind)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT id, content FROM ` + table + ` WHERE embedding IS NULL ORDER BY id ASC LIMIT $1`
	rows, err := d.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list pending embeddings for %s", table)
	}
	defer rows.Close()

	list := []*store.PendingEmbedding{}
	for rows.Next() {
		pending := &store.PendingEmbedding{Kind: kind}
		if err := rows.Scan(&pending.ID, &pending.Content); err != nil {
			return nil, errors.Wrap(err, "failed to scan pending embedding")
		}
		list = append(list, pending)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}
