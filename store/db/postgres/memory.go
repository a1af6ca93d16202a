package postgres

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/finchbot/finch/store"
)

func (d *DB) CreateUserMemory(ctx context.Context, create *store.UserMemory) (*store.UserMemory, error) {
	stmt := `
		INSERT INTO user_memory (uid, user_id, kind, provenance, content, embedding, created_ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := d.db.QueryRowContext(ctx, stmt,
		create.UID,
		create.UserID,
		create.Kind,
		create.Provenance,
		create.Content,
		encodeVector(create.Embedding),
		create.CreatedTs,
	).Scan(&create.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create user memory")
	}
	return create, nil
}

func (d *DB) ListUserMemories(ctx context.Context, find *store.FindUserMemory) ([]*store.UserMemory, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.UserID != nil {
		where, args = append(where, "user_id = "+placeholder(len(args)+1)), append(args, *find.UserID)
	}
	if find.Kind != nil {
		where, args = append(where, "kind = "+placeholder(len(args)+1)), append(args, *find.Kind)
	}
	if find.HasEmbedding != nil {
		if *find.HasEmbedding {
			where = append(where, "embedding IS NOT NULL")
		} else {
			where = append(where, "embedding IS NULL")
		}
	}

	query := `
		SELECT id, uid, user_id, kind, provenance, content, embedding, created_ts
		FROM user_memory
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC, id DESC
	`
	if find.Limit != nil {
		query += " LIMIT " + placeholder(len(args)+1)
		args = append(args, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list user memories")
	}
	defer rows.Close()

	list := []*store.UserMemory{}
	for rows.Next() {
		var memory store.UserMemory
		var embedding nullVector
		if err := rows.Scan(
			&memory.ID,
			&memory.UID,
			&memory.UserID,
			&memory.Kind,
			&memory.Provenance,
			&memory.Content,
			&embedding,
			&memory.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan user memory")
		}
		memory.Embedding = embedding.Slice()
		list = append(list, &memory)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}
