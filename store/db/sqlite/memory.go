package sqlite

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/finchbot/finch/plugin/ai/vector"
	"github.com/finchbot/finch/store"
)

func (d *DB) CreateUserMemory(ctx context.Context, create *store.UserMemory) (*store.UserMemory, error) {
	stmt := `
		INSERT INTO user_memory (uid, user_id, kind, provenance, content, embedding, created_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := d.db.ExecContext(ctx, stmt,
		create.UID,
		create.UserID,
		create.Kind,
		create.Provenance,
		create.Content,
		vector.Encode(create.Embedding),
		create.CreatedTs,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create user memory")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get last insert id")
	}
	create.ID = id
	return create, nil
}

func (d *DB) ListUserMemories(ctx context.Context, find *store.FindUserMemory) ([]*store.UserMemory, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.UserID != nil {
		where, args = append(where, "user_id = ?"), append(args, *find.UserID)
	}
	if find.Kind != nil {
		where, args = append(where, "kind = ?"), append(args, *find.Kind)
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
		query += " LIMIT ?"
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
		var blob []byte
		if err := rows.Scan(
			&memory.ID,
			&memory.UID,
			&memory.UserID,
			&memory.Kind,
			&memory.Provenance,
			&memory.Content,
			&blob,
			&memory.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan user memory")
		}
		memory.Embedding = decodeEmbedding("user_memory", memory.ID, blob)
		list = append(list, &memory)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}
