package postgres

import (
	"context"
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/finchbot/finch/store"
)

func (d *DB) CreateKnowledgeEntry(ctx context.Context, create *store.KnowledgeEntry) (*store.KnowledgeEntry, error) {
	stmt := `
		INSERT INTO knowledge_entry (uid, guild_id, content, tags, embedding, created_ts)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := d.db.QueryRowContext(ctx, stmt,
		create.UID,
		create.GuildID,
		create.Content,
		pq.Array(create.Tags),
		encodeVector(create.Embedding),
		create.CreatedTs,
	).Scan(&create.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create knowledge entry")
	}
	return create, nil
}

func (d *DB) ListKnowledgeEntries(ctx context.Context, find *store.FindKnowledgeEntry) ([]*store.KnowledgeEntry, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *find.UID)
	}
	if find.GuildID != nil {
		where, args = append(where, "guild_id = "+placeholder(len(args)+1)), append(args, *find.GuildID)
	}
	if find.Tag != nil {
		where, args = append(where, placeholder(len(args)+1)+" = ANY(tags)"), append(args, *find.Tag)
	}
	if find.HasEmbedding != nil {
		if *find.HasEmbedding {
			where = append(where, "embedding IS NOT NULL")
		} else {
			where = append(where, "embedding IS NULL")
		}
	}

	query := `
		SELECT id, uid, guild_id, content, tags, embedding, created_ts
		FROM knowledge_entry
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC, id DESC
	`
	if find.Limit != nil {
		query += " LIMIT " + placeholder(len(args)+1)
		args = append(args, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list knowledge entries")
	}
	defer rows.Close()

	list := []*store.KnowledgeEntry{}
	for rows.Next() {
		var entry store.KnowledgeEntry
		var embedding nullVector
		if err := rows.Scan(
			&entry.ID,
			&entry.UID,
			&entry.GuildID,
			&entry.Content,
			pq.Array(&entry.Tags),
			&embedding,
			&entry.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan knowledge entry")
		}
		entry.Embedding = embedding.Slice()
		list = append(list, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

func (d *DB) ListKnowledgeTags(ctx context.Context, guildID string) ([]string, error) {
	query := `
		SELECT DISTINCT unnest(tags)
		FROM knowledge_entry
		WHERE guild_id = $1
		ORDER BY 1
	`
	rows, err := d.db.QueryContext(ctx, query, guildID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list knowledge tags")
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, errors.Wrap(err, "failed to scan knowledge tag")
		}
		tags = append(tags, tag)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tags, nil
}
