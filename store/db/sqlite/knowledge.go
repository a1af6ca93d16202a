package sqlite

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/finchbot/finch/plugin/ai/vector"
	"github.com/finchbot/finch/store"
)

func (d *DB) CreateKnowledgeEntry(ctx context.Context, create *store.KnowledgeEntry) (*store.KnowledgeEntry, error) {
	tags, err := json.Marshal(create.Tags)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal tags")
	}

	stmt := `
		INSERT INTO knowledge_entry (uid, guild_id, content, tags, embedding, created_ts)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := d.db.ExecContext(ctx, stmt,
		create.UID,
		create.GuildID,
		create.Content,
		string(tags),
		vector.Encode(create.Embedding),
		create.CreatedTs,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create knowledge entry")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get last insert id")
	}
	create.ID = id
	return create, nil
}

func (d *DB) ListKnowledgeEntries(ctx context.Context, find *store.FindKnowledgeEntry) ([]*store.KnowledgeEntry, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = ?"), append(args, *find.UID)
	}
	if find.GuildID != nil {
		where, args = append(where, "guild_id = ?"), append(args, *find.GuildID)
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

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list knowledge entries")
	}
	defer rows.Close()

	list := []*store.KnowledgeEntry{}
	for rows.Next() {
		var entry store.KnowledgeEntry
		var tagsJSON string
		var blob []byte
		if err := rows.Scan(
			&entry.ID,
			&entry.UID,
			&entry.GuildID,
			&entry.Content,
			&tagsJSON,
			&blob,
			&entry.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan knowledge entry")
		}
		if err := json.Unmarshal([]byte(tagsJSON), &entry.Tags); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal tags")
		}
		entry.Embedding = decodeEmbedding("knowledge_entry", entry.ID, blob)
		list = append(list, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Tag filtering happens in Go: tags are a JSON array in a TEXT
	// column and corpora are small enough that this beats depending on
	// the JSON1 extension.
	if find.Tag != nil {
		filtered := []*store.KnowledgeEntry{}
		for _, entry := range list {
			for _, tag := range entry.Tags {
				if tag == *find.Tag {
					filtered = append(filtered, entry)
					break
				}
			}
		}
		list = filtered
	}

	if find.Limit != nil && len(list) > *find.Limit {
		list = list[:*find.Limit]
	}

	return list, nil
}

func (d *DB) ListKnowledgeTags(ctx context.Context, guildID string) ([]string, error) {
	entries, err := d.ListKnowledgeEntries(ctx, &store.FindKnowledgeEntry{GuildID: &guildID})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	tags := []string{}
	for _, entry := range entries {
		for _, tag := range entry.Tags {
			if !seen[tag] {
				seen[tag] = true
				tags = append(tags, tag)
			}
		}
	}
	sort.Strings(tags)
	return tags, nil
}
