package sqlite

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pkg/errors"

	"github.com/finchbot/finch/plugin/ai/vector"
	"github.com/finchbot/finch/store"
)

func (d *DB) CreateChatMessage(ctx context.Context, create *store.ChatMessage) (*store.ChatMessage, error) {
	stmt := `
		INSERT INTO chat_message (uid, channel_id, guild_id, author_id, author_name, is_bot, content, embedding, created_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := d.db.ExecContext(ctx, stmt,
		create.UID,
		create.ChannelID,
		create.GuildID,
		create.AuthorID,
		create.AuthorName,
		create.IsBot,
		create.Content,
		vector.Encode(create.Embedding),
		create.CreatedTs,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create chat message")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get last insert id")
	}
	create.ID = id
	return create, nil
}

func (d *DB) ListChatMessages(ctx context.Context, find *store.FindChatMessage) ([]*store.ChatMessage, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.ChannelID != nil {
		where, args = append(where, "channel_id = ?"), append(args, *find.ChannelID)
	}
	if find.GuildID != nil {
		where, args = append(where, "guild_id = ?"), append(args, *find.GuildID)
	}
	if find.AuthorID != nil {
		where, args = append(where, "author_id = ?"), append(args, *find.AuthorID)
	}
	if find.ExcludeBot {
		where = append(where, "is_bot = 0")
	}
	if find.HasEmbedding != nil {
		if *find.HasEmbedding {
			where = append(where, "embedding IS NOT NULL")
		} else {
			where = append(where, "embedding IS NULL")
		}
	}

	query := `
		SELECT id, uid, channel_id, guild_id, author_id, author_name, is_bot, content, embedding, created_ts
		FROM chat_message
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC, id DESC
	`
	if find.Limit != nil {
		query += " LIMIT ?"
		args = append(args, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list chat messages")
	}
	defer rows.Close()

	list := []*store.ChatMessage{}
	for rows.Next() {
		var message store.ChatMessage
		var blob []byte
		if err := rows.Scan(
			&message.ID,
			&message.UID,
			&message.ChannelID,
			&message.GuildID,
			&message.AuthorID,
			&message.AuthorName,
			&message.IsBot,
			&message.Content,
			&blob,
			&message.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan chat message")
		}
		message.Embedding = decodeEmbedding("chat_message", message.ID, blob)
		list = append(list, &message)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

// decodeEmbedding decodes a stored embedding blob. A corrupt blob is
// logged and treated as "no embedding" so one bad row never fails a scan.
func decodeEmbedding(table string, id int64, blob []byte) []float32 {
	embedding, err := vector.Decode(blob)
	if err != nil {
		slog.Warn("skipping corrupt embedding blob", "table", table, "id", id, "error", err)
		return nil
	}
	return embedding
}
