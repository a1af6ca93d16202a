package postgres

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/finchbot/finch/store"
)

func (d *DB) CreateChatMessage(ctx context.Context, create *store.ChatMessage) (*store.ChatMessage, error) {
	stmt := `
		INSERT INTO chat_message (uid, channel_id, guild_id, author_id, author_name, is_bot, content, embedding, created_ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	err := d.db.QueryRowContext(ctx, stmt,
		create.UID,
		create.ChannelID,
		create.GuildID,
		create.AuthorID,
		create.AuthorName,
		create.IsBot,
		create.Content,
		encodeVector(create.Embedding),
		create.CreatedTs,
	).Scan(&create.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create chat message")
	}
	return create, nil
}

func (d *DB) ListChatMessages(ctx context.Context, find *store.FindChatMessage) ([]*store.ChatMessage, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.ChannelID != nil {
		where, args = append(where, "channel_id = "+placeholder(len(args)+1)), append(args, *find.ChannelID)
	}
	if find.GuildID != nil {
		where, args = append(where, "guild_id = "+placeholder(len(args)+1)), append(args, *find.GuildID)
	}
	if find.AuthorID != nil {
		where, args = append(where, "author_id = "+placeholder(len(args)+1)), append(args, *find.AuthorID)
	}
	if find.ExcludeBot {
		where = append(where, "is_bot = FALSE")
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
		query += " LIMIT " + placeholder(len(args)+1)
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
		var embedding nullVector
		if err := rows.Scan(
			&message.ID,
			&message.UID,
			&message.ChannelID,
			&message.GuildID,
			&message.AuthorID,
			&message.AuthorName,
			&message.IsBot,
			&message.Content,
			&embedding,
			&message.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan chat message")
		}
		message.Embedding = embedding.Slice()
		list = append(list, &message)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}
