package store

// ChatMessage represents a chat message captured for retrieval.
// Content and scope are immutable after creation; the embedding is
// attached later by the backfill runner and never replaced.
type ChatMessage struct {
	ID         int64
	UID        string
	ChannelID  string
	GuildID    *string // nil for direct messages
	AuthorID   string
	AuthorName string
	IsBot      bool
	Content    string
	Embedding  []float32 // nil until backfilled
	CreatedTs  int64     // millisecond epoch
}

// FindChatMessage is the find condition for chat messages. Nil fields
// match anything. Results are ordered newest first (created_ts DESC,
// id DESC).
type FindChatMessage struct {
	ID           *int64
	ChannelID    *string
	GuildID      *string
	AuthorID     *string
	ExcludeBot   bool
	HasEmbedding *bool
	Limit        *int
}
