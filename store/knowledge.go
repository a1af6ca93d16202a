package store

// KnowledgeEntry represents a knowledge base entry owned by a guild.
type KnowledgeEntry struct {
	ID        int64
	UID       string
	GuildID   string
	Content   string
	Tags      []string
	Embedding []float32 // nil until backfilled
	CreatedTs int64     // millisecond epoch
}

// FindKnowledgeEntry is the find condition for knowledge entries.
type FindKnowledgeEntry struct {
	ID           *int64
	UID          *string
	GuildID      *string
	Tag          *string
	HasEmbedding *bool
	Limit        *int
}
