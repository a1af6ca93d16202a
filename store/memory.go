package store

// Memory kinds recognized by the extraction pipeline.
const (
	MemoryKindFact       = "fact"
	MemoryKindPreference = "preference"
	MemoryKindEvent      = "event"
)

// UserMemory represents an extracted memory about a user.
type UserMemory struct {
	ID         int64
	UID        string
	UserID     string
	Kind       string // fact, preference, event
	Provenance string // where the memory was extracted from
	Content    string
	Embedding  []float32 // nil until backfilled
	CreatedTs  int64     // millisecond epoch
}

// FindUserMemory is the find condition for user memories.
type FindUserMemory struct {
	ID           *int64
	UserID       *string
	Kind         *string
	HasEmbedding *bool
	Limit        *int
}
