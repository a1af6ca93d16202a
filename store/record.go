package store

// RecordKind identifies the variant of a stored record. Each kind maps to
// its own table; the embedding-related operations are generic over the kind.
type RecordKind string

const (
	// RecordKindMessage is a chat message captured from a channel.
	RecordKindMessage RecordKind = "MESSAGE"
	// RecordKindKnowledge is a knowledge base entry owned by a guild.
	RecordKindKnowledge RecordKind = "KNOWLEDGE"
	// RecordKindMemory is an extracted user memory.
	RecordKindMemory RecordKind = "MEMORY"
)

// PendingEmbedding is a record that has no embedding yet, as surfaced to
// the backfill runner.
type PendingEmbedding struct {
	Kind    RecordKind
	ID      int64
	Content string
}
