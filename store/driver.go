package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that a store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	// Migrate creates the schema if it does not exist yet.
	Migrate(ctx context.Context) error

	// ChatMessage model related methods.
	CreateChatMessage(ctx context.Context, create *ChatMessage) (*ChatMessage, error)
	ListChatMessages(ctx context.Context, find *FindChatMessage) ([]*ChatMessage, error)

	// KnowledgeEntry model related methods.
	CreateKnowledgeEntry(ctx context.Context, create *KnowledgeEntry) (*KnowledgeEntry, error)
	ListKnowledgeEntries(ctx context.Context, find *FindKnowledgeEntry) ([]*KnowledgeEntry, error)
	ListKnowledgeTags(ctx context.Context, guildID string) ([]string, error)

	// UserMemory model related methods.
	CreateUserMemory(ctx context.Context, create *UserMemory) (*UserMemory, error)
	ListUserMemories(ctx context.Context, find *FindUserMemory) ([]*UserMemory, error)

	// Embedding related methods, generic over the record kind.
	//
	// AttachEmbedding writes the embedding for a record that does not
	// have one yet. The write is atomic from a reader's point of view;
	// once a record has an embedding the call is a no-op.
	AttachEmbedding(ctx context.Context, kind RecordKind, id int64, embedding []float32) error

	// ListPendingEmbeddings returns records without an embedding,
	// oldest first, capped at limit.
	ListPendingEmbeddings(ctx context.Context, kind RecordKind, limit int) ([]*PendingEmbedding, error)
}
