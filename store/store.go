package store

import (
	"context"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/finchbot/finch/internal/profile"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	return s.driver.Close()
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) CreateChatMessage(ctx context.Context, create *ChatMessage) (*ChatMessage, error) {
	if create.UID == "" {
		create.UID = shortuuid.New()
	}
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().UnixMilli()
	}
	return s.driver.CreateChatMessage(ctx, create)
}

func (s *Store) ListChatMessages(ctx context.Context, find *FindChatMessage) ([]*ChatMessage, error) {
	return s.driver.ListChatMessages(ctx, find)
}

// GetChatMessage gets a single chat message by id.
func (s *Store) GetChatMessage(ctx context.Context, id int64) (*ChatMessage, error) {
	list, err := s.driver.ListChatMessages(ctx, &FindChatMessage{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) CreateKnowledgeEntry(ctx context.Context, create *KnowledgeEntry) (*KnowledgeEntry, error) {
	if create.UID == "" {
		create.UID = shortuuid.New()
	}
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().UnixMilli()
	}
	return s.driver.CreateKnowledgeEntry(ctx, create)
}

func (s *Store) ListKnowledgeEntries(ctx context.Context, find *FindKnowledgeEntry) ([]*KnowledgeEntry, error) {
	return s.driver.ListKnowledgeEntries(ctx, find)
}

// GetKnowledgeEntry gets a single knowledge entry by id.
func (s *Store) GetKnowledgeEntry(ctx context.Context, id int64) (*KnowledgeEntry, error) {
	list, err := s.driver.ListKnowledgeEntries(ctx, &FindKnowledgeEntry{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) ListKnowledgeTags(ctx context.Context, guildID string) ([]string, error) {
	return s.driver.ListKnowledgeTags(ctx, guildID)
}

func (s *Store) CreateUserMemory(ctx context.Context, create *UserMemory) (*UserMemory, error) {
	if create.UID == "" {
		create.UID = shortuuid.New()
	}
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().UnixMilli()
	}
	return s.driver.CreateUserMemory(ctx, create)
}

func (s *Store) ListUserMemories(ctx context.Context, find *FindUserMemory) ([]*UserMemory, error) {
	return s.driver.ListUserMemories(ctx, find)
}

func (s *Store) AttachEmbedding(ctx context.Context, kind RecordKind, id int64, embedding []float32) error {
	return s.driver.AttachEmbedding(ctx, kind, id, embedding)
}

func (s *Store) ListPendingEmbeddings(ctx context.Context, kind RecordKind, limit int) ([]*PendingEmbedding, error) {
	return s.driver.ListPendingEmbeddings(ctx, kind, limit)
}
