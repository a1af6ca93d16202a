package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode"

	"github.com/finchbot/finch/plugin/ai"
	errs "github.com/finchbot/finch/server/internal/errors"
	"github.com/finchbot/finch/store"
	"github.com/finchbot/finch/store/cache"
)

const (
	// minQueryChars is the minimum number of non-whitespace characters a
	// semantic search query must carry. Anything shorter embeds to noise.
	minQueryChars = 3

	maxRecentLimit = 100
	maxSearchLimit = 50

	defaultRecentLimit = 25
	defaultSearchLimit = 10

	tagCacheTTL = 5 * time.Minute
)

// Service is the single retrieval surface used by all consumers. It
// wires the embedding provider, the record store, and the ranking
// engine together and enforces input limits before work begins.
type Service struct {
	store    *store.Store
	embedder ai.EmbeddingService
	engine   *Engine
	tagCache *cache.Cache
	logger   *slog.Logger
}

// SearchRequest describes one semantic search.
type SearchRequest struct {
	Query string
	Kinds []store.RecordKind

	// Scope. ChannelID/GuildID apply to messages, GuildID to knowledge,
	// UserID to memories.
	ChannelID  *string
	GuildID    *string
	UserID     *string
	ExcludeBot bool

	Limit       int
	DecayFactor float64
}

// NewService creates the retrieval facade.
func NewService(st *store.Store, embedder ai.EmbeddingService, decayFactor float64, logger *slog.Logger) (*Service, error) {
	engine, err := NewEngine(st, decayFactor)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    st,
		embedder: embedder,
		engine:   engine,
		tagCache: cache.New(cache.Config{Capacity: 256, DefaultTTL: tagCacheTTL}),
		logger:   logger,
	}, nil
}

// Engine exposes the ranking engine, mainly so tests can pin its clock.
func (s *Service) Engine() *Engine {
	return s.engine
}

// Recent returns the latest messages in a channel, oldest first so
// consumers can render them chronologically. No embedding is involved.
func (s *Service) Recent(ctx context.Context, channelID string, limit int) ([]*store.ChatMessage, error) {
	if channelID == "" {
		return nil, errs.InvalidParameters("channel id is required")
	}
	limit = clampLimit(limit, defaultRecentLimit, maxRecentLimit)

	list, err := s.store.ListChatMessages(ctx, &store.FindChatMessage{
		ChannelID: &channelID,
		Limit:     &limit,
	})
	if err != nil {
		return nil, errs.ExecutionError("failed to list recent messages", err)
	}

	// The store returns newest first; flip to oldest first.
	for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
		list[i], list[j] = list[j], list[i]
	}
	return list, nil
}

// SemanticSearch embeds the query text and ranks matching records.
// An empty result is a success, not an error.
func (s *Service) SemanticSearch(ctx context.Context, req *SearchRequest) ([]*ScoredRecord, error) {
	if countNonWhitespace(req.Query) < minQueryChars {
		return nil, errs.InvalidParameters(
			fmt.Sprintf("query must contain at least %d non-whitespace characters", minQueryChars))
	}
	if !s.embedder.Ready() {
		return nil, errs.ConfigurationError("embedding provider is not ready")
	}
	limit := clampLimit(req.Limit, defaultSearchLimit, maxSearchLimit)

	queryVec, err := s.embedder.Embed(ctx, req.Query)
	if err != nil {
		return nil, errs.ExecutionError("failed to embed query", err)
	}

	results, err := s.engine.Search(ctx, queryVec, &SearchFilter{
		Kinds:            req.Kinds,
		ChannelID:        req.ChannelID,
		GuildID:          req.GuildID,
		ExcludeBot:       req.ExcludeBot,
		KnowledgeGuildID: req.GuildID,
		UserID:           req.UserID,
		DecayFactor:      req.DecayFactor,
		Limit:            limit,
	})
	if err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "semantic search completed",
		"query_chars", len(req.Query),
		"result_count", len(results),
	)
	return results, nil
}

// SearchMessages is SemanticSearch restricted to chat messages.
func (s *Service) SearchMessages(ctx context.Context, req *SearchRequest) ([]*ScoredRecord, error) {
	req.Kinds = []store.RecordKind{store.RecordKindMessage}
	return s.SemanticSearch(ctx, req)
}

// SearchKnowledge is SemanticSearch restricted to knowledge entries.
// Knowledge is guild-owned, so a guild scope is required.
func (s *Service) SearchKnowledge(ctx context.Context, req *SearchRequest) ([]*ScoredRecord, error) {
	if req.GuildID == nil || *req.GuildID == "" {
		return nil, errs.ContextError("knowledge search requires a guild")
	}
	req.Kinds = []store.RecordKind{store.RecordKindKnowledge}
	return s.SemanticSearch(ctx, req)
}

// SearchMemories is SemanticSearch restricted to one user's memories.
func (s *Service) SearchMemories(ctx context.Context, req *SearchRequest) ([]*ScoredRecord, error) {
	if req.UserID == nil || *req.UserID == "" {
		return nil, errs.ContextError("memory search requires a user")
	}
	req.Kinds = []store.RecordKind{store.RecordKindMemory}
	return s.SemanticSearch(ctx, req)
}

// KnowledgeByID looks up one knowledge entry and verifies it belongs to
// the requesting guild. A scope mismatch reports not_found, the same as
// a missing id, so numeric id guessing leaks nothing.
func (s *Service) KnowledgeByID(ctx context.Context, id int64, guildID string) (*store.KnowledgeEntry, error) {
	if guildID == "" {
		return nil, errs.ContextError("knowledge lookup requires a guild")
	}
	entry, err := s.store.GetKnowledgeEntry(ctx, id)
	if err != nil {
		return nil, errs.ExecutionError("failed to get knowledge entry", err)
	}
	if entry == nil || entry.GuildID != guildID {
		return nil, errs.NotFound(fmt.Sprintf("knowledge entry %d not found", id))
	}
	return entry, nil
}

// KnowledgeByTag lists a guild's knowledge entries carrying a tag.
func (s *Service) KnowledgeByTag(ctx context.Context, guildID, tag string) ([]*store.KnowledgeEntry, error) {
	if guildID == "" {
		return nil, errs.ContextError("knowledge lookup requires a guild")
	}
	if tag == "" {
		return nil, errs.InvalidParameters("tag is required")
	}
	list, err := s.store.ListKnowledgeEntries(ctx, &store.FindKnowledgeEntry{
		GuildID: &guildID,
		Tag:     &tag,
	})
	if err != nil {
		return nil, errs.ExecutionError("failed to list knowledge entries", err)
	}
	return list, nil
}

// ListTags returns the distinct knowledge tags in a guild. Tag lists
// change rarely and are requested on every knowledge command, so they
// are cached briefly per guild.
func (s *Service) ListTags(ctx context.Context, guildID string) ([]string, error) {
	if guildID == "" {
		return nil, errs.ContextError("knowledge lookup requires a guild")
	}
	cacheKey := "tags:" + guildID
	if cached, ok := s.tagCache.Get(cacheKey); ok {
		return cached.([]string), nil
	}

	tags, err := s.store.ListKnowledgeTags(ctx, guildID)
	if err != nil {
		return nil, errs.ExecutionError("failed to list knowledge tags", err)
	}
	s.tagCache.Set(cacheKey, tags)
	return tags, nil
}

// clampLimit resolves a caller-supplied limit: zero or negative selects
// the default, anything above the ceiling is capped.
func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

func countNonWhitespace(s string) int {
	count := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			count++
		}
	}
	return count
}
