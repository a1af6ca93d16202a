package retrieval

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/finchbot/finch/plugin/ai/vector"
	errs "github.com/finchbot/finch/server/internal/errors"
	"github.com/finchbot/finch/store"
)

const (
	// millisPerDay converts a created_ts delta into fractional days for
	// recency decay.
	millisPerDay = 86_400_000

	// defaultDecayFactor keeps yesterday's records at 98% of their raw
	// similarity score.
	defaultDecayFactor = 0.98
)

// ScoredRecord is one ranked search hit. Exactly one of Message,
// Knowledge, or Memory is set, matching Kind.
type ScoredRecord struct {
	Kind      store.RecordKind
	ID        int64
	Content   string
	CreatedTs int64
	Score     float64

	Message   *store.ChatMessage
	Knowledge *store.KnowledgeEntry
	Memory    *store.UserMemory
}

// SearchFilter scopes a semantic search to the caller's context.
type SearchFilter struct {
	Kinds []store.RecordKind

	// Message scope.
	ChannelID  *string
	GuildID    *string
	ExcludeBot bool

	// Knowledge scope.
	KnowledgeGuildID *string

	// Memory scope.
	UserID *string

	// DecayFactor overrides the engine default for this search. Zero
	// keeps the default; values outside (0, 1] are rejected.
	DecayFactor float64

	Limit int
}

// Engine ranks stored records against a query embedding by cosine
// similarity with exponential recency decay.
type Engine struct {
	store       *store.Store
	decayFactor float64

	// Now is swappable so tests can pin the clock.
	Now func() time.Time
}

// NewEngine creates a ranking engine. A zero decayFactor selects the
// default; values outside (0, 1] are rejected.
func NewEngine(st *store.Store, decayFactor float64) (*Engine, error) {
	if decayFactor == 0 {
		decayFactor = defaultDecayFactor
	}
	if decayFactor < 0 || decayFactor > 1 {
		return nil, errs.InvalidParameters("decay factor must be in (0, 1]")
	}
	return &Engine{
		store:       st,
		decayFactor: decayFactor,
		Now:         time.Now,
	}, nil
}

// Score computes the ranking score for a single record: non-negative
// cosine similarity damped by record age. Records with a similarity at
// or below zero score zero regardless of age.
func Score(query, embedding []float32, createdTs, nowMs int64, decayFactor float64) float64 {
	similarity := vector.CosineSimilarity(query, embedding)
	if similarity <= 0 {
		return 0
	}
	ageMs := nowMs - createdTs
	if ageMs < 0 {
		ageMs = 0
	}
	ageDays := float64(ageMs) / millisPerDay
	return similarity * math.Pow(decayFactor, ageDays)
}

// Search scans the embedded rows in each requested kind, ranks them
// against the query vector, and returns up to filter.Limit hits with a
// positive score. Rows without an embedding yet are skipped; rows whose
// embedding dimensions do not match the query score zero and drop out.
func (e *Engine) Search(ctx context.Context, query []float32, filter *SearchFilter) ([]*ScoredRecord, error) {
	if len(query) == 0 {
		return nil, errs.InvalidParameters("query embedding is empty")
	}
	decayFactor := filter.DecayFactor
	if decayFactor == 0 {
		decayFactor = e.decayFactor
	}
	if decayFactor < 0 || decayFactor > 1 {
		return nil, errs.InvalidParameters("decay factor must be in (0, 1]")
	}
	kinds := filter.Kinds
	if len(kinds) == 0 {
		kinds = []store.RecordKind{store.RecordKindMessage, store.RecordKindKnowledge, store.RecordKindMemory}
	}

	nowMs := e.Now().UnixMilli()
	var scored []*ScoredRecord
	for _, kind := range kinds {
		records, err := e.candidates(ctx, kind, filter)
		if err != nil {
			return nil, err
		}
		for _, record := range records {
			embedding := recordEmbedding(record)
			if len(embedding) == 0 {
				continue
			}
			score := Score(query, embedding, record.CreatedTs, nowMs, decayFactor)
			if score <= 0 {
				continue
			}
			record.Score = score
			scored = append(scored, record)
		}
	}

	sortScored(scored)
	if filter.Limit > 0 && len(scored) > filter.Limit {
		scored = scored[:filter.Limit]
	}
	return scored, nil
}

// sortScored orders hits by score descending, then recency, then id so
// equal inputs always rank identically.
func sortScored(scored []*ScoredRecord) {
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if scored[i].CreatedTs != scored[j].CreatedTs {
			return scored[i].CreatedTs > scored[j].CreatedTs
		}
		return scored[i].ID < scored[j].ID
	})
}

func recordEmbedding(record *ScoredRecord) []float32 {
	switch {
	case record.Message != nil:
		return record.Message.Embedding
	case record.Knowledge != nil:
		return record.Knowledge.Embedding
	case record.Memory != nil:
		return record.Memory.Embedding
	default:
		return nil
	}
}

// candidates loads every embedded record in scope for one kind. The
// scan is deliberately unbounded: ranking is brute force over the full
// candidate set, so a row must never be excluded just for being old.
func (e *Engine) candidates(ctx context.Context, kind store.RecordKind, filter *SearchFilter) ([]*ScoredRecord, error) {
	hasEmbedding := true

	switch kind {
	case store.RecordKindMessage:
		list, err := e.store.ListChatMessages(ctx, &store.FindChatMessage{
			ChannelID:    filter.ChannelID,
			GuildID:      filter.GuildID,
			ExcludeBot:   filter.ExcludeBot,
			HasEmbedding: &hasEmbedding,
		})
		if err != nil {
			return nil, errs.ExecutionError("failed to list chat messages", err)
		}
		records := make([]*ScoredRecord, 0, len(list))
		for _, msg := range list {
			records = append(records, &ScoredRecord{
				Kind:      store.RecordKindMessage,
				ID:        msg.ID,
				Content:   msg.Content,
				CreatedTs: msg.CreatedTs,
				Message:   msg,
			})
		}
		return records, nil

	case store.RecordKindKnowledge:
		list, err := e.store.ListKnowledgeEntries(ctx, &store.FindKnowledgeEntry{
			GuildID:      filter.KnowledgeGuildID,
			HasEmbedding: &hasEmbedding,
		})
		if err != nil {
			return nil, errs.ExecutionError("failed to list knowledge entries", err)
		}
		records := make([]*ScoredRecord, 0, len(list))
		for _, entry := range list {
			records = append(records, &ScoredRecord{
				Kind:      store.RecordKindKnowledge,
				ID:        entry.ID,
				Content:   entry.Content,
				CreatedTs: entry.CreatedTs,
				Knowledge: entry,
			})
		}
		return records, nil

	case store.RecordKindMemory:
		list, err := e.store.ListUserMemories(ctx, &store.FindUserMemory{
			UserID:       filter.UserID,
			HasEmbedding: &hasEmbedding,
		})
		if err != nil {
			return nil, errs.ExecutionError("failed to list user memories", err)
		}
		records := make([]*ScoredRecord, 0, len(list))
		for _, memory := range list {
			records = append(records, &ScoredRecord{
				Kind:      store.RecordKindMemory,
				ID:        memory.ID,
				Content:   memory.Content,
				CreatedTs: memory.CreatedTs,
				Memory:    memory,
			})
		}
		return records, nil

	default:
		return nil, errs.InvalidParameters("unknown record kind: " + string(kind))
	}
}
