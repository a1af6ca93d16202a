package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	errs "github.com/finchbot/finch/server/internal/errors"
	"github.com/finchbot/finch/server/retrieval"
	"github.com/finchbot/finch/store"
)

type messagePayload struct {
	ID        int64   `json:"id"`
	Timestamp string  `json:"timestamp"`
	Age       string  `json:"age"`
	User      string  `json:"user"`
	Content   string  `json:"content"`
	Score     float64 `json:"score,omitempty"`
}

type messageListResponse struct {
	Count    int               `json:"count"`
	Messages []*messagePayload `json:"messages"`
}

type searchRequestPayload struct {
	Query       string   `json:"query"`
	Kinds       []string `json:"kinds,omitempty"`
	ChannelID   string   `json:"channel_id,omitempty"`
	GuildID     string   `json:"guild_id,omitempty"`
	UserID      string   `json:"user_id,omitempty"`
	ExcludeBot  bool     `json:"exclude_bot,omitempty"`
	Limit       int      `json:"limit,omitempty"`
	DecayFactor float64  `json:"decay_factor,omitempty"`
}

type scoredRecordPayload struct {
	Kind      string   `json:"kind"`
	ID        int64    `json:"id"`
	Timestamp string   `json:"timestamp"`
	Age       string   `json:"age"`
	Content   string   `json:"content"`
	Score     float64  `json:"score"`
	User      string   `json:"user,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

type searchResponse struct {
	Count   int                    `json:"count"`
	Results []*scoredRecordPayload `json:"results"`
}

func (s *APIV1Service) recentMessages(c echo.Context) error {
	channelID := c.Param("channel")
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return respondError(c, errs.InvalidParameters("limit must be an integer"))
		}
		limit = parsed
	}

	messages, err := s.Retrieval.Recent(c.Request().Context(), channelID, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, buildMessageList(messages))
}

func (s *APIV1Service) semanticSearch(c echo.Context) error {
	payload := &searchRequestPayload{}
	if err := c.Bind(payload); err != nil {
		return respondError(c, errs.InvalidParameters("malformed request body"))
	}

	req := &retrieval.SearchRequest{
		Query:       payload.Query,
		ExcludeBot:  payload.ExcludeBot,
		Limit:       payload.Limit,
		DecayFactor: payload.DecayFactor,
	}
	if payload.ChannelID != "" {
		req.ChannelID = &payload.ChannelID
	}
	if payload.GuildID != "" {
		req.GuildID = &payload.GuildID
	}
	if payload.UserID != "" {
		req.UserID = &payload.UserID
	}
	for _, kind := range payload.Kinds {
		switch store.RecordKind(kind) {
		case store.RecordKindMessage, store.RecordKindKnowledge, store.RecordKindMemory:
			req.Kinds = append(req.Kinds, store.RecordKind(kind))
		default:
			return respondError(c, errs.InvalidParameters("unknown record kind: "+kind))
		}
	}

	results, err := s.Retrieval.SemanticSearch(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, s.buildSearchResponse(results, payload.Query))
}

func (s *APIV1Service) knowledgeByID(c echo.Context) error {
	guildID := c.Param("guild")
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return respondError(c, errs.InvalidParameters("id must be an integer"))
	}

	entry, err := s.Retrieval.KnowledgeByID(c.Request().Context(), id, guildID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, buildKnowledgePayload(entry))
}

func (s *APIV1Service) knowledgeByTag(c echo.Context) error {
	guildID := c.Param("guild")
	tag := c.QueryParam("tag")

	entries, err := s.Retrieval.KnowledgeByTag(c.Request().Context(), guildID, tag)
	if err != nil {
		return respondError(c, err)
	}

	payloads := make([]*scoredRecordPayload, 0, len(entries))
	for _, entry := range entries {
		payloads = append(payloads, buildKnowledgePayload(entry))
	}
	return c.JSON(http.StatusOK, &searchResponse{Count: len(payloads), Results: payloads})
}

func (s *APIV1Service) listTags(c echo.Context) error {
	tags, err := s.Retrieval.ListTags(c.Request().Context(), c.Param("guild"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"count": len(tags),
		"tags":  tags,
	})
}

func buildMessageList(messages []*store.ChatMessage) *messageListResponse {
	nowMs := nowFunc().UnixMilli()
	payloads := make([]*messagePayload, 0, len(messages))
	for _, msg := range messages {
		payloads = append(payloads, &messagePayload{
			ID:        msg.ID,
			Timestamp: formatTimestamp(msg.CreatedTs),
			Age:       relativeAge(nowMs, msg.CreatedTs),
			User:      msg.AuthorName,
			Content:   msg.Content,
		})
	}
	return &messageListResponse{Count: len(payloads), Messages: payloads}
}

func (s *APIV1Service) buildSearchResponse(results []*retrieval.ScoredRecord, query string) *searchResponse {
	nowMs := nowFunc().UnixMilli()
	payloads := make([]*scoredRecordPayload, 0, len(results))
	for _, result := range results {
		payload := &scoredRecordPayload{
			Kind:      string(result.Kind),
			ID:        result.ID,
			Timestamp: formatTimestamp(result.CreatedTs),
			Age:       relativeAge(nowMs, result.CreatedTs),
			Content:   s.snippets.Extract(result.Content, query),
			Score:     result.Score,
		}
		switch {
		case result.Message != nil:
			payload.User = result.Message.AuthorName
		case result.Knowledge != nil:
			payload.Tags = result.Knowledge.Tags
		case result.Memory != nil:
			payload.User = result.Memory.UserID
		}
		payloads = append(payloads, payload)
	}
	return &searchResponse{Count: len(payloads), Results: payloads}
}

func buildKnowledgePayload(entry *store.KnowledgeEntry) *scoredRecordPayload {
	return &scoredRecordPayload{
		Kind:      string(store.RecordKindKnowledge),
		ID:        entry.ID,
		Timestamp: formatTimestamp(entry.CreatedTs),
		Age:       relativeAge(nowFunc().UnixMilli(), entry.CreatedTs),
		Content:   entry.Content,
		Tags:      entry.Tags,
	}
}
