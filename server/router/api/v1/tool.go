package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	errs "github.com/finchbot/finch/server/internal/errors"
	"github.com/finchbot/finch/server/retrieval"
	"github.com/finchbot/finch/store"
)

// toolRequest is the call shape used by the bot's LLM tool bindings.
// One endpoint serves both history modes so the model only has to pick
// a mode and fill the blanks.
type toolRequest struct {
	Mode      string `json:"mode"` // "recent" or "search"
	ChannelID string `json:"channel_id"`
	GuildID   string `json:"guild_id,omitempty"`
	Query     string `json:"query,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

func (s *APIV1Service) retrieveTool(c echo.Context) error {
	req := &toolRequest{}
	if err := c.Bind(req); err != nil {
		return respondError(c, errs.InvalidParameters("malformed request body"))
	}

	switch req.Mode {
	case "recent":
		messages, err := s.Retrieval.Recent(c.Request().Context(), req.ChannelID, req.Limit)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, buildMessageList(messages))

	case "search":
		searchReq := &retrieval.SearchRequest{
			Query:      req.Query,
			Kinds:      []store.RecordKind{store.RecordKindMessage},
			ExcludeBot: true,
			Limit:      req.Limit,
		}
		if req.ChannelID != "" {
			searchReq.ChannelID = &req.ChannelID
		}
		if req.GuildID != "" {
			searchReq.GuildID = &req.GuildID
		}
		results, err := s.Retrieval.SemanticSearch(c.Request().Context(), searchReq)
		if err != nil {
			return respondError(c, err)
		}

		nowMs := nowFunc().UnixMilli()
		messages := make([]*messagePayload, 0, len(results))
		for _, result := range results {
			payload := &messagePayload{
				ID:        result.ID,
				Timestamp: formatTimestamp(result.CreatedTs),
				Age:       relativeAge(nowMs, result.CreatedTs),
				Content:   s.snippets.Extract(result.Content, req.Query),
				Score:     result.Score,
			}
			if result.Message != nil {
				payload.User = result.Message.AuthorName
			}
			messages = append(messages, payload)
		}
		return c.JSON(http.StatusOK, &messageListResponse{Count: len(messages), Messages: messages})

	default:
		return respondError(c, errs.InvalidParameters(`mode must be "recent" or "search"`))
	}
}
