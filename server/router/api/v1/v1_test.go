package v1

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/finchbot/finch/internal/profile"
	errs "github.com/finchbot/finch/server/internal/errors"
	"github.com/finchbot/finch/store"
	storetest "github.com/finchbot/finch/store/test"
)

type stubEmbedder struct {
	ready bool
	vec   []float32
}

func (s *stubEmbedder) Embed(context.Context, string) ([]float32, error) {
	return s.vec, nil
}

func (s *stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = s.vec
	}
	return vectors, nil
}

func (s *stubEmbedder) Dimensions() int { return 4 }

func (s *stubEmbedder) Ready() bool { return s.ready }

func (s *stubEmbedder) Probe(context.Context) error { return nil }

func newTestAPI(t *testing.T, embedder *stubEmbedder) (*echo.Echo, *store.Store) {
	t.Helper()
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)

	svc, err := NewAPIV1Service(&profile.Profile{RetrievalDecayFactor: 0.98}, ts, embedder)
	require.NoError(t, err)

	e := echo.New()
	svc.RegisterRoutes(e)
	return e, ts
}

func doRequest(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRecentMessagesEndpoint(t *testing.T) {
	e, ts := newTestAPI(t, &stubEmbedder{ready: true})
	ctx := context.Background()

	for i, content := range []string{"first", "second"} {
		_, err := ts.CreateChatMessage(ctx, &store.ChatMessage{
			ChannelID:  "chan-1",
			AuthorID:   "u1",
			AuthorName: "ada",
			Content:    content,
			CreatedTs:  int64(1000 + i),
		})
		require.NoError(t, err)
	}

	rec := doRequest(e, http.MethodGet, "/api/v1/channels/chan-1/messages/recent", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp messageListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Count)
	require.Equal(t, "first", resp.Messages[0].Content)
	require.Equal(t, "ada", resp.Messages[0].User)
}

func TestRecentMessagesBadLimit(t *testing.T) {
	e, _ := newTestAPI(t, &stubEmbedder{ready: true})

	rec := doRequest(e, http.MethodGet, "/api/v1/channels/chan-1/messages/recent?limit=abc", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errs.Payload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "invalid_parameters", resp.Type)
	require.False(t, resp.Retryable)
}

func TestSearchEndpointErrorMapping(t *testing.T) {
	e, _ := newTestAPI(t, &stubEmbedder{ready: false, vec: []float32{1, 0, 0, 0}})

	// Short query fails validation before readiness is consulted.
	rec := doRequest(e, http.MethodPost, "/api/v1/search", `{"query":"hi"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// A valid query against an unready embedder is retryable 503.
	rec = doRequest(e, http.MethodPost, "/api/v1/search", `{"query":"where is everyone"}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp errs.Payload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "configuration_error", resp.Type)
	require.True(t, resp.Retryable)
}

func TestSearchEndpointReturnsRankedResults(t *testing.T) {
	embedder := &stubEmbedder{ready: true, vec: []float32{1, 0, 0, 0}}
	e, ts := newTestAPI(t, embedder)
	ctx := context.Background()

	msg, err := ts.CreateChatMessage(ctx, &store.ChatMessage{
		ChannelID:  "chan-1",
		AuthorID:   "u1",
		AuthorName: "ada",
		Content:    "cats are great",
		CreatedTs:  time.Now().UnixMilli(),
	})
	require.NoError(t, err)
	require.NoError(t, ts.AttachEmbedding(ctx, store.RecordKindMessage, msg.ID, []float32{1, 0, 0, 0}))

	rec := doRequest(e, http.MethodPost, "/api/v1/search", `{"query":"tell me about cats","kinds":["MESSAGE"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp searchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	require.Equal(t, "cats are great", resp.Results[0].Content)
	require.Equal(t, "ada", resp.Results[0].User)
	require.InDelta(t, 1.0, resp.Results[0].Score, 1e-3)
}

func TestKnowledgeEndpoints(t *testing.T) {
	e, ts := newTestAPI(t, &stubEmbedder{ready: true})
	ctx := context.Background()

	entry, err := ts.CreateKnowledgeEntry(ctx, &store.KnowledgeEntry{
		GuildID: "guild-a",
		Content: "wifi is hunter2",
		Tags:    []string{"wifi", "home"},
	})
	require.NoError(t, err)

	entryPath := fmt.Sprintf("/api/v1/guilds/guild-a/knowledge/%d", entry.ID)
	rec := doRequest(e, http.MethodGet, entryPath, "")
	require.Equal(t, http.StatusOK, rec.Code)

	// Same id from another guild leaks nothing.
	rec = doRequest(e, http.MethodGet, fmt.Sprintf("/api/v1/guilds/guild-b/knowledge/%d", entry.ID), "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(e, http.MethodGet, "/api/v1/guilds/guild-a/knowledge?tag=wifi", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list searchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Equal(t, 1, list.Count)
	require.Equal(t, entry.ID, list.Results[0].ID)

	rec = doRequest(e, http.MethodGet, "/api/v1/guilds/guild-a/knowledge-tags", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "wifi")
}

func TestRetrieveToolEndpoint(t *testing.T) {
	embedder := &stubEmbedder{ready: true, vec: []float32{1, 0, 0, 0}}
	e, ts := newTestAPI(t, embedder)
	ctx := context.Background()

	msg, err := ts.CreateChatMessage(ctx, &store.ChatMessage{
		ChannelID:  "chan-1",
		AuthorID:   "u1",
		AuthorName: "ada",
		Content:    "hello world",
		CreatedTs:  time.Now().UnixMilli(),
	})
	require.NoError(t, err)
	require.NoError(t, ts.AttachEmbedding(ctx, store.RecordKindMessage, msg.ID, []float32{1, 0, 0, 0}))

	rec := doRequest(e, http.MethodPost, "/api/v1/retrieve", `{"mode":"recent","channel_id":"chan-1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp messageListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	require.NotEmpty(t, resp.Messages[0].Age)
	require.NotEmpty(t, resp.Messages[0].Timestamp)

	rec = doRequest(e, http.MethodPost, "/api/v1/retrieve", `{"mode":"search","channel_id":"chan-1","query":"hello there"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)

	rec = doRequest(e, http.MethodPost, "/api/v1/retrieve", `{"mode":"bogus"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRelativeAge(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC).UnixMilli()
	tests := []struct {
		offset time.Duration
		want   string
	}{
		{30 * time.Second, "just now"},
		{time.Minute, "1 minute ago"},
		{5 * time.Minute, "5 minutes ago"},
		{time.Hour, "1 hour ago"},
		{3 * time.Hour, "3 hours ago"},
		{24 * time.Hour, "1 day ago"},
		{72 * time.Hour, "3 days ago"},
		{-time.Hour, "just now"}, // future timestamps clamp
	}
	for _, tt := range tests {
		createdMs := now - tt.offset.Milliseconds()
		require.Equal(t, tt.want, relativeAge(now, createdMs), "offset %s", tt.offset)
	}
}

func TestFormatTimestamp(t *testing.T) {
	ms := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC).UnixMilli()
	require.Equal(t, "2025-06-01T12:30:00Z", formatTimestamp(ms))
}
