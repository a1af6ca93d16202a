package v1

import (
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/finchbot/finch/internal/profile"
	"github.com/finchbot/finch/plugin/ai"
	"github.com/finchbot/finch/server/middleware"
	"github.com/finchbot/finch/server/retrieval"
	"github.com/finchbot/finch/server/service/snippet"
	"github.com/finchbot/finch/store"
)

// APIV1Service exposes the retrieval surface over HTTP for the bot
// process and for tool-style callers.
type APIV1Service struct {
	Profile   *profile.Profile
	Store     *store.Store
	Retrieval *retrieval.Service

	snippets *snippet.Extractor
	logger   *slog.Logger
}

func NewAPIV1Service(p *profile.Profile, st *store.Store, embedder ai.EmbeddingService) (*APIV1Service, error) {
	retrievalService, err := retrieval.NewService(st, embedder, p.RetrievalDecayFactor, slog.Default())
	if err != nil {
		return nil, err
	}
	return &APIV1Service{
		Profile:   p,
		Store:     st,
		Retrieval: retrievalService,
		snippets:  snippet.NewExtractor(),
		logger:    slog.Default(),
	}, nil
}

// RegisterRoutes mounts all v1 endpoints on the given Echo instance.
// The embedding-backed endpoints carry a per-client rate limit since
// each call costs a model invocation.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1")
	searchLimit := middleware.NewRateLimiter(5, 10).Middleware()

	g.GET("/channels/:channel/messages/recent", s.recentMessages)
	g.POST("/search", s.semanticSearch, searchLimit)
	g.GET("/guilds/:guild/knowledge/:id", s.knowledgeByID)
	g.GET("/guilds/:guild/knowledge", s.knowledgeByTag)
	g.GET("/guilds/:guild/knowledge-tags", s.listTags)
	g.POST("/retrieve", s.retrieveTool, searchLimit)
}
