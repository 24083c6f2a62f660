package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/harmony/internal/logger"
	"github.com/samcharles93/harmony/internal/version"
	"github.com/samcharles93/harmony/pkg/harmony"
)

// DefaultMaxSessions bounds the number of live parser sessions.
const DefaultMaxSessions = 1024

type Server struct {
	enc      *harmony.Encoding
	sessions *SessionStore
	render   harmony.RenderConversationConfig
	log      logger.Logger
	clock    func() time.Time
}

type Option func(*Server)

// WithRenderConfig sets the render config used when a request has none.
func WithRenderConfig(cfg harmony.RenderConversationConfig) Option {
	return func(s *Server) {
		s.render = cfg
	}
}

func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		s.log = l
	}
}

func WithSessionStore(store *SessionStore) Option {
	return func(s *Server) {
		s.sessions = store
	}
}

func NewServer(enc *harmony.Encoding, opts ...Option) *Server {
	s := &Server{
		enc:    enc,
		render: harmony.DefaultRenderConversationConfig(),
		log:    logger.Discard(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sessions == nil {
		s.sessions = NewSessionStore(DefaultMaxSessions)
	}
	return s
}

func (s *Server) Register(e *echo.Echo) {
	// Rendering
	e.POST("/v1/render/conversation", s.handleRenderConversation)
	e.POST("/v1/render/completion", s.handleRenderCompletion)
	e.POST("/v1/render/training", s.handleRenderTraining)
	e.POST("/v1/render/message", s.handleRenderMessage)
	e.POST("/v1/render/batch", s.handleRenderBatch)
	e.POST("/v1/render/chat", s.handleRenderChat)

	// Parsing and vocabulary
	e.POST("/v1/parse", s.handleParse)
	e.POST("/v1/encode", s.handleEncode)
	e.POST("/v1/decode", s.handleDecode)
	e.GET("/v1/tokens/special", s.handleSpecialTokens)
	e.GET("/v1/tokens/stop", s.handleStopTokens)
	e.GET("/v1/tools/:namespace", s.handleToolNamespace)

	// Streaming parser sessions
	e.POST("/v1/parsers", s.handleCreateParser)
	e.GET("/v1/parsers/:id", s.handleGetParser)
	e.POST("/v1/parsers/:id/tokens", s.handleFeedParser)
	e.POST("/v1/parsers/:id/eos", s.handleParserEOS)
	e.DELETE("/v1/parsers/:id", s.handleDeleteParser)

	e.GET("/healthz", func(c *echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"status":   "ok",
			"encoding": s.enc.Name(),
			"version":  version.String(),
			"sessions": s.sessions.Len(),
		})
	})
}

func (s *Server) configOr(cfg *harmony.RenderConversationConfig) *harmony.RenderConversationConfig {
	if cfg != nil {
		return cfg
	}
	def := s.render
	return &def
}

func (s *Server) renderResponse(tokens []uint32, includeText bool) (RenderResponse, error) {
	resp := RenderResponse{Tokens: tokens, Count: len(tokens)}
	if resp.Tokens == nil {
		resp.Tokens = []uint32{}
	}
	if includeText {
		text, err := s.enc.DecodeUTF8(tokens)
		if err != nil {
			return resp, err
		}
		resp.Text = text
	}
	return resp, nil
}
