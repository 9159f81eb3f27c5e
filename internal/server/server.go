// Package server exposes the chat backend over HTTP.
package server

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"voicechat/backend/internal/chat"
	"voicechat/backend/internal/log"
	"voicechat/backend/internal/speech"
)

const indexTemplate = "index.html"

// Chatter answers one chat turn.
type Chatter interface {
	HandleTurn(ctx context.Context, userMessage string, history []chat.Turn) chat.Response
}

// Options carry the settings the HTTP layer needs from configuration.
type Options struct {
	StaticDir          string
	AudioEnabled       bool
	SpeechRegion       string
	RateLimitPerMinute int
	AllowedOrigins     []string
}

// Server routes HTTP requests to the chat orchestrator and token issuer.
type Server struct {
	engine *gin.Engine
	chat   Chatter
	tokens speech.TokenIssuer
	opts   Options
}

// New builds the router. Static pages are mounted only when StaticDir
// contains an index.html.
func New(chatter Chatter, tokens speech.TokenIssuer, opts Options) *Server {
	s := &Server{
		engine: gin.New(),
		chat:   chatter,
		tokens: tokens,
		opts:   opts,
	}
	s.engine.Use(requestID(), accessLog(), gin.CustomRecovery(recoverJSON))
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/healthz", s.handleHealth)
	s.engine.POST("/chat", s.handleChat)
	s.engine.GET("/sts_token", s.handleSTSToken)

	if s.opts.StaticDir == "" {
		return
	}
	index := filepath.Join(s.opts.StaticDir, indexTemplate)
	if _, err := os.Stat(index); err != nil {
		log.Logger.Infow("no index page, static files disabled", "static_dir", s.opts.StaticDir)
		return
	}
	s.engine.LoadHTMLFiles(index)
	s.engine.GET("/", s.handleIndex)
	s.engine.Static("/static", s.opts.StaticDir)
}

// Handler returns the router wrapped in CORS and per-IP rate limiting.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.engine
	if s.opts.RateLimitPerMinute > 0 {
		h = httprate.LimitByIP(s.opts.RateLimitPerMinute, time.Minute)(h)
	}
	origins := s.opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
	})(h)
}
