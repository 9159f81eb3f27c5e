package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"voicechat/backend/internal/apperr"
	"voicechat/backend/internal/chat"
	"voicechat/backend/internal/log"
)

const (
	errEmptyMessage = "Empty message received"
	errInvalidBody  = "Invalid request body"
	errInternal     = "An internal server error occurred"
	errInternalText = "Sorry, something went wrong on the server."
	errSpeechToken  = "Failed to issue speech token."
	errSpeechConfig = "Speech key or region not configured on the server."
)

type chatRequest struct {
	Message             string      `json:"message"`
	ConversationHistory []chat.Turn `json:"conversation_history" binding:"omitempty,dive"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, indexTemplate, gin.H{
		"should_stream_audio": s.opts.AudioEnabled,
		"azure_speech_region": s.opts.SpeechRegion,
	})
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Logger.Warnw("rejecting chat request", "error", err, "request_id", c.GetString(requestIDKey))
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBody})
		return
	}
	if req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errEmptyMessage})
		return
	}

	resp := s.chat.HandleTurn(c.Request.Context(), req.Message, req.ConversationHistory)
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSTSToken(c *gin.Context) {
	if s.tokens == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": errSpeechConfig})
		return
	}
	tok, err := s.tokens.IssueToken(c.Request.Context())
	if apperr.Is(err, apperr.Configuration) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": errSpeechConfig})
		return
	}
	if err != nil {
		log.Logger.Errorw("failed to issue speech token", "error", err, "request_id", c.GetString(requestIDKey))
		c.JSON(http.StatusBadGateway, gin.H{"error": errSpeechToken})
		return
	}
	c.JSON(http.StatusOK, tok)
}
