// Package server bridges engine events onto an HTTP SSE stream and exposes
// the approval REST endpoints consumed by the browser UI.
package server

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/sidedotdev/agentic/config"
	"github.com/sidedotdev/agentic/engine"
	"github.com/sidedotdev/agentic/logger"
	"github.com/sidedotdev/agentic/session"
	"github.com/sidedotdev/agentic/tools"
)

// Server owns one engine session and serializes deliberations over it.
// The auto-approve flag is scoped here rather than being process-global so
// two servers in one process cannot stomp each other's setting.
type Server struct {
	cfg    config.Config
	eng    *engine.Engine
	sess   *session.Session
	runMu  sync.Mutex
	stateM sync.Mutex
	auto   bool
}

// New builds a Server around an already-wired engine and its session.
func New(cfg config.Config, eng *engine.Engine, sess *session.Session) *Server {
	return &Server{cfg: cfg, eng: eng, sess: sess}
}

// Routes builds the gin engine with the full HTTP surface.
func (s *Server) Routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/", s.indexHandler)
	r.GET("/api/chat_stream", s.chatStreamHandler)
	r.POST("/api/chat", s.chatHandler)
	r.POST("/api/approve", s.approveHandler)
	r.GET("/api/auto_approve", s.getAutoApproveHandler)
	r.POST("/api/auto_approve", s.setAutoApproveHandler)
	r.GET("/api/tools", s.toolsHandler)
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	return r
}

// Run starts the HTTP server on the configured port and blocks.
func (s *Server) Run() error {
	log := logger.Get()
	addr := fmt.Sprintf(":%d", s.cfg.ServePort)
	log.Info().Str("addr", addr).Msg("serving http")
	return s.Routes().Run(addr)
}

func (s *Server) autoApprove() bool {
	s.stateM.Lock()
	defer s.stateM.Unlock()
	return s.auto
}

func (s *Server) setAutoApprove(v bool) {
	s.stateM.Lock()
	defer s.stateM.Unlock()
	s.auto = v
}

// decide is the approval hook handed to sinks: auto-approve when the flag
// is on, otherwise defer and let the client resolve by token.
func (s *Server) decide(string) engine.Decision {
	if s.autoApprove() {
		return engine.DecisionApproved
	}
	return engine.DecisionDeferred
}

func (s *Server) pendingPayload() any {
	p, ok := s.sess.Pending()
	if !ok {
		return nil
	}
	return map[string]any{"token": p.Token, "tool": p.Tool, "tool_id": p.ToolID, "args": p.Args}
}

func (s *Server) indexHandler(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexHTML))
}

func (s *Server) toolsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tools": tools.Specs()})
}

func (s *Server) chatStreamHandler(c *gin.Context) {
	q := c.Query("q")

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	sink := newSSESink(c, s.decide)

	s.runMu.Lock()
	_, err := s.eng.ChatStream(c.Request.Context(), sink, q)
	s.runMu.Unlock()
	if err != nil {
		c.SSEvent("error", gin.H{"error": err.Error()})
		c.Writer.Flush()
	}
	c.SSEvent("done", gin.H{})
	c.Writer.Flush()
}

func (s *Server) chatHandler(c *gin.Context) {
	var req struct {
		Input string `json:"input"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json body"})
		return
	}

	sink := newRecordingSink(s.decide)
	s.runMu.Lock()
	_, err := s.eng.ChatOnce(c.Request.Context(), sink, req.Input)
	s.runMu.Unlock()
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"error": err.Error(), "events": sink.Events(), "pending": s.pendingPayload()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": sink.Events(), "pending": s.pendingPayload()})
}

func (s *Server) approveHandler(c *gin.Context) {
	var req struct {
		Token   string `json:"token"`
		Approve bool   `json:"approve"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json body"})
		return
	}

	sink := newRecordingSink(s.decide)
	s.runMu.Lock()
	defer s.runMu.Unlock()

	result, err := s.eng.ResolveApproval(c.Request.Context(), sink, req.Token, req.Approve)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"error": err.Error(), "events": sink.Events(), "pending": s.pendingPayload()})
		return
	}
	if approved, _ := result["approved"].(bool); approved {
		// continue the interrupted deliberation without a new user turn
		if _, err := s.eng.ChatOnce(c.Request.Context(), sink, ""); err != nil {
			c.JSON(http.StatusOK, gin.H{"result": result, "error": err.Error(), "events": sink.Events(), "pending": s.pendingPayload()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"result": result, "events": sink.Events(), "pending": s.pendingPayload()})
}

func (s *Server) getAutoApproveHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"auto_approve": s.autoApprove()})
}

func (s *Server) setAutoApproveHandler(c *gin.Context) {
	var req struct {
		AutoApprove bool `json:"auto_approve"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json body"})
		return
	}
	s.setAutoApprove(req.AutoApprove)
	c.JSON(http.StatusOK, gin.H{"auto_approve": s.autoApprove()})
}
