// Package server is the reference backend for the sync variant. It exposes
// the JSON API the remote store speaks against and keeps the authoritative
// graph in the same kv storage the local variant uses.
package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wudai/relgraph/internal/config"
	"github.com/wudai/relgraph/internal/store"
)

const uidCookie = "uid"

// one year, matching the browser clients' persistent identity
const uidCookieMaxAge = 365 * 24 * 60 * 60

type Server struct {
	state    *State
	adminKey string
	log      *zap.Logger
}

func New(state *State, cfg config.ServerConfig, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{state: state, adminKey: cfg.AdminKey, log: log}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()
	r.Use(s.identify)

	api := r.Group("/api")
	api.GET("/state", s.GetState)
	api.GET("/admin/ping", s.AdminPing)

	api.POST("/nodes", s.AddNode)
	api.PUT("/nodes/:id", s.UpdateNode)
	api.DELETE("/nodes/:id", s.DeleteNode)

	api.POST("/links", s.AddLink)
	api.DELETE("/links/:id", s.DeleteLink)

	api.POST("/comments", s.AddComment)
	api.PUT("/comments/:id", s.EditComment)
	api.DELETE("/comments/:id", s.DeleteComment)
	api.POST("/comments/:id/like", s.ToggleLike)
	api.POST("/comments/:id/replies", s.AddReply)

	return r
}

// identify resolves the acting client: the x-user-id header wins, then the
// uid cookie. A browser with neither gets a fresh uid cookie so its later
// writes stay attributable.
func (s *Server) identify(c *gin.Context) {
	actor := c.GetHeader("x-user-id")
	if actor == "" {
		if v, err := c.Cookie(uidCookie); err == nil {
			actor = v
		}
	}
	if actor == "" {
		actor = uuid.NewString()
		c.SetCookie(uidCookie, actor, uidCookieMaxAge, "/", "", false, true)
	}
	c.Set("actor", actor)
	c.Next()
}

func (s *Server) actor(c *gin.Context) string {
	return c.GetString("actor")
}

func (s *Server) isAdmin(c *gin.Context) bool {
	return s.adminKey != "" && c.GetHeader("x-admin-key") == s.adminKey
}

// fail translates store errors into the {"error": message} envelope the
// clients parse.
func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrNotOwner), errors.Is(err, store.ErrCenterNode):
		status = http.StatusForbidden
	case errors.Is(err, store.ErrNameRequired),
		errors.Is(err, store.ErrEmptyContent),
		errors.Is(err, store.ErrSelfLink),
		errors.Is(err, store.ErrDuplicateLink),
		errors.Is(err, store.ErrUnknownNode):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (s *Server) GetState(c *gin.Context) {
	snap := s.state.Snapshot()
	c.JSON(http.StatusOK, snap)
}

func (s *Server) AdminPing(c *gin.Context) {
	if !s.isAdmin(c) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid admin key"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) AddNode(c *gin.Context) {
	var req store.NodeFields
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	node, err := s.state.AddNode(s.actor(c), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, node)
}

func (s *Server) UpdateNode(c *gin.Context) {
	var req store.NodeFields
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := s.state.UpdateNode(s.actor(c), s.isAdmin(c), c.Param("id"), req); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (s *Server) DeleteNode(c *gin.Context) {
	if err := s.state.DeleteNode(s.actor(c), s.isAdmin(c), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

type addLinkRequest struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
}

func (s *Server) AddLink(c *gin.Context) {
	var req addLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	link, err := s.state.AddLink(s.actor(c), req.Source, req.Target, req.Type)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, link)
}

func (s *Server) DeleteLink(c *gin.Context) {
	if err := s.state.DeleteLink(s.actor(c), s.isAdmin(c), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

type addCommentRequest struct {
	Author  string `json:"author"`
	Content string `json:"content"`
}

func (s *Server) AddComment(c *gin.Context) {
	var req addCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	comment, err := s.state.AddComment(s.actor(c), req.Author, req.Content)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

type editCommentRequest struct {
	Content string `json:"content"`
}

func (s *Server) EditComment(c *gin.Context) {
	var req editCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := s.state.EditComment(s.actor(c), s.isAdmin(c), c.Param("id"), req.Content); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (s *Server) DeleteComment(c *gin.Context) {
	if err := s.state.DeleteComment(s.actor(c), s.isAdmin(c), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (s *Server) ToggleLike(c *gin.Context) {
	liked, likes, err := s.state.ToggleLike(s.actor(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked, "likes": likes})
}

func (s *Server) AddReply(c *gin.Context) {
	var req editCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	reply, err := s.state.AddReply(s.actor(c), c.Param("id"), req.Content)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, reply)
}
