package server

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Zachkp/termfolio/internal/content"
	"github.com/Zachkp/termfolio/internal/store"
)

func (s *Server) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", s.page(false))
}

// handleSection returns one section as an HTMX fragment.
func (s *Server) handleSection(c *gin.Context) {
	p := s.page(false)
	id := c.Param("id")
	if _, ok := p.P.Section(id); !ok {
		c.String(http.StatusNotFound, "unknown section")
		return
	}
	c.HTML(http.StatusOK, "section-"+id+".html", p.section(id))
}

func (s *Server) handleSounds(c *gin.Context) {
	c.JSON(http.StatusOK, s.sound.Catalog())
}

func (s *Server) handlePolicy(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"policy": s.cfg.RevealPolicy.String()})
}

// ResumeFile resolves the resume path and download name. Configuration wins
// over content.
func (s *Server) ResumeFile() (path, name string) {
	r := s.content.Get().Resume
	path = s.cfg.ResumePath
	if path == "" {
		path = r.Path
	}
	name = s.cfg.ResumeName
	if name == "" {
		name = r.Filename
	}
	if name == "" && path != "" {
		name = filepath.Base(path)
	}
	return path, name
}

func (s *Server) handleResume(c *gin.Context) {
	path, name := s.ResumeFile()
	if path == "" {
		c.String(http.StatusNotFound, "resume not available")
		return
	}
	if _, err := os.Stat(path); err != nil {
		s.log.Warn("resume missing", zap.String("path", path), zap.Error(err))
		c.String(http.StatusNotFound, "resume not available")
		return
	}
	s.countClick(c, content.ResumeLinkKey)
	c.FileAttachment(path, name)
}

// handleGo redirects to a tracked outbound link.
func (s *Server) handleGo(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	for _, l := range s.content.Get().Links() {
		if l.Key != key {
			continue
		}
		s.countClick(c, key)
		c.Redirect(http.StatusFound, l.URL)
		return
	}
	c.String(http.StatusNotFound, "unknown link")
}

func (s *Server) countClick(c *gin.Context, key string) {
	if s.store == nil {
		return
	}
	if _, err := s.store.Follow(c.Request.Context(), key); err != nil && !errors.Is(err, store.ErrNotFound) {
		s.log.Warn("count link click", zap.String("key", key), zap.Error(err))
	}
}

func (s *Server) handlePrivacy(c *gin.Context) {
	c.HTML(http.StatusOK, "privacy.html", gin.H{
		"title":     "Privacy Policy",
		"retention": s.cfg.VisitorRetention.String(),
		"tracking":  s.store != nil,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	status := gin.H{"status": "ok", "reveal_policy": s.cfg.RevealPolicy.String()}
	if s.store != nil {
		if err := s.store.Ping(c.Request.Context()); err != nil {
			status["status"] = "degraded"
			status["database"] = err.Error()
			c.JSON(http.StatusServiceUnavailable, status)
			return
		}
		status["database"] = "ok"
	}
	c.JSON(http.StatusOK, status)
}
