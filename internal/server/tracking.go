package server

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var untrackedPrefixes = []string{"/static/", "/admin", "/favicon", "/privacy", "/reveal/", "/api/", "/healthz"}

// visitorTracking records page views under a hashed client address. Do Not
// Track is honoured.
func (s *Server) visitorTracking() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.store == nil || c.Request.Method != "GET" || c.GetHeader("DNT") == "1" {
			c.Next()
			return
		}
		path := c.Request.URL.Path
		for _, p := range untrackedPrefixes {
			if strings.HasPrefix(path, p) {
				c.Next()
				return
			}
		}

		ip, ua := c.ClientIP(), c.GetHeader("User-Agent")
		c.Next()
		if c.Writer.Status() >= 400 {
			return
		}
		ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), 5*time.Second)
		defer cancel()
		if err := s.store.RecordVisit(ctx, ip, ua, path); err != nil {
			s.log.Warn("record visit", zap.Error(err))
		}
	}
}
