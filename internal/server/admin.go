package server

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Zachkp/termfolio/internal/config"
	"github.com/Zachkp/termfolio/internal/store"
)

const adminCookie = "admin_token"

type adminClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// adminAuth checks admin credentials and issues session tokens.
type adminAuth struct {
	username string
	password string
	hash     []byte
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

func newAdminAuth(cfg *config.Config, log *zap.Logger) (*adminAuth, error) {
	a := &adminAuth{
		username: cfg.AdminUsername,
		password: cfg.AdminPassword,
		secret:   []byte(cfg.AdminJWTSecret),
		ttl:      time.Duration(cfg.AdminSessionHours) * time.Hour,
		now:      time.Now,
	}
	if cfg.AdminPasswordHash != "" {
		if _, err := bcrypt.Cost([]byte(cfg.AdminPasswordHash)); err != nil {
			return nil, fmt.Errorf("invalid ADMIN_PASSWORD_HASH: %w", err)
		}
		a.hash = []byte(cfg.AdminPasswordHash)
	}
	if len(a.secret) == 0 {
		// Sessions do not survive a restart without a configured secret.
		a.secret = []byte(randomHex(32))
	}
	if !a.enabled() {
		log.Warn("admin login disabled: set ADMIN_PASSWORD or ADMIN_PASSWORD_HASH")
	}
	return a, nil
}

func (a *adminAuth) enabled() bool { return a.password != "" || len(a.hash) > 0 }

func (a *adminAuth) check(username, password string) bool {
	if !a.enabled() || subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) != 1 {
		return false
	}
	if len(a.hash) > 0 {
		return bcrypt.CompareHashAndPassword(a.hash, []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) == 1
}

func (a *adminAuth) issue(username string) (string, error) {
	now := a.now()
	claims := &adminClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin",
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign admin token: %w", err)
	}
	return token, nil
}

func (a *adminAuth) verify(token string) (*adminClaims, error) {
	if token == "" {
		return nil, errors.New("empty admin token")
	}
	claims := &adminClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithTimeFunc(a.now), jwt.WithSubject("admin"))
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// adminRequired redirects to the login page without a valid session.
func (s *Server) adminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(adminCookie)
		claims, err := s.auth.verify(token)
		if err != nil {
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
			return
		}
		c.Set("admin", claims.Username)
		c.Next()
	}
}

func (s *Server) clientRef(c *gin.Context) string {
	if s.store == nil {
		return ""
	}
	return s.store.HashIP(c.ClientIP())
}

func (s *Server) adminRoutes(r *gin.Engine) {
	r.GET("/admin/login", func(c *gin.Context) {
		c.HTML(http.StatusOK, "admin-login.html", gin.H{
			"title":   "Admin Login",
			"enabled": s.auth.enabled(),
		})
	})

	r.POST("/admin/login", func(c *gin.Context) {
		username := c.PostForm("username")
		if !s.auth.check(username, c.PostForm("password")) {
			s.log.Warn("admin login failed", zap.String("client", s.clientRef(c)))
			c.HTML(http.StatusUnauthorized, "admin-login.html", gin.H{
				"title":   "Admin Login",
				"enabled": s.auth.enabled(),
				"error":   "Invalid credentials",
			})
			return
		}
		token, err := s.auth.issue(username)
		if err != nil {
			s.log.Error("issue admin token", zap.Error(err))
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{"error": "Login failed"})
			return
		}
		secure := s.cfg.GinMode == gin.ReleaseMode
		c.SetSameSite(http.SameSiteStrictMode)
		c.SetCookie(adminCookie, token, int(s.auth.ttl.Seconds()), "/admin", "", secure, true)
		s.log.Info("admin login", zap.String("client", s.clientRef(c)))
		c.Redirect(http.StatusFound, "/admin/dashboard")
	})

	r.GET("/admin/logout", func(c *gin.Context) {
		c.SetCookie(adminCookie, "", -1, "/admin", "", false, true)
		s.log.Info("admin logout", zap.String("client", s.clientRef(c)))
		c.Redirect(http.StatusFound, "/admin/login")
	})

	admin := r.Group("/admin")
	admin.Use(s.adminRequired())

	if s.store == nil {
		admin.GET("/dashboard", func(c *gin.Context) {
			c.HTML(http.StatusOK, "admin-error.html", gin.H{"error": "Visitor tracking is disabled"})
		})
		return
	}

	admin.GET("/dashboard", func(c *gin.Context) {
		stats, err := s.store.Stats(c.Request.Context())
		if err != nil {
			s.log.Error("load admin stats", zap.Error(err))
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{
				"error": "Failed to load statistics",
			})
			return
		}
		c.HTML(http.StatusOK, "admin-dashboard.html", gin.H{
			"title": "Dashboard",
			"stats": stats,
			"user":  c.GetString("admin"),
		})
	})

	admin.GET("/api/stats", func(c *gin.Context) {
		stats, err := s.store.Stats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	})

	admin.GET("/visitors", func(c *gin.Context) {
		visitors, err := s.store.RecentVisitors(c.Request.Context(), 200)
		if err != nil {
			s.log.Error("load visitors", zap.Error(err))
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{"error": "Failed to load visitors"})
			return
		}
		c.HTML(http.StatusOK, "admin-visitors.html", gin.H{"title": "Visitors", "visitors": visitors})
	})

	admin.GET("/links", func(c *gin.Context) {
		links, err := s.store.Links(c.Request.Context(), 500)
		if err != nil {
			s.log.Error("load links", zap.Error(err))
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{"error": "Failed to load links"})
			return
		}
		c.HTML(http.StatusOK, "admin-links.html", gin.H{"title": "Links", "links": links})
	})

	admin.DELETE("/links/*key", func(c *gin.Context) {
		key := c.Param("key")[1:]
		err := s.store.DeleteLink(c.Request.Context(), key)
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Link not found"})
		case err != nil:
			s.log.Error("delete link", zap.String("key", key), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete link"})
		default:
			s.log.Info("link counter deleted", zap.String("key", key), zap.String("client", s.clientRef(c)))
			c.JSON(http.StatusOK, gin.H{"message": "Link deleted successfully"})
		}
	})

	admin.GET("/messages", func(c *gin.Context) {
		msgs, err := s.store.Messages(c.Request.Context(), 200)
		if err != nil {
			s.log.Error("load messages", zap.Error(err))
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{"error": "Failed to load messages"})
			return
		}
		c.HTML(http.StatusOK, "admin-messages.html", gin.H{"title": "Messages", "messages": msgs})
	})

	admin.POST("/privacy/cleanup", func(c *gin.Context) {
		n, err := s.store.CleanupVisitors(c.Request.Context(), s.cfg.VisitorRetention)
		if err != nil {
			s.log.Error("privacy cleanup", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Privacy cleanup failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Privacy cleanup complete", "deleted": n})
	})

	admin.GET("/export/stats", func(c *gin.Context) {
		stats, err := s.store.Stats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Header("Content-Disposition", "attachment; filename=admin-stats.json")
		s.log.Info("admin stats exported", zap.String("client", s.clientRef(c)))
		c.JSON(http.StatusOK, stats)
	})
}
