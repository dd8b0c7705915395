// Package server is the web front end: the single page portfolio, its HTMX
// fragments, the reveal streams, the contact form and the admin area.
package server

import (
	"context"
	"crypto/rand"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Zachkp/termfolio/internal/config"
	"github.com/Zachkp/termfolio/internal/contact"
	"github.com/Zachkp/termfolio/internal/content"
	"github.com/Zachkp/termfolio/internal/logging"
	"github.com/Zachkp/termfolio/internal/reveal"
	"github.com/Zachkp/termfolio/internal/sound"
	"github.com/Zachkp/termfolio/internal/store"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

// StaticFS returns the embedded static assets rooted at the static directory.
func StaticFS() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Deps are the collaborators of the Server. Store, Contact and Sound may be
// nil; the matching features are then disabled.
type Deps struct {
	Config  *config.Config
	Content *content.Holder
	Store   *store.Store
	Contact *contact.Service
	Sound   *sound.Player
	Log     *zap.Logger
	// Clock drives the reveal streams; nil means the wall clock.
	Clock reveal.Clock
}

type Server struct {
	cfg     *config.Config
	content *content.Holder
	store   *store.Store
	contact *contact.Service
	sound   *sound.Player
	log     *zap.Logger
	clock   reveal.Clock

	auth    *adminAuth
	limiter *clientLimiter
	tmpl    *template.Template
	engine  *gin.Engine
}

func New(d Deps) (*Server, error) {
	if d.Config == nil || d.Content == nil {
		return nil, errors.New("server: config and content are required")
	}
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	clock := d.Clock
	if clock == nil {
		clock = reveal.RealClock()
	}
	player := d.Sound
	if player == nil {
		player = sound.NewPlayer(nil, sound.WithEnabled(d.Config.SoundEnabled), sound.WithVolume(d.Config.SoundVolume))
	}

	auth, err := newAdminAuth(d.Config, log)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:     d.Config,
		content: d.Content,
		store:   d.Store,
		contact: d.Contact,
		sound:   player,
		log:     log,
		clock:   clock,
		auth:    auth,
		limiter: newClientLimiter(d.Config.ContactRatePerMinute, time.Minute),
	}
	if err := s.routes(); err != nil {
		return nil, err
	}
	return s, nil
}

// Handler exposes the router, for tests and the static export.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() error {
	if s.cfg.GinMode != "" {
		gin.SetMode(s.cfg.GinMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), logging.GinMiddleware(s.log))

	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}
	r.SetHTMLTemplate(tmpl)
	s.tmpl = tmpl
	r.StaticFS("/static", http.FS(StaticFS()))

	r.Use(s.visitorTracking())

	r.GET("/", s.handleIndex)
	r.GET("/sections/:id", s.handleSection)
	r.GET("/reveal/:id", s.handleReveal)
	r.GET("/api/reveal/policy", s.handlePolicy)
	r.GET("/api/sounds", s.handleSounds)
	r.GET("/contact-form", s.handleContactForm)
	r.POST("/contact", s.handleContact)
	r.GET("/resume", s.handleResume)
	r.GET("/go/*key", s.handleGo)
	r.GET("/privacy", s.handlePrivacy)
	r.GET("/healthz", s.handleHealth)

	s.adminRoutes(r)

	s.engine = r
	return nil
}

// RenderStatic writes the page for hosting without this server: assets are
// referenced relatively and reveals are typed by the browser.
func (s *Server) RenderStatic(w io.Writer) error {
	return s.tmpl.ExecuteTemplate(w, "index.html", s.page(true))
}

// SweepLimiter forgets rate limit state of clients idle for longer than idle.
func (s *Server) SweepLimiter(idle time.Duration) int { return s.limiter.Sweep(idle) }

// SyncLinks registers every outbound link of the current content so clicks
// can be counted.
func (s *Server) SyncLinks(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	links := s.content.Get().Links()
	// The resume may come from configuration alone.
	if path, _ := s.ResumeFile(); path != "" {
		links = append(links, content.Link{Key: content.ResumeLinkKey, URL: "/resume", Label: "Resume download"})
	}
	for _, l := range links {
		if err := s.store.UpsertLink(ctx, l.Key, l.URL, l.Label); err != nil {
			return err
		}
	}
	return nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("crypto/rand: %v", err))
	}
	return hex.EncodeToString(b)
}
