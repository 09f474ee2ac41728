package handlers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"github.com/hrfunc/hrfunc-site/internal/config"
	"github.com/hrfunc/hrfunc-site/internal/logging"
	"github.com/hrfunc/hrfunc-site/internal/services"
)

type Server struct {
	config      *config.Config
	router      *gin.Engine
	httpServer  *http.Server
	rateLimiter *services.RateLimiter
	normalizer  *services.Normalizer
	forwarder   *services.Forwarder
	audit       *services.AuditLogger
	notifier    *services.Notifier

	templatesLoaded bool
}

func NewServer(cfg *config.Config) *Server {
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	server := &Server{
		config:      cfg,
		router:      router,
		rateLimiter: services.NewRateLimiter(time.Duration(cfg.Upload.CooldownSeconds) * time.Second),
		normalizer:  services.NewNormalizer(cfg.Upload.MaxPayloadBytes),
		forwarder: services.NewForwarder(
			cfg.Upload.ForwardURL,
			cfg.Upload.ForwardAPIKey,
			time.Duration(cfg.Upload.ForwardTimeout)*time.Second,
		),
		audit:    services.NewAuditLogger(cfg.Upload.AuditLogPath),
		notifier: services.NewNotifier(cfg.Email.SMTP),
	}

	server.setupMiddleware()
	server.setupRoutes()

	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return server
}

func (s *Server) setupMiddleware() {
	// Sessions carry flash messages and the per-client upload timestamp.
	secret := s.config.Server.SessionSecret
	if secret == "" {
		secret = randomSecret()
		logging.Warnf("SESSION_SECRET not set, sessions will not survive a restart")
	}
	store := cookie.NewStore([]byte(secret))
	s.router.Use(sessions.Sessions("hrfunc_session", store))

	// CORS
	corsConfig := cors.Config{
		AllowOrigins:     s.config.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept-Encoding", "x-api-key"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	s.router.Use(cors.New(corsConfig))

	// Request logging
	s.router.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	}))

	// Recovery middleware
	s.router.Use(gin.Recovery())
}

func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/health", s.healthCheck)

	// Informational pages
	for _, page := range sitePages {
		s.router.GET(page.Route, s.pageHandler(page))
	}

	// Crawler resources
	s.router.GET("/robots.txt", s.robotsTXT)
	s.router.GET("/sitemap.xml", s.sitemapXML)

	// Upload intake; /upload and /api/upload are legacy aliases
	s.router.POST("/upload_json", s.uploadJSON)
	s.router.POST("/upload", s.uploadJSON)
	s.router.POST("/api/upload", s.uploadJSON)

	if matches, err := filepath.Glob(s.config.Server.TemplatesGlob); err == nil && len(matches) > 0 {
		s.router.LoadHTMLGlob(s.config.Server.TemplatesGlob)
		s.templatesLoaded = true
	} else {
		logging.Warnf("no templates matched %q, pages will render as plain text", s.config.Server.TemplatesGlob)
	}
}

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

func randomSecret() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		// crypto/rand failing means the process has bigger problems
		panic(err)
	}
	return hex.EncodeToString(bytes)
}
