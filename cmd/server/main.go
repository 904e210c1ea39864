package main

import (
	"github.com/gin-contrib/multitemplate"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"voteboard/internal/cache"
	"voteboard/internal/config"
	"voteboard/internal/handlers"
	"voteboard/internal/identity"
	"voteboard/internal/imaging"
	"voteboard/internal/middleware"
	"voteboard/internal/profiles"
	"voteboard/internal/router"
	"voteboard/internal/store"
)

func main() {
	cfg := config.Load()

	// Storage
	st, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		logrus.WithError(err).Fatal("failed to open store")
	}

	// Cache: shared Redis tier when configured, in-process LRU otherwise.
	var c cache.Cache
	if cfg.RedisAddr != "" {
		c = cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		logrus.WithField("addr", cfg.RedisAddr).Info("using redis cache")
	} else {
		c, err = cache.NewLRU(500)
		if err != nil {
			logrus.WithError(err).Fatal("failed to create LRU cache")
		}
		logrus.Info("using in-process LRU cache")
	}

	profileService := profiles.New(st, c)
	resizer := imaging.NewServiceResizer(cfg.ResizeURL)

	// Identity: Google OAuth in real deployments, static dev identity when
	// no client is configured.
	var provider identity.Provider
	var google *identity.GoogleProvider
	if cfg.GoogleClientID != "" {
		google = identity.NewGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.SiteURL)
		provider = google
	} else {
		provider = identity.Static{User: identity.User{ID: cfg.DevUserID, DisplayName: cfg.DevUserName}}
		logrus.Warn("no GOOGLE_CLIENT_ID configured, using static dev identity")
	}

	// HTTP
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(middleware.ErrorBoundary())

	sessionStore := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("voteboard_session", sessionStore))

	r.HTMLRender = loadTemplates("./web/templates")
	r.Static("/static", "./web/static")

	index := handlers.NewIndexHandler(provider)
	profile := handlers.NewProfileHandler(st, profileService, resizer)
	topics := handlers.NewTopicHandler(st, profileService, resizer)
	uploads := handlers.NewUploadHandler(st)

	router.Register(r, provider, index, profile, topics, uploads)
	if google != nil {
		google.Routes(r)
	}

	logrus.WithField("port", cfg.Port).Info("voteboard server starting")
	if err := r.Run(":" + cfg.Port); err != nil {
		logrus.WithError(err).Fatal("server exited")
	}
}

func loadTemplates(templatesDir string) multitemplate.Renderer {
	r := multitemplate.NewRenderer()
	r.AddFromFiles("index.html", templatesDir+"/index.html")
	return r
}
