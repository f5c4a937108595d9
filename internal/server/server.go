package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/yanote/notes/backend/go-services/handlers"
	"github.com/yanote/notes/backend/go-services/internal/config"
	"github.com/yanote/notes/backend/go-services/internal/note/handler"
	"github.com/yanote/notes/backend/go-services/internal/note/service"
	"github.com/yanote/notes/backend/go-services/internal/sessions"
	"github.com/yanote/notes/backend/go-services/internal/users"
	"github.com/yanote/notes/backend/go-services/pkg/metrics"
	"github.com/yanote/notes/backend/go-services/pkg/middleware"
)

// LoginPath is where LoginRequired sends anonymous browsers.
const LoginPath = "/auth/login"

// Deps are the services the HTTP layer is built from.
type Deps struct {
	Config   *config.Config
	Notes    service.Service
	Users    *users.Service
	Sessions *sessions.Service

	// AccessVerifier checks the service's own access tokens; IDVerifier checks Keycloak id tokens at login.
	AccessVerifier middleware.Verifier
	IDVerifier     middleware.Verifier
	Blacklist      *sessions.Blacklist
	Redis          *redis.Client

	// StorePing reports whether the note store is reachable. nil means always ready.
	StorePing func(ctx context.Context) error
}

var (
	startTime    = time.Now()
	registerOnce sync.Once
)

// New builds the gin engine with every route mounted.
func New(d Deps) *gin.Engine {
	registerOnce.Do(func() { metrics.RegisterCollectors(prometheus.DefaultRegisterer) })

	r := gin.New()
	r.Use(cors(), gin.Logger(), gin.Recovery())
	if rl := d.Config.RateLimit; rl.Enabled {
		if rl.UseRedis && d.Redis != nil {
			r.Use(middleware.RedisRateLimitMiddleware(d.Redis, rl.RPS, rl.Burst, time.Duration(rl.WindowSeconds)*time.Second))
		} else {
			r.Use(middleware.RateLimitMiddleware(rl.RPS, rl.Burst))
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})
	r.GET("/ready", ready(d))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterSwagger(r)

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"title": "Notes",
			"links": gin.H{"notes": handler.ListPath, "add": "/add/", "login": LoginPath},
		})
	})

	handlers.NewAuthHandler(d.Config, d.Users, d.Sessions, d.IDVerifier, d.Blacklist).Register(r)

	requireLogin := middleware.LoginRequired(d.AccessVerifier, d.Blacklist, d.Users, LoginPath)
	handlers.NewAccountHandler(d.Users).Register(r, requireLogin)
	handler.RegisterNoteRoutes(r, d.Notes, requireLogin)
	return r
}

// cors is a permissive policy for the browser frontend during development.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		h.Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}

// ready answers 200 only when the note store, Redis (if configured) and the id token verifier
// (if Keycloak is configured) are available.
func ready(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		deps := map[string]bool{"storage": true, "redis": true, "oidc": true}
		if d.StorePing != nil {
			deps["storage"] = d.StorePing(ctx) == nil
		}
		if d.Config.RedisAddr() != "" {
			deps["redis"] = d.Redis != nil && d.Redis.Ping(ctx).Err() == nil
		}
		if d.Config.Keycloak.URL != "" {
			deps["oidc"] = d.IDVerifier != nil
		}

		status, code := "ready", http.StatusOK
		for _, ok := range deps {
			if !ok {
				status, code = "not_ready", http.StatusServiceUnavailable
				break
			}
		}
		c.JSON(code, gin.H{"status": status, "deps": deps, "uptime": fmt.Sprint(time.Since(startTime))})
	}
}
