package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"schoolattend/internal/auth"
	"schoolattend/internal/checkin"
	"schoolattend/internal/config"
	"schoolattend/internal/httpmiddleware"
	"schoolattend/internal/queue"
	"schoolattend/internal/store"
)

// Server bundles the handlers' dependencies.
type Server struct {
	cfg   config.App
	store checkin.Store
	svc   *checkin.Service
	queue queue.Queue
	db    *store.DB
	rdb   *store.Redis
}

// NewServer wires handlers to their collaborators. db and rdb may be nil in
// tests and memory-backed dev runs; dependent endpoints then degrade.
func NewServer(cfg config.App, st checkin.Store, svc *checkin.Service, q queue.Queue, db *store.DB, rdb *store.Redis) *Server {
	return &Server{cfg: cfg, store: st, svc: svc, queue: q, db: db, rdb: rdb}
}

// Router builds the gin engine with the full middleware stack and routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewTokenBucket(s.cfg.RateLimitPerMin, s.cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", s.health)

	r.POST("/v1/kiosks/register", s.registerKiosk)
	r.POST("/v1/attendance/check-in", s.checkIn)
	r.POST("/v1/attendance/decode", s.decodePayload)

	protected := r.Group("/v1", auth.KioskAuth(s.cfg.JWTSigningKey, s.cfg.JWTIssuer))
	protected.POST("/attendance/qr", s.issueQR)
	protected.GET("/attendance", s.listAttendance)
	protected.GET("/attendance/summary", s.daySummary)
	protected.POST("/staff", s.upsertStaff)
	protected.GET("/staff", s.listStaff)
	protected.GET("/staff/:id", s.getStaff)

	return r
}

func (s *Server) health(c *gin.Context) {
	redisHealthy := s.rdb.Healthy(c.Request.Context())
	dbHealthy := s.db != nil
	status := http.StatusOK
	if !redisHealthy || !dbHealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
