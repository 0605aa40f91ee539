package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"checkin/internal/activity"
	"checkin/internal/auth"
	"checkin/internal/httpmiddleware"
	"checkin/internal/student"
)

// StatsCache caches the dashboard summary.
type StatsCache interface {
	Get(ctx context.Context) (student.Stats, bool, error)
	Set(ctx context.Context, st student.Stats) error
}

// TokenConfig controls session token issuance.
type TokenConfig struct {
	Issuer     string
	SigningKey string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Deps are the collaborators of the HTTP layer.
type Deps struct {
	Students  *student.Service
	Activity  activity.Log
	Stats     StatsCache
	Accounts  auth.Accounts
	Verifiers []auth.Verifier
	Tokens    TokenConfig
	Limiter   httpmiddleware.Limiter
	Location  *time.Location
	// Health reports the reachability of each backing service.
	Health func(ctx context.Context) map[string]bool
	Now    func() time.Time
}

type handlers struct {
	Deps
}

// NewRouter builds the gin engine serving the admin and scan APIs.
func NewRouter(d Deps) *gin.Engine {
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	h := &handlers{Deps: d}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(cors.New(cors.Config{
		AllowOriginFunc:  func(string) bool { return true },
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}))
	r.Use(securityHeaders())
	if d.Limiter != nil {
		r.Use(httpmiddleware.RateLimit(d.Limiter))
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", h.healthz)

	r.POST("/v1/sessions", h.login)
	r.POST("/v1/sessions/refresh", h.refresh)

	v1 := r.Group("/v1", auth.Required(d.Verifiers...))
	staff := v1.Group("", auth.RequireRole(auth.RoleStaff))
	admin := v1.Group("", auth.RequireRole(auth.RoleAdmin))

	staff.GET("/students", h.listStudents)
	staff.GET("/students/:id", h.getStudent)
	staff.GET("/students/:id/qr", h.studentQR)
	staff.GET("/stats", h.stats)
	staff.GET("/activity", h.recentActivity)

	admin.POST("/students", h.createStudent)
	admin.DELETE("/students/:id", h.deleteStudent)
	admin.PUT("/students/:id/fee", h.updateFee)
	admin.DELETE("/students/:id/checkin", h.deleteCheckIn)
	admin.DELETE("/students/:id/checkout", h.deleteCheckOut)
	admin.POST("/imports", h.importRoster)
	admin.GET("/imports/template", h.importTemplate)
	admin.GET("/exports", h.exportRoster)

	staff.GET("/scan/search", h.scanSearch)
	staff.GET("/scan/:qr", h.scanLookup)
	staff.POST("/scan/:qr/checkin", h.scanCheckIn)
	staff.POST("/scan/:qr/checkout", h.scanCheckOut)

	return r
}

func (h *handlers) healthz(c *gin.Context) {
	status := http.StatusOK
	checks := map[string]bool{}
	if h.Health != nil {
		checks = h.Health(c.Request.Context())
	}
	for _, ok := range checks {
		if !ok {
			status = http.StatusServiceUnavailable
		}
	}
	body := gin.H{"status": "ok"}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	for name, ok := range checks {
		body[name] = ok
	}
	c.JSON(status, body)
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
