// Package httpapi wires the HTTP transport (Gin): cross-cutting middleware,
// operational endpoints, and the REST group in which raised errors are
// translated into HTTP responses by the fault mapper.
//
// Resources of the surrounding application are mounted into the REST group
// through the Resource interface; they report failures with c.Error (or
// handlers.BindJSON) and let RestErrors render them.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tbourn/go-rest-errors/internal/config"
	"github.com/tbourn/go-rest-errors/internal/docs"
	"github.com/tbourn/go-rest-errors/internal/errmap"
	"github.com/tbourn/go-rest-errors/internal/http/handlers"
	"github.com/tbourn/go-rest-errors/internal/http/middleware"
)

// defaultMaxBodyBytes applies when the configured cap is not positive.
const defaultMaxBodyBytes = 1 << 20

// Resource mounts REST endpoints into the API group.
type Resource interface {
	Register(api *gin.RouterGroup)
}

// ResourceFunc adapts a plain function to Resource.
type ResourceFunc func(api *gin.RouterGroup)

// Register calls f(api).
func (f ResourceFunc) Register(api *gin.RouterGroup) { f(api) }

// RegisterRoutes attaches middleware, operational endpoints and the REST
// group to r, then mounts every resource into the group.
//
// Global chain, outermost first: tracing, request ID, access logger, panic
// recovery, body cap, metrics (/metrics is served before compression), gzip,
// CORS, security headers. Inside the REST group RestErrors runs first so it
// sees faults recorded by the rate limiter and by every resource.
func RegisterRoutes(r *gin.Engine, cfg config.Config, resources ...Resource) {
	r.HandleMethodNotAllowed = true

	r.Use(
		otelgin.Middleware(cfg.OTEL.ServiceName),
		middleware.RequestID(),
		middleware.RedactingLogger(middleware.RedactOptions{MaskHeaders: []string{"X-API-Key"}}),
		middleware.Recovery(),
		limitBody(cfg.API.MaxBodyBytes),
		middleware.Metrics(),
	)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(corsHandlers(cfg.CORS.AllowedOrigins)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:    cfg.Security.EnableHSTS,
		HSTSMaxAge:    cfg.Security.HSTSMaxAge,
		NoStoreErrors: true,
		EnablePolicy:  true,
	}))

	registerFallbacks(r)
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.API.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.API.BasePath
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := groupWithPrefix(r, cfg.API.BasePath)
	api.Use(
		handlers.RestErrors(errmap.New()),
		middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, middleware.KeyByUserOrIP()).Handler(),
	)
	for _, res := range resources {
		res.Register(api)
	}
}

// corsHandlers allows every origin when origins is empty. Otherwise only the
// listed origins are echoed back. The explicit ACAO header covers requests
// that carry no Origin, which gin-contrib/cors leaves untouched.
func corsHandlers(origins []string) []gin.HandlerFunc {
	cc := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID"},
		ExposeHeaders: []string{"X-Request-ID", "Content-Length", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}

	var echo gin.HandlerFunc
	if len(origins) == 0 {
		cc.AllowAllOrigins = true
		echo = func(c *gin.Context) {
			c.Header("Access-Control-Allow-Origin", "*")
			c.Next()
		}
	} else {
		cc.AllowOrigins = origins
		allowed := make(map[string]bool, len(origins))
		for _, o := range origins {
			allowed[o] = true
		}
		echo = func(c *gin.Context) {
			if o := c.GetHeader("Origin"); allowed[o] {
				c.Header("Access-Control-Allow-Origin", o)
				c.Writer.Header().Add("Vary", "Origin")
			}
			c.Next()
		}
	}
	return []gin.HandlerFunc{echo, cors.New(cc)}
}

// registerFallbacks answers unknown routes and methods with the envelope.
func registerFallbacks(r *gin.Engine) {
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})
}

// limitBody caps request bodies with http.MaxBytesReader. Reads past the cap
// fail with *http.MaxBytesError, which the fault mapper answers with 413.
func limitBody(maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		maxBytes = defaultMaxBodyBytes
	}
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
