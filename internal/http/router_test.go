package httpapi

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-rest-errors/internal/config"
	"github.com/tbourn/go-rest-errors/internal/fault"
	"github.com/tbourn/go-rest-errors/internal/http/handlers"
)

type memberRequest struct {
	Name  string `json:"name"  binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

// members is a stand-in for an application resource raising each fault kind.
var members = ResourceFunc(func(api *gin.RouterGroup) {
	api.GET("/members/:id", func(c *gin.Context) {
		_ = c.Error(fault.WebRequest(http.StatusNotFound, nil))
	})
	api.POST("/members", func(c *gin.Context) {
		var req memberRequest
		if !handlers.BindJSON(c, &req) {
			return
		}
		if req.Email == "taken@example.com" {
			_ = c.Error(fault.ErrEmailTaken)
			return
		}
		c.JSON(http.StatusCreated, req)
	})
	api.GET("/lookup", func(c *gin.Context) {
		_ = c.Error(errors.New("bad id"))
	})
	api.GET("/panic", func(c *gin.Context) {
		panic("kaboom")
	})
})

func testConfig() config.Config {
	return config.Config{
		API:       config.APIConfig{BasePath: "/api/v1", MaxBodyBytes: 1 << 20},
		RateLimit: config.RateLimitConfig{RPS: 1000, Burst: 1000},
		OTEL:      config.OTELConfig{ServiceName: "test-svc"},
	}
}

func newRouter(t *testing.T, cfg config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, cfg, members)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var out map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("json: %v (body=%q)", err, w.Body.String())
	}
	return out
}

func TestRegisterRoutes_CORSAllowAll_Health_Metrics_Fallbacks(t *testing.T) {
	r := newRouter(t, testConfig())

	w := do(r, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}
	if w.Header().Get("X-Request-ID") == "" || w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("request id / security headers missing: %v", w.Header())
	}

	w = do(r, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK || w.Body.Len() == 0 {
		t.Fatalf("GET /metrics bad: code=%d len=%d", w.Code, w.Body.Len())
	}

	w = do(r, http.MethodGet, "/nope", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope expected 404, got %d", w.Code)
	}
	var env handlers.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil || env.Code != handlers.ErrCodeNotFound {
		t.Fatalf("404 envelope unexpected: %v %+v", err, env)
	}

	w = do(r, http.MethodPost, "/health", "")
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /health expected 405, got %d", w.Code)
	}
}

func TestRegisterRoutes_CORSWithOrigins_HeaderEcho(t *testing.T) {
	cfg := testConfig()
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"http://example.com"}}
	r := newRouter(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Fatalf("expected echoed origin, got %q", got)
	}
}

func TestRest_GenericFailure(t *testing.T) {
	r := newRouter(t, testConfig())

	w := do(r, http.MethodGet, "/api/v1/lookup", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
	if got := decodeBody(t, w); !reflect.DeepEqual(got, map[string]string{"error": "bad id"}) {
		t.Fatalf("body=%v", got)
	}
}

func TestRest_ValidationFailure(t *testing.T) {
	r := newRouter(t, testConfig())

	w := do(r, http.MethodPost, "/api/v1/members", `{"name":"Jane","email":"taken@example.com"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("status=%d", w.Code)
	}
	if got := decodeBody(t, w); !reflect.DeepEqual(got, map[string]string{"email": "Email taken"}) {
		t.Fatalf("body=%v", got)
	}
}

func TestRest_WebRequestFailure(t *testing.T) {
	r := newRouter(t, testConfig())

	w := do(r, http.MethodGet, "/api/v1/members/42", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Fatalf("expected empty body, got %q", w.Body.String())
	}
	if w.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("error response should not be cacheable: %v", w.Header())
	}
}

func TestRest_ConstraintViolations(t *testing.T) {
	r := newRouter(t, testConfig())

	w := do(r, http.MethodPost, "/api/v1/members", `{"name":"","email":"invalid"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
	want := map[string]string{
		"name":  "must not be blank",
		"email": "must be a well-formed email address",
	}
	if got := decodeBody(t, w); !reflect.DeepEqual(got, want) {
		t.Fatalf("body=%v want %v", got, want)
	}
}

func TestRest_BindingEdgeCases(t *testing.T) {
	r := newRouter(t, testConfig())

	w := do(r, http.MethodPost, "/api/v1/members", `not json`)
	if w.Code != http.StatusBadRequest || decodeBody(t, w)["error"] == "" {
		t.Fatalf("malformed JSON: status=%d body=%q", w.Code, w.Body.String())
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/members", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty body: status=%d", w.Code)
	}
	if got := decodeBody(t, w); got["error"] != "request body is empty" {
		t.Fatalf("empty body: %v", got)
	}

	w = do(r, http.MethodPost, "/api/v1/members", `{"name":"Jane","email":"jane@example.com"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("valid member: status=%d body=%q", w.Code, w.Body.String())
	}
}

func TestRest_BodyTooLarge_Is413(t *testing.T) {
	cfg := testConfig()
	cfg.API.MaxBodyBytes = 16
	r := newRouter(t, cfg)

	w := do(r, http.MethodPost, "/api/v1/members", `{"name":"Jane","email":"jane@example.com"}`)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status=%d body=%q", w.Code, w.Body.String())
	}
}

func TestRest_PanicIsNotMapped(t *testing.T) {
	r := newRouter(t, testConfig())

	w := do(r, http.MethodGet, "/api/v1/panic", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	var env handlers.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil || env.Code != handlers.ErrCodeInternal {
		t.Fatalf("panic envelope unexpected: %v %q", err, w.Body.String())
	}
}

func TestRest_RateLimitedFlowsThroughMapper(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.RPS = 0.001
	cfg.RateLimit.Burst = 1
	r := newRouter(t, cfg)

	if w := do(r, http.MethodGet, "/api/v1/lookup", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("first request should reach the handler, got %d", w.Code)
	}
	w := do(r, http.MethodGet, "/api/v1/lookup", "")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: status=%d", w.Code)
	}
	if w.Header().Get("Retry-After") != "1" || w.Body.Len() != 0 {
		t.Fatalf("429 should carry Retry-After and no body: %v %q", w.Header(), w.Body.String())
	}

	// Operational routes are outside the REST group and not limited.
	if w := do(r, http.MethodGet, "/health", ""); w.Code != http.StatusOK {
		t.Fatalf("/health limited: %d", w.Code)
	}
}

func TestRest_GzipErrorBody(t *testing.T) {
	r := newRouter(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/lookup", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
	raw := w.Body.Bytes()
	if w.Header().Get("Content-Encoding") == "gzip" {
		zr, err := gzip.NewReader(w.Body)
		if err != nil {
			t.Fatalf("gzip reader: %v", err)
		}
		defer zr.Close()
		if raw, err = io.ReadAll(zr); err != nil {
			t.Fatalf("gunzip: %v", err)
		}
	}
	var body map[string]string
	if err := json.Unmarshal(raw, &body); err != nil || body["error"] != "bad id" {
		t.Fatalf("decoded body=%q err=%v", raw, err)
	}
}

func TestRest_FaultMetricsExported(t *testing.T) {
	r := newRouter(t, testConfig())
	_ = do(r, http.MethodGet, "/api/v1/members/7", "")

	w := do(r, http.MethodGet, "/metrics", "")
	if !strings.Contains(w.Body.String(), `http_error_events_total{kind="web_request",status="404"}`) {
		t.Fatalf("fault metric missing from /metrics")
	}
}

func TestRegisterRoutes_SwaggerEnabled(t *testing.T) {
	cfg := testConfig()
	cfg.API.SwaggerEnabled = true
	r := newRouter(t, cfg)

	w := do(r, http.MethodGet, "/swagger/doc.json", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Email taken") {
		t.Fatalf("swagger doc: status=%d body=%q", w.Code, w.Body.String())
	}

	cfg.API.SwaggerEnabled = false
	r = newRouter(t, cfg)
	if w := do(r, http.MethodGet, "/swagger/doc.json", ""); w.Code != http.StatusNotFound {
		t.Fatalf("swagger should be disabled, got %d", w.Code)
	}
}

func TestGroupWithPrefix_RootAndLimitBodyDefault(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if g := groupWithPrefix(r, "/"); g.BasePath() != "/" {
		t.Fatalf("root group base path = %q", g.BasePath())
	}
	if g := groupWithPrefix(r, "/api/v2"); g.BasePath() != "/api/v2" {
		t.Fatalf("group base path = %q", g.BasePath())
	}
	if limitBody(0) == nil {
		t.Fatalf("limitBody(0) should fall back to the default cap")
	}
}
