package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"missing is generated", "", false},
		{"plain id is kept", "Z-REQ-123", true},
		{"id with space is replaced", "bad id", false},
		{"control chars are replaced", "rid\x01", false},
		{"oversized is replaced", strings.Repeat("a", maxRequestIDLen+1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			r := gin.New()
			r.Use(RequestID())
			r.GET("/rid", func(c *gin.Context) {
				seen = RequestIDFrom(c)
				c.Status(http.StatusNoContent)
			})

			req := httptest.NewRequest(http.MethodGet, "/rid", nil)
			if tt.incoming != "" {
				req.Header.Set(requestIDHeader, tt.incoming)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			got := w.Header().Get(requestIDHeader)
			if got != seen {
				t.Fatalf("response id %q != context id %q", got, seen)
			}
			if tt.keep {
				if got != tt.incoming {
					t.Fatalf("id = %q, want %q", got, tt.incoming)
				}
				return
			}
			if _, err := uuid.Parse(got); err != nil {
				t.Fatalf("expected generated UUID, got %q", got)
			}
		})
	}
}

func TestRequestIDFrom_HeaderFallbacks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if got := RequestIDFrom(c); got != "" {
		t.Fatalf("empty request: %q", got)
	}
	c.Request.Header.Set(requestIDHeader, "from-request")
	if got := RequestIDFrom(c); got != "from-request" {
		t.Fatalf("request header: %q", got)
	}
	c.Header(requestIDHeader, "from-response")
	if got := RequestIDFrom(c); got != "from-response" {
		t.Fatalf("response header: %q", got)
	}
	c.Set(requestIDKey, "from-context")
	if got := RequestIDFrom(c); got != "from-context" {
		t.Fatalf("context: %q", got)
	}
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := withCapturedLogger(t)

	r := gin.New()
	r.Use(RequestID(), RedactingLogger(RedactOptions{}), Recovery())
	r.GET("/panic", func(*gin.Context) { panic("kaboom") })
	r.GET("/panic-after-write", func(c *gin.Context) {
		c.String(http.StatusOK, "partial")
		panic("late kaboom")
	})

	t.Run("envelope", func(t *testing.T) {
		buf.Reset()
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d", w.Code)
		}
		var body map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("body is not JSON: %v", err)
		}
		want := map[string]string{
			"request_id": w.Header().Get(requestIDHeader),
			"code":       "internal_error",
			"message":    "internal server error",
		}
		for k, v := range want {
			if body[k] != v {
				t.Fatalf("%s = %q, want %q", k, body[k], v)
			}
		}
		if strings.Contains(w.Body.String(), "kaboom") {
			t.Fatal("panic value leaked to client")
		}
		if !strings.Contains(buf.String(), `"message":"panic recovered"`) {
			t.Fatalf("panic not logged:\n%s", buf.String())
		}
	})

	t.Run("after write", func(t *testing.T) {
		buf.Reset()
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic-after-write", nil))

		if strings.Contains(w.Body.String(), "internal_error") {
			t.Fatalf("envelope appended to a written body: %q", w.Body.String())
		}
		if !strings.Contains(buf.String(), `"panic":"late kaboom"`) {
			t.Fatalf("panic not logged:\n%s", buf.String())
		}
	})
}

func TestLoggerFrom(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := withCapturedLogger(t)

	plain := gin.New()
	plain.GET("/x", func(c *gin.Context) {
		LoggerFrom(c).Info().Msg("fallback")
		c.Status(http.StatusOK)
	})
	plain.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
	if line := lastLine(t, buf); line["message"] != "fallback" || line["request_id"] != nil {
		t.Fatalf("fallback logger line: %v", line)
	}

	buf.Reset()
	scoped := gin.New()
	scoped.Use(RequestID(), RedactingLogger(RedactOptions{}))
	scoped.GET("/x", func(c *gin.Context) {
		LoggerFrom(c).Info().Msg("scoped")
		c.Status(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(requestIDHeader, "rid-scoped")
	scoped.ServeHTTP(httptest.NewRecorder(), req)

	first := strings.SplitN(buf.String(), "\n", 2)[0]
	if !strings.Contains(first, `"message":"scoped"`) ||
		!strings.Contains(first, `"request_id":"rid-scoped"`) ||
		!strings.Contains(first, `"path":"/x"`) {
		t.Fatalf("scoped logger line: %s", first)
	}
}
