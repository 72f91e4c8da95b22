package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/omrgrade/omr-backend/internal/model"
	"github.com/omrgrade/omr-backend/internal/service"
)

type stubValidator map[string]*service.Claims

func (s stubValidator) ValidateToken(tokenStr string) (*service.Claims, error) {
	if c, ok := s[tokenStr]; ok {
		return c, nil
	}
	return nil, errors.New("bad token")
}

var tokens = stubValidator{
	"admin":  {OperatorID: 1, Role: model.RoleAdmin},
	"grader": {OperatorID: 2, Role: model.RoleGrader},
}

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	ok := func(c *gin.Context) {
		c.String(http.StatusOK, "%d", GetClaims(c).OperatorID)
	}
	r.GET("/api", RequireOperatorJWT(tokens), ok)
	r.GET("/admin", RequireOperatorJWT(tokens), RequireRole(model.RoleAdmin), ok)
	r.GET("/ws", RequireWSAuth(tokens), ok)
	return r
}

func TestAuthMiddleware(t *testing.T) {
	r := newEngine()

	tests := []struct {
		name       string
		path       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"bearer ok", "/api", "Bearer grader", http.StatusOK, "2"},
		{"lowercase scheme", "/api", "bearer admin", http.StatusOK, "1"},
		{"no header", "/api", "", http.StatusUnauthorized, ""},
		{"not bearer", "/api", "Basic grader", http.StatusUnauthorized, ""},
		{"unknown token", "/api", "Bearer nope", http.StatusUnauthorized, ""},
		{"role allowed", "/admin", "Bearer admin", http.StatusOK, "1"},
		{"role denied", "/admin", "Bearer grader", http.StatusForbidden, ""},
		{"ws query token", "/ws?token=grader", "", http.StatusOK, "2"},
		{"ws missing token", "/ws", "Bearer grader", http.StatusUnauthorized, ""},
		{"ws bad token", "/ws?token=nope", "", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && w.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestCacheControl(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", CacheControl(time.Minute), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if got := w.Header().Get("Cache-Control"); got != "private, max-age=60" {
		t.Errorf("Cache-Control = %q", got)
	}
}

func TestBrotli(t *testing.T) {
	gin.SetMode(gin.TestMode)
	long := strings.Repeat("graded ", 400)
	r := gin.New()
	r.Use(Brotli())
	r.GET("/long", func(c *gin.Context) { c.String(http.StatusOK, long) })
	r.GET("/short", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	tests := []struct {
		name         string
		path         string
		accept       string
		wantEncoding string
		wantBody     string
	}{
		{"compressed", "/long", "gzip, br;q=1.0", "br", long},
		{"below min length", "/short", "br", "", "ok"},
		{"not accepted", "/long", "gzip", "", long},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set("Accept-Encoding", tt.accept)
			r.ServeHTTP(w, req)

			if got := w.Header().Get("Content-Encoding"); got != tt.wantEncoding {
				t.Fatalf("Content-Encoding = %q, want %q", got, tt.wantEncoding)
			}

			var body []byte
			if tt.wantEncoding == "br" {
				var err error
				body, err = io.ReadAll(brotli.NewReader(w.Body))
				if err != nil {
					t.Fatalf("decode: %v", err)
				}
			} else {
				body = w.Body.Bytes()
			}
			if string(body) != tt.wantBody {
				t.Errorf("body length = %d, want %d", len(body), len(tt.wantBody))
			}
		})
	}
}
