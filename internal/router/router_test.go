package router

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/omrgrade/omr-backend/internal/config"
	"github.com/omrgrade/omr-backend/internal/grading"
	"github.com/omrgrade/omr-backend/internal/handler"
	"github.com/omrgrade/omr-backend/internal/model"
	"github.com/omrgrade/omr-backend/internal/service"
	"github.com/rs/zerolog"
)

type stubTokens map[string]*service.Claims

func (s stubTokens) ValidateToken(tokenStr string) (*service.Claims, error) {
	if c, ok := s[tokenStr]; ok {
		return c, nil
	}
	return nil, errors.New("bad token")
}

func TestSetupRouter(t *testing.T) {
	def, err := grading.DefaultScheme(grading.StandardDefaults)
	if err != nil {
		t.Fatal(err)
	}
	schemes := service.NewSchemeService(nil, nil, def, zerolog.Nop())

	handlers := &Handlers{
		Auth:    handler.NewAuthHandler(nil),
		Grading: handler.NewGradingHandler(schemes, 1<<20),
		Scheme:  handler.NewSchemeHandler(schemes),
		Test:    handler.NewTestHandler(nil),
		Sheet:   handler.NewSheetHandler(nil, nil, 1<<20, zerolog.Nop()),
		WS:      handler.NewWSHandler(nil, nil, zerolog.Nop(), nil),
	}
	tokens := stubTokens{
		"grader": {OperatorID: 2, Role: model.RoleGrader},
	}
	r := SetupRouter(tokens, handlers, nil, &config.Config{GinMode: "test"})

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		wantStatus int
	}{
		{"health", http.MethodGet, "/health", "", http.StatusOK},
		{"default scheme needs auth", http.MethodGet, "/api/v1/schemes/default", "", http.StatusUnauthorized},
		{"default scheme", http.MethodGet, "/api/v1/schemes/default", "grader", http.StatusOK},
		{"grader cannot create tests", http.MethodPost, "/api/v1/tests", "grader", http.StatusForbidden},
		{"grader cannot delete schemes", http.MethodDelete, "/api/v1/schemes/x", "grader", http.StatusForbidden},
		{"ws needs query token", http.MethodGet, "/ws/v1/tests/x/results", "", http.StatusUnauthorized},
		{"unknown route", http.MethodGet, "/api/v2/tests", "grader", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}
