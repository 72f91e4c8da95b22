package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/omrgrade/omr-backend/internal/grading"
	"github.com/omrgrade/omr-backend/internal/response"
	"github.com/omrgrade/omr-backend/internal/service"
	"github.com/omrgrade/omr-backend/internal/validator"
	"github.com/rs/zerolog"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	validator.Setup()
	os.Exit(m.Run())
}

type envelope struct {
	Data  json.RawMessage     `json:"data"`
	Error *response.ErrorBody `json:"error"`
}

func newSchemeService(t *testing.T) *service.SchemeService {
	t.Helper()
	def, err := grading.DefaultScheme(grading.StandardDefaults)
	if err != nil {
		t.Fatalf("default scheme: %v", err)
	}
	return service.NewSchemeService(nil, nil, def, zerolog.Nop())
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return w, env
}

func TestGradingHandler_Grade(t *testing.T) {
	r := gin.New()
	r.POST("/grade", NewGradingHandler(newSchemeService(t), 1<<20).Grade)

	const groups = `"groups":[{"name":"A","orientation":"VERTICAL","alternatives":4,"questions":3,"correct":[[0],[1],[2]]}]`

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   response.ErrCode
		wantTotal  float64
	}{
		{
			// correct, incorrect, multiple under the default scheme
			name:       "default scheme",
			body:       `{` + groups + `,"marks":[[[-1,1,1,1],[1,1,-1,1],[-1,-1,1,1]]]}`,
			wantStatus: http.StatusOK,
			wantTotal:  0,
		},
		{
			name:       "custom scheme",
			body:       `{` + groups + `,"marks":[[[-1,1,1,1],[1,-1,1,1],[1,1,1,1]]],"scheme":{"correct_score":4,"incorrect_score":-1,"default_score":0,"multiple_selected_score":-1,"min_score":-1,"max_score":4}}`,
			wantStatus: http.StatusOK,
			wantTotal:  8,
		},
		{
			name:       "missing marks",
			body:       `{` + groups + `}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   response.ErrValidation,
		},
		{
			name:       "inverted bounds",
			body:       `{` + groups + `,"marks":[],"scheme":{"correct_score":1,"incorrect_score":0,"default_score":0,"multiple_selected_score":0,"min_score":2,"max_score":1}}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   response.ErrValidation,
		},
		{
			name:       "bad orientation",
			body:       `{"groups":[{"orientation":"DIAGONAL","alternatives":2,"questions":1}],"marks":[]}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   response.ErrValidation,
		},
		{
			name:       "key outside layout",
			body:       `{"groups":[{"orientation":"HORIZONTAL","alternatives":2,"questions":1,"correct":[[3]]}],"marks":[]}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   response.ErrInvalidKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := doJSON(t, r, http.MethodPost, "/grade", tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantCode != "" {
				if env.Error == nil || env.Error.Code != tt.wantCode {
					t.Fatalf("error = %+v, want code %s", env.Error, tt.wantCode)
				}
				return
			}

			var got struct {
				Total  float64                 `json:"total"`
				Counts map[grading.Outcome]int `json:"counts"`
			}
			if err := json.Unmarshal(env.Data, &got); err != nil {
				t.Fatalf("decode data: %v", err)
			}
			if got.Total != tt.wantTotal {
				t.Errorf("total = %v, want %v", got.Total, tt.wantTotal)
			}
		})
	}
}

func TestGradingHandler_GradeCounts(t *testing.T) {
	r := gin.New()
	r.POST("/grade", NewGradingHandler(newSchemeService(t), 1<<20).Grade)

	body := `{"groups":[
		{"orientation":"VERTICAL","alternatives":2,"questions":2,"correct":[[0],[1]]},
		{"orientation":"UNSCORABLE","alternatives":2,"questions":2,"correct":[[0],[0]]}
	],"marks":[[[-1,1],[1,1]],[[-1,-1],[-1,-1]]]}`

	w, env := doJSON(t, r, http.MethodPost, "/grade", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", w.Code, w.Body.String())
	}

	var got struct {
		Total  float64                 `json:"total"`
		Counts map[grading.Outcome]int `json:"counts"`
	}
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if got.Total != 1 {
		t.Errorf("total = %v, want 1", got.Total)
	}
	if got.Counts[grading.OutcomeCorrect] != 1 || got.Counts[grading.OutcomeBlank] != 1 || got.Counts[grading.OutcomeUnscorable] != 2 {
		t.Errorf("counts = %v", got.Counts)
	}
}

func TestSchemeHandler_GetDefault(t *testing.T) {
	r := gin.New()
	r.GET("/schemes/default", NewSchemeHandler(newSchemeService(t)).GetDefault)

	w, env := doJSON(t, r, http.MethodGet, "/schemes/default", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var got struct {
		Scheme struct {
			CorrectScore          float64 `json:"correct_score"`
			IncorrectScore        float64 `json:"incorrect_score"`
			DefaultScore          float64 `json:"default_score"`
			MultipleSelectedScore float64 `json:"multiple_selected_score"`
			MinScore              float64 `json:"min_score"`
			MaxScore              float64 `json:"max_score"`
		} `json:"scheme"`
	}
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	s := got.Scheme
	if s.CorrectScore != 1 || s.IncorrectScore != -0.5 || s.DefaultScore != 0 ||
		s.MultipleSelectedScore != -0.5 || s.MinScore != -0.5 || s.MaxScore != 1 {
		t.Errorf("default scheme = %+v", s)
	}
}

func TestInvalidIDs(t *testing.T) {
	schemes := NewSchemeHandler(newSchemeService(t))
	tests := NewTestHandler(nil)
	sheets := NewSheetHandler(nil, nil, 1<<20, zerolog.Nop())

	r := gin.New()
	r.GET("/schemes/:id", schemes.Get)
	r.DELETE("/schemes/:id", schemes.Delete)
	r.GET("/tests/:id", tests.Get)
	r.GET("/tests/:id/sheets", sheets.List)
	r.POST("/tests/:id/grade-all", sheets.GradeAll)
	r.GET("/sheets/:id/result", sheets.SheetResult)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/schemes/nope"},
		{http.MethodDelete, "/schemes/nope"},
		{http.MethodGet, "/tests/nope"},
		{http.MethodGet, "/tests/nope/sheets"},
		{http.MethodPost, "/tests/nope/grade-all"},
		{http.MethodGet, "/sheets/nope/result"},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			w, env := doJSON(t, r, rt.method, rt.path, "")
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			if env.Error == nil || env.Error.Code != response.ErrInvalidID {
				t.Fatalf("error = %+v", env.Error)
			}
		})
	}
}

func TestSheetHandler_SubmitTooLarge(t *testing.T) {
	r := gin.New()
	r.POST("/tests/:id/sheets", NewSheetHandler(nil, nil, 16, zerolog.Nop()).Submit)

	body := `{"label":"S-001","marks":[[[-1,1,1,1,1,1,1,1]]]}`
	w, env := doJSON(t, r, http.MethodPost, "/tests/6f1c1a1e-0b7e-4b59-9d36-3d1f2f0a9a11/sheets", body)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", w.Code)
	}
	if env.Error == nil || env.Error.Code != response.ErrSheetTooLarge {
		t.Fatalf("error = %+v", env.Error)
	}
}

// doStreamed sends body without a Content-Length, as a chunked upload would.
func doStreamed(t *testing.T, r *gin.Engine, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.ContentLength = -1
	r.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return w, env
}

func oversizedMarks(rows int) string {
	var b strings.Builder
	b.WriteString(`{"label":"S-001","marks":[[`)
	for i := 0; i < rows; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("[-1,1,1,1,1,1,1,1]")
	}
	b.WriteString(`]]}`)
	return b.String()
}

func TestSheetHandler_SubmitTooLargeUnknownLength(t *testing.T) {
	r := gin.New()
	r.POST("/tests/:id/sheets", NewSheetHandler(nil, nil, 64, zerolog.Nop()).Submit)

	w, env := doStreamed(t, r, "/tests/6f1c1a1e-0b7e-4b59-9d36-3d1f2f0a9a11/sheets", oversizedMarks(20))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", w.Code)
	}
	if env.Error == nil || env.Error.Code != response.ErrSheetTooLarge {
		t.Fatalf("error = %+v", env.Error)
	}
}

func TestGradingHandler_GradeTooLarge(t *testing.T) {
	r := gin.New()
	r.POST("/grade", NewGradingHandler(newSchemeService(t), 64).Grade)

	tests := []struct {
		name     string
		streamed bool
	}{
		{"known length", false},
		{"unknown length", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{"groups":[{"answer_key":[1],"marks":` + strings.Repeat(" ", 128) + `[[-1,1]]}]}`
			var (
				w   *httptest.ResponseRecorder
				env envelope
			)
			if tt.streamed {
				w, env = doStreamed(t, r, "/grade", body)
			} else {
				w, env = doJSON(t, r, http.MethodPost, "/grade", body)
			}
			if w.Code != http.StatusRequestEntityTooLarge {
				t.Fatalf("status = %d, want 413", w.Code)
			}
			if env.Error == nil || env.Error.Code != response.ErrSheetTooLarge {
				t.Fatalf("error = %+v", env.Error)
			}
		})
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   response.ErrCode
	}{
		{"no rows", fmt.Errorf("load: %w", pgx.ErrNoRows), http.StatusNotFound, response.ErrNotFound},
		{"inverted bounds", grading.ErrInvertedBounds, http.StatusBadRequest, response.ErrInvalidScheme},
		{"invalid scheme", fmt.Errorf("%w: x", service.ErrInvalidScheme), http.StatusBadRequest, response.ErrInvalidScheme},
		{"answer key", service.ErrInvalidAnswerKey, http.StatusBadRequest, response.ErrInvalidKey},
		{"question range", fmt.Errorf("group 0: %w", grading.ErrQuestionOutOfRange), http.StatusUnprocessableEntity, response.ErrQuestionRange},
		{"mismatch", service.ErrSheetTestMismatch, http.StatusBadRequest, response.ErrInvalidPayload},
		{"unique", &pgconn.PgError{Code: "23505"}, http.StatusConflict, response.ErrConflict},
		{"foreign key", fmt.Errorf("delete: %w", &pgconn.PgError{Code: "23503"}), http.StatusConflict, response.ErrDependencyExists},
		{"other", errors.New("boom"), http.StatusInternalServerError, response.ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := classifyError(tt.err)
			if status != tt.wantStatus || code != tt.wantCode {
				t.Errorf("classifyError() = (%d, %s), want (%d, %s)", status, code, tt.wantStatus, tt.wantCode)
			}
		})
	}
}
