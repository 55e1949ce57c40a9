package translation

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/docagent/server/internal/middleware"
	"github.com/docagent/server/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(svc *Service) *gin.Engine {
	r := gin.New()
	NewHandler(svc, nil).RegisterRoutes(r.Group("/api/v1"), middleware.WithOwner("alice"))
	return r
}

type jobBody struct {
	ID       string           `json:"id"`
	Status   string           `json:"status"`
	Style    string           `json:"style"`
	Segments []models.Segment `json:"segments"`
}

func TestHandler_StartDone(t *testing.T) {
	f := newFixture(t, "A\n\nB")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/translations", strings.NewReader(`{"documentId":"doc-1","targetLang":"zh"}`))

	newTestRouter(f.svc).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body jobBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "done", body.Status)
	assert.Equal(t, "fluent", body.Style)
	require.Len(t, body.Segments, 2)
	assert.Equal(t, "T(B)", body.Segments[1].Translated)
	assert.NotContains(t, w.Body.String(), "runningKey")
}

func TestHandler_StartInFlightIs202(t *testing.T) {
	f := newFixture(t, "A")
	key := models.RunningKeyFor("doc-1", "zh", models.StyleFluent)
	require.NoError(t, f.jobs.Create(t.Context(), &models.TranslationJob{
		DocumentID: "doc-1",
		SourceLang: models.SourceLangAuto,
		TargetLang: "zh",
		Style:      models.StyleFluent,
		Status:     models.TranslationRunning,
		RunningKey: &key,
	}))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/translations", strings.NewReader(`{"documentId":"doc-1","targetLang":"zh","style":"fluent"}`))

	newTestRouter(f.svc).ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)
	var body jobBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "running", body.Status)
	assert.Empty(t, body.Segments)
}

func TestHandler_Errors(t *testing.T) {
	f := newFixture(t, "A\n\nB")
	r := newTestRouter(f.svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/translations", strings.NewReader(`{"documentId":"doc-1","targetLang":"zh","style":"poetic"}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/translations", strings.NewReader(`{"documentId":"other","targetLang":"zh"}`)))
	assert.Equal(t, http.StatusNotFound, w.Code)

	f.ai.failOn = "A"
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/translations", strings.NewReader(`{"documentId":"doc-1","targetLang":"zh"}`)))
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/translations/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_LatestAndGet(t *testing.T) {
	f := newFixture(t, "A")
	r := newTestRouter(f.svc)
	job, err := f.svc.Start(t.Context(), "doc-1", "zh", "concise", "alice")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/translations/latest?documentId=doc-1&targetLang=zh", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var body jobBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, job.ID, body.ID)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/translations/"+job.ID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "concise", body.Style)
	assert.Len(t, body.Segments, 1)
}
