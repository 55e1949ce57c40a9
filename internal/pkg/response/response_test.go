package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/docagent/server/internal/pkg/apperr"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	OK      int    `json:"ok"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func TestError_MapsKinds(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", apperr.Validation("message is required"), http.StatusBadRequest, "message is required"},
		{"not found", fmt.Errorf("chat: %w", apperr.NotFound("document not found")), http.StatusNotFound, "document not found"},
		{"extraction", apperr.Extraction(errors.New("xref")), http.StatusUnprocessableEntity, "text extraction failed"},
		{"upstream", apperr.Upstreamf("status 500"), http.StatusBadGateway, "AI service error"},
		{"internal", errors.New("dial tcp: refused"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			Error(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			assert.True(t, c.IsAborted())
			var body envelope
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, 0, body.OK)
			assert.Equal(t, tt.status, body.Code)
			assert.Equal(t, tt.message, body.Message)
			assert.Len(t, c.Errors, 1)
		})
	}
}

func TestOK_WrapsSlices(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	OK(c, []string{"a"})

	assert.JSONEq(t, `{"data":["a"]}`, w.Body.String())
}

func TestInternalError_HidesDetail(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	InternalError(c, errors.New("password=hunter2"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "hunter2")
}
