package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/storesync/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testCustomer struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name" binding:"max=5"`
}

func TestHandleValidationError(t *testing.T) {
	SetupValidator()

	r := gin.New()
	r.POST("/customers", func(c *gin.Context) {
		var req testCustomer
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})

	send := func(body string) (*httptest.ResponseRecorder, dto.Response) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/customers", strings.NewReader(body)))
		var resp dto.Response
		if w.Code != http.StatusOK {
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		}
		return w, resp
	}

	w, _ := send(`{"email":"jane@example.com","name":"Jane"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w, resp := send(`{"email":"nope","name":"Jonathan"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	require.Len(t, resp.Error.Details, 2)
	assert.Equal(t, "email", resp.Error.Details[0].Field)
	assert.Equal(t, "Invalid email format", resp.Error.Details[0].Message)
	assert.Equal(t, "name", resp.Error.Details[1].Field)
	assert.Equal(t, "Must be at most 5 characters", resp.Error.Details[1].Message)

	w, resp = send(`{"email":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.Len(t, resp.Error.Details, 1)
	assert.Empty(t, resp.Error.Details[0].Field)
}

func TestSyncTags(t *testing.T) {
	SetupValidator()

	r := gin.New()
	r.POST("/sync/:type", func(c *gin.Context) {
		var req dto.SyncTriggerRequest
		if err := c.ShouldBindUri(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		if err := c.ShouldBindQuery(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	tests := []struct {
		path    string
		code    int
		field   string
		message string
	}{
		{path: "/sync/all", code: http.StatusNoContent},
		{path: "/sync/Stock?ids=1,%202,", code: http.StatusNoContent},
		{path: "/sync/inventory", code: http.StatusBadRequest, field: "type", message: "Unknown sync type"},
		{path: "/sync/stock?ids=1,x", code: http.StatusBadRequest, field: "ids", message: "Must be a comma separated list of positive ids"},
		{path: "/sync/stock?ids=0", code: http.StatusBadRequest, field: "ids"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, tt.path, nil))
			require.Equal(t, tt.code, w.Code)
			if tt.field == "" {
				return
			}
			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.NotNil(t, resp.Error)
			require.Len(t, resp.Error.Details, 1)
			assert.Equal(t, tt.field, resp.Error.Details[0].Field)
			if tt.message != "" {
				assert.Equal(t, tt.message, resp.Error.Details[0].Message)
			}
		})
	}
}
