package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/curricula-hub/access-service/internal/config"
	"github.com/curricula-hub/access-service/internal/services"
	"github.com/curricula-hub/access-service/internal/validator"
)

func TestHandleServiceError(t *testing.T) {
	h := NewBaseHandler(testLogger())

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{
			name:     "validation errors map to 400",
			err:      validator.ValidationErrors{{Field: "email", Message: "is required"}},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "provisioning error passes provider message verbatim",
			err:      services.NewProvisioningError(fmt.Errorf("email already registered")),
			wantCode: http.StatusBadRequest,
			wantBody: "email already registered",
		},
		{
			name:     "unknown account maps to 404",
			err:      services.ErrAccountNotFound,
			wantCode: http.StatusNotFound,
		},
		{
			name:     "configuration error maps to 500",
			err:      &config.ConfigurationError{Setting: "CASDOOR_ENDPOINT", Reason: "missing"},
			wantCode: http.StatusInternalServerError,
		},
		{
			name:     "anything else maps to 500",
			err:      errors.New("boom"),
			wantCode: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			h.handleServiceError(c, tt.err)

			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rec.Code)
			}
			if tt.wantBody != "" && !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Fatalf("expected body to contain %q, got %s", tt.wantBody, rec.Body.String())
			}
		})
	}
}
