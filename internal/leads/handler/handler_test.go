package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"leadtrack_backend/internal/leads/attribution"
	"leadtrack_backend/internal/leads/repository"

	"github.com/gin-gonic/gin"
)

func TestServiceErrorStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"lead not found", repository.ErrNotFound, http.StatusNotFound},
		{"no current stage", repository.ErrNoCurrentStage, http.StatusNotFound},
		{"no score", repository.ErrNoScore, http.StatusNotFound},
		{"no journey", repository.ErrNoJourney, http.StatusNotFound},
		{"no touchpoints", attribution.ErrNoTouchpoints, http.StatusUnprocessableEntity},
		{"unknown model", attribution.ErrUnknownModel, http.StatusBadRequest},
		{"unexpected failure", errors.New("pool exhausted"), http.StatusInternalServerError},
	}

	h := &Handler{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)

			h.serviceError(c, tt.err)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestAppErrorHidesInternalDetail(t *testing.T) {
	appErr := appError(errors.New("connection refused"))
	if appErr.Message != "internal error" {
		t.Fatalf("message = %q, internal failures must not leak", appErr.Message)
	}
	if !errors.Is(appErr, appErr.Err) {
		t.Fatalf("wrapped error not reachable through Unwrap")
	}
}
