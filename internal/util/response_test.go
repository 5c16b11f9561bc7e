package util

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestServiceErrorStatusCodes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid selection", fmt.Errorf("%w: no questions", ErrInvalidSelection), http.StatusBadRequest},
		{"permission", ErrPermissionDenied, http.StatusForbidden},
		{"missing session", ErrSessionNotFound, http.StatusNotFound},
		{"consumed", ErrSessionConsumed, http.StatusConflict},
		{"draft state", ErrDraftState, http.StatusConflict},
		{"stage", NewStageError(ErrExamCreateFailed, errors.New("duplicate key")), http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			ServiceError(c, tt.err)
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestServiceErrorKeepsStageMessage(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	ServiceError(c, NewStageError(ErrQuestionLinkFailed, errors.New("constraint violated")))
	if !strings.Contains(w.Body.String(), "question link failed: constraint violated") {
		t.Fatalf("expected underlying message in body, got %s", w.Body.String())
	}

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	ServiceError(c, errors.New("secret internals"))
	if strings.Contains(w.Body.String(), "secret internals") {
		t.Fatalf("unexpected error leaked: %s", w.Body.String())
	}
}
