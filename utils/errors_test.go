package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func errorResponseFor(t *testing.T, respond func(c *gin.Context)) (int, ErrorResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	respond(c)

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response body is not the error envelope: %v", err)
	}
	return w.Code, resp
}

func TestRespondWithConflict(t *testing.T) {
	status, resp := errorResponseFor(t, func(c *gin.Context) {
		RespondWithConflict(c, "email_exists", "An account with this email already exists")
	})
	if status != http.StatusConflict {
		t.Errorf("status = %d, want %d", status, http.StatusConflict)
	}
	if resp.ErrorCode != "email_exists" {
		t.Errorf("error_code = %q", resp.ErrorCode)
	}
}

func TestRespondWithQuotaExceeded(t *testing.T) {
	status, resp := errorResponseFor(t, func(c *gin.Context) {
		RespondWithQuotaExceeded(c, "Daily generation quota exhausted")
	})
	if status != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", status, http.StatusTooManyRequests)
	}
	if resp.ErrorCode != "quota_exceeded" {
		t.Errorf("error_code = %q", resp.ErrorCode)
	}
}
