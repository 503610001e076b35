package router

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newRateLimitTestContext(t *testing.T, body string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/staff/redemptions", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "192.0.2.1:40000"
	c.Request = req
	return c
}

func TestKeyByIPAndJSONFieldNumericValue(t *testing.T) {
	c := newRateLimitTestContext(t, `{"employee_id": 42, "pin": "135790"}`)

	key := KeyByIPAndJSONField("employee_id")(c)
	if key != "42|192.0.2.1" {
		t.Fatalf("numeric field should join the key, got: %s", key)
	}
}

func TestKeyByIPAndJSONFieldStringValue(t *testing.T) {
	c := newRateLimitTestContext(t, `{"employee_id": " A42 "}`)

	key := KeyByIPAndJSONField("employee_id")(c)
	if key != "a42|192.0.2.1" {
		t.Fatalf("string field should be trimmed and lowered, got: %s", key)
	}
}

func TestKeyByIPAndJSONFieldFallsBackToIP(t *testing.T) {
	c := newRateLimitTestContext(t, `{"pin": "135790"}`)

	key := KeyByIPAndJSONField("employee_id")(c)
	if key != "192.0.2.1" {
		t.Fatalf("missing field should fall back to ip, got: %s", key)
	}
}

func TestReadJSONFieldKeepsBodyReadable(t *testing.T) {
	body := `{"employee_id": 7}`
	c := newRateLimitTestContext(t, body)

	if got := readJSONField(c, "employee_id"); got != "7" {
		t.Fatalf("unexpected field value: %s", got)
	}
	remain, err := io.ReadAll(c.Request.Body)
	if err != nil {
		t.Fatalf("re-read body failed: %v", err)
	}
	if string(remain) != body {
		t.Fatalf("body should survive the key extraction: %s", remain)
	}
}
