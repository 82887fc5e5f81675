package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

// helper to perform requests with auth token
func performRequest(r http.Handler, method, path string, body io.Reader, token string, contentType string) *httptest.ResponseRecorder {
	// allow callers to pass nil for body safely
	req, _ := http.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func setupTestServer(t *testing.T) *gin.Engine {
	// integration tests are opt-in. Set DB_DSN_TEST=1 and DB_DSN to run them.
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	gin.SetMode(gin.TestMode)
	jwtSecret = []byte("test-secret")
	initDB()
	r := gin.Default()
	setupRoutes(r)
	return r
}

func TestFullFlow(t *testing.T) {
	r := setupTestServer(t)

	// 1. Register user
	regBody, _ := json.Marshal(map[string]string{"email": "user1@example.com", "password": "pass123", "confirm_password": "pass123"})
	resp := performRequest(r, http.MethodPost, "/register", bytes.NewBuffer(regBody), "", "application/json")
	if resp.Code != 200 && resp.Code != 409 {
		t.Fatalf("register failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 2. Login
	loginBody, _ := json.Marshal(map[string]string{"email": "user1@example.com", "password": "pass123"})
	resp = performRequest(r, http.MethodPost, "/login", bytes.NewBuffer(loginBody), "", "application/json")
	if resp.Code != 200 {
		t.Fatalf("login failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var loginResp map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &loginResp)
	token, _ := loginResp["token"].(string)
	if token == "" {
		t.Fatalf("empty token in login response: %+v", loginResp)
	}

	// 3. Configure the debt
	debtBody, _ := json.Marshal(map[string]string{"total_amount": "1000", "default_quota": "100"})
	resp = performRequest(r, http.MethodPut, "/debt", bytes.NewBuffer(debtBody), token, "application/json")
	if resp.Code != 200 {
		t.Fatalf("upsert debt failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 4. Record two payments (unique concepts so reruns against a shared DB stay unambiguous)
	conceptA := fmt.Sprintf("cuota-a-%d", time.Now().UnixNano())
	conceptB := fmt.Sprintf("cuota-b-%d", time.Now().UnixNano())
	for _, p := range []map[string]string{
		{"amount": "200", "concept": conceptA},
		{"amount": "100", "concept": conceptB},
	} {
		payBody, _ := json.Marshal(p)
		resp = performRequest(r, http.MethodPost, "/payments", bytes.NewBuffer(payBody), token, "application/json")
		if resp.Code != 200 {
			t.Fatalf("create payment failed status=%d body=%s", resp.Code, resp.Body.String())
		}
	}

	// 5. List payments: newest first, so B (created after A) must come before A
	resp = performRequest(r, http.MethodGet, "/payments", nil, token, "")
	if resp.Code != 200 {
		t.Fatalf("list payments failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var listed []map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &listed)
	idxA, idxB := -1, -1
	for i, p := range listed {
		switch p["concept"] {
		case conceptA:
			idxA = i
		case conceptB:
			idxB = i
		}
	}
	if idxA == -1 || idxB == -1 {
		t.Fatalf("created payments missing from listing: %+v", listed)
	}
	if idxB > idxA {
		t.Fatalf("expected newest-first order: %q at %d should precede %q at %d", conceptB, idxB, conceptA, idxA)
	}

	// 6. Derived status
	resp = performRequest(r, http.MethodGet, "/status", nil, token, "")
	if resp.Code != 200 {
		t.Fatalf("status failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var st map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &st)
	if rp, ok := st["remaining_payments"].(float64); !ok || rp < 1 {
		t.Fatalf("expected at least one remaining payment, got %+v", st)
	}

	// 7. Quota-only update
	quotaBody, _ := json.Marshal(map[string]string{"default_quota": "150"})
	resp = performRequest(r, http.MethodPatch, "/debt/quota", bytes.NewBuffer(quotaBody), token, "application/json")
	if resp.Code != 200 {
		t.Fatalf("update quota failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 8. PDF report download
	resp = performRequest(r, http.MethodGet, "/report", nil, token, "")
	if resp.Code != 200 {
		t.Fatalf("report failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("expected application/pdf got %s", ct)
	}
	if cd := resp.Header().Get("Content-Disposition"); !strings.Contains(cd, "informe-pagos-") {
		t.Fatalf("expected timestamped filename in Content-Disposition, got %s", cd)
	}
	if !bytes.HasPrefix(resp.Body.Bytes(), []byte("%PDF")) {
		t.Fatalf("report body is not a PDF")
	}

	// 9. Validation: non-positive amount is rejected before any write
	badPay, _ := json.Marshal(map[string]string{"amount": "-5"})
	resp = performRequest(r, http.MethodPost, "/payments", bytes.NewBuffer(badPay), token, "application/json")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative amount got %d", resp.Code)
	}

	// 10. Validation: a concept over 100 runes is rejected with its mapped message
	longConcept := strings.Repeat("á", 101)
	longPay, _ := json.Marshal(map[string]string{"amount": "10", "concept": longConcept})
	resp = performRequest(r, http.MethodPost, "/payments", bytes.NewBuffer(longPay), token, "application/json")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized concept got %d body=%s", resp.Code, resp.Body.String())
	}
	var conceptErr map[string]string
	_ = json.Unmarshal(resp.Body.Bytes(), &conceptErr)
	if conceptErr["error"] != ErrConceptTooLong.Message() {
		t.Fatalf("expected %q got %q", ErrConceptTooLong.Message(), conceptErr["error"])
	}

	// 11. Validation: mismatched password confirmation never reaches the DB
	mismatch, _ := json.Marshal(map[string]string{"email": "user2@example.com", "password": "pass123", "confirm_password": "otra456"})
	resp = performRequest(r, http.MethodPost, "/register", bytes.NewBuffer(mismatch), "", "application/json")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for password mismatch got %d body=%s", resp.Code, resp.Body.String())
	}
	var mismatchErr map[string]string
	_ = json.Unmarshal(resp.Body.Bytes(), &mismatchErr)
	if mismatchErr["error"] != ErrPasswordMismatch.Message() {
		t.Fatalf("expected %q got %q", ErrPasswordMismatch.Message(), mismatchErr["error"])
	}

	// 12. Unauthorized access to protected endpoint should be 401
	unauth := performRequest(r, http.MethodGet, "/payments", nil, "", "")
	if unauth.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unauthorized list payments got %d", unauth.Code)
	}
}

func TestMigrateCommand(t *testing.T) {
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	initDB()
}
