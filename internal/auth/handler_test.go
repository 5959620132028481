package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func newValidateRouter(t *testing.T, dir *stubDirectory) http.Handler {
	t.Helper()
	r := chi.NewRouter()
	NewHandler(nil, newTestService(dir, newMemTokenRepo())).MountPublicRoutes(r)
	return r
}

func postValidate(t *testing.T, router http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/validate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	return rec
}

func TestValidateAnswersTrueForLiveAccount(t *testing.T) {
	dir := newStubDirectory()
	user := dir.addUser(t, "alice", "s3cret-pass", true, "Admin")
	access, _, err := testIssuer().IssueAccessToken(user.ID, user.Username, user.Email, []string{"Admin"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	rec := postValidate(t, newValidateRouter(t, dir), `{"token":"`+access+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp ValidateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Valid || resp.User == nil || resp.User.Username != "alice" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestValidateAnswersFalseForBadToken(t *testing.T) {
	dir := newStubDirectory()
	disabled := dir.addUser(t, "carol", "s3cret-pass", false)
	staleAccess, _, err := testIssuer().IssueAccessToken(disabled.ID, disabled.Username, disabled.Email, nil)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	router := newValidateRouter(t, dir)

	for name, token := range map[string]string{
		"garbage":          "not-a-jwt",
		"disabled account": staleAccess,
	} {
		rec := postValidate(t, router, `{"token":"`+token+`"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", name, rec.Code)
		}
		var resp ValidateResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("%s: decode: %v", name, err)
		}
		if resp.Valid || resp.User != nil {
			t.Fatalf("%s: expected valid=false without identity, got %+v", name, resp)
		}
	}
}

func TestValidateStoreOutageIsServerError(t *testing.T) {
	dir := newStubDirectory()
	user := dir.addUser(t, "alice", "s3cret-pass", true)
	access, _, err := testIssuer().IssueAccessToken(user.ID, user.Username, user.Email, nil)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	dir.findErr = errors.New("connection refused")

	rec := postValidate(t, newValidateRouter(t, dir), `{"token":"`+access+`"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestValidateRejectsMalformedBody(t *testing.T) {
	router := newValidateRouter(t, newStubDirectory())
	for _, body := range []string{`{`, `{}`, `{"token":""}`} {
		rec := postValidate(t, router, body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, rec.Code)
		}
	}
}
