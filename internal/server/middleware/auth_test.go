package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	identityservice "senya-web-backend/internal/identity/service"
)

type fakeVerifier struct {
	result *identityservice.VerifyResult
	err    error

	gotAccess  string
	gotRefresh string
}

func (f *fakeVerifier) VerifyTokens(ctx context.Context, accessToken, refreshToken string) (*identityservice.VerifyResult, error) {
	f.gotAccess = accessToken
	f.gotRefresh = refreshToken
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func authedRequest(access, refresh string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if access != "" {
		r.Header.Set("Authorization", "Bearer "+access)
	}
	if refresh != "" {
		r.AddCookie(&http.Cookie{Name: RefreshCookieName, Value: refresh})
	}
	return r
}

func TestRequireAuth_Success(t *testing.T) {
	verifier := &fakeVerifier{result: &identityservice.VerifyResult{Subject: "u1"}}
	var gotUserID string
	handler := RequireAuth(verifier, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = GetUserID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest("tok", "ref"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotUserID != "u1" {
		t.Errorf("user id in context = %q, want u1", gotUserID)
	}
	if verifier.gotAccess != "tok" || verifier.gotRefresh != "ref" {
		t.Errorf("verifier saw access=%q refresh=%q", verifier.gotAccess, verifier.gotRefresh)
	}
}

func TestRequireAuth_Failure(t *testing.T) {
	verifier := &fakeVerifier{err: identityservice.ErrInvalidToken}
	invoked := false
	handler := RequireAuth(verifier, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		invoked = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest("bad", ""))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if invoked {
		t.Fatal("handler must not run on auth failure")
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("401 body is not JSON: %v", err)
	}
	if body["detail"] == "" {
		t.Error("401 body missing detail")
	}
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	verifier := &fakeVerifier{err: identityservice.ErrUnauthenticated}
	handler := RequireAuth(verifier, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/protected", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if verifier.gotAccess != "" {
		t.Errorf("access token = %q, want empty", verifier.gotAccess)
	}
}

func TestRequireAuth_RefreshInjectsToken(t *testing.T) {
	verifier := &fakeVerifier{result: &identityservice.VerifyResult{Subject: "u1", NewAccessToken: "fresh"}}
	handler := RequireAuth(verifier, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "ok"})
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest("expired", "ref"))

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	if body["new_access_token"] != "fresh" {
		t.Errorf("new_access_token = %q, want fresh", body["new_access_token"])
	}
	if body["message"] != "ok" {
		t.Errorf("original body field lost: %v", body)
	}
}

func TestRequireAuth_RefreshNonJSONPassthrough(t *testing.T) {
	verifier := &fakeVerifier{result: &identityservice.VerifyResult{Subject: "u1", NewAccessToken: "fresh"}}
	handler := RequireAuth(verifier, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("plain text"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest("expired", "ref"))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if rec.Body.String() != "plain text" {
		t.Errorf("body = %q, want unmodified passthrough", rec.Body.String())
	}
}

func TestRequireAuth_RefreshJSONArrayPassthrough(t *testing.T) {
	verifier := &fakeVerifier{result: &identityservice.VerifyResult{Subject: "u1", NewAccessToken: "fresh"}}
	handler := RequireAuth(verifier, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[1,2,3]`))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest("expired", "ref"))

	if rec.Body.String() != `[1,2,3]` {
		t.Errorf("body = %q, JSON arrays should pass through unmodified", rec.Body.String())
	}
}

func TestExtractBearer(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"  Bearer   abc  ", "abc"},
		{"Basic abc", ""},
		{"Bearer", ""},
		{"", ""},
	}
	for _, c := range cases {
		if got := extractBearer(c.in); got != c.want {
			t.Errorf("extractBearer(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
