package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const testSecret = "test-secret-key"

func TestVerifyValidToken(t *testing.T) {
	token, err := Sign(testSecret, "user-1", time.Minute)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	id, err := NewVerifier(testSecret).Verify(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.UserID != "user-1" {
		t.Errorf("expected user-1, got %q", id.UserID)
	}
}

func TestVerifyFailuresCollapse(t *testing.T) {
	expired, _ := Sign(testSecret, "user-1", -time.Minute)
	wrongKey, _ := Sign("some-other-key", "user-1", time.Minute)
	noSubject, _ := Sign(testSecret, "", time.Minute)

	cases := []struct {
		name  string
		token string
	}{
		{"expired", expired},
		{"wrong key", wrongKey},
		{"empty subject", noSubject},
		{"garbage", "not-a-jwt"},
		{"empty", ""},
	}

	v := NewVerifier(testSecret)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := v.Verify(tc.token)
			if !errors.Is(err, ErrAuthenticationFailed) {
				t.Errorf("expected ErrAuthenticationFailed, got %v", err)
			}
		})
	}
}

func TestVerifyFailsClosedWithoutSecret(t *testing.T) {
	token, _ := Sign(testSecret, "user-1", time.Minute)

	_, err := NewVerifier("").Verify(token)
	if !errors.Is(err, ErrAuthenticationFailed) {
		t.Errorf("expected ErrAuthenticationFailed, got %v", err)
	}
}

func TestRequireAuth(t *testing.T) {
	mw := NewMiddleware(NewVerifier(testSecret))

	var gotIdentity Identity
	handler := mw.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		gotIdentity, _ = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	token, _ := Sign(testSecret, "user-42", time.Minute)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if gotIdentity.UserID != "user-42" {
		t.Errorf("expected identity user-42, got %q", gotIdentity.UserID)
	}
}

func TestRequireAuthRejects(t *testing.T) {
	mw := NewMiddleware(NewVerifier(testSecret))
	handler := mw.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run")
	})

	expired, _ := Sign(testSecret, "user-1", -time.Minute)

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic dXNlcjpwYXNz"},
		{"expired token", "Bearer " + expired},
		{"garbage token", "Bearer junk"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			handler(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", w.Code)
			}
		})
	}
}
