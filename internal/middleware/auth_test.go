package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/diviso/diviso/internal/apperr"
	"github.com/diviso/diviso/internal/auth"
	"github.com/diviso/diviso/internal/models"
)

func TestBearerAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	user := &models.User{ID: "user-1", Email: "alice@example.com"}
	token, err := jwtManager.Generate(user)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	other, err := auth.NewJWTManager("other-secret", time.Hour).Generate(user)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	var gotUser, gotEmail string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = GetUserID(r.Context())
		gotEmail = GetEmail(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	onError := func(w http.ResponseWriter, err error) {
		http.Error(w, apperr.Message(err), apperr.HTTPStatus(err))
	}
	handler := BearerAuth(jwtManager, onError)(next)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid token", "Bearer " + token, http.StatusNoContent},
		{"lowercase scheme", "bearer " + token, http.StatusNoContent},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"foreign signature", "Bearer " + other, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotUser, gotEmail = "", ""
			req := httptest.NewRequest(http.MethodPost, "/functions/v1/approve-expense", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusNoContent {
				if gotUser != "user-1" || gotEmail != "alice@example.com" {
					t.Errorf("context identity = (%q, %q)", gotUser, gotEmail)
				}
			} else if gotUser != "" {
				t.Error("handler should not run on auth failure")
			}
		})
	}
}

func TestWithUser(t *testing.T) {
	ctx := WithUser(httptest.NewRequest(http.MethodGet, "/", nil).Context(), "u1", "u1@example.com")
	if GetUserID(ctx) != "u1" || GetEmail(ctx) != "u1@example.com" {
		t.Errorf("identity = (%q, %q)", GetUserID(ctx), GetEmail(ctx))
	}
	if GetUserID(httptest.NewRequest(http.MethodGet, "/", nil).Context()) != "" {
		t.Error("empty context should carry no user")
	}
}
