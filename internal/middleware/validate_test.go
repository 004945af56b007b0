package middleware

import (
	"context"
	"testing"

	"connectrpc.com/connect"

	"github.com/diviso/diviso/pkg/api"
)

func TestValidationInterceptor(t *testing.T) {
	var seen *api.RegisterRequest
	next := connect.UnaryFunc(func(_ context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		seen = req.Any().(*api.RegisterRequest)
		return connect.NewResponse(&api.Empty{}), nil
	})
	call := ValidationInterceptor()(next)

	tests := []struct {
		name      string
		msg       *api.RegisterRequest
		wantCode  connect.Code
		wantEmail string
	}{
		{"padded email is trimmed", &api.RegisterRequest{Email: "  Sara@Example.com ", DisplayName: " Sara ", Password: "password123"}, 0, "Sara@Example.com"},
		{"malformed email", &api.RegisterRequest{Email: "not-an-email", DisplayName: "Sara", Password: "password123"}, connect.CodeInvalidArgument, ""},
		{"blank display name", &api.RegisterRequest{Email: "sara@example.com", DisplayName: "   ", Password: "password123"}, connect.CodeInvalidArgument, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			_, err := call(context.Background(), connect.NewRequest(tt.msg))
			if tt.wantCode != 0 {
				if connect.CodeOf(err) != tt.wantCode {
					t.Fatalf("code = %v, want %v (err %v)", connect.CodeOf(err), tt.wantCode, err)
				}
				if seen != nil {
					t.Error("handler should not run for an invalid request")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if seen.Email != tt.wantEmail || seen.DisplayName != "Sara" {
				t.Errorf("handler saw email %q name %q", seen.Email, seen.DisplayName)
			}
		})
	}
}
