package middleware

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/diviso/diviso/internal/apperr"
	"github.com/diviso/diviso/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// UserIDKey is the context key for storing the authenticated user ID.
	UserIDKey contextKey = "user_id"
	// EmailKey is the context key for storing the authenticated user's email.
	EmailKey contextKey = "email"
)

// GetUserID extracts the user ID from the context.
// Returns empty string if not found.
func GetUserID(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDKey).(string)
	return userID
}

// GetEmail extracts the user email from the context.
// Returns empty string if not found.
func GetEmail(ctx context.Context) string {
	email, _ := ctx.Value(EmailKey).(string)
	return email
}

// WithUser returns ctx carrying the authenticated identity.
func WithUser(ctx context.Context, userID, email string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	return context.WithValue(ctx, EmailKey, email)
}

// authenticate validates an Authorization header value and returns the
// enriched context.
func authenticate(ctx context.Context, jwtManager *auth.JWTManager, header string) (context.Context, error) {
	if header == "" {
		return nil, auth.ErrMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return nil, auth.ErrInvalidToken
	}
	claims, err := jwtManager.Validate(strings.TrimSpace(token))
	if err != nil {
		return nil, err
	}
	return WithUser(ctx, claims.UserID, claims.Email), nil
}

// AuthInterceptor validates JWT tokens on every RPC except the public ones
// and adds the user ID and email to the request context.
type AuthInterceptor struct {
	jwtManager *auth.JWTManager
	public     map[string]bool
}

// RequireAuth returns an interceptor that requires a bearer token on all
// procedures but those listed in public (e.g. Register and Login).
func RequireAuth(jwtManager *auth.JWTManager, public ...string) *AuthInterceptor {
	i := &AuthInterceptor{jwtManager: jwtManager, public: make(map[string]bool, len(public))}
	for _, p := range public {
		i.public[p] = true
	}
	return i
}

var _ connect.Interceptor = (*AuthInterceptor)(nil)

func (i *AuthInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		if i.public[req.Spec().Procedure] {
			return next(ctx, req)
		}
		ctx, err := authenticate(ctx, i.jwtManager, req.Header().Get("Authorization"))
		if err != nil {
			return nil, apperr.ToConnect(err)
		}
		return next(ctx, req)
	}
}

// WrapStreamingClient is a no-op; the interceptor only runs server-side.
func (i *AuthInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

func (i *AuthInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		if i.public[conn.Spec().Procedure] {
			return next(ctx, conn)
		}
		ctx, err := authenticate(ctx, i.jwtManager, conn.RequestHeader().Get("Authorization"))
		if err != nil {
			return apperr.ToConnect(err)
		}
		return next(ctx, conn)
	}
}

// BearerAuth is the plain-HTTP counterpart of RequireAuth for edge
// functions. Failures are answered by onError.
func BearerAuth(jwtManager *auth.JWTManager, onError func(http.ResponseWriter, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, err := authenticate(r.Context(), jwtManager, r.Header.Get("Authorization"))
			if err != nil {
				onError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
