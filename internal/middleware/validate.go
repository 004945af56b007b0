package middleware

import (
	"context"

	"connectrpc.com/connect"

	"github.com/diviso/diviso/internal/apperr"
	"github.com/diviso/diviso/internal/validate"
)

// normalizer is implemented by messages that tidy their own fields, such
// as trimming a pasted email address.
type normalizer interface {
	Normalize()
}

// ValidationInterceptor rejects unary requests whose message fails its
// `validate` struct tags before the handler runs. Messages implementing
// Normalize are normalized first.
func ValidationInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if n, ok := req.Any().(normalizer); ok {
				n.Normalize()
			}
			if err := validate.Struct(req.Any()); err != nil {
				return nil, apperr.ToConnect(err)
			}
			return next(ctx, req)
		}
	}
}
