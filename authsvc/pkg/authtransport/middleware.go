package authtransport

import (
	"context"
	"encoding/json"
	"net/http"

	kitjwt "github.com/go-kit/kit/auth/jwt"
	"github.com/go-kit/kit/log"
	"github.com/ichigozero/todokit/authsvc"
	"github.com/ichigozero/todokit/authsvc/pkg/authservice"
)

// NewAuthenticater resolves the bearer token of every request once and
// stores the identity under authsvc.UserIDContextKey. Requests without a
// valid token are answered with 401 before reaching next.
func NewAuthenticater(t authservice.Tokenizer, logger log.Logger) func(http.Handler) http.Handler {
	toContext := kitjwt.HTTPToContext()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := toContext(r.Context(), r)
			token, _ := ctx.Value(kitjwt.JWTTokenContextKey).(string)

			userID, err := t.Resolve(token)
			if err != nil {
				logger.Log("path", r.URL.Path, "err", err)
				EncodeUnauthorized(ctx, w)
				return
			}

			ctx = context.WithValue(ctx, authsvc.UserIDContextKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// EncodeUnauthorized writes the body shared by every protected route.
func EncodeUnauthorized(_ context.Context, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(unauthorizedWrapper{Message: "Unauthorized"})
}

type unauthorizedWrapper struct {
	Message string `json:"message"`
}
