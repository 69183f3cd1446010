package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gitbounty-lab/backend/internal/model"
	"github.com/gitbounty-lab/backend/pkg/errorx"
	"github.com/gitbounty-lab/backend/pkg/jwt"
	"github.com/gitbounty-lab/backend/pkg/router"
	"github.com/gitbounty-lab/backend/pkg/xcontext"
)

// Authenticate verifies the access token and attaches the contributor id
// to the request context.
func Authenticate(engine *jwt.Engine[model.AccessToken]) router.MiddlewareFunc {
	return func(ctx context.Context, r *http.Request) (context.Context, error) {
		token := extractToken(ctx, r)
		if token == "" {
			return nil, errorx.New(errorx.Unauthenticated, "You need to authenticate before")
		}

		accessToken, err := engine.Verify(token)
		if err != nil {
			xcontext.Logger(ctx).Debugf("Cannot verify access token: %v", err)
			return nil, errorx.New(errorx.Unauthenticated, "Invalid access token")
		}

		return xcontext.WithRequestUserID(ctx, accessToken.ID), nil
	}
}

func extractToken(ctx context.Context, r *http.Request) string {
	authorization := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(authorization, "Bearer "); ok {
		return token
	}

	cookie, err := r.Cookie(xcontext.Configs(ctx).Auth.AccessToken.Name)
	if err != nil {
		return ""
	}

	return cookie.Value
}
