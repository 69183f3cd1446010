package middleware

import (
	"context"
	"crypto/hmac"
	"net/http"

	"github.com/gitbounty-lab/backend/pkg/errorx"
	"github.com/gitbounty-lab/backend/pkg/router"
	"github.com/gitbounty-lab/backend/pkg/xcontext"
)

const webhookTokenHeader = "X-Webhook-Token"

// VerifyWebhook gates the comment intake endpoint behind the shared secret
// the platform is configured to send with every delivery.
func VerifyWebhook() router.MiddlewareFunc {
	return func(ctx context.Context, r *http.Request) (context.Context, error) {
		secret := xcontext.Configs(ctx).Webhook.Secret
		token := r.Header.Get(webhookTokenHeader)
		if !hmac.Equal([]byte(token), []byte(secret)) {
			return nil, errorx.New(errorx.PermissionDenied, "Invalid webhook token")
		}

		return ctx, nil
	}
}
