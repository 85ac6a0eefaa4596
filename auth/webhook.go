package auth

import (
	"errors"
	"fmt"
	"net/http"

	svix "github.com/svix/svix-webhooks/go"

	"github.com/yx-elite/social-media-content-generator/app/models"
)

var svixHeaders = []string{"svix-id", "svix-timestamp", "svix-signature"}

// WebhookVerifier checks Svix signatures on identity provider webhooks.
type WebhookVerifier struct {
	wh *svix.Webhook
}

// NewWebhookVerifier takes the "whsec_..." signing secret from the Clerk dashboard.
func NewWebhookVerifier(secret string) (*WebhookVerifier, error) {
	if secret == "" {
		return nil, errors.New("webhook secret must be set")
	}
	wh, err := svix.NewWebhook(secret)
	if err != nil {
		return nil, fmt.Errorf("init svix webhook: %w", err)
	}
	return &WebhookVerifier{wh: wh}, nil
}

// Verify fails with ErrSignatureVerification on missing headers, a bad
// signature or a stale timestamp.
func (v *WebhookVerifier) Verify(payload []byte, headers http.Header) error {
	for _, h := range svixHeaders {
		if headers.Get(h) == "" {
			return fmt.Errorf("missing %s header: %w", h, models.ErrSignatureVerification)
		}
	}
	if err := v.wh.Verify(payload, headers); err != nil {
		return fmt.Errorf("%w: %v", models.ErrSignatureVerification, err)
	}
	return nil
}
