package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yx-elite/social-media-content-generator/app/billing"
	"github.com/yx-elite/social-media-content-generator/app/config"
	"github.com/yx-elite/social-media-content-generator/app/generation"
	"github.com/yx-elite/social-media-content-generator/app/notify"
	"github.com/yx-elite/social-media-content-generator/auth"
)

// Bootstrap builds the router and every collaborator from config. The
// returned cleanup closes the store.
func Bootstrap(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*gin.Engine, func() error, error) {
	st, closeStore, err := OpenStore(ctx, cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	fail := func(err error) (*gin.Engine, func() error, error) {
		_ = closeStore()
		return nil, nil, err
	}

	var notifier notify.Notifier = notify.Log{}
	if cfg.QueueURL != "" {
		q, err := notify.NewSQS(ctx, cfg.QueueURL)
		if err != nil {
			return fail(err)
		}
		notifier = q
	}

	var verifier *auth.Verifier
	if !auth.AuthDisabled() {
		verifier, err = auth.NewVerifier(cfg.Identity.Issuer, cfg.Identity.Audience, cfg.Identity.JWKSURL)
		if err != nil {
			return fail(fmt.Errorf("init session verifier: %w", err))
		}
	}

	var webhooks *auth.WebhookVerifier
	if cfg.Identity.WebhookSecret != "" {
		webhooks, err = auth.NewWebhookVerifier(cfg.Identity.WebhookSecret)
		if err != nil {
			return fail(fmt.Errorf("init identity webhook verifier: %w", err))
		}
	} else {
		logger.Warn().Msg("WEBHOOK_SECRET not set; identity webhooks will be rejected")
	}

	srv := NewServer(Deps{
		Config:   cfg,
		Store:    st,
		Billing:  billing.NewStripeProvider(cfg.Stripe.SecretKey),
		Provider: generation.NewOpenAIProvider(cfg.Provider.APIURL, cfg.Provider.APIKey, cfg.Provider.Model),
		Notifier: notifier,
		Verifier: verifier,
		Webhooks: webhooks,
	})
	return NewRouter(srv, logger), closeStore, nil
}
