// Package app wires shared HTTP routes for both local and Lambda execution.
package app

import (
	"github.com/yx-elite/social-media-content-generator/app/billing"
	"github.com/yx-elite/social-media-content-generator/app/config"
	"github.com/yx-elite/social-media-content-generator/app/generation"
	"github.com/yx-elite/social-media-content-generator/app/notify"
	"github.com/yx-elite/social-media-content-generator/app/points"
	"github.com/yx-elite/social-media-content-generator/app/store"
	"github.com/yx-elite/social-media-content-generator/auth"
)

// Deps are the collaborators built once at startup.
type Deps struct {
	Config   *config.Config
	Store    store.Store
	Billing  billing.Provider
	Provider generation.Provider
	Notifier notify.Notifier
	// Verifier may be nil when AUTH_DISABLED is set.
	Verifier *auth.Verifier
	Webhooks *auth.WebhookVerifier
}

// Server holds the request handlers and their services.
type Server struct {
	cfg        *config.Config
	store      store.Store
	billing    billing.Provider
	notifier   notify.Notifier
	verifier   *auth.Verifier
	webhooks   *auth.WebhookVerifier
	guard      *points.Guard
	generator  *generation.Orchestrator
	checkout   *billing.Checkout
	reconciler *billing.Reconciler
}

func NewServer(d Deps) *Server {
	n := d.Notifier
	if n == nil {
		n = notify.Log{}
	}
	return &Server{
		cfg:        d.Config,
		store:      d.Store,
		billing:    d.Billing,
		notifier:   n,
		verifier:   d.Verifier,
		webhooks:   d.Webhooks,
		guard:      points.NewGuard(d.Store),
		generator:  generation.NewOrchestrator(d.Store, d.Provider, n, d.Config.Provider.Timeout),
		checkout:   billing.NewCheckout(d.Store, d.Billing, d.Config.BaseURL),
		reconciler: billing.NewReconciler(d.Store, billing.NewPriceTable(d.Config.Stripe.PriceIDBasic, d.Config.Stripe.PriceIDPro)),
	}
}
