package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	svix "github.com/svix/svix-webhooks/go"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/yx-elite/social-media-content-generator/app/billing"
	"github.com/yx-elite/social-media-content-generator/app/config"
	"github.com/yx-elite/social-media-content-generator/app/generation"
	"github.com/yx-elite/social-media-content-generator/app/models"
	"github.com/yx-elite/social-media-content-generator/app/store"
	"github.com/yx-elite/social-media-content-generator/auth"
)

const (
	testSvixSecret   = "whsec_MfKQ9r8GKYqrTwjUPD8ILPZIo2LaLaSw"
	testStripeSecret = "whsec_stripe_test"
	testBasicPrice   = "price_basic"
	testProPrice     = "price_pro"
)

type stubBilling struct {
	subscription billing.SubscriptionInfo
	err          error
}

func (s *stubBilling) CreateCustomer(_ context.Context, u models.User) (string, error) {
	return "cus_" + u.ID, nil
}

func (s *stubBilling) CreateCheckoutSession(_ context.Context, p billing.CheckoutParams) (string, error) {
	return "cs_" + p.UserID, nil
}

func (s *stubBilling) CreatePortalSession(_ context.Context, customerID, _ string) (string, error) {
	return "https://billing.stripe.com/p/" + customerID, nil
}

func (s *stubBilling) GetSubscription(_ context.Context, id string) (billing.SubscriptionInfo, error) {
	if s.err != nil {
		return billing.SubscriptionInfo{}, s.err
	}
	info := s.subscription
	info.ID = id
	return info, nil
}

type stubProvider struct {
	text string
	err  error
}

func (s *stubProvider) Complete(context.Context, generation.ProviderRequest) (string, error) {
	return s.text, s.err
}

type captureNotifier struct {
	mu   sync.Mutex
	msgs []models.QueueMessage
}

func (n *captureNotifier) Publish(_ context.Context, msg models.QueueMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
	return nil
}

type testEnv struct {
	router   *gin.Engine
	store    *store.Memory
	billing  *stubBilling
	provider *stubProvider
	notifier *captureNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("AUTH_DISABLED", "true")
	t.Setenv("ENV", "local")

	webhooks, err := auth.NewWebhookVerifier(testSvixSecret)
	require.NoError(t, err)

	env := &testEnv{
		store: store.NewMemory(),
		billing: &stubBilling{subscription: billing.SubscriptionInfo{
			CustomerID:  "cus_1",
			PriceID:     testBasicPrice,
			Status:      models.StatusActive,
			PeriodStart: time.Unix(1733011200, 0).UTC(),
			PeriodEnd:   time.Unix(1735689600, 0).UTC(),
		}},
		provider: &stubProvider{text: "first\n\nsecond"},
		notifier: &captureNotifier{},
	}
	cfg := &config.Config{
		BaseURL:  "https://app.example.com",
		Stripe:   config.StripeConfig{WebhookSecret: testStripeSecret, PriceIDBasic: testBasicPrice, PriceIDPro: testProPrice},
		Provider: config.ProviderConfig{Timeout: time.Second},
	}
	srv := NewServer(Deps{
		Config:   cfg,
		Store:    env.store,
		Billing:  env.billing,
		Provider: env.provider,
		Notifier: env.notifier,
		Webhooks: webhooks,
	})
	env.router = NewRouter(srv, zerolog.New(io.Discard))
	return env
}

func (e *testEnv) seedUser(t *testing.T, id string, balance int) {
	t.Helper()
	_, _, err := e.store.UpsertUser(context.Background(), models.User{ID: id, Email: id + "@example.com"}, balance)
	require.NoError(t, err)
}

func (e *testEnv) do(t *testing.T, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		r = bytes.NewReader(b)
	case string:
		r = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	resp := httptest.NewRecorder()
	e.router.ServeHTTP(resp, req)
	return resp
}

func decode(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out), resp.Body.String())
	return out
}

func svixHeaders(t *testing.T, payload []byte) http.Header {
	t.Helper()
	wh, err := svix.NewWebhook(testSvixSecret)
	require.NoError(t, err)
	now := time.Now()
	sig, err := wh.Sign("msg_1", now, payload)
	require.NoError(t, err)
	h := http.Header{}
	h.Set("svix-id", "msg_1")
	h.Set("svix-timestamp", strconv.FormatInt(now.Unix(), 10))
	h.Set("svix-signature", sig)
	return h
}

func stripeHeaders(payload []byte) http.Header {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload: payload,
		Secret:  testStripeSecret,
	})
	h := http.Header{}
	h.Set("Stripe-Signature", signed.Header)
	return h
}
