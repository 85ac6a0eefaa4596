package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yx-elite/social-media-content-generator/app/logging"
	"github.com/yx-elite/social-media-content-generator/app/metrics"
	"github.com/yx-elite/social-media-content-generator/app/models"
	"github.com/yx-elite/social-media-content-generator/app/notify"
	"github.com/yx-elite/social-media-content-generator/app/points"
	"github.com/yx-elite/social-media-content-generator/app/store"
)

const DefaultTimeout = 30 * time.Second

type Request struct {
	UserID      string
	RequestID   string
	Prompt      string
	ContentType string
	ImageData   string
}

// Result is nil-balance when the debit did not go through.
type Result struct {
	ID       string
	Content  []string
	Balance  *int
	Charged  bool
	Replayed bool
}

type Orchestrator struct {
	store    store.Store
	provider Provider
	notifier notify.Notifier
	timeout  time.Duration
	newID    func() string
}

func NewOrchestrator(s store.Store, p Provider, n notify.Notifier, timeout time.Duration) *Orchestrator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Orchestrator{
		store:    s,
		provider: p,
		notifier: n,
		timeout:  timeout,
		newID:    func() string { return uuid.NewString() },
	}
}

// Generate charges only after the provider has produced content. Points are
// checked up front so a broke user never reaches the provider.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (Result, error) {
	contentType, strategy, err := validate(req)
	if err != nil {
		return Result{}, err
	}
	log := logging.FromContext(ctx).With().
		Str("user_id", req.UserID).
		Str("content_type", string(contentType)).
		Logger()

	if req.RequestID != "" {
		existing, err := o.store.FindContentByRequest(ctx, req.UserID, req.RequestID)
		switch {
		case err == nil:
			metrics.GenerationsTotal.WithLabelValues(string(contentType), "replayed").Inc()
			return replayed(existing), nil
		case !errors.Is(err, models.ErrNotFound):
			return Result{}, fmt.Errorf("look up request %s: %w", req.RequestID, err)
		}
	}

	guard := points.NewGuard(o.store)
	balance, err := guard.Balance(ctx, req.UserID)
	if err != nil {
		return Result{}, err
	}
	if balance < points.GenerationCost {
		metrics.GenerationsTotal.WithLabelValues(string(contentType), "insufficient_points").Inc()
		return Result{}, models.ErrInsufficientPoints
	}

	text, err := o.complete(ctx, contentType, strategy.BuildRequest(req.Prompt, req.ImageData))
	if err != nil {
		outcome := "provider_error"
		if errors.Is(err, models.ErrProviderTimeout) {
			outcome = "provider_timeout"
		}
		metrics.GenerationsTotal.WithLabelValues(string(contentType), outcome).Inc()
		log.Error().Err(err).Msg("generation provider failed")
		return Result{}, err
	}
	parts := strategy.Parse(text)
	if len(parts) == 0 {
		metrics.GenerationsTotal.WithLabelValues(string(contentType), "provider_error").Inc()
		return Result{}, fmt.Errorf("%w: nothing to parse", models.ErrProviderError)
	}

	record := models.GeneratedContent{
		ID:          o.newID(),
		UserID:      req.UserID,
		RequestID:   req.RequestID,
		Prompt:      req.Prompt,
		ContentType: contentType,
		Content:     strings.Join(parts, models.ContentSeparator),
		ImageData:   req.ImageData,
	}

	var (
		newBalance int
		charged    bool
	)
	err = o.store.WithinTx(ctx, func(tx store.Store) error {
		b, err := points.NewGuard(tx).Spend(ctx, req.UserID, points.GenerationCost)
		switch {
		case err == nil:
			newBalance, charged = b, true
			record.PointsCharged = points.GenerationCost
		case errors.Is(err, models.ErrInsufficientPoints):
			charged = false
			record.PointsCharged = 0
		default:
			return err
		}

		saved, err := tx.SaveContent(ctx, record)
		if err != nil {
			return err
		}
		record = saved
		return nil
	})
	if errors.Is(err, models.ErrDuplicate) {
		// A concurrent call with the same request id won; its charge stands.
		existing, ferr := o.store.FindContentByRequest(ctx, req.UserID, req.RequestID)
		if ferr != nil {
			return Result{}, fmt.Errorf("load replayed request %s: %w", req.RequestID, ferr)
		}
		metrics.GenerationsTotal.WithLabelValues(string(contentType), "replayed").Inc()
		return replayed(existing), nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("record generation: %w", err)
	}

	if !charged {
		o.reportUnpaid(ctx, record)
		metrics.GenerationsTotal.WithLabelValues(string(contentType), "unpaid").Inc()
		return Result{ID: record.ID, Content: parts}, nil
	}

	metrics.GenerationsTotal.WithLabelValues(string(contentType), "charged").Inc()
	log.Info().Str("content_id", record.ID).Int("balance", newBalance).Msg("generation charged")
	return Result{ID: record.ID, Content: parts, Balance: &newBalance, Charged: true}, nil
}

func (o *Orchestrator) complete(ctx context.Context, t models.ContentType, req ProviderRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	text, err := o.provider.Complete(ctx, req)
	metrics.GenerationDurationSeconds.WithLabelValues(string(t)).Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, models.ErrProviderTimeout) || errors.Is(err, models.ErrProviderError) {
			return "", err
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", models.ErrProviderTimeout, err)
		}
		return "", fmt.Errorf("%w: %v", models.ErrProviderError, err)
	}
	return text, nil
}

// reportUnpaid flags content delivered without a debit. Publishing is best effort.
func (o *Orchestrator) reportUnpaid(ctx context.Context, record models.GeneratedContent) {
	logging.FromContext(ctx).Warn().
		Str("user_id", record.UserID).
		Str("content_id", record.ID).
		Msg("generation delivered without debit")

	if o.notifier == nil {
		return
	}
	err := o.notifier.Publish(ctx, models.QueueMessage{
		Kind:      models.QueuePointsReconciliation,
		UserID:    record.UserID,
		ContentID: record.ID,
		Points:    points.GenerationCost,
		Reason:    "insufficient points at debit",
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		logging.FromContext(ctx).Error().Err(err).Str("content_id", record.ID).Msg("publish reconciliation job")
	}
}

// History returns the latest generations, newest first.
func (o *Orchestrator) History(ctx context.Context, userID string, limit int) ([]models.GeneratedContent, error) {
	if userID == "" {
		return nil, models.Invalid("userId", "is required")
	}
	if limit < 1 || limit > 50 {
		return nil, models.Invalid("limit", "must be between 1 and 50")
	}
	return o.store.ListContent(ctx, userID, limit)
}

func validate(req Request) (models.ContentType, Strategy, error) {
	if req.UserID == "" {
		return "", nil, models.Invalid("userId", "is required")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return "", nil, models.Invalid("prompt", "is required")
	}
	t, ok := models.ParseContentType(req.ContentType)
	if !ok {
		return "", nil, models.Invalid("contentType", "must be twitter, instagram or linkedin")
	}
	s, _ := StrategyFor(t)
	if s.RequiresImage() && !validImage(req.ImageData) {
		return "", nil, models.ErrMissingImage
	}
	return t, s, nil
}

func replayed(c models.GeneratedContent) Result {
	return Result{
		ID:       c.ID,
		Content:  c.Parts(),
		Charged:  c.PointsCharged > 0,
		Replayed: true,
	}
}
