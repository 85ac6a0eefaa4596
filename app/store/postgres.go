package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/yx-elite/social-media-content-generator/app/models"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Postgres struct {
	db   *sql.DB
	q    querier
	inTx bool
}

// OpenPostgres connects with lib/pq and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	d, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	d.SetMaxOpenConns(10)
	d.SetConnMaxIdleTime(5 * time.Minute)

	if err := d.PingContext(ctx); err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("db.Ping: %w", err)
	}
	return NewPostgres(d), nil
}

func NewPostgres(d *sql.DB) *Postgres {
	return &Postgres{db: d, q: d}
}

func (p *Postgres) Close() error {
	return p.db.Close()
}

func (p *Postgres) WithinTx(ctx context.Context, fn func(Store) error) error {
	if p.inTx {
		return fn(p)
	}

	tx, err := p.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(&Postgres{db: p.db, q: tx, inTx: true}); err != nil {
		return err
	}
	return tx.Commit()
}

const userColumns = `id, email, name, points, stripe_customer_id, created_at`

func scanUser(row interface{ Scan(...any) error }, extra ...any) (models.User, error) {
	var (
		u          models.User
		name       sql.NullString
		customerID sql.NullString
	)
	dest := append([]any{&u.ID, &u.Email, &name, &u.Points, &customerID, &u.CreatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return models.User{}, err
	}
	u.Name = name.String
	u.StripeCustomerID = customerID.String
	return u, nil
}

func (p *Postgres) GetUser(ctx context.Context, id string) (models.User, error) {
	u, err := scanUser(p.q.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1;
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, models.ErrNotFound
	}
	return u, err
}

func (p *Postgres) UpsertUser(ctx context.Context, u models.User, initialPoints int) (models.User, bool, error) {
	// xmax = 0 only for rows created by this statement.
	const q = `
		INSERT INTO users (id, email, name, points)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET email = EXCLUDED.email,
			name = EXCLUDED.name
		RETURNING ` + userColumns + `, (xmax = 0) AS inserted;
	`
	var inserted bool
	out, err := scanUser(
		p.q.QueryRowContext(ctx, q, u.ID, u.Email, nullIfEmpty(u.Name), initialPoints),
		&inserted,
	)
	if err != nil {
		return models.User{}, false, err
	}
	return out, inserted, nil
}

func (p *Postgres) SetStripeCustomer(ctx context.Context, userID, customerID string) error {
	res, err := p.q.ExecContext(ctx, `
		UPDATE users
		SET stripe_customer_id = $1
		WHERE id = $2;
	`, customerID, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (p *Postgres) AddPoints(ctx context.Context, userID string, delta int) (int, error) {
	var balance int
	err := p.q.QueryRowContext(ctx, `
		UPDATE users
		SET points = points + $1
		WHERE id = $2
		RETURNING points;
	`, delta, userID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, models.ErrNotFound
	}
	return balance, err
}

func (p *Postgres) SpendPoints(ctx context.Context, userID string, amount int) (int, error) {
	var balance int
	err := p.q.QueryRowContext(ctx, `
		UPDATE users
		SET points = points - $1
		WHERE id = $2 AND points >= $1
		RETURNING points;
	`, amount, userID).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	// The guard clause failed: tell a missing user apart from a short balance.
	var exists bool
	if err := p.q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1);`, userID).Scan(&exists); err != nil {
		return 0, err
	}
	if !exists {
		return 0, models.ErrNotFound
	}
	return 0, models.ErrInsufficientPoints
}

const subscriptionColumns = `id, user_id, external_subscription_id, external_customer_id, plan, status,
	current_period_start, current_period_end, created_at, updated_at`

func scanSubscription(row interface{ Scan(...any) error }) (models.Subscription, error) {
	var (
		s          models.Subscription
		customerID sql.NullString
	)
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.ExternalSubscriptionID,
		&customerID,
		&s.Plan,
		&s.Status,
		&s.CurrentPeriodStart,
		&s.CurrentPeriodEnd,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Subscription{}, models.ErrNotFound
	}
	if err != nil {
		return models.Subscription{}, err
	}
	s.ExternalCustomerID = customerID.String
	return s, nil
}

func (p *Postgres) GetSubscriptionByUser(ctx context.Context, userID string) (models.Subscription, error) {
	return scanSubscription(p.q.QueryRowContext(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE user_id = $1
		ORDER BY updated_at DESC
		LIMIT 1;
	`, userID))
}

func (p *Postgres) GetSubscriptionByExternalID(ctx context.Context, externalID string) (models.Subscription, error) {
	return scanSubscription(p.q.QueryRowContext(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE external_subscription_id = $1;
	`, externalID))
}

func (p *Postgres) UpsertSubscription(ctx context.Context, s models.Subscription) (models.Subscription, error) {
	const q = `
		INSERT INTO subscriptions (
			user_id,
			external_subscription_id,
			external_customer_id,
			plan,
			status,
			current_period_start,
			current_period_end
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (external_subscription_id) DO UPDATE
		SET user_id = EXCLUDED.user_id,
			external_customer_id = COALESCE(EXCLUDED.external_customer_id, subscriptions.external_customer_id),
			plan = EXCLUDED.plan,
			status = EXCLUDED.status,
			current_period_start = EXCLUDED.current_period_start,
			current_period_end = EXCLUDED.current_period_end,
			updated_at = now()
		RETURNING ` + subscriptionColumns + `;
	`
	return scanSubscription(p.q.QueryRowContext(
		ctx,
		q,
		s.UserID,
		s.ExternalSubscriptionID,
		nullIfEmpty(s.ExternalCustomerID),
		s.Plan,
		s.Status,
		s.CurrentPeriodStart,
		s.CurrentPeriodEnd,
	))
}

const contentColumns = `id, user_id, request_id, prompt, content_type, content, image_data, points_charged, created_at`

func scanContent(row interface{ Scan(...any) error }) (models.GeneratedContent, error) {
	var (
		c         models.GeneratedContent
		requestID sql.NullString
		imageData sql.NullString
	)
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&requestID,
		&c.Prompt,
		&c.ContentType,
		&c.Content,
		&imageData,
		&c.PointsCharged,
		&c.CreatedAt,
	)
	if err != nil {
		return models.GeneratedContent{}, err
	}
	c.RequestID = requestID.String
	c.ImageData = imageData.String
	return c, nil
}

func (p *Postgres) SaveContent(ctx context.Context, c models.GeneratedContent) (models.GeneratedContent, error) {
	const q = `
		INSERT INTO generated_content (
			id, user_id, request_id, prompt, content_type, content, image_data, points_charged
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, request_id) DO NOTHING
		RETURNING ` + contentColumns + `;
	`
	saved, err := scanContent(p.q.QueryRowContext(
		ctx,
		q,
		c.ID,
		c.UserID,
		nullIfEmpty(c.RequestID),
		c.Prompt,
		c.ContentType,
		c.Content,
		nullIfEmpty(c.ImageData),
		c.PointsCharged,
	))
	if errors.Is(err, sql.ErrNoRows) {
		existing, ferr := p.FindContentByRequest(ctx, c.UserID, c.RequestID)
		if ferr != nil {
			return models.GeneratedContent{}, ferr
		}
		return existing, models.ErrDuplicate
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
		return models.GeneratedContent{}, models.ErrNotFound
	}
	return saved, err
}

func (p *Postgres) FindContentByRequest(ctx context.Context, userID, requestID string) (models.GeneratedContent, error) {
	if requestID == "" {
		return models.GeneratedContent{}, models.ErrNotFound
	}
	c, err := scanContent(p.q.QueryRowContext(ctx, `
		SELECT `+contentColumns+`
		FROM generated_content
		WHERE user_id = $1 AND request_id = $2;
	`, userID, requestID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.GeneratedContent{}, models.ErrNotFound
	}
	return c, err
}

// ListContent returns a user's history, newest first.
func (p *Postgres) ListContent(ctx context.Context, userID string, limit int) ([]models.GeneratedContent, error) {
	rows, err := p.q.QueryContext(ctx, `
		SELECT `+contentColumns+`
		FROM generated_content
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2;
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.GeneratedContent{}
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Postgres) MarkEventProcessed(ctx context.Context, provider, eventID string) error {
	res, err := p.q.ExecContext(ctx, `
		INSERT INTO webhook_events (provider, event_id)
		VALUES ($1, $2)
		ON CONFLICT (provider, event_id) DO NOTHING;
	`, provider, eventID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrDuplicate
	}
	return nil
}

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
