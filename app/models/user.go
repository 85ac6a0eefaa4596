// Package models defines users, subscription plans and generated content.
package models

import "time"

type Plan string

const (
	PlanFree  Plan = "free"
	PlanBasic Plan = "basic"
	PlanPro   Plan = "pro"
)

type SubscriptionStatus string

const (
	StatusActive     SubscriptionStatus = "active"
	StatusTrialing   SubscriptionStatus = "trialing"
	StatusPastDue    SubscriptionStatus = "past_due"
	StatusUnpaid     SubscriptionStatus = "unpaid"
	StatusIncomplete SubscriptionStatus = "incomplete"
	StatusCanceled   SubscriptionStatus = "canceled"
)

// User is keyed by the identity provider's subject id.
type User struct {
	ID               string    `json:"id" db:"id"`
	Email            string    `json:"email" db:"email"`
	Name             string    `json:"name" db:"name"`
	Points           int       `json:"points" db:"points"`
	StripeCustomerID string    `json:"-" db:"stripe_customer_id"`
	CreatedAt        time.Time `json:"createdAt" db:"created_at"`
}

type Subscription struct {
	ID                     int64              `json:"id" db:"id"`
	UserID                 string             `json:"userId" db:"user_id"`
	ExternalSubscriptionID string             `json:"stripeSubscriptionId" db:"external_subscription_id"`
	ExternalCustomerID     string             `json:"-" db:"external_customer_id"`
	Plan                   Plan               `json:"plan" db:"plan"`
	Status                 SubscriptionStatus `json:"status" db:"status"`
	CurrentPeriodStart     time.Time          `json:"currentPeriodStart" db:"current_period_start"`
	CurrentPeriodEnd       time.Time          `json:"currentPeriodEnd" db:"current_period_end"`
	CreatedAt              time.Time          `json:"createdAt" db:"created_at"`
	UpdatedAt              time.Time          `json:"updatedAt" db:"updated_at"`
}
