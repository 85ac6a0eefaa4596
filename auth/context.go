// Package auth carries verified session claims through the request context.
package auth

import (
	"context"
	"time"
)

type ctxKey int

const claimsKey ctxKey = iota

// localIssuer marks claims injected when auth is disabled.
const localIssuer = "local"

// Claims contains the verified Clerk session token details we care about.
type Claims struct {
	Subject         string
	Issuer          string
	Audience        []string
	ExpiresAt       time.Time
	AuthorizedParty string
	SessionID       string
	Raw             map[string]any
}

// WithClaims stores auth claims in a context.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext returns claims from a context.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok
}

// CanActAs reports whether the caller may read or change userID's data.
// With auth disabled every user id is allowed.
func CanActAs(ctx context.Context, userID string) bool {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return false
	}
	if claims.Issuer == localIssuer {
		return true
	}
	return claims.Subject != "" && claims.Subject == userID
}
