// Package billing maps Stripe subscription events onto plans and point grants.
package billing

import "github.com/yx-elite/social-media-content-generator/app/models"

const (
	BasicPlanPoints = 100
	ProPlanPoints   = 500
)

// Entitlement is what a purchased price is worth.
type Entitlement struct {
	Plan   models.Plan
	Points int
}

// PriceTable is the static price id lookup. Unknown ids resolve to free/0.
type PriceTable map[string]Entitlement

func NewPriceTable(basicPriceID, proPriceID string) PriceTable {
	t := PriceTable{}
	if basicPriceID != "" {
		t[basicPriceID] = Entitlement{Plan: models.PlanBasic, Points: BasicPlanPoints}
	}
	if proPriceID != "" {
		t[proPriceID] = Entitlement{Plan: models.PlanPro, Points: ProPlanPoints}
	}
	return t
}

func (t PriceTable) Resolve(priceID string) Entitlement {
	if e, ok := t[priceID]; ok {
		return e
	}
	return Entitlement{Plan: models.PlanFree, Points: 0}
}

// Knows reports whether priceID is one the app sells.
func (t PriceTable) Knows(priceID string) bool {
	_, ok := t[priceID]
	return ok
}
