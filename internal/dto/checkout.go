package dto

import "tastycheckout/internal/domain"

// Cart is the typed checkout request after boundary validation.
type Cart struct {
	RestaurantID    string
	Items           []domain.CartItem
	DeliveryDetails domain.DeliveryDetails
}

type PricedLineItem struct {
	UnitAmountMinor int64
	Quantity        int64
	DisplayName     string
}

type PricedCheckout struct {
	LineItems           []PricedLineItem
	DeliveryAmountMinor int64
}

// EstimatedTotalMinor is the line-item total including delivery. It is only
// an estimate; the provider-confirmed amount is authoritative.
func (p PricedCheckout) EstimatedTotalMinor() int64 {
	total := p.DeliveryAmountMinor
	for _, item := range p.LineItems {
		total += item.UnitAmountMinor * item.Quantity
	}
	return total
}

type SessionRequest struct {
	LineItems           []PricedLineItem
	OrderID             string
	RestaurantID        string
	DeliveryAmountMinor int64
	SuccessURL          string
	CancelURL           string
}

const EventTypeCheckoutSessionCompleted = "checkout.session.completed"

// VerifiedEvent is a provider notification whose signature has been checked.
type VerifiedEvent struct {
	ID           string
	Type         string
	OrderID      string
	RestaurantID string
	AmountTotal  int64
	HasAmount    bool
}

type WebhookOutcome string

const (
	WebhookIgnored      WebhookOutcome = "ignored"
	WebhookPaid         WebhookOutcome = "paid"
	WebhookAlreadyPaid  WebhookOutcome = "already_paid"
	WebhookUnknownOrder WebhookOutcome = "unknown_order"
)
