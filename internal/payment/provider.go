package payment

import "context"

// CheckoutParams describes what a checkout session must collect.
type CheckoutParams struct {
	BookingID     string
	AmountCents   int64
	Description   string
	CustomerEmail string
}

// CheckoutSession is the provider's view of a checkout.
type CheckoutSession struct {
	ID               string
	URL              string
	Paid             bool
	Expired          bool
	AmountTotalCents int64
	BookingID        string
}

// Provider abstracts the payment provider. The production implementation
// talks to Stripe; tests substitute a fake.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)
	RetrieveSession(ctx context.Context, providerSessionID string) (*CheckoutSession, error)
}
