package payment

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

// StripeConfig carries the checkout redirect targets and currency.
type StripeConfig struct {
	SuccessURL string
	CancelURL  string
	Currency   string
}

type stripeProvider struct {
	api *client.API
	cfg StripeConfig
}

// NewStripeProvider builds a Provider backed by the Stripe Checkout API.
func NewStripeProvider(secretKey string, cfg StripeConfig) Provider {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &stripeProvider{api: api, cfg: cfg}
}

func (p *stripeProvider) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error) {
	sessionParams := &stripe.CheckoutSessionParams{
		Params:            stripe.Params{Context: ctx},
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(p.cfg.SuccessURL),
		CancelURL:         stripe.String(p.cfg.CancelURL),
		ClientReferenceID: stripe.String(params.BookingID),
		CustomerEmail:     stripe.String(params.CustomerEmail),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(p.cfg.Currency),
					UnitAmount: stripe.Int64(params.AmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(params.Description),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	sessionParams.AddMetadata("booking_id", params.BookingID)

	sess, err := p.api.CheckoutSessions.New(sessionParams)
	if err != nil {
		return nil, fmt.Errorf("%w: create checkout session: %w", ErrPaymentProvider, err)
	}
	return newCheckoutSession(sess), nil
}

func (p *stripeProvider) RetrieveSession(ctx context.Context, providerSessionID string) (*CheckoutSession, error) {
	sess, err := p.api.CheckoutSessions.Get(providerSessionID, &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: retrieve checkout session: %w", ErrPaymentProvider, err)
	}
	return newCheckoutSession(sess), nil
}

func newCheckoutSession(sess *stripe.CheckoutSession) *CheckoutSession {
	return &CheckoutSession{
		ID:               sess.ID,
		URL:              sess.URL,
		Paid:             sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		Expired:          sess.Status == stripe.CheckoutSessionStatusExpired,
		AmountTotalCents: sess.AmountTotal,
		BookingID:        sess.ClientReferenceID,
	}
}
