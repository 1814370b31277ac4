package payments

import (
	"context"
	"errors"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
)

// ErrGatewayNotConfigured is returned when no Stripe secret key is set.
var ErrGatewayNotConfigured = errors.New("Stripe integration is not configured")

// Intent is the part of a payment intent the booking flow cares about.
type Intent struct {
	ID             string            `json:"id"`
	ClientSecret   string            `json:"client_secret,omitempty"`
	AmountCents    int64             `json:"amount"`
	AmountReceived int64             `json:"amount_received"`
	Currency       string            `json:"currency"`
	Status         string            `json:"status"`
	Metadata       map[string]string `json:"metadata"`
	// LastPaymentFailed is set when the latest charge attempt was declined.
	LastPaymentFailed bool `json:"-"`
}

// Gateway abstracts the hosted payment provider for testability.
type Gateway interface {
	CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*Intent, error)
	RetrieveIntent(ctx context.Context, id string) (*Intent, error)
}

// StripeGateway creates and reads PaymentIntents with the Stripe SDK. It uses its own
// client rather than the package-level stripe.Key.
type StripeGateway struct {
	client *paymentintent.Client
}

func NewStripeGateway(secretKey string) *StripeGateway {
	if secretKey == "" {
		return &StripeGateway{}
	}
	return &StripeGateway{client: &paymentintent.Client{B: stripe.GetBackend(stripe.APIBackend), Key: secretKey}}
}

func (g *StripeGateway) Configured() bool {
	return g != nil && g.client != nil
}

func (g *StripeGateway) CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*Intent, error) {
	if !g.Configured() {
		return nil, ErrGatewayNotConfigured
	}
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
		Metadata: metadata,
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	pi, err := g.client.New(params)
	if err != nil {
		return nil, err
	}
	return fromStripe(pi), nil
}

func (g *StripeGateway) RetrieveIntent(ctx context.Context, id string) (*Intent, error) {
	if !g.Configured() {
		return nil, ErrGatewayNotConfigured
	}
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := g.client.Get(id, params)
	if err != nil {
		return nil, err
	}
	return fromStripe(pi), nil
}

func fromStripe(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:                pi.ID,
		ClientSecret:      pi.ClientSecret,
		AmountCents:       pi.Amount,
		AmountReceived:    pi.AmountReceived,
		Currency:          string(pi.Currency),
		Status:            string(pi.Status),
		Metadata:          pi.Metadata,
		LastPaymentFailed: pi.LastPaymentError != nil,
	}
}
