package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"

	"github.com/errandly/errandly/internal/logging"
)

type StripeConfig struct {
	APIKey string `yaml:"api_key"`
	// MaxAttempts bounds transport-level retries of a single capture.
	// A declined card is never retried.
	MaxAttempts uint `yaml:"max_attempts"`
}

// StripeGateway captures funds by creating a confirmed off-session
// PaymentIntent against the requester's stored customer and payment method.
type StripeGateway struct {
	sc          *client.API
	maxAttempts uint
}

func NewStripeGateway(cfg StripeConfig) *StripeGateway {
	sc := &client.API{}
	sc.Init(cfg.APIKey, nil)
	attempts := cfg.MaxAttempts
	if attempts == 0 {
		attempts = 3
	}
	return &StripeGateway{sc: sc, maxAttempts: attempts}
}

func (g *StripeGateway) Capture(ctx context.Context, req CaptureRequest) error {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(req.Amount),
		Currency:      stripe.String(req.Currency),
		Customer:      stripe.String(req.CustomerRef),
		PaymentMethod: stripe.String(req.PaymentMethodRef),
		OffSession:    stripe.Bool(true),
		Confirm:       stripe.Bool(true),
	}
	if req.IdempotencyKey != "" {
		params.IdempotencyKey = stripe.String(req.IdempotencyKey)
	}

	operation := func() (*stripe.PaymentIntent, error) {
		pi, err := g.sc.PaymentIntents.New(params)
		if err == nil {
			return pi, nil
		}
		var serr *stripe.Error
		if errors.As(err, &serr) && serr.Type != stripe.ErrorTypeAPIConnection {
			// Declines and invalid-request errors will not improve on retry.
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	pi, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(g.maxAttempts),
		backoff.WithMaxElapsedTime(30*time.Second),
	)
	if err != nil {
		return fmt.Errorf("stripe capture: %w", err)
	}
	logging.Infof(ctx, "stripe capture succeeded payment_intent=%s amount=%d", pi.ID, req.Amount)
	return nil
}
