// Package payment defines the capture contract consumed by the completion
// orchestrator. The gateway's internal behavior is out of scope here; only
// the contract matters: capture a pre-authorized amount, or fail.
package payment

import "context"

type CaptureRequest struct {
	CustomerRef      string
	PaymentMethodRef string
	Amount           int64
	Currency         string
	// IdempotencyKey makes a transport-level retry safe; the gateway must
	// treat two captures with the same key as one.
	IdempotencyKey string
}

type Gateway interface {
	Capture(ctx context.Context, req CaptureRequest) error
}
