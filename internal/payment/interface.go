package payment

import (
	"context"

	"paygateway/internal/models"
	"paygateway/internal/pkg/httpclient"
)

// Endpoints are the live and test base URLs of a processor.
type Endpoints struct {
	Live string
	Test string
}

// For picks the URL for mode.
func (e Endpoints) For(mode models.Mode) string {
	if mode == models.ModeLive {
		return e.Live
	}
	return e.Test
}

// Processor is one payment processor integration. An instance serves
// exactly one request and is driven through its steps by Driver.Execute.
type Processor interface {
	// Name returns the processor identifier.
	Name() string

	// Validate checks credentials and processor-specific field rules.
	Validate() error

	// SetCredentials loads the typed credentials from the request.
	SetCredentials() error

	// SetEndpoint picks the live or test URL.
	SetEndpoint()

	Authorize(ctx context.Context, t *httpclient.Sanitizer) error
	Capture(ctx context.Context, t *httpclient.Sanitizer) error
	Sale(ctx context.Context, t *httpclient.Sanitizer) error
	Void(ctx context.Context, t *httpclient.Sanitizer) error
	Refund(ctx context.Context, t *httpclient.Sanitizer) error

	// ParseResponse maps the processor reply onto resp.
	ParseResponse(resp *models.TransactionResponse) error
}
