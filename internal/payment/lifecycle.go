package payment

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"paygateway/internal/metrics"
	"paygateway/internal/models"
	"paygateway/internal/pkg/chd"
	"paygateway/internal/pkg/httpclient"
)

// State is a step of the transaction lifecycle.
type State string

const (
	StateCreated        State = "CREATED"
	StateRequestLogged  State = "REQUEST_LOGGED"
	StateValidated      State = "VALIDATED"
	StateCredentialed   State = "CREDENTIALED"
	StateEndpointSet    State = "ENDPOINT_SET"
	StateDispatched     State = "DISPATCHED"
	StateResponseParsed State = "RESPONSE_PARSED"
	StateResponseLogged State = "RESPONSE_LOGGED"
	StateDone           State = "DONE"
	StateFailed         State = "FAILED"
)

// AuditStore persists audit transactions.
type AuditStore interface {
	CreateTransaction(ctx context.Context, t *models.Transaction) error
	UpdateTransaction(ctx context.Context, id uint, updates map[string]interface{}) error
}

type messageIDKey struct{}

// WithMessageID attaches a wiretap message id for audit correlation.
func WithMessageID(ctx context.Context, id uint) context.Context {
	return context.WithValue(ctx, messageIDKey{}, id)
}

// MessageIDFromContext returns the wiretap message id, if any.
func MessageIDFromContext(ctx context.Context) *uint {
	id, ok := ctx.Value(messageIDKey{}).(uint)
	if !ok || id == 0 {
		return nil
	}
	return &id
}

// Execution is the outcome of one lifecycle run.
type Execution struct {
	State    State
	Audit    *models.Transaction
	Response *models.TransactionResponse
	// Visited lists every state entered, in order.
	Visited []State
}

func (e *Execution) enter(s State) {
	e.State = s
	e.Visited = append(e.Visited, s)
}

// Driver runs processors through the lifecycle. It holds no per-request
// state and is safe for concurrent use.
type Driver struct {
	store   AuditStore
	client  *httpclient.Client
	metrics *metrics.GatewayMetrics
	logger  *zap.Logger
}

func NewDriver(store AuditStore, client *httpclient.Client, m *metrics.GatewayMetrics, logger *zap.Logger) *Driver {
	return &Driver{store: store, client: client, metrics: m, logger: logger}
}

// Execute runs p for req. Audit writes strictly precede and follow the
// processor call. On error the returned Execution holds the partial
// response and the state reached, and no later step has run.
func (d *Driver) Execute(ctx context.Context, p Processor, req *models.TransactionRequest) (*Execution, error) {
	run := &Execution{
		Response: &models.TransactionResponse{ClientReferenceCode: req.ClientReferenceCode},
	}
	run.enter(StateCreated)
	log := d.logger.With(
		zap.String("processor", p.Name()),
		zap.String("transaction_type", string(req.TransactionType)),
		zap.String("interaction_id", req.InteractionID),
	)

	run.Audit = models.NewTransactionFromRequest(req, MessageIDFromContext(ctx))
	if err := d.store.CreateTransaction(ctx, run.Audit); err != nil {
		return d.fail(run, p, log, fmt.Errorf("log transaction request: %w", err))
	}
	d.step(run, log, StateRequestLogged)

	if err := p.Validate(); err != nil {
		return d.fail(run, p, log, err)
	}
	d.step(run, log, StateValidated)

	if err := p.SetCredentials(); err != nil {
		return d.fail(run, p, log, err)
	}
	d.step(run, log, StateCredentialed)

	p.SetEndpoint()
	d.step(run, log, StateEndpointSet)

	transport := d.client.Sanitized(
		&auditRecorder{store: d.store, audit: run.Audit},
		chd.ValuesToMask(req.SensitiveFields()),
	)
	started := time.Now()
	err := dispatch(ctx, p, req.TransactionType, transport)
	d.metrics.RecordDispatch(p.Name(), string(req.TransactionType), time.Since(started))
	if err != nil {
		return d.fail(run, p, log, err)
	}
	d.step(run, log, StateDispatched)

	if err := p.ParseResponse(run.Response); err != nil {
		return d.fail(run, p, log, err)
	}
	run.Response.ClientReferenceCode = req.ClientReferenceCode
	d.step(run, log, StateResponseParsed)

	updates := map[string]interface{}{
		"processor_result":         string(run.Response.Result),
		"processor_transaction_id": run.Response.TransactionID,
		"processor_message":        run.Response.Message,
	}
	if err := d.store.UpdateTransaction(ctx, run.Audit.ID, updates); err != nil {
		return d.fail(run, p, log, fmt.Errorf("log transaction response: %w", err))
	}
	run.Audit.ProcessorResult = string(run.Response.Result)
	run.Audit.ProcessorTransactionID = run.Response.TransactionID
	run.Audit.ProcessorMessage = run.Response.Message
	d.step(run, log, StateResponseLogged)

	d.step(run, log, StateDone)
	d.metrics.RecordTransaction(p.Name(), string(req.TransactionType), string(run.Response.Result))
	return run, nil
}

func (d *Driver) step(run *Execution, log *zap.Logger, s State) {
	run.enter(s)
	log.Debug("transaction lifecycle", zap.String("state", string(s)))
}

func (d *Driver) fail(run *Execution, p Processor, log *zap.Logger, err error) (*Execution, error) {
	failedAt := run.State
	run.enter(StateFailed)
	run.Response.Result = models.ResultError
	log.Warn("transaction lifecycle failed",
		zap.String("state", string(failedAt)),
		zap.Error(err),
	)
	d.metrics.RecordFailure(p.Name(), string(failedAt))
	return run, err
}

func dispatch(ctx context.Context, p Processor, t models.TransactionType, s *httpclient.Sanitizer) error {
	switch t {
	case models.TransactionAuthorize:
		return p.Authorize(ctx, s)
	case models.TransactionCapture:
		return p.Capture(ctx, s)
	case models.TransactionSale:
		return p.Sale(ctx, s)
	case models.TransactionVoid:
		return p.Void(ctx, s)
	case models.TransactionRefund:
		return p.Refund(ctx, s)
	default:
		return transactionNotImplemented(p.Name(), t)
	}
}

// auditRecorder writes masked wire text onto the audit transaction.
type auditRecorder struct {
	store AuditStore
	audit *models.Transaction
}

func (r *auditRecorder) RecordRequest(ctx context.Context, body string) error {
	r.audit.ProcessorRequest = body
	return r.store.UpdateTransaction(ctx, r.audit.ID, map[string]interface{}{"processor_request": body})
}

func (r *auditRecorder) RecordResponse(ctx context.Context, body string) error {
	r.audit.ProcessorResponse = body
	return r.store.UpdateTransaction(ctx, r.audit.ID, map[string]interface{}{"processor_response": body})
}
