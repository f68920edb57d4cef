package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"paygateway/internal/metrics"
	"paygateway/internal/models"
	"paygateway/internal/pkg/httpclient"
)

// lookupOperation labels lookup calls in metrics, next to the payment
// transaction types.
const lookupOperation = "lookup"

// LookupProcessor is one account lookup integration. An instance serves
// exactly one request and is driven through its steps by LookupDriver.
type LookupProcessor interface {
	Name() string
	Validate() error
	SetCredentials() error
	SetEndpoint()
	Lookup(ctx context.Context, t *httpclient.Sanitizer) error
	ParseResponse(resp *models.LookupResponse) error
}

// LookupStore persists lookup audit records.
type LookupStore interface {
	CreateLookup(ctx context.Context, l *models.Lookup) error
	UpdateLookup(ctx context.Context, id uint, updates map[string]interface{}) error
}

// LookupExecution is the outcome of one lookup lifecycle run.
type LookupExecution struct {
	State    State
	Audit    *models.Lookup
	Response *models.LookupResponse
	Visited  []State
}

func (e *LookupExecution) enter(s State) {
	e.State = s
	e.Visited = append(e.Visited, s)
}

// LookupDriver runs lookup processors through the same lifecycle as
// payment transactions.
type LookupDriver struct {
	store   LookupStore
	client  *httpclient.Client
	metrics *metrics.GatewayMetrics
	logger  *zap.Logger
}

func NewLookupDriver(store LookupStore, client *httpclient.Client, m *metrics.GatewayMetrics, logger *zap.Logger) *LookupDriver {
	return &LookupDriver{store: store, client: client, metrics: m, logger: logger}
}

// Execute runs p for req. On error the returned execution holds the
// partial response and the state reached.
func (d *LookupDriver) Execute(ctx context.Context, p LookupProcessor, req *models.LookupRequest) (*LookupExecution, error) {
	run := &LookupExecution{
		Response: &models.LookupResponse{ClientReferenceCode: req.ClientReferenceCode},
	}
	run.enter(StateCreated)
	log := d.logger.With(
		zap.String("processor", p.Name()),
		zap.String("interaction_id", req.InteractionID),
	)

	run.Audit = models.NewLookupFromRequest(req, MessageIDFromContext(ctx))
	if err := d.store.CreateLookup(ctx, run.Audit); err != nil {
		return d.fail(run, p, log, fmt.Errorf("log lookup request: %w", err))
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

	// Lookup requests carry no cardholder data.
	transport := d.client.Sanitized(&lookupRecorder{store: d.store, audit: run.Audit}, nil)
	started := time.Now()
	err := p.Lookup(ctx, transport)
	d.metrics.RecordDispatch(p.Name(), lookupOperation, time.Since(started))
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
	if run.Response.BalanceAmount != nil {
		updates["balance_amount"] = *run.Response.BalanceAmount
		run.Audit.BalanceAmount = decimal.NewNullDecimal(*run.Response.BalanceAmount)
	}
	if run.Response.BalanceDueDate != nil {
		updates["balance_due_date"] = *run.Response.BalanceDueDate
		run.Audit.BalanceDueDate = run.Response.BalanceDueDate
	}
	if err := d.store.UpdateLookup(ctx, run.Audit.ID, updates); err != nil {
		return d.fail(run, p, log, fmt.Errorf("log lookup response: %w", err))
	}
	run.Audit.ProcessorResult = string(run.Response.Result)
	run.Audit.ProcessorTransactionID = run.Response.TransactionID
	run.Audit.ProcessorMessage = run.Response.Message
	d.step(run, log, StateResponseLogged)

	d.step(run, log, StateDone)
	d.metrics.RecordTransaction(p.Name(), lookupOperation, string(run.Response.Result))
	return run, nil
}

func (d *LookupDriver) step(run *LookupExecution, log *zap.Logger, s State) {
	run.enter(s)
	log.Debug("lookup lifecycle", zap.String("state", string(s)))
}

func (d *LookupDriver) fail(run *LookupExecution, p LookupProcessor, log *zap.Logger, err error) (*LookupExecution, error) {
	failedAt := run.State
	run.enter(StateFailed)
	run.Response.Result = models.ResultError
	log.Warn("lookup lifecycle failed",
		zap.String("state", string(failedAt)),
		zap.Error(err),
	)
	d.metrics.RecordFailure(p.Name(), string(failedAt))
	return run, err
}

// lookupRecorder writes the wire text onto the lookup audit record.
type lookupRecorder struct {
	store LookupStore
	audit *models.Lookup
}

func (r *lookupRecorder) RecordRequest(ctx context.Context, body string) error {
	r.audit.ProcessorRequest = body
	return r.store.UpdateLookup(ctx, r.audit.ID, map[string]interface{}{"processor_request": body})
}

func (r *lookupRecorder) RecordResponse(ctx context.Context, body string) error {
	r.audit.ProcessorResponse = body
	return r.store.UpdateLookup(ctx, r.audit.ID, map[string]interface{}{"processor_response": body})
}

// LookupConstructor builds a single-use LookupProcessor for one request.
type LookupConstructor func(req *models.LookupRequest, endpoints Endpoints) LookupProcessor

// LookupRegistration ties a lookup processor name to its constructor and URLs.
type LookupRegistration struct {
	Name      string
	Endpoints Endpoints
	New       LookupConstructor
}

// LookupRegistry selects the lookup processor for a request.
type LookupRegistry struct {
	entries []LookupRegistration
}

// NewLookupRegistry registers every built-in lookup processor. Non-empty
// URLs in overrides replace the defaults for the named processor.
func NewLookupRegistry(overrides map[string]Endpoints) *LookupRegistry {
	entries := []LookupRegistration{
		{Name: models.ProcessorConvenientPayments, Endpoints: convenientPaymentsEndpoints, New: NewConvenientPayments},
	}
	for i := range entries {
		entries[i].Endpoints = overridden(entries[i].Endpoints, overrides[entries[i].Name])
	}
	return &LookupRegistry{entries: entries}
}

// Processor builds the lookup processor instance for req.
func (r *LookupRegistry) Processor(req *models.LookupRequest) (LookupProcessor, error) {
	for _, e := range r.entries {
		if e.Name == req.Processor {
			return e.New(req, e.Endpoints), nil
		}
	}
	return nil, processorNotImplemented(req.Processor)
}

// Names lists registered lookup processors in selection order.
func (r *LookupRegistry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		names = append(names, e.Name)
	}
	return names
}
