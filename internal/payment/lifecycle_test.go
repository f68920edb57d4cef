package payment

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"paygateway/internal/models"
	"paygateway/internal/pkg/httpclient"
)

type fakeStore struct {
	mu        sync.Mutex
	created   []*models.Transaction
	updates   []map[string]interface{}
	createErr error
	updateErr error
}

func (s *fakeStore) CreateTransaction(_ context.Context, t *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	t.ID = uint(len(s.created) + 1)
	s.created = append(s.created, t)
	return nil
}

func (s *fakeStore) UpdateTransaction(_ context.Context, _ uint, updates map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updates = append(s.updates, updates)
	return nil
}

// merged folds all updates into one map, later writes winning.
func (s *fakeStore) merged() map[string]interface{} {
	out := map[string]interface{}{}
	for _, u := range s.updates {
		for k, v := range u {
			out[k] = v
		}
	}
	return out
}

type fakeProcessor struct {
	url         string
	validateErr error
	credErr     error
	parseErr    error
	dispatched  []models.TransactionType
}

func (f *fakeProcessor) Name() string          { return "fake" }
func (f *fakeProcessor) Validate() error       { return f.validateErr }
func (f *fakeProcessor) SetCredentials() error { return f.credErr }
func (f *fakeProcessor) SetEndpoint()          {}

func (f *fakeProcessor) post(ctx context.Context, t *httpclient.Sanitizer, tt models.TransactionType) error {
	f.dispatched = append(f.dispatched, tt)
	_, err := t.PostJSON(ctx, f.url, []byte(`{"card":"4111111111111111","cvv":"123"}`), nil)
	return err
}

func (f *fakeProcessor) Authorize(ctx context.Context, t *httpclient.Sanitizer) error {
	return f.post(ctx, t, models.TransactionAuthorize)
}
func (f *fakeProcessor) Capture(ctx context.Context, t *httpclient.Sanitizer) error {
	return f.post(ctx, t, models.TransactionCapture)
}
func (f *fakeProcessor) Sale(ctx context.Context, t *httpclient.Sanitizer) error {
	return f.post(ctx, t, models.TransactionSale)
}
func (f *fakeProcessor) Void(ctx context.Context, t *httpclient.Sanitizer) error {
	return f.post(ctx, t, models.TransactionVoid)
}
func (f *fakeProcessor) Refund(ctx context.Context, t *httpclient.Sanitizer) error {
	return f.post(ctx, t, models.TransactionRefund)
}

func (f *fakeProcessor) ParseResponse(resp *models.TransactionResponse) error {
	if f.parseErr != nil {
		return f.parseErr
	}
	resp.Result = models.ResultApproved
	resp.TransactionID = "txn-1"
	resp.Message = "1 - This transaction has been approved."
	return nil
}

func echoServer(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok","card":"4111111111111111"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func saleRequest() *models.TransactionRequest {
	return &models.TransactionRequest{
		ProjectID:             3,
		Mode:                  models.ModeTest,
		InteractionID:         "int-1",
		ClientReferenceCode:   "ref-1",
		Processor:             "fake",
		TransactionType:       models.TransactionSale,
		TenderType:            models.TenderCreditCard,
		Amount:                decimal.RequireFromString("10.00"),
		CardAccountNumber:     "4111111111111111",
		CardVerificationValue: "123",
	}
}

func newTestDriver(store AuditStore) *Driver {
	return NewDriver(store, httpclient.New(), nil, zap.NewNop())
}

func TestExecuteVisitsEveryState(t *testing.T) {
	srv := echoServer(t)
	store := &fakeStore{}
	proc := &fakeProcessor{url: srv.URL}

	ctx := WithMessageID(context.Background(), 42)
	run, err := newTestDriver(store).Execute(ctx, proc, saleRequest())
	require.NoError(t, err)

	assert.Equal(t, []State{
		StateCreated, StateRequestLogged, StateValidated, StateCredentialed, StateEndpointSet,
		StateDispatched, StateResponseParsed, StateResponseLogged, StateDone,
	}, run.Visited)
	assert.Equal(t, StateDone, run.State)
	assert.Equal(t, []models.TransactionType{models.TransactionSale}, proc.dispatched)

	require.Len(t, store.created, 1)
	audit := store.created[0]
	require.NotNil(t, audit.MessageID)
	assert.Equal(t, uint(42), *audit.MessageID)
	assert.Equal(t, "1111", audit.CardAccountNumber)

	final := store.merged()
	assert.Equal(t, `{"card":"************1111","cvv":"***"}`, final["processor_request"])
	assert.Equal(t, `{"status":"ok","card":"************1111"}`, final["processor_response"])
	assert.Equal(t, "approved", final["processor_result"])
	assert.Equal(t, "txn-1", final["processor_transaction_id"])

	assert.Equal(t, models.ResultApproved, run.Response.Result)
	assert.Equal(t, "ref-1", run.Response.ClientReferenceCode)
}

func TestExecuteStopsOnValidationError(t *testing.T) {
	srv := echoServer(t)
	store := &fakeStore{}
	proc := &fakeProcessor{url: srv.URL, validateErr: FieldError("invoice_number", "not supported")}

	run, err := newTestDriver(store).Execute(context.Background(), proc, saleRequest())
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	assert.Equal(t, []State{StateCreated, StateRequestLogged, StateFailed}, run.Visited)
	assert.Empty(t, proc.dispatched)
	assert.Len(t, store.created, 1, "request is logged before validation")
	assert.Empty(t, store.updates, "audit is not updated on failure")
	assert.Equal(t, models.ResultError, run.Response.Result)
}

func TestExecuteFailsWhenAuditCannotBeCreated(t *testing.T) {
	store := &fakeStore{createErr: errors.New("db down")}
	proc := &fakeProcessor{url: "http://127.0.0.1:0"}

	run, err := newTestDriver(store).Execute(context.Background(), proc, saleRequest())
	require.Error(t, err)
	assert.Equal(t, []State{StateCreated, StateFailed}, run.Visited)
	assert.Empty(t, proc.dispatched)
}

func TestExecuteFailsOnTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	store := &fakeStore{}
	proc := &fakeProcessor{url: url}
	run, err := newTestDriver(store).Execute(context.Background(), proc, saleRequest())
	require.Error(t, err)
	assert.Equal(t, StateFailed, run.State)
	assert.Equal(t, StateEndpointSet, run.Visited[len(run.Visited)-2])

	final := store.merged()
	assert.Contains(t, final, "processor_request")
	assert.NotContains(t, final, "processor_response")
}

func TestExecuteFailsOnParseError(t *testing.T) {
	srv := echoServer(t)
	store := &fakeStore{}
	proc := &fakeProcessor{url: srv.URL, parseErr: errors.New("authorize_net parse error: bad json")}

	run, err := newTestDriver(store).Execute(context.Background(), proc, saleRequest())
	require.Error(t, err)
	assert.Equal(t, StateDispatched, run.Visited[len(run.Visited)-2])
	assert.NotContains(t, store.merged(), "processor_result")
}

func TestExecuteUnknownTransactionType(t *testing.T) {
	srv := echoServer(t)
	req := saleRequest()
	req.TransactionType = "credit"

	run, err := newTestDriver(&fakeStore{}).Execute(context.Background(), &fakeProcessor{url: srv.URL}, req)
	var nerr *NotImplementedError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, "Transaction type `credit` is not implemented for processor `fake`.", nerr.Error())
	assert.Equal(t, StateFailed, run.State)
}

func TestMessageIDFromContext(t *testing.T) {
	assert.Nil(t, MessageIDFromContext(context.Background()))
	assert.Nil(t, MessageIDFromContext(WithMessageID(context.Background(), 0)))
	id := MessageIDFromContext(WithMessageID(context.Background(), 9))
	require.NotNil(t, id)
	assert.Equal(t, uint(9), *id)
}
