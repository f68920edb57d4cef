package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"paygateway/internal/events"
	"paygateway/internal/models"
	"paygateway/internal/payment"
)

type fakeExecutor struct {
	response *models.TransactionResponse
	err      error
	got      *models.TransactionRequest
	proc     string
}

func (f *fakeExecutor) Execute(_ context.Context, p payment.Processor, req *models.TransactionRequest) (*payment.Execution, error) {
	f.got = req
	f.proc = p.Name()
	resp := *f.response
	run := &payment.Execution{
		Response: &resp,
		Audit:    &models.Transaction{ID: 11},
	}
	return run, f.err
}

type recordingPublisher struct {
	events []events.TransactionCompleted
}

func (p *recordingPublisher) Publish(_ context.Context, e events.TransactionCompleted) error {
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func newTestService(exec Executor, pub events.Publisher) *Service {
	s := NewService(payment.NewRegistry(nil), exec, pub, zap.NewNop())
	s.now = func() time.Time { return fixedNow }
	return s
}

// render round-trips the envelope through JSON as the API would send it.
func render(t *testing.T, env models.Envelope) map[string]any {
	t.Helper()
	b, err := json.Marshal(env)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	return out
}

func firstItem(t *testing.T, out map[string]any) map[string]any {
	t.Helper()
	data, ok := out["data"].([]any)
	require.True(t, ok)
	require.Len(t, data, 1)
	item, ok := data[0].(map[string]any)
	require.True(t, ok)
	return item
}

func errorsOf(out map[string]any) []any {
	meta, _ := out["metadata"].(map[string]any)
	errs, _ := meta["errors"].([]any)
	return errs
}

func TestProcessApproved(t *testing.T) {
	exec := &fakeExecutor{response: &models.TransactionResponse{
		Result:              models.ResultApproved,
		TransactionID:       "60123",
		Message:             "1 - This transaction has been approved.",
		ClientReferenceCode: "order-42",
	}}
	pub := &recordingPublisher{}

	status, env := newTestService(exec, pub).Process(context.Background(), 99, []byte(validSale))
	assert.Equal(t, http.StatusOK, status)

	out := render(t, env)
	assert.Empty(t, errorsOf(out))
	item := firstItem(t, out)
	assert.Equal(t, "approved", item["result"])
	assert.Equal(t, "60123", item["transaction_id"])
	assert.Equal(t, "1 - This transaction has been approved.", item["message"])

	require.NotNil(t, exec.got)
	assert.Equal(t, 99, exec.got.ProjectID, "path project wins over the body")
	assert.Equal(t, models.ProcessorAuthorizeNet, exec.proc)

	require.Len(t, pub.events, 1)
	e := pub.events[0]
	assert.Equal(t, "transaction.completed", e.Event)
	assert.Equal(t, uint(11), e.AuditID)
	assert.Equal(t, 99, e.ProjectID)
	assert.Equal(t, "1111", e.AccountLast4)
	assert.Equal(t, "25.50", e.Amount)
	assert.Equal(t, fixedNow, e.OccurredAt)
}

func TestProcessDeclinedMovesMessageToErrors(t *testing.T) {
	exec := &fakeExecutor{response: &models.TransactionResponse{
		Result:        models.ResultDeclined,
		TransactionID: "60124",
		Message:       "2 - This transaction has been declined.",
	}}

	status, env := newTestService(exec, nil).Process(context.Background(), 7, []byte(validSale))
	assert.Equal(t, http.StatusBadRequest, status)

	out := render(t, env)
	assert.Equal(t, []any{
		map[string]any{"field": "detail", "message": "2 - This transaction has been declined."},
	}, errorsOf(out))
	item := firstItem(t, out)
	assert.Equal(t, "declined", item["result"])
	assert.Equal(t, "60124", item["transaction_id"])
	assert.Nil(t, item["message"])
	assert.Equal(t, "order-42", item["client_reference_code"])
}

func TestProcessRejectsBeforeExecuting(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		field string
		msg   string
	}{
		{
			name:  "malformed json",
			raw:   `{"mode": "test",`,
			field: "detail",
			msg:   "JSON parse error - unexpected EOF",
		},
		{
			name:  "invalid field",
			raw:   `{"client_reference_code": "order-7", "mode": "sandbox"}`,
			field: "mode",
			msg:   `"sandbox" is not a valid choice.`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &fakeExecutor{}
			status, env := newTestService(exec, nil).Process(context.Background(), 7, []byte(tt.raw))
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Nil(t, exec.got)

			require.NotEmpty(t, env.Metadata.Errors)
			assert.Equal(t, models.ErrorItem{Field: tt.field, Message: tt.msg}, env.Metadata.Errors[0])
			item := firstItem(t, render(t, env))
			assert.Equal(t, "error", item["result"])
		})
	}
}

func TestProcessEchoesNumericReference(t *testing.T) {
	exec := &fakeExecutor{}
	_, env := newTestService(exec, nil).Process(context.Background(), 7, []byte(`{"client_reference_code": 1234}`))
	item := firstItem(t, render(t, env))
	assert.Equal(t, "1234", item["client_reference_code"])
}

func TestProcessExecutorErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want models.ErrorItem
	}{
		{
			name: "validation",
			err:  payment.NewValidationError("invoice_number is not supported in the provided processor (stripe)."),
			want: models.ErrorItem{Field: "detail", Message: "invoice_number is not supported in the provided processor (stripe)."},
		},
		{
			name: "not implemented",
			err:  &payment.NotImplementedError{Msg: "Transaction type `credit` is not implemented for processor `chase`."},
			want: models.ErrorItem{Field: "detail", Message: "Transaction type `credit` is not implemented for processor `chase`."},
		},
		{
			name: "transport",
			err:  errors.New("authorize_net request failed: connection refused"),
			want: models.ErrorItem{Field: "detail", Message: "authorize_net request failed: connection refused"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &recordingPublisher{}
			exec := &fakeExecutor{response: &models.TransactionResponse{Result: models.ResultError}, err: tt.err}

			status, env := newTestService(exec, pub).Process(context.Background(), 7, []byte(validSale))
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, []models.ErrorItem{tt.want}, env.Metadata.Errors)
			assert.Empty(t, pub.events)
		})
	}
}
