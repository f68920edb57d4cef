package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paygateway/internal/models"
)

// cptellerServer replies with body and hands back the posted form.
func cptellerServer(t *testing.T, body string) (*httptest.Server, *url.Values) {
	var form url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		form = r.PostForm
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &form
}

func runConvenientPayments(t *testing.T, srv *httptest.Server, req *models.LookupRequest) (*LookupExecution, *fakeLookupStore, error) {
	t.Helper()
	store := &fakeLookupStore{}
	proc := NewConvenientPayments(req, Endpoints{Live: srv.URL, Test: srv.URL})
	run, err := newTestLookupDriver(store).Execute(context.Background(), proc, req)
	return run, store, err
}

func TestConvenientPaymentsCustomerRead(t *testing.T) {
	srv, form := cptellerServer(t, `{"status":"N","custid":"C-100","name":"Ada"}`)

	run, store, err := runConvenientPayments(t, srv, lookupRequest())
	require.NoError(t, err)

	assert.Equal(t, "merchant-1", form.Get("merchantkey"))
	assert.Equal(t, "api-1", form.Get("apikey"))
	assert.Equal(t, "cust_read", form.Get("method"))
	assert.Equal(t, "C-100", form.Get("custid"))

	assert.Equal(t, models.ResultApproved, run.Response.Result)
	assert.Equal(t, "Success", run.Response.Message)
	assert.Equal(t, "ref-1", run.Response.ClientReferenceCode)
	assert.Nil(t, run.Response.BalanceAmount)
	raw, ok := run.Response.ProcessorResponse.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Ada", raw["name"])

	final := store.merged()
	assert.Equal(t, "apikey=api-1&custid=C-100&merchantkey=merchant-1&method=cust_read", final["processor_request"])
	assert.Equal(t, "Success", final["processor_message"])
}

func TestConvenientPaymentsStatuses(t *testing.T) {
	tests := []struct {
		body    string
		result  models.Result
		message string
	}{
		{`{"status":"-1"}`, models.ResultDeclined, "Access Denied. The merchantkey or apikey is invalid."},
		{`{"status":-1}`, models.ResultDeclined, "Access Denied. The merchantkey or apikey is invalid."},
		{`{"status":"-2"}`, models.ResultError, "A system error occured. This may be due to invalid request parameters."},
		{`{"status":0}`, models.ResultDeclined, "No record found."},
		{`{"status":"N"}`, models.ResultApproved, "Success"},
		{`{"status":"7"}`, models.ResultApproved, "Success"},
		{`{"status":"S"}`, models.ResultApproved, "Success"},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			srv, _ := cptellerServer(t, tt.body)
			run, _, err := runConvenientPayments(t, srv, lookupRequest())
			require.NoError(t, err)
			assert.Equal(t, tt.result, run.Response.Result)
			assert.Equal(t, tt.message, run.Response.Message)
		})
	}
}

func TestConvenientPaymentsMissingStatus(t *testing.T) {
	srv, _ := cptellerServer(t, `{"error":"bad"}`)
	run, _, err := runConvenientPayments(t, srv, lookupRequest())
	require.Error(t, err)
	assert.Equal(t, StateFailed, run.State)
	assert.Equal(t, StateDispatched, run.Visited[len(run.Visited)-2])
}

func TestConvenientPaymentsValidate(t *testing.T) {
	req := lookupRequest()
	req.Credentials = map[string]string{}
	err := NewConvenientPayments(req, convenientPaymentsEndpoints).Validate()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "`api_access_key`, `merchant_key` are required as part of credentials.", verr.Items[0].Message)

	req = lookupRequest()
	req.Credentials = map[string]string{"api_access_key": "api-1"}
	err = NewConvenientPayments(req, convenientPaymentsEndpoints).Validate()
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "`merchant_key` are required as part of credentials.", verr.Items[0].Message)

	req = lookupRequest()
	req.CustomerID = ""
	err = NewConvenientPayments(req, convenientPaymentsEndpoints).Validate()
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []models.ErrorItem{{Field: DetailField, Message: "`customer_id` is required."}}, verr.Items)

	assert.NoError(t, NewConvenientPayments(lookupRequest(), convenientPaymentsEndpoints).Validate())
}
