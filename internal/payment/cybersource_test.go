package payment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paygateway/internal/models"
)

func newCybersourceTestRequest() *models.TransactionRequest {
	req := saleRequest()
	req.Processor = models.ProcessorCybersource
	req.Credentials = map[string]string{"merchant_id": "acme_merchant", "transaction_key": "c2VjcmV0"}
	req.CardType = models.CardVisa
	req.CardExpiryMonth = 3
	req.CardExpiryYear = 31
	req.BillToFirstName = "Ada"
	req.BillToLastName = "Lovelace"
	req.BillToEmail = "ada@example.com"
	req.BillToCountry = "US"
	req.BillToCity = "Austin"
	req.BillToState = "TX"
	req.BillToZip = "78701"
	req.BillToAddress = "1 Main St"
	req.BillToPhone = "5125550100"
	return req
}

func cybersourceReply(fields string) string {
	return soapReply(`<c:replyMessage xmlns:c="urn:schemas-cybersource-com:transaction-data-1.171">` +
		fields + `</c:replyMessage>`)
}

func TestCybersourceSale(t *testing.T) {
	srv, call := soapServer(t, cybersourceReply(
		`<c:merchantReferenceCode>ref-1</c:merchantReferenceCode><c:requestID>6512345678</c:requestID>`+
			`<c:decision>ACCEPT</c:decision><c:reasonCode>100</c:reasonCode>`))
	req := newCybersourceTestRequest()
	req.Extra = map[string]string{"field2": "campaign", "field1": "agent-7", "other": "ignored"}

	run, err := newTestDriver(&fakeStore{}).Execute(context.Background(), NewCybersource(req, Endpoints{Test: srv.URL}), req)
	require.NoError(t, err)

	assert.Equal(t, `"runTransaction"`, call.action)
	assert.Contains(t, call.body, `xmlns:data="urn:schemas-cybersource-com:transaction-data-1.171"`)
	assertOrdered(t, call.body,
		`<wsse:Security xmlns:wsse="`+wsseNamespace+`" soapenv:mustUnderstand="1">`,
		`<wsse:Username>acme_merchant</wsse:Username>`,
		`<wsse:Password Type="`+wssePasswordText+`">c2VjcmV0</wsse:Password>`,
		`<data:requestMessage><data:merchantID>acme_merchant</data:merchantID>`,
		`<data:merchantReferenceCode>ref-1</data:merchantReferenceCode>`,
		`<data:billTo><data:firstName>Ada</data:firstName>`,
		`<data:shipTo><data:name>Ada Lovelace</data:name>`,
		`<data:purchaseTotals><data:currency>USD</data:currency><data:grandTotalAmount>10.00</data:grandTotalAmount></data:purchaseTotals>`,
		`<data:card><data:accountNumber>4111111111111111</data:accountNumber>`,
		`<data:expirationMonth>03</data:expirationMonth><data:expirationYear>2031</data:expirationYear>`,
		`<data:cardType>001</data:cardType></data:card>`,
		`<data:ccAuthService run="true"></data:ccAuthService><data:ccCaptureService run="true"></data:ccCaptureService>`,
		`<data:merchantDefinedData><data:field1>agent-7</data:field1><data:field2>campaign</data:field2></data:merchantDefinedData>`,
	)
	assert.NotContains(t, call.body, "ignored")

	assert.Equal(t, models.ResultApproved, run.Response.Result)
	assert.Equal(t, "6512345678", run.Response.TransactionID)
	assert.Equal(t, "Transaction type: sale - Reason code returned: 100", run.Response.Message)
}

func TestCybersourceReferencedACHRefund(t *testing.T) {
	srv, call := soapServer(t, cybersourceReply(`<c:requestID>1</c:requestID><c:decision>ACCEPT</c:decision><c:reasonCode>100</c:reasonCode>`))
	req := newCybersourceTestRequest()
	req.TransactionType = models.TransactionRefund
	req.TenderType = models.TenderACH
	req.OriginalTransactionID = "6512345678"
	req.ACHAccountType = models.ACHChecking
	req.ACHNameOnAccount = "Ada Lovelace"

	_, err := newTestDriver(&fakeStore{}).Execute(context.Background(), NewCybersource(req, Endpoints{Test: srv.URL}), req)
	require.NoError(t, err)
	assert.Contains(t, call.body,
		`<data:ecCreditService run="true"><data:debitRequestID>6512345678</data:debitRequestID></data:ecCreditService>`)
	assert.NotContains(t, call.body, "billTo")
	assert.NotContains(t, call.body, "<data:check>")
}

func TestCybersourceResponses(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		result  models.Result
		id      string
		message string
	}{
		{
			name: "missing fields",
			reply: `<c:requestID>77</c:requestID><c:decision>REJECT</c:decision><c:reasonCode>101</c:reasonCode>` +
				`<c:missingField>c:billTo/c:city</c:missingField><c:missingField>c:billTo/c:state</c:missingField>`,
			result:  models.ResultDeclined,
			id:      "77",
			message: "Reason code: 101 - The request is missing one or more required fields : `c:billTo/c:city`, `c:billTo/c:state`.",
		},
		{
			name:    "invalid field",
			reply:   `<c:requestID>78</c:requestID><c:decision>REJECT</c:decision><c:reasonCode>102</c:reasonCode><c:invalidField>c:card/c:accountNumber</c:invalidField>`,
			result:  models.ResultDeclined,
			id:      "78",
			message: "Reason code: 102 - One or more fields in the request contain invalid data : `c:card/c:accountNumber`",
		},
		{
			name:    "review",
			reply:   `<c:requestID>79</c:requestID><c:decision>REVIEW</c:decision><c:reasonCode>480</c:reasonCode>`,
			result:  models.ResultReview,
			id:      "79",
			message: "Transaction type: sale - Reason code returned: 480",
		},
		{
			name:    "system error drops the id",
			reply:   `<c:requestID>80</c:requestID><c:decision>ERROR</c:decision><c:reasonCode>150</c:reasonCode>`,
			result:  models.ResultError,
			message: "Transaction type: sale - Reason code returned: 150",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := soapServer(t, cybersourceReply(tt.reply))
			req := newCybersourceTestRequest()
			run, err := newTestDriver(&fakeStore{}).Execute(context.Background(), NewCybersource(req, Endpoints{Test: srv.URL}), req)
			require.NoError(t, err)
			assert.Equal(t, tt.result, run.Response.Result)
			assert.Equal(t, tt.id, run.Response.TransactionID)
			assert.Equal(t, tt.message, run.Response.Message)
		})
	}
}

func TestCybersourceValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*models.TransactionRequest)
		want   string
	}{
		{
			name:   "missing credentials",
			modify: func(r *models.TransactionRequest) { r.Credentials = nil },
			want:   "`merchant_id`, `transaction_key` are required as part of credentials.",
		},
		{
			name: "unreferenced refund needs billing",
			modify: func(r *models.TransactionRequest) {
				r.TransactionType = models.TransactionRefund
				r.BillToPhone = ""
			},
			want: "`bill_to_first_name`, `bill_to_last_name`, `bill_to_email`, `bill_to_country`, `bill_to_city`, " +
				"`bill_to_state`, `bill_to_zip`, `bill_to_address`, `bill_to_phone` are required for ACH and CC " +
				"transactions in the provided processor (cybersource).",
		},
		{
			name:   "invoice number",
			modify: func(r *models.TransactionRequest) { r.InvoiceNumber = "INV-1" },
			want:   "invoice_number is not supported in the provided processor (cybersource).",
		},
		{
			name:   "missing cvv",
			modify: func(r *models.TransactionRequest) { r.CardVerificationValue = "" },
			want:   "card_verification_value is required for CC transactions in the provided processor (cybersource).",
		},
		{
			name: "ach account type",
			modify: func(r *models.TransactionRequest) {
				r.TenderType = models.TenderACH
				r.ACHAccountType = models.ACHCommercial
				r.ACHNameOnAccount = "Ada Lovelace"
			},
			want: "ach_account_type must be savings, checking or corporate in the provided processor (cybersource).",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newCybersourceTestRequest()
			tt.modify(req)
			err := NewCybersource(req, cybersourceEndpoints).Validate()
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
		})
	}

	referenced := newCybersourceTestRequest()
	referenced.TransactionType = models.TransactionRefund
	referenced.OriginalTransactionID = "6512345678"
	referenced.BillToFirstName = ""
	assert.NoError(t, NewCybersource(referenced, cybersourceEndpoints).Validate())
}
