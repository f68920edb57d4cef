package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"paygateway/internal/models"
	"paygateway/internal/pkg/httpclient"
	"paygateway/internal/pkg/ordered"
	"paygateway/internal/pkg/utils"
)

// Authorize.Net rejects createTransactionRequest payloads whose members are
// out of schema order, so every object here is an ordered.Map.

var authorizeNetEndpoints = Endpoints{
	Live: "https://api.authorize.net/xml/v1/request.api",
	Test: "https://apitest.authorize.net/xml/v1/request.api",
}

var authorizeNetACHAccountTypes = map[string]string{
	models.ACHSavings:    "savings",
	models.ACHChecking:   "checking",
	models.ACHCommercial: "businessChecking",
}

var authorizeNetResponseCodes = map[string]models.Result{
	"1": models.ResultApproved,
	"2": models.ResultDeclined,
	"3": models.ResultError,
	"4": models.ResultReview,
}

const (
	authorizeNetDuplicateWindow = "0"
	authorizeNetTestRequest     = "1"
)

// AuthorizeNet implements Processor for the Authorize.Net JSON API.
type AuthorizeNet struct {
	req       *models.TransactionRequest
	endpoints Endpoints
	creds     AuthorizeNetCredentials
	apiURL    string
	payload   ordered.Map
	resp      *httpclient.Response
}

func NewAuthorizeNet(req *models.TransactionRequest, endpoints Endpoints) Processor {
	return &AuthorizeNet{req: req, endpoints: endpoints}
}

func (a *AuthorizeNet) Name() string {
	return models.ProcessorAuthorizeNet
}

func (a *AuthorizeNet) Validate() error {
	if _, err := NewAuthorizeNetCredentials(a.req.Credentials); err != nil {
		return err
	}
	if err := requireReference(a.req); err != nil {
		return err
	}

	var orderFields ordered.Map
	orderFields.Set("invoice_number", a.req.InvoiceNumber).Set("description", a.req.Description)
	if provided := present(orderFields); len(provided) > 0 &&
		!a.req.TransactionType.In(models.TransactionAuthorize, models.TransactionSale) {
		return NewValidationError(utils.ListToString(provided) + " not supported by the provided processor and transaction_type.")
	}

	if a.req.TenderType == models.TenderACH && a.req.ACHAccountType != "" {
		if _, ok := authorizeNetACHAccountTypes[a.req.ACHAccountType]; !ok {
			return FieldError("ach_account_type", fmt.Sprintf(
				"ach_account_type must be %s in the provided processor (authorize_net).",
				allowedValues([]string{models.ACHSavings, models.ACHChecking, models.ACHCommercial})))
		}
	}
	return nil
}

func (a *AuthorizeNet) SetCredentials() error {
	creds, err := NewAuthorizeNetCredentials(a.req.Credentials)
	if err != nil {
		return err
	}
	a.creds = creds
	return nil
}

func (a *AuthorizeNet) SetEndpoint() {
	a.apiURL = a.endpoints.For(a.req.Mode)
}

func (a *AuthorizeNet) Authorize(ctx context.Context, t *httpclient.Sanitizer) error {
	var txn ordered.Map
	txn.Set("transactionType", "authOnlyTransaction").
		Set("amount", a.req.AmountString()).
		Set("payment", a.tenderInfo())
	txn.SetIfPresent("order", a.orderInfo())
	txn.SetIfPresent("billTo", a.billingInfo())
	txn.SetIfPresent("shipTo", a.shippingInfo())
	return a.send(ctx, t, txn)
}

func (a *AuthorizeNet) Capture(ctx context.Context, t *httpclient.Sanitizer) error {
	var txn ordered.Map
	txn.Set("transactionType", "priorAuthCaptureTransaction").
		Set("amount", a.req.AmountString()).
		Set("refTransId", a.req.OriginalTransactionID)
	return a.send(ctx, t, txn)
}

func (a *AuthorizeNet) Sale(ctx context.Context, t *httpclient.Sanitizer) error {
	var txn ordered.Map
	txn.Set("transactionType", "authCaptureTransaction").
		Set("amount", a.req.AmountString()).
		Set("payment", a.tenderInfo())
	txn.SetIfPresent("order", a.orderInfo())
	txn.SetIfPresent("billTo", a.billingInfo())
	txn.SetIfPresent("shipTo", a.shippingInfo())
	return a.send(ctx, t, txn)
}

func (a *AuthorizeNet) Void(ctx context.Context, t *httpclient.Sanitizer) error {
	var txn ordered.Map
	txn.Set("transactionType", "voidTransaction").
		Set("refTransId", a.req.OriginalTransactionID)
	return a.send(ctx, t, txn)
}

func (a *AuthorizeNet) Refund(ctx context.Context, t *httpclient.Sanitizer) error {
	var txn ordered.Map
	txn.Set("transactionType", "refundTransaction").
		Set("amount", a.req.AmountString()).
		Set("payment", a.tenderInfo())
	txn.SetIfPresent("refTransId", a.req.OriginalTransactionID)
	txn.SetIfPresent("billTo", a.billingInfo())
	txn.SetIfPresent("shipTo", a.shippingInfo())
	return a.send(ctx, t, txn)
}

// send wraps txn in the request envelope and posts it.
func (a *AuthorizeNet) send(ctx context.Context, t *httpclient.Sanitizer, txn ordered.Map) error {
	var settings []ordered.Map
	if a.req.Mode == models.ModeTest {
		var s ordered.Map
		s.Set("settingName", "duplicateWindow").Set("settingValue", authorizeNetDuplicateWindow)
		settings = append(settings, s)
	}
	if a.req.TestRequest {
		var s ordered.Map
		s.Set("settingName", "testRequest").Set("settingValue", authorizeNetTestRequest)
		settings = append(settings, s)
	}
	if len(settings) > 0 {
		var ts ordered.Map
		ts.Set("setting", settings)
		txn.Set("transactionSettings", ts)
	}

	var auth ordered.Map
	auth.Set("name", a.creds.Login).Set("transactionKey", a.creds.TransactionKey)

	var create ordered.Map
	create.Set("merchantAuthentication", auth)
	create.SetIfPresent("refId", a.req.ClientReferenceCode)
	create.Set("transactionRequest", txn)

	a.payload = ordered.Map{}
	a.payload.Set("createTransactionRequest", create)

	body, err := json.Marshal(a.payload)
	if err != nil {
		return fmt.Errorf("authorize_net encode error: %w", err)
	}
	resp, err := t.PostJSON(ctx, a.apiURL, body, nil)
	if err != nil {
		return fmt.Errorf("authorize_net request failed: %w", err)
	}
	a.resp = resp
	return nil
}

// tenderInfo builds the payment block. A refund without a reference only
// carries the last four card digits.
func (a *AuthorizeNet) tenderInfo() ordered.Map {
	var tender ordered.Map
	if a.req.TenderType == models.TenderCreditCard {
		var card ordered.Map
		if a.req.TransactionType == models.TransactionRefund && a.req.OriginalTransactionID == "" {
			card.Set("cardNumber", utils.LastN(a.req.CardAccountNumber, 4)).
				Set("expirationDate", "XXXX")
		} else {
			card.Set("cardNumber", a.req.CardAccountNumber)
			if exp, ok := a.req.CardExpiryDate(); ok {
				card.Set("expirationDate", exp.Format("2006-01"))
			}
			card.SetIfPresent("cardCode", a.req.CardVerificationValue)
		}
		tender.Set("creditCard", card)
		return tender
	}

	var bank ordered.Map
	if a.req.ACHAccountType != "" {
		bank.Set("accountType", authorizeNetACHAccountTypes[a.req.ACHAccountType])
	}
	bank.Set("routingNumber", a.req.ACHRoutingNumber).
		Set("accountNumber", a.req.ACHAccountNumber).
		Set("nameOnAccount", a.req.ACHNameOnAccount)
	bank.SetIfPresent("checkNumber", a.req.ACHCheckNumber)
	tender.Set("bankAccount", bank)
	return tender
}

func (a *AuthorizeNet) billingInfo() ordered.Map {
	bill := a.req.BillTo()
	var m ordered.Map
	m.SetIfPresent("firstName", bill.FirstName)
	m.SetIfPresent("lastName", bill.LastName)
	m.SetIfPresent("company", bill.Company)
	m.SetIfPresent("address", bill.Address)
	m.SetIfPresent("city", bill.City)
	m.SetIfPresent("state", bill.State)
	m.SetIfPresent("zip", bill.Zip)
	m.SetIfPresent("country", bill.Country)
	m.SetIfPresent("phoneNumber", bill.Phone)
	m.SetIfPresent("email", bill.Email)
	return m
}

func (a *AuthorizeNet) shippingInfo() ordered.Map {
	ship := a.req.ShipTo()
	var m ordered.Map
	m.SetIfPresent("firstName", ship.FirstName)
	m.SetIfPresent("lastName", ship.LastName)
	m.SetIfPresent("company", ship.Company)
	m.SetIfPresent("address", ship.Address)
	m.SetIfPresent("city", ship.City)
	m.SetIfPresent("state", ship.State)
	m.SetIfPresent("zip", ship.Zip)
	m.SetIfPresent("country", ship.Country)
	return m
}

func (a *AuthorizeNet) orderInfo() ordered.Map {
	var m ordered.Map
	m.SetIfPresent("invoiceNumber", a.req.InvoiceNumber)
	m.SetIfPresent("description", a.req.Description)
	return m
}

type authorizeNetMessage struct {
	Code        string `json:"code"`
	Text        string `json:"text"`
	Description string `json:"description"`
}

type authorizeNetReply struct {
	Messages struct {
		ResultCode string                `json:"resultCode"`
		Message    []authorizeNetMessage `json:"message"`
	} `json:"messages"`
	TransactionResponse struct {
		ResponseCode string                `json:"responseCode"`
		TransID      string                `json:"transId"`
		Messages     []authorizeNetMessage `json:"messages"`
		Errors       []struct {
			ErrorCode string `json:"errorCode"`
			ErrorText string `json:"errorText"`
		} `json:"errors"`
	} `json:"transactionResponse"`
}

func (a *AuthorizeNet) ParseResponse(resp *models.TransactionResponse) error {
	if a.resp == nil {
		return fmt.Errorf("authorize_net: no processor response")
	}
	if a.resp.StatusCode != http.StatusOK {
		resp.Result = models.ResultError
		resp.Message = fmt.Sprintf("HTTP %d - %s", a.resp.StatusCode, string(a.resp.Body))
		resp.ProcessorResponse = string(a.resp.Body)
		return nil
	}

	// The API prefixes its JSON with a UTF-8 byte order mark.
	body := bytes.TrimPrefix(a.resp.Body, []byte("\xef\xbb\xbf"))
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return fmt.Errorf("authorize_net parse error: %w", err)
	}
	var reply authorizeNetReply
	if err := json.Unmarshal(body, &reply); err != nil {
		return fmt.Errorf("authorize_net parse error: %w", err)
	}
	resp.ProcessorResponse = raw

	if reply.Messages.ResultCode == "Ok" {
		result, ok := authorizeNetResponseCodes[reply.TransactionResponse.ResponseCode]
		if !ok {
			return fmt.Errorf("authorize_net unknown response code %q", reply.TransactionResponse.ResponseCode)
		}
		resp.Result = result
		resp.TransactionID = reply.TransactionResponse.TransID
		lines := make([]string, 0, len(reply.TransactionResponse.Messages))
		for _, m := range reply.TransactionResponse.Messages {
			lines = append(lines, m.Code+" - "+m.Description)
		}
		resp.Message = strings.Join(lines, "\n")
		return nil
	}

	resp.Result = models.ResultError
	lines := make([]string, 0, len(reply.Messages.Message))
	for _, m := range reply.Messages.Message {
		lines = append(lines, m.Code+" - "+m.Text)
	}
	message := strings.Join(lines, "\n")
	if errs := reply.TransactionResponse.Errors; len(errs) > 0 {
		parts := make([]string, 0, len(errs))
		for _, e := range errs {
			parts = append(parts, e.ErrorCode+" - "+e.ErrorText)
		}
		message += " Errors: " + strings.Join(parts, ", ")
	}
	resp.Message = message
	return nil
}
