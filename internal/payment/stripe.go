package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"paygateway/internal/models"
	"paygateway/internal/pkg/httpclient"
	"paygateway/internal/pkg/utils"
)

var stripeEndpoints = Endpoints{
	Live: "https://api.stripe.com/v1",
	Test: "https://api.stripe.com/v1",
}

const stripeCurrency = "usd"

// Amounts of the two micro-deposits Stripe posts to test bank accounts.
var stripeVerifyAmounts = []string{"32", "45"}

var stripeStatuses = map[string]models.Result{
	"succeeded": models.ResultApproved,
	"pending":   models.ResultApproved,
	"failed":    models.ResultDeclined,
	"error":     models.ResultError,
}

// Stripe implements Processor for the Stripe charges API. Card payments
// are tokenized first. Bank payments go through customer creation and
// micro-deposit verification before the charge.
type Stripe struct {
	req       *models.TransactionRequest
	endpoints Endpoints
	creds     StripeCredentials
	apiURL    string
	resp      *httpclient.Response
}

func NewStripe(req *models.TransactionRequest, endpoints Endpoints) Processor {
	return &Stripe{req: req, endpoints: endpoints}
}

func (s *Stripe) Name() string {
	return models.ProcessorStripe
}

func (s *Stripe) Validate() error {
	if _, err := NewStripeCredentials(s.req.Credentials); err != nil {
		return err
	}
	if s.req.InvoiceNumber != "" {
		return NewValidationError("invoice_number is not supported in the provided processor (stripe).")
	}
	if s.req.TransactionType.In(models.TransactionCapture, models.TransactionVoid, models.TransactionRefund) &&
		s.req.OriginalTransactionID == "" {
		return NewValidationError("original_transaction_id is required for void, capture and refund transactions in the provided processor (stripe).")
	}

	switch {
	case s.req.TenderType == models.TenderCreditCard &&
		s.req.TransactionType.In(models.TransactionSale, models.TransactionAuthorize):
		if !s.req.HasExpiry() || s.req.CardVerificationValue == "" {
			field := "card_verification_value"
			if s.req.CardExpiryMonth <= 0 {
				field = "card_expiry_month"
			} else if s.req.CardExpiryYear <= 0 {
				field = "card_expiry_year"
			}
			return NewValidationError(field + " is required for CC transactions in the provided processor (stripe).")
		}
		if !utils.IsNumeric(s.req.CardVerificationValue) {
			return NewValidationError("Credit card verification value must be conformed by digits only.")
		}
	case s.req.TenderType == models.TenderACH:
		var fields = []struct{ name, value string }{
			{"bill_to_first_name", s.req.BillToFirstName},
			{"bill_to_last_name", s.req.BillToLastName},
			{"ach_account_type", s.req.ACHAccountType},
			{"ach_name_on_account", s.req.ACHNameOnAccount},
		}
		for _, f := range fields {
			if f.value == "" {
				return NewValidationError(f.name + " is required for ACH transactions in the provided processor (stripe).")
			}
		}
		if !contains([]string{models.ACHCompany, models.ACHIndividual}, s.req.ACHAccountType) {
			return NewValidationError("ach_account_type must be individual or company in the provided processor (stripe).")
		}
	}
	return nil
}

func (s *Stripe) SetCredentials() error {
	creds, err := NewStripeCredentials(s.req.Credentials)
	if err != nil {
		return err
	}
	s.creds = creds
	return nil
}

func (s *Stripe) SetEndpoint() {
	s.apiURL = s.endpoints.For(s.req.Mode)
}

func (s *Stripe) Authorize(ctx context.Context, t *httpclient.Sanitizer) error {
	if s.req.TenderType != models.TenderCreditCard {
		return NewValidationError("Authorize transactions are allowed in payments with CC only")
	}
	return s.charge(ctx, t)
}

func (s *Stripe) Sale(ctx context.Context, t *httpclient.Sanitizer) error {
	return s.charge(ctx, t)
}

func (s *Stripe) Capture(ctx context.Context, t *httpclient.Sanitizer) error {
	if s.req.TenderType == models.TenderACH {
		return NewValidationError("Capture transactions are allowed in payments with CC only")
	}
	form := url.Values{}
	form.Set("amount", s.cents())
	resp, err := s.post(ctx, t, "/charges/"+url.PathEscape(s.req.OriginalTransactionID)+"/capture", form)
	if err != nil {
		return err
	}
	s.resp = resp
	return nil
}

// Void refunds the charge in full, Stripe has no separate cancel for
// captured charges.
func (s *Stripe) Void(ctx context.Context, t *httpclient.Sanitizer) error {
	if s.req.TenderType == models.TenderACH {
		return NewValidationError("Void transactions are allowed in payments with CC only")
	}
	return s.Refund(ctx, t)
}

func (s *Stripe) Refund(ctx context.Context, t *httpclient.Sanitizer) error {
	form := url.Values{}
	form.Set("amount", s.cents())
	form.Set("charge", s.req.OriginalTransactionID)
	resp, err := s.post(ctx, t, "/refunds", form)
	if err != nil {
		return err
	}
	s.resp = resp
	return nil
}

func (s *Stripe) charge(ctx context.Context, t *httpclient.Sanitizer) error {
	form := url.Values{}
	s.shippingInfo(form)

	if s.req.TenderType == models.TenderCreditCard {
		token, err := s.cardToken(ctx, t)
		if err != nil {
			return err
		}
		form.Set("source", token)
		form.Set("capture", strconv.FormatBool(s.req.TransactionType != models.TransactionAuthorize))
	} else {
		customer, source, err := s.verifiedBankAccount(ctx, t)
		if err != nil {
			return err
		}
		form.Set("customer", customer)
		form.Set("source", source)
	}

	form.Set("amount", s.cents())
	form.Set("currency", stripeCurrency)
	description := s.req.Description
	if description == "" {
		description = fmt.Sprintf("Charge for %s (amount in cents) %s", s.cents(), stripeCurrency)
	}
	form.Set("description", description)

	resp, err := s.post(ctx, t, "/charges", form)
	if err != nil {
		return err
	}
	s.resp = resp
	return nil
}

func (s *Stripe) cardToken(ctx context.Context, t *httpclient.Sanitizer) (string, error) {
	form := url.Values{}
	form.Set("card[number]", s.req.CardAccountNumber)
	form.Set("card[exp_month]", strconv.Itoa(s.req.CardExpiryMonth))
	form.Set("card[exp_year]", strconv.Itoa(s.req.CardExpiryYear))
	form.Set("card[cvc]", s.req.CardVerificationValue)
	return s.createObject(ctx, t, "/tokens", form)
}

// verifiedBankAccount creates a customer, attaches a tokenized bank account
// to it and verifies the account with the test micro-deposits.
func (s *Stripe) verifiedBankAccount(ctx context.Context, t *httpclient.Sanitizer) (customer, source string, err error) {
	bank := url.Values{}
	bank.Set("bank_account[country]", "US")
	bank.Set("bank_account[currency]", stripeCurrency)
	bank.Set("bank_account[account_holder_name]", s.req.ACHNameOnAccount)
	bank.Set("bank_account[account_holder_type]", s.req.ACHAccountType)
	bank.Set("bank_account[routing_number]", s.req.ACHRoutingNumber)
	bank.Set("bank_account[account_number]", s.req.ACHAccountNumber)
	token, err := s.createObject(ctx, t, "/tokens", bank)
	if err != nil {
		return "", "", err
	}

	info := url.Values{}
	s.shippingInfo(info)
	s.customerInfo(info)
	customer, err = s.createObject(ctx, t, "/customers", info)
	if err != nil {
		return "", "", err
	}

	sourcesPath := "/customers/" + url.PathEscape(customer) + "/sources"
	attach := url.Values{}
	attach.Set("source", token)
	source, err = s.createObject(ctx, t, sourcesPath, attach)
	if err != nil {
		return "", "", err
	}

	verify := url.Values{"amounts[]": stripeVerifyAmounts}
	resp, err := s.post(ctx, t, sourcesPath+"/"+url.PathEscape(source)+"/verify", verify)
	if err != nil {
		return "", "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", "", NewValidationError(stripeErrorMessage(resp))
	}
	var account struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(resp.Body, &account); err != nil || account.Status != "verified" {
		return "", "", NewValidationError("Account not yet verified")
	}
	return customer, source, nil
}

func (s *Stripe) shippingInfo(form url.Values) {
	ship := s.req.ShipTo()
	form.Set("shipping[name]", ship.Name())
	setIfPresent(form, "shipping[phone]", ship.Phone)
	form.Set("shipping[address[line1]]", orDash(ship.Address))
	setIfPresent(form, "shipping[address[city]]", ship.City)
	setIfPresent(form, "shipping[address[country]]", ship.Country)
	setIfPresent(form, "shipping[address[state]]", ship.State)
	setIfPresent(form, "shipping[address[postal_code]]", ship.Zip)
}

func (s *Stripe) customerInfo(form url.Values) {
	bill := s.req.BillTo()
	setIfPresent(form, "name", bill.Name())
	setIfPresent(form, "phone", bill.Phone)
	setIfPresent(form, "email", bill.Email)
	form.Set("address[line1]", orDash(bill.Address))
	setIfPresent(form, "address[city]", bill.City)
	setIfPresent(form, "address[country]", bill.Country)
	setIfPresent(form, "address[state]", bill.State)
	setIfPresent(form, "address[postal_code]", bill.Zip)
}

func (s *Stripe) cents() string {
	return strconv.FormatInt(s.req.AmountInCents(), 10)
}

func (s *Stripe) post(ctx context.Context, t *httpclient.Sanitizer, path string, form url.Values) (*httpclient.Response, error) {
	headers := map[string]string{
		"Authorization":   "Bearer " + s.creds.APIKey,
		"Idempotency-Key": utils.GenerateUUID(),
	}
	resp, err := t.PostForm(ctx, s.apiURL+path, form, headers)
	if err != nil {
		return nil, fmt.Errorf("stripe request failed: %w", err)
	}
	return resp, nil
}

// createObject posts form to path and returns the id of the created object.
func (s *Stripe) createObject(ctx context.Context, t *httpclient.Sanitizer, path string, form url.Values) (string, error) {
	resp, err := s.post(ctx, t, path, form)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", NewValidationError(stripeErrorMessage(resp))
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp.Body, &obj); err != nil {
		return "", fmt.Errorf("stripe parse error: %w", err)
	}
	return obj.ID, nil
}

func stripeErrorMessage(resp *httpclient.Response) string {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	_ = json.Unmarshal(resp.Body, &body)
	return fmt.Sprintf("HTTP %d - Stripe error: %s", resp.StatusCode, body.Error.Message)
}

func (s *Stripe) ParseResponse(resp *models.TransactionResponse) error {
	if s.resp == nil {
		return fmt.Errorf("stripe: no processor response")
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(s.resp.Body, &raw); err != nil {
		return fmt.Errorf("stripe parse error: %w", err)
	}
	resp.ProcessorResponse = raw

	if s.resp.StatusCode != http.StatusOK {
		resp.Result = models.ResultError
		resp.Message = stripeErrorMessage(s.resp)
		return nil
	}

	status, _ := raw["status"].(string)
	result, ok := stripeStatuses[status]
	if !ok {
		result = models.ResultError
	}
	resp.Result = result
	resp.TransactionID, _ = raw["id"].(string)
	if s.req.TransactionType == models.TransactionAuthorize {
		resp.Message = fmt.Sprintf("Transaction type: %s - Result: %s,held for review.", s.req.TransactionType, status)
	} else {
		resp.Message = fmt.Sprintf("Transaction type: %s - Result: %s.", s.req.TransactionType, status)
	}
	return nil
}

func setIfPresent(form url.Values, key, value string) {
	if value != "" {
		form.Set(key, value)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
