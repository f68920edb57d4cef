package payment

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"paygateway/internal/models"
	"paygateway/internal/pkg/httpclient"
	"paygateway/internal/pkg/ordered"
	"paygateway/internal/pkg/utils"
)

var cybersourceEndpoints = Endpoints{
	Live: "https://ics2ws.ic3.com/commerce/1.x/transactionProcessor",
	Test: "https://ics2wstest.ic3.com/commerce/1.x/transactionProcessor",
}

const (
	cybersourceNamespace = "urn:schemas-cybersource-com:transaction-data-1.171"
	cybersourceCurrency  = "USD"
	wsseNamespace        = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-secext-1.0.xsd"
	wssePasswordText     = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-username-token-profile-1.0#PasswordText"
)

var cybersourceCardTypes = map[string]string{
	models.CardVisa:            "001",
	models.CardMastercard:      "002",
	models.CardAmericanExpress: "003",
	models.CardAmex:            "003",
	models.CardDiscover:        "004",
	models.CardDinersClub:      "005",
	models.CardJCB:             "007",
}

var cybersourceCheckAccountTypes = map[string]string{
	models.ACHSavings:   "S",
	models.ACHChecking:  "C",
	models.ACHCorporate: "X",
}

var cybersourceDecisions = map[string]models.Result{
	"ACCEPT": models.ResultApproved,
	"REJECT": models.ResultDeclined,
	"ERROR":  models.ResultError,
	"REVIEW": models.ResultReview,
}

// Reason codes that carry a field list worth reporting.
const (
	reasonSuccess       = 100
	reasonMissingFields = 101
	reasonInvalidFields = 102
)

// Cybersource implements Processor for the CyberSource SOAP toolkit API.
type Cybersource struct {
	req       *models.TransactionRequest
	endpoints Endpoints
	creds     CybersourceCredentials
	apiURL    string
	resp      *httpclient.Response
}

func NewCybersource(req *models.TransactionRequest, endpoints Endpoints) Processor {
	return &Cybersource{req: req, endpoints: endpoints}
}

func (c *Cybersource) Name() string {
	return models.ProcessorCybersource
}

func (c *Cybersource) unreferencedRefund() bool {
	return c.req.TransactionType == models.TransactionRefund && c.req.OriginalTransactionID == ""
}

func (c *Cybersource) Validate() error {
	if _, err := NewCybersourceCredentials(c.req.Credentials); err != nil {
		return err
	}

	if c.req.TransactionType.In(models.TransactionAuthorize, models.TransactionSale) || c.unreferencedRefund() {
		bill := c.req.BillTo()
		var billing ordered.Map
		billing.Set("bill_to_first_name", bill.FirstName).
			Set("bill_to_last_name", bill.LastName).
			Set("bill_to_email", bill.Email).
			Set("bill_to_country", bill.Country).
			Set("bill_to_city", bill.City).
			Set("bill_to_state", bill.State).
			Set("bill_to_zip", bill.Zip).
			Set("bill_to_address", bill.Address).
			Set("bill_to_phone", bill.Phone)
		if len(missing(billing)) > 0 {
			return NewValidationError(utils.ListToString(billing.Keys()) +
				" are required for ACH and CC transactions in the provided processor (cybersource).")
		}
	}

	var unsupported ordered.Map
	unsupported.Set("invoice_number", c.req.InvoiceNumber).Set("description", c.req.Description)
	if provided := present(unsupported); len(provided) > 0 {
		return NewValidationError(provided[0] + " is not supported in the provided processor (cybersource).")
	}

	if err := requireReference(c.req); err != nil {
		return err
	}

	switch {
	case c.req.TenderType == models.TenderCreditCard &&
		(c.req.TransactionType.In(models.TransactionSale, models.TransactionAuthorize) || c.unreferencedRefund()):
		var card ordered.Map
		card.Set("card_expiry_month", c.req.CardExpiryMonth).
			Set("card_expiry_year", c.req.CardExpiryYear).
			Set("card_type", c.req.CardType).
			Set("card_verification_value", c.req.CardVerificationValue)
		if absent := missing(card); len(absent) > 0 {
			return NewValidationError(absent[0] + " is required for CC transactions in the provided processor (cybersource).")
		}
	case c.req.TenderType == models.TenderACH:
		var check ordered.Map
		check.Set("ach_account_type", c.req.ACHAccountType).
			Set("ach_name_on_account", c.req.ACHNameOnAccount)
		if absent := missing(check); len(absent) > 0 {
			return NewValidationError(absent[0] + " is required for ACH transactions in the provided processor (cybersource).")
		}
		if _, ok := cybersourceCheckAccountTypes[c.req.ACHAccountType]; !ok {
			return NewValidationError(fmt.Sprintf(
				"ach_account_type must be %s in the provided processor (cybersource).",
				allowedValues([]string{models.ACHSavings, models.ACHChecking, models.ACHCorporate})))
		}
	}
	return nil
}

func (c *Cybersource) SetCredentials() error {
	creds, err := NewCybersourceCredentials(c.req.Credentials)
	if err != nil {
		return err
	}
	c.creds = creds
	return nil
}

func (c *Cybersource) SetEndpoint() {
	c.apiURL = c.endpoints.For(c.req.Mode)
}

// cybersourceRequest collects the parts of a requestMessage. The XSD fixes
// the element order, so parts are assembled by render rather than as they
// are filled.
type cybersourceRequest struct {
	billTo   ordered.Map
	shipTo   ordered.Map
	totals   bool
	tender   bool
	services ordered.Map
}

func (c *Cybersource) Authorize(ctx context.Context, t *httpclient.Sanitizer) error {
	r := cybersourceRequest{totals: true, tender: true, billTo: c.billingInfo(), shipTo: c.shippingInfo()}
	r.services.Set("ccAuthService", runService())
	return c.send(ctx, t, r)
}

func (c *Cybersource) Capture(ctx context.Context, t *httpclient.Sanitizer) error {
	r := cybersourceRequest{totals: true}
	r.services.Set("ccCaptureService", runService().Set("authRequestID", c.req.OriginalTransactionID))
	return c.send(ctx, t, r)
}

func (c *Cybersource) Sale(ctx context.Context, t *httpclient.Sanitizer) error {
	r := cybersourceRequest{totals: true, tender: true, billTo: c.billingInfo(), shipTo: c.shippingInfo()}
	if c.req.TenderType == models.TenderCreditCard {
		r.services.Set("ccAuthService", runService())
		r.services.Set("ccCaptureService", runService())
	} else {
		r.services.Set("ecDebitService", runService())
	}
	return c.send(ctx, t, r)
}

func (c *Cybersource) Void(ctx context.Context, t *httpclient.Sanitizer) error {
	var r cybersourceRequest
	r.services.Set("voidService", runService().Set("voidRequestID", c.req.OriginalTransactionID))
	return c.send(ctx, t, r)
}

// Refund credits a prior capture or debit when a reference is given, and
// otherwise issues a stand-alone credit to the supplied tender.
func (c *Cybersource) Refund(ctx context.Context, t *httpclient.Sanitizer) error {
	r := cybersourceRequest{totals: true}
	service := runService()
	if c.req.OriginalTransactionID != "" {
		if c.req.TenderType == models.TenderACH {
			service.Set("debitRequestID", c.req.OriginalTransactionID)
		} else {
			service.Set("captureRequestID", c.req.OriginalTransactionID)
		}
	} else {
		r.tender = true
		r.billTo = c.billingInfo()
		r.shipTo = c.shippingInfo()
	}
	if c.req.TenderType == models.TenderACH {
		r.services.Set("ecCreditService", *service)
	} else {
		r.services.Set("ccCreditService", *service)
	}
	return c.send(ctx, t, r)
}

func runService() *ordered.Map {
	m := &ordered.Map{}
	m.Set("@run", "true")
	return m
}

func (c *Cybersource) render(r cybersourceRequest) ordered.Map {
	var msg ordered.Map
	msg.Set("merchantID", c.creds.MerchantID)
	msg.SetIfPresent("merchantReferenceCode", c.req.ClientReferenceCode)
	msg.SetIfPresent("billTo", r.billTo)
	msg.SetIfPresent("shipTo", r.shipTo)
	if r.totals {
		var totals ordered.Map
		totals.Set("currency", cybersourceCurrency).Set("grandTotalAmount", c.req.AmountString())
		msg.Set("purchaseTotals", totals)
	}
	if r.tender {
		if c.req.TenderType == models.TenderCreditCard {
			msg.Set("card", c.cardInfo())
		} else {
			msg.Set("check", c.checkInfo())
		}
	}
	for _, svc := range r.services {
		msg.Set(svc.Key, deref(svc.Value))
	}
	if c.req.IgnoreAVSResult {
		var rules ordered.Map
		rules.Set("ignoreAVSResult", "true")
		msg.Set("businessRules", rules)
	}
	msg.SetIfPresent("merchantDefinedData", c.merchantDefinedData())
	return msg
}

func deref(v any) any {
	if m, ok := v.(*ordered.Map); ok {
		return *m
	}
	return v
}

func (c *Cybersource) send(ctx context.Context, t *httpclient.Sanitizer, r cybersourceRequest) error {
	var password ordered.Map
	password.Set("@Type", wssePasswordText).Set("#text", c.creds.TransactionKey)
	var token ordered.Map
	token.Set("wsse:Username", c.creds.MerchantID).Set("wsse:Password", password)
	var security ordered.Map
	security.Set("@xmlns:wsse", wsseNamespace).
		Set("@soapenv:mustUnderstand", "1").
		Set("wsse:UsernameToken", token)

	var header, body ordered.Map
	header.Set("wsse:Security", security)
	body.Set("requestMessage", c.render(r))

	env := soapEnvelope{prefix: "data", namespace: cybersourceNamespace, header: header, body: body}
	resp, err := t.PostSOAP(ctx, c.apiURL, "runTransaction", env.Marshal())
	if err != nil {
		return fmt.Errorf("cybersource request failed: %w", err)
	}
	c.resp = resp
	return nil
}

func (c *Cybersource) cardInfo() ordered.Map {
	var card ordered.Map
	card.Set("accountNumber", c.req.CardAccountNumber)
	if c.req.CardExpiryMonth > 0 {
		card.Set("expirationMonth", fmt.Sprintf("%02d", c.req.CardExpiryMonth))
	}
	if c.req.CardExpiryYear > 0 {
		card.Set("expirationYear", expiryYear(c.req.CardExpiryYear))
	}
	card.SetIfPresent("cvNumber", c.req.CardVerificationValue)
	card.SetIfPresent("cardType", cybersourceCardTypes[c.req.CardType])
	return card
}

func (c *Cybersource) checkInfo() ordered.Map {
	var check ordered.Map
	check.Set("accountNumber", c.req.ACHAccountNumber)
	check.SetIfPresent("accountType", cybersourceCheckAccountTypes[c.req.ACHAccountType])
	check.Set("bankTransitNumber", c.req.ACHRoutingNumber)
	check.SetIfPresent("fullName", c.req.ACHNameOnAccount)
	return check
}

func (c *Cybersource) billingInfo() ordered.Map {
	bill := c.req.BillTo()
	var m ordered.Map
	m.SetIfPresent("firstName", bill.FirstName)
	m.SetIfPresent("lastName", bill.LastName)
	m.SetIfPresent("street1", bill.Address)
	m.SetIfPresent("city", bill.City)
	m.SetIfPresent("state", bill.State)
	m.SetIfPresent("postalCode", bill.Zip)
	m.SetIfPresent("country", bill.Country)
	m.SetIfPresent("phoneNumber", bill.Phone)
	m.SetIfPresent("email", bill.Email)
	return m
}

// shippingInfo names the recipient after the billing contact.
func (c *Cybersource) shippingInfo() ordered.Map {
	ship := c.req.ShipTo()
	var m ordered.Map
	m.SetIfPresent("name", c.req.BillTo().Name())
	m.SetIfPresent("city", ship.City)
	m.SetIfPresent("state", ship.State)
	m.SetIfPresent("postalCode", ship.Zip)
	m.SetIfPresent("country", ship.Country)
	m.SetIfPresent("phoneNumber", ship.Phone)
	m.SetIfPresent("email", ship.Email)
	return m
}

// merchantDefinedData maps extra keys such as "field1" onto the
// merchant-defined slots, ordered by slot number.
func (c *Cybersource) merchantDefinedData() ordered.Map {
	var keys []string
	for k, v := range c.req.Extra {
		if strings.Contains(k, "field") && v != "" {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		ni, ei := strconv.Atoi(strings.TrimPrefix(keys[i], "field"))
		nj, ej := strconv.Atoi(strings.TrimPrefix(keys[j], "field"))
		if ei == nil && ej == nil {
			return ni < nj
		}
		return keys[i] < keys[j]
	})
	var m ordered.Map
	for _, k := range keys {
		m.Set(k, c.req.Extra[k])
	}
	return m
}

func expiryYear(year int) string {
	if year < 100 {
		year += 2000
	}
	return strconv.Itoa(year)
}

func (c *Cybersource) ParseResponse(resp *models.TransactionResponse) error {
	if c.resp == nil {
		return fmt.Errorf("cybersource: no processor response")
	}
	reply, err := soapBody(c.resp.Body)
	if err != nil {
		return fmt.Errorf("cybersource parse error: %w", err)
	}
	resp.ProcessorResponse = reply

	if fault, ok := soapFault(reply); ok {
		resp.Result = models.ResultError
		resp.Message = fault
		return nil
	}

	decision := text(reply, "decision")
	reasonCode, _ := strconv.Atoi(text(reply, "reasonCode"))
	message := c.reasonMessage(reply, reasonCode)

	if decision == "ERROR" && reasonCode != reasonSuccess {
		resp.Result = models.ResultError
		resp.Message = message
		return nil
	}

	result, ok := cybersourceDecisions[decision]
	if !ok {
		result = models.ResultError
	}
	resp.Result = result
	resp.Message = message
	resp.TransactionID = text(reply, "requestID")
	return nil
}

func (c *Cybersource) reasonMessage(reply map[string]any, code int) string {
	switch code {
	case reasonMissingFields:
		return fmt.Sprintf("Reason code: %d - The request is missing one or more required fields : %s.",
			code, utils.ListToString(texts(reply, "missingField")))
	case reasonInvalidFields:
		return fmt.Sprintf("Reason code: %d - One or more fields in the request contain invalid data : %s",
			code, utils.ListToString(texts(reply, "invalidField")))
	default:
		return fmt.Sprintf("Transaction type: %s - Reason code returned: %d", c.req.TransactionType, code)
	}
}
