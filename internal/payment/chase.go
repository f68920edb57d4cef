package payment

import (
	"context"
	"fmt"
	"strconv"

	"paygateway/internal/models"
	"paygateway/internal/pkg/httpclient"
	"paygateway/internal/pkg/ordered"
)

var chaseEndpoints = Endpoints{
	Live: "https://ws1.chasepaymentech.com/PaymentechGateway",
	Test: "https://wsvar1.chasepaymentech.com/PaymentechGateway",
}

const (
	chaseNamespace    = "urn:ws.paymentech.net/PaymentechGateway"
	chaseVersion      = "4.0"
	chaseIndustryType = "EC"
	chaseBIN          = "000001"
	chaseACHBrand     = "EC"
	chaseOrderIDLen   = 22
)

var chaseCardBrands = map[string]string{
	models.CardVisa:            "VI",
	models.CardMastercard:      "MC",
	models.CardAmericanExpress: "AX",
	models.CardDiscover:        "DI",
	models.CardJCB:             "JC",
}

var chaseBankAccountTypes = map[string]string{
	models.ACHSavings:    "S",
	models.ACHChecking:   "C",
	models.ACHCommercial: "X",
}

var chaseApprovalStatus = map[string]models.Result{
	"0": models.ResultDeclined,
	"1": models.ResultApproved,
	"2": models.ResultError,
}

// chaseOperation pairs a gateway operation with its request element.
type chaseOperation struct {
	action  string
	element string
}

var (
	chaseNewOrder = chaseOperation{action: "NewOrder", element: "newOrderRequest"}
	chaseMFC      = chaseOperation{action: "MFC", element: "mfcRequest"}
	chaseReversal = chaseOperation{action: "Reversal", element: "reversalRequest"}
)

// Chase implements Processor for the Chase Orbital SOAP gateway.
type Chase struct {
	req       *models.TransactionRequest
	endpoints Endpoints
	creds     ChaseCredentials
	apiURL    string
	resp      *httpclient.Response
}

func NewChase(req *models.TransactionRequest, endpoints Endpoints) Processor {
	return &Chase{req: req, endpoints: endpoints}
}

func (c *Chase) Name() string {
	return models.ProcessorChase
}

func (c *Chase) Validate() error {
	if _, err := NewChaseCredentials(c.req.Credentials); err != nil {
		return err
	}
	if err := requireReference(c.req); err != nil {
		return err
	}
	if c.req.TransactionType.In(models.TransactionCapture, models.TransactionAuthorize) && c.req.InvoiceNumber == "" {
		return NewValidationError("invoice_number is required for capture and authorize transactions " +
			"and it should be the same for both (when capturing an authorized transaction).")
	}
	if c.req.InteractionID == "" {
		return NewValidationError("interaction_id is required by the provided processor.")
	}
	if c.req.TenderType == models.TenderACH {
		var names ordered.Map
		names.Set("bill_to_first_name", c.req.BillToFirstName).Set("bill_to_last_name", c.req.BillToLastName)
		if absent := missing(names); len(absent) > 0 {
			return NewValidationError(absent[0] + " is required for ACH transactions in the provided processor.")
		}
	}
	if c.req.TenderType == models.TenderCreditCard && !c.req.HasExpiry() &&
		c.req.TransactionType.In(models.TransactionSale, models.TransactionRefund, models.TransactionAuthorize) {
		return NewValidationError("card_expiry_month and card_expiry_year are required for CC transactions in the provided processor.")
	}
	if c.req.Description != "" {
		return NewValidationError("`description` not supported by the provided processor.")
	}
	if len(c.req.InvoiceNumber) > chaseOrderIDLen {
		return FieldError("invoice_number", "Ensure this field has no more than 22 characters.")
	}
	return nil
}

func (c *Chase) SetCredentials() error {
	creds, err := NewChaseCredentials(c.req.Credentials)
	if err != nil {
		return err
	}
	c.creds = creds
	return nil
}

func (c *Chase) SetEndpoint() {
	c.apiURL = c.endpoints.For(c.req.Mode)
}

func (c *Chase) Authorize(ctx context.Context, t *httpclient.Sanitizer) error {
	return c.newOrder(ctx, t, "A")
}

func (c *Chase) Sale(ctx context.Context, t *httpclient.Sanitizer) error {
	return c.newOrder(ctx, t, "AC")
}

func (c *Chase) Refund(ctx context.Context, t *httpclient.Sanitizer) error {
	return c.newOrder(ctx, t, "R")
}

func (c *Chase) Capture(ctx context.Context, t *httpclient.Sanitizer) error {
	payload := c.meta("")
	payload.Set("orderID", c.orderID()).
		Set("amount", c.amount()).
		Set("txRefNum", c.req.OriginalTransactionID)
	return c.send(ctx, t, chaseMFC, payload)
}

func (c *Chase) Void(ctx context.Context, t *httpclient.Sanitizer) error {
	payload := c.meta("")
	payload.Set("orderID", c.orderID()).
		Set("txRefNum", c.req.OriginalTransactionID)
	return c.send(ctx, t, chaseReversal, payload)
}

func (c *Chase) newOrder(ctx context.Context, t *httpclient.Sanitizer, transType string) error {
	payload := c.meta(transType)
	c.tenderInfo(&payload)
	c.billingInfo(&payload)
	c.shippingInfo(&payload)
	c.checkInfo(&payload)
	payload.Set("orderID", c.orderID()).Set("amount", c.amount())
	payload.SetIfPresent("customerEmail", c.req.BillToEmail)
	if transType == "R" {
		payload.SetIfPresent("txRefNum", c.req.OriginalTransactionID)
	}
	return c.send(ctx, t, chaseNewOrder, payload)
}

// meta writes the connection and merchant fields every request starts with.
func (c *Chase) meta(transType string) ordered.Map {
	var m ordered.Map
	m.Set("orbitalConnectionUsername", c.creds.Username).
		Set("orbitalConnectionPassword", c.creds.Password).
		Set("version", chaseVersion).
		Set("industryType", chaseIndustryType)
	m.SetIfPresent("transType", transType)
	m.Set("bin", chaseBIN).
		Set("merchantID", c.creds.MerchantID).
		Set("terminalID", c.creds.TerminalID)
	return m
}

func (c *Chase) tenderInfo(m *ordered.Map) {
	if c.req.TenderType == models.TenderCreditCard {
		m.SetIfPresent("cardBrand", chaseCardBrands[c.req.CardType])
		m.Set("ccAccountNum", c.req.CardAccountNumber)
		if exp, ok := c.req.CardExpiryDate(); ok {
			m.Set("ccExp", exp.Format("200601"))
		}
		m.SetIfPresent("ccCardVerifyNum", c.req.CardVerificationValue)
		return
	}
	m.Set("cardBrand", chaseACHBrand)
}

// checkInfo writes the ECP fields, which follow the AVS blocks on the wire.
func (c *Chase) checkInfo(m *ordered.Map) {
	if c.req.TenderType != models.TenderACH {
		return
	}
	m.Set("ecpCheckRT", c.req.ACHRoutingNumber).
		Set("ecpCheckDDA", c.req.ACHAccountNumber)
	m.SetIfPresent("ecpBankAcctType", chaseBankAccountTypes[c.req.ACHAccountType])
}

func (c *Chase) billingInfo(m *ordered.Map) {
	bill := c.req.BillTo()
	m.SetIfPresent("avsZip", bill.Zip)
	m.SetIfPresent("avsAddress1", bill.Address)
	m.SetIfPresent("avsCity", bill.City)
	m.SetIfPresent("avsState", bill.State)
	m.SetIfPresent("avsPhone", bill.Phone)
	m.SetIfPresent("avsName", bill.Name())
	m.SetIfPresent("avsCountryCode", bill.Country)
}

func (c *Chase) shippingInfo(m *ordered.Map) {
	ship := c.req.ShipTo()
	m.SetIfPresent("avsDestName", ship.Name())
	m.SetIfPresent("avsDestAddress1", ship.Address)
	m.SetIfPresent("avsDestCity", ship.City)
	m.SetIfPresent("avsDestState", ship.State)
	m.SetIfPresent("avsDestZip", ship.Zip)
	m.SetIfPresent("avsDestCountryCode", ship.Country)
	m.SetIfPresent("avsDestPhoneNum", ship.Phone)
}

// orderID is the invoice number, or the tail of the interaction id.
func (c *Chase) orderID() string {
	if c.req.InvoiceNumber != "" {
		return c.req.InvoiceNumber
	}
	return truncateLeft(c.req.InteractionID, chaseOrderIDLen)
}

func (c *Chase) amount() string {
	return strconv.FormatInt(c.req.AmountInCents(), 10)
}

func (c *Chase) send(ctx context.Context, t *httpclient.Sanitizer, op chaseOperation, payload ordered.Map) error {
	var operation ordered.Map
	operation.Set(op.element, payload)
	var body ordered.Map
	body.Set(op.action, operation)

	env := soapEnvelope{prefix: "ns0", namespace: chaseNamespace, body: body}
	resp, err := t.PostSOAP(ctx, c.apiURL, op.action, env.Marshal())
	if err != nil {
		return fmt.Errorf("chase request failed: %w", err)
	}
	c.resp = resp
	return nil
}

func (c *Chase) ParseResponse(resp *models.TransactionResponse) error {
	if c.resp == nil {
		return fmt.Errorf("chase: no processor response")
	}
	reply, err := soapBody(c.resp.Body)
	if err != nil {
		return fmt.Errorf("chase parse error: %w", err)
	}
	resp.ProcessorResponse = reply

	if fault, ok := soapFault(reply); ok {
		resp.Result = models.ResultError
		resp.Message = fault
		return nil
	}

	respCode := text(reply, "respCode")
	approval := text(reply, "approvalStatus")
	procStatus := text(reply, "procStatus")

	result := models.ResultApproved
	switch {
	case respCode != "" && respCode != "00":
		result = models.ResultError
	case approval != "":
		mapped, ok := chaseApprovalStatus[approval]
		if !ok {
			return fmt.Errorf("chase unknown approval status %q", approval)
		}
		result = mapped
	case procStatus != "0":
		result = models.ResultError
	}

	status := respCode
	if result == models.ResultApproved {
		status = approval
	}
	if status == "" {
		status = procStatus
	}
	detail := text(reply, "procStatusMessage")
	if detail == "" {
		detail = capitalize(string(result))
	}

	resp.Result = result
	resp.TransactionID = text(reply, "txRefNum")
	resp.Message = fmt.Sprintf("%s - %s.", status, detail)
	return nil
}
