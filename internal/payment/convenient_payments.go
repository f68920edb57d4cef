package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"paygateway/internal/models"
	"paygateway/internal/pkg/httpclient"
)

// The cpteller web API has a single URL for live and test accounts.
var convenientPaymentsEndpoints = Endpoints{
	Live: "https://secure.cpteller.com/api/25/webapi.cfc",
	Test: "https://secure.cpteller.com/api/25/webapi.cfc",
}

const convenientPaymentsSuccess = "N"

var convenientPaymentsResults = map[string]models.Result{
	"-1":                      models.ResultDeclined,
	"-2":                      models.ResultError,
	"0":                       models.ResultDeclined,
	convenientPaymentsSuccess: models.ResultApproved,
}

var convenientPaymentsMessages = map[string]string{
	"-1":                      "Access Denied. The merchantkey or apikey is invalid.",
	"-2":                      "A system error occured. This may be due to invalid request parameters.",
	"0":                       "No record found.",
	convenientPaymentsSuccess: "Success",
}

// ConvenientPayments implements LookupProcessor with the cust_read method
// of the cpteller web API.
type ConvenientPayments struct {
	req       *models.LookupRequest
	endpoints Endpoints
	creds     ConvenientPaymentsCredentials
	apiURL    string
	resp      *httpclient.Response
}

func NewConvenientPayments(req *models.LookupRequest, endpoints Endpoints) LookupProcessor {
	return &ConvenientPayments{req: req, endpoints: endpoints}
}

func (c *ConvenientPayments) Name() string {
	return models.ProcessorConvenientPayments
}

func (c *ConvenientPayments) Validate() error {
	if _, err := NewConvenientPaymentsCredentials(c.req.Credentials); err != nil {
		return err
	}
	if c.req.CustomerID == "" {
		return NewValidationError("`customer_id` is required.")
	}
	return nil
}

func (c *ConvenientPayments) SetCredentials() error {
	creds, err := NewConvenientPaymentsCredentials(c.req.Credentials)
	if err != nil {
		return err
	}
	c.creds = creds
	return nil
}

func (c *ConvenientPayments) SetEndpoint() {
	c.apiURL = c.endpoints.For(c.req.Mode)
}

func (c *ConvenientPayments) Lookup(ctx context.Context, t *httpclient.Sanitizer) error {
	form := url.Values{}
	form.Set("merchantkey", c.creds.MerchantKey)
	form.Set("apikey", c.creds.APIAccessKey)
	form.Set("method", "cust_read")
	form.Set("custid", c.req.CustomerID)

	resp, err := t.PostForm(ctx, c.apiURL, form, nil)
	if err != nil {
		return fmt.Errorf("convenient payments request failed: %w", err)
	}
	c.resp = resp
	return nil
}

// ParseResponse maps the reply status onto a result. Unknown statuses are
// read as success.
func (c *ConvenientPayments) ParseResponse(resp *models.LookupResponse) error {
	if c.resp == nil {
		return fmt.Errorf("convenient payments: no processor response")
	}
	dec := json.NewDecoder(bytes.NewReader(c.resp.Body))
	dec.UseNumber()
	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("convenient payments parse error: %w", err)
	}
	value, ok := raw["status"]
	if !ok || value == nil {
		return fmt.Errorf("convenient payments parse error: no status in response")
	}

	status := fmt.Sprint(value)
	if _, known := convenientPaymentsResults[status]; !known {
		status = convenientPaymentsSuccess
	}
	resp.Result = convenientPaymentsResults[status]
	resp.Message = convenientPaymentsMessages[status]
	resp.ClientReferenceCode = c.req.ClientReferenceCode
	resp.ProcessorResponse = raw
	return nil
}
