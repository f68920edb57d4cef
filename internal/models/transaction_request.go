package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"paygateway/internal/pkg/utils"
)

// Address is one billing or shipping block.
type Address struct {
	FirstName string
	LastName  string
	Company   string
	Address   string
	City      string
	County    string
	State     string
	Zip       string
	Country   string
	Phone     string
	Email     string
}

// Name joins first and last name.
func (a Address) Name() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// TransactionRequest is the processor-agnostic input of one gateway operation.
type TransactionRequest struct {
	ProjectID           int               `json:"project_id"`
	Mode                Mode              `json:"mode"`
	TestRequest         bool              `json:"test_request"`
	InteractionID       string            `json:"interaction_id"`
	InteractionType     string            `json:"interaction_type"`
	ClientReferenceCode string            `json:"client_reference_code"`
	Processor           string            `json:"processor"`
	Credentials         map[string]string `json:"credentials"`
	CustomerID          string            `json:"customer_id"`

	TransactionType       TransactionType `json:"transaction_type"`
	TenderType            TenderType      `json:"tender_type"`
	Amount                decimal.Decimal `json:"amount"`
	OriginalTransactionID string          `json:"original_transaction_id"`
	IgnoreAVSResult       bool            `json:"ignore_avs_result"`

	CardAccountNumber     string `json:"card_account_number"`
	CardVerificationValue string `json:"card_verification_value"`
	CardExpiryMonth       int    `json:"card_expiry_month"`
	CardExpiryYear        int    `json:"card_expiry_year"`
	CardType              string `json:"card_type"`

	ACHAccountNumber string `json:"ach_account_number"`
	ACHRoutingNumber string `json:"ach_routing_number"`
	ACHAccountType   string `json:"ach_account_type"`
	ACHNameOnAccount string `json:"ach_name_on_account"`
	ACHCheckNumber   string `json:"ach_check_number"`

	BillToFirstName string `json:"bill_to_first_name"`
	BillToLastName  string `json:"bill_to_last_name"`
	BillToCompany   string `json:"bill_to_company"`
	BillToAddress   string `json:"bill_to_address"`
	BillToCity      string `json:"bill_to_city"`
	BillToCounty    string `json:"bill_to_county"`
	BillToState     string `json:"bill_to_state"`
	BillToZip       string `json:"bill_to_zip"`
	BillToCountry   string `json:"bill_to_country"`
	BillToPhone     string `json:"bill_to_phone"`
	BillToEmail     string `json:"bill_to_email"`

	ShipToFirstName string `json:"ship_to_first_name"`
	ShipToLastName  string `json:"ship_to_last_name"`
	ShipToCompany   string `json:"ship_to_company"`
	ShipToAddress   string `json:"ship_to_address"`
	ShipToCity      string `json:"ship_to_city"`
	ShipToCounty    string `json:"ship_to_county"`
	ShipToState     string `json:"ship_to_state"`
	ShipToZip       string `json:"ship_to_zip"`
	ShipToCountry   string `json:"ship_to_country"`
	ShipToPhone     string `json:"ship_to_phone"`
	ShipToEmail     string `json:"ship_to_email"`

	Description   string            `json:"description"`
	InvoiceNumber string            `json:"invoice_number"`
	Extra         map[string]string `json:"extra"`
}

// BillTo returns the billing block.
func (r *TransactionRequest) BillTo() Address {
	return Address{
		FirstName: r.BillToFirstName, LastName: r.BillToLastName, Company: r.BillToCompany,
		Address: r.BillToAddress, City: r.BillToCity, County: r.BillToCounty, State: r.BillToState,
		Zip: r.BillToZip, Country: r.BillToCountry, Phone: r.BillToPhone, Email: r.BillToEmail,
	}
}

// ShipTo returns the shipping block.
func (r *TransactionRequest) ShipTo() Address {
	return Address{
		FirstName: r.ShipToFirstName, LastName: r.ShipToLastName, Company: r.ShipToCompany,
		Address: r.ShipToAddress, City: r.ShipToCity, County: r.ShipToCounty, State: r.ShipToState,
		Zip: r.ShipToZip, Country: r.ShipToCountry, Phone: r.ShipToPhone, Email: r.ShipToEmail,
	}
}

// HasExpiry reports whether both expiry parts were supplied.
func (r *TransactionRequest) HasExpiry() bool {
	return r.CardExpiryMonth > 0 && r.CardExpiryYear > 0
}

// CardExpiryDate is the last day of the card's expiry month.
func (r *TransactionRequest) CardExpiryDate() (time.Time, bool) {
	if !r.HasExpiry() {
		return time.Time{}, false
	}
	return utils.EndOfMonth(r.CardExpiryMonth, r.CardExpiryYear, time.UTC), true
}

// AmountInCents truncates the amount to whole cents.
func (r *TransactionRequest) AmountInCents() int64 {
	return r.Amount.Mul(decimal.NewFromInt(100)).IntPart()
}

// AmountString renders the amount with two decimal places.
func (r *TransactionRequest) AmountString() string {
	return r.Amount.StringFixed(2)
}

// SensitiveFields returns the flat name/value view used to derive mask values.
func (r *TransactionRequest) SensitiveFields() map[string]string {
	return map[string]string{
		"card_account_number":     r.CardAccountNumber,
		"card_verification_value": r.CardVerificationValue,
		"ach_account_number":      r.ACHAccountNumber,
	}
}
