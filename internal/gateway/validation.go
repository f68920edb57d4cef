package gateway

import (
	"time"

	"paygateway/internal/models"
	"paygateway/internal/payment"
	"paygateway/internal/pkg/utils"
)

// transactionInput is the inbound transaction document. Pointer fields tell
// a missing key from a present one. Blank values of plain string fields
// count as not given.
type transactionInput struct {
	ProjectID             *int              `json:"project_id" validate:"required"`
	Mode                  *string           `json:"mode" validate:"required,notblank,oneof=live test"`
	TestRequest           bool              `json:"test_request"`
	InteractionID         *string           `json:"interaction_id" validate:"omitnil,notblank"`
	InteractionType       *string           `json:"interaction_type" validate:"required,notblank,oneof=call text web"`
	ClientReferenceCode   string            `json:"client_reference_code"`
	CustomerID            string            `json:"customer_id"`
	Processor             *string           `json:"processor" validate:"required,notblank,oneof=authorize_net cybersource chase stripe"`
	Credentials           map[string]string `json:"credentials" validate:"required"`
	TransactionType       *string           `json:"transaction_type" validate:"required,notblank,oneof=authorize capture sale void refund"`
	TenderType            string            `json:"tender_type" validate:"omitempty,oneof=credit_card ach"`
	Amount                *decimalText      `json:"amount" validate:"omitnil,max_digits=10,decimal_places=2,max_whole_digits=8,min_amount=0.01"`
	OriginalTransactionID string            `json:"original_transaction_id"`
	CardAccountNumber     string            `json:"card_account_number" validate:"omitempty,max=900"`
	CardVerificationValue string            `json:"card_verification_value" validate:"omitempty,min=3,max=4"`
	CardExpiryMonth       *int              `json:"card_expiry_month" validate:"omitnil,min=1,max=12"`
	CardExpiryYear        *int              `json:"card_expiry_year" validate:"omitnil,min=1,max=99"`
	CardType              string            `json:"card_type" validate:"omitempty,oneof=visa mastercard american_express discover jcb amex 'diners club'"`
	ACHNameOnAccount      string            `json:"ach_name_on_account" validate:"omitempty,max=256"`
	ACHAccountNumber      string            `json:"ach_account_number" validate:"omitempty,min=1,max=19"`
	ACHRoutingNumber      string            `json:"ach_routing_number" validate:"omitempty,min=9,max=9"`
	ACHAccountType        string            `json:"ach_account_type" validate:"omitempty,oneof=savings checking commercial individual company corporate"`
	ACHCheckNumber        string            `json:"ach_check_number" validate:"omitempty,max=8"`
	BillToFirstName       string            `json:"bill_to_first_name"`
	BillToLastName        string            `json:"bill_to_last_name"`
	BillToCompany         string            `json:"bill_to_company"`
	BillToAddress         string            `json:"bill_to_address"`
	BillToCity            string            `json:"bill_to_city"`
	BillToCounty          string            `json:"bill_to_county"`
	BillToState           string            `json:"bill_to_state"`
	BillToZip             string            `json:"bill_to_zip"`
	BillToCountry         string            `json:"bill_to_country"`
	BillToPhone           string            `json:"bill_to_phone"`
	BillToEmail           string            `json:"bill_to_email" validate:"omitempty,email"`
	ShipToFirstName       string            `json:"ship_to_first_name"`
	ShipToLastName        string            `json:"ship_to_last_name"`
	ShipToCompany         string            `json:"ship_to_company"`
	ShipToAddress         string            `json:"ship_to_address"`
	ShipToCity            string            `json:"ship_to_city"`
	ShipToCounty          string            `json:"ship_to_county"`
	ShipToState           string            `json:"ship_to_state"`
	ShipToZip             string            `json:"ship_to_zip"`
	ShipToCountry         string            `json:"ship_to_country"`
	ShipToPhone           string            `json:"ship_to_phone"`
	ShipToEmail           string            `json:"ship_to_email" validate:"omitempty,email"`
	Extra                 map[string]string `json:"extra"`
	IgnoreAVSResult       bool              `json:"ignore_avs_result"`
	Description           string            `json:"description"`
	InvoiceNumber         string            `json:"invoice_number"`
}

func (in *transactionInput) request() *models.TransactionRequest {
	req := &models.TransactionRequest{
		ProjectID:             deref(in.ProjectID),
		Mode:                  models.Mode(deref(in.Mode)),
		TestRequest:           in.TestRequest,
		InteractionID:         deref(in.InteractionID),
		InteractionType:       deref(in.InteractionType),
		ClientReferenceCode:   in.ClientReferenceCode,
		Processor:             deref(in.Processor),
		Credentials:           in.Credentials,
		CustomerID:            in.CustomerID,
		TransactionType:       models.TransactionType(deref(in.TransactionType)),
		TenderType:            models.TenderType(in.TenderType),
		OriginalTransactionID: in.OriginalTransactionID,
		IgnoreAVSResult:       in.IgnoreAVSResult,
		CardAccountNumber:     in.CardAccountNumber,
		CardVerificationValue: in.CardVerificationValue,
		CardExpiryMonth:       deref(in.CardExpiryMonth),
		CardExpiryYear:        deref(in.CardExpiryYear),
		CardType:              in.CardType,
		ACHAccountNumber:      in.ACHAccountNumber,
		ACHRoutingNumber:      in.ACHRoutingNumber,
		ACHAccountType:        in.ACHAccountType,
		ACHNameOnAccount:      in.ACHNameOnAccount,
		ACHCheckNumber:        in.ACHCheckNumber,
		BillToFirstName:       in.BillToFirstName,
		BillToLastName:        in.BillToLastName,
		BillToCompany:         in.BillToCompany,
		BillToAddress:         in.BillToAddress,
		BillToCity:            in.BillToCity,
		BillToCounty:          in.BillToCounty,
		BillToState:           in.BillToState,
		BillToZip:             in.BillToZip,
		BillToCountry:         in.BillToCountry,
		BillToPhone:           in.BillToPhone,
		BillToEmail:           in.BillToEmail,
		ShipToFirstName:       in.ShipToFirstName,
		ShipToLastName:        in.ShipToLastName,
		ShipToCompany:         in.ShipToCompany,
		ShipToAddress:         in.ShipToAddress,
		ShipToCity:            in.ShipToCity,
		ShipToCounty:          in.ShipToCounty,
		ShipToState:           in.ShipToState,
		ShipToZip:             in.ShipToZip,
		ShipToCountry:         in.ShipToCountry,
		ShipToPhone:           in.ShipToPhone,
		ShipToEmail:           in.ShipToEmail,
		Description:           in.Description,
		InvoiceNumber:         in.InvoiceNumber,
		Extra:                 in.Extra,
	}
	if in.Amount != nil {
		req.Amount = in.Amount.decimal()
	}
	return req
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// Cross-field messages.
const (
	msgTenderRequired   = "Tender type is optional for capture or void transactions only. It must be present for all other transactions."
	msgACHNotAllowed    = "ACH tender type can only be used to perform sale or refund. Authorize, capture or void transactions are not allowed."
	msgAmountRequired   = "Amount is not required for void transaction only. It must be present for all other transactions."
	msgCardRequired     = "Credit card number is required for credit card payments."
	msgCardDigits       = "Credit card number should only consist of digits."
	msgCardInvalid      = "Credit card number is invalid."
	msgCardExpired      = "Credit card has expired."
	msgACHAccountNeeded = "Bank account number is required for ACH payments."
	msgACHRoutingNeeded = "Bank routing number is required for ACH payments."
)

// decodeRequest binds doc to a transaction request, then applies the
// cross-field rules. Unknown keys are ignored.
func decodeRequest(doc map[string]any, now time.Time) (*models.TransactionRequest, error) {
	var in transactionInput
	if err := bindDocument(doc, &in); err != nil {
		return nil, err
	}
	req := in.request()
	if err := crossFieldRules(req, now); err != nil {
		return nil, err
	}
	return req, nil
}

func crossFieldRules(req *models.TransactionRequest, now time.Time) error {
	if req.TenderType == "" && !req.TransactionType.In(models.TenderTypeNotRequired...) {
		return payment.NewValidationError(msgTenderRequired)
	}
	if req.TenderType == models.TenderACH && !req.TransactionType.In(models.ACHAllowed...) {
		return payment.NewValidationError(msgACHNotAllowed)
	}
	if req.Amount.IsZero() && !req.TransactionType.In(models.AmountNotRequired...) {
		return payment.NewValidationError(msgAmountRequired)
	}

	switch {
	case req.TenderType == models.TenderCreditCard && !req.TransactionType.In(models.TenderTypeNotRequired...):
		if req.CardAccountNumber == "" {
			return payment.NewValidationError(msgCardRequired)
		}
		if !utils.IsNumeric(req.CardAccountNumber) {
			return payment.NewValidationError(msgCardDigits)
		}
		if !utils.LuhnValid(req.CardAccountNumber) {
			return payment.NewValidationError(msgCardInvalid)
		}
		if req.HasExpiry() && utils.IsExpired(req.CardExpiryMonth, req.CardExpiryYear, now) {
			return payment.NewValidationError(msgCardExpired)
		}
	case req.TenderType == models.TenderACH:
		if req.ACHAccountNumber == "" {
			return payment.NewValidationError(msgACHAccountNeeded)
		}
		if req.ACHRoutingNumber == "" {
			return payment.NewValidationError(msgACHRoutingNeeded)
		}
	}
	return nil
}
