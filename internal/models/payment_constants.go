package models

// Mode selects the processor environment.
type Mode string

const (
	ModeLive Mode = "live"
	ModeTest Mode = "test"
)

// Interaction types describe the channel a payment originated from.
const (
	InteractionCall = "call"
	InteractionText = "text"
	InteractionWeb  = "web"
)

// Result is the normalized processor outcome.
type Result string

const (
	ResultApproved Result = "approved"
	ResultReview   Result = "review"
	ResultError    Result = "error"
	ResultDeclined Result = "declined"
)

// TransactionType is the payment lifecycle operation.
type TransactionType string

const (
	TransactionAuthorize TransactionType = "authorize"
	TransactionCapture   TransactionType = "capture"
	TransactionSale      TransactionType = "sale"
	TransactionVoid      TransactionType = "void"
	TransactionRefund    TransactionType = "refund"
)

// TenderType is the payment instrument class.
type TenderType string

const (
	TenderCreditCard TenderType = "credit_card"
	TenderACH        TenderType = "ach"
)

// Processor identifiers.
const (
	ProcessorAuthorizeNet = "authorize_net"
	ProcessorCybersource  = "cybersource"
	ProcessorChase        = "chase"
	ProcessorStripe       = "stripe"
)

// Card brands.
const (
	CardVisa            = "visa"
	CardMastercard      = "mastercard"
	CardAmericanExpress = "american_express"
	CardDiscover        = "discover"
	CardJCB             = "jcb"
	CardAmex            = "amex"
	CardDinersClub      = "diners club"
)

// ACH account types.
const (
	ACHSavings    = "savings"
	ACHChecking   = "checking"
	ACHCommercial = "commercial"
	ACHIndividual = "individual"
	ACHCompany    = "company"
	ACHCorporate  = "corporate"
)

var (
	Modes            = []string{string(ModeLive), string(ModeTest)}
	InteractionTypes = []string{InteractionCall, InteractionText, InteractionWeb}
	TransactionTypes = []string{
		string(TransactionAuthorize), string(TransactionCapture), string(TransactionSale),
		string(TransactionVoid), string(TransactionRefund),
	}
	TenderTypes = []string{string(TenderCreditCard), string(TenderACH)}
	Processors  = []string{ProcessorAuthorizeNet, ProcessorCybersource, ProcessorChase, ProcessorStripe}
	CardTypes   = []string{
		CardVisa, CardMastercard, CardAmericanExpress, CardDiscover, CardJCB, CardAmex, CardDinersClub,
	}
	ACHAccountTypes = []string{
		ACHSavings, ACHChecking, ACHCommercial, ACHIndividual, ACHCompany, ACHCorporate,
	}
)

// Transaction types that may omit a tender, allow ACH, or omit the amount.
var (
	TenderTypeNotRequired = []TransactionType{TransactionCapture, TransactionVoid}
	ACHAllowed            = []TransactionType{TransactionSale, TransactionRefund}
	AmountNotRequired     = []TransactionType{TransactionVoid}
)

// In reports whether t is one of types.
func (t TransactionType) In(types ...TransactionType) bool {
	for _, candidate := range types {
		if t == candidate {
			return true
		}
	}
	return false
}
