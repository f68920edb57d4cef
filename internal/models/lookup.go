package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Lookup processor identifiers. Only ConvenientPayments has an integration;
// the others are accepted choices that fail processor selection.
const (
	ProcessorPayrazr            = "payrazr"
	ProcessorPayrazrREST        = "payrazr_rest"
	ProcessorConvenientPayments = "convenient_payments"
)

const lookupDateLayout = "2006-01-02"

var LookupProcessors = []string{ProcessorPayrazr, ProcessorPayrazrREST, ProcessorConvenientPayments}

// LookupRequest is the processor-agnostic input of one account lookup.
type LookupRequest struct {
	ProjectID           int               `json:"project_id"`
	Mode                Mode              `json:"mode"`
	TestRequest         bool              `json:"test_request"`
	InteractionID       string            `json:"interaction_id"`
	InteractionType     string            `json:"interaction_type"`
	ClientReferenceCode string            `json:"client_reference_code"`
	CustomerID          string            `json:"customer_id"`
	Processor           string            `json:"processor"`
	Credentials         map[string]string `json:"credentials"`
	Extra               map[string]string `json:"extra"`

	AccountNumber string     `json:"account_number"`
	InvoiceNumber string     `json:"invoice_number"`
	BillYear      string     `json:"bill_year"`
	DateOfBirth   *time.Time `json:"date_of_birth"`
	ZipCode       string     `json:"zip_code"`
}

// HasCriteria reports whether at least one lookup key was given.
func (r *LookupRequest) HasCriteria() bool {
	return r.CustomerID != "" || r.AccountNumber != "" || r.InvoiceNumber != "" ||
		r.BillYear != "" || r.DateOfBirth != nil || r.ZipCode != ""
}

// LookupResponse is the normalized outcome of one account lookup.
type LookupResponse struct {
	Result              Result
	TransactionID       string
	Message             string
	ClientReferenceCode string
	BalanceAmount       *decimal.Decimal
	BalanceDueDate      *time.Time
	ProcessorResponse   any
}

// Failed reports whether the result should be surfaced as a client error.
func (r *LookupResponse) Failed() bool {
	return r.Result == ResultDeclined || r.Result == ResultError
}

// MarshalJSON renders unset fields as null, the balance with two decimal
// places and the due date as YYYY-MM-DD.
func (r LookupResponse) MarshalJSON() ([]byte, error) {
	out := struct {
		Result              *string `json:"result"`
		TransactionID       *string `json:"transaction_id"`
		Message             *string `json:"message"`
		ClientReferenceCode *string `json:"client_reference_code"`
		BalanceAmount       *string `json:"balance_amount"`
		BalanceDueDate      *string `json:"balance_due_date"`
		ProcessorResponse   any     `json:"processor_response"`
	}{
		Result:              nullable(string(r.Result)),
		TransactionID:       nullable(r.TransactionID),
		Message:             nullable(r.Message),
		ClientReferenceCode: nullable(r.ClientReferenceCode),
		ProcessorResponse:   r.ProcessorResponse,
	}
	if r.BalanceAmount != nil {
		out.BalanceAmount = nullable(r.BalanceAmount.StringFixed(2))
	}
	if r.BalanceDueDate != nil {
		out.BalanceDueDate = nullable(r.BalanceDueDate.Format(lookupDateLayout))
	}
	return json.Marshal(out)
}

// Lookup is the audit record of one account lookup.
type Lookup struct {
	ID                     uint                `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	MessageID              *uint               `gorm:"column:message_id;index" json:"message_id"`
	ProjectID              int                 `gorm:"column:project_id;index" json:"project_id"`
	Mode                   string              `gorm:"column:mode;size:4" json:"mode"`
	TestRequest            bool                `gorm:"column:test_request" json:"test_request"`
	InteractionID          string              `gorm:"column:interaction_id;size:255;index" json:"interaction_id"`
	InteractionType        string              `gorm:"column:interaction_type;size:4" json:"interaction_type"`
	ClientReferenceCode    string              `gorm:"column:client_reference_code;size:255" json:"client_reference_code"`
	CustomerID             string              `gorm:"column:customer_id;size:255" json:"customer_id"`
	Processor              string              `gorm:"column:processor;size:50" json:"processor"`
	AccountNumber          string              `gorm:"column:account_number;size:32" json:"account_number"`
	InvoiceNumber          string              `gorm:"column:invoice_number;size:32" json:"invoice_number"`
	BillYear               string              `gorm:"column:bill_year;size:8" json:"bill_year"`
	DateOfBirth            *time.Time          `gorm:"column:date_of_birth;type:date" json:"-"`
	ZipCode                string              `gorm:"column:zip_code;size:16" json:"zip_code"`
	BalanceAmount          decimal.NullDecimal `gorm:"column:balance_amount;type:decimal(10,2)" json:"-"`
	BalanceDueDate         *time.Time          `gorm:"column:balance_due_date;type:date" json:"-"`
	ProcessorResult        string              `gorm:"column:processor_result;size:10" json:"processor_result"`
	ProcessorTransactionID string              `gorm:"column:processor_transaction_id;size:255" json:"processor_transaction_id"`
	ProcessorMessage       string              `gorm:"column:processor_message;type:text" json:"processor_message"`
	ProcessorRequest       string              `gorm:"column:processor_request;type:longtext" json:"processor_request"`
	ProcessorResponse      string              `gorm:"column:processor_response;type:longtext" json:"processor_response"`
	CreatedOn              time.Time           `gorm:"column:created_on;autoCreateTime;index" json:"created_on"`
	ModifiedOn             time.Time           `gorm:"column:modified_on;autoUpdateTime" json:"modified_on"`

	Message *Message `gorm:"foreignKey:MessageID" json:"-"`
}

func (Lookup) TableName() string {
	return "lookup_transaction"
}

// NewLookupFromRequest snapshots a lookup request into a fresh audit record.
func NewLookupFromRequest(r *LookupRequest, messageID *uint) *Lookup {
	return &Lookup{
		MessageID:           messageID,
		ProjectID:           r.ProjectID,
		Mode:                string(r.Mode),
		TestRequest:         r.TestRequest,
		InteractionID:       r.InteractionID,
		InteractionType:     r.InteractionType,
		ClientReferenceCode: r.ClientReferenceCode,
		CustomerID:          r.CustomerID,
		Processor:           r.Processor,
		AccountNumber:       r.AccountNumber,
		InvoiceNumber:       r.InvoiceNumber,
		BillYear:            r.BillYear,
		DateOfBirth:         r.DateOfBirth,
		ZipCode:             r.ZipCode,
	}
}

// LookupReport is one lookups report row.
type LookupReport struct {
	Lookup
	BalanceAmount  *string        `json:"balance_amount"`
	DateOfBirth    *string        `json:"date_of_birth"`
	BalanceDueDate *string        `json:"balance_due_date"`
	CreatedOn      string         `json:"created_on"`
	ModifiedOn     string         `json:"modified_on"`
	Message        *MessageBodies `json:"message"`
}

// NewLookupReport renders l with its wiretap excerpt, if loaded.
func NewLookupReport(l Lookup) LookupReport {
	row := LookupReport{
		Lookup:         l,
		DateOfBirth:    formatDate(l.DateOfBirth),
		BalanceDueDate: formatDate(l.BalanceDueDate),
		CreatedOn:      l.CreatedOn.Format(reportTimeLayout),
	}
	if l.BalanceAmount.Valid {
		amount := l.BalanceAmount.Decimal.StringFixed(2)
		row.BalanceAmount = &amount
	}
	if !l.ModifiedOn.IsZero() {
		row.ModifiedOn = l.ModifiedOn.Format(reportTimeLayout)
	}
	if l.Message != nil {
		row.Message = &MessageBodies{ReqBody: l.Message.ReqBody, ResBody: l.Message.ResBody}
	}
	return row
}

// NewLookupMessageReport renders a wiretap message that never reached a
// lookup processor.
func NewLookupMessageReport(m Message) LookupReport {
	return NewLookupReport(Lookup{
		MessageID:     &m.ID,
		InteractionID: m.InteractionID,
		CreatedOn:     m.StartedAt,
		Message:       &m,
	})
}

// NewLookupReports renders audit rows in order.
func NewLookupReports(lookups []Lookup) []LookupReport {
	rows := make([]LookupReport, 0, len(lookups))
	for _, l := range lookups {
		rows = append(rows, NewLookupReport(l))
	}
	return rows
}

// LookupsReport is one page of the lookups report. Total is only set when
// the page was requested with skip or limit.
type LookupsReport struct {
	Total        *int64         `json:"total,omitempty"`
	Transactions []LookupReport `json:"transactions"`
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(lookupDateLayout)
	return &s
}
