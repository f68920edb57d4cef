package models

import (
	"time"

	"github.com/shopspring/decimal"

	"paygateway/internal/pkg/utils"
)

// Transaction is the audit record of one gateway operation.
// Card and bank account numbers are stored as their last four digits only.
type Transaction struct {
	ID                     uint            `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	MessageID              *uint           `gorm:"column:message_id;index" json:"message_id"`
	ProjectID              int             `gorm:"column:project_id;index" json:"project_id"`
	Mode                   string          `gorm:"column:mode;size:4" json:"mode"`
	TestRequest            bool            `gorm:"column:test_request" json:"test_request"`
	InteractionID          string          `gorm:"column:interaction_id;size:255;index" json:"interaction_id"`
	InteractionType        string          `gorm:"column:interaction_type;size:4" json:"interaction_type"`
	ClientReferenceCode    string          `gorm:"column:client_reference_code;size:255" json:"client_reference_code"`
	CustomerID             string          `gorm:"column:customer_id;size:255" json:"customer_id"`
	Processor              string          `gorm:"column:processor;size:50" json:"processor"`
	TransactionType        string          `gorm:"column:transaction_type;size:50" json:"transaction_type"`
	TenderType             string          `gorm:"column:tender_type;size:50" json:"tender_type"`
	Amount                 decimal.Decimal `gorm:"column:amount;type:decimal(10,2)" json:"amount"`
	OriginalTransactionID  string          `gorm:"column:original_transaction_id;size:255" json:"original_transaction_id"`
	CardAccountNumber      string          `gorm:"column:card_account_number;size:4" json:"card_account_number"`
	CardType               string          `gorm:"column:card_type;size:50" json:"card_type"`
	ACHAccountNumber       string          `gorm:"column:ach_account_number;size:4" json:"ach_account_number"`
	ACHRoutingNumber       string          `gorm:"column:ach_routing_number;size:9" json:"ach_routing_number"`
	ACHAccountType         string          `gorm:"column:ach_account_type;size:50" json:"ach_account_type"`
	ACHNameOnAccount       string          `gorm:"column:ach_name_on_account;size:255" json:"ach_name_on_account"`
	ACHCheckNumber         string          `gorm:"column:ach_check_number;size:8" json:"ach_check_number"`
	BillToFirstName        string          `gorm:"column:bill_to_first_name;size:255" json:"bill_to_first_name"`
	BillToLastName         string          `gorm:"column:bill_to_last_name;size:255" json:"bill_to_last_name"`
	BillToCompany          string          `gorm:"column:bill_to_company;size:255" json:"bill_to_company"`
	BillToAddress          string          `gorm:"column:bill_to_address;size:255" json:"bill_to_address"`
	BillToCity             string          `gorm:"column:bill_to_city;size:255" json:"bill_to_city"`
	BillToCounty           string          `gorm:"column:bill_to_county;size:255" json:"bill_to_county"`
	BillToState            string          `gorm:"column:bill_to_state;size:255" json:"bill_to_state"`
	BillToZip              string          `gorm:"column:bill_to_zip;size:255" json:"bill_to_zip"`
	BillToCountry          string          `gorm:"column:bill_to_country;size:255" json:"bill_to_country"`
	BillToPhone            string          `gorm:"column:bill_to_phone;size:255" json:"bill_to_phone"`
	BillToEmail            string          `gorm:"column:bill_to_email;size:255" json:"bill_to_email"`
	ShipToFirstName        string          `gorm:"column:ship_to_first_name;size:255" json:"ship_to_first_name"`
	ShipToLastName         string          `gorm:"column:ship_to_last_name;size:255" json:"ship_to_last_name"`
	ShipToCompany          string          `gorm:"column:ship_to_company;size:255" json:"ship_to_company"`
	ShipToAddress          string          `gorm:"column:ship_to_address;size:255" json:"ship_to_address"`
	ShipToCity             string          `gorm:"column:ship_to_city;size:255" json:"ship_to_city"`
	ShipToCounty           string          `gorm:"column:ship_to_county;size:255" json:"ship_to_county"`
	ShipToState            string          `gorm:"column:ship_to_state;size:255" json:"ship_to_state"`
	ShipToZip              string          `gorm:"column:ship_to_zip;size:255" json:"ship_to_zip"`
	ShipToCountry          string          `gorm:"column:ship_to_country;size:255" json:"ship_to_country"`
	ShipToPhone            string          `gorm:"column:ship_to_phone;size:255" json:"ship_to_phone"`
	ShipToEmail            string          `gorm:"column:ship_to_email;size:255" json:"ship_to_email"`
	Description            string          `gorm:"column:description;size:255" json:"description"`
	InvoiceNumber          string          `gorm:"column:invoice_number;size:255" json:"invoice_number"`
	ProcessorResult        string          `gorm:"column:processor_result;size:10" json:"processor_result"`
	ProcessorTransactionID string          `gorm:"column:processor_transaction_id;size:255" json:"processor_transaction_id"`
	ProcessorMessage       string          `gorm:"column:processor_message;type:text" json:"processor_message"`
	ProcessorRequest       string          `gorm:"column:processor_request;type:longtext" json:"processor_request"`
	ProcessorResponse      string          `gorm:"column:processor_response;type:longtext" json:"processor_response"`
	CreatedOn              time.Time       `gorm:"column:created_on;autoCreateTime;index" json:"created_on"`
	ModifiedOn             time.Time       `gorm:"column:modified_on;autoUpdateTime" json:"modified_on"`

	Message *Message `gorm:"foreignKey:MessageID" json:"-"`
}

func (Transaction) TableName() string {
	return "payments_api_transaction"
}

// NewTransactionFromRequest snapshots a request into a fresh audit record.
func NewTransactionFromRequest(r *TransactionRequest, messageID *uint) *Transaction {
	bill, ship := r.BillTo(), r.ShipTo()
	return &Transaction{
		MessageID:             messageID,
		ProjectID:             r.ProjectID,
		Mode:                  string(r.Mode),
		TestRequest:           r.TestRequest,
		InteractionID:         r.InteractionID,
		InteractionType:       r.InteractionType,
		ClientReferenceCode:   r.ClientReferenceCode,
		CustomerID:            r.CustomerID,
		Processor:             r.Processor,
		TransactionType:       string(r.TransactionType),
		TenderType:            string(r.TenderType),
		Amount:                r.Amount,
		OriginalTransactionID: r.OriginalTransactionID,
		CardAccountNumber:     utils.LastN(r.CardAccountNumber, 4),
		CardType:              r.CardType,
		ACHAccountNumber:      utils.LastN(r.ACHAccountNumber, 4),
		ACHRoutingNumber:      r.ACHRoutingNumber,
		ACHAccountType:        r.ACHAccountType,
		ACHNameOnAccount:      r.ACHNameOnAccount,
		ACHCheckNumber:        r.ACHCheckNumber,
		BillToFirstName:       bill.FirstName,
		BillToLastName:        bill.LastName,
		BillToCompany:         bill.Company,
		BillToAddress:         bill.Address,
		BillToCity:            bill.City,
		BillToCounty:          bill.County,
		BillToState:           bill.State,
		BillToZip:             bill.Zip,
		BillToCountry:         bill.Country,
		BillToPhone:           bill.Phone,
		BillToEmail:           bill.Email,
		ShipToFirstName:       ship.FirstName,
		ShipToLastName:        ship.LastName,
		ShipToCompany:         ship.Company,
		ShipToAddress:         ship.Address,
		ShipToCity:            ship.City,
		ShipToCounty:          ship.County,
		ShipToState:           ship.State,
		ShipToZip:             ship.Zip,
		ShipToCountry:         ship.Country,
		ShipToPhone:           ship.Phone,
		ShipToEmail:           ship.Email,
		Description:           r.Description,
		InvoiceNumber:         r.InvoiceNumber,
	}
}
