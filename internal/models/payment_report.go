package models

// InteractionReport lists everything recorded for one interaction.
type InteractionReport struct {
	ProjectID     int                 `json:"project_id"`
	InteractionID string              `json:"interaction_id"`
	Payments      []TransactionReport `json:"payments"`
	Lookups       []LookupReport      `json:"lookups"`
}

// PaymentsReport is one page of the payments report. Total is only set
// when the page was requested with skip or limit.
type PaymentsReport struct {
	Total        *int64              `json:"total,omitempty"`
	Transactions []TransactionReport `json:"transactions"`
}

// NewTransactionReports renders audit rows in order.
func NewTransactionReports(txns []Transaction) []TransactionReport {
	rows := make([]TransactionReport, 0, len(txns))
	for _, t := range txns {
		rows = append(rows, NewTransactionReport(t))
	}
	return rows
}
