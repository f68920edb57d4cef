package models

import "encoding/json"

// TransactionResponse is the normalized outcome of one gateway operation.
type TransactionResponse struct {
	Result              Result `json:"result"`
	TransactionID       string `json:"transaction_id"`
	Message             string `json:"message"`
	ClientReferenceCode string `json:"client_reference_code"`
	ProcessorResponse   any    `json:"processor_response"`
}

// Failed reports whether the result should be surfaced as a client error.
func (r *TransactionResponse) Failed() bool {
	return r.Result == ResultDeclined || r.Result == ResultError
}

// MarshalJSON renders unset fields as null.
func (r TransactionResponse) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Result              *string `json:"result"`
		TransactionID       *string `json:"transaction_id"`
		Message             *string `json:"message"`
		ClientReferenceCode *string `json:"client_reference_code"`
		ProcessorResponse   any     `json:"processor_response"`
	}{
		Result:              nullable(string(r.Result)),
		TransactionID:       nullable(r.TransactionID),
		Message:             nullable(r.Message),
		ClientReferenceCode: nullable(r.ClientReferenceCode),
		ProcessorResponse:   r.ProcessorResponse,
	})
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
