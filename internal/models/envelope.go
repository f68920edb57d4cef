package models

// ErrorItem is one entry of the envelope error list.
type ErrorItem struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// EnvelopeMetadata carries the error list of an Envelope.
type EnvelopeMetadata struct {
	Errors []ErrorItem `json:"errors"`
}

// Envelope wraps every API response in a list, even single results.
type Envelope struct {
	Data     []any            `json:"data"`
	Metadata EnvelopeMetadata `json:"metadata"`
}

// NewEnvelope wraps items with the given errors.
func NewEnvelope(errs []ErrorItem, items ...any) Envelope {
	if items == nil {
		items = []any{}
	}
	if errs == nil {
		errs = []ErrorItem{}
	}
	return Envelope{Data: items, Metadata: EnvelopeMetadata{Errors: errs}}
}
