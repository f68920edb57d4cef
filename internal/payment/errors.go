package payment

import (
	"fmt"
	"strings"

	"paygateway/internal/models"
)

// DetailField is the field name used for errors that belong to no single field.
const DetailField = "detail"

// ValidationError reports bad, missing or inconsistent request fields.
type ValidationError struct {
	Items []models.ErrorItem
}

// NewValidationError builds a ValidationError with a single non-field message.
func NewValidationError(msg string) *ValidationError {
	return FieldError(DetailField, msg)
}

// FieldError builds a ValidationError for one field.
func FieldError(field, msg string) *ValidationError {
	return &ValidationError{Items: []models.ErrorItem{{Field: field, Message: msg}}}
}

// Add appends a field message.
func (e *ValidationError) Add(field, msg string) {
	e.Items = append(e.Items, models.ErrorItem{Field: field, Message: msg})
}

// HasErrors reports whether any message was collected.
func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Items) > 0
}

// OrNil returns e when it carries messages and nil otherwise.
func (e *ValidationError) OrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Items))
	for _, item := range e.Items {
		if item.Field == DetailField {
			parts = append(parts, item.Message)
			continue
		}
		parts = append(parts, item.Field+": "+item.Message)
	}
	return strings.Join(parts, " ")
}

// NotImplementedError reports an unknown processor or an operation a processor does not offer.
type NotImplementedError struct {
	Msg string
}

func (e *NotImplementedError) Error() string {
	return e.Msg
}

func processorNotImplemented(name string) error {
	return &NotImplementedError{Msg: fmt.Sprintf("Processor `%s` is not implemented.", name)}
}

func transactionNotImplemented(processor string, t models.TransactionType) error {
	return &NotImplementedError{
		Msg: fmt.Sprintf("Transaction type `%s` is not implemented for processor `%s`.", t, processor),
	}
}
