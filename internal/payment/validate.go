package payment

import (
	"fmt"
	"strings"

	"paygateway/internal/models"
	"paygateway/internal/pkg/ordered"
)

const msgReferenceRequired = "original_transaction_id is required for void and capture transactions."

// requireReference rejects capture and void requests without an original transaction id.
func requireReference(req *models.TransactionRequest) error {
	if req.TransactionType.In(models.TransactionCapture, models.TransactionVoid) && req.OriginalTransactionID == "" {
		return NewValidationError(msgReferenceRequired)
	}
	return nil
}

// missing returns the keys of fields whose value is empty, in order.
func missing(fields ordered.Map) []string {
	var out []string
	for _, f := range fields {
		if !ordered.Present(f.Value) {
			out = append(out, f.Key)
		}
	}
	return out
}

// present returns the keys of fields whose value is set, in order.
func present(fields ordered.Map) []string {
	var out []string
	for _, f := range fields {
		if ordered.Present(f.Value) {
			out = append(out, f.Key)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// allowedValues renders "a, b or c".
func allowedValues(values []string) string {
	if len(values) < 2 {
		return strings.Join(values, "")
	}
	return fmt.Sprintf("%s or %s", strings.Join(values[:len(values)-1], ", "), values[len(values)-1])
}

// truncateLeft keeps the rightmost n characters.
func truncateLeft(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// capitalize upper-cases the first letter of an ASCII word.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
