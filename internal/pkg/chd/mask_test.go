package chd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMask(t *testing.T) {
	tests := []struct {
		name    string
		message string
		values  []string
		want    string
	}{
		{
			name:    "long value keeps last four",
			message: `{"card":"4111111111111111"}`,
			values:  []string{"4111111111111111"},
			want:    `{"card":"************1111"}`,
		},
		{
			name:    "short value fully hidden",
			message: "cvv=1234&x=1",
			values:  []string{"1234"},
			want:    "cvv=****&x=1",
		},
		{
			name:    "two characters left alone",
			message: "id=42",
			values:  []string{"42"},
			want:    "id=42",
		},
		{
			name:    "every occurrence replaced",
			message: "123 and 123",
			values:  []string{"123"},
			want:    "*** and ***",
		},
		{
			name:    "no values",
			message: "plain",
			values:  nil,
			want:    "plain",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Mask(tt.message, tt.values))
		})
	}
}

func TestMaskLongestValueFirst(t *testing.T) {
	values := []string{"111", "4111111111111111"}
	assert.Equal(t, `{"card":"************1111","cvv":"***"}`,
		Mask(`{"card":"4111111111111111","cvv":"111"}`, values))
	assert.Equal(t, []string{"111", "4111111111111111"}, values, "caller's slice is not reordered")
}

func TestMaskIsIdempotent(t *testing.T) {
	values := []string{"4111111111111111", "999"}
	once := Mask("4111111111111111 / 999", values)
	assert.Equal(t, once, Mask(once, values))
}

func TestValuesToMask(t *testing.T) {
	values := ValuesToMask(map[string]string{
		"card_account_number":     "4111111111111111",
		"card_verification_value": "",
		"ach_account_number":      "000123456",
		"description":             "not sensitive",
	})
	assert.Equal(t, []string{"4111111111111111", "000123456"}, values)
}

func TestValuesFromAny(t *testing.T) {
	doc := map[string]any{
		"card_account_number":     json.Number("4111111111111111"),
		"card_verification_value": "123",
		"ach_account_number":      true,
	}
	assert.Equal(t, []string{"4111111111111111", "123"}, ValuesFromAny(doc))
	assert.Empty(t, ValuesFromAny(nil))
}
