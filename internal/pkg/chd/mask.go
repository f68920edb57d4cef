// Package chd scrubs cardholder data out of free text before it is stored or logged.
package chd

import (
	"encoding/json"
	"sort"
	"strings"
)

// MaskChar replaces hidden characters. It never occurs in card, cvv or
// bank account numbers, so masking masked text is a no-op.
const MaskChar = "*"

// Names of request fields whose values are masked wherever they appear.
var SensitiveFields = []string{
	"card_account_number",
	"card_verification_value",
	"ach_account_number",
}

// maskValue hides all but the last keep characters of value, preserving its length.
func maskValue(value string, keep int) string {
	if keep < 1 {
		return strings.Repeat(MaskChar, len(value))
	}
	if keep >= len(value) {
		return value
	}
	return strings.Repeat(MaskChar, len(value)-keep) + value[len(value)-keep:]
}

// Mask replaces every occurrence of each value in message. Values of two
// characters or fewer are left alone, values of up to four characters are
// fully hidden and longer values keep their last four characters.
// Replacement is a single pass that tries longer values first, so a short
// value found inside a longer one cannot eat into the digits it keeps.
func Mask(message string, values []string) string {
	ordered := make([]string, 0, len(values))
	for _, v := range values {
		if len(v) > 2 {
			ordered = append(ordered, v)
		}
	}
	if len(ordered) == 0 {
		return message
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return len(ordered[i]) > len(ordered[j])
	})

	pairs := make([]string, 0, 2*len(ordered))
	for _, v := range ordered {
		keep := 4
		if len(v) <= 4 {
			keep = 0
		}
		pairs = append(pairs, v, maskValue(v, keep))
	}
	return strings.NewReplacer(pairs...).Replace(message)
}

// ValuesToMask collects the present, non-empty sensitive values from a flat field map.
func ValuesToMask(fields map[string]string) []string {
	var values []string
	for _, name := range SensitiveFields {
		if v := fields[name]; v != "" {
			values = append(values, v)
		}
	}
	return values
}

// ValuesFromAny is ValuesToMask for JSON documents decoded with UseNumber,
// where numeric fields arrive as json.Number.
func ValuesFromAny(doc map[string]any) []string {
	fields := make(map[string]string, len(SensitiveFields))
	for _, name := range SensitiveFields {
		switch v := doc[name].(type) {
		case string:
			fields[name] = v
		case json.Number:
			fields[name] = v.String()
		}
	}
	return ValuesToMask(fields)
}
