package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"paygateway/internal/payment"
)

const (
	msgNull     = "This field may not be null."
	msgString   = "Not a valid string."
	msgInteger  = "A valid integer is required."
	msgNumber   = "A valid number is required."
	msgBoolean  = "Must be a valid boolean."
	msgDateForm = "Date has wrong format. Use one of these formats instead: YYYY-MM-DD."

	dateLayout = "2006-01-02"
)

// decimalText is a decimal number kept in its inbound text form until the
// field rules have run.
type decimalText string

func (d decimalText) decimal() decimal.Decimal {
	return decimal.RequireFromString(string(d))
}

// inbound checks the field rules declared in validate tags of the input
// documents. Field names in errors are the json names.
var inbound = newInboundValidator()

func newInboundValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)

	rules := map[string]validator.Func{
		"notblank":         notBlank,
		"max_digits":       maxDigits,
		"decimal_places":   decimalPlaces,
		"max_whole_digits": maxWholeDigits,
		"min_amount":       minAmount,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("register %s validation: %v", tag, err))
		}
	}
	return v
}

func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

func notBlank(fl validator.FieldLevel) bool {
	return fl.Field().String() != ""
}

// digits returns the total digit count and the decimal places of d.
func digits(d decimal.Decimal) (total, places int) {
	total = len(d.Coefficient().String())
	if d.Coefficient().Sign() < 0 {
		total--
	}
	exp := int(d.Exponent())
	if exp < 0 {
		places = -exp
	} else {
		total += exp
	}
	return total, places
}

func fieldDecimal(fl validator.FieldLevel) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(fl.Field().String())
	return d, err == nil
}

func paramInt(fl validator.FieldLevel) int {
	n, err := strconv.Atoi(fl.Param())
	if err != nil {
		panic(fmt.Sprintf("%s: bad param %q", fl.GetTag(), fl.Param()))
	}
	return n
}

func maxDigits(fl validator.FieldLevel) bool {
	d, ok := fieldDecimal(fl)
	if !ok {
		return false
	}
	total, _ := digits(d)
	return total <= paramInt(fl)
}

func decimalPlaces(fl validator.FieldLevel) bool {
	d, ok := fieldDecimal(fl)
	if !ok {
		return false
	}
	_, places := digits(d)
	return places <= paramInt(fl)
}

func maxWholeDigits(fl validator.FieldLevel) bool {
	d, ok := fieldDecimal(fl)
	if !ok {
		return false
	}
	total, places := digits(d)
	return total-places <= paramInt(fl)
}

func minAmount(fl validator.FieldLevel) bool {
	d, ok := fieldDecimal(fl)
	if !ok {
		return false
	}
	return d.GreaterThanOrEqual(decimal.RequireFromString(fl.Param()))
}

// fieldMessage renders a failed rule the way clients of the API expect it.
func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "notblank":
		return "This field may not be blank."
	case "oneof":
		return fmt.Sprintf("\"%v\" is not a valid choice.", fe.Value())
	case "email":
		return "Enter a valid email address."
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "max_digits":
		return fmt.Sprintf("Ensure that there are no more than %s digits in total.", fe.Param())
	case "decimal_places":
		return fmt.Sprintf("Ensure that there are no more than %s decimal places.", fe.Param())
	case "max_whole_digits":
		return fmt.Sprintf("Ensure that there are no more than %s digits before the decimal point.", fe.Param())
	case "min_amount":
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	}
	return "Invalid value."
}

// bindDocument copies doc onto dst, a pointer to an input struct, and runs
// its field rules. Keys without a matching field are ignored. A null value
// is rejected unless the field is tagged bind:"nullable", which reads it as
// absent. Errors come back in field declaration order, at most one per field.
func bindDocument(doc map[string]any, dst any) error {
	rv := reflect.ValueOf(dst).Elem()
	rt := rv.Type()

	typeErrs := make(map[string]string)
	for i := 0; i < rt.NumField(); i++ {
		name := jsonName(rt.Field(i))
		raw, ok := doc[name]
		if name == "" || !ok {
			continue
		}
		if raw == nil {
			if rt.Field(i).Tag.Get("bind") != "nullable" {
				typeErrs[name] = msgNull
			}
			continue
		}
		if msg := assign(rv.Field(i), raw); msg != "" {
			typeErrs[name] = msg
		}
	}

	ruleErrs := make(map[string]string)
	if err := inbound.Struct(dst); err != nil {
		var ves validator.ValidationErrors
		if !errors.As(err, &ves) {
			return fmt.Errorf("validate %s: %w", rt.Name(), err)
		}
		for _, fe := range ves {
			ruleErrs[fe.Field()] = fieldMessage(fe)
		}
	}

	verr := &payment.ValidationError{}
	for i := 0; i < rt.NumField(); i++ {
		name := jsonName(rt.Field(i))
		if msg, ok := typeErrs[name]; ok {
			verr.Add(name, msg)
		} else if msg, ok := ruleErrs[name]; ok {
			verr.Add(name, msg)
		}
	}
	return verr.OrNil()
}

// assign converts a decoded JSON value to the type of field. It returns
// the client message when raw has the wrong shape.
func assign(field reflect.Value, raw any) string {
	if field.Kind() == reflect.Ptr {
		target := reflect.New(field.Type().Elem())
		if msg := assign(target.Elem(), raw); msg != "" {
			return msg
		}
		field.Set(target)
		return ""
	}

	switch field.Interface().(type) {
	case decimalText:
		s, ok := scalarString(raw)
		if !ok {
			return msgNumber
		}
		s = strings.TrimSpace(s)
		if _, err := decimal.NewFromString(s); err != nil {
			return msgNumber
		}
		field.SetString(s)
	case string:
		s, ok := scalarString(raw)
		if !ok {
			return msgString
		}
		field.SetString(s)
	case int:
		s, ok := scalarString(raw)
		if !ok {
			return msgInteger
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return msgInteger
		}
		field.SetInt(int64(n))
	case bool:
		b, ok := parseBool(raw)
		if !ok {
			return msgBoolean
		}
		field.SetBool(b)
	case time.Time:
		s, ok := raw.(string)
		if !ok {
			return msgDateForm
		}
		t, err := time.Parse(dateLayout, strings.TrimSpace(s))
		if err != nil {
			return msgDateForm
		}
		field.Set(reflect.ValueOf(t))
	case map[string]string:
		m, ok := raw.(map[string]any)
		if !ok {
			return fmt.Sprintf("Expected a dictionary of items but got type \"%s\".", jsonType(raw))
		}
		out := make(map[string]string, len(m))
		for k, v := range m {
			s, ok := scalarString(v)
			if !ok {
				return msgString
			}
			out[k] = s
		}
		field.Set(reflect.ValueOf(out))
	default:
		return fmt.Sprintf("Unsupported field type %s.", field.Type())
	}
	return ""
}

// scalarString renders JSON strings and numbers as text.
func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	}
	return "", false
}

func parseBool(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case json.Number:
		switch t.String() {
		case "1":
			return true, true
		case "0":
			return false, true
		}
	case string:
		switch strings.ToLower(t) {
		case "true", "1", "yes", "on":
			return true, true
		case "false", "0", "no", "off", "":
			return false, true
		}
	}
	return false, false
}

func jsonType(v any) string {
	switch v.(type) {
	case string:
		return "str"
	case json.Number, float64:
		return "number"
	case bool:
		return "bool"
	case []any:
		return "list"
	}
	return fmt.Sprintf("%T", v)
}
