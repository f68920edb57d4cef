package payment

import (
	"paygateway/internal/pkg/utils"
)

// requireCredentials returns the credentials map when every key is present,
// or a ValidationError naming all of the missing keys.
func requireCredentials(creds map[string]string, keys ...string) (map[string]string, error) {
	var missing []string
	for _, k := range keys {
		if creds[k] == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return nil, NewValidationError(utils.ListToString(missing) + " are required as part of credentials.")
	}
	return creds, nil
}

// AuthorizeNetCredentials authenticate against the Authorize.Net JSON API.
type AuthorizeNetCredentials struct {
	Login          string
	TransactionKey string
}

func NewAuthorizeNetCredentials(creds map[string]string) (AuthorizeNetCredentials, error) {
	c, err := requireCredentials(creds, "login", "tran_key")
	if err != nil {
		return AuthorizeNetCredentials{}, err
	}
	return AuthorizeNetCredentials{Login: c["login"], TransactionKey: c["tran_key"]}, nil
}

// ChaseCredentials authenticate against the Orbital gateway.
type ChaseCredentials struct {
	MerchantID string
	Username   string
	Password   string
	TerminalID string
}

func NewChaseCredentials(creds map[string]string) (ChaseCredentials, error) {
	c, err := requireCredentials(creds, "merchant_id", "username", "password", "terminal_id")
	if err != nil {
		return ChaseCredentials{}, err
	}
	return ChaseCredentials{
		MerchantID: c["merchant_id"],
		Username:   c["username"],
		Password:   c["password"],
		TerminalID: c["terminal_id"],
	}, nil
}

// CybersourceCredentials sign the WS-Security header of CyberSource calls.
type CybersourceCredentials struct {
	MerchantID     string
	TransactionKey string
}

func NewCybersourceCredentials(creds map[string]string) (CybersourceCredentials, error) {
	c, err := requireCredentials(creds, "merchant_id", "transaction_key")
	if err != nil {
		return CybersourceCredentials{}, err
	}
	return CybersourceCredentials{MerchantID: c["merchant_id"], TransactionKey: c["transaction_key"]}, nil
}

// StripeCredentials hold the secret API key.
type StripeCredentials struct {
	APIKey string
}

func NewStripeCredentials(creds map[string]string) (StripeCredentials, error) {
	c, err := requireCredentials(creds, "api_key")
	if err != nil {
		return StripeCredentials{}, err
	}
	return StripeCredentials{APIKey: c["api_key"]}, nil
}

// ConvenientPaymentsCredentials authenticate against the cpteller web API.
type ConvenientPaymentsCredentials struct {
	APIAccessKey string
	MerchantKey  string
}

func NewConvenientPaymentsCredentials(creds map[string]string) (ConvenientPaymentsCredentials, error) {
	c, err := requireCredentials(creds, "api_access_key", "merchant_key")
	if err != nil {
		return ConvenientPaymentsCredentials{}, err
	}
	return ConvenientPaymentsCredentials{APIAccessKey: c["api_access_key"], MerchantKey: c["merchant_key"]}, nil
}
