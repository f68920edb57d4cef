package ordered

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapKeepsInsertionOrder(t *testing.T) {
	inner := Map{}
	inner.Set("cardNumber", "4111").Set("expirationDate", "2030-12")

	m := Map{}
	m.Set("z", 1).Set("a", "two").Set("payment", inner)

	out, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"a":"two","payment":{"cardNumber":"4111","expirationDate":"2030-12"}}`, string(out))
}

func TestSetReplacesInPlace(t *testing.T) {
	m := Map{}
	m.Set("a", 1).Set("b", 2).Set("a", 3)

	assert.Equal(t, []string{"a", "b"}, m.Keys())
	v, ok := m.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestSetIfPresent(t *testing.T) {
	m := Map{}
	m.SetIfPresent("empty", "").
		SetIfPresent("nil", nil).
		SetIfPresent("zero", decimal.Zero).
		SetIfPresent("block", Map{}).
		SetIfPresent("kept", "x").
		SetIfPresent("flag", false)

	assert.Equal(t, []string{"kept", "flag"}, m.Keys())
}

func TestPresent(t *testing.T) {
	assert.False(t, Present(nil))
	assert.False(t, Present(0))
	assert.False(t, Present((*Map)(nil)))
	assert.True(t, Present(decimal.RequireFromString("0.01")))
	assert.True(t, Present(&Map{{Key: "k", Value: "v"}}))
	assert.True(t, Present([]any{"x"}))
}
