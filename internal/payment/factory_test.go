package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paygateway/internal/models"
)

func TestRegistrySelect(t *testing.T) {
	r := NewRegistry(nil)
	assert.Equal(t, []string{"authorize_net", "cybersource", "chase", "stripe"}, r.Names())

	for _, name := range models.Processors {
		p, err := r.Processor(&models.TransactionRequest{Processor: name})
		require.NoError(t, err, name)
		assert.Equal(t, name, p.Name())
	}
}

func TestRegistryUnknownProcessor(t *testing.T) {
	_, err := NewRegistry(nil).Processor(&models.TransactionRequest{Processor: "paypal"})
	var nerr *NotImplementedError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, "Processor `paypal` is not implemented.", nerr.Error())
}

func TestRegistryEndpointOverrides(t *testing.T) {
	r := NewRegistry(map[string]Endpoints{
		models.ProcessorStripe: {Test: "http://stripe.local/v1"},
	})

	reg, err := r.Select(&models.TransactionRequest{Processor: models.ProcessorStripe})
	require.NoError(t, err)
	assert.Equal(t, "http://stripe.local/v1", reg.Endpoints.Test)
	assert.Equal(t, stripeEndpoints.Live, reg.Endpoints.Live)

	reg, err = r.Select(&models.TransactionRequest{Processor: models.ProcessorChase})
	require.NoError(t, err)
	assert.Equal(t, chaseEndpoints, reg.Endpoints)
}

func TestEndpointsFor(t *testing.T) {
	e := Endpoints{Live: "https://live", Test: "https://test"}
	assert.Equal(t, "https://live", e.For(models.ModeLive))
	assert.Equal(t, "https://test", e.For(models.ModeTest))
	assert.Equal(t, "https://test", e.For(""))
}
