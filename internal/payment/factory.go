package payment

import (
	"paygateway/internal/models"
)

// Constructor builds a single-use Processor for one request.
type Constructor func(req *models.TransactionRequest, endpoints Endpoints) Processor

// Registration ties a processor name to its constructor and URLs.
type Registration struct {
	Name      string
	Endpoints Endpoints
	New       Constructor
}

// Registry selects the processor for a request. Registrations are checked
// in order and the first name match wins.
type Registry struct {
	entries []Registration
}

// NewRegistry registers every built-in processor. Non-empty URLs in
// overrides replace the defaults for the named processor.
func NewRegistry(overrides map[string]Endpoints) *Registry {
	entries := []Registration{
		{Name: models.ProcessorAuthorizeNet, Endpoints: authorizeNetEndpoints, New: NewAuthorizeNet},
		{Name: models.ProcessorCybersource, Endpoints: cybersourceEndpoints, New: NewCybersource},
		{Name: models.ProcessorChase, Endpoints: chaseEndpoints, New: NewChase},
		{Name: models.ProcessorStripe, Endpoints: stripeEndpoints, New: NewStripe},
	}
	for i := range entries {
		entries[i].Endpoints = overridden(entries[i].Endpoints, overrides[entries[i].Name])
	}
	return &Registry{entries: entries}
}

// overridden replaces the URLs of e that are set in o.
func overridden(e, o Endpoints) Endpoints {
	if o.Live != "" {
		e.Live = o.Live
	}
	if o.Test != "" {
		e.Test = o.Test
	}
	return e
}

// Select returns the registration matching req.Processor.
func (r *Registry) Select(req *models.TransactionRequest) (Registration, error) {
	for _, e := range r.entries {
		if e.Name == req.Processor {
			return e, nil
		}
	}
	return Registration{}, processorNotImplemented(req.Processor)
}

// Processor builds the processor instance for req.
func (r *Registry) Processor(req *models.TransactionRequest) (Processor, error) {
	reg, err := r.Select(req)
	if err != nil {
		return nil, err
	}
	return reg.New(req, reg.Endpoints), nil
}

// Names lists registered processors in selection order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		names = append(names, e.Name)
	}
	return names
}
