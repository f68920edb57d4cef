package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"paygateway/internal/models"
	"paygateway/internal/payment"
)

const msgLookupCriteria = "At least one parameter is required to perform a lookup."

// lookupInput is the inbound account lookup document.
type lookupInput struct {
	ProjectID           *int              `json:"project_id" validate:"required"`
	Mode                *string           `json:"mode" validate:"required,notblank,oneof=live test"`
	TestRequest         bool              `json:"test_request"`
	InteractionID       *string           `json:"interaction_id" validate:"omitnil,notblank"`
	InteractionType     *string           `json:"interaction_type" validate:"required,notblank,oneof=call text web"`
	ClientReferenceCode string            `json:"client_reference_code"`
	CustomerID          string            `json:"customer_id"`
	Processor           *string           `json:"processor" validate:"required,notblank,oneof=payrazr payrazr_rest convenient_payments"`
	Credentials         map[string]string `json:"credentials" validate:"required"`
	Extra               map[string]string `json:"extra"`
	AccountNumber       string            `json:"account_number" validate:"omitempty,max=32"`
	InvoiceNumber       string            `json:"invoice_number" validate:"omitempty,max=32"`
	BillYear            string            `json:"bill_year" validate:"omitempty,max=8"`
	DateOfBirth         *time.Time        `json:"date_of_birth" bind:"nullable"`
	ZipCode             string            `json:"zip_code" validate:"omitempty,max=16"`
}

func (in *lookupInput) request() *models.LookupRequest {
	return &models.LookupRequest{
		ProjectID:           deref(in.ProjectID),
		Mode:                models.Mode(deref(in.Mode)),
		TestRequest:         in.TestRequest,
		InteractionID:       deref(in.InteractionID),
		InteractionType:     deref(in.InteractionType),
		ClientReferenceCode: in.ClientReferenceCode,
		CustomerID:          in.CustomerID,
		Processor:           deref(in.Processor),
		Credentials:         in.Credentials,
		Extra:               in.Extra,
		AccountNumber:       in.AccountNumber,
		InvoiceNumber:       in.InvoiceNumber,
		BillYear:            in.BillYear,
		DateOfBirth:         in.DateOfBirth,
		ZipCode:             in.ZipCode,
	}
}

// decodeLookupRequest binds doc to a lookup request and requires at least
// one lookup key.
func decodeLookupRequest(doc map[string]any) (*models.LookupRequest, error) {
	var in lookupInput
	if err := bindDocument(doc, &in); err != nil {
		return nil, err
	}
	req := in.request()
	if !req.HasCriteria() {
		return nil, payment.NewValidationError(msgLookupCriteria)
	}
	return req, nil
}

// LookupExecutor runs a lookup processor through its lifecycle.
type LookupExecutor interface {
	Execute(ctx context.Context, p payment.LookupProcessor, req *models.LookupRequest) (*payment.LookupExecution, error)
}

// LookupService is the entry point for account lookups.
type LookupService struct {
	registry *payment.LookupRegistry
	executor LookupExecutor
	logger   *zap.Logger
}

func NewLookupService(registry *payment.LookupRegistry, executor LookupExecutor, logger *zap.Logger) *LookupService {
	return &LookupService{registry: registry, executor: executor, logger: logger}
}

// Process validates raw, runs the lookup against the selected processor and
// returns the HTTP status with the response envelope. projectID always
// replaces any project_id found in raw.
func (s *LookupService) Process(ctx context.Context, projectID int, raw []byte) (int, models.Envelope) {
	doc, err := decodeDocument(raw)
	if err != nil {
		return s.failure(nil, "", payment.NewValidationError("JSON parse error - "+err.Error()))
	}
	echo := referenceCode(doc)
	doc["project_id"] = json.Number(strconv.Itoa(projectID))

	req, err := decodeLookupRequest(doc)
	if err != nil {
		return s.failure(nil, echo, err)
	}

	proc, err := s.registry.Processor(req)
	if err != nil {
		return s.failure(nil, echo, err)
	}

	run, err := s.executor.Execute(ctx, proc, req)
	if err != nil {
		var partial *models.LookupResponse
		if run != nil {
			partial = run.Response
		}
		return s.failure(partial, echo, err)
	}

	resp := run.Response
	if resp.Failed() {
		message := resp.Message
		resp.Message = ""
		resp.ClientReferenceCode = echo
		errs := []models.ErrorItem{{Field: payment.DetailField, Message: message}}
		return http.StatusBadRequest, models.NewEnvelope(errs, resp)
	}
	return http.StatusOK, models.NewEnvelope(nil, resp)
}

func (s *LookupService) failure(resp *models.LookupResponse, echo string, err error) (int, models.Envelope) {
	if resp == nil {
		resp = &models.LookupResponse{}
	}
	resp.Result = models.ResultError
	resp.Message = ""
	resp.ClientReferenceCode = echo
	return http.StatusBadRequest, models.NewEnvelope(errorItems(s.logger, "lookup failed", err), resp)
}
