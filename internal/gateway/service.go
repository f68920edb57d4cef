// Package gateway turns raw transaction and lookup payloads into processor
// calls and wraps every outcome in the list envelope returned by the API.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"paygateway/internal/events"
	"paygateway/internal/models"
	"paygateway/internal/payment"
	"paygateway/internal/pkg/utils"
)

// Executor runs a processor through its lifecycle.
type Executor interface {
	Execute(ctx context.Context, p payment.Processor, req *models.TransactionRequest) (*payment.Execution, error)
}

// Service is the gateway entry point.
type Service struct {
	registry  *payment.Registry
	executor  Executor
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(registry *payment.Registry, executor Executor, publisher events.Publisher, logger *zap.Logger) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		registry:  registry,
		executor:  executor,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Process validates raw, runs it against the selected processor and
// returns the HTTP status with the response envelope. projectID always
// replaces any project_id found in raw.
func (s *Service) Process(ctx context.Context, projectID int, raw []byte) (int, models.Envelope) {
	doc, err := decodeDocument(raw)
	if err != nil {
		return s.failure(nil, "", payment.NewValidationError("JSON parse error - "+err.Error()))
	}
	echo := referenceCode(doc)
	doc["project_id"] = json.Number(strconv.Itoa(projectID))

	req, err := decodeRequest(doc, s.now())
	if err != nil {
		return s.failure(nil, echo, err)
	}

	proc, err := s.registry.Processor(req)
	if err != nil {
		return s.failure(nil, echo, err)
	}

	run, err := s.executor.Execute(ctx, proc, req)
	if err != nil {
		var partial *models.TransactionResponse
		if run != nil {
			partial = run.Response
		}
		return s.failure(partial, echo, err)
	}
	s.publish(ctx, req, run)

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

// failure builds the 400 envelope for err. The response carries no message,
// since the message moves into the error list.
func (s *Service) failure(resp *models.TransactionResponse, echo string, err error) (int, models.Envelope) {
	if resp == nil {
		resp = &models.TransactionResponse{}
	}
	resp.Result = models.ResultError
	resp.Message = ""
	resp.ClientReferenceCode = echo
	return http.StatusBadRequest, models.NewEnvelope(errorItems(s.logger, "transaction failed", err), resp)
}

// errorItems turns err into the envelope error list. Errors other than
// validation and not-implemented errors are logged as unexpected.
func errorItems(logger *zap.Logger, msg string, err error) []models.ErrorItem {
	var verr *payment.ValidationError
	var nerr *payment.NotImplementedError
	switch {
	case errors.As(err, &verr):
		return verr.Items
	case errors.As(err, &nerr):
		return []models.ErrorItem{{Field: payment.DetailField, Message: nerr.Error()}}
	default:
		logger.Error(msg, zap.Error(err))
		return []models.ErrorItem{{Field: payment.DetailField, Message: err.Error()}}
	}
}

func (s *Service) publish(ctx context.Context, req *models.TransactionRequest, run *payment.Execution) {
	last4 := utils.LastN(req.CardAccountNumber, 4)
	if req.TenderType == models.TenderACH {
		last4 = utils.LastN(req.ACHAccountNumber, 4)
	}
	event := events.TransactionCompleted{
		Event:                  "transaction.completed",
		ProjectID:              req.ProjectID,
		InteractionID:          req.InteractionID,
		ClientReferenceCode:    req.ClientReferenceCode,
		Processor:              req.Processor,
		TransactionType:        string(req.TransactionType),
		TenderType:             string(req.TenderType),
		AccountLast4:           last4,
		Result:                 string(run.Response.Result),
		ProcessorTransactionID: run.Response.TransactionID,
		OccurredAt:             s.now().UTC(),
	}
	if run.Audit != nil {
		event.AuditID = run.Audit.ID
	}
	if !req.Amount.IsZero() {
		event.Amount = req.AmountString()
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish transaction event failed",
			zap.String("interaction_id", req.InteractionID),
			zap.Error(err),
		)
	}
}

// decodeDocument reads a JSON object keeping numbers as json.Number.
func decodeDocument(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}

// referenceCode returns client_reference_code as sent, for echoing.
func referenceCode(doc map[string]any) string {
	switch v := doc["client_reference_code"].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	}
	return ""
}
