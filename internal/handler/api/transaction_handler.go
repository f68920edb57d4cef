package api

import (
	"context"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"paygateway/internal/models"
)

// TransactionProcessor runs one raw transaction or lookup payload.
type TransactionProcessor interface {
	Process(ctx context.Context, projectID int, raw []byte) (int, models.Envelope)
}

// TransactionHandler accepts gateway transactions.
type TransactionHandler struct {
	service TransactionProcessor
	logger  *zap.Logger
}

func NewTransactionHandler(service TransactionProcessor, logger *zap.Logger) *TransactionHandler {
	return &TransactionHandler{service: service, logger: logger}
}

// Create runs a transaction for the project in the path.
// POST /api/payments/transactions/:project_id
func (h *TransactionHandler) Create(c echo.Context) error {
	projectID, ok := parseProjectID(c)
	if !ok {
		return errorResponse(c, http.StatusNotFound, "Not found.")
	}

	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		h.logger.Warn("read transaction body failed", zap.Error(err))
		return errorResponse(c, http.StatusBadRequest, "Unable to read request body.")
	}

	status, envelope := h.service.Process(c.Request().Context(), projectID, raw)
	return c.JSON(status, envelope)
}
