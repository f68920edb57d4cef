package api

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// LookupHandler accepts account lookups.
type LookupHandler struct {
	service TransactionProcessor
	logger  *zap.Logger
}

func NewLookupHandler(service TransactionProcessor, logger *zap.Logger) *LookupHandler {
	return &LookupHandler{service: service, logger: logger}
}

// Create runs an account lookup for the project in the path.
// POST /api/lookups/transactions/:project_id
func (h *LookupHandler) Create(c echo.Context) error {
	projectID, ok := parseProjectID(c)
	if !ok {
		return errorResponse(c, http.StatusNotFound, "Not found.")
	}

	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		h.logger.Warn("read lookup body failed", zap.Error(err))
		return errorResponse(c, http.StatusBadRequest, "Unable to read request body.")
	}

	status, envelope := h.service.Process(c.Request().Context(), projectID, raw)
	return c.JSON(status, envelope)
}
