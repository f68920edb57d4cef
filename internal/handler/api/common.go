package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"paygateway/internal/models"
	"paygateway/internal/payment"
	"paygateway/internal/repository"
)

// TransactionFinder reads audit transactions for reports.
type TransactionFinder interface {
	FindByInteraction(ctx context.Context, projectID int, interactionID string) ([]models.Transaction, error)
	FindPage(ctx context.Context, f repository.ReportFilter) ([]models.Transaction, int64, error)
}

// LookupFinder reads lookup audit records for reports.
type LookupFinder interface {
	FindByInteraction(ctx context.Context, projectID int, interactionID string) ([]models.Lookup, error)
	FindPage(ctx context.Context, f repository.ReportFilter) ([]models.Lookup, int64, error)
}

// MessageFinder reads wiretap messages for reports.
type MessageFinder interface {
	FindUnlinked(ctx context.Context, interactionID, pathPart string, exclude []uint) ([]models.Message, error)
}

// Repos bundles the stores needed by API handlers.
type Repos struct {
	Transactions TransactionFinder
	Lookups      LookupFinder
	Messages     MessageFinder
}

func successResponse(c echo.Context, items ...any) error {
	return c.JSON(http.StatusOK, models.NewEnvelope(nil, items...))
}

func errorResponse(c echo.Context, status int, msg string) error {
	return c.JSON(status, models.NewEnvelope([]models.ErrorItem{{Field: payment.DetailField, Message: msg}}))
}

func validationResponse(c echo.Context, verr *payment.ValidationError) error {
	return c.JSON(http.StatusBadRequest, models.NewEnvelope(verr.Items))
}

// parseProjectID parses the project_id path parameter.
func parseProjectID(c echo.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("project_id"))
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

// queryInt parses an optional non-negative integer query parameter. set
// reports whether the parameter was given; invalid values are added to verr.
func queryInt(c echo.Context, name string, defaultVal int, verr *payment.ValidationError) (val int, set bool) {
	raw := c.QueryParam(name)
	if raw == "" {
		return defaultVal, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		verr.Add(name, "A valid integer is required.")
		return defaultVal, true
	}
	if n < 0 {
		verr.Add(name, "Ensure this value is greater than or equal to 0.")
		return defaultVal, true
	}
	return n, true
}
