package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"paygateway/internal/models"
	"paygateway/internal/payment"
	"paygateway/internal/repository"
)

const (
	paymentsPathPart = "api/payments/"
	lookupsPathPart  = "api/lookups/"
	dateLayout       = "2006-01-02"

	defaultSkip   = 0
	defaultLimit  = 10
	defaultSortBy = "created_on"

	msgReportFilterRequired = "Either start_date and end_date or interaction_type need to be provided."
	msgDateFormat           = "Date has wrong format. Use one of these formats instead: YYYY-MM-DD."
)

// paymentSortColumns are the columns the payments report may be ordered by.
var paymentSortColumns = []string{
	"id",
	"created_on",
	"modified_on",
	"amount",
	"processor",
	"transaction_type",
	"tender_type",
	"interaction_type",
	"client_reference_code",
	"processor_result",
}

// lookupSortColumns are the columns the lookups report may be ordered by.
var lookupSortColumns = []string{
	"id",
	"created_on",
	"modified_on",
	"processor",
	"interaction_type",
	"client_reference_code",
	"processor_result",
	"balance_amount",
	"balance_due_date",
}

// ReportHandler serves payment and lookup reports.
type ReportHandler struct {
	repos  *Repos
	logger *zap.Logger
}

func NewReportHandler(repos *Repos, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{repos: repos, logger: logger}
}

// Interaction lists every payment and lookup of an interaction. Wiretap
// messages that never produced an audit record, such as rejected requests,
// are listed after the records of their kind.
// GET /api/payments/report/:project_id/interactions/:interaction_id
func (h *ReportHandler) Interaction(c echo.Context) error {
	projectID, ok := parseProjectID(c)
	if !ok {
		return errorResponse(c, http.StatusNotFound, "Not found.")
	}
	interactionID := c.Param("interaction_id")
	if interactionID == "" {
		return validationResponse(c, payment.FieldError("interaction_id", "This field is required."))
	}

	ctx := c.Request().Context()
	log := h.logger.With(zap.String("interaction_id", interactionID))
	txns, err := h.repos.Transactions.FindByInteraction(ctx, projectID, interactionID)
	if err != nil {
		log.Error("Failed to load interaction transactions", zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "Failed to retrieve payments.")
	}
	lookups, err := h.repos.Lookups.FindByInteraction(ctx, projectID, interactionID)
	if err != nil {
		log.Error("Failed to load interaction lookups", zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "Failed to retrieve lookups.")
	}

	var linked []uint
	for _, t := range txns {
		if t.MessageID != nil {
			linked = append(linked, *t.MessageID)
		}
	}
	paymentMsgs, err := h.repos.Messages.FindUnlinked(ctx, interactionID, paymentsPathPart, linked)
	if err != nil {
		log.Error("Failed to load interaction messages", zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "Failed to retrieve payments.")
	}

	linked = nil
	for _, l := range lookups {
		if l.MessageID != nil {
			linked = append(linked, *l.MessageID)
		}
	}
	lookupMsgs, err := h.repos.Messages.FindUnlinked(ctx, interactionID, lookupsPathPart, linked)
	if err != nil {
		log.Error("Failed to load interaction messages", zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "Failed to retrieve lookups.")
	}

	payments := models.NewTransactionReports(txns)
	for _, m := range paymentMsgs {
		payments = append(payments, models.NewMessageReport(m))
	}
	lookupRows := models.NewLookupReports(lookups)
	for _, m := range lookupMsgs {
		lookupRows = append(lookupRows, models.NewLookupMessageReport(m))
	}

	return successResponse(c, models.InteractionReport{
		ProjectID:     projectID,
		InteractionID: interactionID,
		Payments:      payments,
		Lookups:       lookupRows,
	})
}

// Payments lists payments by date range or interaction type.
// GET /api/payments/report/:project_id/payments
func (h *ReportHandler) Payments(c echo.Context) error {
	projectID, ok := parseProjectID(c)
	if !ok {
		return errorResponse(c, http.StatusNotFound, "Not found.")
	}

	filter, err := parseReportFilter(c, paymentSortColumns)
	if err != nil {
		var verr *payment.ValidationError
		if errors.As(err, &verr) {
			return validationResponse(c, verr)
		}
		return errorResponse(c, http.StatusBadRequest, err.Error())
	}
	filter.ProjectID = projectID

	txns, total, err := h.repos.Transactions.FindPage(c.Request().Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list payments", zap.Int("project_id", projectID), zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "Failed to retrieve payments.")
	}

	report := models.PaymentsReport{Transactions: models.NewTransactionReports(txns)}
	if filter.Paginate {
		report.Total = &total
	}
	return successResponse(c, report)
}

// Lookups lists account lookups by date range or interaction type.
// GET /api/payments/report/:project_id/lookups
func (h *ReportHandler) Lookups(c echo.Context) error {
	projectID, ok := parseProjectID(c)
	if !ok {
		return errorResponse(c, http.StatusNotFound, "Not found.")
	}

	filter, err := parseReportFilter(c, lookupSortColumns)
	if err != nil {
		var verr *payment.ValidationError
		if errors.As(err, &verr) {
			return validationResponse(c, verr)
		}
		return errorResponse(c, http.StatusBadRequest, err.Error())
	}
	filter.ProjectID = projectID

	lookups, total, err := h.repos.Lookups.FindPage(c.Request().Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list lookups", zap.Int("project_id", projectID), zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "Failed to retrieve lookups.")
	}

	report := models.LookupsReport{Transactions: models.NewLookupReports(lookups)}
	if filter.Paginate {
		report.Total = &total
	}
	return successResponse(c, report)
}

// parseReportFilter reads and validates a report query. sort_by must be
// one of columns.
func parseReportFilter(c echo.Context, columns []string) (repository.ReportFilter, error) {
	verr := &payment.ValidationError{}
	f := repository.ReportFilter{SortBy: defaultSortBy, Descending: true}

	start := queryDate(c, "start_date", verr)
	end := queryDate(c, "end_date", verr)

	f.InteractionType = c.QueryParam("interaction_type")
	if f.InteractionType != "" && !contains(models.InteractionTypes, f.InteractionType) {
		verr.Add("interaction_type", fmt.Sprintf("%q is not a valid choice.", f.InteractionType))
	}

	var skipSet, limitSet bool
	f.Skip, skipSet = queryInt(c, "skip", defaultSkip, verr)
	f.Limit, limitSet = queryInt(c, "limit", defaultLimit, verr)
	f.Paginate = skipSet || limitSet

	if v := c.QueryParam("sort_by"); v != "" {
		if !contains(columns, v) {
			verr.Add("sort_by", fmt.Sprintf("%q is not a valid choice.", v))
		}
		f.SortBy = v
	}
	switch v := c.QueryParam("sort_dir"); v {
	case "", "desc":
	case "asc":
		f.Descending = false
	default:
		verr.Add("sort_dir", fmt.Sprintf("%q is not a valid choice.", v))
	}

	if verr.HasErrors() {
		return f, verr
	}

	hasRange := start != nil && end != nil
	if !hasRange && f.InteractionType == "" {
		return f, payment.FieldError("required", msgReportFilterRequired)
	}
	if hasRange {
		from := *start
		to := end.Add(24*time.Hour - time.Second)
		f.From, f.To = &from, &to
	}
	return f, nil
}

func queryDate(c echo.Context, name string, verr *payment.ValidationError) *time.Time {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		verr.Add(name, msgDateFormat)
		return nil
	}
	return &t
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
