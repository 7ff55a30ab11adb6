package billing

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/Jorgecuenca1/contabilidad/internal/domain/clinical"
	"github.com/Jorgecuenca1/contabilidad/pkg/pagination"
)

type Handler struct {
	svc       *Service
	collector *Collector
}

func NewHandler(svc *Service, collector *Collector) *Handler {
	return &Handler{svc: svc, collector: collector}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/billing/patients/:patientId/unbilled-services", h.listUnbilledServices)
	g.GET("/billing/patients/:patientId/invoices", h.listInvoicesByPatient)

	g.POST("/billing/invoices", h.createInvoice)
	g.GET("/billing/invoices", h.listInvoices)
	g.GET("/billing/invoices/:id", h.getInvoice)
	g.GET("/billing/invoices/:id/line-items", h.listLineItems)
	g.POST("/billing/invoices/:id/issue", h.issueInvoice)
	g.POST("/billing/invoices/:id/cancel", h.cancelInvoice)
	g.POST("/billing/invoices/:id/payments", h.registerPayment)
	g.GET("/billing/invoices/:id/payments", h.listPayments)
}

func (h *Handler) listUnbilledServices(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	records := h.collector.UnbilledServices(c.Request().Context(), patientID)
	if records == nil {
		records = []*clinical.ServiceRecord{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":  records,
		"total": len(records),
	})
}

func (h *Handler) createInvoice(c echo.Context) error {
	var in CreateInvoiceInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	inv, err := h.svc.CreateInvoice(c.Request().Context(), in)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, verr.Msg)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, inv)
}

func (h *Handler) getInvoice(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid invoice id")
	}

	inv, err := h.svc.GetInvoice(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "invoice not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *Handler) listInvoices(c echo.Context) error {
	p := pagination.FromContext(c)
	invoices, total, err := h.svc.ListInvoices(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if invoices == nil {
		invoices = []*Invoice{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(invoices, total, p.Limit, p.Offset))
}

func (h *Handler) listInvoicesByPatient(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	p := pagination.FromContext(c)
	invoices, total, err := h.svc.ListInvoicesByPatient(c.Request().Context(), patientID, p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if invoices == nil {
		invoices = []*Invoice{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(invoices, total, p.Limit, p.Offset))
}

func (h *Handler) listLineItems(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid invoice id")
	}

	items, err := h.svc.ListLineItems(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []*LineItem{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":  items,
		"total": len(items),
	})
}

func (h *Handler) issueInvoice(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid invoice id")
	}

	inv, err := h.svc.IssueInvoice(c.Request().Context(), id)
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *Handler) cancelInvoice(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid invoice id")
	}

	inv, err := h.svc.CancelInvoice(c.Request().Context(), id)
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(http.StatusOK, inv)
}

type paymentRequest struct {
	Amount     int64      `json:"amount"`
	Method     string     `json:"method"`
	Reference  string     `json:"reference"`
	ReceivedAt *time.Time `json:"received_at"`
}

func (h *Handler) registerPayment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid invoice id")
	}

	var req paymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	receivedAt := time.Now().UTC()
	if req.ReceivedAt != nil {
		receivedAt = *req.ReceivedAt
	}

	payment, err := h.svc.RegisterPayment(c.Request().Context(), id, req.Amount, req.Method, req.Reference, receivedAt)
	if err != nil {
		return h.mapError(err)
	}
	return c.JSON(http.StatusCreated, payment)
}

func (h *Handler) listPayments(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid invoice id")
	}

	payments, err := h.svc.ListPayments(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if payments == nil {
		payments = []*Payment{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":  payments,
		"total": len(payments),
	})
}

func (h *Handler) mapError(err error) error {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, verr.Msg)
	case errors.Is(err, pgx.ErrNoRows):
		return echo.NewHTTPError(http.StatusNotFound, "invoice not found")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
