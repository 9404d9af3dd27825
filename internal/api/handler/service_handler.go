package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/greenviewsolutions/portal/internal/api/metrics"
	"github.com/greenviewsolutions/portal/internal/core/domain"
	"github.com/greenviewsolutions/portal/internal/core/ports"
)

// ServiceHandler lets customers book and manage maintenance visits.
type ServiceHandler struct {
	services ports.ServiceRequestService
}

func NewServiceHandler(services ports.ServiceRequestService) *ServiceHandler {
	return &ServiceHandler{services: services}
}

// List handles GET /api/customer/services.
//
// @Summary      List the customer's service requests
// @Tags         customer
// @Produce      json
// @Security     SessionAuth
// @Param        status  query     string  false  "upcoming, completed or cancelled"
// @Success      200     {array}   serviceRequestResponse
// @Failure      400     {object}  errorResponse
// @Router       /api/customer/services [get]
func (h *ServiceHandler) List(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}
	list, err := h.services.List(c.Request().Context(), session.Account, c.QueryParam("status"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toServiceResponses(list))
}

// Schedule handles POST /api/customer/services.
//
// @Summary      Schedule a service visit
// @Tags         customer
// @Accept       json
// @Produce      json
// @Security     SessionAuth
// @Param        body  body      scheduleRequest  true  "Visit"
// @Success      201   {object}  serviceRequestResponse
// @Failure      400   {object}  errorResponse
// @Router       /api/customer/services [post]
func (h *ServiceHandler) Schedule(c echo.Context) error {
	var req scheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	session, err := ctxSession(c)
	if err != nil {
		return err
	}
	date, err := time.Parse(time.DateOnly, req.ScheduledDate)
	if err != nil {
		return domain.NewValidationError("scheduled_date must be a date in YYYY-MM-DD format")
	}

	sr, err := h.services.Schedule(c.Request().Context(), session.Account, ports.ScheduleInput{
		ServiceType:   req.ServiceType,
		ScheduledDate: date,
		PreferredTime: req.PreferredTime,
	})
	metrics.ServiceRequestsTotal.WithLabelValues("schedule", metrics.Result(err)).Inc()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toServiceResponse(sr))
}

// Reschedule handles PATCH /api/customer/services/:id.
//
// @Summary      Reschedule an upcoming visit
// @Tags         customer
// @Accept       json
// @Produce      json
// @Security     SessionAuth
// @Param        id    path      string             true  "Service request id"
// @Param        body  body      rescheduleRequest  true  "New date and time"
// @Success      200   {object}  serviceRequestResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/customer/services/{id} [patch]
func (h *ServiceHandler) Reschedule(c echo.Context) error {
	var req rescheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	session, err := ctxSession(c)
	if err != nil {
		return err
	}
	date, err := time.Parse(time.DateOnly, req.ScheduledDate)
	if err != nil {
		return domain.NewValidationError("scheduled_date must be a date in YYYY-MM-DD format")
	}

	sr, err := h.services.Reschedule(c.Request().Context(), session.Account, c.Param("id"), ports.RescheduleInput{
		ScheduledDate: date,
		PreferredTime: req.PreferredTime,
	})
	metrics.ServiceRequestsTotal.WithLabelValues("reschedule", metrics.Result(err)).Inc()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toServiceResponse(sr))
}

// Cancel handles POST /api/customer/services/:id/cancel.
//
// @Summary      Cancel an upcoming visit
// @Tags         customer
// @Produce      json
// @Security     SessionAuth
// @Param        id   path      string  true  "Service request id"
// @Success      200  {object}  serviceRequestResponse
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/customer/services/{id}/cancel [post]
func (h *ServiceHandler) Cancel(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}
	sr, err := h.services.Cancel(c.Request().Context(), session.Account, c.Param("id"))
	metrics.ServiceRequestsTotal.WithLabelValues("cancel", metrics.Result(err)).Inc()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toServiceResponse(sr))
}

func toServiceResponse(sr *domain.ServiceRequest) serviceRequestResponse {
	return serviceRequestResponse{
		ID:            sr.ID,
		CustomerID:    sr.CustomerID,
		ServiceType:   sr.ServiceType,
		ScheduledDate: sr.ScheduledDate.Format(time.DateOnly),
		PreferredTime: sr.PreferredTime,
		TimeLabel:     sr.PreferredTime.Label(),
		Status:        sr.Status,
		CreatedAt:     sr.CreatedAt,
	}
}

func toServiceResponses(list []*domain.ServiceRequest) []serviceRequestResponse {
	out := make([]serviceRequestResponse, 0, len(list))
	for _, sr := range list {
		out = append(out, toServiceResponse(sr))
	}
	return out
}
