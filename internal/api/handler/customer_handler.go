package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/greenviewsolutions/portal/internal/core/domain"
	"github.com/greenviewsolutions/portal/internal/core/ports"
)

// CustomerHandler serves customer records to both dashboards.
type CustomerHandler struct {
	customers ports.CustomerService
}

func NewCustomerHandler(customers ports.CustomerService) *CustomerHandler {
	return &CustomerHandler{customers: customers}
}

// Dashboard handles GET /customer-dashboard.
//
// @Summary      Customer dashboard
// @Description  Creates the customer profile on first visit.
// @Tags         customer
// @Produce      json
// @Security     SessionAuth
// @Success      200  {object}  customerDashboardResponse
// @Failure      302  "Redirect to sign-in or to the caller's own dashboard"
// @Failure      502  {object}  errorResponse
// @Router       /customer-dashboard [get]
func (h *CustomerHandler) Dashboard(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}
	d, err := h.customers.Dashboard(c.Request().Context(), session.Account)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, customerDashboardResponse{
		Profile:        d.Profile,
		Services:       toServiceResponses(d.Services),
		UpcomingCount:  d.UpcomingCount,
		CompletedCount: d.CompletedCount,
		Warranty:       d.Warranty,
	})
}

// Profile handles GET /api/customer/profile.
//
// @Summary      Current customer's profile
// @Tags         customer
// @Produce      json
// @Security     SessionAuth
// @Success      200  {object}  domain.CustomerProfile
// @Failure      401  {object}  errorResponse
// @Failure      502  {object}  errorResponse
// @Router       /api/customer/profile [get]
func (h *CustomerHandler) Profile(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}
	p, err := h.customers.EnsureProfile(c.Request().Context(), session.Account)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// Warranty handles GET /api/customer/warranty.
//
// @Summary      Current customer's warranty summary
// @Tags         customer
// @Produce      json
// @Security     SessionAuth
// @Success      200  {object}  domain.WarrantySummary
// @Failure      401  {object}  errorResponse
// @Router       /api/customer/warranty [get]
func (h *CustomerHandler) Warranty(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}
	p, err := h.customers.EnsureProfile(c.Request().Context(), session.Account)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, domain.WarrantyFor(*p))
}

// WarrantyDocument handles GET /api/customer/warranty/document.
//
// @Summary      Download the warranty agreement
// @Tags         customer
// @Produce      plain
// @Security     SessionAuth
// @Success      200  {string}  string
// @Failure      401  {object}  errorResponse
// @Router       /api/customer/warranty/document [get]
func (h *CustomerHandler) WarrantyDocument(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}
	name, body, err := h.customers.WarrantyDocument(c.Request().Context(), session.Account)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	return c.Blob(http.StatusOK, echo.MIMETextPlainCharsetUTF8, body)
}

// EmployeeDashboard handles GET /employee-dashboard.
//
// @Summary      Employee dashboard
// @Tags         staff
// @Produce      json
// @Security     SessionAuth
// @Success      200  {object}  employeeDashboardResponse
// @Failure      302  "Redirect to sign-in or to the caller's own dashboard"
// @Router       /employee-dashboard [get]
func (h *CustomerHandler) EmployeeDashboard(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}
	list, err := h.customers.ListCustomers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, employeeDashboardResponse{
		Employee:  session.Account.Email,
		Customers: list,
		Total:     len(list),
	})
}

// List handles GET /api/staff/customers.
//
// @Summary      List customers, newest first
// @Tags         staff
// @Produce      json
// @Security     SessionAuth
// @Success      200  {array}   domain.CustomerProfile
// @Failure      403  {object}  errorResponse
// @Router       /api/staff/customers [get]
func (h *CustomerHandler) List(c echo.Context) error {
	list, err := h.customers.ListCustomers(c.Request().Context())
	if err != nil {
		return err
	}
	c.Response().Header().Set("X-Total-Count", strconv.Itoa(len(list)))
	return c.JSON(http.StatusOK, list)
}

// Create handles POST /api/staff/customers. The record is kept when the
// invitation fails; the response then carries a warning.
//
// @Summary      Create a customer record and invite the customer
// @Tags         staff
// @Accept       json
// @Produce      json
// @Security     SessionAuth
// @Param        body  body      customerRequest  true  "Customer record"
// @Success      201   {object}  createCustomerResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      502   {object}  errorResponse
// @Router       /api/staff/customers [post]
func (h *CustomerHandler) Create(c echo.Context) error {
	var req customerRequest
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

	in := ports.CustomerInput{
		Email:          req.Email,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		PhoneNumbers:   req.PhoneNumbers,
		Address:        req.Address,
		FenceType:      req.FenceType,
		FenceLength:    req.FenceLength,
		Gates:          req.Gates,
		Color:          req.Color,
		WarrantyStatus: req.WarrantyStatus,
		Notes:          req.Notes,
		CreatedBy:      session.Account.ID,
	}
	if in.InstallDate, err = parseDate(req.InstallDate); err != nil {
		return err
	}
	if in.WarrantyIssueDate, err = parseDate(req.WarrantyIssueDate); err != nil {
		return err
	}
	if in.NextReviewDate, err = parseDate(req.NextReviewDate); err != nil {
		return err
	}

	res, err := h.customers.CreateCustomer(c.Request().Context(), in)
	if err != nil {
		if res == nil || res.Profile == nil {
			return err
		}
		return c.JSON(http.StatusCreated, createCustomerResponse{Customer: res.Profile, Warning: err.Error()})
	}

	out := createCustomerResponse{Customer: res.Profile}
	if res.Invite != nil {
		invite := toInviteResponse(res.Invite)
		out.Invite = &invite
	}
	return c.JSON(http.StatusCreated, out)
}

// Get handles GET /api/staff/customers/:id.
//
// @Summary      Get a customer record
// @Tags         staff
// @Produce      json
// @Security     SessionAuth
// @Param        id   path      string  true  "Customer id"
// @Success      200  {object}  domain.CustomerProfile
// @Failure      404  {object}  errorResponse
// @Router       /api/staff/customers/{id} [get]
func (h *CustomerHandler) Get(c echo.Context) error {
	p, err := h.customers.GetCustomer(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// Update handles PATCH /api/staff/customers/:id.
//
// @Summary      Update a customer record
// @Tags         staff
// @Accept       json
// @Produce      json
// @Security     SessionAuth
// @Param        id    path      string                true  "Customer id"
// @Param        body  body      customerPatchRequest  true  "Fields to change"
// @Success      200   {object}  domain.CustomerProfile
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/staff/customers/{id} [patch]
func (h *CustomerHandler) Update(c echo.Context) error {
	var req customerPatchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	patch := ports.CustomerPatch{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		PhoneNumbers:   req.PhoneNumbers,
		Address:        req.Address,
		FenceType:      req.FenceType,
		FenceLength:    req.FenceLength,
		Gates:          req.Gates,
		Color:          req.Color,
		WarrantyStatus: req.WarrantyStatus,
		Notes:          req.Notes,
	}
	var err error
	if patch.InstallDate, err = parseDate(req.InstallDate); err != nil {
		return err
	}
	if patch.WarrantyIssueDate, err = parseDate(req.WarrantyIssueDate); err != nil {
		return err
	}
	if patch.NextReviewDate, err = parseDate(req.NextReviewDate); err != nil {
		return err
	}

	p, err := h.customers.UpdateCustomer(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}
