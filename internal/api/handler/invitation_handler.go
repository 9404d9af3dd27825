package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/greenviewsolutions/portal/internal/api/metrics"
	"github.com/greenviewsolutions/portal/internal/core/ports"
)

// InvitationHandler lets staff invite customers.
type InvitationHandler struct {
	invitations ports.InvitationService
}

func NewInvitationHandler(invitations ports.InvitationService) *InvitationHandler {
	return &InvitationHandler{invitations: invitations}
}

// Invite handles POST /api/staff/invitations.
//
// @Summary      Invite a customer
// @Tags         staff
// @Accept       json
// @Produce      json
// @Security     SessionAuth
// @Param        body  body      inviteRequest  true  "Customer to invite"
// @Success      200   {object}  inviteResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      502   {object}  errorResponse
// @Router       /api/staff/invitations [post]
func (h *InvitationHandler) Invite(c echo.Context) error {
	var req inviteRequest
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

	out, err := h.invitations.Dispatch(c.Request().Context(), ports.InviteInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		InvitedBy: session.Account.ID,
	})
	if err != nil {
		metrics.InvitationsTotal.WithLabelValues(metrics.Result(err)).Inc()
		return err
	}
	metrics.InvitationsTotal.WithLabelValues(string(out.Status)).Inc()
	return c.JSON(http.StatusOK, toInviteResponse(out))
}

func toInviteResponse(out *ports.InviteOutcome) inviteResponse {
	resp := inviteResponse{
		Status:     string(out.Status),
		AccountID:  out.AccountID,
		ActionLink: out.ActionLink,
	}
	switch out.Status {
	case ports.InviteAlreadyHasAccount:
		resp.Message = "Customer already has an account"
	default:
		resp.Message = "Invitation sent successfully"
	}
	if out.Invitation != nil {
		resp.InvitationID = out.Invitation.ID
	}
	return resp
}
