package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/greenviewsolutions/portal/internal/core/domain"
)

func TestHTTPErrorHandler(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"validation", domain.NewValidationError(domain.MsgPasswordsMismatch), http.StatusBadRequest, domain.MsgPasswordsMismatch},
		{"eligibility", domain.NewEligibilityError(domain.MsgNotInvited), http.StatusForbidden, domain.MsgNotInvited},
		{"authentication", domain.NewAuthenticationError("Invalid login credentials"), http.StatusUnauthorized, "Invalid login credentials"},
		{"dispatch", domain.NewInvitationDispatchError(errors.New("rate limited")), http.StatusBadGateway, "rate limited"},
		{"backend", domain.NewBackendError(errors.New("upstream timeout")), http.StatusBadGateway, "upstream timeout"},
		{"link expired", domain.NewLinkExpiredError(domain.MsgLinkExpired), http.StatusGone, domain.MsgLinkExpired},
		{"not found wrapped", fmt.Errorf("get customer: %w", domain.ErrNotFound), http.StatusNotFound, "not_found"},
		{"account exists", domain.ErrAccountExists, http.StatusConflict, domain.ErrAccountExists.Error()},
		{"echo error", echo.NewHTTPError(http.StatusBadRequest, "invalid payload"), http.StatusBadRequest, "invalid payload"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal server error"},
	}

	h := NewHTTPErrorHandler(zerolog.Nop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			h(tt.err, c)

			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, rec.Code)
			}
			var body errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if body.Error != tt.msg {
				t.Fatalf("expected %q, got %q", tt.msg, body.Error)
			}
		})
	}
}
