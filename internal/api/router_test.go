package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/greenviewsolutions/portal/internal/api/handler"
	"github.com/greenviewsolutions/portal/internal/core/domain"
	"github.com/greenviewsolutions/portal/internal/core/ports"
)

// sessionAuth serves CurrentSession from a fixed table; other methods are
// left to the embedded nil interface.
type sessionAuth struct {
	ports.AuthService
	sessions map[string]*domain.Session
}

func (s *sessionAuth) CurrentSession(ctx context.Context, id string) (*domain.Session, bool, error) {
	if id == "store-down" {
		return nil, false, domain.NewBackendError(errors.New("redis: connection refused"))
	}
	sess, ok := s.sessions[id]
	return sess, ok, nil
}

type listCustomers struct {
	ports.CustomerService
}

func (listCustomers) ListCustomers(ctx context.Context) ([]*domain.CustomerProfile, error) {
	return []*domain.CustomerProfile{}, nil
}

// testRouter is built once: echoprometheus registers its collectors on the
// default registry.
var testRouter = sync.OnceValue(func() http.Handler {
	auth := &sessionAuth{sessions: map[string]*domain.Session{
		"emp":  {ID: "emp", Role: domain.RoleEmployee, Account: domain.Account{ID: "u1", Email: "crew@gvsco.net"}},
		"cust": {ID: "cust", Role: domain.RoleCustomer, Account: domain.Account{ID: "u2", Email: "c@example.com"}},
	}}
	return NewRouter(Services{Auth: auth, Customers: listCustomers{}}, Options{
		HealthChecks: map[string]handler.Check{},
	}, zerolog.Nop())
})

func TestRouter_Access(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		path     string
		session  string
		code     int
		location string
	}{
		{"liveness is public", http.MethodGet, "/health", "", http.StatusOK, ""},
		{"anonymous dashboard goes to sign-in", http.MethodGet, "/employee-dashboard", "", http.StatusFound, domain.PathLogin},
		{"customer on staff dashboard goes home", http.MethodGet, "/employee-dashboard", "cust", http.StatusFound, domain.PathCustomerDashboard},
		{"employee sees staff dashboard", http.MethodGet, "/employee-dashboard", "emp", http.StatusOK, ""},
		{"anonymous staff api is 401", http.MethodGet, "/api/staff/customers", "", http.StatusUnauthorized, ""},
		{"customer on staff api is 403", http.MethodGet, "/api/staff/customers", "cust", http.StatusForbidden, ""},
		{"employee lists customers", http.MethodGet, "/api/staff/customers", "emp", http.StatusOK, ""},
		{"employee on customer api is 403", http.MethodGet, "/api/customer/profile", "emp", http.StatusForbidden, ""},
		{"unknown session is anonymous", http.MethodGet, "/api/staff/customers", "stale", http.StatusUnauthorized, ""},
		{"liveness survives a session store outage", http.MethodGet, "/health", "store-down", http.StatusOK, ""},
		{"readiness survives a session store outage", http.MethodGet, "/health/ready", "store-down", http.StatusOK, ""},
		{"staff api reports a session store outage", http.MethodGet, "/api/staff/customers", "store-down", http.StatusBadGateway, ""},
		{"dashboard reports a session store outage", http.MethodGet, "/employee-dashboard", "store-down", http.StatusBadGateway, ""},
	}

	router := testRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.session != "" {
				req.AddCookie(&http.Cookie{Name: "portal_session", Value: tt.session})
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d: %s", tt.code, rec.Code, rec.Body.String())
			}
			if tt.location != "" && rec.Header().Get("Location") != tt.location {
				t.Fatalf("expected redirect to %s, got %q", tt.location, rec.Header().Get("Location"))
			}
		})
	}
}

func TestRouter_ErrorEnvelope(t *testing.T) {
	router := testRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/staff/customers", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if !strings.Contains(rec.Body.String(), `"error":"`+domain.MsgNoSession+`"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}
