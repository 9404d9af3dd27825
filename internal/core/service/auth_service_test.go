package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/greenviewsolutions/portal/internal/core/domain"
	"github.com/greenviewsolutions/portal/internal/core/ports"
)

type authFixture struct {
	svc      *AuthService
	identity *stubIdentity
	dir      *stubDirectory
	ledger   *stubLedger
	sessions *stubSessions
	setups   *stubSetups
}

func newAuthFixture(devMode bool) *authFixture {
	f := &authFixture{
		identity: newStubIdentity(),
		dir:      newStubDirectory(),
		ledger:   &stubLedger{},
		sessions: newStubSessions(),
		setups:   newStubSetups(),
	}
	f.svc = NewAuthService(f.identity, f.dir, f.ledger, f.sessions, f.setups, AuthOptions{
		PublicURL:  "https://portal.example.com",
		SessionTTL: time.Hour,
		DevMode:    devMode,
	}, zerolog.Nop())
	f.svc.newID = func() string { return "sess-1" }
	return f
}

func TestAuthService_SignUp_Employee_Success(t *testing.T) {
	f := newAuthFixture(false)
	var gotMeta map[string]string
	f.identity.signUpFn = func(email, password string, meta map[string]string) (*domain.Account, error) {
		gotMeta = meta
		return &domain.Account{ID: "u-1", Email: email}, nil
	}

	res, err := f.svc.SignUp(context.Background(), ports.SignUpInput{Email: "alice@gvsco.net", Password: "anything", Kind: domain.RoleEmployee})
	if err != nil {
		t.Fatalf("SignUp returned error: %v", err)
	}
	if res.Notice != domain.MsgCheckEmail {
		t.Fatalf("unexpected notice %q", res.Notice)
	}
	if gotMeta["role"] != "employee" {
		t.Fatalf("expected employee role metadata, got %+v", gotMeta)
	}
	if len(f.sessions.sessions) != 0 {
		t.Fatalf("expected no session after sign-up")
	}
}

func TestAuthService_SignUp_Employee_WrongDomain_NoCalls(t *testing.T) {
	emails := []string{
		"alice@example.com",
		"alice@gvsco.net.evil.com",
		"alice@notgvsco.net",
		"alice@greenviewsolutions.com",
		"gvsco.net",
	}
	for _, email := range emails {
		f := newAuthFixture(true)
		_, err := f.svc.SignUp(context.Background(), ports.SignUpInput{Email: email, Password: "pw", Kind: domain.RoleEmployee})
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("%s: expected validation error, got %v", email, err)
		}
		if err.Error() != domain.MsgEmployeeDomain {
			t.Fatalf("%s: unexpected message %q", email, err.Error())
		}
		if f.identity.total() != 0 {
			t.Fatalf("%s: expected 0 identity calls, got %d", email, f.identity.total())
		}
	}
}

func TestAuthService_SignUp_Customer_Eligibility(t *testing.T) {
	t.Run("pending invitation", func(t *testing.T) {
		f := newAuthFixture(false)
		f.ledger.rows = append(f.ledger.rows, &domain.Invitation{Email: "c@example.com", Status: domain.InvitationPending})
		if _, err := f.svc.SignUp(context.Background(), ports.SignUpInput{Email: "c@example.com", Password: "pw", Kind: domain.RoleCustomer}); err != nil {
			t.Fatalf("expected eligible, got %v", err)
		}
	})

	t.Run("existing profile", func(t *testing.T) {
		f := newAuthFixture(false)
		f.dir.profiles = append(f.dir.profiles, &domain.CustomerProfile{ID: "cust-1", Email: "c@example.com"})
		if _, err := f.svc.SignUp(context.Background(), ports.SignUpInput{Email: "C@example.com", Password: "pw", Kind: domain.RoleCustomer}); err != nil {
			t.Fatalf("expected eligible, got %v", err)
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		f := newAuthFixture(false)
		_, err := f.svc.SignUp(context.Background(), ports.SignUpInput{Email: "stranger@example.com", Password: "pw", Kind: domain.RoleCustomer})
		if !errors.Is(err, domain.ErrEligibility) {
			t.Fatalf("expected eligibility error, got %v", err)
		}
		if f.identity.count("SignUp") != 0 {
			t.Fatalf("expected no sign-up call")
		}
	})

	t.Run("test address outside dev mode", func(t *testing.T) {
		f := newAuthFixture(false)
		_, err := f.svc.SignUp(context.Background(), ports.SignUpInput{Email: DevTestEmail, Password: "pw", Kind: domain.RoleCustomer})
		if !errors.Is(err, domain.ErrEligibility) {
			t.Fatalf("expected eligibility error, got %v", err)
		}
	})

	t.Run("dev mode escape hatch", func(t *testing.T) {
		for _, email := range []string{DevTestEmail, "staff@greenviewsolutions.net"} {
			f := newAuthFixture(true)
			if _, err := f.svc.SignUp(context.Background(), ports.SignUpInput{Email: email, Password: "pw", Kind: domain.RoleCustomer}); err != nil {
				t.Fatalf("%s: expected eligible in dev mode, got %v", email, err)
			}
		}
	})
}

func TestAuthService_SignUp_IdentityError_Verbatim(t *testing.T) {
	f := newAuthFixture(false)
	f.identity.signUpFn = func(string, string, map[string]string) (*domain.Account, error) {
		return nil, errors.New("User already registered")
	}

	_, err := f.svc.SignUp(context.Background(), ports.SignUpInput{Email: "bob@gvsco.net", Password: "pw", Kind: domain.RoleEmployee})
	if !errors.Is(err, domain.ErrBackend) || err.Error() != "User already registered" {
		t.Fatalf("expected verbatim backend error, got %v", err)
	}
}

func TestAuthService_SignIn_RoutesByRole(t *testing.T) {
	cases := map[string]string{
		"c@example.com":                domain.PathCustomerDashboard,
		"alice@greenviewsolutions.net": domain.PathEmployeeDashboard,
		"Bob@GVSCO.NET":                domain.PathEmployeeDashboard,
	}
	for email, want := range cases {
		f := newAuthFixture(false)
		f.identity.signInFn = func(e, password string) (*domain.AuthGrant, error) {
			return grantFor(returningAccount("u-1", e)), nil
		}

		res, err := f.svc.SignIn(context.Background(), email, "pw")
		if err != nil {
			t.Fatalf("%s: SignIn returned error: %v", email, err)
		}
		if res.Redirect != want {
			t.Fatalf("%s: expected %s, got %s", email, want, res.Redirect)
		}
		if _, ok := f.sessions.sessions["sess-1"]; !ok {
			t.Fatalf("%s: expected session stored", email)
		}
	}
}

func TestAuthService_SignIn_InvalidCredentials(t *testing.T) {
	f := newAuthFixture(false)
	_, err := f.svc.SignIn(context.Background(), "c@example.com", "wrong")
	if !errors.Is(err, domain.ErrAuthentication) {
		t.Fatalf("expected authentication error, got %v", err)
	}
	if len(f.sessions.sessions) != 0 {
		t.Fatalf("expected no session")
	}
}

func TestAuthService_SignIn_Validation(t *testing.T) {
	f := newAuthFixture(false)
	if _, err := f.svc.SignIn(context.Background(), "", "pw"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if f.identity.total() != 0 {
		t.Fatalf("expected no identity calls")
	}
}

func TestAuthService_SignOut_ClearsSessionAndSetup(t *testing.T) {
	f := newAuthFixture(false)
	s := domain.NewSession("sess-9", domain.Tokens{AccessToken: "at"}, firstLoginAccount("u-1", "c@example.com"))
	_ = f.sessions.Save(context.Background(), s, time.Hour)
	_ = f.setups.Save(context.Background(), domain.PendingSetup{SessionID: "sess-9", Destination: domain.PathCustomerDashboard})

	if err := f.svc.SignOut(context.Background(), "sess-9"); err != nil {
		t.Fatalf("SignOut returned error: %v", err)
	}
	if _, ok := f.sessions.sessions["sess-9"]; ok {
		t.Fatalf("expected session removed")
	}
	if _, ok := f.setups.records["sess-9"]; ok {
		t.Fatalf("expected pending setup removed")
	}
	if f.identity.count("SignOut") != 1 {
		t.Fatalf("expected identity sign-out")
	}
}

func TestAuthService_RequestMagicLink(t *testing.T) {
	t.Run("known customer", func(t *testing.T) {
		f := newAuthFixture(false)
		f.dir.profiles = append(f.dir.profiles, &domain.CustomerProfile{ID: "cust-1", Email: "c@example.com"})
		var gotRedirect string
		f.identity.sendLinkFn = func(email, redirectTo string) error {
			gotRedirect = redirectTo
			return nil
		}
		if err := f.svc.RequestMagicLink(context.Background(), "c@example.com"); err != nil {
			t.Fatalf("RequestMagicLink returned error: %v", err)
		}
		if gotRedirect != "https://portal.example.com/auth/callback" {
			t.Fatalf("unexpected redirect %s", gotRedirect)
		}
	})

	t.Run("pending invitation", func(t *testing.T) {
		f := newAuthFixture(false)
		f.ledger.rows = append(f.ledger.rows, &domain.Invitation{Email: "c@example.com", Status: domain.InvitationPending})
		if err := f.svc.RequestMagicLink(context.Background(), "c@example.com"); err != nil {
			t.Fatalf("RequestMagicLink returned error: %v", err)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		f := newAuthFixture(false)
		err := f.svc.RequestMagicLink(context.Background(), "who@example.com")
		if !errors.Is(err, domain.ErrEligibility) || err.Error() != domain.MsgNotInvited {
			t.Fatalf("expected not-in-system error, got %v", err)
		}
		if f.identity.count("SendMagicLink") != 0 {
			t.Fatalf("expected no link sent")
		}
	})
}
