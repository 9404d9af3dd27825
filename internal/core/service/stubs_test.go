package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/greenviewsolutions/portal/internal/core/domain"
	"github.com/greenviewsolutions/portal/internal/core/ports"
)

// -----------------------------------------------------------------------------
// Identity store
// -----------------------------------------------------------------------------

type stubIdentity struct {
	mu    sync.Mutex
	calls map[string]int

	signUpFn          func(email, password string, meta map[string]string) (*domain.Account, error)
	signInFn          func(email, password string) (*domain.AuthGrant, error)
	setSessionFn      func(tokens domain.Tokens) (*domain.AuthGrant, error)
	getUserFn         func(accessToken string) (*domain.Account, error)
	resolveFragmentFn func(fragment string) (*domain.AuthGrant, bool, error)
	updatePasswordFn  func(accessToken, password string) (*domain.Account, error)
	inviteFn          func(email, redirectTo string, meta map[string]string) (*ports.InviteResult, error)
	sendLinkFn        func(email, redirectTo string) error
	users             []domain.Account
}

func newStubIdentity() *stubIdentity {
	return &stubIdentity{calls: make(map[string]int)}
}

func (s *stubIdentity) record(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[op]++
}

func (s *stubIdentity) count(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *stubIdentity) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

func (s *stubIdentity) SignUp(_ context.Context, email, password string, meta map[string]string) (*domain.Account, error) {
	s.record("SignUp")
	if s.signUpFn != nil {
		return s.signUpFn(email, password, meta)
	}
	return &domain.Account{ID: "acct-" + email, Email: email, Metadata: meta, CreatedAt: time.Now().UTC()}, nil
}

func (s *stubIdentity) SignIn(_ context.Context, email, password string) (*domain.AuthGrant, error) {
	s.record("SignIn")
	if s.signInFn != nil {
		return s.signInFn(email, password)
	}
	return nil, domain.NewAuthenticationError("Invalid login credentials")
}

func (s *stubIdentity) SignOut(context.Context, string) error {
	s.record("SignOut")
	return nil
}

func (s *stubIdentity) SendMagicLink(_ context.Context, email, redirectTo string) error {
	s.record("SendMagicLink")
	if s.sendLinkFn != nil {
		return s.sendLinkFn(email, redirectTo)
	}
	return nil
}

func (s *stubIdentity) SetSession(_ context.Context, tokens domain.Tokens) (*domain.AuthGrant, error) {
	s.record("SetSession")
	if s.setSessionFn != nil {
		return s.setSessionFn(tokens)
	}
	return nil, domain.NewAuthenticationError("invalid token")
}

func (s *stubIdentity) GetUser(_ context.Context, accessToken string) (*domain.Account, error) {
	s.record("GetUser")
	if s.getUserFn != nil {
		return s.getUserFn(accessToken)
	}
	return nil, domain.NewAuthenticationError("invalid token")
}

func (s *stubIdentity) ResolveFragment(_ context.Context, fragment string) (*domain.AuthGrant, bool, error) {
	s.record("ResolveFragment")
	if s.resolveFragmentFn != nil {
		return s.resolveFragmentFn(fragment)
	}
	return nil, false, nil
}

func (s *stubIdentity) UpdatePassword(_ context.Context, accessToken, password string) (*domain.Account, error) {
	s.record("UpdatePassword")
	if s.updatePasswordFn != nil {
		return s.updatePasswordFn(accessToken, password)
	}
	return &domain.Account{ID: "acct", HasPassword: true}, nil
}

func (s *stubIdentity) InviteByEmail(_ context.Context, email, redirectTo string, meta map[string]string) (*ports.InviteResult, error) {
	s.record("InviteByEmail")
	if s.inviteFn != nil {
		return s.inviteFn(email, redirectTo, meta)
	}
	return &ports.InviteResult{
		Account:    domain.Account{ID: "acct-" + email, Email: email, Metadata: meta},
		ActionLink: "https://id.example.com/verify?token=abc&redirect_to=" + redirectTo,
	}, nil
}

func (s *stubIdentity) ListUsers(context.Context) ([]domain.Account, error) {
	s.record("ListUsers")
	return s.users, nil
}

// -----------------------------------------------------------------------------
// Customer directory
// -----------------------------------------------------------------------------

type stubDirectory struct {
	mu          sync.Mutex
	profiles    []*domain.CustomerProfile
	seq         int
	findErr     error
	// afterLookup runs whenever an email lookup misses.
	afterLookup func()
}

func newStubDirectory(profiles ...*domain.CustomerProfile) *stubDirectory {
	return &stubDirectory{profiles: profiles}
}

func cloneProfile(p *domain.CustomerProfile) *domain.CustomerProfile {
	c := *p
	return &c
}

func (d *stubDirectory) find(match func(p *domain.CustomerProfile) bool) (*domain.CustomerProfile, bool, error) {
	d.mu.Lock()
	if d.findErr != nil {
		d.mu.Unlock()
		return nil, false, d.findErr
	}
	var found *domain.CustomerProfile
	for _, p := range d.profiles {
		if match(p) {
			found = cloneProfile(p)
			break
		}
	}
	d.mu.Unlock()
	if found == nil {
		return nil, false, nil
	}
	return found, true, nil
}

func (d *stubDirectory) FindByEmail(_ context.Context, email string) (*domain.CustomerProfile, bool, error) {
	p, ok, err := d.find(func(p *domain.CustomerProfile) bool { return p.Email == domain.NormalizeEmail(email) })
	if d.afterLookup != nil && !ok && err == nil {
		d.afterLookup()
	}
	return p, ok, err
}

func (d *stubDirectory) FindByUserID(_ context.Context, userID string) (*domain.CustomerProfile, bool, error) {
	return d.find(func(p *domain.CustomerProfile) bool { return p.LinkedTo(userID) })
}

func (d *stubDirectory) FindByID(_ context.Context, id string) (*domain.CustomerProfile, bool, error) {
	return d.find(func(p *domain.CustomerProfile) bool { return p.ID == id })
}

func (d *stubDirectory) List(context.Context) ([]*domain.CustomerProfile, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*domain.CustomerProfile, 0, len(d.profiles))
	for _, p := range d.profiles {
		out = append(out, cloneProfile(p))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (d *stubDirectory) Insert(_ context.Context, p *domain.CustomerProfile) (*domain.CustomerProfile, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	c := cloneProfile(p)
	c.ID = fmt.Sprintf("cust-%d", d.seq)
	d.profiles = append(d.profiles, c)
	return cloneProfile(c), nil
}

func (d *stubDirectory) Update(_ context.Context, p *domain.CustomerProfile) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, existing := range d.profiles {
		if existing.ID == p.ID {
			d.profiles[i] = cloneProfile(p)
			return nil
		}
	}
	return fmt.Errorf("no customer %s", p.ID)
}

func (d *stubDirectory) countByEmail(email string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, p := range d.profiles {
		if p.Email == email {
			n++
		}
	}
	return n
}

// -----------------------------------------------------------------------------
// Invitation ledger
// -----------------------------------------------------------------------------

type stubLedger struct {
	rows      []*domain.Invitation
	insertErr error
}

func (l *stubLedger) Insert(_ context.Context, inv *domain.Invitation) error {
	if l.insertErr != nil {
		return l.insertErr
	}
	c := *inv
	c.ID = fmt.Sprintf("inv-%d", len(l.rows)+1)
	inv.ID = c.ID
	l.rows = append(l.rows, &c)
	return nil
}

func (l *stubLedger) FindPendingByEmail(_ context.Context, email string) (*domain.Invitation, bool, error) {
	for _, r := range l.rows {
		if r.Email == email && r.Status == domain.InvitationPending {
			c := *r
			return &c, true, nil
		}
	}
	return nil, false, nil
}

func (l *stubLedger) pending(email string) int {
	n := 0
	for _, r := range l.rows {
		if r.Email == email && r.Status == domain.InvitationPending {
			n++
		}
	}
	return n
}

// -----------------------------------------------------------------------------
// Session and pending-setup stores
// -----------------------------------------------------------------------------

type stubSessions struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
}

func newStubSessions(existing ...*domain.Session) *stubSessions {
	s := &stubSessions{sessions: make(map[string]*domain.Session)}
	for _, e := range existing {
		s.sessions[e.ID] = e
	}
	return s
}

func (s *stubSessions) Save(_ context.Context, sess *domain.Session, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *sess
	s.sessions[sess.ID] = &c
	return nil
}

func (s *stubSessions) Get(_ context.Context, id string) (*domain.Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false, nil
	}
	c := *sess
	return &c, true, nil
}

func (s *stubSessions) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

type stubSetups struct {
	records map[string]domain.PendingSetup
	saves   int
}

func newStubSetups() *stubSetups {
	return &stubSetups{records: make(map[string]domain.PendingSetup)}
}

func (s *stubSetups) Save(_ context.Context, p domain.PendingSetup) error {
	s.saves++
	s.records[p.SessionID] = p
	return nil
}

func (s *stubSetups) Get(_ context.Context, id string) (*domain.PendingSetup, bool, error) {
	p, ok := s.records[id]
	if !ok {
		return nil, false, nil
	}
	return &p, true, nil
}

func (s *stubSetups) Delete(_ context.Context, id string) error {
	delete(s.records, id)
	return nil
}

// -----------------------------------------------------------------------------
// Service requests
// -----------------------------------------------------------------------------

type stubRequests struct {
	rows []*domain.ServiceRequest
}

func (r *stubRequests) Insert(_ context.Context, req *domain.ServiceRequest) (*domain.ServiceRequest, error) {
	c := *req
	c.ID = fmt.Sprintf("svc-%d", len(r.rows)+1)
	r.rows = append(r.rows, &c)
	out := c
	return &out, nil
}

func (r *stubRequests) FindByID(_ context.Context, id string) (*domain.ServiceRequest, bool, error) {
	for _, row := range r.rows {
		if row.ID == id {
			c := *row
			return &c, true, nil
		}
	}
	return nil, false, nil
}

func (r *stubRequests) ListByCustomer(_ context.Context, customerID string, status domain.ServiceStatus) ([]*domain.ServiceRequest, error) {
	out := []*domain.ServiceRequest{}
	for _, row := range r.rows {
		if row.CustomerID == customerID && (status == "" || row.Status == status) {
			c := *row
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ScheduledDate.Before(out[j].ScheduledDate) })
	return out, nil
}

func (r *stubRequests) Update(_ context.Context, req *domain.ServiceRequest) error {
	for i, row := range r.rows {
		if row.ID == req.ID {
			c := *req
			r.rows[i] = &c
			return nil
		}
	}
	return fmt.Errorf("no service %s", req.ID)
}

// -----------------------------------------------------------------------------
// Fixtures
// -----------------------------------------------------------------------------

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func firstLoginAccount(id, email string) domain.Account {
	return domain.Account{ID: id, Email: email, CreatedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
}

func returningAccount(id, email string) domain.Account {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	return domain.Account{ID: id, Email: email, CreatedAt: created, LastSignInAt: timePtr(created.Add(48 * time.Hour)), HasPassword: true}
}

func grantFor(a domain.Account) *domain.AuthGrant {
	return &domain.AuthGrant{
		Tokens:  domain.Tokens{AccessToken: "access-" + a.ID, RefreshToken: "refresh-" + a.ID, ExpiresAt: time.Now().Add(time.Hour)},
		Account: a,
	}
}
