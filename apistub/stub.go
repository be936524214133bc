// Package apistub is an in-memory stand-in for the inventory REST backend. It
// serves the same endpoints with deliberately thin rules and exposes hooks to
// force token expiry, refresh rejection and role changes.
package apistub

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-inventory-console/inventory"
	"github.com/jrsteele09/go-inventory-console/users"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// DefaultPassword is the password of every seeded account
const DefaultPassword = "Password1"

type Stub struct {
	mu   sync.Mutex
	data *data

	signer     *hmacSigner
	refreshes  *refreshManager
	accessTTL  time.Duration
	now        func() time.Time
	logger     zerolog.Logger
	bcryptCost int

	// access tokens with a generation below minGeneration are rejected
	generation    atomic.Int64
	minGeneration atomic.Int64
	refreshCalls  atomic.Int32

	mux *http.ServeMux
}

type Option func(*Stub)

func WithAccessTTL(d time.Duration) Option {
	return func(s *Stub) {
		s.accessTTL = d
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Stub) {
		s.logger = logger
	}
}

func WithSecret(secret string) Option {
	return func(s *Stub) {
		s.signer = newHMACSigner(secret)
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Stub) {
		s.now = now
	}
}

// WithoutSeed starts with no accounts, offices or items
func WithoutSeed() Option {
	return func(s *Stub) {
		s.data = newData()
	}
}

func New(options ...Option) *Stub {
	s := &Stub{
		signer:     newHMACSigner(uuid.NewString()),
		accessTTL:  5 * time.Minute,
		now:        time.Now,
		logger:     zerolog.Nop(),
		bcryptCost: bcrypt.MinCost,
	}
	s.data = seed(s)
	for _, opt := range options {
		opt(s)
	}
	s.refreshes = newRefreshManager(24*time.Hour, s.now)
	s.mux = http.NewServeMux()
	s.routes()
	return s
}

func (s *Stub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ExpireAccessTokens makes every access token issued so far answer 401
func (s *Stub) ExpireAccessTokens() {
	s.minGeneration.Store(s.generation.Load() + 1)
}

// RevokeRefreshTokens makes every refresh token issued so far answer 401
func (s *Stub) RevokeRefreshTokens() {
	s.refreshes.RevokeAll()
}

// SetRole changes the role of username. Tokens minted afterwards carry it.
func (s *Stub) SetRole(username string, role users.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.data.accountByName(username)
	if a == nil {
		return fmt.Errorf("unknown user %q", username)
	}
	a.Role = role
	return nil
}

// RefreshCalls counts calls to the refresh endpoint
func (s *Stub) RefreshCalls() int {
	return int(s.refreshCalls.Load())
}

// AddUser creates an account with a bcrypt hashed password
func (s *Stub) AddUser(u users.StaffUser, password string) (int, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return 0, fmt.Errorf("hashing password: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data.accountByName(u.Username) != nil {
		return 0, fmt.Errorf("user %q exists", u.Username)
	}
	u.ID = s.data.id()
	s.data.accounts[u.ID] = &account{StaffUser: u, PasswordHash: hash}
	return u.ID, nil
}

func (s *Stub) issueAccess(a *account) (string, error) {
	now := s.now()
	return s.signer.Sign(jwt.MapClaims{
		"token_type": "access",
		"user_id":    a.ID,
		"username":   a.Username,
		"role":       string(a.Role),
		"jti":        uuid.NewString(),
		"gen":        s.generation.Add(1),
		"iat":        now.Unix(),
		"exp":        now.Add(s.accessTTL).Unix(),
	})
}

type ctxKey struct{}

// principal is injected by requireAuth
type principal struct {
	UserID int
	Role   users.Role
}

func principalFrom(ctx context.Context) principal {
	p, _ := ctx.Value(ctxKey{}).(principal)
	return p
}

func seed(s *Stub) *data {
	d := newData()
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}

	add := func(username string, role users.Role, first, last string) *account {
		a := &account{
			StaffUser: users.StaffUser{
				ID:           d.id(),
				Username:     username,
				Email:        username + "@example.com",
				FirstName:    first,
				LastName:     last,
				Organization: "Head Office",
				Role:         role,
			},
			PasswordHash: hash,
		}
		d.accounts[a.ID] = a
		return a
	}
	add("superadmin", users.RoleSuperAdmin, "Sam", "Super")
	add("admin", users.RoleAdmin, "Ada", "Admin")
	staff := add("staff", users.RoleStaff, "Stu", "Staff")

	for _, o := range []inventory.Office{{Name: "Registry", Department: "Records"}, {Name: "Finance", Department: "Accounts"}} {
		o.ID = d.id()
		office := o
		d.offices[o.ID] = &office
	}
	for _, it := range []inventory.Item{{Name: "Desk", Description: "Office desk"}, {Name: "Chair", Description: "Swivel chair"}, {Name: "Printer"}} {
		it.ItemID = d.id()
		item := it
		d.items[it.ItemID] = &item
	}

	offices := d.sortedOffices()
	items := d.sortedItems()
	staff.Offices = []int{offices[0].ID}
	for i, qty := range []int{12, 30, 2} {
		rec := &inventory.Record{ID: d.id(), OfficeID: offices[i%len(offices)].ID, ItemID: items[i].ItemID, Quantity: qty}
		d.records[rec.ID] = rec
	}
	return d
}
