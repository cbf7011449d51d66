package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/manorfm/cpa-auth/internal/domain"
	"github.com/manorfm/cpa-auth/internal/infrastructure/config"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockOAuth2Repository is a mock implementation of domain.OAuth2Repository.
// WithTx runs the callback against the mock itself and returns its error.
type MockOAuth2Repository struct {
	mock.Mock
}

func (m *MockOAuth2Repository) WithTx(ctx context.Context, fn func(repo domain.OAuth2Repository) error) error {
	return fn(m)
}

func (m *MockOAuth2Repository) FindClientByID(ctx context.Context, id string) (*domain.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Client), args.Error(1)
}

func (m *MockOAuth2Repository) CreateClient(ctx context.Context, client *domain.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *MockOAuth2Repository) FindDomainByName(ctx context.Context, name string) (*domain.Domain, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Domain), args.Error(1)
}

func (m *MockOAuth2Repository) FindDomainByID(ctx context.Context, id string) (*domain.Domain, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Domain), args.Error(1)
}

func (m *MockOAuth2Repository) CreateDomain(ctx context.Context, d *domain.Domain) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockOAuth2Repository) CreateAuthorizationCode(ctx context.Context, code *domain.AuthorizationCode) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

func (m *MockOAuth2Repository) ClaimAuthorizationCode(ctx context.Context, code, clientID, redirectURI string, now time.Time) (*domain.AuthorizationCode, error) {
	args := m.Called(ctx, code, clientID, redirectURI, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuthorizationCode), args.Error(1)
}

func (m *MockOAuth2Repository) CreateAccessToken(ctx context.Context, token *domain.AccessToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockOAuth2Repository) CreateRefreshToken(ctx context.Context, token *domain.RefreshToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockOAuth2Repository) ClaimRefreshToken(ctx context.Context, token, clientID string, now time.Time) (*domain.RefreshToken, error) {
	args := m.Called(ctx, token, clientID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RefreshToken), args.Error(1)
}

func (m *MockOAuth2Repository) CreateDeviceSession(ctx context.Context, session *domain.DeviceSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockOAuth2Repository) FindDeviceSessionByDeviceCode(ctx context.Context, deviceCode string) (*domain.DeviceSession, error) {
	args := m.Called(ctx, deviceCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DeviceSession), args.Error(1)
}

func (m *MockOAuth2Repository) FindDeviceSessionByUserCode(ctx context.Context, userCode string) (*domain.DeviceSession, error) {
	args := m.Called(ctx, userCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DeviceSession), args.Error(1)
}

func (m *MockOAuth2Repository) DecideDeviceSession(ctx context.Context, userCode, userID string, status domain.DeviceSessionStatus, now time.Time) (*domain.DeviceSession, error) {
	args := m.Called(ctx, userCode, userID, status, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DeviceSession), args.Error(1)
}

func (m *MockOAuth2Repository) ClaimDeviceSession(ctx context.Context, deviceCode string, now time.Time) (*domain.DeviceSession, error) {
	args := m.Called(ctx, deviceCode, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DeviceSession), args.Error(1)
}

// MockUserRepository is a mock implementation of domain.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) FindByProviderUID(ctx context.Context, providerUID string) (*domain.User, error) {
	args := m.Called(ctx, providerUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// MockMaintenanceRepository is a mock implementation of domain.MaintenanceRepository
type MockMaintenanceRepository struct {
	mock.Mock
}

func (m *MockMaintenanceRepository) DeleteStaleAuthorizationCodes(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMaintenanceRepository) ExpireDeviceSessions(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMaintenanceRepository) DeleteStaleDeviceSessions(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMaintenanceRepository) DeleteStaleRefreshTokens(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMaintenanceRepository) DeleteExpiredAccessTokens(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

// sequenceGenerator returns predictable values: "<kind>-<n>"
type sequenceGenerator struct {
	mu        sync.Mutex
	n         int
	userCodes []string
	err       error
}

func (g *sequenceGenerator) next(kind string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return "", g.err
	}
	g.n++
	return fmt.Sprintf("%s-%d", kind, g.n), nil
}

func (g *sequenceGenerator) AuthorizationCode() (string, error) { return g.next("code") }
func (g *sequenceGenerator) AccessToken() (string, error)       { return g.next("at") }
func (g *sequenceGenerator) RefreshToken() (string, error)      { return g.next("rt") }
func (g *sequenceGenerator) DeviceCode() (string, error)        { return g.next("dc") }
func (g *sequenceGenerator) ClientSecret() (string, error)      { return g.next("secret") }

func (g *sequenceGenerator) UserCode() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.userCodes) == 0 {
		return "BCDFGHJK", nil
	}
	code := g.userCodes[0]
	g.userCodes = g.userCodes[1:]
	return code, nil
}

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	cfg := config.NewConfig()
	cfg.SessionSecret = "test-secret"
	cfg.VerificationURI = "http://example.com/verify"
	cfg.RegistrationClientURI = "http://example.com/register"
	return cfg
}

func newTestIssuer(cfg *config.Config) *TokenIssuer {
	issuer := NewTokenIssuer(&sequenceGenerator{}, cfg, zap.NewNop())
	issuer.now = func() time.Time { return testNow }
	return issuer
}

var testDomain = &domain.Domain{ID: "5", Name: "example-service.bbc.co.uk", DisplayName: "BBC Radio", AccessToken: "70fc2cbe"}

func staticClient() *domain.Client {
	return &domain.Client{
		ID:               "100",
		Secret:           "e2412cd1-f010-4514-acab-c8af59e5501a",
		Name:             "Test client",
		RedirectURI:      "http://example.com/implicit-client.html",
		RegistrationType: domain.RegistrationStatic,
	}
}
