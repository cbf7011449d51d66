package handlers

import (
	"context"
	"net/url"

	"github.com/manorfm/cpa-auth/internal/application"
	"github.com/manorfm/cpa-auth/internal/domain"
	"github.com/manorfm/cpa-auth/internal/infrastructure/jwt"
	"github.com/stretchr/testify/mock"
)

type MockTokenDispatcher struct {
	mock.Mock
}

func (m *MockTokenDispatcher) Dispatch(ctx context.Context, req *domain.TokenRequest) (*domain.TokenResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TokenResponse), args.Error(1)
}

type MockConsentService struct {
	mock.Mock
}

func (m *MockConsentService) Prepare(ctx context.Context, params url.Values) (*application.ConsentPrompt, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*application.ConsentPrompt), args.Error(1)
}

func (m *MockConsentService) Decide(ctx context.Context, userID string, form url.Values) (*application.AuthorizeRedirect, error) {
	args := m.Called(ctx, userID, form)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*application.AuthorizeRedirect), args.Error(1)
}

type MockDevicePairingService struct {
	mock.Mock
}

func (m *MockDevicePairingService) Associate(ctx context.Context, clientID, clientSecret, domainName, scope string) (*application.DeviceAuthorization, error) {
	args := m.Called(ctx, clientID, clientSecret, domainName, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*application.DeviceAuthorization), args.Error(1)
}

func (m *MockDevicePairingService) Describe(ctx context.Context, userCode string) (*application.DevicePairing, error) {
	args := m.Called(ctx, userCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*application.DevicePairing), args.Error(1)
}

func (m *MockDevicePairingService) Decide(ctx context.Context, userID, userCode string, allow bool) (*domain.DeviceSession, error) {
	args := m.Called(ctx, userID, userCode, allow)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DeviceSession), args.Error(1)
}

type MockClientRegistrar struct {
	mock.Mock
}

func (m *MockClientRegistrar) Register(ctx context.Context, req *application.RegistrationRequest) (*application.RegistrationResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*application.RegistrationResponse), args.Error(1)
}

type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	args := m.Called(ctx, username, password)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*domain.User), args.Error(2)
}

type MockSessionRevoker struct {
	mock.Mock
}

func (m *MockSessionRevoker) Revoke(claims *jwt.Claims) {
	m.Called(claims)
}
