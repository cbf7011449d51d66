package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/manorfm/cpa-auth/internal/domain"
	apperrors "github.com/manorfm/cpa-auth/internal/domain/errors"
	"github.com/manorfm/cpa-auth/internal/infrastructure/config"
	"github.com/manorfm/cpa-auth/internal/infrastructure/instrumentation"
	"go.uber.org/zap"
)

const maxUserCodeAttempts = 5

type associateInput struct {
	ClientID     string `json:"client_id" validate:"required"`
	ClientSecret string `json:"client_secret" validate:"required"`
	Domain       string `json:"domain" validate:"required"`
}

// DeviceAuthorization is returned to a device starting a pairing
type DeviceAuthorization struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURI string `json:"verification_uri"`
	Interval        int    `json:"interval"`
	ExpiresIn       int64  `json:"expires_in"`
}

// DevicePairing describes a pending pairing to the user about to decide on it
type DevicePairing struct {
	UserCode          string
	ClientName        string
	DomainDisplayName string
	ExpiresAt         time.Time
}

// DeviceService creates device sessions and records the user's decision on
// them. Redemption happens in DeviceCodeGrant.
type DeviceService struct {
	repo      domain.OAuth2Repository
	generator domain.TokenGenerator
	cfg       *config.Config
	metrics   *instrumentation.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

func NewDeviceService(repo domain.OAuth2Repository, generator domain.TokenGenerator, cfg *config.Config, metrics *instrumentation.Metrics, logger *zap.Logger) *DeviceService {
	return &DeviceService{
		repo:      repo,
		generator: generator,
		cfg:       cfg,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// Associate authenticates the client and opens a pending device session
func (s *DeviceService) Associate(ctx context.Context, clientID, clientSecret, domainName, scope string) (*DeviceAuthorization, error) {
	err := validateInput(associateInput{ClientID: clientID, ClientSecret: clientSecret, Domain: domainName})
	if err != nil {
		return nil, err
	}

	client, err := authenticateClient(ctx, s.repo, s.logger, clientID, clientSecret)
	if err != nil {
		return nil, err
	}

	d, err := findDomainByName(ctx, s.repo, s.logger, domainName)
	if err != nil {
		return nil, err
	}

	deviceCode, err := s.generator.DeviceCode()
	if err != nil {
		return nil, internalError(s.logger, "Failed to generate device code", err)
	}

	now := s.now()
	session := &domain.DeviceSession{
		DeviceCode: deviceCode,
		ClientID:   client.ID,
		DomainID:   d.ID,
		Scope:      scope,
		Status:     domain.DeviceSessionPending,
		Interval:   int(s.cfg.DevicePollInterval / time.Second),
		ExpiresAt:  now.Add(s.cfg.DeviceCodeDuration),
		CreatedAt:  now,
	}

	for attempt := 1; ; attempt++ {
		if session.UserCode, err = s.generator.UserCode(); err != nil {
			return nil, internalError(s.logger, "Failed to generate user code", err)
		}
		err = s.repo.CreateDeviceSession(ctx, session)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrConflict) || attempt == maxUserCodeAttempts {
			return nil, internalError(s.logger, "Failed to create device session", err)
		}
		s.logger.Debug("User code collision, retrying", zap.Int("attempt", attempt))
	}

	s.logger.Info("Device pairing started", zap.String("client_id", client.ID), zap.String("domain", d.Name))

	return &DeviceAuthorization{
		DeviceCode:      session.DeviceCode,
		UserCode:        session.UserCode,
		VerificationURI: s.cfg.VerificationURI,
		Interval:        session.Interval,
		ExpiresIn:       int64(s.cfg.DeviceCodeDuration / time.Second),
	}, nil
}

// Describe returns the pending pairing identified by userCode
func (s *DeviceService) Describe(ctx context.Context, userCode string) (*DevicePairing, error) {
	userCode = NormalizeUserCode(userCode)
	if userCode == "" {
		return nil, domain.ErrInvalidUserCode
	}

	session, err := s.repo.FindDeviceSessionByUserCode(ctx, userCode)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidUserCode
	}
	if err != nil {
		return nil, fmt.Errorf("find device session: %w", err)
	}
	if session.Status != domain.DeviceSessionPending || session.IsExpired(s.now()) {
		return nil, domain.ErrInvalidUserCode
	}

	client, err := s.repo.FindClientByID(ctx, session.ClientID)
	if err != nil {
		return nil, fmt.Errorf("find client: %w", err)
	}
	d, err := s.repo.FindDomainByID(ctx, session.DomainID)
	if err != nil {
		return nil, fmt.Errorf("find domain: %w", err)
	}

	return &DevicePairing{
		UserCode:          session.UserCode,
		ClientName:        client.Name,
		DomainDisplayName: d.DisplayName,
		ExpiresAt:         session.ExpiresAt,
	}, nil
}

// Decide approves or denies a pending pairing on behalf of userID. A session
// is decided at most once.
func (s *DeviceService) Decide(ctx context.Context, userID, userCode string, allow bool) (*domain.DeviceSession, error) {
	userCode = NormalizeUserCode(userCode)
	if userCode == "" {
		return nil, domain.ErrInvalidUserCode
	}

	status := domain.DeviceSessionDenied
	if allow {
		status = domain.DeviceSessionApproved
	}

	session, err := s.repo.DecideDeviceSession(ctx, userCode, userID, status, s.now())
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidUserCode
	}
	if err != nil {
		s.logger.Error("Failed to decide device session", zap.Error(err))
		return nil, apperrors.ServerError("Failed to decide device session")
	}

	s.metrics.RecordDeviceDecision(ctx, string(status))
	s.logger.Info("Device pairing decided",
		zap.String("client_id", session.ClientID),
		zap.String("user_id", userID),
		zap.String("status", string(status)))

	return session, nil
}

// NormalizeUserCode upper-cases a typed user code and drops separators
func NormalizeUserCode(code string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '-', ' ', '\t':
			return -1
		}
		return r
	}, strings.ToUpper(strings.TrimSpace(code)))
}
