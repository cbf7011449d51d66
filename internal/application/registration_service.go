package application

import (
	"context"
	"errors"
	"time"

	"github.com/manorfm/cpa-auth/internal/domain"
	apperrors "github.com/manorfm/cpa-auth/internal/domain/errors"
	"github.com/manorfm/cpa-auth/internal/infrastructure/config"
	"github.com/manorfm/cpa-auth/internal/infrastructure/instrumentation"
	"go.uber.org/zap"
)

// RegistrationRequest is the body of a dynamic client registration
type RegistrationRequest struct {
	ClientName      string `json:"client_name" validate:"required,max=255"`
	SoftwareID      string `json:"software_id" validate:"required,max=255"`
	SoftwareVersion string `json:"software_version" validate:"max=64"`
}

// RegistrationResponse carries the credentials of a newly registered client
type RegistrationResponse struct {
	ClientID              string `json:"client_id"`
	ClientSecret          string `json:"client_secret"`
	RegistrationClientURI string `json:"registration_client_uri"`
	ClientName            string `json:"client_name"`
	SoftwareID            string `json:"software_id"`
	SoftwareVersion       string `json:"software_version,omitempty"`
}

// RegistrationService provisions clients and domains
type RegistrationService struct {
	repo      domain.OAuth2Repository
	generator domain.TokenGenerator
	cfg       *config.Config
	metrics   *instrumentation.Metrics
	logger    *zap.Logger
}

func NewRegistrationService(repo domain.OAuth2Repository, generator domain.TokenGenerator, cfg *config.Config, metrics *instrumentation.Metrics, logger *zap.Logger) *RegistrationService {
	return &RegistrationService{
		repo:      repo,
		generator: generator,
		cfg:       cfg,
		metrics:   metrics,
		logger:    logger,
	}
}

// Register creates a dynamic client. Dynamic clients have no redirect URI and
// may only use the client-credentials and device flows.
func (s *RegistrationService) Register(ctx context.Context, req *RegistrationRequest) (*RegistrationResponse, error) {
	if err := validateInput(req); err != nil {
		return nil, err
	}

	secret, err := s.generator.ClientSecret()
	if err != nil {
		return nil, internalError(s.logger, "Failed to generate client secret", err)
	}

	client := &domain.Client{
		ID:               domain.NewID(),
		Secret:           secret,
		Name:             req.ClientName,
		RegistrationType: domain.RegistrationDynamic,
		SoftwareID:       req.SoftwareID,
		SoftwareVersion:  req.SoftwareVersion,
		CreatedAt:        time.Now(),
	}
	if err := s.repo.CreateClient(ctx, client); err != nil {
		return nil, internalError(s.logger, "Failed to register client", err)
	}

	s.metrics.RecordClientRegistered(ctx)
	s.logger.Info("Client registered", zap.String("client_id", client.ID), zap.String("software_id", client.SoftwareID))

	return &RegistrationResponse{
		ClientID:              client.ID,
		ClientSecret:          client.Secret,
		RegistrationClientURI: s.cfg.RegistrationClientURI,
		ClientName:            client.Name,
		SoftwareID:            client.SoftwareID,
		SoftwareVersion:       client.SoftwareVersion,
	}, nil
}

// CreateStaticClient provisions an operator-managed client. An empty id gets
// a generated one.
func (s *RegistrationService) CreateStaticClient(ctx context.Context, id, name, redirectURI string) (*domain.Client, error) {
	if name == "" {
		return nil, apperrors.InvalidRequest("Missing client name")
	}
	if id == "" {
		id = domain.NewID()
	}

	secret, err := s.generator.ClientSecret()
	if err != nil {
		return nil, err
	}

	client := &domain.Client{
		ID:               id,
		Secret:           secret,
		Name:             name,
		RedirectURI:      redirectURI,
		RegistrationType: domain.RegistrationStatic,
		CreatedAt:        time.Now(),
	}
	if err := s.repo.CreateClient(ctx, client); err != nil {
		if !errors.Is(err, domain.ErrConflict) {
			s.logger.Error("Failed to create client", zap.Error(err))
		}
		return nil, err
	}
	return client, nil
}

// CreateDomain provisions a domain with a fresh service credential
func (s *RegistrationService) CreateDomain(ctx context.Context, name, displayName string) (*domain.Domain, error) {
	if name == "" {
		return nil, apperrors.InvalidRequest("Missing domain name")
	}
	if displayName == "" {
		displayName = name
	}

	accessToken, err := s.generator.AccessToken()
	if err != nil {
		return nil, err
	}

	d := &domain.Domain{
		ID:          domain.NewID(),
		Name:        name,
		DisplayName: displayName,
		AccessToken: accessToken,
	}
	if err := s.repo.CreateDomain(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}
