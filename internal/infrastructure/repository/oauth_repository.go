package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/manorfm/cpa-auth/internal/domain"
	"github.com/manorfm/cpa-auth/internal/infrastructure/database"
	"go.uber.org/zap"
)

const uniqueViolation = "23505"

const (
	clientColumns        = `id, secret, name, redirect_uri, registration_type, software_id, software_version, created_at`
	domainColumns        = `id, name, display_name, access_token`
	authCodeColumns      = `code, client_id, domain_id, redirect_uri, user_id, scope, created_at, expires_at, consumed_at`
	refreshTokenColumns  = `token, access_token, client_id, domain_id, user_id, scope, created_at, expires_at, revoked_at`
	deviceSessionColumns = `device_code, user_code, client_id, domain_id, user_id, scope, status, poll_interval, expires_at, created_at`
)

// PostgresOAuth2Repository implements OAuth2Repository using PostgreSQL
type PostgresOAuth2Repository struct {
	db     *database.Postgres
	q      database.DBTX
	inTx   bool
	logger *zap.Logger
}

// NewOAuth2Repository creates a new PostgresOAuth2Repository
func NewOAuth2Repository(db *database.Postgres, logger *zap.Logger) *PostgresOAuth2Repository {
	return &PostgresOAuth2Repository{
		db:     db,
		q:      db,
		logger: logger,
	}
}

func (r *PostgresOAuth2Repository) WithTx(ctx context.Context, fn func(repo domain.OAuth2Repository) error) error {
	if r.inTx {
		return fn(r)
	}
	return r.db.WithTx(ctx, func(tx database.DBTX) error {
		return fn(&PostgresOAuth2Repository{db: r.db, q: tx, inTx: true, logger: r.logger})
	})
}

func (r *PostgresOAuth2Repository) FindClientByID(ctx context.Context, id string) (*domain.Client, error) {
	row := r.q.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id)
	client, err := scanClient(row)
	if err != nil {
		return nil, notFound(err, "find client")
	}
	return client, nil
}

func (r *PostgresOAuth2Repository) CreateClient(ctx context.Context, client *domain.Client) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO clients (`+clientColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, client.ID, client.Secret, client.Name, nullString(client.RedirectURI), string(client.RegistrationType),
		nullString(client.SoftwareID), nullString(client.SoftwareVersion), client.CreatedAt)
	return conflict(err, "create client")
}

func (r *PostgresOAuth2Repository) FindDomainByName(ctx context.Context, name string) (*domain.Domain, error) {
	row := r.q.QueryRow(ctx, `SELECT `+domainColumns+` FROM domains WHERE name = $1`, name)
	d, err := scanDomain(row)
	if err != nil {
		return nil, notFound(err, "find domain by name")
	}
	return d, nil
}

func (r *PostgresOAuth2Repository) FindDomainByID(ctx context.Context, id string) (*domain.Domain, error) {
	row := r.q.QueryRow(ctx, `SELECT `+domainColumns+` FROM domains WHERE id = $1`, id)
	d, err := scanDomain(row)
	if err != nil {
		return nil, notFound(err, "find domain by id")
	}
	return d, nil
}

func (r *PostgresOAuth2Repository) CreateDomain(ctx context.Context, d *domain.Domain) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO domains (`+domainColumns+`)
		VALUES ($1, $2, $3, $4)
	`, d.ID, d.Name, d.DisplayName, d.AccessToken)
	return conflict(err, "create domain")
}

func (r *PostgresOAuth2Repository) CreateAuthorizationCode(ctx context.Context, code *domain.AuthorizationCode) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO authorization_codes (code, client_id, domain_id, redirect_uri, user_id, scope, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, code.Code, code.ClientID, code.DomainID, code.RedirectURI, code.UserID, code.Scope, code.CreatedAt, code.ExpiresAt)
	return conflict(err, "create authorization code")
}

func (r *PostgresOAuth2Repository) ClaimAuthorizationCode(ctx context.Context, code, clientID, redirectURI string, now time.Time) (*domain.AuthorizationCode, error) {
	row := r.q.QueryRow(ctx, `
		UPDATE authorization_codes
		SET consumed_at = $4
		WHERE code = $1 AND client_id = $2 AND redirect_uri = $3
		  AND consumed_at IS NULL AND expires_at > $4
		RETURNING `+authCodeColumns,
		code, clientID, redirectURI, now)
	authCode, err := scanAuthorizationCode(row)
	if err != nil {
		return nil, notFound(err, "claim authorization code")
	}
	return authCode, nil
}

func (r *PostgresOAuth2Repository) CreateAccessToken(ctx context.Context, token *domain.AccessToken) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO access_tokens (token, client_id, domain_id, user_id, scope, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, token.Token, token.ClientID, token.DomainID, nullString(token.UserID), token.Scope, token.CreatedAt, token.ExpiresAt)
	return conflict(err, "create access token")
}

func (r *PostgresOAuth2Repository) CreateRefreshToken(ctx context.Context, token *domain.RefreshToken) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO refresh_tokens (token, access_token, client_id, domain_id, user_id, scope, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, token.Token, token.AccessToken, token.ClientID, token.DomainID, nullString(token.UserID), token.Scope, token.CreatedAt, token.ExpiresAt)
	return conflict(err, "create refresh token")
}

func (r *PostgresOAuth2Repository) ClaimRefreshToken(ctx context.Context, token, clientID string, now time.Time) (*domain.RefreshToken, error) {
	row := r.q.QueryRow(ctx, `
		UPDATE refresh_tokens
		SET revoked_at = $3
		WHERE token = $1 AND client_id = $2
		  AND revoked_at IS NULL AND (expires_at IS NULL OR expires_at > $3)
		RETURNING `+refreshTokenColumns,
		token, clientID, now)
	refreshToken, err := scanRefreshToken(row)
	if err != nil {
		return nil, notFound(err, "claim refresh token")
	}
	return refreshToken, nil
}

func (r *PostgresOAuth2Repository) CreateDeviceSession(ctx context.Context, session *domain.DeviceSession) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO device_sessions (`+deviceSessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, session.DeviceCode, session.UserCode, session.ClientID, session.DomainID, nullString(session.UserID),
		session.Scope, string(session.Status), session.Interval, session.ExpiresAt, session.CreatedAt)
	return conflict(err, "create device session")
}

func (r *PostgresOAuth2Repository) FindDeviceSessionByDeviceCode(ctx context.Context, deviceCode string) (*domain.DeviceSession, error) {
	row := r.q.QueryRow(ctx, `SELECT `+deviceSessionColumns+` FROM device_sessions WHERE device_code = $1`, deviceCode)
	session, err := scanDeviceSession(row)
	if err != nil {
		return nil, notFound(err, "find device session by device code")
	}
	return session, nil
}

func (r *PostgresOAuth2Repository) FindDeviceSessionByUserCode(ctx context.Context, userCode string) (*domain.DeviceSession, error) {
	row := r.q.QueryRow(ctx, `SELECT `+deviceSessionColumns+` FROM device_sessions WHERE user_code = $1`, userCode)
	session, err := scanDeviceSession(row)
	if err != nil {
		return nil, notFound(err, "find device session by user code")
	}
	return session, nil
}

func (r *PostgresOAuth2Repository) DecideDeviceSession(ctx context.Context, userCode, userID string, status domain.DeviceSessionStatus, now time.Time) (*domain.DeviceSession, error) {
	row := r.q.QueryRow(ctx, `
		UPDATE device_sessions
		SET status = $2, user_id = $3
		WHERE user_code = $1 AND status = 'pending' AND expires_at > $4
		RETURNING `+deviceSessionColumns,
		userCode, string(status), userID, now)
	session, err := scanDeviceSession(row)
	if err != nil {
		return nil, notFound(err, "decide device session")
	}
	return session, nil
}

func (r *PostgresOAuth2Repository) ClaimDeviceSession(ctx context.Context, deviceCode string, now time.Time) (*domain.DeviceSession, error) {
	row := r.q.QueryRow(ctx, `
		UPDATE device_sessions
		SET status = 'consumed'
		WHERE device_code = $1 AND status = 'approved' AND expires_at > $2
		RETURNING `+deviceSessionColumns,
		deviceCode, now)
	session, err := scanDeviceSession(row)
	if err != nil {
		return nil, notFound(err, "claim device session")
	}
	return session, nil
}

func (r *PostgresOAuth2Repository) DeleteStaleAuthorizationCodes(ctx context.Context, before time.Time) (int64, error) {
	return r.execCount(ctx, "delete stale authorization codes",
		`DELETE FROM authorization_codes WHERE consumed_at IS NOT NULL OR expires_at < $1`, before)
}

func (r *PostgresOAuth2Repository) ExpireDeviceSessions(ctx context.Context, now time.Time) (int64, error) {
	return r.execCount(ctx, "expire device sessions",
		`UPDATE device_sessions SET status = 'expired' WHERE status = 'pending' AND expires_at <= $1`, now)
}

func (r *PostgresOAuth2Repository) DeleteStaleDeviceSessions(ctx context.Context, before time.Time) (int64, error) {
	return r.execCount(ctx, "delete stale device sessions",
		`DELETE FROM device_sessions WHERE expires_at < $1`, before)
}

func (r *PostgresOAuth2Repository) DeleteStaleRefreshTokens(ctx context.Context, before time.Time) (int64, error) {
	return r.execCount(ctx, "delete stale refresh tokens",
		`DELETE FROM refresh_tokens WHERE revoked_at IS NOT NULL OR expires_at < $1`, before)
}

func (r *PostgresOAuth2Repository) DeleteExpiredAccessTokens(ctx context.Context, before time.Time) (int64, error) {
	return r.execCount(ctx, "delete expired access tokens",
		`DELETE FROM access_tokens WHERE expires_at IS NOT NULL AND expires_at < $1`, before)
}

func (r *PostgresOAuth2Repository) execCount(ctx context.Context, op, sql string, args ...any) (int64, error) {
	tag, err := r.q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return tag.RowsAffected(), nil
}

func scanClient(row pgx.Row) (*domain.Client, error) {
	var (
		client                                   domain.Client
		registrationType                         string
		redirectURI, softwareID, softwareVersion *string
	)
	err := row.Scan(&client.ID, &client.Secret, &client.Name, &redirectURI, &registrationType,
		&softwareID, &softwareVersion, &client.CreatedAt)
	if err != nil {
		return nil, err
	}
	client.RegistrationType = domain.RegistrationType(registrationType)
	client.RedirectURI = deref(redirectURI)
	client.SoftwareID = deref(softwareID)
	client.SoftwareVersion = deref(softwareVersion)
	return &client, nil
}

func scanDomain(row pgx.Row) (*domain.Domain, error) {
	var d domain.Domain
	if err := row.Scan(&d.ID, &d.Name, &d.DisplayName, &d.AccessToken); err != nil {
		return nil, err
	}
	return &d, nil
}

func scanAuthorizationCode(row pgx.Row) (*domain.AuthorizationCode, error) {
	var c domain.AuthorizationCode
	err := row.Scan(&c.Code, &c.ClientID, &c.DomainID, &c.RedirectURI, &c.UserID, &c.Scope,
		&c.CreatedAt, &c.ExpiresAt, &c.ConsumedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanRefreshToken(row pgx.Row) (*domain.RefreshToken, error) {
	var (
		t      domain.RefreshToken
		userID *string
	)
	err := row.Scan(&t.Token, &t.AccessToken, &t.ClientID, &t.DomainID, &userID, &t.Scope,
		&t.CreatedAt, &t.ExpiresAt, &t.RevokedAt)
	if err != nil {
		return nil, err
	}
	t.UserID = deref(userID)
	return &t, nil
}

func scanDeviceSession(row pgx.Row) (*domain.DeviceSession, error) {
	var (
		s      domain.DeviceSession
		status string
		userID *string
	)
	err := row.Scan(&s.DeviceCode, &s.UserCode, &s.ClientID, &s.DomainID, &userID, &s.Scope,
		&status, &s.Interval, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	s.Status = domain.DeviceSessionStatus(status)
	s.UserID = deref(userID)
	return &s, nil
}

// notFound maps pgx.ErrNoRows to domain.ErrNotFound and wraps anything else
func notFound(err error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// conflict maps unique violations to domain.ErrConflict and wraps anything else
func conflict(err error, op string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrConflict
	}
	return fmt.Errorf("%s: %w", op, err)
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
