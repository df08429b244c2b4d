// Package service — AuthService handles registration, login, token
// rotation, session bootstrap and organization switching.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fieldline/crm-bff-go/internal/domain"
	"github.com/fieldline/crm-bff-go/internal/infra/observability"
	"github.com/fieldline/crm-bff-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var authTracer = otel.Tracer("service/auth")

const (
	maxFailedAttempts = 5
	lockDuration      = 30 * time.Minute
	bcryptCost        = 12
)

// AuthService orchestrates authentication flows.
type AuthService struct {
	store            port.AuthStore
	orgs             port.OrganizationsStore
	cache            port.Cache[any]
	metrics          *observability.Metrics
	logger           *zap.Logger
	jwtSecret        []byte
	accessTTL        time.Duration
	refreshTTL       time.Duration
	bootstrapTimeout time.Duration
}

// NewAuthService creates a new auth service.
func NewAuthService(
	store port.AuthStore,
	orgs port.OrganizationsStore,
	c port.Cache[any],
	metrics *observability.Metrics,
	logger *zap.Logger,
	jwtSecret string,
	accessTTL, refreshTTL, bootstrapTimeout time.Duration,
) *AuthService {
	return &AuthService{
		store:            store,
		orgs:             orgs,
		cache:            c,
		metrics:          metrics,
		logger:           logger,
		jwtSecret:        []byte(jwtSecret),
		accessTTL:        accessTTL,
		refreshTTL:       refreshTTL,
		bootstrapTimeout: bootstrapTimeout,
	}
}

// ============================================================
// Register — POST /v1/auth/register
// ============================================================

func (s *AuthService) Register(ctx context.Context, name, email, password string) (*domain.Session, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Register")
	defer span.End()

	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, &domain.ErrValidation{Field: "email", Message: "required"}
	}
	if strings.TrimSpace(name) == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "required"}
	}
	if len(password) < 8 {
		return nil, &domain.ErrValidation{Field: "password", Message: "must be at least 8 characters"}
	}

	existing, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if existing != nil {
		return nil, &domain.ErrConflict{Message: "an account with this email already exists"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, &domain.User{Name: name, Email: email}, string(hash))
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return s.issueSession(ctx, user)
}

// ============================================================
// Login — POST /v1/auth/login
// ============================================================

func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Login")
	defer span.End()

	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		return nil, &domain.ErrUnauthorized{Message: "invalid credentials"}
	}

	cred, err := s.store.GetCredentials(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("get credentials: %w", err)
	}

	if cred.LockedUntil != nil && cred.LockedUntil.After(time.Now()) {
		s.logger.Warn("login: account temporarily locked",
			zap.String("user_id", user.ID),
			zap.Time("locked_until", *cred.LockedUntil),
		)
		return nil, &domain.ErrUnauthorized{Message: "account temporarily locked"}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		newAttempts := cred.FailedAttempts + 1
		updates := map[string]any{"failed_attempts": newAttempts}
		if newAttempts >= maxFailedAttempts {
			updates["locked_until"] = time.Now().Add(lockDuration).Format(time.RFC3339)
			s.logger.Warn("login: account locked after max attempts",
				zap.String("user_id", user.ID),
				zap.Int("attempts", newAttempts),
			)
		}
		_ = s.store.UpdateCredentials(ctx, user.ID, updates)

		return nil, &domain.ErrUnauthorized{Message: "invalid credentials"}
	}

	_ = s.store.UpdateCredentials(ctx, user.ID, map[string]any{
		"failed_attempts": 0,
		"locked_until":    nil,
	})

	return s.issueSession(ctx, user)
}

// ============================================================
// Organization switch — POST /v1/auth/switch-org
// ============================================================

// SwitchOrganization verifies membership, persists the new active org
// and issues a fresh token. The whole cache is dropped: entries from
// the previous org must never serve the next one.
func (s *AuthService) SwitchOrganization(ctx context.Context, userID, orgID string) (*domain.Session, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.SwitchOrganization")
	defer span.End()
	span.SetAttributes(attribute.String("org.id", orgID))

	member, err := s.orgs.GetMember(ctx, orgID, userID)
	if err != nil {
		return nil, fmt.Errorf("check membership: %w", err)
	}
	if member == nil {
		return nil, &domain.ErrForbidden{Action: "not a member of this organization"}
	}

	if err := s.store.SetCurrentOrganization(ctx, userID, orgID); err != nil {
		return nil, fmt.Errorf("set current organization: %w", err)
	}

	invalidateAll(s.cache, s.metrics, invalidateOrgSwitch)

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return s.issueSession(ctx, user)
}

// ============================================================
// Session bootstrap — GET /v1/auth/session
// ============================================================

// Bootstrap resolves an access token into a session under a fixed
// wall-clock budget. A bad token, a missing user or a timeout all
// resolve to (nil, nil): unauthenticated is an expected state here,
// not a fault.
func (s *AuthService) Bootstrap(ctx context.Context, accessToken string) (*domain.Session, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Bootstrap")
	defer span.End()

	if accessToken == "" {
		return nil, nil
	}

	claims, err := s.ValidateAccessToken(accessToken)
	if err != nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.bootstrapTimeout)
	defer cancel()

	user, err := s.store.GetUserByID(ctx, claims.Sub)
	if err != nil {
		s.logger.Debug("bootstrap resolved unauthenticated", zap.Error(err))
		return nil, nil
	}

	orgs, err := s.orgs.ListOrganizationsForUser(ctx, user.ID)
	if err != nil {
		s.logger.Debug("bootstrap resolved unauthenticated", zap.Error(err))
		return nil, nil
	}

	return &domain.Session{
		AccessToken:    accessToken,
		ExpiresIn:      int(time.Until(claims.ExpiresAt.Time).Seconds()),
		User:           user,
		OrganizationID: user.CurrentOrganizationID,
		Organizations:  orgs,
	}, nil
}

// issueSession signs an access token, stores a rotated refresh token
// and bundles the user's organizations.
func (s *AuthService) issueSession(ctx context.Context, user *domain.User) (*domain.Session, error) {
	accessToken, err := s.signAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refreshToken, refreshHash, err := s.generateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	if err := s.store.StoreRefreshToken(ctx, user.ID, refreshHash, time.Now().Add(s.refreshTTL)); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	orgs, err := s.orgs.ListOrganizationsForUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}

	return &domain.Session{
		AccessToken:    accessToken,
		RefreshToken:   refreshToken,
		ExpiresIn:      int(s.accessTTL.Seconds()),
		User:           user,
		OrganizationID: user.CurrentOrganizationID,
		Organizations:  orgs,
	}, nil
}
