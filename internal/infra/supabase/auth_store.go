package supabase

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/fieldline/crm-bff-go/internal/domain"

	"github.com/google/uuid"
)

// ============================================================
// AuthStore implementation — profiles, credentials, refresh tokens
// ============================================================

func (c *Client) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetUserByEmail")
	defer span.End()

	path := fmt.Sprintf("profiles?email=eq.%s&limit=1", url.QueryEscape(email))
	return fetchOne[domain.User](ctx, c, path)
}

func (c *Client) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetUserByID")
	defer span.End()

	path := fmt.Sprintf("profiles?id=eq.%s&limit=1", userID)
	u, err := fetchOne[domain.User](ctx, c, path)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, &domain.ErrNotFound{Resource: "user", ID: userID}
	}
	return u, nil
}

// CreateUser inserts the profile and the credential rows.
func (c *Client) CreateUser(ctx context.Context, u *domain.User, passwordHash string) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateUser")
	defer span.End()

	userID := uuid.New().String()
	profileData := map[string]any{
		"id":         userID,
		"email":      u.Email,
		"name":       u.Name,
		"created_at": time.Now().UTC().Format(time.RFC3339),
	}

	body, err := c.doPost(ctx, "profiles", profileData)
	if err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	created, err := decodeInserted[domain.User]("profiles", body)
	if err != nil {
		return nil, err
	}

	credData := map[string]any{
		"id":              uuid.New().String(),
		"user_id":         userID,
		"password_hash":   passwordHash,
		"failed_attempts": 0,
	}
	if _, err := c.doPost(ctx, "auth_credentials", credData); err != nil {
		return nil, fmt.Errorf("create auth credentials: %w", err)
	}

	return created, nil
}

// SetCurrentOrganization persists the active org so sessions survive
// restarts with the same scope.
func (c *Client) SetCurrentOrganization(ctx context.Context, userID, orgID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.SetCurrentOrganization")
	defer span.End()

	path := fmt.Sprintf("profiles?id=eq.%s", userID)
	return c.doPatch(ctx, path, map[string]any{"current_organization_id": orgID})
}

// --- Credentials ---

func (c *Client) GetCredentials(ctx context.Context, userID string) (*domain.Credential, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetCredentials")
	defer span.End()

	path := fmt.Sprintf("auth_credentials?user_id=eq.%s&limit=1", userID)
	cred, err := fetchOne[domain.Credential](ctx, c, path)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, &domain.ErrNotFound{Resource: "credentials", ID: userID}
	}
	return cred, nil
}

func (c *Client) UpdateCredentials(ctx context.Context, userID string, updates map[string]any) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateCredentials")
	defer span.End()

	path := fmt.Sprintf("auth_credentials?user_id=eq.%s", userID)
	return c.doPatch(ctx, path, updates)
}

// --- Refresh tokens ---

func (c *Client) StoreRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	ctx, span := tracer.Start(ctx, "Supabase.StoreRefreshToken")
	defer span.End()

	data := map[string]any{
		"id":         uuid.New().String(),
		"user_id":    userID,
		"token_hash": tokenHash,
		"expires_at": expiresAt.UTC().Format(time.RFC3339),
		"revoked":    false,
	}

	_, err := c.doPost(ctx, "auth_refresh_tokens", data)
	return err
}

func (c *Client) GetRefreshToken(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetRefreshToken")
	defer span.End()

	path := fmt.Sprintf("auth_refresh_tokens?token_hash=eq.%s&revoked=eq.false&limit=1", tokenHash)
	return fetchOne[domain.RefreshToken](ctx, c, path)
}

func (c *Client) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	ctx, span := tracer.Start(ctx, "Supabase.RevokeRefreshToken")
	defer span.End()

	path := fmt.Sprintf("auth_refresh_tokens?token_hash=eq.%s", tokenHash)
	return c.doPatch(ctx, path, map[string]any{"revoked": true})
}

func (c *Client) RevokeAllRefreshTokens(ctx context.Context, userID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.RevokeAllRefreshTokens")
	defer span.End()

	path := fmt.Sprintf("auth_refresh_tokens?user_id=eq.%s&revoked=eq.false", userID)
	return c.doPatch(ctx, path, map[string]any{"revoked": true})
}
