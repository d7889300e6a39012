package scheduling

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"clinic-scheduling-server/internal/models"
)

// RegisterInput describes a self-service sign-up. Organization accounts also
// create their organization.
type RegisterInput struct {
	FullName         string      `validate:"required"`
	Email            string      `validate:"required,email"`
	Password         string      `validate:"required,min=8,max=72"`
	Role             models.Role `validate:"required,oneof=organization patient"`
	OrganizationName string      `validate:"required_if=Role organization"`
}

// Register creates a patient or organization account.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.OrganizationName = strings.TrimSpace(in.OrganizationName)
	if err := validate.Struct(in); err != nil {
		return nil, validationf("%v", err)
	}
	if err := s.ensureEmailFree(ctx, in.Email, ""); err != nil {
		return nil, err
	}

	user := &models.User{
		Email:    in.Email,
		FullName: in.FullName,
		Role:     in.Role,
	}
	if err := s.setPassword(user, in.Password); err != nil {
		return nil, err
	}

	if in.Role == models.RoleOrganization {
		org := &models.Organization{Name: in.OrganizationName}
		if err := s.store.CreateOrganization(ctx, org); err != nil {
			return nil, fmt.Errorf("create organization: %w", err)
		}
		user.OrganizationID = org.ID
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.logger.Info("account registered", "user_id", user.ID, "role", string(user.Role))
	return user, nil
}

// Authenticate checks an email/password pair. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.store.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, ErrNotFound) {
		return nil, unauthorizedf("invalid email or password")
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user.DeletedAt.Valid || !user.CheckPassword(password) {
		return nil, unauthorizedf("invalid email or password")
	}
	return user, nil
}

// GetProfile returns the caller's own account.
func (s *Service) GetProfile(ctx context.Context, caller Caller) (*models.User, error) {
	if caller.UserID == "" {
		return nil, unauthorizedf("authentication required")
	}
	user, err := s.store.GetUser(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", caller.UserID, err)
	}
	return user, nil
}

// SaveRefreshToken persists a freshly issued refresh token.
func (s *Service) SaveRefreshToken(ctx context.Context, userID, token string, ttl time.Duration) error {
	rt := &models.RefreshToken{
		UserID:    userID,
		Token:     token,
		ExpiresAt: s.now().Add(ttl).UTC(),
	}
	if err := s.store.CreateRefreshToken(ctx, rt); err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

// ConsumeRefreshToken revokes an active refresh token belonging to userID and
// returns its user, so the caller can issue a rotated pair.
func (s *Service) ConsumeRefreshToken(ctx context.Context, userID, token string) (*models.User, error) {
	stored, err := s.store.FindActiveRefreshToken(ctx, token, s.now())
	if errors.Is(err, ErrNotFound) {
		return nil, unauthorizedf("refresh token not found, expired, or revoked")
	}
	if err != nil {
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	if stored.UserID != userID {
		return nil, unauthorizedf("refresh token does not belong to user")
	}
	if err := s.store.RevokeRefreshToken(ctx, stored.ID); err != nil {
		return nil, fmt.Errorf("revoke refresh token: %w", err)
	}
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", userID, err)
	}
	return user, nil
}

// RevokeRefreshToken invalidates token; unknown or already revoked tokens are
// not an error.
func (s *Service) RevokeRefreshToken(ctx context.Context, token string) error {
	stored, err := s.store.FindActiveRefreshToken(ctx, token, s.now())
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find refresh token: %w", err)
	}
	if err := s.store.RevokeRefreshToken(ctx, stored.ID); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}
