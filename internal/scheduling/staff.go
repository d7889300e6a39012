package scheduling

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"clinic-scheduling-server/internal/models"
)

// CreateDoctorInput describes a new doctor account.
type CreateDoctorInput struct {
	FullName       string `validate:"required"`
	Email          string `validate:"required,email"`
	Password       string `validate:"required,min=8,max=72"`
	Specialization string
	Availability   string
	OrganizationID string `validate:"required"`
}

// DoctorUpdate holds the fields to change; nil leaves a field untouched and
// an empty Password leaves the credential unchanged.
type DoctorUpdate struct {
	FullName       *string
	Email          *string
	Specialization *string
	Availability   *string
	Password       *string
}

// CreateDoctor adds a doctor account to the caller's organization.
func (s *Service) CreateDoctor(ctx context.Context, caller Caller, in CreateDoctorInput) (*models.User, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validate.Struct(in); err != nil {
		return nil, validationf("%v", err)
	}
	if !caller.IsStaffOf(in.OrganizationID) {
		return nil, unauthorizedf("only staff of organization %s can add doctors", in.OrganizationID)
	}
	if _, err := s.store.GetOrganization(ctx, in.OrganizationID); err != nil {
		return nil, fmt.Errorf("organization %s: %w", in.OrganizationID, err)
	}
	if err := s.ensureEmailFree(ctx, in.Email, ""); err != nil {
		return nil, err
	}

	doctor := &models.User{
		Email:          in.Email,
		FullName:       in.FullName,
		Role:           models.RoleDoctor,
		OrganizationID: in.OrganizationID,
		Specialization: strings.TrimSpace(in.Specialization),
		Availability:   strings.TrimSpace(in.Availability),
	}
	if err := s.setPassword(doctor, in.Password); err != nil {
		return nil, err
	}
	if err := s.store.CreateUser(ctx, doctor); err != nil {
		return nil, fmt.Errorf("create doctor: %w", err)
	}
	s.invalidateDirectory(ctx, in.OrganizationID)
	s.logger.Info("doctor created", "doctor_id", doctor.ID, "org_id", in.OrganizationID)
	return doctor, nil
}

// UpdateDoctor edits a doctor of the caller's organization.
func (s *Service) UpdateDoctor(ctx context.Context, caller Caller, doctorID string, upd DoctorUpdate) (*models.User, error) {
	doctor, err := s.staffDoctor(ctx, caller, doctorID)
	if err != nil {
		return nil, err
	}

	if upd.FullName != nil {
		if blank(*upd.FullName) {
			return nil, validationf("full_name cannot be empty")
		}
		doctor.FullName = strings.TrimSpace(*upd.FullName)
	}
	if upd.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*upd.Email))
		if err := validate.Var(email, "required,email"); err != nil {
			return nil, validationf("email is not valid")
		}
		if email != doctor.Email {
			if err := s.ensureEmailFree(ctx, email, doctor.ID); err != nil {
				return nil, err
			}
			doctor.Email = email
		}
	}
	if upd.Specialization != nil {
		doctor.Specialization = strings.TrimSpace(*upd.Specialization)
	}
	if upd.Availability != nil {
		doctor.Availability = strings.TrimSpace(*upd.Availability)
	}
	if upd.Password != nil && *upd.Password != "" {
		if err := s.setPassword(doctor, *upd.Password); err != nil {
			return nil, err
		}
	}

	if err := s.store.SaveUser(ctx, doctor); err != nil {
		return nil, fmt.Errorf("update doctor: %w", err)
	}
	s.invalidateDirectory(ctx, doctor.OrganizationID)
	s.logger.Info("doctor updated", "doctor_id", doctor.ID, "org_id", doctor.OrganizationID)
	return doctor, nil
}

// DeleteDoctor removes a doctor from the directory. Their appointments stay.
func (s *Service) DeleteDoctor(ctx context.Context, caller Caller, doctorID string) error {
	doctor, err := s.staffDoctor(ctx, caller, doctorID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteUser(ctx, doctor.ID); err != nil {
		return fmt.Errorf("delete doctor: %w", err)
	}
	s.invalidateDirectory(ctx, doctor.OrganizationID)
	s.logger.Info("doctor removed", "doctor_id", doctor.ID, "org_id", doctor.OrganizationID)
	return nil
}

// UpdateProfile changes the caller's own display name and, when password is
// non-empty, their credential.
func (s *Service) UpdateProfile(ctx context.Context, caller Caller, userID, fullName, password string) (*models.User, error) {
	if caller.UserID == "" || caller.UserID != userID {
		return nil, unauthorizedf("users can only update their own profile")
	}
	if blank(fullName) {
		return nil, validationf("full_name is required")
	}
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", userID, err)
	}

	user.FullName = strings.TrimSpace(fullName)
	if password != "" {
		if err := s.setPassword(user, password); err != nil {
			return nil, err
		}
	}
	if err := s.store.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if user.Role == models.RoleDoctor {
		s.invalidateDirectory(ctx, user.OrganizationID)
	}
	return user, nil
}

func (s *Service) staffDoctor(ctx context.Context, caller Caller, doctorID string) (*models.User, error) {
	if caller.Role != models.RoleOrganization {
		return nil, unauthorizedf("only clinic staff can manage doctors")
	}
	doctor, err := s.store.GetUser(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("doctor %s: %w", doctorID, err)
	}
	if doctor.Role != models.RoleDoctor {
		return nil, fmt.Errorf("doctor %s: %w", doctorID, ErrNotFound)
	}
	if !caller.IsStaffOf(doctor.OrganizationID) {
		return nil, unauthorizedf("doctor %s belongs to another organization", doctorID)
	}
	return doctor, nil
}

func (s *Service) ensureEmailFree(ctx context.Context, email, selfID string) error {
	existing, err := s.store.FindUserByEmail(ctx, email)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("check email: %w", err)
	case existing.ID != selfID:
		return validationf("email %s is already in use", email)
	}
	return nil
}

// setPassword measures bytes, which is what bcrypt limits; validator's
// max counts runes.
func (s *Service) setPassword(user *models.User, password string) error {
	if len(password) < minPasswordLength {
		return validationf("password must be at least %d characters", minPasswordLength)
	}
	if len(password) > maxPasswordLength {
		return validationf("password must be at most %d bytes", maxPasswordLength)
	}
	if err := user.SetPassword(password); err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return nil
}

func (s *Service) invalidateDirectory(ctx context.Context, orgID string) {
	s.cache.Invalidate(ctx, orgID)
	if orgID != "" {
		s.cache.Invalidate(ctx, "")
	}
}
