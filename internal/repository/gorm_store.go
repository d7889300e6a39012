package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"clinic-scheduling-server/internal/models"
	"clinic-scheduling-server/internal/scheduling"
)

// GormStore persists scheduling data through gorm (MySQL or PostgreSQL).
type GormStore struct {
	db *gorm.DB
}

var _ scheduling.Store = (*GormStore)(nil)

// NewGormStore wraps an open gorm connection.
func NewGormStore(db *gorm.DB) *GormStore {
	if db == nil {
		panic("repository: gorm db required")
	}
	return &GormStore{db: db}
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, scheduling.ErrNotFound)
	}
	return err
}

// unscopedDoctor loads removed doctors too so history keeps their names.
func unscopedDoctor(tx *gorm.DB) *gorm.DB {
	return tx.Unscoped()
}

func (s *GormStore) GetOrganization(ctx context.Context, id string) (*models.Organization, error) {
	var org models.Organization
	if err := s.db.WithContext(ctx).First(&org, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "organization")
	}
	return &org, nil
}

func (s *GormStore) CreateOrganization(ctx context.Context, org *models.Organization) error {
	return s.db.WithContext(ctx).Create(org).Error
}

func (s *GormStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}

// FindUserByEmail includes removed accounts: their email stays reserved.
func (s *GormStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Unscoped().Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	return duplicateEmail(s.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error, user.Email)
}

func (s *GormStore) SaveUser(ctx context.Context, user *models.User) error {
	return duplicateEmail(s.db.WithContext(ctx).Omit(clause.Associations).Save(user).Error, user.Email)
}

// duplicateEmail needs TranslateError on the gorm config to see
// gorm.ErrDuplicatedKey from the unique email index.
func duplicateEmail(err error, email string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: email %s is already in use", scheduling.ErrValidation, email)
	}
	return err
}

func (s *GormStore) DeleteUser(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user: %w", scheduling.ErrNotFound)
	}
	return nil
}

func (s *GormStore) ListDoctors(ctx context.Context, orgID string) ([]models.User, error) {
	query := s.db.WithContext(ctx).Where("role = ?", string(models.RoleDoctor))
	if orgID != "" {
		query = query.Where("organization_id = ?", orgID)
	}
	var doctors []models.User
	if err := query.Order("created_at asc").Order("id asc").Find(&doctors).Error; err != nil {
		return nil, err
	}
	return doctors, nil
}

func (s *GormStore) CreateAppointment(ctx context.Context, appt *models.Appointment) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(appt).Error
}

func (s *GormStore) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	var appt models.Appointment
	err := s.db.WithContext(ctx).
		Preload("Doctor", unscopedDoctor).
		First(&appt, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, "appointment")
	}
	appt.DoctorName = appt.Doctor.FullName
	return &appt, nil
}

// TransitionAppointment is a single conditional UPDATE; the status predicate
// is what serializes concurrent transitions.
func (s *GormStore) TransitionAppointment(ctx context.Context, id string, t scheduling.Transition) error {
	res := s.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("id = ? AND status = ?", id, string(t.From)).
		Updates(map[string]any{
			"status":          string(t.To),
			"diagnosis":       t.Diagnosis,
			"treatment_notes": t.TreatmentNotes,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Appointment{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("appointment: %w", scheduling.ErrNotFound)
	}
	return fmt.Errorf("%w: appointment is no longer %s", scheduling.ErrInvalidTransition, t.From)
}

func (s *GormStore) ListAppointments(ctx context.Context, filter scheduling.AppointmentFilter) ([]models.Appointment, error) {
	query := s.db.WithContext(ctx).Preload("Doctor", unscopedDoctor)
	switch {
	case filter.OrganizationID != "":
		query = query.Where("organization_id = ?", filter.OrganizationID)
	case filter.DoctorID != "":
		query = query.Where("doctor_id = ?", filter.DoctorID)
	case filter.PatientID != "":
		query = query.Where("patient_id = ?", filter.PatientID)
	default:
		return nil, fmt.Errorf("%w: appointment filter is empty", scheduling.ErrValidation)
	}

	var appts []models.Appointment
	if err := query.Order("scheduled_at asc").Find(&appts).Error; err != nil {
		return nil, err
	}
	fillDoctorNames(appts)
	return appts, nil
}

func (s *GormStore) SearchHistory(ctx context.Context, orgID, name string) ([]models.Appointment, error) {
	pattern := "%" + escapeLike(strings.ToLower(name)) + "%"
	var appts []models.Appointment
	err := s.db.WithContext(ctx).
		Preload("Doctor", unscopedDoctor).
		Where("organization_id = ? AND status = ? AND LOWER(patient_name) LIKE ?",
			orgID, string(models.StatusCompleted), pattern).
		Order("scheduled_at desc").
		Find(&appts).Error
	if err != nil {
		return nil, err
	}
	fillDoctorNames(appts)
	return appts, nil
}

func (s *GormStore) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	return s.db.WithContext(ctx).Create(token).Error
}

func (s *GormStore) FindActiveRefreshToken(ctx context.Context, token string, now time.Time) (*models.RefreshToken, error) {
	var stored models.RefreshToken
	err := s.db.WithContext(ctx).
		Where("token = ? AND is_revoked = ? AND expires_at > ?", token, false, now).
		First(&stored).Error
	if err != nil {
		return nil, notFound(err, "refresh token")
	}
	return &stored, nil
}

func (s *GormStore) RevokeRefreshToken(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("id = ?", id).
		Update("is_revoked", true).Error
}

func fillDoctorNames(appts []models.Appointment) {
	for i := range appts {
		appts[i].DoctorName = appts[i].Doctor.FullName
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
