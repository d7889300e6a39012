package scheduling

import (
	"context"
	"time"

	"clinic-scheduling-server/internal/models"
)

// AppointmentFilter selects appointments by exactly one owner reference.
type AppointmentFilter struct {
	OrganizationID string
	DoctorID       string
	PatientID      string
}

// Transition describes a compare-and-set on an appointment's status.
// Diagnosis and TreatmentNotes are written in the same statement as Status.
type Transition struct {
	From           models.AppointmentStatus
	To             models.AppointmentStatus
	Diagnosis      string
	TreatmentNotes string
}

// Store is the persistence boundary of the scheduling service. Lookups
// return ErrNotFound when the record does not exist.
type Store interface {
	GetOrganization(ctx context.Context, id string) (*models.Organization, error)
	CreateOrganization(ctx context.Context, org *models.Organization) error

	GetUser(ctx context.Context, id string) (*models.User, error)
	// FindUserByEmail includes removed users, whose email stays reserved.
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	SaveUser(ctx context.Context, user *models.User) error
	// DeleteUser soft-deletes; removed users no longer resolve via GetUser.
	DeleteUser(ctx context.Context, id string) error
	// ListDoctors returns doctors of orgID in creation order; an empty orgID
	// lists every organization.
	ListDoctors(ctx context.Context, orgID string) ([]models.User, error)

	CreateAppointment(ctx context.Context, appt *models.Appointment) error
	GetAppointment(ctx context.Context, id string) (*models.Appointment, error)
	// TransitionAppointment applies t only if the stored status still equals
	// t.From. It returns ErrInvalidTransition when another writer got there
	// first and ErrNotFound when the appointment does not exist.
	TransitionAppointment(ctx context.Context, id string, t Transition) error
	ListAppointments(ctx context.Context, filter AppointmentFilter) ([]models.Appointment, error)
	// SearchHistory returns completed appointments of orgID whose patient name
	// contains name, case-insensitively, newest first.
	SearchHistory(ctx context.Context, orgID, name string) ([]models.Appointment, error)

	CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error
	FindActiveRefreshToken(ctx context.Context, token string, now time.Time) (*models.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, id string) error
}

// DirectoryCache caches unfiltered doctor listings per organization key.
// Implementations must treat every error as a miss.
type DirectoryCache interface {
	GetDoctors(ctx context.Context, orgID string) ([]models.User, bool)
	SetDoctors(ctx context.Context, orgID string, doctors []models.User)
	Invalidate(ctx context.Context, orgID string)
}

type noopCache struct{}

func (noopCache) GetDoctors(context.Context, string) ([]models.User, bool) { return nil, false }
func (noopCache) SetDoctors(context.Context, string, []models.User)        {}
func (noopCache) Invalidate(context.Context, string)                       {}
