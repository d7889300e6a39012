package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"clinic-scheduling-server/internal/models"
	"clinic-scheduling-server/internal/scheduling"
)

// MemoryStore is a process-local Store for development and tests. Every
// method copies records in and out, so callers never share memory with it.
type MemoryStore struct {
	mu            sync.RWMutex
	now           func() time.Time
	orgs          map[string]models.Organization
	users         map[string]models.User
	userOrder     []string
	appointments  map[string]models.Appointment
	apptOrder     []string
	refreshTokens map[string]models.RefreshToken
}

var _ scheduling.Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:           func() time.Time { return time.Now().UTC() },
		orgs:          make(map[string]models.Organization),
		users:         make(map[string]models.User),
		appointments:  make(map[string]models.Appointment),
		refreshTokens: make(map[string]models.RefreshToken),
	}
}

func (m *MemoryStore) stamp(base *models.BaseModel) {
	if base.ID == "" {
		base.ID = uuid.New().String()
	}
	now := m.now()
	if base.CreatedAt.IsZero() {
		base.CreatedAt = now
	}
	base.UpdatedAt = now
}

func (m *MemoryStore) GetOrganization(_ context.Context, id string) (*models.Organization, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	org, ok := m.orgs[id]
	if !ok {
		return nil, fmt.Errorf("organization: %w", scheduling.ErrNotFound)
	}
	return &org, nil
}

func (m *MemoryStore) CreateOrganization(_ context.Context, org *models.Organization) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stamp(&org.BaseModel)
	if _, exists := m.orgs[org.ID]; exists {
		return fmt.Errorf("organization %s already exists", org.ID)
	}
	m.orgs[org.ID] = *org
	return nil
}

func (m *MemoryStore) GetUser(_ context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok || user.DeletedAt.Valid {
		return nil, fmt.Errorf("user: %w", scheduling.ErrNotFound)
	}
	return &user, nil
}

func (m *MemoryStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range m.userOrder {
		if user := m.users[id]; user.Email == email {
			return &user, nil
		}
	}
	return nil, fmt.Errorf("user: %w", scheduling.ErrNotFound)
}

func (m *MemoryStore) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return fmt.Errorf("%w: email %s is already in use", scheduling.ErrValidation, user.Email)
		}
	}
	m.stamp(&user.BaseModel)
	if _, exists := m.users[user.ID]; exists {
		return fmt.Errorf("user %s already exists", user.ID)
	}
	stored := *user
	stored.RefreshTokens = nil
	m.users[user.ID] = stored
	m.userOrder = append(m.userOrder, user.ID)
	return nil
}

func (m *MemoryStore) SaveUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, existing := range m.users {
		if id != user.ID && existing.Email == user.Email {
			return fmt.Errorf("%w: email %s is already in use", scheduling.ErrValidation, user.Email)
		}
	}
	if _, exists := m.users[user.ID]; !exists {
		m.userOrder = append(m.userOrder, user.ID)
	}
	m.stamp(&user.BaseModel)
	stored := *user
	stored.RefreshTokens = nil
	m.users[user.ID] = stored
	return nil
}

func (m *MemoryStore) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok || user.DeletedAt.Valid {
		return fmt.Errorf("user: %w", scheduling.ErrNotFound)
	}
	user.DeletedAt = gorm.DeletedAt{Time: m.now(), Valid: true}
	m.users[id] = user
	return nil
}

func (m *MemoryStore) ListDoctors(_ context.Context, orgID string) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var doctors []models.User
	for _, id := range m.userOrder {
		user := m.users[id]
		if user.Role != models.RoleDoctor || user.DeletedAt.Valid {
			continue
		}
		if orgID != "" && user.OrganizationID != orgID {
			continue
		}
		doctors = append(doctors, user)
	}
	return doctors, nil
}

func (m *MemoryStore) CreateAppointment(_ context.Context, appt *models.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stamp(&appt.BaseModel)
	if _, exists := m.appointments[appt.ID]; exists {
		return fmt.Errorf("appointment %s already exists", appt.ID)
	}
	m.appointments[appt.ID] = copyAppointment(*appt)
	m.apptOrder = append(m.apptOrder, appt.ID)
	return nil
}

func (m *MemoryStore) GetAppointment(_ context.Context, id string) (*models.Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	appt, ok := m.appointments[id]
	if !ok {
		return nil, fmt.Errorf("appointment: %w", scheduling.ErrNotFound)
	}
	out := m.withDoctorName(appt)
	return &out, nil
}

func (m *MemoryStore) TransitionAppointment(_ context.Context, id string, t scheduling.Transition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	appt, ok := m.appointments[id]
	if !ok {
		return fmt.Errorf("appointment: %w", scheduling.ErrNotFound)
	}
	if appt.Status != t.From {
		return fmt.Errorf("%w: appointment is no longer %s", scheduling.ErrInvalidTransition, t.From)
	}
	appt.Status = t.To
	appt.Diagnosis = t.Diagnosis
	appt.TreatmentNotes = t.TreatmentNotes
	appt.UpdatedAt = m.now()
	m.appointments[id] = appt
	return nil
}

func (m *MemoryStore) ListAppointments(_ context.Context, filter scheduling.AppointmentFilter) ([]models.Appointment, error) {
	var match func(models.Appointment) bool
	switch {
	case filter.OrganizationID != "":
		match = func(a models.Appointment) bool { return a.OrganizationID == filter.OrganizationID }
	case filter.DoctorID != "":
		match = func(a models.Appointment) bool { return a.DoctorID == filter.DoctorID }
	case filter.PatientID != "":
		match = func(a models.Appointment) bool { return a.BookedBy(filter.PatientID) }
	default:
		return nil, fmt.Errorf("%w: appointment filter is empty", scheduling.ErrValidation)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Appointment
	for _, id := range m.apptOrder {
		if appt := m.appointments[id]; match(appt) {
			out = append(out, m.withDoctorName(appt))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ScheduledAt.Before(out[j].ScheduledAt)
	})
	return out, nil
}

func (m *MemoryStore) SearchHistory(_ context.Context, orgID, name string) ([]models.Appointment, error) {
	needle := strings.ToLower(name)

	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Appointment
	for _, id := range m.apptOrder {
		appt := m.appointments[id]
		if appt.OrganizationID != orgID || appt.Status != models.StatusCompleted {
			continue
		}
		if !strings.Contains(strings.ToLower(appt.PatientName), needle) {
			continue
		}
		out = append(out, m.withDoctorName(appt))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ScheduledAt.After(out[j].ScheduledAt)
	})
	return out, nil
}

func (m *MemoryStore) CreateRefreshToken(_ context.Context, token *models.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stamp(&token.BaseModel)
	m.refreshTokens[token.ID] = *token
	return nil
}

func (m *MemoryStore) FindActiveRefreshToken(_ context.Context, token string, now time.Time) (*models.RefreshToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, rt := range m.refreshTokens {
		if rt.Token == token && !rt.IsRevoked && rt.ExpiresAt.After(now) {
			return &rt, nil
		}
	}
	return nil, fmt.Errorf("refresh token: %w", scheduling.ErrNotFound)
}

func (m *MemoryStore) RevokeRefreshToken(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rt, ok := m.refreshTokens[id]
	if !ok {
		return nil
	}
	rt.IsRevoked = true
	m.refreshTokens[id] = rt
	return nil
}

// withDoctorName must be called with the lock held.
func (m *MemoryStore) withDoctorName(appt models.Appointment) models.Appointment {
	out := copyAppointment(appt)
	if doctor, ok := m.users[appt.DoctorID]; ok {
		out.DoctorName = doctor.FullName
	}
	return out
}

func copyAppointment(appt models.Appointment) models.Appointment {
	if appt.PatientID != nil {
		id := *appt.PatientID
		appt.PatientID = &id
	}
	appt.Doctor = models.User{}
	appt.Organization = models.Organization{}
	return appt
}
