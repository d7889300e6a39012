package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinic-scheduling-server/internal/models"
	"clinic-scheduling-server/internal/scheduling"
)

func seedAppointment(t *testing.T, s *MemoryStore, orgID, doctorID, name string, at time.Time) *models.Appointment {
	t.Helper()
	appt := &models.Appointment{
		DoctorID:       doctorID,
		OrganizationID: orgID,
		PatientName:    name,
		ScheduledAt:    at,
		Reason:         "Checkup",
		Status:         models.StatusScheduled,
	}
	require.NoError(t, s.CreateAppointment(context.Background(), appt))
	return appt
}

func TestMemoryStoreCopiesRecords(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	pid := "patient-1"
	appt := &models.Appointment{OrganizationID: "org", DoctorID: "doc", PatientID: &pid, Status: models.StatusScheduled}
	require.NoError(t, s.CreateAppointment(ctx, appt))
	require.NotEmpty(t, appt.ID)

	appt.Status = models.StatusCancelled
	pid = "someone-else"

	got, err := s.GetAppointment(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusScheduled, got.Status)
	assert.Equal(t, "patient-1", *got.PatientID)

	got.Status = models.StatusCompleted
	again, err := s.GetAppointment(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusScheduled, again.Status)
}

func TestMemoryStoreTransitionCompareAndSet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	appt := seedAppointment(t, s, "org", "doc", "Jane", time.Now())

	var wg sync.WaitGroup
	results := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- s.TransitionAppointment(ctx, appt.ID, scheduling.Transition{
				From: models.StatusScheduled, To: models.StatusCancelled,
			})
		}()
	}
	wg.Wait()
	close(results)

	var ok int
	for err := range results {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, scheduling.ErrInvalidTransition)
	}
	assert.Equal(t, 1, ok)

	err := s.TransitionAppointment(ctx, "missing", scheduling.Transition{From: models.StatusScheduled, To: models.StatusCancelled})
	assert.ErrorIs(t, err, scheduling.ErrNotFound)
}

func TestMemoryStoreUsers(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	doc := &models.User{Email: "doc@x.test", FullName: "Doc", Role: models.RoleDoctor, OrganizationID: "org"}
	require.NoError(t, s.CreateUser(ctx, doc))
	assert.ErrorIs(t, s.CreateUser(ctx, &models.User{Email: "doc@x.test"}), scheduling.ErrValidation)

	other := &models.User{Email: "other@x.test", Role: models.RolePatient}
	require.NoError(t, s.CreateUser(ctx, other))
	other.Email = "doc@x.test"
	assert.ErrorIs(t, s.SaveUser(ctx, other), scheduling.ErrValidation)

	appt := seedAppointment(t, s, "org", doc.ID, "Jane", time.Now())
	require.NoError(t, s.DeleteUser(ctx, doc.ID))
	assert.ErrorIs(t, s.DeleteUser(ctx, doc.ID), scheduling.ErrNotFound)

	_, err := s.GetUser(ctx, doc.ID)
	assert.ErrorIs(t, err, scheduling.ErrNotFound)

	removed, err := s.FindUserByEmail(ctx, "doc@x.test")
	require.NoError(t, err)
	assert.True(t, removed.DeletedAt.Valid)

	doctors, err := s.ListDoctors(ctx, "org")
	require.NoError(t, err)
	assert.Empty(t, doctors)

	got, err := s.GetAppointment(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, "Doc", got.DoctorName)
}

func TestMemoryStoreListAndSearch(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	later := seedAppointment(t, s, "org", "doc", "Jane Doe", base.Add(time.Hour))
	earlier := seedAppointment(t, s, "org", "doc", "JANE DOE", base)
	seedAppointment(t, s, "other", "doc2", "Jane Doe", base)

	list, err := s.ListAppointments(ctx, scheduling.AppointmentFilter{OrganizationID: "org"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, earlier.ID, list[0].ID)
	assert.Equal(t, later.ID, list[1].ID)

	_, err = s.ListAppointments(ctx, scheduling.AppointmentFilter{})
	assert.ErrorIs(t, err, scheduling.ErrValidation)

	for _, a := range []*models.Appointment{later, earlier} {
		require.NoError(t, s.TransitionAppointment(ctx, a.ID, scheduling.Transition{
			From: models.StatusScheduled, To: models.StatusCompleted, Diagnosis: "d", TreatmentNotes: "n",
		}))
	}

	history, err := s.SearchHistory(ctx, "org", "jane")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, later.ID, history[0].ID)
	assert.Equal(t, earlier.ID, history[1].ID)
}

func TestMemoryStoreRefreshTokens(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	rt := &models.RefreshToken{UserID: "u", Token: "tok", ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, s.CreateRefreshToken(ctx, rt))

	found, err := s.FindActiveRefreshToken(ctx, "tok", now)
	require.NoError(t, err)
	assert.Equal(t, rt.ID, found.ID)

	_, err = s.FindActiveRefreshToken(ctx, "tok", now.Add(2*time.Hour))
	assert.ErrorIs(t, err, scheduling.ErrNotFound)

	require.NoError(t, s.RevokeRefreshToken(ctx, rt.ID))
	_, err = s.FindActiveRefreshToken(ctx, "tok", now)
	assert.ErrorIs(t, err, scheduling.ErrNotFound)
}
