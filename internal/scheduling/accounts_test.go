package scheduling_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinic-scheduling-server/internal/metrics"
	"clinic-scheduling-server/internal/models"
	"clinic-scheduling-server/internal/repository"
	"clinic-scheduling-server/internal/scheduling"
)

func TestRegister(t *testing.T) {
	c := newClinic(t)
	ctx := context.Background()

	owner, err := c.svc.Register(ctx, scheduling.RegisterInput{
		FullName: "Pat Owner", Email: "owner@east.test", Password: "password123",
		Role: models.RoleOrganization, OrganizationName: "Eastside Clinic",
	})
	require.NoError(t, err)
	require.NotEmpty(t, owner.OrganizationID)
	org, err := c.store.GetOrganization(ctx, owner.OrganizationID)
	require.NoError(t, err)
	assert.Equal(t, "Eastside Clinic", org.Name)

	patient, err := c.svc.Register(ctx, scheduling.RegisterInput{
		FullName: "Sam Patient", Email: "sam@example.test", Password: "password123", Role: models.RolePatient,
	})
	require.NoError(t, err)
	assert.Empty(t, patient.OrganizationID)

	tests := []struct {
		name string
		in   scheduling.RegisterInput
	}{
		{"duplicate email", scheduling.RegisterInput{FullName: "A", Email: "SAM@example.test", Password: "password123", Role: models.RolePatient}},
		{"doctor self sign-up", scheduling.RegisterInput{FullName: "A", Email: "a@example.test", Password: "password123", Role: models.RoleDoctor}},
		{"organization without name", scheduling.RegisterInput{FullName: "A", Email: "b@example.test", Password: "password123", Role: models.RoleOrganization}},
		{"short password", scheduling.RegisterInput{FullName: "A", Email: "c@example.test", Password: "pw", Role: models.RolePatient}},
		{"multibyte password over bcrypt limit", scheduling.RegisterInput{FullName: "A", Email: "e@example.test", Password: strings.Repeat("é", 40), Role: models.RolePatient}},
		{"password over bcrypt limit", scheduling.RegisterInput{FullName: "A", Email: "d@example.test", Password: strings.Repeat("a", 73), Role: models.RolePatient}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.svc.Register(ctx, tt.in)
			assert.ErrorIs(t, err, scheduling.ErrValidation)
		})
	}
}

func TestAuthenticate(t *testing.T) {
	c := newClinic(t)
	ctx := context.Background()

	user, err := c.svc.Authenticate(ctx, " JANE@example.test ", "password123")
	require.NoError(t, err)
	assert.Equal(t, c.patient.ID, user.ID)

	_, err = c.svc.Authenticate(ctx, "jane@example.test", "wrong-password")
	assert.ErrorIs(t, err, scheduling.ErrUnauthorized)
	_, err = c.svc.Authenticate(ctx, "nobody@example.test", "password123")
	assert.ErrorIs(t, err, scheduling.ErrUnauthorized)
}

func TestRefreshTokenRotation(t *testing.T) {
	store := repository.NewMemoryStore()
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := scheduling.NewService(store, nil, scheduling.WithClock(func() time.Time { return now }))
	ctx := context.Background()

	user, err := svc.Register(ctx, scheduling.RegisterInput{
		FullName: "Sam", Email: "sam@example.test", Password: "password123", Role: models.RolePatient,
	})
	require.NoError(t, err)

	require.NoError(t, svc.SaveRefreshToken(ctx, user.ID, "token-1", time.Hour))

	_, err = svc.ConsumeRefreshToken(ctx, "someone-else", "token-1")
	assert.ErrorIs(t, err, scheduling.ErrUnauthorized)

	got, err := svc.ConsumeRefreshToken(ctx, user.ID, "token-1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.ConsumeRefreshToken(ctx, user.ID, "token-1")
	assert.ErrorIs(t, err, scheduling.ErrUnauthorized, "a consumed token cannot be reused")

	require.NoError(t, svc.SaveRefreshToken(ctx, user.ID, "token-2", time.Hour))
	now = now.Add(2 * time.Hour)
	_, err = svc.ConsumeRefreshToken(ctx, user.ID, "token-2")
	assert.ErrorIs(t, err, scheduling.ErrUnauthorized, "expired")

	require.NoError(t, svc.SaveRefreshToken(ctx, user.ID, "token-3", time.Hour))
	require.NoError(t, svc.RevokeRefreshToken(ctx, "token-3"))
	require.NoError(t, svc.RevokeRefreshToken(ctx, "token-3"))
	_, err = svc.ConsumeRefreshToken(ctx, user.ID, "token-3")
	assert.ErrorIs(t, err, scheduling.ErrUnauthorized)
}

func TestTransitionMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg, scheduling.Classify)
	c := newClinic(t, scheduling.WithMetrics(m))
	ctx := context.Background()

	appt := c.bookByStaff(t, "Jane Doe", checkup)
	_, err := c.svc.CancelAppointment(ctx, c.staff(c.org1), appt.ID)
	require.NoError(t, err)
	_, err = c.svc.CancelAppointment(ctx, c.staff(c.org1), appt.ID)
	require.ErrorIs(t, err, scheduling.ErrInvalidTransition)

	assert.Equal(t, 3, testutil.CollectAndCount(reg, "clinic_appointments_transitions_total"))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, metrics.OutcomeOK},
		{scheduling.ErrValidation, metrics.OutcomeValidation},
		{scheduling.ErrInvalidTransition, metrics.OutcomeInvalidTransition},
		{scheduling.ErrNotFound, metrics.OutcomeNotFound},
		{scheduling.ErrUnauthorized, metrics.OutcomeUnauthorized},
		{errors.New("disk on fire"), metrics.OutcomeError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, scheduling.Classify(tt.err))
	}
}

func TestNewServicePanicsWithoutStore(t *testing.T) {
	assert.Panics(t, func() { scheduling.NewService(nil, nil) })
}
