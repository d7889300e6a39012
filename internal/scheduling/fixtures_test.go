package scheduling_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"clinic-scheduling-server/internal/models"
	"clinic-scheduling-server/internal/repository"
	"clinic-scheduling-server/internal/scheduling"
	"clinic-scheduling-server/pkg/logging"
)

var checkup = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

// clinic is a seeded world: two organizations, doctors in each, one patient.
type clinic struct {
	store   *repository.MemoryStore
	svc     *scheduling.Service
	org1    *models.Organization
	org2    *models.Organization
	d1      *models.User
	d2      *models.User
	patient *models.User
}

func newClinic(t *testing.T, opts ...scheduling.Option) *clinic {
	t.Helper()
	ctx := context.Background()
	store := repository.NewMemoryStore()

	c := &clinic{store: store, svc: scheduling.NewService(store, logging.Default(), opts...)}
	c.org1 = &models.Organization{Name: "Northside Clinic"}
	c.org2 = &models.Organization{Name: "Southside Clinic"}
	require.NoError(t, store.CreateOrganization(ctx, c.org1))
	require.NoError(t, store.CreateOrganization(ctx, c.org2))

	c.d1 = &models.User{Email: "d1@north.test", FullName: "Dana Reyes", Role: models.RoleDoctor, OrganizationID: c.org1.ID, Specialization: "Cardiology"}
	c.d2 = &models.User{Email: "d2@south.test", FullName: "Omar Patel", Role: models.RoleDoctor, OrganizationID: c.org2.ID, Specialization: "Dermatology"}
	c.patient = &models.User{Email: "jane@example.test", FullName: "Jane Doe", Role: models.RolePatient}
	for _, u := range []*models.User{c.d1, c.d2, c.patient} {
		require.NoError(t, u.SetPassword("password123"))
		require.NoError(t, store.CreateUser(ctx, u))
	}
	return c
}

func (c *clinic) staff(org *models.Organization) scheduling.Caller {
	return scheduling.Caller{UserID: "staff-" + org.ID, Role: models.RoleOrganization, OrganizationID: org.ID}
}

func (c *clinic) doctor(d *models.User) scheduling.Caller {
	return scheduling.Caller{UserID: d.ID, Role: models.RoleDoctor, OrganizationID: d.OrganizationID}
}

func (c *clinic) patientCaller() scheduling.Caller {
	return scheduling.Caller{UserID: c.patient.ID, Role: models.RolePatient}
}

// bookByStaff schedules a visit for a named walk-in patient with d1.
func (c *clinic) bookByStaff(t *testing.T, name string, at time.Time) *models.Appointment {
	t.Helper()
	appt, err := c.svc.CreateAppointment(context.Background(), c.staff(c.org1), scheduling.CreateAppointmentInput{
		DoctorID:       c.d1.ID,
		OrganizationID: c.org1.ID,
		PatientName:    name,
		ScheduledAt:    at,
		Reason:         "Checkup",
	})
	require.NoError(t, err)
	return appt
}

// bookByPatient schedules a visit for the seeded patient with d1.
func (c *clinic) bookByPatient(t *testing.T) *models.Appointment {
	t.Helper()
	appt, err := c.svc.CreateAppointment(context.Background(), c.patientCaller(), scheduling.CreateAppointmentInput{
		DoctorID:       c.d1.ID,
		OrganizationID: c.org1.ID,
		ScheduledAt:    checkup,
		Reason:         "Follow-up",
	})
	require.NoError(t, err)
	return appt
}
