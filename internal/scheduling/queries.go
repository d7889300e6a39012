package scheduling

import (
	"context"
	"fmt"
	"strings"
	"time"

	"clinic-scheduling-server/internal/models"
)

// HistoryEntry is a read projection of one completed appointment.
type HistoryEntry struct {
	AppointmentID  string    `json:"appointment_id"`
	Date           time.Time `json:"date"`
	PatientName    string    `json:"patient_name"`
	DoctorName     string    `json:"doctor_name"`
	Diagnosis      string    `json:"diagnosis"`
	TreatmentNotes string    `json:"treatment_notes"`
}

// ListAppointmentsByOrganization lists every appointment booked under orgID.
func (s *Service) ListAppointmentsByOrganization(ctx context.Context, caller Caller, orgID string) ([]models.Appointment, error) {
	if !caller.IsStaffOf(orgID) {
		return nil, unauthorizedf("only staff of organization %s can list its appointments", orgID)
	}
	return s.listAppointments(ctx, AppointmentFilter{OrganizationID: orgID})
}

// ListAppointmentsByDoctor lists a doctor's schedule for the doctor or their
// organization's staff.
func (s *Service) ListAppointmentsByDoctor(ctx context.Context, caller Caller, doctorID string) ([]models.Appointment, error) {
	if !caller.IsDoctor(doctorID) {
		if caller.Role != models.RoleOrganization {
			return nil, unauthorizedf("cannot view another doctor's schedule")
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
	}
	return s.listAppointments(ctx, AppointmentFilter{DoctorID: doctorID})
}

// ListAppointmentsByPatient lists the appointments a patient booked.
func (s *Service) ListAppointmentsByPatient(ctx context.Context, caller Caller, patientID string) ([]models.Appointment, error) {
	if !caller.IsPatient(patientID) {
		return nil, unauthorizedf("patients can only view their own appointments")
	}
	return s.listAppointments(ctx, AppointmentFilter{PatientID: patientID})
}

func (s *Service) listAppointments(ctx context.Context, filter AppointmentFilter) ([]models.Appointment, error) {
	appts, err := s.store.ListAppointments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	if appts == nil {
		appts = []models.Appointment{}
	}
	return appts, nil
}

// ListDoctors lists doctors of orgID (all organizations when empty), keeping
// only those whose full name or specialization contains filter,
// case-insensitively. Store order is preserved.
func (s *Service) ListDoctors(ctx context.Context, caller Caller, orgID, filter string) ([]models.User, error) {
	if caller.UserID == "" {
		return nil, unauthorizedf("authentication required")
	}

	doctors, ok := s.cache.GetDoctors(ctx, orgID)
	if !ok {
		var err error
		doctors, err = s.store.ListDoctors(ctx, orgID)
		if err != nil {
			return nil, fmt.Errorf("list doctors: %w", err)
		}
		s.cache.SetDoctors(ctx, orgID, doctors)
	}
	return FilterDoctors(doctors, filter), nil
}

// FilterDoctors keeps doctors whose full name or specialization contains
// filter, ignoring case. A blank filter keeps everyone.
func FilterDoctors(doctors []models.User, filter string) []models.User {
	needle := strings.ToLower(strings.TrimSpace(filter))
	out := make([]models.User, 0, len(doctors))
	for _, d := range doctors {
		if needle == "" ||
			strings.Contains(strings.ToLower(d.FullName), needle) ||
			strings.Contains(strings.ToLower(d.Specialization), needle) {
			out = append(out, d)
		}
	}
	return out
}

// SearchPatientHistory returns completed visits of patients whose name
// matches patientName within the caller's organization.
func (s *Service) SearchPatientHistory(ctx context.Context, caller Caller, patientName string) ([]HistoryEntry, error) {
	if caller.Role != models.RoleDoctor && caller.Role != models.RoleOrganization {
		return nil, unauthorizedf("only doctors and clinic staff can search patient history")
	}
	if caller.OrganizationID == "" {
		return nil, unauthorizedf("caller has no organization")
	}
	if blank(patientName) {
		return nil, validationf("patient name is required")
	}

	appts, err := s.store.SearchHistory(ctx, caller.OrganizationID, strings.TrimSpace(patientName))
	if err != nil {
		return nil, fmt.Errorf("search history: %w", err)
	}
	entries := make([]HistoryEntry, 0, len(appts))
	for _, a := range appts {
		entries = append(entries, HistoryEntry{
			AppointmentID:  a.ID,
			Date:           a.ScheduledAt,
			PatientName:    a.PatientName,
			DoctorName:     a.DoctorName,
			Diagnosis:      a.Diagnosis,
			TreatmentNotes: a.TreatmentNotes,
		})
	}
	return entries, nil
}
