package scheduling

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"clinic-scheduling-server/internal/models"
)

// CreateAppointmentInput carries the data needed to book a visit.
// PatientID is set when a patient books for themselves; staff booking on a
// patient's behalf supply PatientName instead.
type CreateAppointmentInput struct {
	DoctorID       string
	OrganizationID string
	PatientID      string
	PatientName    string
	ScheduledAt    time.Time
	Reason         string
}

// CreateAppointment books a new appointment in Scheduled state.
func (s *Service) CreateAppointment(ctx context.Context, caller Caller, in CreateAppointmentInput) (*models.Appointment, error) {
	ctx, span := tracer.Start(ctx, "scheduling.create_appointment")
	defer span.End()
	span.SetAttributes(
		attribute.String("clinic.org_id", in.OrganizationID),
		attribute.String("clinic.doctor_id", in.DoctorID),
	)

	appt, err := s.createAppointment(ctx, caller, in)
	s.metrics.ObserveTransition("create", err)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.logger.Info("appointment scheduled",
		"appointment_id", appt.ID,
		"org_id", appt.OrganizationID,
		"doctor_id", appt.DoctorID,
		"booked_by", caller.UserID,
	)
	return appt, nil
}

func (s *Service) createAppointment(ctx context.Context, caller Caller, in CreateAppointmentInput) (*models.Appointment, error) {
	if blank(in.DoctorID) {
		return nil, validationf("doctor_id is required")
	}
	if blank(in.OrganizationID) {
		return nil, validationf("organization_id is required")
	}
	if in.ScheduledAt.IsZero() {
		return nil, validationf("date_time is required")
	}
	if blank(in.Reason) {
		return nil, validationf("reason is required")
	}

	appt := &models.Appointment{
		DoctorID:       in.DoctorID,
		OrganizationID: in.OrganizationID,
		ScheduledAt:    in.ScheduledAt.UTC(),
		Reason:         strings.TrimSpace(in.Reason),
		Status:         models.StatusScheduled,
	}

	switch caller.Role {
	case models.RolePatient:
		if in.PatientID != "" && in.PatientID != caller.UserID {
			return nil, unauthorizedf("patients can only book appointments for themselves")
		}
		patient, err := s.store.GetUser(ctx, caller.UserID)
		if err != nil {
			return nil, fmt.Errorf("load patient: %w", err)
		}
		patientID := patient.ID
		appt.PatientID = &patientID
		appt.PatientName = patient.FullName
		if !blank(in.PatientName) {
			appt.PatientName = strings.TrimSpace(in.PatientName)
		}
	case models.RoleOrganization:
		if !caller.IsStaffOf(in.OrganizationID) {
			return nil, unauthorizedf("staff can only book within their own organization")
		}
		if blank(in.PatientName) {
			return nil, validationf("patient_name is required")
		}
		appt.PatientName = strings.TrimSpace(in.PatientName)
		if in.PatientID != "" {
			patient, err := s.store.GetUser(ctx, in.PatientID)
			if err != nil {
				return nil, fmt.Errorf("patient %s: %w", in.PatientID, err)
			}
			if patient.Role != models.RolePatient {
				return nil, validationf("user %s is not a patient", in.PatientID)
			}
			patientID := patient.ID
			appt.PatientID = &patientID
		}
	default:
		return nil, unauthorizedf("role %q cannot book appointments", caller.Role)
	}

	if _, err := s.store.GetOrganization(ctx, in.OrganizationID); err != nil {
		return nil, fmt.Errorf("organization %s: %w", in.OrganizationID, err)
	}
	doctor, err := s.store.GetUser(ctx, in.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("doctor %s: %w", in.DoctorID, err)
	}
	if doctor.Role != models.RoleDoctor {
		return nil, fmt.Errorf("doctor %s: %w", in.DoctorID, ErrNotFound)
	}
	if doctor.OrganizationID != in.OrganizationID {
		return nil, validationf("doctor %s does not belong to organization %s", in.DoctorID, in.OrganizationID)
	}

	if err := s.store.CreateAppointment(ctx, appt); err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}
	appt.DoctorName = doctor.FullName
	return appt, nil
}

// CompleteAppointment records the visit outcome. Only the assigned doctor may
// complete, only from Scheduled, and both diagnosis and notes are required.
func (s *Service) CompleteAppointment(ctx context.Context, caller Caller, id, diagnosis, treatmentNotes string) (*models.Appointment, error) {
	ctx, span := tracer.Start(ctx, "scheduling.complete_appointment")
	defer span.End()
	span.SetAttributes(attribute.String("clinic.appointment_id", id))

	appt, err := s.transition(ctx, id,
		func(appt *models.Appointment) error {
			if !caller.IsDoctor(appt.DoctorID) {
				return unauthorizedf("only the assigned doctor can complete this appointment")
			}
			// tokens outlive removal; the doctor must still resolve
			_, err := s.store.GetUser(ctx, caller.UserID)
			if errors.Is(err, ErrNotFound) {
				return unauthorizedf("doctor %s is no longer active", caller.UserID)
			}
			if err != nil {
				return fmt.Errorf("load doctor: %w", err)
			}
			return nil
		},
		func() (Transition, error) {
			if blank(diagnosis) {
				return Transition{}, validationf("diagnosis is required")
			}
			if blank(treatmentNotes) {
				return Transition{}, validationf("treatment_notes is required")
			}
			return Transition{
				From:           models.StatusScheduled,
				To:             models.StatusCompleted,
				Diagnosis:      strings.TrimSpace(diagnosis),
				TreatmentNotes: strings.TrimSpace(treatmentNotes),
			}, nil
		},
	)
	s.metrics.ObserveTransition("complete", err)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.logger.Info("appointment completed", "appointment_id", id, "doctor_id", caller.UserID)
	return appt, nil
}

// CancelAppointment cancels a Scheduled appointment on behalf of the booking
// patient or staff of the owning organization.
func (s *Service) CancelAppointment(ctx context.Context, caller Caller, id string) (*models.Appointment, error) {
	ctx, span := tracer.Start(ctx, "scheduling.cancel_appointment")
	defer span.End()
	span.SetAttributes(attribute.String("clinic.appointment_id", id))

	appt, err := s.transition(ctx, id,
		func(appt *models.Appointment) error {
			if caller.IsStaffOf(appt.OrganizationID) {
				return nil
			}
			if caller.Role == models.RolePatient && appt.BookedBy(caller.UserID) {
				return nil
			}
			return unauthorizedf("only the booking patient or clinic staff can cancel this appointment")
		},
		func() (Transition, error) {
			return Transition{From: models.StatusScheduled, To: models.StatusCancelled}, nil
		},
	)
	s.metrics.ObserveTransition("cancel", err)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.logger.Info("appointment cancelled", "appointment_id", id, "cancelled_by", caller.UserID)
	return appt, nil
}

// transition runs the shared checks in a fixed order: existence, authority,
// current state, then input. Nothing is written unless all pass, and the
// write itself is conditional on the status read here.
func (s *Service) transition(
	ctx context.Context,
	id string,
	authorize func(*models.Appointment) error,
	build func() (Transition, error),
) (*models.Appointment, error) {
	if blank(id) {
		return nil, validationf("appointment id is required")
	}
	appt, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("appointment %s: %w", id, err)
	}
	if err := authorize(appt); err != nil {
		return nil, err
	}
	if appt.Status.Terminal() {
		return nil, fmt.Errorf("%w: appointment %s is %s", ErrInvalidTransition, id, appt.Status)
	}
	t, err := build()
	if err != nil {
		return nil, err
	}
	if err := s.store.TransitionAppointment(ctx, id, t); err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			s.logger.Warn("appointment transition lost race", "appointment_id", id, "to", string(t.To))
		}
		return nil, fmt.Errorf("appointment %s: %w", id, err)
	}
	updated, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload appointment %s: %w", id, err)
	}
	return updated, nil
}

// GetAppointment returns one appointment if the caller is a party to it.
func (s *Service) GetAppointment(ctx context.Context, caller Caller, id string) (*models.Appointment, error) {
	appt, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("appointment %s: %w", id, err)
	}
	if !caller.canView(appt) {
		return nil, unauthorizedf("you are not authorized to view this appointment")
	}
	return appt, nil
}
