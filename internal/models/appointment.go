package models

import (
	"time"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "Scheduled"
	StatusCompleted AppointmentStatus = "Completed"
	StatusCancelled AppointmentStatus = "Cancelled"
)

// Terminal reports whether no further transition is allowed from s.
func (s AppointmentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Appointment is a visit between a patient and a doctor within an
// organization. PatientID is empty when staff booked on behalf of a named
// patient.
type Appointment struct {
	BaseModel
	DoctorID       string            `gorm:"size:36;not null;index" json:"doctor_id"`
	OrganizationID string            `gorm:"size:36;not null;index" json:"organization_id"`
	PatientID      *string           `gorm:"size:36;index" json:"patient_id,omitempty"`
	PatientName    string            `gorm:"size:200;not null;index" json:"patient_name"`
	ScheduledAt    time.Time         `gorm:"not null;index" json:"date_time"`
	Reason         string            `gorm:"type:text;not null" json:"reason"`
	Status         AppointmentStatus `gorm:"size:20;not null;default:'Scheduled';index" json:"status"`
	Diagnosis      string            `gorm:"type:text" json:"diagnosis,omitempty"`
	TreatmentNotes string            `gorm:"type:text" json:"treatment_notes,omitempty"`

	// Filled from the doctor row on reads.
	DoctorName string `gorm:"-" json:"doctor_name,omitempty"`

	Doctor       User         `gorm:"foreignKey:DoctorID" json:"-"`
	Organization Organization `gorm:"foreignKey:OrganizationID" json:"-"`
}

// BookedBy reports whether userID is the patient who booked the appointment.
func (a *Appointment) BookedBy(userID string) bool {
	return a.PatientID != nil && userID != "" && *a.PatientID == userID
}
