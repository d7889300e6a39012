package scheduling

import "clinic-scheduling-server/internal/models"

// Caller is the authenticated identity an operation runs on behalf of.
type Caller struct {
	UserID         string
	Role           models.Role
	OrganizationID string
}

// IsStaffOf reports whether the caller administers orgID.
func (c Caller) IsStaffOf(orgID string) bool {
	return c.Role == models.RoleOrganization && c.OrganizationID != "" && c.OrganizationID == orgID
}

// IsDoctor reports whether the caller is the doctor identified by doctorID.
func (c Caller) IsDoctor(doctorID string) bool {
	return c.Role == models.RoleDoctor && c.UserID != "" && c.UserID == doctorID
}

// IsPatient reports whether the caller is the patient identified by patientID.
func (c Caller) IsPatient(patientID string) bool {
	return c.Role == models.RolePatient && c.UserID != "" && c.UserID == patientID
}

func (c Caller) canView(appt *models.Appointment) bool {
	return c.IsStaffOf(appt.OrganizationID) ||
		c.IsDoctor(appt.DoctorID) ||
		(c.Role == models.RolePatient && appt.BookedBy(c.UserID))
}
