package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"clinic-scheduling-server/internal/scheduling"
	"clinic-scheduling-server/internal/utils"
)

// AppointmentHandler serves the appointment lifecycle and listings.
type AppointmentHandler struct {
	Svc *scheduling.Service
}

func NewAppointmentHandler(svc *scheduling.Service) *AppointmentHandler {
	return &AppointmentHandler{Svc: svc}
}

// CreateAppointmentRequest books a visit. DateTime must carry an explicit
// UTC offset or Z.
type CreateAppointmentRequest struct {
	DoctorID       string `json:"doctor_id" binding:"required"`
	OrganizationID string `json:"organization_id" binding:"required"`
	PatientID      string `json:"patient_id"`
	PatientName    string `json:"patient_name"`
	DateTime       string `json:"date_time" binding:"required"`
	Reason         string `json:"reason" binding:"required"`
}

func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req CreateAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	at, err := time.Parse(time.RFC3339, req.DateTime)
	if err != nil {
		utils.BadRequest(c, "date_time must be RFC 3339 with a timezone offset, e.g. 2025-03-01T10:00:00Z")
		return
	}

	appt, err := h.Svc.CreateAppointment(c.Request.Context(), who, scheduling.CreateAppointmentInput{
		DoctorID:       req.DoctorID,
		OrganizationID: req.OrganizationID,
		PatientID:      req.PatientID,
		PatientName:    req.PatientName,
		ScheduledAt:    at,
		Reason:         req.Reason,
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Created(c, "Appointment created successfully", appt)
}

func (h *AppointmentHandler) GetAppointmentByID(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	appt, err := h.Svc.GetAppointment(c.Request.Context(), who, c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Appointment fetched successfully", appt)
}

// CompleteAppointmentRequest is bound without binding tags so blank fields
// reach the service, which reports them after the state check.
type CompleteAppointmentRequest struct {
	Diagnosis      string `json:"diagnosis"`
	TreatmentNotes string `json:"treatment_notes"`
}

func (h *AppointmentHandler) CompleteAppointment(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req CompleteAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	appt, err := h.Svc.CompleteAppointment(c.Request.Context(), who, c.Param("id"), req.Diagnosis, req.TreatmentNotes)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Appointment completed successfully", appt)
}

func (h *AppointmentHandler) CancelAppointment(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	appt, err := h.Svc.CancelAppointment(c.Request.Context(), who, c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Appointment cancelled successfully", appt)
}

func (h *AppointmentHandler) GetOrganizationAppointments(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	appts, err := h.Svc.ListAppointmentsByOrganization(c.Request.Context(), who, c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Appointments fetched successfully", appts)
}

func (h *AppointmentHandler) GetDoctorAppointments(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	appts, err := h.Svc.ListAppointmentsByDoctor(c.Request.Context(), who, c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Appointments fetched successfully", appts)
}

func (h *AppointmentHandler) GetPatientAppointments(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	appts, err := h.Svc.ListAppointmentsByPatient(c.Request.Context(), who, c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Appointments fetched successfully", appts)
}
