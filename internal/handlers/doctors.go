package handlers

import (
	"github.com/gin-gonic/gin"

	"clinic-scheduling-server/internal/models"
	"clinic-scheduling-server/internal/scheduling"
	"clinic-scheduling-server/internal/utils"
)

// DoctorHandler serves the doctor directory and its management by staff.
type DoctorHandler struct {
	Svc *scheduling.Service
}

func NewDoctorHandler(svc *scheduling.Service) *DoctorHandler {
	return &DoctorHandler{Svc: svc}
}

// GetDoctors lists doctors, optionally of one organization and filtered by
// name or specialization via ?q=.
func (h *DoctorHandler) GetDoctors(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	doctors, err := h.Svc.ListDoctors(c.Request.Context(), who, c.Query("organization_id"), c.Query("q"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Doctors fetched successfully", models.SanitizeAll(doctors))
}

// CreateDoctorRequest adds a doctor. OrganizationID defaults to the
// caller's organization.
type CreateDoctorRequest struct {
	FullName       string `json:"full_name" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required,min=8,max=72"`
	Specialization string `json:"specialization"`
	Availability   string `json:"availability"`
	OrganizationID string `json:"organization_id"`
}

func (h *DoctorHandler) CreateDoctor(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req CreateDoctorRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	if req.OrganizationID == "" {
		req.OrganizationID = who.OrganizationID
	}

	doctor, err := h.Svc.CreateDoctor(c.Request.Context(), who, scheduling.CreateDoctorInput{
		FullName:       req.FullName,
		Email:          req.Email,
		Password:       req.Password,
		Specialization: req.Specialization,
		Availability:   req.Availability,
		OrganizationID: req.OrganizationID,
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Created(c, "Doctor created successfully", doctor.Sanitize())
}

// UpdateDoctorRequest uses pointers so absent fields stay untouched.
type UpdateDoctorRequest struct {
	FullName       *string `json:"full_name"`
	Email          *string `json:"email"`
	Specialization *string `json:"specialization"`
	Availability   *string `json:"availability"`
	Password       *string `json:"password"`
}

func (h *DoctorHandler) UpdateDoctor(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req UpdateDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	doctor, err := h.Svc.UpdateDoctor(c.Request.Context(), who, c.Param("id"), scheduling.DoctorUpdate{
		FullName:       req.FullName,
		Email:          req.Email,
		Specialization: req.Specialization,
		Availability:   req.Availability,
		Password:       req.Password,
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Doctor updated successfully", doctor.Sanitize())
}

func (h *DoctorHandler) DeleteDoctor(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	if err := h.Svc.DeleteDoctor(c.Request.Context(), who, c.Param("id")); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Doctor deleted successfully", nil)
}
