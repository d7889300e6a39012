package handlers

import (
	"github.com/gin-gonic/gin"

	"clinic-scheduling-server/internal/scheduling"
	"clinic-scheduling-server/internal/utils"
)

// HistoryHandler serves completed-visit lookups for doctors and staff.
type HistoryHandler struct {
	Svc *scheduling.Service
}

func NewHistoryHandler(svc *scheduling.Service) *HistoryHandler {
	return &HistoryHandler{Svc: svc}
}

// SearchPatientHistory handles GET /patient-history?name=.
func (h *HistoryHandler) SearchPatientHistory(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	entries, err := h.Svc.SearchPatientHistory(c.Request.Context(), who, c.Query("name"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, "Patient history fetched successfully", entries)
}
