package handlers

import (
	"net/http"
	"time"

	"caseinsight-backend/service"

	"github.com/gin-gonic/gin"
)

// BriefHandler handles HTTP requests for hearing briefs
type BriefHandler struct {
	briefService *service.BriefService
}

// NewBriefHandler creates a new brief handler
func NewBriefHandler(briefService *service.BriefService) *BriefHandler {
	return &BriefHandler{briefService: briefService}
}

// GenerateBriefRequest represents the request body for a hearing brief
type GenerateBriefRequest struct {
	HearingDate string   `json:"hearingDate"` // YYYY-MM-DD
	FocusAreas  []string `json:"focusAreas"`
}

// GenerateBrief handles POST /api/cases/:id/hearing-briefs
func (h *BriefHandler) GenerateBrief(c *gin.Context) {
	auth, ok := caseAuth(c)
	if !ok {
		return
	}

	var req GenerateBriefRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
			return
		}
	}

	var hearingDate time.Time
	if req.HearingDate != "" {
		d, err := time.Parse(time.DateOnly, req.HearingDate)
		if err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_HEARING_DATE", "hearingDate must be YYYY-MM-DD")
			return
		}
		hearingDate = d
	}

	brief, err := h.briefService.GenerateBrief(c.Request.Context(), auth, service.BriefRequest{
		HearingDate: hearingDate,
		FocusAreas:  req.FocusAreas,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, brief)
}

// ListBriefs handles GET /api/cases/:id/hearing-briefs
func (h *BriefHandler) ListBriefs(c *gin.Context) {
	auth, ok := caseAuth(c)
	if !ok {
		return
	}

	briefs, err := h.briefService.ListBriefs(c.Request.Context(), auth)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, briefs)
}
