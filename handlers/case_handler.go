package handlers

import (
	"net/http"
	"time"

	"caseinsight-backend/service"

	"github.com/gin-gonic/gin"
)

// CaseHandler handles HTTP requests for cases and their bundles
type CaseHandler struct {
	caseService     *service.CaseService
	bundleAssembler *service.BundleAssembler
	briefService    *service.BriefService
}

// NewCaseHandler creates a new case handler
func NewCaseHandler(caseService *service.CaseService, bundleAssembler *service.BundleAssembler, briefService *service.BriefService) *CaseHandler {
	return &CaseHandler{
		caseService:     caseService,
		bundleAssembler: bundleAssembler,
		briefService:    briefService,
	}
}

// CreateCaseRequest represents the request body for creating a case
type CreateCaseRequest struct {
	CaseNumber      string     `json:"case_number" binding:"required"`
	CaseType        string     `json:"case_type" binding:"required"`
	Court           string     `json:"court"`
	PetitionerName  string     `json:"petitioner_name"`
	RespondentName  string     `json:"respondent_name"`
	NextHearingDate *time.Time `json:"next_hearing_date"`
}

// CreateCase handles POST /api/cases
func (h *CaseHandler) CreateCase(c *gin.Context) {
	var req CreateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	created, err := h.caseService.CreateCase(c.Request.Context(), service.CreateCaseRequest{
		PractitionerID:  callerID(c),
		CaseNumber:      req.CaseNumber,
		CaseType:        req.CaseType,
		Court:           req.Court,
		PetitionerName:  req.PetitionerName,
		RespondentName:  req.RespondentName,
		NextHearingDate: req.NextHearingDate,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, created)
}

// GetCase handles GET /api/cases/:id
func (h *CaseHandler) GetCase(c *gin.Context) {
	auth, ok := caseAuth(c)
	if !ok {
		return
	}

	found, err := h.caseService.GetCase(c.Request.Context(), auth)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, found)
}

// GetBundle handles GET /api/cases/:id/bundle
func (h *CaseHandler) GetBundle(c *gin.Context) {
	auth, ok := caseAuth(c)
	if !ok {
		return
	}

	if _, err := h.caseService.GetCase(c.Request.Context(), auth); err != nil {
		respondServiceError(c, err)
		return
	}
	bundle, err := h.bundleAssembler.Assemble(c.Request.Context(), auth.CaseID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, bundle)
}

// SummarizeBundle handles POST /api/cases/:id/bundle/summary
func (h *CaseHandler) SummarizeBundle(c *gin.Context) {
	auth, ok := caseAuth(c)
	if !ok {
		return
	}

	summary, err := h.briefService.SummarizeBundle(c.Request.Context(), auth)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, summary)
}
