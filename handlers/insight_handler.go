package handlers

import (
	"net/http"

	"caseinsight-backend/models"
	"caseinsight-backend/service"

	"github.com/gin-gonic/gin"
)

// InsightHandler handles HTTP requests for case analyses
type InsightHandler struct {
	computer service.InsightComputer
	insights *service.InsightService
	batch    *service.BatchCoordinator
}

// NewInsightHandler creates a new insight handler. computer is used for
// single analyses and may wrap insights with retries.
func NewInsightHandler(computer service.InsightComputer, insights *service.InsightService, batch *service.BatchCoordinator) *InsightHandler {
	return &InsightHandler{
		computer: computer,
		insights: insights,
		batch:    batch,
	}
}

// TriggerAnalysisRequest represents the request body for running an analysis
type TriggerAnalysisRequest struct {
	AnalysisType string `json:"analysisType" binding:"required"`
	ForceRefresh bool   `json:"forceRefresh"`
}

// TriggerAnalysis handles POST /api/cases/:id/insights
func (h *InsightHandler) TriggerAnalysis(c *gin.Context) {
	auth, ok := caseAuth(c)
	if !ok {
		return
	}

	var req TriggerAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	kind, err := models.ParseAnalysisKind(req.AnalysisType)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ANALYSIS_TYPE", "Invalid analysis type")
		return
	}

	result, err := h.computer.GetOrCompute(c.Request.Context(), auth, kind, req.ForceRefresh)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, result)
}

// ListInsights handles GET /api/cases/:id/insights
func (h *InsightHandler) ListInsights(c *gin.Context) {
	auth, ok := caseAuth(c)
	if !ok {
		return
	}

	current, err := h.insights.ListCurrent(c.Request.Context(), auth)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, current)
}

// RunBatchRequest represents the request body for a batch run
type RunBatchRequest struct {
	ForceRefresh bool `json:"forceRefresh"`
}

// RunBatch handles POST /api/cases/:id/insights/batch
func (h *InsightHandler) RunBatch(c *gin.Context) {
	auth, ok := caseAuth(c)
	if !ok {
		return
	}

	var req RunBatchRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
			return
		}
	}

	result, err := h.batch.RunBatch(c.Request.Context(), auth, req.ForceRefresh)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, result)
}
