package handlers

import (
	"errors"
	"net/http"

	"caseinsight-backend/repository"
	"caseinsight-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	callerIDHeader = "X-User-ID"
	callerIDKey    = "caller_id"
)

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func respondOK(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// respondServiceError maps service errors onto HTTP statuses
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidAnalysisKind):
		respondError(c, http.StatusBadRequest, "INVALID_ANALYSIS_TYPE", err.Error())
	case errors.Is(err, service.ErrInvalidCase), errors.Is(err, service.ErrInvalidCredentials):
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
	case errors.Is(err, service.ErrCaseNotFound), errors.Is(err, service.ErrCaseNotOwned):
		// a case owned by someone else is reported as missing
		respondError(c, http.StatusNotFound, "CASE_NOT_FOUND", "Case not found")
	case errors.Is(err, service.ErrDocumentNotFound):
		respondError(c, http.StatusNotFound, "DOCUMENT_NOT_FOUND", "Document not found")
	case errors.Is(err, repository.ErrDuplicate):
		respondError(c, http.StatusConflict, "ALREADY_EXISTS", err.Error())
	case errors.Is(err, service.ErrAnalysisFailed):
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error": gin.H{
				"code":      "ANALYSIS_FAILED",
				"message":   err.Error(),
				"retryable": true,
			},
		})
	case errors.Is(err, service.ErrBriefGenerationFailed):
		respondError(c, http.StatusBadGateway, "BRIEF_GENERATION_FAILED", err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
}

// RequireCaller reads the caller identity set by the upstream auth layer
func RequireCaller() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.GetHeader(callerIDHeader))
		if err != nil {
			respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid "+callerIDHeader+" header")
			c.Abort()
			return
		}
		c.Set(callerIDKey, id)
		c.Next()
	}
}

// callerID returns the identity stored by RequireCaller
func callerID(c *gin.Context) uuid.UUID {
	id, _ := c.Get(callerIDKey)
	caller, _ := id.(uuid.UUID)
	return caller
}

// caseAuth builds the authorization context for a /cases/:id route
func caseAuth(c *gin.Context) (service.AuthContext, bool) {
	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid case ID format")
		return service.AuthContext{}, false
	}
	return service.AuthContext{CallerID: callerID(c), CaseID: caseID}, true
}
