package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the health check and the /api routes on r
func RegisterRoutes(r *gin.Engine, cases *CaseHandler, documents *DocumentHandler, insights *InsightHandler, briefs *BriefHandler) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	api := r.Group("/api", RequireCaller())
	{
		// Case endpoints
		api.POST("/cases", cases.CreateCase)
		api.GET("/cases/:id", cases.GetCase)
		api.GET("/cases/:id/bundle", cases.GetBundle)
		api.POST("/cases/:id/bundle/summary", cases.SummarizeBundle)

		// Document endpoints
		api.POST("/cases/:id/documents", documents.UploadDocument)
		api.GET("/cases/:id/documents/:documentId/file", documents.DownloadDocument)
		api.POST("/cases/:id/documents/classify", documents.ClassifyDocument)
		api.POST("/cases/:id/documents/classify-pending", documents.ClassifyPending)

		// Insight endpoints
		api.POST("/cases/:id/insights", insights.TriggerAnalysis)
		api.GET("/cases/:id/insights", insights.ListInsights)
		api.POST("/cases/:id/insights/batch", insights.RunBatch)

		// Hearing brief endpoints
		api.POST("/cases/:id/hearing-briefs", briefs.GenerateBrief)
		api.GET("/cases/:id/hearing-briefs", briefs.ListBriefs)
	}
}
