package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"caseinsight-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var extensionMimeTypes = map[string]string{
	".pdf":  "application/pdf",
	".txt":  "text/plain",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// DocumentHandler handles HTTP requests for case documents
type DocumentHandler struct {
	documentService  *service.DocumentService
	maxFileSize      int64
	allowedMimeTypes map[string]bool
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(documentService *service.DocumentService, maxFileSize int64) *DocumentHandler {
	if maxFileSize <= 0 {
		maxFileSize = 10 * 1024 * 1024 // 10MB
	}
	return &DocumentHandler{
		documentService: documentService,
		maxFileSize:     maxFileSize,
		allowedMimeTypes: map[string]bool{
			"application/pdf":    true,
			"text/plain":         true,
			"application/msword": true,
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
		},
	}
}

// UploadDocument handles POST /api/cases/:id/documents
func (h *DocumentHandler) UploadDocument(c *gin.Context) {
	auth, ok := caseAuth(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "MISSING_FILE", "File is required")
		return
	}
	if fileHeader.Size > h.maxFileSize {
		respondError(c, http.StatusBadRequest, "FILE_TOO_LARGE",
			fmt.Sprintf("File size exceeds maximum of %d bytes", h.maxFileSize))
		return
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		if inferred, ok := extensionMimeTypes[strings.ToLower(filepath.Ext(fileHeader.Filename))]; ok {
			mimeType = inferred
		}
	}
	if !h.allowedMimeTypes[mimeType] && !strings.HasPrefix(mimeType, "text/") {
		respondError(c, http.StatusBadRequest, "INVALID_FILE_TYPE", "File type not allowed. Allowed types: PDF, TXT, DOC, DOCX")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "FILE_OPEN_ERROR", err.Error())
		return
	}
	defer file.Close()

	doc, err := h.documentService.Upload(c.Request.Context(), auth, service.UploadDocumentRequest{
		FileName:      fileHeader.Filename,
		MimeType:      mimeType,
		Size:          fileHeader.Size,
		Content:       file,
		ExtractedText: c.PostForm("extracted_text"),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, doc)
}

// DownloadDocument handles GET /api/cases/:id/documents/:documentId/file
func (h *DocumentHandler) DownloadDocument(c *gin.Context) {
	auth, ok := caseAuth(c)
	if !ok {
		return
	}
	documentID, err := uuid.Parse(c.Param("documentId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid document ID format")
		return
	}

	doc, reader, err := h.documentService.Download(c.Request.Context(), auth, documentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	defer reader.Close()

	c.DataFromReader(http.StatusOK, doc.Size, doc.MimeType, reader, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", doc.FileName),
	})
}

// ClassifyDocumentRequest represents the request body for classify-document
type ClassifyDocumentRequest struct {
	DocumentID string `json:"document_id" binding:"required"`
}

// ClassifyDocument handles POST /api/cases/:id/documents/classify
func (h *DocumentHandler) ClassifyDocument(c *gin.Context) {
	auth, ok := caseAuth(c)
	if !ok {
		return
	}

	var req ClassifyDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	documentID, err := uuid.Parse(req.DocumentID)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid document ID format")
		return
	}

	classification, err := h.documentService.ClassifyDocument(c.Request.Context(), auth, documentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, classification)
}

type classifyOutcomeResponse struct {
	DocumentID     uuid.UUID   `json:"document_id"`
	Success        bool        `json:"success"`
	Classification interface{} `json:"classification,omitempty"`
	Error          string      `json:"error,omitempty"`
}

// ClassifyPending handles POST /api/cases/:id/documents/classify-pending
func (h *DocumentHandler) ClassifyPending(c *gin.Context) {
	auth, ok := caseAuth(c)
	if !ok {
		return
	}

	outcomes, err := h.documentService.ClassifyPending(c.Request.Context(), auth)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	results := make([]classifyOutcomeResponse, 0, len(outcomes))
	for _, o := range outcomes {
		r := classifyOutcomeResponse{DocumentID: o.DocumentID, Success: o.Err == nil}
		if o.Err != nil {
			r.Error = o.Err.Error()
		} else {
			r.Classification = o.Classification
		}
		results = append(results, r)
	}

	respondOK(c, http.StatusOK, gin.H{
		"processed": len(results),
		"results":   results,
	})
}
