package service

import "errors"

var (
	ErrInvalidAnalysisKind   = errors.New("invalid analysis type")
	ErrCaseNotFound          = errors.New("case not found")
	ErrCaseNotOwned          = errors.New("case not owned by caller")
	ErrDocumentNotFound      = errors.New("document not found")
	ErrAnalysisFailed        = errors.New("analysis failed")
	ErrBriefGenerationFailed = errors.New("hearing brief generation failed")
	ErrInvalidCase           = errors.New("case number and case type are required")
	ErrInvalidCredentials    = errors.New("invalid practitioner details")
)
