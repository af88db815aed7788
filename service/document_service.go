package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"caseinsight-backend/models"
	"caseinsight-backend/repository"
	"caseinsight-backend/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultPendingLimit = 10

// InsightInvalidator expires a case's cached insights
type InsightInvalidator interface {
	InvalidateCase(ctx context.Context, caseID uuid.UUID) (int64, error)
}

// DocumentService ingests case documents and keeps their classification current.
// Every change to a case's documents invalidates the case's insights.
type DocumentService struct {
	cases        repository.CaseStore
	documents    repository.DocumentStore
	storage      storage.Storage
	classifier   *Classifier
	invalidator  InsightInvalidator
	logger       *zap.Logger
	now          func() time.Time
	pendingLimit int
}

// DocumentServiceOption is a functional option for DocumentService
type DocumentServiceOption func(*DocumentService)

// DocumentWithCaseStore sets the case store
func DocumentWithCaseStore(store repository.CaseStore) DocumentServiceOption {
	return func(s *DocumentService) {
		s.cases = store
	}
}

// DocumentWithDocumentStore sets the document store
func DocumentWithDocumentStore(store repository.DocumentStore) DocumentServiceOption {
	return func(s *DocumentService) {
		s.documents = store
	}
}

// DocumentWithStorage sets where original files are kept
func DocumentWithStorage(st storage.Storage) DocumentServiceOption {
	return func(s *DocumentService) {
		s.storage = st
	}
}

// DocumentWithClassifier sets the classifier
func DocumentWithClassifier(c *Classifier) DocumentServiceOption {
	return func(s *DocumentService) {
		s.classifier = c
	}
}

// DocumentWithInvalidator sets what is told when a case's documents change
func DocumentWithInvalidator(inv InsightInvalidator) DocumentServiceOption {
	return func(s *DocumentService) {
		s.invalidator = inv
	}
}

// DocumentWithLogger sets the logger
func DocumentWithLogger(logger *zap.Logger) DocumentServiceOption {
	return func(s *DocumentService) {
		s.logger = logger
	}
}

// DocumentWithClock overrides time.Now
func DocumentWithClock(now func() time.Time) DocumentServiceOption {
	return func(s *DocumentService) {
		s.now = now
	}
}

// DocumentWithPendingLimit caps how many documents one classify-pending run takes
func DocumentWithPendingLimit(n int) DocumentServiceOption {
	return func(s *DocumentService) {
		if n > 0 {
			s.pendingLimit = n
		}
	}
}

// NewDocumentService creates a new document service
func NewDocumentService(opts ...DocumentServiceOption) *DocumentService {
	s := &DocumentService{
		logger:       zap.NewNop(),
		now:          time.Now,
		pendingLimit: defaultPendingLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UploadDocumentRequest represents an uploaded file
type UploadDocumentRequest struct {
	FileName string
	MimeType string
	Size     int64
	Content  io.Reader
	// ExtractedText is supplied by the upload layer. Plain text files are
	// used as their own text when it is empty.
	ExtractedText string
}

// Upload stores the original, records an unclassified document and
// invalidates the case's insights.
func (s *DocumentService) Upload(ctx context.Context, auth AuthContext, req UploadDocumentRequest) (*models.Document, error) {
	if s.cases == nil || s.documents == nil || s.storage == nil {
		return nil, errors.New("document service not configured")
	}
	if _, err := authorize(ctx, s.cases, auth); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(req.Content)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	text := req.ExtractedText
	if text == "" && strings.HasPrefix(req.MimeType, "text/") {
		text = string(data)
	}

	doc := &models.Document{
		ID:            uuid.New(),
		CaseID:        auth.CaseID,
		FileName:      req.FileName,
		Title:         req.FileName,
		MimeType:      req.MimeType,
		Size:          int64(len(data)),
		ExtractedText: text,
	}

	doc.StoragePath, err = s.storage.Upload(ctx, storage.Object{
		CaseID:      doc.CaseID,
		DocumentID:  doc.ID,
		FileName:    doc.FileName,
		ContentType: doc.MimeType,
	}, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("store file: %w", err)
	}

	if err := s.documents.CreateDocument(ctx, doc); err != nil {
		if delErr := s.storage.Delete(ctx, doc.StoragePath); delErr != nil {
			s.logger.Warn("failed to clean up stored file", zap.String("path", doc.StoragePath), zap.Error(delErr))
		}
		return nil, fmt.Errorf("save document: %w", err)
	}

	if err := s.invalidate(ctx, doc.CaseID); err != nil {
		return nil, err
	}

	s.logger.Info("document uploaded",
		zap.String("case_id", doc.CaseID.String()),
		zap.String("document_id", doc.ID.String()),
		zap.Int64("size", doc.Size))
	return doc, nil
}

// Download opens the stored original of a document in the case
func (s *DocumentService) Download(ctx context.Context, auth AuthContext, documentID uuid.UUID) (*models.Document, io.ReadCloser, error) {
	if s.cases == nil || s.documents == nil || s.storage == nil {
		return nil, nil, errors.New("document service not configured")
	}
	if _, err := authorize(ctx, s.cases, auth); err != nil {
		return nil, nil, err
	}
	doc, err := s.caseDocument(ctx, auth.CaseID, documentID)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.storage.Download(ctx, doc.StoragePath)
	if errors.Is(err, storage.ErrFileNotFound) {
		return nil, nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	return doc, rc, nil
}

func (s *DocumentService) caseDocument(ctx context.Context, caseID, documentID uuid.UUID) (*models.Document, error) {
	doc, err := s.documents.GetDocument(ctx, documentID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}
	if doc.CaseID != caseID {
		return nil, ErrDocumentNotFound
	}
	return doc, nil
}

// ClassifyDocument (re)classifies one document of the case. The classifier
// never fails; only store and ownership errors are returned.
func (s *DocumentService) ClassifyDocument(ctx context.Context, auth AuthContext, documentID uuid.UUID) (*models.Classification, error) {
	if s.cases == nil || s.documents == nil || s.classifier == nil {
		return nil, errors.New("document service not configured")
	}
	if _, err := authorize(ctx, s.cases, auth); err != nil {
		return nil, err
	}
	doc, err := s.caseDocument(ctx, auth.CaseID, documentID)
	if err != nil {
		return nil, err
	}

	classification := s.classifier.Classify(ctx, doc.ID, doc.FileName, doc.ExtractedText)
	if err := s.documents.SaveClassification(ctx, classification, s.now()); err != nil {
		return nil, fmt.Errorf("save classification: %w", err)
	}
	if err := s.invalidate(ctx, doc.CaseID); err != nil {
		return nil, err
	}
	return classification, nil
}

// ClassifyPending classifies up to the pending limit of the case's
// unclassified documents. Each outcome is reported on its own.
func (s *DocumentService) ClassifyPending(ctx context.Context, auth AuthContext) ([]ClassifyOutcome, error) {
	if s.cases == nil || s.documents == nil || s.classifier == nil {
		return nil, errors.New("document service not configured")
	}
	if _, err := authorize(ctx, s.cases, auth); err != nil {
		return nil, err
	}

	docs, err := s.documents.ListUnclassifiedDocuments(ctx, auth.CaseID, s.pendingLimit)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return []ClassifyOutcome{}, nil
	}

	inputs := make([]ClassifyInput, len(docs))
	for i, d := range docs {
		inputs[i] = ClassifyInput{DocumentID: d.ID, FileName: d.FileName, Text: d.ExtractedText}
	}
	outcomes := s.classifier.ClassifyBatch(ctx, inputs)

	saved := 0
	for i := range outcomes {
		if outcomes[i].Err != nil {
			continue
		}
		if err := s.documents.SaveClassification(ctx, outcomes[i].Classification, s.now()); err != nil {
			outcomes[i].Classification = nil
			outcomes[i].Err = fmt.Errorf("save classification: %w", err)
			continue
		}
		saved++
	}

	if saved > 0 {
		if err := s.invalidate(ctx, auth.CaseID); err != nil {
			return nil, err
		}
	}
	s.logger.Info("pending documents classified",
		zap.String("case_id", auth.CaseID.String()),
		zap.Int("documents", len(outcomes)),
		zap.Int("saved", saved))
	return outcomes, nil
}

func (s *DocumentService) invalidate(ctx context.Context, caseID uuid.UUID) error {
	if s.invalidator == nil {
		return nil
	}
	if _, err := s.invalidator.InvalidateCase(ctx, caseID); err != nil {
		return fmt.Errorf("invalidate insights: %w", err)
	}
	return nil
}
