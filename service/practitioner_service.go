package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"caseinsight-backend/models"
	"caseinsight-backend/repository"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// PractitionerService registers practitioners
type PractitionerService struct {
	practitioners repository.PractitionerStore
}

// NewPractitionerService creates a new practitioner service
func NewPractitionerService(store repository.PractitionerStore) *PractitionerService {
	return &PractitionerService{practitioners: store}
}

// RegisterRequest represents a new practitioner
type RegisterRequest struct {
	Email    string
	Password string
	Name     string
	FirmName string
}

// Register hashes the password with bcrypt and stores the practitioner.
// An email that is already registered returns repository.ErrDuplicate.
func (s *PractitionerService) Register(ctx context.Context, req RegisterRequest) (*models.Practitioner, error) {
	if s.practitioners == nil {
		return nil, errors.New("practitioner store not set")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: email: %v", ErrInvalidCredentials, err)
	}
	if len(req.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidCredentials, minPasswordLength)
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidCredentials)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	p := &models.Practitioner{
		Email:        email,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(req.Name),
	}
	if firm := strings.TrimSpace(req.FirmName); firm != "" {
		p.FirmName = &firm
	}
	if err := s.practitioners.CreatePractitioner(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Authenticate checks a password against the stored hash
func (s *PractitionerService) Authenticate(ctx context.Context, email, password string) (*models.Practitioner, error) {
	if s.practitioners == nil {
		return nil, errors.New("practitioner store not set")
	}
	p, err := s.practitioners.GetPractitionerByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return p, nil
}
