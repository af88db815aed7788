package service

import (
	"context"
	"errors"
	"testing"

	"caseinsight-backend/repository"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := NewPractitionerService(repository.NewMemoryStore())

	p, err := svc.Register(ctx, RegisterRequest{
		Email:    "  Adv.Mehra@Example.com ",
		Password: "correct horse",
		Name:     "A. Mehra",
		FirmName: "Mehra & Associates",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if p.Email != "adv.mehra@example.com" {
		t.Fatalf("expected normalized email, got %s", p.Email)
	}
	if p.PasswordHash == "" || p.PasswordHash == "correct horse" {
		t.Fatalf("expected hashed password")
	}
	if p.FirmName == nil || *p.FirmName != "Mehra & Associates" {
		t.Fatalf("unexpected firm name %v", p.FirmName)
	}

	got, err := svc.Authenticate(ctx, "adv.mehra@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if got.ID != p.ID {
		t.Fatalf("authenticated the wrong practitioner")
	}

	if _, err := svc.Authenticate(ctx, "adv.mehra@example.com", "wrong horse"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody@example.com", "correct horse"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}

	_, err = svc.Register(ctx, RegisterRequest{Email: "adv.mehra@example.com", Password: "another one", Name: "Someone"})
	if !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestRegisterValidatesInput(t *testing.T) {
	svc := NewPractitionerService(repository.NewMemoryStore())
	for _, req := range []RegisterRequest{
		{Email: "not-an-email", Password: "long enough", Name: "A"},
		{Email: "a@example.com", Password: "short", Name: "A"},
		{Email: "a@example.com", Password: "long enough", Name: "  "},
	} {
		if _, err := svc.Register(context.Background(), req); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("%+v: expected ErrInvalidCredentials, got %v", req, err)
		}
	}
}
