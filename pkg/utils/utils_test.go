package utils

import (
	"errors"
	"testing"
)

func TestHashPassword(t *testing.T) {
	password := "secret-password"
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !CheckPassword(password, hash) {
		t.Errorf("Expected password check to pass")
	}

	if CheckPassword("wrongpassword", hash) {
		t.Errorf("Expected password check to fail")
	}
}

func TestJWT(t *testing.T) {
	secret := "supersecret"
	userID := "6f1c7a2e-8a43-4a55-9a0e-2b8f7c1d9e10"
	email := "coach@example.com"

	token, err := GenerateToken(userID, email, secret)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	claims, err := ValidateToken(token, secret, PurposeSession)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if claims.UserID != userID {
		t.Errorf("Expected UserID %s, got %s", userID, claims.UserID)
	}

	if claims.Email != email {
		t.Errorf("Expected Email %s, got %s", email, claims.Email)
	}

	_, err = ValidateToken(token, "wrongsecret", PurposeSession)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected invalid token error with wrong secret, got %v", err)
	}
}

func TestConfirmTokenCannotBeUsedAsSession(t *testing.T) {
	secret := "supersecret"

	token, err := GenerateConfirmToken("6f1c7a2e-8a43-4a55-9a0e-2b8f7c1d9e10", "student@example.com", secret)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if _, err := ValidateToken(token, secret, PurposeSession); !errors.Is(err, ErrWrongPurpose) {
		t.Fatalf("Expected purpose mismatch, got %v", err)
	}
	if _, err := ValidateToken(token, secret, PurposeEmailConfirm); err != nil {
		t.Fatalf("Expected confirm token to validate, got %v", err)
	}
}
