package security

import (
	"errors"
	"testing"
)

func TestDefaultPasswordValidatorAccepts(t *testing.T) {
	validator := DefaultPasswordValidator()

	passwords := []string{
		"Correct-Horse-Battery-9",
		"mY$ecure&Passphrase21",
		"Tr0ub4dour&3xtended",
	}

	for _, password := range passwords {
		if err := validator.Validate(password); err != nil {
			t.Fatalf("expected %q to pass validation, got %v", password, err)
		}
	}
}

func TestDefaultPasswordValidatorViolations(t *testing.T) {
	validator := DefaultPasswordValidator()

	cases := []struct {
		name     string
		password string
		code     string
	}{
		{name: "too short", password: "Ab1!", code: "min_length"},
		{name: "single class", password: "alllowercaseletters", code: "character_classes"},
		{name: "weak", password: "Password123!", code: "weak_password"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validator.Validate(tc.password)
			if err == nil {
				t.Fatalf("expected violation for %q", tc.password)
			}

			var violation *PasswordValidationError
			if !errors.As(err, &violation) {
				t.Fatalf("expected PasswordValidationError, got %T", err)
			}
			if violation.Code != tc.code {
				t.Fatalf("expected code %q, got %q", tc.code, violation.Code)
			}
		})
	}
}

func TestCustomValidatorRuleOrder(t *testing.T) {
	validator := NewPasswordValidator(
		MinLengthRule(4),
		RequireCharacterClassesRule(2),
	)

	if err := validator.Validate("ab1c"); err != nil {
		t.Fatalf("expected custom validator to accept, got %v", err)
	}

	err := validator.Validate("ab")
	var violation *PasswordValidationError
	if !errors.As(err, &violation) || violation.Code != "min_length" {
		t.Fatalf("expected min_length violation first, got %v", err)
	}
}
