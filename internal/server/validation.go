package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	maxNameLength     = 64
	maxGameNameLength = 255
	maxQuestionLength = 500
	defaultTimeLimit  = 30
)

var validate = validator.New()

func validateCredentials(payload credentialsPayload) error {
	if err := validate.Struct(payload); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			switch fieldErrs[0].Field() {
			case "Email":
				return errors.New("a valid email is required")
			case "Password":
				return errors.New("password must be at least 6 characters")
			}
		}
		return errors.New("invalid credentials payload")
	}
	return nil
}

func validatePlayerName(name string) (string, error) {
	return validateText("name", name, maxNameLength)
}

func validateGameName(name string) (string, error) {
	return validateText("game name", name, maxGameNameLength)
}

func validateQuestionText(text string) (string, error) {
	return validateText("question text", text, maxQuestionLength)
}

func validateGameMode(mode string) error {
	switch mode {
	case "quiz", "voting":
		return nil
	}
	return fmt.Errorf("unknown game mode %q", mode)
}

func validateText(label, text string, maxLen int) (string, error) {
	trimmed := normalizeText(text)
	if trimmed == "" {
		return "", fmt.Errorf("%s is required", label)
	}
	if len(trimmed) > maxLen {
		return "", fmt.Errorf("%s must be %d characters or fewer", label, maxLen)
	}
	return trimmed, nil
}

func normalizeText(text string) string {
	fields := strings.Fields(strings.TrimSpace(text))
	return strings.Join(fields, " ")
}
