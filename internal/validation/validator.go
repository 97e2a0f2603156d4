package validation

import (
	"mime"
	"regexp"
	"strings"

	"starmatch/internal/domain"
)

const (
	// MaxSelfieBytes bounds an uploaded or captured selfie.
	MaxSelfieBytes = 10 * 1024 * 1024
	// MaxIDLength bounds posted question and option identifiers. Any other
	// string is a valid identifier; unknown ones are rejected by the quiz.
	MaxIDLength = 256
)

var adminKindPattern = regexp.MustCompile(`^(questions|characters)$`)

// Validator provides request validation functionality
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateSelfie checks a picked file before it becomes the active image.
func (v *Validator) ValidateSelfie(filename, contentType string, size int64) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if strings.TrimSpace(filename) == "" {
		errors = append(errors, domain.NewMissingFieldError("file"))
	}
	if size <= 0 || size > MaxSelfieBytes {
		errors = append(errors, domain.NewOutOfRangeError("file", size, 1, MaxSelfieBytes))
	}
	if !isImageType(contentType) {
		errors = append(errors, domain.NewInvalidFormatError("content_type", contentType))
	}

	return errors
}

// ValidateAnswer checks the identifiers posted by the quiz form.
func (v *Validator) ValidateAnswer(questionID, optionID string) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if strings.TrimSpace(questionID) == "" {
		errors = append(errors, domain.NewMissingFieldError("question_id"))
	} else if len(questionID) > MaxIDLength {
		errors = append(errors, domain.NewOutOfRangeError("question_id", int64(len(questionID)), 1, MaxIDLength))
	}
	if optionID == "" {
		errors = append(errors, domain.NewMissingFieldError("option_id"))
	} else if len(optionID) > MaxIDLength {
		errors = append(errors, domain.NewOutOfRangeError("option_id", int64(len(optionID)), 1, MaxIDLength))
	}

	return errors
}

// ValidateAdminKind checks the record kind segment of admin routes.
func (v *Validator) ValidateAdminKind(kind string) domain.ValidationErrors {
	if !adminKindPattern.MatchString(kind) {
		return domain.ValidationErrors{domain.NewInvalidFormatError("kind", kind)}
	}
	return nil
}

func isImageType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mediaType, "image/")
}
