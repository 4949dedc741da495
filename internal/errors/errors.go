package errors

import (
	"errors"
	"net/http"

	"gorm.io/gorm"
)

var (
	// ErrPetNotFound is returned when a pet does not exist or is owned by
	// another user. The two cases are deliberately indistinguishable.
	ErrPetNotFound = errors.New("pet not found")
	// ErrImageUpload is returned when writing a new image to the bucket fails.
	ErrImageUpload = errors.New("image upload failed")
	// ErrInvalidCredentials is returned when email or password is incorrect.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUserAlreadyExists is returned when registering an email that is taken.
	ErrUserAlreadyExists = errors.New("an account with this email already exists")
	// ErrInvalidRefreshToken is returned when a refresh token is invalid or expired.
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Translate maps low-level failures to short user-safe messages. Internal
// error text, codes, and stack detail never reach the caller; full detail is
// logged server-side where the failure happened.
func Translate(err error) string {
	switch {
	case errors.Is(err, ErrPetNotFound):
		return "Record not found"
	case errors.Is(err, ErrImageUpload):
		return "Failed to upload image. Please try again."
	case errors.Is(err, ErrUserAlreadyExists):
		return "An account with this email already exists"
	case errors.Is(err, ErrInvalidCredentials):
		return "Email or password is incorrect"
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return "This record already exists"
	case errors.Is(err, gorm.ErrRecordNotFound):
		return "Record not found"
	default:
		return "Something went wrong. Please try again later."
	}
}

// StatusCode maps a translated failure to an HTTP status.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrPetNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrImageUpload):
		return http.StatusBadGateway
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrInvalidRefreshToken):
		return http.StatusUnauthorized
	case errors.Is(err, ErrUserAlreadyExists), errors.Is(err, gorm.ErrDuplicatedKey):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
