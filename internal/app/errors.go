package app

import "errors"

var (
	ErrUsernameTaken = errors.New("username already registered")
	ErrEmailTaken    = errors.New("email already registered")

	// ErrInvalidCredentials is shown to end users and must not enable
	// account enumeration.
	ErrInvalidCredentials = errors.New("incorrect username or password")

	ErrFieldsRequired = errors.New("username, email and password required")

	ErrWrongPassword = errors.New("current password is incorrect")
	ErrWeakPassword  = errors.New("password must be at least 6 characters")

	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")

	ErrDocumentNotReady = errors.New("document is still being processed")
	ErrUnsupportedFile  = errors.New("unsupported file type")
	ErrFileTooLarge     = errors.New("file size out of range")
)
