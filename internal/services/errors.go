package services

const (
	MsgInvalidCredentials  = "Invalid email or password"
	MsgAccountLocked       = "Account temporarily locked due to too many failed attempts"
	MsgAccountInactive     = "Account is inactive"
	MsgInvalidRefreshToken = "Invalid or expired refresh token"
	MsgUserUnavailable     = "User not found or inactive"
	MsgEmailTaken          = "Email already registered"
	MsgEmailOtherProvider  = "This email is registered with a password. Please sign in with email."

	CodeEmailExistsDifferentProvider = "EMAIL_EXISTS_DIFFERENT_PROVIDER"
)

// ValidationError is a caller-correctable input problem.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError reports a uniqueness collision. Code is optional and
// machine-readable.
type ConflictError struct {
	Message string
	Code    string
}

func (e *ConflictError) Error() string { return e.Message }

// AuthenticationError carries a message that is safe to show the caller.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string { return e.Message }

// AccountLockedError is kept apart from AuthenticationError so callers can
// tell the user to retry later.
type AccountLockedError struct {
	Message string
}

func (e *AccountLockedError) Error() string { return e.Message }

func authError(msg string) error {
	return &AuthenticationError{Message: msg}
}
