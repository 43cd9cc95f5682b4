package catalog

// DomainError is a business-logic error from catalog or repository
// operations, as opposed to infrastructure errors (disk failure, database
// corruption) which are wrapped and passed through unchanged.
//
// The conversation engine translates DomainError codes into the short
// user-facing notices it renders; nothing above the engine needs to parse
// error strings.
type DomainError struct {
	// Code is the error category.
	Code ErrorCode

	// Message is a human-readable error description.
	Message string

	// Name is the folder or file name related to the error, if any.
	Name string
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Name != "" {
		return e.Message + ": " + e.Name
	}
	return e.Message
}

// ErrorCode is the category of a DomainError.
type ErrorCode int

const (
	// ErrNotFound indicates the requested user/folder/file doesn't exist.
	// Typically the resource vanished between listing and action.
	ErrNotFound ErrorCode = iota

	// ErrAlreadyExists indicates a name collision (folder name taken,
	// duplicate file name in a folder, duplicate user id).
	ErrAlreadyExists

	// ErrInvalidName indicates an empty name or one containing forbidden
	// characters.
	ErrInvalidName

	// ErrAccessDenied indicates a capability resolver denial.
	ErrAccessDenied

	// ErrLimitExceeded indicates the actor's folder quota or the upload
	// size cap was hit.
	ErrLimitExceeded

	// ErrUnavailable indicates the persistence collaborator is unreachable.
	ErrUnavailable

	// ErrIO indicates a filesystem failure on create/rename/delete. The
	// paired metadata write is never attempted after an ErrIO.
	ErrIO
)

// NewError creates a DomainError with the given code and message.
func NewError(code ErrorCode, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// NewNameError creates a DomainError carrying the offending name.
func NewNameError(code ErrorCode, message, name string) *DomainError {
	return &DomainError{Code: code, Message: message, Name: name}
}

// CodeOf extracts the ErrorCode from err, or ErrIO if err is not a
// DomainError. A nil err panics; callers check for success first.
func CodeOf(err error) ErrorCode {
	if de, ok := err.(*DomainError); ok {
		return de.Code
	}
	return ErrIO
}

// IsCode reports whether err is a DomainError with the given code.
func IsCode(err error, code ErrorCode) bool {
	de, ok := err.(*DomainError)
	return ok && de.Code == code
}
