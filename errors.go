package flatblog

import "errors"

// Sentinel errors surfaced by the store, registry, and content service.
// Handlers map these onto HTTP status codes.
var (
	ErrPostNotFound     = errors.New("post not found")
	ErrSlugExists       = errors.New("slug already exists")
	ErrCategoryExists   = errors.New("category already exists")
	ErrCategoryNotFound = errors.New("category not found")
	ErrDefaultCategory  = errors.New("default category cannot be deleted")
	ErrSelfReassign     = errors.New("reassign target must be different from deleted category")
	ErrTokenNotFound    = errors.New("token not found")
)

// ValidationError reports a structurally invalid post field. It is raised
// before any write, so a failed validation never mutates state.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Reason
}

func validationErr(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
