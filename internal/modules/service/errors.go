package service

import (
	"errors"
	"fmt"

	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/repo"
)

var (
	// ErrValidation is bad input: wrong shape, range or reference.
	ErrValidation = errors.New("validation failed")
	// ErrConflict is a uniqueness clash or an edit the entity's state forbids.
	ErrConflict = errors.New("conflict")
	ErrNotFound = errors.New("not found")
	// ErrForbidden never says which role was missing.
	ErrForbidden = errors.New("not permitted")
	// ErrIntegrity means stored data contradicts itself; always a bug.
	ErrIntegrity = errors.New("integrity violation")
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

func notFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func integrityf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrIntegrity, fmt.Sprintf(format, args...))
}

// storeErr maps repository errors onto the service taxonomy.
func storeErr(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case repo.IsNotFound(err):
		return notFoundf("%s", what)
	case repo.IsDuplicate(err):
		return conflictf("%s already exists", what)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}
