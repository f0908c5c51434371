// Package apperror holds the error kinds shared by the services. Handlers map
// them to HTTP statuses with errors.Is.
package apperror

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrIneligible  = errors.New("not eligible")
	ErrConflict    = errors.New("conflict")
	ErrNotEnrolled = errors.New("no approved enrollment")
	ErrInvalid     = errors.New("invalid input")
)

// FromDB wraps gorm.ErrRecordNotFound as ErrNotFound for the given entity and
// leaves other errors wrapped as they are.
func FromDB(err error, entity string, id any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %v: %w", entity, id, ErrNotFound)
	}
	return fmt.Errorf("load %s %v: %w", entity, id, err)
}
