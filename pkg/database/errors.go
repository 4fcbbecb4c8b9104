package database

import (
	stderrors "errors"
	"strings"

	"github.com/lib/pq"
	"github.com/medflow/clinic-backend/pkg/errors"
)

// MapPQError converts a PostgreSQL error to an AppError with meaningful messages.
// Returns nil if the error is not a pq.Error.
func MapPQError(err error) *errors.AppError {
	var pqErr *pq.Error
	if !stderrors.As(err, &pqErr) {
		return nil
	}

	switch pqErr.Code {
	// Check constraint violation (23514)
	case "23514":
		return mapCheckConstraint(pqErr)

	// Unique constraint violation (23505)
	case "23505":
		return errors.Conflict(formatConstraintMessage(pqErr))

	// Foreign key violation (23503)
	case "23503":
		return errors.BadRequest("referenced record does not exist")

	// Not null violation (23502)
	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	default:
		return nil
	}
}

// mapCheckConstraint maps specific CHECK constraint names to user-friendly messages.
func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "remaining_quantity"):
		return errors.Conflict("remaining quantity must stay between 0 and the full amount")

	case strings.Contains(constraint, "buffer_amount"):
		return errors.Validation(map[string]string{
			"buffer_amount": "buffer level cannot be negative",
		})

	case strings.Contains(constraint, "charge_value"):
		return errors.Validation(map[string]string{
			"value": "charge value cannot be negative",
		})

	case strings.Contains(constraint, "status_valid"):
		return errors.Validation(map[string]string{
			"status": "must be one of: AVAILABLE, COMPLETED, EXPIRED, DISPOSED, QUALITY_FAILED",
		})

	default:
		return errors.BadRequest("data validation failed: " + constraint)
	}
}

// formatConstraintMessage creates a user-friendly message for unique constraint violations.
func formatConstraintMessage(pqErr *pq.Error) string {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "bills_prescription"):
		return "a bill for this prescription already exists"
	case strings.Contains(constraint, "charges_name"):
		return "a charge with this name already exists"
	case strings.Contains(constraint, "suppliers_name"):
		return "a supplier with this name already exists"
	case strings.Contains(constraint, "users_email"):
		return "a user with this email already exists"
	default:
		return "a record with these values already exists"
	}
}

// MapError returns the AppError for a known PostgreSQL failure and err
// unchanged otherwise, including nil.
func MapError(err error) error {
	if appErr := MapPQError(err); appErr != nil {
		return appErr
	}
	return err
}
