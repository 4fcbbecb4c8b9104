package service

import (
	"github.com/medflow/clinic-backend/pkg/errors"
	"github.com/medflow/clinic-backend/pkg/logger"
)

// surface passes AppErrors through untouched. Anything else is logged once
// under op and replaced by a generic 500 carrying message.
func surface(log *logger.Logger, op string, err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	log.Error().Err(err).Str("op", op).Msg("unexpected error")
	return errors.Internal(message)
}
