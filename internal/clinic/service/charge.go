package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/medflow/clinic-backend/internal/clinic/domain"
	"github.com/medflow/clinic-backend/internal/clinic/repository"
	"github.com/medflow/clinic-backend/pkg/database"
	"github.com/medflow/clinic-backend/pkg/errors"
	"github.com/medflow/clinic-backend/pkg/httputil"
	"github.com/medflow/clinic-backend/pkg/logger"
)

// ChargeService maintains the configured fees
type ChargeService struct {
	db      *database.DB
	charges *repository.ChargeRepository
	logger  *logger.Logger
}

// NewChargeService creates a new charge service
func NewChargeService(db *database.DB, log *logger.Logger) *ChargeService {
	return &ChargeService{
		db:      db,
		charges: repository.NewChargeRepository(db),
		logger:  log.WithComponent("charges"),
	}
}

// List returns every charge
func (s *ChargeService) List(ctx context.Context) ([]domain.Charge, error) {
	charges, err := s.charges.List(ctx)
	if err != nil {
		return nil, surface(s.logger, "List", err, "Failed to load charges")
	}
	return charges, nil
}

// BulkUpdate saves every row in one transaction; one bad row saves nothing
func (s *ChargeService) BulkUpdate(ctx context.Context, inputs []domain.ChargeInput) ([]domain.Charge, error) {
	if len(inputs) == 0 {
		return nil, errors.BadRequest("No charges provided")
	}
	for i := range inputs {
		inputs[i].Name = strings.TrimSpace(inputs[i].Name)
		if err := httputil.ValidateWithMessage(inputs[i], "Please fill all fields"); err != nil {
			return nil, err
		}
		if inputs[i].Value.IsNegative() {
			return nil, errors.BadRequest(fmt.Sprintf("Charge %q cannot be negative", inputs[i].Name))
		}
	}

	saved := make([]domain.Charge, 0, len(inputs))
	err := s.db.InTx(ctx, func(ctx context.Context) error {
		for _, in := range inputs {
			c := domain.Charge{ID: in.ID, Name: in.Name, Type: in.Type, Value: in.Value}
			var err error
			if in.IsNew() {
				err = s.charges.Insert(ctx, &c)
			} else {
				err = s.charges.Update(ctx, &c)
			}
			if err != nil {
				return err
			}
			saved = append(saved, c)
		}
		return nil
	})
	if err != nil {
		return nil, surface(s.logger, "BulkUpdate", err, "Failed to save charges")
	}

	s.logger.Info().Int("count", len(saved)).Msg("Charges updated")
	return saved, nil
}

// Delete removes a charge. DOCTOR and DISPENSARY are read by billing and stay.
func (s *ChargeService) Delete(ctx context.Context, id int64) error {
	err := s.db.InTx(ctx, func(ctx context.Context) error {
		c, err := s.charges.Get(ctx, id)
		if err != nil {
			return err
		}
		if c.IsReserved() {
			return errors.Conflict(fmt.Sprintf("The %s charge is required for billing and cannot be deleted", c.Name))
		}
		return s.charges.Delete(ctx, id)
	})
	if err != nil {
		return surface(s.logger, "Delete", err, "Failed to delete charge")
	}
	return nil
}
