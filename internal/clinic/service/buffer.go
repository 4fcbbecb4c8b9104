package service

import (
	"context"

	"github.com/medflow/clinic-backend/internal/clinic/domain"
	"github.com/medflow/clinic-backend/internal/clinic/events"
	"github.com/medflow/clinic-backend/internal/clinic/repository"
	"github.com/medflow/clinic-backend/pkg/database"
	"github.com/medflow/clinic-backend/pkg/errors"
	"github.com/medflow/clinic-backend/pkg/httputil"
	"github.com/medflow/clinic-backend/pkg/logger"
)

// BufferService ranks stock groups against their buffer levels
type BufferService struct {
	db      *database.DB
	buffers *repository.BufferRepository
	catalog *repository.CatalogRepository
	events  *events.ClinicEventPublisher
	logger  *logger.Logger
}

// NewBufferService creates a new buffer service
func NewBufferService(db *database.DB, pub *events.ClinicEventPublisher, log *logger.Logger) *BufferService {
	return &BufferService{
		db:      db,
		buffers: repository.NewBufferRepository(db),
		catalog: repository.NewCatalogRepository(db),
		events:  pub,
		logger:  log.WithComponent("buffer"),
	}
}

// List returns the stock groups whose drug name contains query, ranked by mode
func (s *BufferService) List(ctx context.Context, query string, mode domain.BufferMode) ([]domain.BufferStatus, error) {
	rows, err := s.buffers.Groups(ctx, query)
	if err != nil {
		return nil, surface(s.logger, "ListBuffer", err, "Failed to load buffer levels")
	}
	return domain.RankBuffer(rows, mode)
}

// UpdateBufferLevel sets the buffer of one stock group, creating it if needed
func (s *BufferService) UpdateBufferLevel(ctx context.Context, req *domain.UpdateBufferRequest) (*domain.BufferLevel, error) {
	if req.DrugID <= 0 {
		return nil, errors.BadRequest("Invalid drug ID")
	}
	if req.BufferAmount < 0 {
		return nil, errors.BadRequest("Buffer level cannot be negative")
	}
	if err := httputil.Validate(req); err != nil {
		return nil, err
	}

	key := domain.StockKey{DrugID: req.DrugID, Type: req.Type, ConcentrationID: req.ConcentrationID}
	var level *domain.BufferLevel
	err := s.db.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.catalog.GetDrug(ctx, req.DrugID); err != nil {
			return err
		}
		var err error
		level, err = s.buffers.FindLevel(ctx, key)
		if err != nil {
			return err
		}
		if level == nil {
			level = &domain.BufferLevel{StockKey: key, BufferAmount: req.BufferAmount}
			return s.buffers.InsertLevel(ctx, level)
		}
		level.BufferAmount = req.BufferAmount
		return s.buffers.UpdateLevel(ctx, level.ID, req.BufferAmount)
	})
	if err != nil {
		return nil, surface(s.logger, "UpdateBufferLevel", err, "Failed to update buffer level")
	}
	return level, nil
}

// CheckBuffer re-reads the listed stock groups and raises a below-buffer
// event for each one under its buffer. Groups that no longer exist are skipped.
func (s *BufferService) CheckBuffer(ctx context.Context, keys []domain.StockKey) ([]domain.BufferStatus, error) {
	var low []domain.BufferStatus
	for _, key := range keys {
		row, err := s.buffers.Group(ctx, key)
		if errors.Is(err, errors.ErrNotFound) {
			continue
		}
		if err != nil {
			return low, surface(s.logger, "CheckBuffer", err, "Failed to check buffer levels")
		}
		status := domain.NewBufferStatus(*row)
		if status.BelowBuffer() {
			low = append(low, status)
			s.events.PublishStockBelowBuffer(ctx, status)
		}
	}
	return low, nil
}

// CheckAll is CheckBuffer over every stock group with AVAILABLE batches
func (s *BufferService) CheckAll(ctx context.Context) ([]domain.BufferStatus, error) {
	rows, err := s.buffers.Groups(ctx, "")
	if err != nil {
		return nil, surface(s.logger, "CheckAll", err, "Failed to check buffer levels")
	}
	var low []domain.BufferStatus
	for _, row := range rows {
		status := domain.NewBufferStatus(row)
		if status.BelowBuffer() {
			low = append(low, status)
			s.events.PublishStockBelowBuffer(ctx, status)
		}
	}
	return low, nil
}
