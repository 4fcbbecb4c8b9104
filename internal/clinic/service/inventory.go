package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/medflow/clinic-backend/internal/clinic/domain"
	"github.com/medflow/clinic-backend/internal/clinic/events"
	"github.com/medflow/clinic-backend/internal/clinic/repository"
	"github.com/medflow/clinic-backend/pkg/database"
	"github.com/medflow/clinic-backend/pkg/errors"
	"github.com/medflow/clinic-backend/pkg/httputil"
	"github.com/medflow/clinic-backend/pkg/logger"
)

// InventoryService handles batch intake and lifecycle
type InventoryService struct {
	db      *database.DB
	batches *repository.BatchRepository
	catalog *repository.CatalogRepository
	buffers *repository.BufferRepository
	history *repository.HistoryRepository
	policy  *domain.TransitionPolicy
	events  *events.ClinicEventPublisher
	logger  *logger.Logger
	now     func() time.Time
}

// NewInventoryService creates a new inventory service
func NewInventoryService(db *database.DB, policy *domain.TransitionPolicy, pub *events.ClinicEventPublisher, log *logger.Logger) *InventoryService {
	return &InventoryService{
		db:      db,
		batches: repository.NewBatchRepository(db),
		catalog: repository.NewCatalogRepository(db),
		buffers: repository.NewBufferRepository(db),
		history: repository.NewHistoryRepository(db),
		policy:  policy,
		events:  pub,
		logger:  log.WithComponent("inventory"),
		now:     time.Now,
	}
}

// ChangeBatchStatus applies a status action to a batch if the policy
// allows the edge from its current status
func (s *InventoryService) ChangeBatchStatus(ctx context.Context, req *domain.ChangeStatusRequest, changedBy int64) (*domain.Batch, error) {
	if req.BatchID <= 0 {
		return nil, errors.BadRequest("Batch ID not provided")
	}
	to, err := domain.ActionStatus(req.Action)
	if err != nil {
		return nil, err
	}

	var (
		batch *domain.Batch
		from  domain.BatchStatus
	)
	err = s.db.InTx(ctx, func(ctx context.Context) error {
		var err error
		batch, err = s.batches.GetForUpdate(ctx, req.BatchID)
		if err != nil {
			return err
		}
		from = batch.Status
		if from == to {
			return errors.Conflict("Batch is already " + string(to))
		}
		if err := s.policy.Check(from, to); err != nil {
			return err
		}
		batch.Status = to
		return s.batches.UpdateStatus(ctx, batch.ID, to)
	})
	if err != nil {
		return nil, surface(s.logger, "ChangeBatchStatus", err, "Failed to update batch status")
	}

	s.logger.Info().
		Int64("batch_id", batch.ID).
		Str("from", string(from)).
		Str("to", string(to)).
		Msg("batch status changed")
	s.events.PublishBatchStatusChanged(ctx, batch, from, changedBy)
	return batch, nil
}

// ExpireBatches moves every AVAILABLE batch past its expiry to EXPIRED and
// returns how many moved. Nothing moves when the policy forbids the edge.
func (s *InventoryService) ExpireBatches(ctx context.Context, now time.Time) (int, error) {
	if !s.policy.Allows(domain.BatchAvailable, domain.BatchExpired) {
		s.logger.Warn().Msg("AVAILABLE->EXPIRED is not an allowed transition, skipping expiry sweep")
		return 0, nil
	}

	var expired []int64
	err := s.db.InTx(ctx, func(ctx context.Context) error {
		batches, err := s.batches.ListExpiredAvailable(ctx, now)
		if err != nil {
			return err
		}
		for _, b := range batches {
			if err := s.batches.UpdateStatus(ctx, b.ID, domain.BatchExpired); err != nil {
				return err
			}
			expired = append(expired, b.ID)
		}
		return nil
	})
	if err != nil {
		return 0, surface(s.logger, "ExpireBatches", err, "Failed to expire batches")
	}

	if len(expired) > 0 {
		s.logger.Info().Int("count", len(expired)).Msg("expired batches")
	}
	s.events.PublishBatchesExpired(ctx, expired, now)
	return len(expired), nil
}

// ReceiveStock registers a delivered batch, creating the drug, brand,
// supplier and concentration it names when they are new, and records the
// buffer level of its stock group
func (s *InventoryService) ReceiveStock(ctx context.Context, req *domain.ReceiveStockRequest) (*domain.Batch, error) {
	if err := httputil.ValidateWithMessage(req, "Please fill all fields"); err != nil {
		return nil, err
	}
	if req.RetailPrice.IsNegative() || req.WholesalePrice.IsNegative() {
		return nil, errors.BadRequest("Prices cannot be negative")
	}
	if req.ConcentrationID != domain.NewConcentrationID && req.ConcentrationID <= 0 {
		return nil, errors.BadRequest("Select a valid concentration")
	}

	batch := &domain.Batch{
		Number:            strings.TrimSpace(req.BatchNumber),
		Type:              req.DrugType,
		FullAmount:        req.Quantity,
		RemainingQuantity: req.Quantity,
		Expiry:            req.ExpiryDate(),
		StockDate:         s.now(),
		RetailPrice:       req.RetailPrice,
		WholesalePrice:    req.WholesalePrice,
		Status:            domain.BatchAvailable,
	}
	var supplier *domain.Supplier

	err := s.db.InTx(ctx, func(ctx context.Context) error {
		var err error
		if batch.BrandID, err = s.brandFor(ctx, req); err != nil {
			return err
		}
		if batch.DrugID, err = s.drugFor(ctx, req); err != nil {
			return err
		}
		if supplier, err = s.supplierFor(ctx, req); err != nil {
			return err
		}
		batch.SupplierID = supplier.ID
		if batch.ConcentrationID, err = s.concentrationFor(ctx, req); err != nil {
			return err
		}

		if err := s.batches.Create(ctx, batch); err != nil {
			return err
		}

		level, err := s.buffers.FindLevel(ctx, batch.StockKey())
		if err != nil {
			return err
		}
		if level == nil {
			return s.buffers.InsertLevel(ctx, &domain.BufferLevel{StockKey: batch.StockKey(), BufferAmount: req.Buffer})
		}
		return s.buffers.UpdateLevel(ctx, level.ID, req.Buffer)
	})
	if err != nil {
		return nil, surface(s.logger, "ReceiveStock", err, "Failed to add item")
	}

	s.logger.Info().
		Int64("batch_id", batch.ID).
		Str("batch_no", batch.Number).
		Float64("quantity", batch.FullAmount).
		Msg("stock received")
	s.events.PublishStockReceived(ctx, batch, supplier.Name)
	return batch, nil
}

func (s *InventoryService) brandFor(ctx context.Context, req *domain.ReceiveStockRequest) (int64, error) {
	if req.BrandID != nil && *req.BrandID > 0 {
		brand, err := s.catalog.GetBrand(ctx, *req.BrandID)
		if err != nil {
			return 0, err
		}
		return brand.ID, nil
	}
	brand := &domain.Brand{Name: strings.TrimSpace(req.BrandName), Description: req.BrandDescription}
	if err := s.catalog.CreateBrand(ctx, brand); err != nil {
		return 0, err
	}
	return brand.ID, nil
}

func (s *InventoryService) drugFor(ctx context.Context, req *domain.ReceiveStockRequest) (int64, error) {
	if req.DrugID != nil && *req.DrugID > 0 {
		drug, err := s.catalog.GetDrug(ctx, *req.DrugID)
		if err != nil {
			return 0, err
		}
		return drug.ID, nil
	}
	name := strings.TrimSpace(req.DrugName)
	drug, err := s.catalog.FindDrugByName(ctx, name)
	if err != nil {
		return 0, err
	}
	if drug != nil {
		return drug.ID, nil
	}
	drug = &domain.Drug{Name: name}
	if err := s.catalog.CreateDrug(ctx, drug); err != nil {
		return 0, err
	}
	return drug.ID, nil
}

func (s *InventoryService) supplierFor(ctx context.Context, req *domain.ReceiveStockRequest) (*domain.Supplier, error) {
	var id int64
	if req.SupplierID != nil {
		id = *req.SupplierID
	}
	name := strings.TrimSpace(req.SupplierName)
	contact := strings.TrimSpace(req.SupplierContact)

	supplier, err := s.catalog.FindSupplier(ctx, id, name)
	if err != nil {
		return nil, err
	}
	if supplier == nil {
		supplier = &domain.Supplier{Name: name, Contact: contact}
		return supplier, s.catalog.CreateSupplier(ctx, supplier)
	}
	if supplier.Contact != contact {
		supplier.Contact = contact
		if err := s.catalog.UpdateSupplierContact(ctx, supplier.ID, contact); err != nil {
			return nil, err
		}
	}
	return supplier, nil
}

func (s *InventoryService) concentrationFor(ctx context.Context, req *domain.ReceiveStockRequest) (int64, error) {
	if req.ConcentrationID != domain.NewConcentrationID {
		return req.ConcentrationID, nil
	}
	c, err := s.catalog.FindConcentration(ctx, req.Concentration)
	if err != nil {
		return 0, err
	}
	if c != nil {
		return c.ID, nil
	}
	c = &domain.Concentration{Concentration: req.Concentration}
	if err := s.catalog.CreateConcentration(ctx, c); err != nil {
		return 0, err
	}
	return c.ID, nil
}

// GetBatch gets a batch with the names it references
func (s *InventoryService) GetBatch(ctx context.Context, id int64) (*domain.BatchDetail, error) {
	b, err := s.batches.GetDetail(ctx, id)
	if err != nil {
		return nil, surface(s.logger, "GetBatch", err, "Failed to load batch")
	}
	return b, nil
}

// IssuedPatients lists who received drugs from a batch
func (s *InventoryService) IssuedPatients(ctx context.Context, batchID int64) ([]domain.IssuedPatient, error) {
	if _, err := s.batches.GetByID(ctx, batchID); err != nil {
		return nil, surface(s.logger, "IssuedPatients", err, "Failed to load issued patients")
	}
	out, err := s.batches.IssuedPatients(ctx, batchID)
	if err != nil {
		return nil, surface(s.logger, "IssuedPatients", err, "Failed to load issued patients")
	}
	return out, nil
}

// SuggestBatches offers the unexpired AVAILABLE batches of a drug and brand,
// earliest expiry first, with the last batch dispensed for the pair flagged
// Preferred and moved to the front
func (s *InventoryService) SuggestBatches(ctx context.Context, drugID, brandID int64) ([]domain.BatchSuggestion, error) {
	batches, err := s.batches.ListAvailable(ctx, drugID, brandID, s.now())
	if err != nil {
		return nil, surface(s.logger, "SuggestBatches", err, "Failed to load batches")
	}
	preferred, err := s.history.Preferred(ctx, drugID, brandID)
	if err != nil {
		return nil, surface(s.logger, "SuggestBatches", err, "Failed to load batches")
	}
	isPreferred := make(map[int64]bool, len(preferred))
	for _, id := range preferred {
		isPreferred[id] = true
	}

	out := make([]domain.BatchSuggestion, len(batches))
	for i, b := range batches {
		out[i] = domain.BatchSuggestion{BatchDetail: b, Preferred: isPreferred[b.ID]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Preferred && !out[j].Preferred })
	return out, nil
}
