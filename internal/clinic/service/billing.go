package service

import (
	"context"
	"time"

	"github.com/medflow/clinic-backend/internal/clinic/domain"
	"github.com/medflow/clinic-backend/internal/clinic/events"
	"github.com/medflow/clinic-backend/internal/clinic/repository"
	"github.com/medflow/clinic-backend/pkg/database"
	"github.com/medflow/clinic-backend/pkg/errors"
	"github.com/medflow/clinic-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

// BillingService prices prescriptions and draws their stock
type BillingService struct {
	db            *database.DB
	prescriptions *repository.PrescriptionRepository
	batches       *repository.BatchRepository
	bills         *repository.BillRepository
	charges       *repository.ChargeRepository
	history       *repository.HistoryRepository
	events        *events.ClinicEventPublisher
	timeout       time.Duration
	logger        *logger.Logger
}

// NewBillingService creates a new billing service. timeout bounds the whole
// bill calculation transaction.
func NewBillingService(db *database.DB, timeout time.Duration, pub *events.ClinicEventPublisher, log *logger.Logger) *BillingService {
	return &BillingService{
		db:            db,
		prescriptions: repository.NewPrescriptionRepository(db),
		batches:       repository.NewBatchRepository(db),
		bills:         repository.NewBillRepository(db),
		charges:       repository.NewChargeRepository(db),
		history:       repository.NewHistoryRepository(db),
		events:        pub,
		timeout:       timeout,
		logger:        log.WithComponent("billing"),
	}
}

// CalculateBill links each issue to its batch, remembers the batch per drug
// line for next time and stores the bill. Calling it again before the
// prescription is completed overwrites the stored charges.
func (s *BillingService) CalculateBill(ctx context.Context, req *domain.CalculateBillRequest) (*domain.Bill, error) {
	var bill domain.Bill
	err := s.db.TransactionWithTimeout(ctx, s.timeout, func(ctx context.Context) error {
		rx, err := s.prescriptions.GetForUpdate(ctx, req.PrescriptionID)
		if err != nil {
			return err
		}
		if rx.Status == domain.PrescriptionCompleted {
			return errors.Conflict("Prescription already completed")
		}
		if req.PatientID != 0 && req.PatientID != rx.PatientID {
			return errors.BadRequest("Prescription does not belong to this patient")
		}

		charges, err := s.charges.GetByNames(ctx, domain.DoctorChargeName, domain.DispensaryChargeName)
		if err != nil {
			return err
		}
		fees := domain.FeesFromCharges(charges)

		for _, a := range req.Assignments {
			if a.BatchID == nil {
				return errors.BadRequest("Batch not found for a drug")
			}
		}

		lines, err := s.resolve(ctx, rx.ID, req)
		if err != nil {
			return err
		}

		doctor := domain.DoctorCharge(fees, rx)
		record, err := s.storeBill(ctx, rx.ID, doctor, fees.Dispensary)
		if err != nil {
			return err
		}

		for _, a := range req.Assignments {
			if err := s.prescriptions.AssignBatch(ctx, a.IssueID, *a.BatchID); err != nil {
				return err
			}
		}

		for _, h := range domain.HistoryUpdates(lines) {
			if err := s.history.Remember(ctx, &h); err != nil {
				return err
			}
		}

		bill = domain.PriceBill(rx, doctor, fees.Dispensary, lines)
		bill.BillID = record.ID
		return s.bills.SetMedicinesCharge(ctx, record.ID, bill.MedicinesCharge)
	})
	if err != nil {
		return nil, surface(s.logger, "CalculateBill", err, "Failed to calculate bill")
	}

	s.events.PublishBillCalculated(ctx, &bill, req.BatchIDs())
	return &bill, nil
}

// resolve loads the assigned issues and batches and pairs them in request order
func (s *BillingService) resolve(ctx context.Context, prescriptionID int64, req *domain.CalculateBillRequest) ([]domain.DispensedLine, error) {
	issues, err := s.prescriptions.IssuesByIDs(ctx, prescriptionID, req.IssueIDs())
	if err != nil {
		return nil, err
	}
	issueByID := make(map[int64]domain.Issue, len(issues))
	for _, i := range issues {
		issueByID[i.ID] = i
	}

	batchIDs := req.BatchIDs()
	batches, err := s.batches.GetDetailsByIDs(ctx, batchIDs)
	if err != nil {
		return nil, err
	}
	if len(batches) != len(batchIDs) {
		return nil, errors.NotFoundf("Some batches were not found")
	}
	batchByID := make(map[int64]domain.BatchDetail, len(batches))
	for _, b := range batches {
		batchByID[b.ID] = b
	}

	lines := make([]domain.DispensedLine, 0, len(req.Assignments))
	for _, a := range req.Assignments {
		issue, ok := issueByID[a.IssueID]
		if !ok {
			return nil, errors.NotFoundf("Issue %d not found on this prescription", a.IssueID)
		}
		lines = append(lines, domain.DispensedLine{Issue: issue, Batch: batchByID[*a.BatchID]})
	}
	return lines, nil
}

// storeBill finds the prescription's bill and inserts or updates it with a
// zero medicines charge
func (s *BillingService) storeBill(ctx context.Context, prescriptionID int64, doctor, dispensary decimal.Decimal) (*domain.BillRecord, error) {
	record, err := s.bills.FindByPrescription(ctx, prescriptionID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		record = &domain.BillRecord{
			PrescriptionID:   prescriptionID,
			DoctorCharge:     doctor,
			DispensaryCharge: dispensary,
			MedicinesCharge:  decimal.Zero,
		}
		return record, s.bills.Insert(ctx, record)
	}

	record.DoctorCharge = doctor
	record.DispensaryCharge = dispensary
	record.MedicinesCharge = decimal.Zero
	return record, s.bills.UpdateCharges(ctx, record)
}

// GetBill rebuilds a calculated bill from the stored charges and the
// batches its issues were linked to
func (s *BillingService) GetBill(ctx context.Context, prescriptionID int64) (*domain.Bill, error) {
	bill, err := s.getBill(ctx, prescriptionID)
	if err != nil {
		return nil, surface(s.logger, "GetBill", err, "Failed to load bill")
	}
	return bill, nil
}

func (s *BillingService) getBill(ctx context.Context, prescriptionID int64) (*domain.Bill, error) {
	rx, err := s.prescriptions.Get(ctx, prescriptionID)
	if err != nil {
		return nil, err
	}
	if rx.Status == domain.PrescriptionPending {
		return nil, errors.Conflict("Prescription not completed")
	}

	record, err := s.bills.FindByPrescription(ctx, rx.ID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, errors.Conflict("Prescription not completed")
	}

	issues, err := s.prescriptions.Issues(ctx, rx.ID)
	if err != nil {
		return nil, err
	}
	req := domain.CalculateBillRequest{PrescriptionID: rx.ID}
	for _, i := range issues {
		if i.BatchID == nil {
			return nil, errors.Conflict("Prescription not completed")
		}
		req.Assignments = append(req.Assignments, domain.BatchAssignment{IssueID: i.ID, BatchID: i.BatchID})
	}

	batches, err := s.batches.GetDetailsByIDs(ctx, req.BatchIDs())
	if err != nil {
		return nil, err
	}
	batchByID := make(map[int64]domain.BatchDetail, len(batches))
	for _, b := range batches {
		batchByID[b.ID] = b
	}

	lines := make([]domain.DispensedLine, len(issues))
	for i, issue := range issues {
		lines[i] = domain.DispensedLine{Issue: issue, Batch: batchByID[*issue.BatchID]}
	}

	bill := domain.PriceBill(rx, record.DoctorCharge, record.DispensaryCharge, lines)
	bill.BillID = record.ID
	return &bill, nil
}

// CompletePrescription draws every issue's quantity from its batch and
// marks the prescription COMPLETED. A batch that runs out is marked
// COMPLETED as well.
func (s *BillingService) CompletePrescription(ctx context.Context, prescriptionID int64) error {
	var (
		rx   *domain.Prescription
		keys []domain.StockKey
	)
	err := s.db.InTx(ctx, func(ctx context.Context) error {
		var err error
		rx, err = s.prescriptions.GetForUpdate(ctx, prescriptionID)
		if err != nil {
			return err
		}
		if rx.Status == domain.PrescriptionCompleted {
			return errors.Conflict("Prescription already completed")
		}

		record, err := s.bills.FindByPrescription(ctx, rx.ID)
		if err != nil {
			return err
		}
		if record == nil {
			return errors.Conflict("Bill has not been calculated")
		}

		issues, err := s.prescriptions.Issues(ctx, rx.ID)
		if err != nil {
			return err
		}

		seen := make(map[domain.StockKey]struct{})
		for _, issue := range issues {
			if issue.BatchID == nil {
				return errors.Conflict("Every drug needs a batch before the prescription is completed")
			}
			batch, err := s.batches.GetForUpdate(ctx, *issue.BatchID)
			if err != nil {
				return err
			}
			if batch.Status != domain.BatchAvailable {
				return errors.Conflict("Batch " + batch.Number + " is no longer available")
			}

			remaining, err := s.batches.Decrement(ctx, batch.ID, issue.Quantity)
			if err != nil {
				return err
			}
			if remaining == 0 {
				if err := s.batches.UpdateStatus(ctx, batch.ID, domain.BatchCompleted); err != nil {
					return err
				}
			}

			if _, ok := seen[batch.StockKey()]; !ok {
				seen[batch.StockKey()] = struct{}{}
				keys = append(keys, batch.StockKey())
			}
		}

		return s.prescriptions.SetStatus(ctx, rx.ID, domain.PrescriptionCompleted)
	})
	if err != nil {
		return surface(s.logger, "CompletePrescription", err, "Failed to complete prescription")
	}

	s.events.PublishPrescriptionCompleted(ctx, rx, keys)
	return nil
}
