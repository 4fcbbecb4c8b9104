package events

import (
	"context"
	"time"

	"github.com/medflow/clinic-backend/internal/clinic/domain"
	"github.com/medflow/clinic-backend/pkg/logger"
	"github.com/medflow/clinic-backend/pkg/messaging"
)

// Source names this service on every event it emits
const Source = "clinic-service"

// Publisher is satisfied by *messaging.Publisher
type Publisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// ClinicEventPublisher publishes clinic events. Publishing is best effort:
// failures are logged and never fail the operation that raised the event.
// A nil *ClinicEventPublisher publishes nothing.
type ClinicEventPublisher struct {
	publisher Publisher
	logger    *logger.Logger
}

// NewClinicEventPublisher creates a publisher on the clinic exchange
func NewClinicEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*ClinicEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeClinicEvents, Source, log)
	if err != nil {
		return nil, err
	}
	return NewWithPublisher(publisher, log), nil
}

// NewWithPublisher wraps an existing publisher
func NewWithPublisher(publisher Publisher, log *logger.Logger) *ClinicEventPublisher {
	return &ClinicEventPublisher{
		publisher: publisher,
		logger:    log,
	}
}

// StockKey converts a domain stock key to its wire form
func StockKey(k domain.StockKey) messaging.StockKey {
	return messaging.StockKey{DrugID: k.DrugID, Type: string(k.Type), ConcentrationID: k.ConcentrationID}
}

// PublishBatchStatusChanged publishes a batch status change
func (p *ClinicEventPublisher) PublishBatchStatusChanged(ctx context.Context, b *domain.Batch, from domain.BatchStatus, changedBy int64) {
	if p == nil {
		return
	}
	data := messaging.BatchStatusChangedEvent{
		BatchID:    b.ID,
		BatchNo:    b.Number,
		FromStatus: string(from),
		ToStatus:   string(b.Status),
		Stock:      StockKey(b.StockKey()),
		ChangedBy:  changedBy,
	}
	if err := p.publisher.Publish(ctx, messaging.EventBatchStatusChanged, data); err != nil {
		p.logger.Error().Err(err).Int64("batch_id", b.ID).Msg("failed to publish batch status changed event")
	}
}

// PublishBatchesExpired publishes the result of an expiry sweep
func (p *ClinicEventPublisher) PublishBatchesExpired(ctx context.Context, ids []int64, runAt time.Time) {
	if p == nil || len(ids) == 0 {
		return
	}
	data := messaging.BatchesExpiredEvent{BatchIDs: ids, RunAt: runAt.UTC()}
	if err := p.publisher.Publish(ctx, messaging.EventBatchesExpired, data); err != nil {
		p.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to publish batches expired event")
	}
}

// PublishStockReceived publishes an inventory intake
func (p *ClinicEventPublisher) PublishStockReceived(ctx context.Context, b *domain.Batch, supplier string) {
	if p == nil {
		return
	}
	data := messaging.StockReceivedEvent{
		BatchID:  b.ID,
		BatchNo:  b.Number,
		Supplier: supplier,
		Quantity: b.FullAmount,
		Stock:    StockKey(b.StockKey()),
	}
	if err := p.publisher.Publish(ctx, messaging.EventStockReceived, data); err != nil {
		p.logger.Error().Err(err).Int64("batch_id", b.ID).Msg("failed to publish stock received event")
	}
}

// PublishStockBelowBuffer publishes a low-stock warning
func (p *ClinicEventPublisher) PublishStockBelowBuffer(ctx context.Context, s domain.BufferStatus) {
	if p == nil || s.BufferAmount == nil {
		return
	}
	data := messaging.StockBelowBufferEvent{
		Stock:        StockKey(s.StockKey),
		DrugName:     s.DrugName,
		Remaining:    s.RemainingQuantity,
		BufferAmount: *s.BufferAmount,
	}
	if err := p.publisher.Publish(ctx, messaging.EventStockBelowBuffer, data); err != nil {
		p.logger.Error().Err(err).Int64("drug_id", s.DrugID).Msg("failed to publish stock below buffer event")
	}
}

// PublishBillCalculated publishes a committed bill
func (p *ClinicEventPublisher) PublishBillCalculated(ctx context.Context, bill *domain.Bill, batchIDs []int64) {
	if p == nil {
		return
	}
	data := messaging.BillCalculatedEvent{
		BillID:          bill.BillID,
		PrescriptionID:  bill.PrescriptionID,
		PatientID:       bill.PatientID,
		MedicinesCharge: bill.MedicinesCharge.StringFixed(2),
		Cost:            bill.Cost.StringFixed(2),
		BatchIDs:        batchIDs,
	}
	if err := p.publisher.Publish(ctx, messaging.EventBillCalculated, data); err != nil {
		p.logger.Error().Err(err).Int64("prescription_id", bill.PrescriptionID).Msg("failed to publish bill calculated event")
	}
}

// PublishPrescriptionCompleted publishes a dispensed prescription with the
// stock groups it drew from
func (p *ClinicEventPublisher) PublishPrescriptionCompleted(ctx context.Context, rx *domain.Prescription, keys []domain.StockKey) {
	if p == nil {
		return
	}
	stock := make([]messaging.StockKey, len(keys))
	for i, k := range keys {
		stock[i] = StockKey(k)
	}
	data := messaging.PrescriptionCompletedEvent{
		PrescriptionID: rx.ID,
		PatientID:      rx.PatientID,
		Stock:          stock,
	}
	if err := p.publisher.Publish(ctx, messaging.EventPrescriptionCompleted, data); err != nil {
		p.logger.Error().Err(err).Int64("prescription_id", rx.ID).Msg("failed to publish prescription completed event")
	}
}
