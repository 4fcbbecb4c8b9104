package consumers

import (
	"context"

	"github.com/medflow/clinic-backend/internal/clinic/domain"
	"github.com/medflow/clinic-backend/pkg/logger"
	"github.com/medflow/clinic-backend/pkg/messaging"
)

// BufferQueue is the queue the buffer watcher reads from
const BufferQueue = "clinic-service.buffer-watch"

// BufferChecker is satisfied by *service.BufferService
type BufferChecker interface {
	CheckBuffer(ctx context.Context, keys []domain.StockKey) ([]domain.BufferStatus, error)
	CheckAll(ctx context.Context) ([]domain.BufferStatus, error)
}

// BufferEventHandler re-checks buffer levels whenever stock leaves the shelf
type BufferEventHandler struct {
	buffers BufferChecker
	logger  *logger.Logger
}

// NewBufferEventHandler creates a handler usable without a broker
func NewBufferEventHandler(buffers BufferChecker, log *logger.Logger) *BufferEventHandler {
	return &BufferEventHandler{buffers: buffers, logger: log}
}

func stockKeys(keys []messaging.StockKey) []domain.StockKey {
	out := make([]domain.StockKey, len(keys))
	for i, k := range keys {
		out[i] = domain.StockKey{DrugID: k.DrugID, Type: domain.DrugType(k.Type), ConcentrationID: k.ConcentrationID}
	}
	return out
}

// HandlePrescriptionCompleted checks the groups a prescription drew from
func (h *BufferEventHandler) HandlePrescriptionCompleted(ctx context.Context, event *messaging.Event) error {
	var data messaging.PrescriptionCompletedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}

	low, err := h.buffers.CheckBuffer(ctx, stockKeys(data.Stock))
	if err != nil {
		return err
	}
	h.logger.Debug().
		Int64("prescription_id", data.PrescriptionID).
		Int("below_buffer", len(low)).
		Msg("checked buffer after dispensing")
	return nil
}

// HandleBatchStatusChanged checks the batch's group when it leaves AVAILABLE
func (h *BufferEventHandler) HandleBatchStatusChanged(ctx context.Context, event *messaging.Event) error {
	var data messaging.BatchStatusChangedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}
	if data.FromStatus != string(domain.BatchAvailable) {
		return nil
	}

	_, err := h.buffers.CheckBuffer(ctx, stockKeys([]messaging.StockKey{data.Stock}))
	return err
}

// HandleBatchesExpired checks every group after an expiry sweep
func (h *BufferEventHandler) HandleBatchesExpired(ctx context.Context, event *messaging.Event) error {
	var data messaging.BatchesExpiredEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}

	low, err := h.buffers.CheckAll(ctx)
	if err != nil {
		return err
	}
	h.logger.Info().
		Int("expired", len(data.BatchIDs)).
		Int("below_buffer", len(low)).
		Msg("checked buffer after expiry sweep")
	return nil
}

// BufferConsumer feeds clinic events to a BufferEventHandler
type BufferConsumer struct {
	consumer *messaging.Consumer
	handler  *BufferEventHandler
}

// NewBufferConsumer binds the buffer queue to the clinic exchange
func NewBufferConsumer(rmq *messaging.RabbitMQ, buffers BufferChecker, log *logger.Logger) (*BufferConsumer, error) {
	consumer, err := messaging.NewConsumer(rmq, BufferQueue, log)
	if err != nil {
		return nil, err
	}

	for _, key := range []string{
		messaging.EventPrescriptionCompleted,
		messaging.EventBatchStatusChanged,
		messaging.EventBatchesExpired,
	} {
		if err := consumer.Subscribe(messaging.ExchangeClinicEvents, key); err != nil {
			return nil, err
		}
	}

	handler := NewBufferEventHandler(buffers, log.WithComponent("buffer-watch"))
	consumer.RegisterHandler(messaging.EventPrescriptionCompleted, handler.HandlePrescriptionCompleted)
	consumer.RegisterHandler(messaging.EventBatchStatusChanged, handler.HandleBatchStatusChanged)
	consumer.RegisterHandler(messaging.EventBatchesExpired, handler.HandleBatchesExpired)

	return &BufferConsumer{consumer: consumer, handler: handler}, nil
}

// Start starts consuming messages
func (c *BufferConsumer) Start(ctx context.Context) error {
	return c.consumer.Start(ctx)
}
