package consumers_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/medflow/clinic-backend/internal/clinic/consumers"
	"github.com/medflow/clinic-backend/internal/clinic/domain"
	"github.com/medflow/clinic-backend/pkg/logger"
	"github.com/medflow/clinic-backend/pkg/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChecker struct {
	checked  [][]domain.StockKey
	allCalls int
	err      error
}

func (f *fakeChecker) CheckBuffer(_ context.Context, keys []domain.StockKey) ([]domain.BufferStatus, error) {
	f.checked = append(f.checked, keys)
	return nil, f.err
}

func (f *fakeChecker) CheckAll(_ context.Context) ([]domain.BufferStatus, error) {
	f.allCalls++
	return nil, f.err
}

func newEvent(t *testing.T, eventType string, data interface{}) *messaging.Event {
	t.Helper()
	event, err := messaging.NewEvent(eventType, "clinic-service", "", data)
	require.NoError(t, err)
	return event
}

func TestHandlePrescriptionCompleted(t *testing.T) {
	checker := &fakeChecker{}
	handler := consumers.NewBufferEventHandler(checker, logger.Nop())

	event := newEvent(t, messaging.EventPrescriptionCompleted, messaging.PrescriptionCompletedEvent{
		PrescriptionID: 1,
		PatientID:      5,
		Stock: []messaging.StockKey{
			{DrugID: 1, Type: "TABLET", ConcentrationID: 2},
			{DrugID: 3, Type: "SYRUP", ConcentrationID: 4},
		},
	})

	require.NoError(t, handler.HandlePrescriptionCompleted(context.Background(), event))
	require.Len(t, checker.checked, 1)
	assert.Equal(t, []domain.StockKey{
		{DrugID: 1, Type: domain.DrugTablet, ConcentrationID: 2},
		{DrugID: 3, Type: domain.DrugSyrup, ConcentrationID: 4},
	}, checker.checked[0])
}

func TestHandleBatchStatusChanged(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		checked int
	}{
		{"leaving available", "AVAILABLE", 1},
		{"already off the shelf", "EXPIRED", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := &fakeChecker{}
			handler := consumers.NewBufferEventHandler(checker, logger.Nop())

			event := newEvent(t, messaging.EventBatchStatusChanged, messaging.BatchStatusChangedEvent{
				BatchID:    7,
				FromStatus: tt.from,
				ToStatus:   "DISPOSED",
				Stock:      messaging.StockKey{DrugID: 1, Type: "TABLET", ConcentrationID: 2},
			})

			require.NoError(t, handler.HandleBatchStatusChanged(context.Background(), event))
			assert.Len(t, checker.checked, tt.checked)
		})
	}
}

func TestHandleBatchesExpired(t *testing.T) {
	checker := &fakeChecker{}
	handler := consumers.NewBufferEventHandler(checker, logger.Nop())

	event := newEvent(t, messaging.EventBatchesExpired, messaging.BatchesExpiredEvent{
		BatchIDs: []int64{1, 2},
		RunAt:    time.Now(),
	})
	require.NoError(t, handler.HandleBatchesExpired(context.Background(), event))
	assert.Equal(t, 1, checker.allCalls)
}

func TestHandler_PropagatesFailures(t *testing.T) {
	checker := &fakeChecker{err: errors.New("db down")}
	handler := consumers.NewBufferEventHandler(checker, logger.Nop())

	event := newEvent(t, messaging.EventBatchesExpired, messaging.BatchesExpiredEvent{BatchIDs: []int64{1}})
	assert.Error(t, handler.HandleBatchesExpired(context.Background(), event))

	bad := &messaging.Event{Type: messaging.EventPrescriptionCompleted, Data: []byte(`{"stock":"nope"}`)}
	assert.Error(t, handler.HandlePrescriptionCompleted(context.Background(), bad))
}
