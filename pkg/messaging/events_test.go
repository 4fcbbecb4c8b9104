package messaging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/medflow/clinic-backend/pkg/httputil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	data := BatchStatusChangedEvent{
		BatchID:    7,
		BatchNo:    "B-007",
		FromStatus: "AVAILABLE",
		ToStatus:   "DISPOSED",
		Stock:      StockKey{DrugID: 1, Type: "TABLET", ConcentrationID: 2},
	}

	event, err := NewEvent(EventBatchStatusChanged, "clinic-service", "corr-1", data)
	require.NoError(t, err)

	_, err = uuid.Parse(event.ID)
	assert.NoError(t, err)
	assert.Equal(t, EventBatchStatusChanged, event.Type)
	assert.Equal(t, "clinic-service", event.Source)
	assert.Equal(t, "corr-1", event.CorrelationID)

	var decoded BatchStatusChangedEvent
	require.NoError(t, event.UnmarshalData(&decoded))
	assert.Equal(t, data, decoded)
}

func TestCorrelationID(t *testing.T) {
	assert.Empty(t, getCorrelationID(context.Background()))

	ctx := WithCorrelationID(context.Background(), "req-9")
	assert.Equal(t, "req-9", getCorrelationID(ctx))
}

func TestCorrelationID_FallsBackToRequestID(t *testing.T) {
	var got string
	h := httputil.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = getCorrelationID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/prescriptions/4/complete", nil)
	req.Header.Set("X-Request-ID", "req-42")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "req-42", got)
}
