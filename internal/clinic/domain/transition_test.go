package domain

import (
	"net/http"
	"testing"

	"github.com/medflow/clinic-backend/pkg/config"
	"github.com/medflow/clinic-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionPolicy_Defaults(t *testing.T) {
	p, err := NewTransitionPolicy(config.DefaultStatusTransitions)
	require.NoError(t, err)

	tests := []struct {
		from, to BatchStatus
		allowed  bool
	}{
		{BatchAvailable, BatchCompleted, true},
		{BatchAvailable, BatchExpired, true},
		{BatchAvailable, BatchDisposed, true},
		{BatchAvailable, BatchQualityFailed, true},
		{BatchExpired, BatchDisposed, true},
		{BatchQualityFailed, BatchDisposed, true},
		{BatchCompleted, BatchAvailable, false},
		{BatchDisposed, BatchAvailable, false},
		{BatchAvailable, BatchAvailable, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, p.Allows(tt.from, tt.to))
			err := p.Check(tt.from, tt.to)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.Equal(t, http.StatusConflict, errors.StatusCode(err))
			}
		})
	}
}

func TestTransitionPolicy_AdministrativeOverride(t *testing.T) {
	p, err := NewTransitionPolicy(append([]string{" completed -> available "}, config.DefaultStatusTransitions...))
	require.NoError(t, err)
	assert.True(t, p.Allows(BatchCompleted, BatchAvailable))
}

func TestNewTransitionPolicy_RejectsBadSpecs(t *testing.T) {
	for _, raw := range []string{"AVAILABLE", "AVAILABLE->SOLD", "A->B->C"} {
		_, err := NewTransitionPolicy([]string{raw})
		assert.Error(t, err, raw)
	}
}

func TestActionStatus(t *testing.T) {
	status, err := ActionStatus("quality_failed")
	require.NoError(t, err)
	assert.Equal(t, BatchQualityFailed, status)

	status, err = ActionStatus("Disposed")
	require.NoError(t, err)
	assert.Equal(t, BatchDisposed, status)

	_, err = ActionStatus("sold")
	assert.Equal(t, http.StatusBadRequest, errors.StatusCode(err))
}
