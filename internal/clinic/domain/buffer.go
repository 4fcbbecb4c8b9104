package domain

import (
	"fmt"
	"sort"

	"github.com/medflow/clinic-backend/pkg/errors"
)

// BufferMode selects the ordering of the buffer view
type BufferMode string

const (
	// BufferModeBuffered puts the most understocked groups first
	BufferModeBuffered     BufferMode = "buffered"
	BufferModeStocked      BufferMode = "stocked"
	BufferModeQuantityAsc  BufferMode = "quantity-asc"
	BufferModeQuantityDesc BufferMode = "quantity-desc"
)

// BufferRow is the SUM of AVAILABLE batches for one stock group
type BufferRow struct {
	StockKey
	DrugName          string   `json:"drug_name" db:"drug_name"`
	Concentration     float64  `json:"concentration" db:"concentration"`
	RemainingQuantity float64  `json:"remaining_quantity" db:"remaining_quantity"`
	FullAmount        float64  `json:"full_amount" db:"full_amount"`
	BufferAmount      *float64 `json:"buffer_amount" db:"buffer_amount"`
}

// BufferStatus is a BufferRow with its sufficiency ratio. Ratio is nil
// when no positive buffer is configured.
type BufferStatus struct {
	BufferRow
	Ratio *float64 `json:"ratio"`
}

// Unranked reports whether the group has no usable buffer
func (s BufferStatus) Unranked() bool {
	return s.Ratio == nil
}

// BelowBuffer reports whether remaining stock is under a configured buffer
func (s BufferStatus) BelowBuffer() bool {
	return s.Ratio != nil && *s.Ratio < 1
}

// NewBufferStatus computes remaining/buffer for a row
func NewBufferStatus(row BufferRow) BufferStatus {
	status := BufferStatus{BufferRow: row}
	if row.BufferAmount != nil && *row.BufferAmount > 0 {
		ratio := row.RemainingQuantity / *row.BufferAmount
		status.Ratio = &ratio
	}
	return status
}

// RankBuffer orders rows by mode. Unranked rows sort after ranked rows in
// the ratio modes; ties fall back to drug name.
func RankBuffer(rows []BufferRow, mode BufferMode) ([]BufferStatus, error) {
	out := make([]BufferStatus, len(rows))
	for i, r := range rows {
		out[i] = NewBufferStatus(r)
	}

	names := newNameOrder()
	byName := func(a, b BufferStatus) bool { return names.less(a.DrugName, b.DrugName) }

	var less func(a, b BufferStatus) bool
	switch mode {
	case "":
		less = byName
	case BufferModeBuffered, BufferModeStocked:
		desc := mode == BufferModeStocked
		less = func(a, b BufferStatus) bool {
			if a.Unranked() != b.Unranked() {
				return b.Unranked()
			}
			if a.Unranked() || *a.Ratio == *b.Ratio {
				return byName(a, b)
			}
			if desc {
				return *a.Ratio > *b.Ratio
			}
			return *a.Ratio < *b.Ratio
		}
	case BufferModeQuantityAsc, BufferModeQuantityDesc:
		desc := mode == BufferModeQuantityDesc
		less = func(a, b BufferStatus) bool {
			if a.RemainingQuantity == b.RemainingQuantity {
				return byName(a, b)
			}
			if desc {
				return a.RemainingQuantity > b.RemainingQuantity
			}
			return a.RemainingQuantity < b.RemainingQuantity
		}
	default:
		return nil, errors.BadRequest(fmt.Sprintf("Unknown buffer sort %q", mode))
	}

	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out, nil
}
