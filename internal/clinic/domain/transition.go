package domain

import (
	"fmt"
	"strings"

	"github.com/medflow/clinic-backend/pkg/errors"
)

// StatusAction is the caller-facing verb for a batch status change
type StatusAction string

const (
	ActionCompleted     StatusAction = "completed"
	ActionDisposed      StatusAction = "disposed"
	ActionQualityFailed StatusAction = "quality_failed"
	ActionAvailable     StatusAction = "available"
	ActionExpired       StatusAction = "expired"
)

var actionStatus = map[StatusAction]BatchStatus{
	ActionCompleted:     BatchCompleted,
	ActionDisposed:      BatchDisposed,
	ActionQualityFailed: BatchQualityFailed,
	ActionAvailable:     BatchAvailable,
	ActionExpired:       BatchExpired,
}

// ActionStatus maps an action to the status it writes
func ActionStatus(action StatusAction) (BatchStatus, error) {
	status, ok := actionStatus[StatusAction(strings.ToLower(string(action)))]
	if !ok {
		return "", errors.BadRequest(fmt.Sprintf("Unknown status action %q", action))
	}
	return status, nil
}

type edge struct {
	from, to BatchStatus
}

// TransitionPolicy is the allow-list of batch status edges
type TransitionPolicy struct {
	edges map[edge]struct{}
}

// NewTransitionPolicy parses "FROM->TO" edges
func NewTransitionPolicy(edges []string) (*TransitionPolicy, error) {
	p := &TransitionPolicy{edges: make(map[edge]struct{}, len(edges))}
	for _, raw := range edges {
		parts := strings.Split(raw, "->")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid status transition %q, want FROM->TO", raw)
		}
		from := BatchStatus(strings.ToUpper(strings.TrimSpace(parts[0])))
		to := BatchStatus(strings.ToUpper(strings.TrimSpace(parts[1])))
		if !from.Valid() || !to.Valid() {
			return nil, fmt.Errorf("invalid status transition %q: unknown status", raw)
		}
		p.edges[edge{from, to}] = struct{}{}
	}
	return p, nil
}

// Allows reports whether from->to is on the allow-list
func (p *TransitionPolicy) Allows(from, to BatchStatus) bool {
	_, ok := p.edges[edge{from, to}]
	return ok
}

// Check returns a conflict error for a disallowed edge
func (p *TransitionPolicy) Check(from, to BatchStatus) error {
	if p.Allows(from, to) {
		return nil
	}
	return errors.Conflict(fmt.Sprintf("Batch cannot move from %s to %s", from, to))
}
