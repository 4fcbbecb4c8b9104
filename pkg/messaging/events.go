package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventBatchStatusChanged    = "clinic.batch.status_changed"
	EventBatchesExpired        = "clinic.batch.expired"
	EventStockReceived         = "clinic.stock.received"
	EventStockBelowBuffer      = "clinic.stock.below_buffer"
	EventBillCalculated        = "clinic.bill.calculated"
	EventPrescriptionCompleted = "clinic.prescription.completed"
)

// Exchange names
const (
	ExchangeClinicEvents = "clinic.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// StockKey identifies a buffer-level group
type StockKey struct {
	DrugID          int64  `json:"drug_id"`
	Type            string `json:"type"`
	ConcentrationID int64  `json:"unit_concentration_id"`
}

// BatchStatusChangedEvent is published after a batch moves between lifecycle states
type BatchStatusChangedEvent struct {
	BatchID    int64    `json:"batch_id"`
	BatchNo    string   `json:"batch_no"`
	FromStatus string   `json:"from_status"`
	ToStatus   string   `json:"to_status"`
	Stock      StockKey `json:"stock"`
	ChangedBy  int64    `json:"changed_by,omitempty"`
}

// BatchesExpiredEvent is published by the expiry sweep
type BatchesExpiredEvent struct {
	BatchIDs []int64   `json:"batch_ids"`
	RunAt    time.Time `json:"run_at"`
}

// StockReceivedEvent is published when a new batch enters the inventory
type StockReceivedEvent struct {
	BatchID  int64    `json:"batch_id"`
	BatchNo  string   `json:"batch_no"`
	Supplier string   `json:"supplier"`
	Quantity float64  `json:"quantity"`
	Stock    StockKey `json:"stock"`
}

// StockBelowBufferEvent is raised when available stock drops under its buffer level
type StockBelowBufferEvent struct {
	Stock        StockKey `json:"stock"`
	DrugName     string   `json:"drug_name"`
	Remaining    float64  `json:"remaining"`
	BufferAmount float64  `json:"buffer_amount"`
}

// BillCalculatedEvent is published after a bill is committed
type BillCalculatedEvent struct {
	BillID          int64   `json:"bill_id"`
	PrescriptionID  int64   `json:"prescription_id"`
	PatientID       int64   `json:"patient_id"`
	MedicinesCharge string  `json:"medicines_charge"`
	Cost            string  `json:"cost"`
	BatchIDs        []int64 `json:"batch_ids"`
}

// PrescriptionCompletedEvent is published once stock has been drawn for a prescription
type PrescriptionCompletedEvent struct {
	PrescriptionID int64      `json:"prescription_id"`
	PatientID      int64      `json:"patient_id"`
	Stock          []StockKey `json:"stock"`
}
