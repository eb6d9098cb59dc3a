package stock

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Tópicos de eventos de existencias.
const (
	TopicEntryAppended           = "ledger.entry_appended"
	TopicAdjustmentApproved      = "adjustment.approved"
	TopicAdjustmentRejected      = "adjustment.rejected"
	TopicReconciliationCompleted = "reconciliation.completed"
)

// EntryAppendedEvent se publica por cada asiento confirmado.
type EntryAppendedEvent struct {
	EntryID         string          `json:"entry_id"`
	ItemID          string          `json:"item_id"`
	TransactionType string          `json:"transaction_type"`
	ReferenceType   string          `json:"reference_type"`
	ReferenceID     string          `json:"reference_id,omitempty"`
	QuantityIn      int64           `json:"quantity_in"`
	QuantityOut     int64           `json:"quantity_out"`
	RunningQuantity int64           `json:"running_quantity"`
	RunningValue    decimal.Decimal `json:"running_value"`
	Sequence        int64           `json:"sequence"`
	OccurredAt      time.Time       `json:"occurred_at"`
}

// DocumentEvent se publica cuando un ajuste o una conciliación cambia de estado.
type DocumentEvent struct {
	DocumentID string    `json:"document_id"`
	Number     string    `json:"number"`
	Status     string    `json:"status"`
	Actor      string    `json:"actor"`
	Lines      int       `json:"lines"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NoopPublisher descarta los eventos (sin broker configurado).
type NoopPublisher struct{}

// Publish no hace nada.
func (NoopPublisher) Publish(context.Context, string, any) error { return nil }

// EventKey clave de partición: los asientos de un ítem quedan ordenados.
func (e EntryAppendedEvent) EventKey() string { return e.ItemID }

// EventKey clave de partición del documento.
func (e DocumentEvent) EventKey() string { return e.DocumentID }
