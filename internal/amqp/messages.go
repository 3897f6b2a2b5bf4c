package amqp

import (
	"encoding/json"
	"time"

	"vegledger/internal/core"
)

// SaleChangedMessage announces a committed ledger mutation. It carries only
// identifiers; consumers read the current state from storage.
type SaleChangedMessage struct {
	SaleID    string    `json:"saleId"`
	ItemID    string    `json:"itemId,omitempty"`
	Operation string    `json:"operation"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSaleChangedMessage stamps change with the current time.
func NewSaleChangedMessage(change core.SaleChange) *SaleChangedMessage {
	return &SaleChangedMessage{
		SaleID:    change.SaleID,
		ItemID:    change.ItemID,
		Operation: change.Operation,
		Timestamp: time.Now(),
	}
}

func (m *SaleChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SaleChangedMessageFromJSON(data []byte) (*SaleChangedMessage, error) {
	var msg SaleChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
