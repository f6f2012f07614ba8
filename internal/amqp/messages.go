package amqp

import (
	"encoding/json"
	"time"
)

// Reasons carried by BillsChangedMessage.
const (
	ReasonItemAdded     = "item_added"
	ReasonCategoryAdded = "category_added"
	ReasonImport        = "import"
)

// BillsChangedMessage tells consumers that a user's ledger changed.
// Delivery is at-least-once and unordered; consumers re-read the store
// rather than trusting the counts.
type BillsChangedMessage struct {
	UserID    int64     `json:"user_id"`
	ItemCount int       `json:"item_count"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

func NewBillsChangedMessage(userID int64, itemCount int, reason string) *BillsChangedMessage {
	return &BillsChangedMessage{
		UserID:    userID,
		ItemCount: itemCount,
		Reason:    reason,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *BillsChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BillsChangedMessageFromJSON decodes a message body.
func BillsChangedMessageFromJSON(data []byte) (*BillsChangedMessage, error) {
	var msg BillsChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
