package idempotency

import "time"

// Status values for idempotency entries
const (
	StatusDone = "DONE"
)

// keyPrefix keeps idempotency entries apart from order ids when both share
// one binding.
const keyPrefix = "idem#"

// IdempotencyRecord is the shape persisted for a replayable create response.
type IdempotencyRecord struct {
	IdempotencyKey string    `json:"idempotencyKey"`
	Status         string    `json:"status"`
	OrderID        string    `json:"orderId,omitempty"`
	ResponseBody   string    `json:"responseBody,omitempty"` // small responses only
	ResponseStatus int       `json:"responseStatus,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	ExpiresAt      int64     `json:"expiresAt"` // epoch seconds
}
