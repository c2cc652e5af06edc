package orders

import "time"

// Order statuses. EXPIRED is derived at read time and never persisted.
const (
	StatusPending = "PENDING"
	StatusExpired = "EXPIRED"
)

// TTL is how long a record stays readable after creation.
const TTL = 10 * time.Minute

// Lookup outcomes reported to the metrics recorder.
const (
	LookupFound    = "found"
	LookupNotFound = "not_found"
	LookupExpired  = "expired"
)

// Record is the persisted order. It is written once and never mutated.
type Record struct {
	OrderID         string `json:"orderId"`
	CacaoNormalized string `json:"cacaoNormalized"`
	IsIced          bool   `json:"isIced"`
	Size            string `json:"size"`
	HasTopping      bool   `json:"hasTopping"`
	ShotCount       *int   `json:"shotCount,omitempty"`
	Price           int    `json:"price"`
	Status          string `json:"status"`
	CreatedAt       int64  `json:"createdAt"` // epoch ms
	ExpiresAt       int64  `json:"expiresAt"` // epoch ms
}

// Expired reports whether the record is past its expiry at now. Records
// without an expiry never expire.
func (r Record) Expired(now time.Time) bool {
	return r.ExpiresAt > 0 && now.UnixMilli() > r.ExpiresAt
}

// Receipt is what a create call hands back.
type Receipt struct {
	OrderID   string `json:"orderId"`
	Price     int    `json:"price"`
	ExpiresAt int64  `json:"expiresAt"`
}

// Selection is the raw, untrusted drink configuration from a client. Every
// field is optional and loosely typed.
type Selection struct {
	Cacao      any `json:"cacao"`
	IsIced     any `json:"isIced"`
	Size       any `json:"size"`
	HasTopping any `json:"hasTopping"`
	ShotCount  any `json:"shotCount"`
}
