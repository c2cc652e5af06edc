package orders

import (
	"math/rand/v2"
	"regexp"
)

const (
	OrderIDPrefix   = "VG-"
	orderIDLength   = 8
	orderIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var orderIDPattern = regexp.MustCompile(`^VG-[A-Z0-9]{8}$`)

// NewOrderID mints a short, human-typable order code. Uniqueness is not
// checked; ids are short-lived lookup tokens, not credentials.
func NewOrderID() string {
	b := make([]byte, 0, len(OrderIDPrefix)+orderIDLength)
	b = append(b, OrderIDPrefix...)
	for range orderIDLength {
		b = append(b, orderIDAlphabet[rand.IntN(len(orderIDAlphabet))])
	}
	return string(b)
}

// ValidOrderID reports whether id has the minted shape.
func ValidOrderID(id string) bool {
	return orderIDPattern.MatchString(id)
}
