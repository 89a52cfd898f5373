package orders

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"time"
)

const numberPrefix = "BC"

var suffixEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewNumber builds a human-facing order number such as BC-1767603600000-K3QZ.
// The unique index on order_number is the real guarantee; callers retry on collision.
func NewNumber(now time.Time) string {
	buf := make([]byte, 3)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("%s-%d-%s", numberPrefix, now.UnixMilli(), suffixEncoding.EncodeToString(buf)[:4])
}
