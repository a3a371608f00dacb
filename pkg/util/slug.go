package util

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// Slugify lowercases s and joins its alphanumeric runs with hyphens.
func Slugify(s string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r == '\'':
			// Levi's -> levis
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		default:
			pendingDash = true
		}
	}
	return b.String()
}

// NewOrderNumber returns ORD-<last six digits of the unix time>-<4 hex>.
func NewOrderNumber(now time.Time) string {
	ts := fmt.Sprintf("%d", now.Unix())
	if len(ts) > 6 {
		ts = ts[len(ts)-6:]
	}
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:4])
	return fmt.Sprintf("ORD-%s-%s", ts, suffix)
}
