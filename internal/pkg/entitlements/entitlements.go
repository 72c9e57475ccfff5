package entitlements

import (
	"strings"

	"github.com/ManuelReschke/Offertly/app/models"
)

// Entitled reports whether a subscription status grants access to the
// metered features. It is a pure predicate: the empty status (no checkout
// ever completed) and every non-listed provider status are not entitled.
func Entitled(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case models.SubStatusActive, models.SubStatusTrialing:
		return true
	default:
		return false
	}
}
