package billing

import (
	"crypto/subtle"
	"strings"
)

// VerifyNotificationToken checks the shared-secret gate on the notification
// endpoint. The comparison is constant time so response timing does not leak
// how much of a guessed token matched. An unconfigured secret fails closed.
func VerifyNotificationToken(got, want string) bool {
	got = strings.TrimSpace(got)
	want = strings.TrimSpace(want)
	if want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
