package usercontext

// Shared Locals/session keys used across controllers and middlewares
const (
	AuthKey          = "authenticated"
	KeyUserID        = "user_id"
	KeyUserEmail     = "user_email"
	KeyFromProtected = "from_protected"
	KeyBillingSynced = "billing_synced"
)
