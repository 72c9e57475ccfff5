package billing

// CheckoutParams carries everything the provider needs to start a
// subscription checkout for one (user, plan) pair.
type CheckoutParams struct {
	PriceID       string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

// CheckoutSession is the provider-canonical view of a checkout session.
// Fields are only ever populated from a fresh provider fetch, never from
// anything the browser sent.
type CheckoutSession struct {
	ID              string
	URL             string
	CustomerRef     string
	SubscriptionRef string
	Metadata        map[string]string
}

// Subscription is the provider-canonical subscription state. PriceID is the
// first line item's price reference.
type Subscription struct {
	ID          string
	Status      string
	CustomerRef string
	PriceID     string
}

// Customer is the provider-canonical customer record.
type Customer struct {
	ID    string
	Email string
}

// Update is a field-granular partial upsert of the locally cached billing
// state. A nil field means "no evidence, leave the stored value unchanged";
// this coalescing is what lets the three reconciliation paths write
// concurrently without clobbering each other.
type Update struct {
	CustomerRef     *string
	SubscriptionRef *string
	Status          *string
	PlanKey         *string
}

// IsEmpty reports whether the update carries no fields at all.
func (u Update) IsEmpty() bool {
	return u.CustomerRef == nil && u.SubscriptionRef == nil && u.Status == nil && u.PlanKey == nil
}

// NotificationInput is the payload of an out-of-band billing notification:
// either reference may be set, the token gate has already been passed.
type NotificationInput struct {
	SubscriptionRef string
	SessionRef      string
}

// NotificationResult reports what a processed notification resolved to.
type NotificationResult struct {
	Email   string
	Status  string
	PlanKey string
}
