package billing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ManuelReschke/Offertly/app/models"
	"github.com/ManuelReschke/Offertly/internal/pkg/plans"
)

// fakeRepo applies updates to in-memory user rows with the same
// only-evidenced-columns semantics as the GORM repository.
type fakeRepo struct {
	users   map[uint]*models.User
	applied []Update
}

func newFakeRepo(users ...*models.User) *fakeRepo {
	r := &fakeRepo{users: map[uint]*models.User{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeRepo) GetUserByID(id uint) (*models.User, error) {
	if u, ok := r.users[id]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) GetUserByEmail(email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) ApplyUpdate(userID uint, up Update) error {
	u, ok := r.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	r.applied = append(r.applied, up)
	for col, val := range updateColumns(up) {
		s := val.(string)
		switch col {
		case "stripe_customer_id":
			u.StripeCustomerID = s
		case "stripe_subscription_id":
			u.StripeSubscriptionID = s
		case "subscription_status":
			u.SubscriptionStatus = s
		case "plan_key":
			u.PlanKey = s
		}
	}
	return nil
}

type fakeProvider struct {
	sessions      map[string]*CheckoutSession
	subscriptions map[string]*Subscription
	customers     map[string]*Customer
	subErr        error
	created       []CheckoutParams
}

func (p *fakeProvider) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error) {
	p.created = append(p.created, params)
	return &CheckoutSession{ID: "cs_new", URL: "https://pay.example/cs_new"}, nil
}

func (p *fakeProvider) GetCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error) {
	if s, ok := p.sessions[id]; ok {
		return s, nil
	}
	return nil, &ProviderError{Op: "retrieve checkout session", Err: errors.New("no such session")}
}

func (p *fakeProvider) GetSubscription(ctx context.Context, id string) (*Subscription, error) {
	if p.subErr != nil {
		return nil, p.subErr
	}
	if s, ok := p.subscriptions[id]; ok {
		return s, nil
	}
	return nil, &ProviderError{Op: "retrieve subscription", Err: errors.New("no such subscription")}
}

func (p *fakeProvider) GetCustomer(ctx context.Context, id string) (*Customer, error) {
	if c, ok := p.customers[id]; ok {
		return c, nil
	}
	return nil, &ProviderError{Op: "retrieve customer", Err: errors.New("no such customer")}
}

func testCatalog(t *testing.T) *plans.Catalog {
	t.Helper()
	c, err := plans.NewCatalog([]plans.Plan{
		{Key: plans.KeyStarter, Label: "Starter", MonthlyLimit: 50, PriceID: "price_starter"},
		{Key: plans.KeyPro, Label: "Pro", MonthlyLimit: 300, PriceID: "price_pro"},
		{Key: plans.KeyTeam, Label: "Team", MonthlyLimit: 1000, PriceID: "price_team"},
	})
	require.NoError(t, err)
	return c
}

func str(s string) *string { return &s }

func TestUpdateColumnsOnlyEvidencedFields(t *testing.T) {
	cols := updateColumns(Update{Status: str("active")})
	assert.Equal(t, map[string]interface{}{"subscription_status": "active"}, cols)

	assert.Empty(t, updateColumns(Update{}))
	assert.True(t, Update{}.IsEmpty())
	assert.False(t, Update{Status: str("active")}.IsEmpty())
}

func TestPartialUpsertPreservesOtherFields(t *testing.T) {
	user := &models.User{
		ID:                   1,
		Email:                "mia@example.com",
		StripeCustomerID:     "cus_1",
		StripeSubscriptionID: "sub_1",
		SubscriptionStatus:   "trialing",
		PlanKey:              "pro",
	}
	repo := newFakeRepo(user)

	require.NoError(t, repo.ApplyUpdate(1, Update{Status: str("active")}))

	assert.Equal(t, "active", user.SubscriptionStatus)
	assert.Equal(t, "cus_1", user.StripeCustomerID)
	assert.Equal(t, "sub_1", user.StripeSubscriptionID)
	assert.Equal(t, "pro", user.PlanKey)
}

func TestStartCheckoutPreconditions(t *testing.T) {
	user := &models.User{ID: 7, Email: "mia@example.com"}
	repo := newFakeRepo(user)
	provider := &fakeProvider{}
	svc := NewService(repo, provider, testCatalog(t))

	t.Setenv("APP_BASE_URL", "")
	_, err := svc.StartCheckout(context.Background(), user, "pro")
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Missing, "APP_BASE_URL")
	assert.Empty(t, provider.created)

	_, err = svc.StartCheckout(context.Background(), user, "no_such_plan")
	require.ErrorAs(t, err, &cfgErr)
	assert.Empty(t, provider.created)
}

func TestStartCheckoutBuildsCorrelationMetadata(t *testing.T) {
	t.Setenv("APP_BASE_URL", "https://offertly.example/")
	user := &models.User{ID: 7, Email: "mia@example.com"}
	provider := &fakeProvider{}
	svc := NewService(newFakeRepo(user), provider, testCatalog(t))

	url, err := svc.StartCheckout(context.Background(), user, "pro")
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/cs_new", url)

	require.Len(t, provider.created, 1)
	p := provider.created[0]
	assert.Equal(t, "price_pro", p.PriceID)
	assert.Equal(t, "mia@example.com", p.CustomerEmail)
	assert.Equal(t, "7", p.Metadata["user_id"])
	assert.Equal(t, "pro", p.Metadata["plan_key"])
	assert.Equal(t, "https://offertly.example/billing/return?success=1&session_id={CHECKOUT_SESSION_ID}", p.SuccessURL)
	assert.Equal(t, "https://offertly.example/billing/return?canceled=1", p.CancelURL)
}

func TestVerifyCheckoutReturnIsIdempotent(t *testing.T) {
	user := &models.User{ID: 1, Email: "mia@example.com"}
	repo := newFakeRepo(user)
	provider := &fakeProvider{
		sessions: map[string]*CheckoutSession{
			"cs_123": {
				ID:              "cs_123",
				CustomerRef:     "cus_9",
				SubscriptionRef: "sub_9",
				Metadata:        map[string]string{"user_id": "1", "plan_key": "team"},
			},
		},
		subscriptions: map[string]*Subscription{
			"sub_9": {ID: "sub_9", Status: "active", CustomerRef: "cus_9", PriceID: "price_team"},
		},
	}
	svc := NewService(repo, provider, testCatalog(t))

	require.NoError(t, svc.VerifyCheckoutReturn(context.Background(), 1, "cs_123"))
	first := *repo.users[1]

	// A page refresh re-triggers verification with the same reference.
	require.NoError(t, svc.VerifyCheckoutReturn(context.Background(), 1, "cs_123"))
	second := *repo.users[1]

	assert.Equal(t, first, second)
	assert.Equal(t, "cus_9", second.StripeCustomerID)
	assert.Equal(t, "sub_9", second.StripeSubscriptionID)
	assert.Equal(t, "active", second.SubscriptionStatus)
	assert.Equal(t, "team", second.PlanKey)
}

func TestVerifyCheckoutReturnIgnoresUnknownPlanKey(t *testing.T) {
	user := &models.User{ID: 1, Email: "mia@example.com", PlanKey: "starter"}
	repo := newFakeRepo(user)
	provider := &fakeProvider{
		sessions: map[string]*CheckoutSession{
			"cs_1": {ID: "cs_1", CustomerRef: "cus_1", Metadata: map[string]string{"plan_key": "enterprise"}},
		},
	}
	svc := NewService(repo, provider, testCatalog(t))

	require.NoError(t, svc.VerifyCheckoutReturn(context.Background(), 1, "cs_1"))
	assert.Equal(t, "starter", repo.users[1].PlanKey)
	assert.Equal(t, "cus_1", repo.users[1].StripeCustomerID)
}

func TestProcessNotificationResolvesByEmail(t *testing.T) {
	user := &models.User{ID: 3, Email: "mia@example.com"}
	repo := newFakeRepo(user)
	provider := &fakeProvider{
		sessions: map[string]*CheckoutSession{
			"cs_55": {ID: "cs_55", SubscriptionRef: "sub_55"},
		},
		subscriptions: map[string]*Subscription{
			"sub_55": {ID: "sub_55", Status: "trialing", CustomerRef: "cus_55", PriceID: "price_pro"},
		},
		customers: map[string]*Customer{
			// Provider-side email differs only in case and padding.
			"cus_55": {ID: "cus_55", Email: "  Mia@Example.COM "},
		},
	}
	svc := NewService(repo, provider, testCatalog(t))

	// Only a session reference is given; it must be resolved to the
	// subscription first.
	res, err := svc.ProcessNotification(context.Background(), NotificationInput{SessionRef: "cs_55"})
	require.NoError(t, err)
	assert.Equal(t, "mia@example.com", res.Email)
	assert.Equal(t, "trialing", res.Status)
	assert.Equal(t, "pro", res.PlanKey)

	u := repo.users[3]
	assert.Equal(t, "cus_55", u.StripeCustomerID)
	assert.Equal(t, "sub_55", u.StripeSubscriptionID)
	assert.Equal(t, "trialing", u.SubscriptionStatus)
	assert.Equal(t, "pro", u.PlanKey)
}

func TestProcessNotificationIdentityMismatch(t *testing.T) {
	user := &models.User{ID: 3, Email: "mia@example.com", SubscriptionStatus: "active", PlanKey: "pro"}
	repo := newFakeRepo(user)
	before := *user
	provider := &fakeProvider{
		subscriptions: map[string]*Subscription{
			"sub_55": {ID: "sub_55", Status: "active", CustomerRef: "cus_55", PriceID: "price_pro"},
		},
		customers: map[string]*Customer{
			"cus_55": {ID: "cus_55", Email: "somebody-else@example.com"},
		},
	}
	svc := NewService(repo, provider, testCatalog(t))

	_, err := svc.ProcessNotification(context.Background(), NotificationInput{SubscriptionRef: "sub_55"})
	require.ErrorIs(t, err, ErrIdentityNotFound)

	// No user record may change in any way.
	assert.Equal(t, before, *repo.users[3])
	assert.Empty(t, repo.applied)
}

func TestProcessNotificationWithoutReference(t *testing.T) {
	svc := NewService(newFakeRepo(), &fakeProvider{}, testCatalog(t))

	_, err := svc.ProcessNotification(context.Background(), NotificationInput{})
	assert.ErrorIs(t, err, ErrMissingReference)
}

func TestSyncSubscriptionStatus(t *testing.T) {
	user := &models.User{ID: 5, Email: "mia@example.com", StripeSubscriptionID: "sub_5", SubscriptionStatus: "active", PlanKey: "pro"}
	repo := newFakeRepo(user)
	provider := &fakeProvider{
		subscriptions: map[string]*Subscription{
			"sub_5": {ID: "sub_5", Status: "past_due", CustomerRef: "cus_5", PriceID: "price_pro"},
		},
	}
	svc := NewService(repo, provider, testCatalog(t))

	svc.SyncSubscriptionStatus(context.Background(), repo.users[5])
	assert.Equal(t, "past_due", repo.users[5].SubscriptionStatus)
	// Only the status field may be written by the sync path.
	require.Len(t, repo.applied, 1)
	assert.Nil(t, repo.applied[0].CustomerRef)
	assert.Nil(t, repo.applied[0].SubscriptionRef)
	assert.Nil(t, repo.applied[0].PlanKey)
}

func TestSyncSubscriptionStatusSwallowsProviderErrors(t *testing.T) {
	user := &models.User{ID: 5, Email: "mia@example.com", StripeSubscriptionID: "sub_5", SubscriptionStatus: "active"}
	repo := newFakeRepo(user)
	provider := &fakeProvider{subErr: &ProviderError{Op: "retrieve subscription", Err: errors.New("boom")}}
	svc := NewService(repo, provider, testCatalog(t))

	svc.SyncSubscriptionStatus(context.Background(), repo.users[5])

	// Stale-but-available: prior cached state is retained.
	assert.Equal(t, "active", repo.users[5].SubscriptionStatus)
	assert.Empty(t, repo.applied)
}

func TestSyncSubscriptionStatusNoopWithoutRef(t *testing.T) {
	user := &models.User{ID: 5, Email: "mia@example.com"}
	repo := newFakeRepo(user)
	svc := NewService(repo, &fakeProvider{}, testCatalog(t))

	svc.SyncSubscriptionStatus(context.Background(), repo.users[5])
	assert.Empty(t, repo.applied)
}
