package quota

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/Offertly/app/models"
	"github.com/ManuelReschke/Offertly/internal/pkg/plans"
)

// memLedger serializes WithUserLock with a mutex, mirroring the row lock the
// GORM ledger takes, so Consume's atomicity can be exercised concurrently.
type memLedger struct {
	mu     sync.Mutex
	offers []*models.Offer
}

func (l *memLedger) WithUserLock(_ context.Context, _ uint, fn func(tx Ledger) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(l)
}

func (l *memLedger) CountInWindow(userID uint, from, to time.Time) (int64, error) {
	var count int64
	for _, o := range l.offers {
		if o.UserID != userID {
			continue
		}
		at := o.CreatedAt.UTC()
		if !at.Before(from) && at.Before(to) {
			count++
		}
	}
	return count, nil
}

func (l *memLedger) Append(offer *models.Offer) error {
	l.offers = append(l.offers, offer)
	return nil
}

func testCatalog(t *testing.T) *plans.Catalog {
	t.Helper()
	c, err := plans.NewCatalog([]plans.Plan{
		{Key: plans.KeyStarter, Label: "Starter", MonthlyLimit: 50, PriceID: "price_starter"},
		{Key: plans.KeyPro, Label: "Pro", MonthlyLimit: 300, PriceID: "price_pro"},
	})
	require.NoError(t, err)
	return c
}

func fixedMeter(ledger Ledger, catalog *plans.Catalog, now time.Time) *Meter {
	m := NewMeter(ledger, catalog)
	m.now = func() time.Time { return now }
	return m
}

func TestMonthWindow(t *testing.T) {
	from, to := MonthWindow(time.Date(2026, time.March, 17, 14, 30, 12, 0, time.UTC))
	assert.Equal(t, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC), to)

	// local wall clock times resolve against UTC
	cet := time.FixedZone("CET", 3600)
	from, to = MonthWindow(time.Date(2026, time.April, 1, 0, 30, 0, 0, cet))
	assert.Equal(t, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC), to)
}

func TestConsumeCountsOnlyCurrentMonth(t *testing.T) {
	now := time.Date(2026, time.April, 10, 9, 0, 0, 0, time.UTC)
	ledger := &memLedger{}

	// last instant of March must not count against April
	ledger.offers = append(ledger.offers, &models.Offer{
		UserID:    1,
		CreatedAt: time.Date(2026, time.March, 31, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC),
	})
	// first instant of April does
	ledger.offers = append(ledger.offers, &models.Offer{
		UserID:    1,
		CreatedAt: time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC),
	})
	// other users never count
	ledger.offers = append(ledger.offers, &models.Offer{UserID: 2, CreatedAt: now})

	meter := fixedMeter(ledger, testCatalog(t), now)
	used, plan, err := meter.Usage(1, plans.KeyStarter)
	require.NoError(t, err)
	assert.Equal(t, int64(1), used)
	assert.Equal(t, 50, plan.MonthlyLimit)
}

func TestConsumeAllowsUpToLimit(t *testing.T) {
	now := time.Date(2026, time.April, 10, 9, 0, 0, 0, time.UTC)
	ledger := &memLedger{}
	for i := 0; i < 49; i++ {
		ledger.offers = append(ledger.offers, &models.Offer{UserID: 1, CreatedAt: now})
	}
	meter := fixedMeter(ledger, testCatalog(t), now)
	user := &models.User{ID: 1, PlanKey: plans.KeyStarter}

	// 50th offer of the month is still within the limit
	err := meter.Consume(context.Background(), user, &models.Offer{UserID: 1, CreatedAt: now})
	require.NoError(t, err)
	assert.Len(t, ledger.offers, 50)

	// 51st is not, and the ledger stays untouched
	err = meter.Consume(context.Background(), user, &models.Offer{UserID: 1, CreatedAt: now})
	var exceeded *ExceededError
	require.ErrorAs(t, err, &exceeded)
	assert.Equal(t, plans.KeyStarter, exceeded.PlanKey)
	assert.Equal(t, 50, exceeded.Limit)
	assert.Len(t, ledger.offers, 50)
}

func TestConsumeUnknownPlanFallsBackToDefault(t *testing.T) {
	now := time.Date(2026, time.April, 10, 9, 0, 0, 0, time.UTC)
	ledger := &memLedger{}
	for i := 0; i < 50; i++ {
		ledger.offers = append(ledger.offers, &models.Offer{UserID: 1, CreatedAt: now})
	}
	meter := fixedMeter(ledger, testCatalog(t), now)
	user := &models.User{ID: 1, PlanKey: "legacy-gold"}

	err := meter.Consume(context.Background(), user, &models.Offer{UserID: 1, CreatedAt: now})
	var exceeded *ExceededError
	require.ErrorAs(t, err, &exceeded)
	assert.Equal(t, 50, exceeded.Limit)
}

func TestConsumeConcurrentAtBoundary(t *testing.T) {
	now := time.Date(2026, time.April, 10, 9, 0, 0, 0, time.UTC)
	ledger := &memLedger{}
	for i := 0; i < 49; i++ {
		ledger.offers = append(ledger.offers, &models.Offer{UserID: 1, CreatedAt: now})
	}
	meter := fixedMeter(ledger, testCatalog(t), now)
	user := &models.User{ID: 1, PlanKey: plans.KeyStarter}

	const workers = 8
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- meter.Consume(context.Background(), user, &models.Offer{UserID: 1, CreatedAt: now})
		}()
	}
	wg.Wait()
	close(errs)

	granted, rejected := 0, 0
	for err := range errs {
		if err == nil {
			granted++
			continue
		}
		var exceeded *ExceededError
		require.True(t, errors.As(err, &exceeded), "unexpected error: %v", err)
		rejected++
	}
	assert.Equal(t, 1, granted, "exactly one request may take the last slot")
	assert.Equal(t, workers-1, rejected)
	assert.Len(t, ledger.offers, 50)
}
