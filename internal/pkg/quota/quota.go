package quota

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ManuelReschke/Offertly/app/models"
	"github.com/ManuelReschke/Offertly/internal/pkg/plans"
)

// ExceededError is returned when a metered action would overshoot the
// monthly limit of the user's plan. The ledger is not touched.
type ExceededError struct {
	PlanKey   string
	PlanLabel string
	Limit     int
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("quota: monthly limit of %d reached on plan %s", e.Limit, e.PlanLabel)
}

// MonthWindow returns the quota window containing now: the current calendar
// month in UTC, half-open [from, to).
func MonthWindow(now time.Time) (from, to time.Time) {
	now = now.UTC()
	from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to = from.AddDate(0, 1, 0)
	return from, to
}

// Ledger is the storage surface of the usage meter. WithUserLock must
// serialize concurrent calls for the same user so the count/compare/append
// sequence inside fn is race free.
type Ledger interface {
	WithUserLock(ctx context.Context, userID uint, fn func(tx Ledger) error) error
	CountInWindow(userID uint, from, to time.Time) (int64, error)
	Append(offer *models.Offer) error
}

type gormLedger struct {
	db *gorm.DB
}

// NewLedger creates a ledger backed by GORM. Per-user serialization comes
// from a SELECT ... FOR UPDATE on the user row inside one transaction.
func NewLedger(db *gorm.DB) Ledger {
	return &gormLedger{db: db}
}

func (l *gormLedger) WithUserLock(ctx context.Context, userID uint, fn func(tx Ledger) error) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error; err != nil {
			return err
		}
		return fn(&gormLedger{db: tx})
	})
}

func (l *gormLedger) CountInWindow(userID uint, from, to time.Time) (int64, error) {
	var count int64
	err := l.db.Model(&models.Offer{}).
		Where("user_id = ? AND created_at >= ? AND created_at < ?", userID, from, to).
		Count(&count).Error
	return count, err
}

func (l *gormLedger) Append(offer *models.Offer) error {
	return l.db.Create(offer).Error
}

// Meter enforces the monthly usage quota over the append-only offer ledger.
type Meter struct {
	ledger  Ledger
	catalog *plans.Catalog
	now     func() time.Time
}

// NewMeter creates a usage meter.
func NewMeter(ledger Ledger, catalog *plans.Catalog) *Meter {
	return &Meter{ledger: ledger, catalog: catalog, now: time.Now}
}

// Usage returns the current month's usage count and the applicable plan.
// It takes no lock; use it for display, never for authorization.
func (m *Meter) Usage(userID uint, planKey string) (int64, plans.Plan, error) {
	plan := m.catalog.LimitFor(planKey)
	from, to := MonthWindow(m.now())
	used, err := m.ledger.CountInWindow(userID, from, to)
	return used, plan, err
}

// Consume authorizes one metered action and appends the offer to the ledger
// as a single atomic unit. The count-read, compare and insert all happen
// under the per-user lock, so concurrent requests cannot jointly overshoot
// the limit: at most one of them appends the final allowed record.
func (m *Meter) Consume(ctx context.Context, user *models.User, offer *models.Offer) error {
	plan := m.catalog.LimitFor(user.PlanKey)

	return m.ledger.WithUserLock(ctx, user.ID, func(tx Ledger) error {
		from, to := MonthWindow(m.now())
		used, err := tx.CountInWindow(user.ID, from, to)
		if err != nil {
			return err
		}
		if used >= int64(plan.MonthlyLimit) {
			return &ExceededError{PlanKey: plan.Key, PlanLabel: plan.Label, Limit: plan.MonthlyLimit}
		}
		return tx.Append(offer)
	})
}
