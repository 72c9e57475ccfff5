package billing

import (
	"github.com/ManuelReschke/Offertly/app/models"
	"gorm.io/gorm"
)

// Repository provides the DB operations used by the billing service.
type Repository interface {
	GetUserByID(id uint) (*models.User, error)
	// GetUserByEmail expects an already normalized email (models.NormalizeEmail).
	GetUserByEmail(email string) (*models.User, error)
	ApplyUpdate(userID uint, up Update) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormRepository) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ApplyUpdate writes only the fields the update carries evidence for. The
// generated UPDATE touches exactly those columns, so concurrent writers from
// the three reconciliation paths never blank each other's fields.
func (r *gormRepository) ApplyUpdate(userID uint, up Update) error {
	if up.IsEmpty() {
		return nil
	}
	updates := updateColumns(up)
	return r.db.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error
}

// updateColumns translates an Update into the column assignments it is
// allowed to touch. Nil fields produce no assignment at all.
func updateColumns(up Update) map[string]interface{} {
	updates := map[string]interface{}{}
	if up.CustomerRef != nil {
		updates["stripe_customer_id"] = *up.CustomerRef
	}
	if up.SubscriptionRef != nil {
		updates["stripe_subscription_id"] = *up.SubscriptionRef
	}
	if up.Status != nil {
		updates["subscription_status"] = *up.Status
	}
	if up.PlanKey != nil {
		updates["plan_key"] = *up.PlanKey
	}
	return updates
}
