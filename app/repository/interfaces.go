package repository

import (
	"github.com/ManuelReschke/Offertly/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
	Count() (int64, error)
	EmailExists(email string) (bool, error)
}

// OfferRepository defines the interface for offer-related database operations.
// Offers are append-only; there is deliberately no Update or Delete.
type OfferRepository interface {
	Create(offer *models.Offer) error
	GetByRef(offerRef string) (*models.Offer, error)
	GetRecentByUserID(userID uint, limit int) ([]models.Offer, error)
	CountByUserID(userID uint) (int64, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	User  UserRepository
	Offer OfferRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:  NewUserRepository(db),
		Offer: NewOfferRepository(db),
	}
}
