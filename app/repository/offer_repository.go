package repository

import (
	"github.com/ManuelReschke/Offertly/app/models"
	"gorm.io/gorm"
)

// offerRepository implements the OfferRepository interface
type offerRepository struct {
	db *gorm.DB
}

// NewOfferRepository creates a new offer repository instance
func NewOfferRepository(db *gorm.DB) OfferRepository {
	return &offerRepository{db: db}
}

// Create appends a new offer
func (r *offerRepository) Create(offer *models.Offer) error {
	return r.db.Create(offer).Error
}

// GetByRef retrieves an offer by its public reference
func (r *offerRepository) GetByRef(offerRef string) (*models.Offer, error) {
	var offer models.Offer
	err := r.db.Where("offer_ref = ?", offerRef).First(&offer).Error
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

// GetRecentByUserID returns the user's newest offers, newest first
func (r *offerRepository) GetRecentByUserID(userID uint, limit int) ([]models.Offer, error) {
	var offers []models.Offer
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&offers).Error
	return offers, err
}

// CountByUserID returns the total number of offers a user has created
func (r *offerRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Offer{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}
