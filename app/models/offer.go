package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Offer is one completed, metered generation. Rows are append-only: the
// monthly quota is counted from this table and nothing ever updates or
// deletes an offer. The descriptive columns are display metadata only.
type Offer struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	OfferRef string `gorm:"type:varchar(20);not null;uniqueIndex" json:"offer_ref"`
	UserID   uint   `gorm:"not null;index:idx_offers_user_created,priority:1" json:"user_id"`
	User     User   `gorm:"foreignKey:UserID" json:"-"`

	JobType      string `gorm:"type:varchar(150)" json:"job_type"`
	CustomerName string `gorm:"type:varchar(150)" json:"customer_name"`
	Location     string `gorm:"type:varchar(150)" json:"location"`
	Company      string `gorm:"type:varchar(150)" json:"company"`
	Contact      string `gorm:"type:varchar(200)" json:"contact"`
	Size         string `gorm:"type:varchar(200)" json:"size"`
	Material     string `gorm:"type:varchar(500)" json:"material"`

	PriceWork     int64 `gorm:"not null;default:0" json:"price_work"`
	PriceMaterial int64 `gorm:"not null;default:0" json:"price_material"`
	PriceOther    int64 `gorm:"not null;default:0" json:"price_other"`
	TotalPrice    int64 `gorm:"not null;default:0" json:"total_price"`

	Markdown  string    `gorm:"type:longtext" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_offers_user_created,priority:2" json:"created_at"`
}

// NewOfferRef generates a short public reference like OFF-1A2B3C4D.
func NewOfferRef() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "OFF-" + strings.ToUpper(raw[:8])
}
