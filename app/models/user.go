package models

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

// Subscription statuses as reported by the payment provider. The local column
// only ever holds one of these values (or is empty while no checkout happened).
const (
	SubStatusActive            = "active"
	SubStatusTrialing          = "trialing"
	SubStatusPastDue           = "past_due"
	SubStatusCanceled          = "canceled"
	SubStatusUnpaid            = "unpaid"
	SubStatusIncomplete        = "incomplete"
	SubStatusIncompleteExpired = "incomplete_expired"
)

type User struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	Email                string    `gorm:"uniqueIndex;type:varchar(200)" json:"email" validate:"required,email,min=5,max=200"`
	Password             string    `gorm:"type:text" json:"-" validate:"required,min=8"`
	StripeCustomerID     string    `gorm:"type:varchar(191);default:null" json:"-"`
	StripeSubscriptionID string    `gorm:"type:varchar(191);default:null;index" json:"-"`
	SubscriptionStatus   string    `gorm:"type:varchar(32);default:null" json:"subscription_status"`
	PlanKey              string    `gorm:"type:varchar(50);default:null" json:"plan_key"`
	CreatedAt            time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

// NormalizeEmail applies the canonical form used for the unique email index:
// lowercased and stripped of surrounding whitespace.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func CreateUser(email string, password string) (*User, error) {
	// validate on the raw password, the hash would always satisfy min=8
	u := &User{
		Email:    NormalizeEmail(email),
		Password: password,
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}

	pw, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	u.Password = pw

	return u, nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}

// CheckPassword verifies if the provided password matches the user's stored password
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.Password)
}

// SetPassword hashes and sets a new password for the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := HashPassword(password)
	if err != nil {
		return err
	}
	u.Password = hashedPassword
	return nil
}

// HasBillingRef reports whether any checkout ever completed for this user.
func (u *User) HasBillingRef() bool {
	return u.StripeSubscriptionID != ""
}
