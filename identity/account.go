package identity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Account is a registered user. Local accounts carry an argon2id PasswordHash; federated
// accounts leave it empty and record the provider id instead.
type Account struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username     string    `gorm:"size:64;uniqueIndex;not null"`
	Email        string    `gorm:"size:320;not null"`
	EmailKey     string    `gorm:"size:320;uniqueIndex;not null"`
	PasswordHash string    `gorm:"size:255"`
	FullName     string    `gorm:"size:255"`
	Avatar       string    `gorm:"size:1024"`
	Role         string    `gorm:"size:64"`
	Provider     string    `gorm:"size:32"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Account) TableName() string { return "accounts" }

// Federated reports whether the account was created through an OAuth provider.
func (a *Account) Federated() bool {
	return a.Provider != ""
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// BeforeSave keeps EmailKey in sync so the unique index enforces case-insensitive emails.
func (a *Account) BeforeSave(tx *gorm.DB) error {
	a.EmailKey = NormalizeEmail(a.Email)
	return nil
}

// NormalizeEmail returns the comparison form of an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
