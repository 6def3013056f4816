package stores

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/projectauth/internal"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultRecoveryTTL is how long a recovery token stays redeemable.
const DefaultRecoveryTTL = 10 * time.Minute

var (
	ErrRecoveryNotFound    = errors.New("recovery token not found")
	ErrRecoveryExpired     = errors.New("recovery token expired")
	ErrRecoveryUnavailable = errors.New("recovery store unavailable")
)

// RecoveryToken is a single-use password-recovery grant.
type RecoveryToken struct {
	Token     string    `gorm:"primaryKey;size:15"`
	AccountID uuid.UUID `gorm:"type:uuid;index;not null"`
	CreatedAt time.Time
	ExpiresAt time.Time `gorm:"not null"`
}

// TableName pins the table name independent of gorm's naming strategy.
func (RecoveryToken) TableName() string { return "recovery_tokens" }

// Expired reports whether the token can no longer be redeemed at now.
func (t *RecoveryToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

type RecoveryStore struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

func NewRecoveryStore(db *gorm.DB, ttl time.Duration, now func() time.Time) *RecoveryStore {
	if ttl <= 0 {
		ttl = DefaultRecoveryTTL
	}
	if now == nil {
		now = time.Now
	}
	return &RecoveryStore{db: db, ttl: ttl, now: now}
}

// Migrate creates or updates the recovery_tokens table.
func (s *RecoveryStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&RecoveryToken{})
}

// Issue persists a fresh token for accountID. Earlier tokens for the same account stay valid.
func (s *RecoveryStore) Issue(ctx context.Context, accountID uuid.UUID) (*RecoveryToken, error) {
	token, err := internal.NewRecoveryToken()
	if err != nil {
		return nil, err
	}

	now := s.now()
	record := &RecoveryToken{
		Token:     token,
		AccountID: accountID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecoveryUnavailable, err)
	}

	return record, nil
}

// Consume redeems token exactly once. An expired token is reported as expired and left in
// place; of two concurrent consumers only the one whose delete removes the row succeeds.
func (s *RecoveryStore) Consume(ctx context.Context, token string) (*RecoveryToken, error) {
	if token == "" {
		return nil, ErrRecoveryNotFound
	}

	db := s.db.WithContext(ctx)

	var record RecoveryToken
	err := db.Where("token = ?", token).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecoveryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecoveryUnavailable, err)
	}

	if record.Expired(s.now()) {
		return nil, ErrRecoveryExpired
	}

	res := db.Where("token = ?", token).Delete(&RecoveryToken{})
	if res.Error != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecoveryUnavailable, res.Error)
	}
	if res.RowsAffected != 1 {
		return nil, ErrRecoveryNotFound
	}

	return &record, nil
}
