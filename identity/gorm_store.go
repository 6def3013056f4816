package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStore implements Store over a gorm database.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates or updates the accounts table and its unique indexes.
func (s *GormStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&Account{})
}

func (s *GormStore) FindByUsername(ctx context.Context, username string) (*Account, error) {
	return s.take(ctx, "username = ?", username)
}

func (s *GormStore) FindByEmail(ctx context.Context, email string) (*Account, error) {
	return s.take(ctx, "email_key = ?", NormalizeEmail(email))
}

func (s *GormStore) FindByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	return s.take(ctx, "id = ?", id)
}

func (s *GormStore) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&Account{}).
		Where("username = ? OR email_key = ?", username, NormalizeEmail(email)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return count > 0, nil
}

func (s *GormStore) ListUsernamesWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).
		Model(&Account{}).
		Where(`username LIKE ? ESCAPE '\'`, escapeLike(prefix)+"%").
		Pluck("username", &names).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return names, nil
}

func (s *GormStore) Create(ctx context.Context, account *Account) error {
	if err := s.db.WithContext(ctx).Create(account).Error; err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *GormStore) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	res := s.db.WithContext(ctx).
		Model(&Account{}).
		Where("id = ?", id).
		UpdateColumn("password_hash", hash)
	if res.Error != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (s *GormStore) take(ctx context.Context, query string, arg any) (*Account, error) {
	var account Account
	err := s.db.WithContext(ctx).Where(query, arg).Take(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return &account, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
