package identity

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// DefaultRole is assigned to new accounts when Options.DefaultRole is empty.
const DefaultRole = "user"

// Hasher is satisfied by password.Argon2.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) (bool, error)
}

// Options controls defaults applied at registration.
type Options struct {
	DefaultRole    string
	DefaultAvatars []string
}

// RegisterInput carries the caller-supplied attributes of a new account. Password is
// ignored by RegisterFederated and Provider by RegisterLocal.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName string
	Avatar   string
	Provider string
}

// Resolver maps logins and federated profiles to accounts.
type Resolver struct {
	store  Store
	hasher Hasher
	opts   Options
}

func NewResolver(store Store, hasher Hasher, opts Options) *Resolver {
	if opts.DefaultRole == "" {
		opts.DefaultRole = DefaultRole
	}
	return &Resolver{store: store, hasher: hasher, opts: opts}
}

// ResolveByLogin finds the account whose username equals login exactly, falling back to a
// case-insensitive email match.
func (r *Resolver) ResolveByLogin(ctx context.Context, login string) (*Account, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return nil, ErrAccountNotFound
	}

	account, err := r.store.FindByUsername(ctx, login)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, ErrAccountNotFound) {
		return nil, err
	}

	return r.store.FindByEmail(ctx, login)
}

func (r *Resolver) FindByUsername(ctx context.Context, username string) (*Account, error) {
	return r.store.FindByUsername(ctx, username)
}

func (r *Resolver) FindByEmail(ctx context.Context, email string) (*Account, error) {
	return r.store.FindByEmail(ctx, email)
}

func (r *Resolver) FindByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	return r.store.FindByID(ctx, id)
}

func (r *Resolver) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	return r.store.ExistsByUsernameOrEmail(ctx, username, email)
}

// RegisterLocal creates a password account. It fails with ErrDuplicateAccount when the
// username or the email (case-insensitively) is taken.
func (r *Resolver) RegisterLocal(ctx context.Context, in RegisterInput) (*Account, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	if username == "" || email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: username, email and password are required", ErrInvalidInput)
	}

	exists, err := r.store.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateAccount
	}

	hash, err := r.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	account := &Account{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(in.FullName),
		Avatar:       in.Avatar,
		Role:         r.opts.DefaultRole,
	}
	if account.Avatar == "" {
		account.Avatar = r.DefaultAvatar(username)
	}

	if err := r.store.Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// RegisterFederated creates a password-less account for a provider profile. A taken
// username is never an error: the first free name of candidate, candidate-0,
// candidate-1, ... is used instead.
func (r *Resolver) RegisterFederated(ctx context.Context, in RegisterInput) (*Account, error) {
	candidate := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	if candidate == "" || email == "" || in.Provider == "" {
		return nil, fmt.Errorf("%w: username, email and provider are required", ErrInvalidInput)
	}

	taken, err := r.store.ListUsernamesWithPrefix(ctx, candidate)
	if err != nil {
		return nil, err
	}

	account := &Account{
		Username: FirstFreeUsername(candidate, taken),
		Email:    email,
		FullName: strings.TrimSpace(in.FullName),
		Avatar:   in.Avatar,
		Role:     r.opts.DefaultRole,
		Provider: in.Provider,
	}
	if account.Avatar == "" {
		account.Avatar = r.DefaultAvatar(account.Username)
	}

	if err := r.store.Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// FirstFreeUsername returns candidate if it is not in taken, otherwise the first
// candidate-N (N = 0, 1, ...) that is not.
func FirstFreeUsername(candidate string, taken []string) string {
	used := make(map[string]struct{}, len(taken))
	for _, name := range taken {
		used[name] = struct{}{}
	}
	if _, ok := used[candidate]; !ok {
		return candidate
	}
	for i := 0; ; i++ {
		name := candidate + "-" + strconv.Itoa(i)
		if _, ok := used[name]; !ok {
			return name
		}
	}
}

// DefaultAvatar picks a stable avatar for username from the configured set, or "" when
// none is configured.
func (r *Resolver) DefaultAvatar(username string) string {
	if len(r.opts.DefaultAvatars) == 0 {
		return ""
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(username))
	return r.opts.DefaultAvatars[h.Sum32()%uint32(len(r.opts.DefaultAvatars))]
}

// VerifyPassword reports whether password matches the account hash. Federated accounts
// never verify.
func (r *Resolver) VerifyPassword(account *Account, password string) bool {
	if account == nil || account.PasswordHash == "" {
		return false
	}
	ok, err := r.hasher.Verify(password, account.PasswordHash)
	return err == nil && ok
}

// SetPassword hashes and stores newPassword, updating account in place on success.
func (r *Resolver) SetPassword(ctx context.Context, account *Account, newPassword string) error {
	if account == nil {
		return ErrAccountNotFound
	}
	hash, err := r.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := r.store.UpdatePasswordHash(ctx, account.ID, hash); err != nil {
		return err
	}
	account.PasswordHash = hash
	return nil
}
