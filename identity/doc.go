// Package identity owns accounts: the gorm model, the persistence contract and the
// Resolver that maps logins and federated profiles onto accounts.
//
// Uniqueness of usernames and (case-insensitive) emails is checked before every write and
// backstopped by unique indexes. The check and the write are not atomic; a concurrent
// registration that slips between them fails at the index with ErrStoreUnavailable.
package identity
