package repository

import "github.com/raditya/chatwave/internal/domain/entity"

// UserRepository defines the interface for account persistence.
// GetManyByIDs returns only the accounts that exist; callers compare
// result cardinality against the requested ids to detect stale
// references.
type UserRepository interface {
	Create(u *entity.User) error
	GetByID(id string) (*entity.User, error)
	GetByEmail(email string) (*entity.User, error)
	GetManyByIDs(ids []string) ([]*entity.User, error)
	Update(u *entity.User) error
}
