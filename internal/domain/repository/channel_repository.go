package repository

import "github.com/raditya/chatwave/internal/domain/entity"

// ChannelRepository defines the interface for channel persistence.
//
// AddMembers and RemoveMembers must apply set semantics atomically in
// the store (union / difference in a single conditional update), so
// two concurrent mutations of the same channel never lose each other's
// writes. Both return the updated channel, or a not-found error when
// the id does not resolve.
type ChannelRepository interface {
	Create(ch *entity.Channel) error
	ListForUser(userID string) ([]*entity.Channel, error)
	AddMembers(id string, memberIDs []string) (*entity.Channel, error)
	RemoveMembers(id string, memberIDs []string) (*entity.Channel, error)
	Delete(id string) error
}
