package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/raditya/chatwave/internal/domain/entity"
	repo "github.com/raditya/chatwave/internal/domain/repository"
)

var (
	ErrChannelNotFound = errors.New("channel not found")
	ErrInvalidMembers  = errors.New("some members are invalid users")
	ErrEmptyInput      = errors.New("name and members are required")
)

// ChannelService owns group channels: creation, membership mutation and
// listing. Every referenced account is validated against the user
// repository before a mutation touches channel state; the mutation
// itself is a single atomic store operation (see ChannelRepository).
type ChannelService struct {
	Channels repo.ChannelRepository
	Users    repo.UserRepository
	Logger   *logrus.Logger
}

func NewChannelService(channels repo.ChannelRepository, users repo.UserRepository, logger *logrus.Logger) *ChannelService {
	return &ChannelService{Channels: channels, Users: users, Logger: logger}
}

// MemberView is the display shape for an account inside a channel
// payload: identity plus the fields the client renders.
type MemberView struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Image     *string `json:"image"`
	Color     *int    `json:"color"`
}

// ChannelView is a channel with admin and members resolved to display
// fields. A read-side join, not a storage shape.
type ChannelView struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Admin     MemberView   `json:"admin"`
	Members   []MemberView `json:"members"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

func memberView(u *entity.User) MemberView {
	return MemberView{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Image:     u.Image,
		Color:     u.Color,
	}
}

// dedupe keeps the first occurrence of each id, preserving order.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// validateMembers checks that every id resolves to an account. The
// check is cardinality-based: a mismatch means at least one id is
// stale, without identifying which. Returns the resolved accounts so
// callers can reuse them for display population.
func (s *ChannelService) validateMembers(ids []string) (map[string]*entity.User, error) {
	users, err := s.Users.GetManyByIDs(ids)
	if err != nil {
		return nil, err
	}
	if len(users) != len(ids) {
		return nil, ErrInvalidMembers
	}
	byID := make(map[string]*entity.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	return byID, nil
}

func (s *ChannelService) populate(ch *entity.Channel, byID map[string]*entity.User) (*ChannelView, error) {
	missing := make([]string, 0)
	need := append([]string{ch.AdminID}, ch.Members...)
	for _, id := range need {
		if _, ok := byID[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		fetched, err := s.Users.GetManyByIDs(missing)
		if err != nil {
			return nil, err
		}
		for _, u := range fetched {
			byID[u.ID] = u
		}
	}

	view := &ChannelView{
		ID:        ch.ID,
		Name:      ch.Name,
		CreatedAt: ch.CreatedAt,
		UpdatedAt: ch.UpdatedAt,
		Members:   make([]MemberView, 0, len(ch.Members)),
	}
	if admin, ok := byID[ch.AdminID]; ok {
		view.Admin = memberView(admin)
	}
	for _, id := range ch.Members {
		// members whose accounts vanished are skipped in display;
		// RemoveMembers can still purge their stale references
		if u, ok := byID[id]; ok {
			view.Members = append(view.Members, memberView(u))
		}
	}
	return view, nil
}

// Create builds a channel owned by adminID. The admin is always unioned
// into the member set, the set carries no duplicates, and every member
// must resolve to an existing account or nothing is written.
func (s *ChannelService) Create(ctx context.Context, adminID, name string, memberIDs []string) (*ChannelView, error) {
	if strings.TrimSpace(name) == "" || len(memberIDs) == 0 {
		return nil, ErrEmptyInput
	}

	allMembers := dedupe(append(append([]string{}, memberIDs...), adminID))
	byID, err := s.validateMembers(allMembers)
	if err != nil {
		return nil, err
	}

	ch := &entity.Channel{
		Name:    name,
		AdminID: adminID,
		Members: allMembers,
	}
	if err := s.Channels.Create(ch); err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"channel_id": ch.ID, "admin_id": adminID, "members": len(allMembers)}).Info("channel created")
	}
	return s.populate(ch, byID)
}

// ListForUser returns every channel the account administers or belongs
// to, newest-updated first.
func (s *ChannelService) ListForUser(ctx context.Context, userID string) ([]*ChannelView, error) {
	channels, err := s.Channels.ListForUser(userID)
	if err != nil {
		return nil, err
	}

	// one account lookup for the whole page
	idSet := make([]string, 0)
	seen := make(map[string]struct{})
	for _, ch := range channels {
		for _, id := range append([]string{ch.AdminID}, ch.Members...) {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				idSet = append(idSet, id)
			}
		}
	}
	byID := make(map[string]*entity.User, len(idSet))
	if len(idSet) > 0 {
		users, err := s.Users.GetManyByIDs(idSet)
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			byID[u.ID] = u
		}
	}

	views := make([]*ChannelView, 0, len(channels))
	for _, ch := range channels {
		v, err := s.populate(ch, byID)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

// AddMembers unions newMemberIDs into the channel's member set. Every
// id must resolve to an existing account; ids already in the set are
// no-ops. The union is applied atomically in the store.
func (s *ChannelService) AddMembers(ctx context.Context, channelID string, newMemberIDs []string) (*ChannelView, error) {
	if len(newMemberIDs) == 0 {
		return nil, ErrEmptyInput
	}
	ids := dedupe(newMemberIDs)
	byID, err := s.validateMembers(ids)
	if err != nil {
		return nil, err
	}

	ch, err := s.Channels.AddMembers(channelID, ids)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrChannelNotFound
		}
		return nil, err
	}
	return s.populate(ch, byID)
}

// RemoveMembers subtracts removeMemberIDs from the member set. Ids are
// deliberately not validated against existing accounts: a reference to
// a since-deleted account must still be removable, or the channel could
// never be repaired. Ids not in the set are no-ops.
func (s *ChannelService) RemoveMembers(ctx context.Context, channelID string, removeMemberIDs []string) (*ChannelView, error) {
	if len(removeMemberIDs) == 0 {
		return nil, ErrEmptyInput
	}

	ch, err := s.Channels.RemoveMembers(channelID, dedupe(removeMemberIDs))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrChannelNotFound
		}
		return nil, err
	}
	return s.populate(ch, make(map[string]*entity.User))
}

// Delete removes the channel unconditionally by id.
func (s *ChannelService) Delete(ctx context.Context, channelID string) error {
	if err := s.Channels.Delete(channelID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrChannelNotFound
		}
		return err
	}
	if s.Logger != nil {
		s.Logger.WithField("channel_id", channelID).Info("channel deleted")
	}
	return nil
}
