package application

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raditya/chatwave/internal/domain/entity"
	repo "github.com/raditya/chatwave/internal/domain/repository"
)

// fakeChannelRepo mirrors the store's contract in memory: member
// mutations are atomic set union / difference under a lock, matching
// the single-UPDATE semantics of the Postgres implementation.
type fakeChannelRepo struct {
	mu       sync.Mutex
	seq      int
	channels map[string]*entity.Channel
	now      time.Time
}

func newFakeChannelRepo() *fakeChannelRepo {
	return &fakeChannelRepo{channels: map[string]*entity.Channel{}, now: time.Unix(1000, 0)}
}

func (f *fakeChannelRepo) tick() time.Time {
	f.now = f.now.Add(time.Second)
	return f.now
}

func (f *fakeChannelRepo) Create(ch *entity.Channel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	ch.ID = "ch-" + string(rune('a'+f.seq-1))
	ch.CreatedAt = f.tick()
	ch.UpdatedAt = ch.CreatedAt
	cp := *ch
	cp.Members = append([]string{}, ch.Members...)
	f.channels[ch.ID] = &cp
	return nil
}

func (f *fakeChannelRepo) GetByID(id string) (*entity.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *ch
	cp.Members = append([]string{}, ch.Members...)
	return &cp, nil
}

func (f *fakeChannelRepo) ListForUser(userID string) ([]*entity.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Channel
	for _, ch := range f.channels {
		if ch.AdminID == userID || ch.HasMember(userID) {
			cp := *ch
			cp.Members = append([]string{}, ch.Members...)
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakeChannelRepo) AddMembers(id string, memberIDs []string) (*entity.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	for _, m := range memberIDs {
		if !ch.HasMember(m) {
			ch.Members = append(ch.Members, m)
		}
	}
	ch.UpdatedAt = f.tick()
	cp := *ch
	cp.Members = append([]string{}, ch.Members...)
	return &cp, nil
}

func (f *fakeChannelRepo) RemoveMembers(id string, memberIDs []string) (*entity.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	drop := make(map[string]struct{}, len(memberIDs))
	for _, m := range memberIDs {
		drop[m] = struct{}{}
	}
	kept := ch.Members[:0]
	for _, m := range ch.Members {
		if _, gone := drop[m]; !gone {
			kept = append(kept, m)
		}
	}
	ch.Members = kept
	ch.UpdatedAt = f.tick()
	cp := *ch
	cp.Members = append([]string{}, ch.Members...)
	return &cp, nil
}

func (f *fakeChannelRepo) Delete(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.channels[id]; !ok {
		return repo.ErrNotFound
	}
	delete(f.channels, id)
	return nil
}

var _ repo.ChannelRepository = (*fakeChannelRepo)(nil)

// directory builds a mockUserRepo whose GetManyByIDs resolves only the
// given accounts, the cardinality contract the engine validates with.
func directory(ids ...string) *mockUserRepo {
	known := make(map[string]*entity.User, len(ids))
	for _, id := range ids {
		known[id] = &entity.User{ID: id, Email: id + "@example.com"}
	}
	return &mockUserRepo{
		getManyByIDsFn: func(req []string) ([]*entity.User, error) {
			var out []*entity.User
			for _, id := range req {
				if u, ok := known[id]; ok {
					out = append(out, u)
				}
			}
			return out, nil
		},
	}
}

func memberIDs(v *ChannelView) []string {
	out := make([]string, 0, len(v.Members))
	for _, m := range v.Members {
		out = append(out, m.ID)
	}
	sort.Strings(out)
	return out
}

func TestCreateChannel_AdminAlwaysMember(t *testing.T) {
	ctx := context.Background()
	channels := newFakeChannelRepo()
	svc := NewChannelService(channels, directory("u1", "u2", "u3"), nil)

	t.Run("admin not in input", func(t *testing.T) {
		v, err := svc.Create(ctx, "u1", "General", []string{"u2", "u3"})
		require.NoError(t, err)
		assert.Equal(t, "u1", v.Admin.ID)
		assert.Equal(t, []string{"u1", "u2", "u3"}, memberIDs(v))
	})

	t.Run("admin already in input", func(t *testing.T) {
		v, err := svc.Create(ctx, "u1", "General", []string{"u1", "u2", "u3"})
		require.NoError(t, err)
		assert.Equal(t, []string{"u1", "u2", "u3"}, memberIDs(v))
	})

	t.Run("duplicate input ids collapse", func(t *testing.T) {
		v, err := svc.Create(ctx, "u1", "General", []string{"u2", "u2", "u2"})
		require.NoError(t, err)
		assert.Equal(t, []string{"u1", "u2"}, memberIDs(v))
	})
}

func TestCreateChannel_EmptyInput(t *testing.T) {
	ctx := context.Background()
	svc := NewChannelService(newFakeChannelRepo(), directory("u1", "u2"), nil)

	_, err := svc.Create(ctx, "u1", "", []string{"u2"})
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = svc.Create(ctx, "u1", "   ", []string{"u2"})
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = svc.Create(ctx, "u1", "General", nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestCreateChannel_InvalidMemberWritesNothing(t *testing.T) {
	ctx := context.Background()
	channels := newFakeChannelRepo()
	svc := NewChannelService(channels, directory("u1", "u2"), nil)

	_, err := svc.Create(ctx, "u1", "General", []string{"u2", "ghost"})
	assert.ErrorIs(t, err, ErrInvalidMembers)
	assert.Empty(t, channels.channels, "no partial write on failed validation")
}

func TestAddMembers(t *testing.T) {
	ctx := context.Background()
	channels := newFakeChannelRepo()
	users := directory("u1", "u2", "u3")
	svc := NewChannelService(channels, users, nil)

	v, err := svc.Create(ctx, "u1", "General", []string{"u2"})
	require.NoError(t, err)

	t.Run("empty list", func(t *testing.T) {
		_, err := svc.AddMembers(ctx, v.ID, nil)
		assert.ErrorIs(t, err, ErrEmptyInput)
	})

	t.Run("invalid member fails closed", func(t *testing.T) {
		_, err := svc.AddMembers(ctx, v.ID, []string{"u3", "ghost"})
		assert.ErrorIs(t, err, ErrInvalidMembers)
		ch, err := channels.GetByID(v.ID)
		require.NoError(t, err)
		assert.Len(t, ch.Members, 2, "failed validation must not mutate the member set")
	})

	t.Run("unknown channel", func(t *testing.T) {
		_, err := svc.AddMembers(ctx, "no-such-channel", []string{"u3"})
		assert.ErrorIs(t, err, ErrChannelNotFound)
	})

	t.Run("adds new member", func(t *testing.T) {
		out, err := svc.AddMembers(ctx, v.ID, []string{"u3"})
		require.NoError(t, err)
		assert.Equal(t, []string{"u1", "u2", "u3"}, memberIDs(out))
	})

	t.Run("existing member is a no-op", func(t *testing.T) {
		out, err := svc.AddMembers(ctx, v.ID, []string{"u2"})
		require.NoError(t, err)
		assert.Equal(t, []string{"u1", "u2", "u3"}, memberIDs(out), "cardinality unchanged")
	})
}

func TestRemoveMembers(t *testing.T) {
	ctx := context.Background()
	channels := newFakeChannelRepo()
	svc := NewChannelService(channels, directory("u1", "u2", "u3"), nil)

	v, err := svc.Create(ctx, "u1", "General", []string{"u2", "u3"})
	require.NoError(t, err)

	t.Run("empty list", func(t *testing.T) {
		_, err := svc.RemoveMembers(ctx, v.ID, nil)
		assert.ErrorIs(t, err, ErrEmptyInput)
	})

	t.Run("unknown channel", func(t *testing.T) {
		_, err := svc.RemoveMembers(ctx, "no-such-channel", []string{"u2"})
		assert.ErrorIs(t, err, ErrChannelNotFound)
	})

	t.Run("non-member is a no-op", func(t *testing.T) {
		out, err := svc.RemoveMembers(ctx, v.ID, []string{"not-in-channel"})
		require.NoError(t, err)
		assert.Equal(t, []string{"u1", "u2", "u3"}, memberIDs(out))
	})

	t.Run("stale reference removable without existence check", func(t *testing.T) {
		// the directory no longer knows "ghost", removal must still work
		raw, err := channels.AddMembers(v.ID, []string{"ghost"})
		require.NoError(t, err)
		require.True(t, raw.HasMember("ghost"))

		out, err := svc.RemoveMembers(ctx, v.ID, []string{"ghost"})
		require.NoError(t, err)
		assert.Equal(t, []string{"u1", "u2", "u3"}, memberIDs(out))
	})

	t.Run("removes member", func(t *testing.T) {
		out, err := svc.RemoveMembers(ctx, v.ID, []string{"u3"})
		require.NoError(t, err)
		assert.Equal(t, []string{"u1", "u2"}, memberIDs(out))
	})
}

func TestAddThenRemoveRoundTrip(t *testing.T) {
	ctx := context.Background()
	channels := newFakeChannelRepo()
	svc := NewChannelService(channels, directory("u1", "u2", "u3", "u4"), nil)

	v, err := svc.Create(ctx, "u1", "General", []string{"u2"})
	require.NoError(t, err)
	original := memberIDs(v)

	_, err = svc.AddMembers(ctx, v.ID, []string{"u3", "u4"})
	require.NoError(t, err)
	out, err := svc.RemoveMembers(ctx, v.ID, []string{"u3", "u4"})
	require.NoError(t, err)

	assert.Equal(t, original, memberIDs(out), "member set restored")
}

func TestConcurrentDisjointMutations(t *testing.T) {
	ctx := context.Background()
	channels := newFakeChannelRepo()
	svc := NewChannelService(channels, directory("u1", "u2", "u3", "u4"), nil)

	v, err := svc.Create(ctx, "u1", "General", []string{"u2", "u3"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := svc.AddMembers(ctx, v.ID, []string{"u4"})
		assert.NoError(t, err)
	}()
	go func() {
		defer wg.Done()
		_, err := svc.RemoveMembers(ctx, v.ID, []string{"u3"})
		assert.NoError(t, err)
	}()
	wg.Wait()

	ch, err := channels.GetByID(v.ID)
	require.NoError(t, err)
	got := append([]string{}, ch.Members...)
	sort.Strings(got)
	assert.Equal(t, []string{"u1", "u2", "u4"}, got, "both mutations survive")
}

func TestListForUser(t *testing.T) {
	ctx := context.Background()
	channels := newFakeChannelRepo()
	svc := NewChannelService(channels, directory("u1", "u2", "u3"), nil)

	a, err := svc.Create(ctx, "u1", "Alpha", []string{"u2"})
	require.NoError(t, err)
	b, err := svc.Create(ctx, "u2", "Beta", []string{"u3"})
	require.NoError(t, err)
	c, err := svc.Create(ctx, "u2", "Gamma", []string{"u1"})
	require.NoError(t, err)

	t.Run("admin or member only", func(t *testing.T) {
		views, err := svc.ListForUser(ctx, "u1")
		require.NoError(t, err)
		ids := make([]string, 0, len(views))
		for _, v := range views {
			ids = append(ids, v.ID)
		}
		assert.ElementsMatch(t, []string{a.ID, c.ID}, ids)
		assert.NotContains(t, ids, b.ID)
	})

	t.Run("newest updated first", func(t *testing.T) {
		// touching Alpha bumps it above Gamma
		_, err := svc.AddMembers(ctx, a.ID, []string{"u3"})
		require.NoError(t, err)

		views, err := svc.ListForUser(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, views, 2)
		assert.Equal(t, a.ID, views[0].ID)
		assert.Equal(t, c.ID, views[1].ID)
	})

	t.Run("members populated with display fields", func(t *testing.T) {
		views, err := svc.ListForUser(ctx, "u3")
		require.NoError(t, err)
		require.NotEmpty(t, views)
		for _, m := range views[0].Members {
			assert.NotEmpty(t, m.Email)
		}
	})
}

func TestDeleteChannel(t *testing.T) {
	ctx := context.Background()
	channels := newFakeChannelRepo()
	svc := NewChannelService(channels, directory("u1", "u2"), nil)

	v, err := svc.Create(ctx, "u1", "General", []string{"u2"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, v.ID))
	assert.ErrorIs(t, svc.Delete(ctx, v.ID), ErrChannelNotFound)
}
