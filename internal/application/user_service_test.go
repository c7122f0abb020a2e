package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raditya/chatwave/internal/domain/entity"
	repo "github.com/raditya/chatwave/internal/domain/repository"
	"github.com/raditya/chatwave/pkg/helpers"
)

// --- mocks ---

type mockUserRepo struct {
	createFn       func(u *entity.User) error
	getByIDFn      func(id string) (*entity.User, error)
	getByEmailFn   func(email string) (*entity.User, error)
	getManyByIDsFn func(ids []string) ([]*entity.User, error)
	updateFn       func(u *entity.User) error
}

func (m *mockUserRepo) Create(u *entity.User) error {
	if m.createFn != nil {
		return m.createFn(u)
	}
	u.ID = "generated-id"
	return nil
}

func (m *mockUserRepo) GetByID(id string) (*entity.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(id)
	}
	return nil, repo.ErrNotFound
}

func (m *mockUserRepo) GetByEmail(email string) (*entity.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(email)
	}
	return nil, repo.ErrNotFound
}

func (m *mockUserRepo) GetManyByIDs(ids []string) ([]*entity.User, error) {
	if m.getManyByIDsFn != nil {
		return m.getManyByIDsFn(ids)
	}
	return nil, nil
}

func (m *mockUserRepo) Update(u *entity.User) error {
	if m.updateFn != nil {
		return m.updateFn(u)
	}
	return nil
}

var _ repo.UserRepository = (*mockUserRepo)(nil)

func newTestJWT() *helpers.JWTManager {
	return helpers.NewJWTManager("test-secret", 72*time.Hour)
}

// --- tests ---

func TestSignup_HashesPasswordAndIssuesToken(t *testing.T) {
	var stored *entity.User
	users := &mockUserRepo{
		createFn: func(u *entity.User) error {
			u.ID = "u-1"
			stored = u
			return nil
		},
	}
	jwt := newTestJWT()
	svc := NewUserService(users, jwt, nil, "", nil, nil, "")

	u, token, exp, err := svc.Signup(context.Background(), "alice@example.com", "plaintext-pass")
	require.NoError(t, err)
	require.NotNil(t, stored)

	assert.NotEqual(t, "plaintext-pass", stored.Password)
	assert.True(t, helpers.CompareHashAndPassword(stored.Password, "plaintext-pass"))
	assert.False(t, helpers.CompareHashAndPassword(stored.Password, "wrong-pass"))
	assert.False(t, u.ProfileSetup)
	assert.True(t, exp.After(time.Now()))

	claims, err := jwt.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "u-1", claims.UserID)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	users := &mockUserRepo{
		getByEmailFn: func(email string) (*entity.User, error) {
			return &entity.User{ID: "u-1", Email: email}, nil
		},
	}
	svc := NewUserService(users, newTestJWT(), nil, "", nil, nil, "")

	_, _, _, err := svc.Signup(context.Background(), "alice@example.com", "plaintext-pass")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestSignup_DuplicateEmailRace(t *testing.T) {
	// pre-insert check passes but the unique constraint fires
	users := &mockUserRepo{
		createFn: func(u *entity.User) error { return repo.ErrDuplicateEmail },
	}
	svc := NewUserService(users, newTestJWT(), nil, "", nil, nil, "")

	_, _, _, err := svc.Signup(context.Background(), "alice@example.com", "plaintext-pass")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLogin(t *testing.T) {
	hash, err := helpers.HashPassword("correct-pass")
	require.NoError(t, err)
	users := &mockUserRepo{
		getByEmailFn: func(email string) (*entity.User, error) {
			if email == "alice@example.com" {
				return &entity.User{ID: "u-1", Email: email, Password: hash}, nil
			}
			return nil, repo.ErrNotFound
		},
	}
	jwt := newTestJWT()
	svc := NewUserService(users, jwt, nil, "", nil, nil, "")

	t.Run("unknown email", func(t *testing.T) {
		_, _, _, err := svc.Login(context.Background(), "nobody@example.com", "correct-pass")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, _, err := svc.Login(context.Background(), "alice@example.com", "wrong-pass")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("success", func(t *testing.T) {
		u, token, _, err := svc.Login(context.Background(), "alice@example.com", "correct-pass")
		require.NoError(t, err)
		assert.Equal(t, "u-1", u.ID)

		claims, err := jwt.Parse(token)
		require.NoError(t, err)
		assert.Equal(t, "u-1", claims.UserID)
	})
}

func TestUpdateProfile_CompletesProfileWithoutTouchingPassword(t *testing.T) {
	hash, err := helpers.HashPassword("original-pass")
	require.NoError(t, err)
	account := &entity.User{ID: "u-1", Email: "alice@example.com", Password: hash}

	users := &mockUserRepo{
		getByIDFn: func(id string) (*entity.User, error) {
			if id == account.ID {
				return account, nil
			}
			return nil, repo.ErrNotFound
		},
		updateFn: func(u *entity.User) error {
			account = u
			return nil
		},
	}
	svc := NewUserService(users, newTestJWT(), nil, "", nil, nil, "")

	color := 2
	u, err := svc.UpdateProfile(context.Background(), "u-1", UpdateProfileInput{
		FirstName: "Alice",
		LastName:  "Tan",
		Color:     &color,
	})
	require.NoError(t, err)

	assert.True(t, u.ProfileSetup)
	require.NotNil(t, u.FirstName)
	assert.Equal(t, "Alice", *u.FirstName)
	require.NotNil(t, u.Color)
	assert.Equal(t, 2, *u.Color)

	// the stored hash survives a profile re-save: login still works
	assert.True(t, helpers.CompareHashAndPassword(account.Password, "original-pass"))
}

func TestUpdateProfile_UnknownAccount(t *testing.T) {
	svc := NewUserService(&mockUserRepo{}, newTestJWT(), nil, "", nil, nil, "")

	_, err := svc.UpdateProfile(context.Background(), "ghost", UpdateProfileInput{FirstName: "A", LastName: "B"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

// A broken store must never look like a missing account: only a
// not-found row maps to ErrUserNotFound, everything else propagates so
// the HTTP layer reports an internal error.
func TestAccountLookup_StorageFailureIsNotNotFound(t *testing.T) {
	boom := errors.New("connection refused")
	users := &mockUserRepo{
		getByIDFn:    func(id string) (*entity.User, error) { return nil, boom },
		getByEmailFn: func(email string) (*entity.User, error) { return nil, boom },
	}
	svc := NewUserService(users, newTestJWT(), nil, "", nil, nil, "")

	_, err := svc.GetProfile("u-1")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrUserNotFound)

	_, _, _, err = svc.Login(context.Background(), "alice@example.com", "correct-pass")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrUserNotFound)

	_, err = svc.UpdateProfile(context.Background(), "u-1", UpdateProfileInput{FirstName: "A", LastName: "B"})
	assert.ErrorIs(t, err, boom)

	err = svc.RemoveAvatar(context.Background(), "u-1")
	assert.ErrorIs(t, err, boom)
}

func TestGetProfile(t *testing.T) {
	users := &mockUserRepo{
		getByIDFn: func(id string) (*entity.User, error) {
			if id == "u-1" {
				return &entity.User{ID: "u-1", Email: "alice@example.com"}, nil
			}
			return nil, repo.ErrNotFound
		},
	}
	svc := NewUserService(users, newTestJWT(), nil, "", nil, nil, "")

	u, err := svc.GetProfile("u-1")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)

	_, err = svc.GetProfile("ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
