package application

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/raditya/chatwave/internal/domain/entity"
	repo "github.com/raditya/chatwave/internal/domain/repository"
	"github.com/raditya/chatwave/pkg/helpers"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("user already exists")
	ErrNoAvatar           = errors.New("no profile image set")
)

// UserService owns account lifecycle: signup, login, profile, avatar.
type UserService struct {
	Repo         repo.UserRepository
	JWT          *helpers.JWTManager
	GCS          *storage.Client
	GCSBucket    string
	Logger       *logrus.Logger
	ES           *elasticsearch.Client
	ESUsersIndex string
}

func NewUserService(userRepo repo.UserRepository, jwt *helpers.JWTManager, gcs *storage.Client, gcsBucket string, logger *logrus.Logger, es *elasticsearch.Client, esUsersIndex string) *UserService {
	return &UserService{
		Repo:         userRepo,
		JWT:          jwt,
		GCS:          gcs,
		GCSBucket:    gcsBucket,
		Logger:       logger,
		ES:           es,
		ESUsersIndex: esUsersIndex,
	}
}

// Signup creates an account and returns it together with a session
// token. The password is hashed here, at creation, and nowhere else;
// subsequent profile updates never touch the stored hash.
func (s *UserService) Signup(ctx context.Context, email, password string) (*entity.User, string, time.Time, error) {
	if existing, err := s.Repo.GetByEmail(email); err == nil && existing != nil {
		return nil, "", time.Time{}, ErrEmailTaken
	}

	hash, err := helpers.HashPassword(password)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	u := &entity.User{Email: email, Password: hash}
	if err := s.Repo.Create(u); err != nil {
		// the unique constraint catches signups racing past the
		// pre-insert check
		if errors.Is(err, repo.ErrDuplicateEmail) {
			return nil, "", time.Time{}, ErrEmailTaken
		}
		return nil, "", time.Time{}, err
	}

	token, exp, err := s.JWT.Generate(u.Email, u.ID)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	_ = s.indexUser(ctx, u)
	return u, token, exp, nil
}

// Login verifies credentials and issues a session token.
// An unknown email and a wrong password are distinct failures; the
// client renders them differently.
func (s *UserService) Login(ctx context.Context, email, password string) (*entity.User, string, time.Time, error) {
	u, err := s.Repo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, "", time.Time{}, ErrUserNotFound
		}
		return nil, "", time.Time{}, err
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	token, exp, err := s.JWT.Generate(u.Email, u.ID)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate token failed")
		}
		return nil, "", time.Time{}, err
	}
	return u, token, exp, nil
}

func (s *UserService) GetProfile(userID string) (*entity.User, error) {
	return s.lookup(userID)
}

// lookup resolves an account by id. Only a missing row becomes
// ErrUserNotFound; any other storage failure passes through so callers
// report it as an internal error instead of a phantom 404.
func (s *UserService) lookup(userID string) (*entity.User, error) {
	u, err := s.Repo.GetByID(userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

type UpdateProfileInput struct {
	FirstName string
	LastName  string
	Color     *int
}

// UpdateProfile fills in the post-signup profile fields and marks the
// account as set up.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*entity.User, error) {
	u, err := s.lookup(userID)
	if err != nil {
		return nil, err
	}
	u.FirstName = &in.FirstName
	u.LastName = &in.LastName
	if in.Color != nil {
		u.Color = in.Color
	}
	u.ProfileSetup = true
	if err := s.Repo.Update(u); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	_ = s.indexUser(ctx, u)
	return u, nil
}

// UploadAvatar stores the image in GCS and points the account at it.
func (s *UserService) UploadAvatar(ctx context.Context, userID string, r io.Reader, filename, contentType string) (string, error) {
	u, err := s.lookup(userID)
	if err != nil {
		return "", err
	}
	if s.GCS == nil || s.GCSBucket == "" {
		return "", errors.New("gcs not configured")
	}
	id := uuid.NewString()
	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := filepath.ToSlash(filepath.Join("avatars", userID, id+ext))
	url, err := helpers.UploadObject(ctx, s.GCS, s.GCSBucket, objectPath, contentType, r)
	if err != nil {
		return "", err
	}
	u.Image = &url
	if err := s.Repo.Update(u); err != nil {
		return "", err
	}
	_ = s.indexUser(ctx, u)
	return url, nil
}

// RemoveAvatar deletes the stored image object and clears the account's
// avatar reference.
func (s *UserService) RemoveAvatar(ctx context.Context, userID string) error {
	u, err := s.lookup(userID)
	if err != nil {
		return err
	}
	if u.Image == nil {
		return ErrNoAvatar
	}
	if s.GCS != nil && s.GCSBucket != "" {
		if path, ok := strings.CutPrefix(*u.Image, helpers.PublicURL(s.GCSBucket, "")); ok {
			if err := helpers.DeleteObject(ctx, s.GCS, s.GCSBucket, path); err != nil && s.Logger != nil {
				s.Logger.WithError(err).WithField("user_id", u.ID).Warn("avatar object delete failed")
			}
		}
	}
	u.Image = nil
	if err := s.Repo.Update(u); err != nil {
		return err
	}
	_ = s.indexUser(ctx, u)
	return nil
}

func (s *UserService) indexUser(ctx context.Context, u *entity.User) error {
	if s.ES == nil || s.ESUsersIndex == "" {
		return nil
	}
	doc := map[string]any{
		"id":         u.ID,
		"email":      u.Email,
		"first_name": u.FirstName,
		"last_name":  u.LastName,
		"image":      u.Image,
		"color":      u.Color,
		"updated_at": time.Now().UTC().Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESUsersIndex, DocumentID: u.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Warn("es index failed")
		}
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("user_id", u.ID).Warn("es index response error")
	}
	return nil
}

// SearchContacts performs a multi_match search on email and name so the
// client can pick channel members.
func (s *UserService) SearchContacts(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESUsersIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"email^2", "first_name", "last_name"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(
		s.ES.Search.WithContext(c),
		s.ES.Search.WithIndex(s.ESUsersIndex),
		s.ES.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
