package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/raditya/chatwave/internal/application"
	"github.com/raditya/chatwave/internal/domain/entity"
	"github.com/raditya/chatwave/internal/interface/middleware"
	"github.com/raditya/chatwave/pkg/helpers"
	"github.com/raditya/chatwave/pkg/response"
	"github.com/raditya/chatwave/pkg/validation"
)

// AuthHandler serves signup, login, logout, profile and avatar routes.
type AuthHandler struct {
	Svc     *userapp.UserService
	Logger  *logrus.Logger
	Cookies *helpers.Manager
}

func NewAuthHandler(svc *userapp.UserService, logger *logrus.Logger, cookieDomain string, cookieSecure bool) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger, Cookies: helpers.NewCookie(cookieDomain, cookieSecure)}
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,pwd"`
}

type updateProfileRequest struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Color     *int   `json:"color"`
}

func profileView(u *entity.User) gin.H {
	return gin.H{
		"id":           u.ID,
		"email":        u.Email,
		"profileSetup": u.ProfileSetup,
		"firstName":    u.FirstName,
		"lastName":     u.LastName,
		"image":        u.Image,
		"color":        u.Color,
	}
}

// Signup POST /api/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "email and password are required", validation.ToDetails(err))
		return
	}

	u, token, exp, err := h.Svc.Signup(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, userapp.ErrEmailTaken) {
			response.Error(c, http.StatusBadRequest, "user already exists", nil)
			return
		}
		h.Logger.WithError(err).Error("signup failed")
		response.Error(c, http.StatusInternalServerError, "internal server error", nil)
		return
	}

	h.Cookies.SetSession(c, token, exp)
	response.Success(c, http.StatusCreated, gin.H{
		"id":           u.ID,
		"email":        u.Email,
		"token":        token,
		"profileSetup": u.ProfileSetup,
	}, "account created", nil)
}

// Login POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "email and password are required", validation.ToDetails(err))
		return
	}

	u, token, exp, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, userapp.ErrUserNotFound):
			response.Error(c, http.StatusNotFound, "user with given email not found", nil)
		case errors.Is(err, userapp.ErrInvalidCredentials):
			response.Error(c, http.StatusBadRequest, "password is incorrect", nil)
		default:
			h.Logger.WithError(err).Error("login failed")
			response.Error(c, http.StatusInternalServerError, "internal server error", nil)
		}
		return
	}

	h.Cookies.SetSession(c, token, exp)
	view := profileView(u)
	view["token"] = token
	response.Success(c, http.StatusOK, view, "login successful", gin.H{"expires_at": exp})
}

// Logout POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	h.Cookies.Clear(c)
	response.Success(c, http.StatusOK, gin.H{"logged_out": true}, "logout successful", nil)
}

// GetUserInfo GET /api/auth/user-info
func (h *AuthHandler) GetUserInfo(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	u, err := h.Svc.GetProfile(uid)
	if err != nil {
		if errors.Is(err, userapp.ErrUserNotFound) {
			response.Error(c, http.StatusNotFound, "user not found", nil)
			return
		}
		h.Logger.WithError(err).WithField("user_id", uid).Error("profile lookup failed")
		response.Error(c, http.StatusInternalServerError, "internal server error", nil)
		return
	}
	response.Success(c, http.StatusOK, profileView(u), "profile", nil)
}

// UpdateProfile POST /api/auth/update-profile
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "first name and last name are required", validation.ToDetails(err))
		return
	}

	u, err := h.Svc.UpdateProfile(c.Request.Context(), uid, userapp.UpdateProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Color:     req.Color,
	})
	if err != nil {
		if errors.Is(err, userapp.ErrUserNotFound) {
			response.Error(c, http.StatusNotFound, "user not found", nil)
			return
		}
		h.Logger.WithError(err).WithField("user_id", uid).Error("profile update failed")
		response.Error(c, http.StatusInternalServerError, "internal server error", nil)
		return
	}
	response.Success(c, http.StatusOK, profileView(u), "profile updated", nil)
}

// AddProfileImage POST /api/auth/add-profile-image (multipart)
// The target account id may arrive explicitly in the form; the session
// identity is the fallback.
func (h *AuthHandler) AddProfileImage(c *gin.Context) {
	file, err := c.FormFile("profile-image")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "file is required", nil)
		return
	}
	uid := c.PostForm("user")
	if uid == "" {
		uid = c.GetString(middleware.CtxUserIDKey)
	}

	f, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "file is required", nil)
		return
	}
	defer func() { _ = f.Close() }()

	url, err := h.Svc.UploadAvatar(c.Request.Context(), uid, f, file.Filename, file.Header.Get("Content-Type"))
	if err != nil {
		if errors.Is(err, userapp.ErrUserNotFound) {
			response.Error(c, http.StatusNotFound, "user not found", nil)
			return
		}
		h.Logger.WithError(err).WithField("user_id", uid).Error("profile image upload failed")
		response.Error(c, http.StatusInternalServerError, "internal server error", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"image": url}, "profile image added", nil)
}

// RemoveProfileImage DELETE /api/auth/remove-profile-image
func (h *AuthHandler) RemoveProfileImage(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	if err := h.Svc.RemoveAvatar(c.Request.Context(), uid); err != nil {
		switch {
		case errors.Is(err, userapp.ErrUserNotFound):
			response.Error(c, http.StatusNotFound, "user not found", nil)
		case errors.Is(err, userapp.ErrNoAvatar):
			// already absent; removal is idempotent from the client's view
			response.Success[any](c, http.StatusOK, nil, "profile image removed", nil)
		default:
			h.Logger.WithError(err).WithField("user_id", uid).Error("profile image removal failed")
			response.Error(c, http.StatusInternalServerError, "internal server error", nil)
		}
		return
	}
	response.Success[any](c, http.StatusOK, nil, "profile image removed", nil)
}

// SearchContacts GET /api/contacts/search?q=&size=
func (h *AuthHandler) SearchContacts(c *gin.Context) {
	q := c.Query("q")
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	res, err := h.Svc.SearchContacts(c.Request.Context(), q, size)
	if err != nil {
		h.Logger.WithError(err).Warn("contact search failed")
		response.Error(c, http.StatusInternalServerError, "internal server error", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"contacts": res}, "contacts", nil)
}
