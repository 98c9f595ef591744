package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/service-center/internal/apperr"
	"github.com/ukydev/service-center/internal/auth"
	"github.com/ukydev/service-center/internal/db"
	"github.com/ukydev/service-center/internal/models"
)

var errEmailTaken = fmt.Errorf("%w: email is already registered", apperr.ErrConflict)

// AuthHandler handles registration and login for every role
type AuthHandler struct {
	authService    *auth.Service
	userCollection db.UserCollection
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService *auth.Service, userCollection db.UserCollection) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		userCollection: userCollection,
	}
}

// Register returns a handler that creates accounts with role. Emails are
// unique across roles.
func (h *AuthHandler) Register(role models.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !models.IsValidRole(role) {
			writeError(w, r, apperr.Invalid("role", "is not a known role"))
			return
		}

		var req models.RegisterRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))

		switch {
		case req.Name == "":
			writeError(w, r, apperr.Missing("name"))
			return
		case req.Email == "":
			writeError(w, r, apperr.Missing("email"))
			return
		case req.Password == "":
			writeError(w, r, apperr.Missing("password"))
			return
		}
		if err := h.authService.ValidateEmail(req.Email); err != nil {
			writeError(w, r, apperr.Invalid("email", err.Error()))
			return
		}
		if err := h.authService.ValidatePassword(req.Password); err != nil {
			writeError(w, r, apperr.Invalid("password", err.Error()))
			return
		}

		// the unique index still catches concurrent sign-ups
		_, err := h.userCollection.FindUserByEmail(r.Context(), req.Email)
		switch {
		case err == nil:
			writeError(w, r, errEmailTaken)
			return
		case !errors.Is(err, db.ErrNotFound):
			writeError(w, r, err)
			return
		}

		passwordHash, err := h.authService.HashPassword(req.Password)
		if err != nil {
			writeError(w, r, err)
			return
		}

		user := &models.User{
			Name:         req.Name,
			Email:        req.Email,
			PasswordHash: passwordHash,
			Role:         role,
		}
		if _, err := h.userCollection.InsertUser(r.Context(), user); err != nil {
			if errors.Is(err, db.ErrDuplicate) {
				writeError(w, r, errEmailTaken)
				return
			}
			writeError(w, r, err)
			return
		}

		log.WithFields(log.Fields{
			"user_id": user.ID.Hex(),
			"role":    string(role),
		}).Info("User registered")
		writeJSON(w, http.StatusCreated, message{
			"message": registeredMessage(role),
			"user":    user,
		})
	}
}

// Login returns a handler that issues a token to users registered with role
func (h *AuthHandler) Login(role models.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))
		if req.Email == "" {
			writeError(w, r, apperr.Missing("email"))
			return
		}
		if req.Password == "" {
			writeError(w, r, apperr.Missing("password"))
			return
		}

		user, err := h.userCollection.FindUserByEmailAndRole(r.Context(), req.Email, role)
		if err != nil && !errors.Is(err, db.ErrNotFound) {
			writeError(w, r, err)
			return
		}
		if user == nil || !h.authService.CheckPassword(req.Password, user.PasswordHash) {
			writeError(w, r, auth.ErrInvalidCredentials)
			return
		}

		token, err := h.authService.GenerateToken(user)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, models.LoginResponse{
			AccessToken: token,
			TokenType:   "bearer",
			User:        *user,
		})
	}
}

func registeredMessage(role models.Role) string {
	switch role {
	case models.RoleMechanic:
		return "Mechanic registered successfully"
	case models.RoleAdmin:
		return "Admin registered successfully"
	default:
		return "Registered successfully"
	}
}
