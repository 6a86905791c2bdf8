package users

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/nvelas/wanderlog/backend/internal/httperr"
	"github.com/nvelas/wanderlog/backend/internal/models"
	"github.com/nvelas/wanderlog/backend/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// UserStore defines the interface for user persistence.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

// Handler holds user HTTP handlers.
type Handler struct {
	users    UserStore
	validate *validator.Validate
	log      zerolog.Logger
}

func NewHandler(users UserStore, log zerolog.Logger) *Handler {
	return &Handler{users: users, validate: validator.New(), log: log}
}

// List returns every user. Passwords never leave the store.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.users.ListUsers(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("user list failed")
		httperr.Write(w, httperr.StoreUnavailable("Fetching users failed, please try again later."))
		return
	}
	if list == nil {
		list = []models.User{}
	}
	writeJSON(w, http.StatusOK, list)
}

// Signup creates a new user with a bcrypt-hashed password.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.Write(w, httperr.UnprocessableInput())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httperr.Write(w, httperr.UnprocessableInput())
		return
	}

	_, err := h.users.GetUserByEmail(r.Context(), req.Email)
	if err == nil {
		httperr.Write(w, httperr.Conflict("User exists already, please login instead."))
		return
	}
	if !errors.Is(err, store.ErrNotFound) {
		h.log.Error().Err(err).Msg("signup existence check failed")
		httperr.Write(w, httperr.StoreUnavailable("Signing up failed, please try again later."))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		httperr.Write(w, httperr.StoreUnavailable("Signing up failed, please try again."))
		return
	}

	created, err := h.users.CreateUser(r.Context(), &models.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		MobileNumber: req.MobileNumber,
		Email:        req.Email,
		Password:     string(hashed),
	})
	if errors.Is(err, store.ErrDuplicateEmail) {
		// Lost the race with a concurrent signup for the same email.
		httperr.Write(w, httperr.Conflict("User exists already, please login instead."))
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("user insert failed")
		httperr.Write(w, httperr.StoreUnavailable("Signing up failed, please try again."))
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Login checks credentials and returns a confirmation. Wrong email and
// wrong password are indistinguishable on purpose.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.Write(w, httperr.UnprocessableInput())
		return
	}

	user, err := h.users.GetUserByEmail(r.Context(), req.Email)
	if errors.Is(err, store.ErrNotFound) {
		httperr.Write(w, httperr.InvalidCredentials())
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("login lookup failed")
		httperr.Write(w, httperr.StoreUnavailable("Logging in failed, please try again later."))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		httperr.Write(w, httperr.InvalidCredentials())
		return
	}

	writeJSON(w, http.StatusOK, models.LoginResponse{
		Message: "Logged in!",
		UserID:  user.ID,
		Email:   user.Email,
	})
}
