package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/mkarchuk/gamestore/internal/metrics"
	"github.com/mkarchuk/gamestore/internal/models"
	"github.com/mkarchuk/gamestore/internal/store"
	"github.com/mkarchuk/gamestore/internal/validate"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/crypto/bcrypt"
)

// minPasswordLen is the shortest accepted password.
const minPasswordLen = 6

// minAge is the youngest a user may be to register.
const minAge = 13

// timingPad is compared against when a login names an unknown user, so the
// failure path costs the same as a wrong password.
var timingPad, _ = bcrypt.GenerateFromPassword([]byte("gamestore.timing.pad"), bcrypt.DefaultCost)

// AccountService handles registration, authentication and user administration.
type AccountService struct {
	store   store.Store
	metrics *metrics.AppMetrics
}

// NewAccountService creates a new account service
func NewAccountService(st store.Store, m *metrics.AppMetrics) *AccountService {
	return &AccountService{
		store:   st,
		metrics: m,
	}
}

// Register creates a new user if the given data is valid. Preconditions are
// checked in order and the first failure wins; nothing is written on failure.
func (s *AccountService) Register(ctx context.Context, username, password, dateOfBirth string) bool {
	if strings.TrimSpace(username) == "" {
		report("REGISTER", fmt.Errorf("%w: username must not be empty", ErrValidation))
		return false
	}
	if len(password) < minPasswordLen {
		report("REGISTER", fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLen))
		return false
	}

	birth, err := validate.ParseDate(dateOfBirth)
	if err != nil {
		report("REGISTER", fmt.Errorf("%w: %v", ErrValidation, err))
		return false
	}
	if validate.YearsSince(birth) < minAge {
		report("REGISTER", fmt.Errorf("%w: must be %d years of age or older", ErrUnderage, minAge))
		return false
	}

	existing, err := s.store.UserByUsername(ctx, username)
	if err != nil {
		report("REGISTER", err)
		return false
	}
	if existing != nil {
		report("REGISTER", fmt.Errorf("%w: a user with that username already exists", ErrAlreadyExists))
		return false
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		report("REGISTER", err)
		return false
	}

	// A lost uniqueness race surfaces here as a failed insert, not a panic.
	if _, err := s.store.InsertUser(ctx, username, string(hash), birth); err != nil {
		report("REGISTER", err)
		return false
	}

	if s.metrics != nil {
		s.metrics.Registrations.Add(ctx, 1, metric.WithAttributes(s.metrics.WithServiceName(nil)...))
	}
	return true
}

// Login authenticates a user. On success the returned User carries no
// credential material and a fresh empty cart. On failure it returns nil; the
// log line and the cost of the call do not reveal whether the username or the
// password was wrong.
func (s *AccountService) Login(ctx context.Context, username, password string) *models.User {
	user, hash, err := s.store.CredentialsByUsername(ctx, username)
	if err != nil {
		report("LOGIN", err)
		return nil
	}

	compareAgainst := timingPad
	if user != nil {
		compareAgainst = []byte(hash)
	}
	if err := bcrypt.CompareHashAndPassword(compareAgainst, []byte(password)); err != nil || user == nil {
		report("LOGIN", ErrInvalidCredentials)
		if s.metrics != nil {
			s.metrics.LoginFailures.Add(ctx, 1, metric.WithAttributes(s.metrics.WithServiceName(nil)...))
		}
		return nil
	}

	user.Cart = models.NewCart()
	log.Printf("[LOGIN] user [%s] logged in", user.Username)
	return user
}

// UpdateUsername renames a user account.
func (s *AccountService) UpdateUsername(ctx context.Context, current, updated string) bool {
	if strings.TrimSpace(updated) == "" {
		report("RENAME", fmt.Errorf("%w: new username must not be empty", ErrValidation))
		return false
	}

	taken, err := s.store.UserByUsername(ctx, updated)
	if err != nil {
		report("RENAME", err)
		return false
	}
	if taken != nil {
		report("RENAME", fmt.Errorf("%w: a user with that username already exists", ErrAlreadyExists))
		return false
	}

	ok, err := s.store.UpdateUsername(ctx, current, updated)
	if err != nil {
		report("RENAME", err)
		return false
	}
	if !ok {
		report("RENAME", fmt.Errorf("%w: no user named %q", ErrNotFound, current))
		return false
	}
	return true
}

// RemoveUser deletes a user record. A nonexistent id is rejected before any
// mutating call is made.
func (s *AccountService) RemoveUser(ctx context.Context, id int64) bool {
	user, err := s.store.UserByID(ctx, id)
	if err != nil {
		report("REMOVE", err)
		return false
	}
	if user == nil {
		report("REMOVE", fmt.Errorf("%w: no user with id %d", ErrNotFound, id))
		return false
	}

	ok, err := s.store.DeleteUser(ctx, id)
	if err != nil {
		report("REMOVE", err)
		return false
	}
	return ok
}

// ListUsers returns all registered users for the admin view.
func (s *AccountService) ListUsers(ctx context.Context) []models.User {
	users, err := s.store.AllUsers(ctx)
	if err != nil {
		report("USERS", err)
		return nil
	}
	return users
}
