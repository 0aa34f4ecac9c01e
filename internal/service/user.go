package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/wickshop/ember/internal/domain"
	"github.com/wickshop/ember/internal/model"
	"github.com/wickshop/ember/internal/store"
	"github.com/wickshop/ember/internal/telemetry"
)

// sessionTTL is how long a login stays valid.
const sessionTTL = 30 * 24 * time.Hour

// UserService manages accounts and auth sessions.
type UserService interface {
	// Signup creates a customer account and opens a session.
	Signup(ctx context.Context, params SignupParams) (*model.User, *model.Session, error)

	// Login verifies credentials and opens a session.
	Login(ctx context.Context, email, password string) (*model.User, *model.Session, error)

	// Logout revokes a session token.
	Logout(ctx context.Context, token string) error

	// Authenticate resolves a session token to its user.
	Authenticate(ctx context.Context, token string) (*model.User, error)

	// GetUser loads one user.
	GetUser(ctx context.Context, id string) (*model.User, error)

	// ListUsers returns all users for the back office.
	ListUsers(ctx context.Context) ([]model.User, error)

	// UpdateUser changes a user's name and role.
	UpdateUser(ctx context.Context, id string, params UpdateUserParams) (*model.User, error)

	// DeleteUser removes a user and their sessions.
	DeleteUser(ctx context.Context, id string) error

	// EnsureAdmin creates the bootstrap admin account if it does not exist.
	EnsureAdmin(ctx context.Context, email, password string) error

	// SweepExpiredSessions removes dead sessions. Returns the count removed.
	SweepExpiredSessions(ctx context.Context) (int64, error)
}

// SignupParams carries an account registration.
type SignupParams struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name"`
}

// UpdateUserParams carries an admin's user edit.
type UpdateUserParams struct {
	Name string `json:"name"`
	Role string `json:"role" validate:"omitempty,oneof=customer admin"`
}

type userService struct {
	users    *store.UserStore
	sessions *store.SessionStore
	metrics  *telemetry.BusinessMetrics
	log      zerolog.Logger
}

// NewUserService creates a UserService.
func NewUserService(users *store.UserStore, sessions *store.SessionStore, metrics *telemetry.BusinessMetrics, log zerolog.Logger) UserService {
	return &userService{users: users, sessions: sessions, metrics: metrics, log: log}
}

func (s *userService) Signup(ctx context.Context, params SignupParams) (*model.User, *model.Session, error) {
	const op = "user.Signup"

	email := normalizeEmail(params.Email)
	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, domain.WrapError(err, domain.EINTERNAL, op, "Failed to hash password")
	}

	user := &model.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         params.Name,
		Role:         model.RoleCustomer,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if domain.ErrorCode(err) == domain.ECONFLICT {
			return nil, nil, ErrEmailTaken
		}
		return nil, nil, err
	}

	sess, err := s.openSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	s.metrics.Signups.Inc()
	s.log.Info().Str("user_id", user.ID).Msg("account created")
	return user, sess, nil
}

func (s *userService) Login(ctx context.Context, email, password string) (*model.User, *model.Session, error) {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		s.metrics.LoginFailed.Inc()
		// Same error for unknown email and bad password.
		return nil, nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.metrics.LoginFailed.Inc()
		return nil, nil, ErrInvalidCredentials
	}

	sess, err := s.openSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	s.metrics.Logins.Inc()
	return user, sess, nil
}

func (s *userService) Logout(ctx context.Context, token string) error {
	return s.sessions.DeleteSession(ctx, token)
}

func (s *userService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	sess, err := s.sessions.GetSession(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.users.GetUser(ctx, sess.UserID)
}

func (s *userService) GetUser(ctx context.Context, id string) (*model.User, error) {
	return s.users.GetUser(ctx, id)
}

func (s *userService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.users.ListUsers(ctx)
}

func (s *userService) UpdateUser(ctx context.Context, id string, params UpdateUserParams) (*model.User, error) {
	const op = "user.Update"

	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if params.Name != "" {
		user.Name = params.Name
	}
	if params.Role != "" {
		if params.Role != model.RoleCustomer && params.Role != model.RoleAdmin {
			return nil, domain.Errorf(domain.EINVALID, op, "Unknown role: %s", params.Role)
		}
		user.Role = params.Role
	}
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) DeleteUser(ctx context.Context, id string) error {
	return s.users.DeleteUser(ctx, id)
}

func (s *userService) EnsureAdmin(ctx context.Context, email, password string) error {
	const op = "user.EnsureAdmin"

	if email == "" || password == "" {
		return nil
	}
	email = normalizeEmail(email)
	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil
	} else if domain.ErrorCode(err) != domain.ENOTFOUND {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.WrapError(err, domain.EINTERNAL, op, "Failed to hash password")
	}
	admin := &model.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         "Administrator",
		Role:         model.RoleAdmin,
	}
	if err := s.users.CreateUser(ctx, admin); err != nil {
		// A concurrent replica may have created it.
		if domain.ErrorCode(err) == domain.ECONFLICT {
			return nil
		}
		return err
	}
	s.log.Info().Str("email", email).Msg("bootstrap admin created")
	return nil
}

func (s *userService) SweepExpiredSessions(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpiredSessions(ctx, time.Now())
}

func (s *userService) openSession(ctx context.Context, userID string) (*model.Session, error) {
	const op = "user.openSession"

	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "Failed to generate session token")
	}
	sess := &model.Session{
		Token:     hex.EncodeToString(b),
		UserID:    userID,
		ExpiresAt: time.Now().Add(sessionTTL),
	}
	if err := s.sessions.CreateSession(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
