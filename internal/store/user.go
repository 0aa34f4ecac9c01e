package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/wickshop/ember/internal/domain"
	"github.com/wickshop/ember/internal/model"
)

// UserStore persists user accounts.
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// CreateUser inserts u. Email collisions surface as conflicts.
func (s *UserStore) CreateUser(ctx context.Context, u *model.User) error {
	const op = "UserStore.CreateUser"

	err := s.db.WithContext(ctx).Create(u).Error
	if IsDuplicateKey(err) {
		return domain.Conflict(op, "An account with this email already exists")
	}
	if err != nil {
		return wrapErr(op, err)
	}
	return nil
}

// GetUser loads a user by ID.
func (s *UserStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	const op = "UserStore.GetUser"

	var u model.User
	err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if IsNotFound(err) {
		return nil, domain.Errorf(domain.ENOTFOUND, op, "User not found")
	}
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return &u, nil
}

// GetUserByEmail loads a user by email.
func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	const op = "UserStore.GetUserByEmail"

	var u model.User
	err := s.db.WithContext(ctx).First(&u, "email = ?", email).Error
	if IsNotFound(err) {
		return nil, domain.Errorf(domain.ENOTFOUND, op, "User not found")
	}
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return &u, nil
}

// ListUsers returns all users, newest first.
func (s *UserStore) ListUsers(ctx context.Context) ([]model.User, error) {
	const op = "UserStore.ListUsers"

	var users []model.User
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, wrapErr(op, err)
	}
	return users, nil
}

// UpdateUser saves u.
func (s *UserStore) UpdateUser(ctx context.Context, u *model.User) error {
	const op = "UserStore.UpdateUser"

	err := s.db.WithContext(ctx).Save(u).Error
	if IsDuplicateKey(err) {
		return domain.Conflict(op, "An account with this email already exists")
	}
	if err != nil {
		return wrapErr(op, err)
	}
	return nil
}

// DeleteUser removes a user and their sessions.
func (s *UserStore) DeleteUser(ctx context.Context, id string) error {
	const op = "UserStore.DeleteUser"

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&model.Session{}, "user_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.User{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.Errorf(domain.ENOTFOUND, op, "User not found")
		}
		return nil
	})
	if err != nil {
		if domain.ErrorCode(err) == domain.ENOTFOUND {
			return err
		}
		return wrapErr(op, err)
	}
	return nil
}

// SessionStore persists server-side auth sessions.
type SessionStore struct {
	db *gorm.DB
}

func NewSessionStore(db *gorm.DB) *SessionStore {
	return &SessionStore{db: db}
}

// CreateSession inserts sess.
func (s *SessionStore) CreateSession(ctx context.Context, sess *model.Session) error {
	const op = "SessionStore.CreateSession"

	if err := s.db.WithContext(ctx).Create(sess).Error; err != nil {
		return wrapErr(op, err)
	}
	return nil
}

// GetSession loads a live session by token. Expired sessions read as not
// found.
func (s *SessionStore) GetSession(ctx context.Context, token string) (*model.Session, error) {
	const op = "SessionStore.GetSession"

	var sess model.Session
	err := s.db.WithContext(ctx).
		First(&sess, "token = ? AND expires_at > ?", token, time.Now()).Error
	if IsNotFound(err) {
		return nil, domain.Unauthorized(op, "Session expired or invalid")
	}
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return &sess, nil
}

// DeleteSession removes a session by token. Deleting an absent session is not
// an error.
func (s *SessionStore) DeleteSession(ctx context.Context, token string) error {
	const op = "SessionStore.DeleteSession"

	if err := s.db.WithContext(ctx).Delete(&model.Session{}, "token = ?", token).Error; err != nil {
		return wrapErr(op, err)
	}
	return nil
}

// DeleteExpiredSessions removes sessions past their expiry and returns the
// count removed.
func (s *SessionStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	const op = "SessionStore.DeleteExpiredSessions"

	res := s.db.WithContext(ctx).Delete(&model.Session{}, "expires_at < ?", now)
	if res.Error != nil {
		return 0, wrapErr(op, res.Error)
	}
	return res.RowsAffected, nil
}
